package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/config"
	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/task"
	"github.com/hibiken/asynq"
)

type archiveInspector interface {
	ListArchivedTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	RunAllArchivedTasks(queue string) (int, error)
}

func main() {
	ctx := context.Background()

	limit := flag.Int("limit", 50, "maximum number of dead-lettered jobs to list")
	requeue := flag.Bool("requeue", false, "move every dead-lettered job back to the pending queue")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	if cfg.RedisAddr == "" {
		logger.Error(ctx, "❌  Redis not configured: this command requires a running Redis instance")
		os.Exit(1)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warnf(ctx, "Inspector close error: %v", err)
		}
	}()

	if *requeue {
		n, err := inspector.RunAllArchivedTasks(cfg.QueueName)
		if err != nil {
			logger.Errorf(ctx, "❌  Could not requeue dead-lettered jobs: %v", err)
			os.Exit(1)
		}
		logger.Infof(ctx, "✅  Requeued %d dead-lettered job(s) on %q", n, cfg.QueueName)
		return
	}

	if err := listDeadLetters(os.Stdout, inspector, cfg.QueueName, *limit); err != nil {
		logger.Errorf(ctx, "❌  Could not list dead-lettered jobs: %v", err)
		os.Exit(1)
	}
}

// listDeadLetters prints the archived transcode jobs of queue with the error
// that sent them there.
func listDeadLetters(w io.Writer, insp archiveInspector, queue string, limit int) error {
	tasks, err := insp.ListArchivedTasks(queue, asynq.PageSize(limit))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK ID\tVIDEO ID\tATTEMPTS\tFAILED AT\tLAST ERROR")
	for _, t := range tasks {
		videoID := "?"
		if t.Type == task.TypeTranscodeVideo {
			if job, err := task.ParseTranscodeJob(t.Payload); err == nil {
				videoID = job.VideoID.String()
			}
		}
		failedAt := "-"
		if !t.LastFailedAt.IsZero() {
			failedAt = t.LastFailedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", t.ID, videoID, t.Retried+1, failedAt, t.LastErr)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d dead-lettered job(s) on %q\n", len(tasks), queue)
	return err
}

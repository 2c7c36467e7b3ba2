package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is shared by every binary: the API publishes with the same queue
// name, deadline and attempt ceiling the worker consumes with.
type Settings struct {
	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ServerPort      int
	MetricsPort     int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	Bucket         string

	RedisAddr     string
	RedisPassword string

	QueueName       string
	JobDeadline     time.Duration
	JobMaxAttempts  int
	Consumers       int
	SignedURLExpiry time.Duration
	BacklogMinAge   time.Duration

	TranscoderCommand string
	TranscoderArgs    []string

	JWTPublicKey string
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("METRICS_PORT", 2112)
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "videos")
	v.SetDefault("QUEUE_NAME", "transcode-jobs")
	v.SetDefault("JOB_DEADLINE", "30s")
	v.SetDefault("JOB_MAX_ATTEMPTS", 5)
	v.SetDefault("WORKER_CONSUMERS", 1)
	v.SetDefault("SIGNED_URL_EXPIRY", "24h")
	v.SetDefault("BACKLOG_MIN_AGE", "1h")

	for _, key := range []string{
		"MARIADB_DSN",
		"MARIADB_MAX_OPEN_CONN",
		"MARIADB_MAX_IDLE_CONNS",
		"MARIADB_CONN_MAX_LIFETIME",
		"MINIO_ENDPOINT",
		"MINIO_ACCESS_KEY",
		"MINIO_SECRET_KEY",
	} {
		if !v.IsSet(key) {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	s := &Settings{
		MariaDBDSN:      v.GetString("MARIADB_DSN"),
		MaxOpenConns:    v.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:    v.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: time.Duration(v.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,
		ServerPort:      v.GetInt("SERVER_PORT"),
		MetricsPort:     v.GetInt("METRICS_PORT"),

		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:    v.GetBool("MINIO_USE_SSL"),
		Bucket:         v.GetString("MINIO_BUCKET"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		QueueName:       v.GetString("QUEUE_NAME"),
		JobDeadline:     v.GetDuration("JOB_DEADLINE"),
		JobMaxAttempts:  v.GetInt("JOB_MAX_ATTEMPTS"),
		Consumers:       v.GetInt("WORKER_CONSUMERS"),
		SignedURLExpiry: v.GetDuration("SIGNED_URL_EXPIRY"),
		BacklogMinAge:   v.GetDuration("BACKLOG_MIN_AGE"),

		TranscoderCommand: v.GetString("TRANSCODER_COMMAND"),
		TranscoderArgs:    strings.Fields(v.GetString("TRANSCODER_ARGS")),

		JWTPublicKey: v.GetString("JWT_PUBLIC_KEY"),
	}

	if s.JobDeadline <= 0 {
		return nil, fmt.Errorf("JOB_DEADLINE must be positive")
	}
	if s.JobMaxAttempts < 1 {
		return nil, fmt.Errorf("JOB_MAX_ATTEMPTS must be at least 1")
	}
	if s.Consumers < 1 {
		return nil, fmt.Errorf("WORKER_CONSUMERS must be at least 1")
	}
	if s.SignedURLExpiry <= 0 {
		return nil, fmt.Errorf("SIGNED_URL_EXPIRY must be positive")
	}

	return s, nil
}

package video

import (
	msuuid "github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/google/uuid"
)

var (
	videoID = msuuid.UUID(uuid.MustParse("aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"))
	roomID  = msuuid.UUID(uuid.MustParse("11111111-2222-4333-8444-555555555555"))
)

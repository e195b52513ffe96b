package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/encoderclient"
	"github.com/shibafu528/dtvault-central/internal/metrics"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

// NewVideoCreatedHandler builds the Handler that reacts to a committed
// video by asking the external encoder for a thumbnail and writing the
// result back to the catalog (spec §4.F, supplemented from
// original_source's event/video_created.rs). selfBaseURL is this
// process's own externally-reachable address, used to build the
// get_video URL handed to the encoder as the thumbnail source.
func NewVideoCreatedHandler(store *catalog.Store, reg *storage.Registry, encoder *encoderclient.Client, selfBaseURL string) Handler {
	return func(ctx context.Context, ev VideoCreated) error {
		if encoder == nil {
			return nil
		}

		video, err := store.FindVideo(ev.VideoID)
		if err != nil {
			return fmt.Errorf("events: video_created lookup: %w", err)
		}

		storageID, err := uuid.Parse(video.StorageID)
		if err != nil {
			return fmt.Errorf("%w: video %s has malformed storage_id", storage.ErrUnavailable, video.ID)
		}
		backend, ok := reg.ByID(storageID)
		if !ok || !backend.IsAvailable() {
			return nil
		}

		sourceURL := strings.TrimRight(selfBaseURL, "/") + "/v1/videos/" + video.ID
		result, err := encoder.GenerateThumbnail(ctx, encoderclient.ThumbnailRequest{
			VideoID:   video.ID,
			SourceURL: sourceURL,
		})
		if err != nil {
			metrics.RecordThumbnailAttempt("failure")
			return fmt.Errorf("events: generate thumbnail: %w", err)
		}
		metrics.RecordThumbnailAttempt("success")

		if err := store.UpdateVideoThumbnail(video.ID, result.JPEGBytes, result.MimeType); err != nil {
			return fmt.Errorf("events: update_video_thumbnail: %w", err)
		}
		return nil
	}
}

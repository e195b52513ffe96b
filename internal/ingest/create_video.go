package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	xglog "github.com/shibafu528/dtvault-central/internal/log"
	"github.com/shibafu528/dtvault-central/internal/metrics"
	"github.com/shibafu528/dtvault-central/internal/placement"
	"github.com/shibafu528/dtvault-central/internal/rpcproto"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

// Deps are the components CreateVideo and GetVideo need from the
// running process: the catalog of record, the mounted storage
// backends, and the placement rules that route a new video to one of
// them.
type Deps struct {
	Catalog   *catalog.Store
	Registry  *storage.Registry
	Placement placement.Config
	// WriteLimiter bounds how fast create_video may open new backend
	// writers. Nil disables the throttle entirely.
	WriteLimiter *rate.Limiter
}

var log = xglog.WithComponent("ingest")

// CreateVideo drives the create_video operation end to end (spec
// §4.E): validate the header, resolve the owning program, place the
// new video with the configured rules, stream frames is read from
// body into the chosen backend's writer, and commit the video to the
// catalog once the backend confirms the bytes are durable.
func CreateVideo(ctx context.Context, deps Deps, header CreateVideoHeader, body *bufio.Reader) (VideoView, error) {
	started := time.Now()
	outcome := "rejected"
	defer func() { metrics.RecordIngestDuration(outcome, time.Since(started)) }()

	if err := header.validate(); err != nil {
		return VideoView{}, err
	}
	if err := storage.ValidateFileName(header.FileName); err != nil {
		return VideoView{}, err
	}

	program, err := deps.Catalog.FindByID(header.ProgramID)
	if err != nil {
		return VideoView{}, err
	}

	candidate := &catalog.Video{
		ID:               uuid.NewString(),
		ProviderID:       header.ProviderID,
		FileName:         header.FileName,
		OriginalFileName: header.FileName,
		MimeType:         header.MimeType,
		TotalLength:      header.TotalLength,
	}

	decision, err := placement.Decide(deps.Placement, deps.Registry, program, candidate)
	if err != nil {
		return VideoView{}, err
	}
	storageID, err := decision.Backend.StorageID()
	if err != nil {
		return VideoView{}, err
	}
	candidate.StorageID = storageID.String()
	candidate.StoragePrefix = decision.Prefix
	metrics.RecordPlacementDecision(decision.Backend.Label())

	if deps.WriteLimiter != nil {
		if err := deps.WriteLimiter.Wait(ctx); err != nil {
			return VideoView{}, fmt.Errorf("ingest: write limiter: %w", err)
		}
	}

	metadata := map[string]string{"provider_id": header.ProviderID}
	writer, err := decision.Backend.Create(ctx, program, metadata, candidate)
	if err != nil {
		if _, backupErr := err.(*storage.MetadataBackupError); !backupErr {
			outcome = "aborted"
			return VideoView{}, err
		}
		log.Warn().Err(err).Str("video_id", candidate.ID).Msg("video sidecar backup failed, continuing with primary artifact")
	}

	written, err := streamIntoWriter(ctx, body, writer)
	metrics.RecordIngestBytes(decision.Backend.Label(), written)
	if err != nil {
		outcome = "aborted"
		_ = writer.Abort(ctx)
		return VideoView{}, err
	}

	if err := writer.Finish(ctx); err != nil {
		outcome = "aborted"
		return VideoView{}, err
	}

	created, err := deps.Catalog.CreateVideo(program.Key(), candidate)
	if err != nil {
		outcome = "aborted"
		_ = writer.Abort(ctx)
		return VideoView{}, err
	}

	outcome = "committed"
	return VideoView{
		ID:            created.ID,
		ProgramID:     created.ProgramID,
		ProviderID:    created.ProviderID,
		FileName:      created.FileName,
		MimeType:      created.MimeType,
		TotalLength:   created.TotalLength,
		StorageID:     created.StorageID,
		StoragePrefix: created.StoragePrefix,
	}, nil
}

// streamIntoWriter reads Datagram frames from body until the stream
// ends, rejecting any frame whose offset does not match the number of
// bytes written so far (spec §4.E step 5). It returns the total number
// of bytes written, for metrics, regardless of whether it ultimately
// errors.
func streamIntoWriter(ctx context.Context, body *bufio.Reader, w storage.Writer) (int, error) {
	var written uint64
	for {
		if err := ctx.Err(); err != nil {
			return int(written), err
		}
		frame, err := rpcproto.ReadFrame(body)
		if err != nil {
			if err == io.EOF {
				return int(written), nil
			}
			return int(written), fmt.Errorf("ingest: read datagram: %w", err)
		}
		if frame.Type != rpcproto.FrameDatagram {
			return int(written), fmt.Errorf("ingest: unexpected frame type %s in create_video stream", frame.Type)
		}
		if frame.Datagram.Offset != written {
			return int(written), fmt.Errorf("%w: got %d, already wrote %d bytes", ErrInvalidOffset, frame.Datagram.Offset, written)
		}
		if _, err := w.Write(frame.Datagram.Payload); err != nil {
			return int(written), fmt.Errorf("ingest: write to backend: %w", err)
		}
		written += uint64(len(frame.Datagram.Payload))
	}
}

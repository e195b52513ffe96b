package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shibafu528/dtvault-central/internal/metrics"
	"github.com/shibafu528/dtvault-central/internal/rpcproto"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

// GetVideo drives the get_video operation (spec §4.E): resolve the
// video and its backend, open a reader, and stream one Header frame
// (the exchangeable video) followed by Datagram frames of up to
// rpcproto.MaxDatagramBytes each.
//
// Reading from the backend and writing frames to w run as two tasks
// joined by a size-1 channel and an errgroup, grounded on the
// supervised-goroutine-pair style the teacher uses for its worker
// orchestration: the first task's error cancels the group's context,
// which stops the second task's next channel operation promptly (spec
// §5 cancellation requirement).
func GetVideo(ctx context.Context, deps Deps, videoID string, w io.Writer) error {
	video, err := deps.Catalog.FindVideo(videoID)
	if err != nil {
		return err
	}
	program, err := deps.Catalog.FindByID(video.ProgramID)
	if err != nil {
		return err
	}

	storageID, err := uuid.Parse(video.StorageID)
	if err != nil {
		return fmt.Errorf("%w: video has malformed storage_id %q", storage.ErrUnavailable, video.StorageID)
	}
	backend, ok := deps.Registry.ByID(storageID)
	if !ok {
		return fmt.Errorf("%w: backend %s not mounted", storage.ErrUnavailable, video.StorageID)
	}

	reader, err := backend.Find(ctx, program, video)
	if err != nil {
		return err
	}
	defer reader.Close()

	view := VideoView{
		ID:            video.ID,
		ProgramID:     video.ProgramID,
		ProviderID:    video.ProviderID,
		FileName:      video.FileName,
		MimeType:      video.MimeType,
		TotalLength:   video.TotalLength,
		StorageID:     video.StorageID,
		StoragePrefix: video.StoragePrefix,
	}
	headerPayload, err := encodeVideoView(view)
	if err != nil {
		return err
	}
	if err := rpcproto.WriteHeader(w, headerPayload); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	chunks := make(chan rpcproto.Datagram, 1)

	g.Go(func() error {
		defer close(chunks)
		buf := make([]byte, rpcproto.MaxDatagramBytes)
		var offset uint64
		for {
			n, err := reader.Read(buf)
			if n > 0 {
				payload := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- rpcproto.Datagram{Offset: offset, Payload: payload}:
					offset += uint64(n)
					metrics.RecordEgressBytes(backend.Label(), n)
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return fmt.Errorf("ingest: read backend: %w", err)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case dg, ok := <-chunks:
				if !ok {
					return nil
				}
				if err := rpcproto.WriteDatagram(w, dg); err != nil {
					return fmt.Errorf("ingest: write datagram: %w", err)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

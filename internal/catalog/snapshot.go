package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/shibafu528/dtvault-central/internal/fslock"
	xglog "github.com/shibafu528/dtvault-central/internal/log"
)

// snapshot is the full in-memory catalog state as persisted to disk.
type snapshot struct {
	programs []*Program
	videos   []*Video
}

// saveSnapshot writes snap to path atomically: the payload is built in a
// pending file beside path and only renamed into place once fully
// flushed, so a crash mid-write never leaves a truncated catalog
// (spec §4.C). An exclusive lock on the sibling file path+".lock"
// serializes concurrent writers,
// though the store's own single-writer discipline already ensures there
// is only ever one in-process caller.
func saveSnapshot(path string, snap snapshot) error {
	lockFile, err := os.OpenFile(path+".lock", os.O_RDWR|os.O_CREATE, 0o640)
	if err != nil {
		return fmt.Errorf("catalog: open snapshot lock: %w", err)
	}
	defer lockFile.Close()

	lock, err := fslock.Exclusive(lockFile)
	if err != nil {
		return fmt.Errorf("catalog: lock snapshot: %w", err)
	}
	defer lock.Unlock()

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("catalog: open pending snapshot: %w", err)
	}
	defer pending.Cleanup()

	bw := bufio.NewWriter(pending)
	for _, p := range snap.programs {
		if err := writeRecord(bw, recordTypeProgram, encodeProgram(p)); err != nil {
			return fmt.Errorf("catalog: write program record: %w", err)
		}
	}
	for _, v := range snap.videos {
		if err := writeRecord(bw, recordTypeVideo, encodeVideo(v)); err != nil {
			return fmt.Errorf("catalog: write video record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("catalog: flush pending snapshot: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("catalog: commit snapshot: %w", err)
	}
	return nil
}

// loadSnapshot reads path and decodes every record in it. A missing
// file is treated as an empty catalog, matching a fresh install.
func loadSnapshot(path string) (snapshot, error) {
	log := xglog.WithComponent("catalog.snapshot")

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot{}, nil
		}
		return snapshot{}, fmt.Errorf("catalog: open snapshot: %w", err)
	}
	defer f.Close()

	lock, err := fslock.Shared(f)
	if err != nil {
		return snapshot{}, fmt.Errorf("catalog: lock snapshot: %w", err)
	}
	defer lock.Unlock()

	return decodeSnapshot(bufio.NewReader(f), log)
}

func decodeSnapshot(r *bufio.Reader, log zerolog.Logger) (snapshot, error) {
	var snap snapshot
	recordIndex := 0
	for {
		recType, payload, pos, err := readRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return snapshot{}, fmt.Errorf("catalog: corrupt snapshot at record %d (byte offset %d): %w", recordIndex, pos, err)
		}

		switch recType {
		case recordTypeProgram:
			p, err := decodeProgram(payload)
			if err != nil {
				return snapshot{}, fmt.Errorf("catalog: corrupt program record %d: %w", recordIndex, err)
			}
			snap.programs = append(snap.programs, p)
		case recordTypeVideo:
			v, err := decodeVideo(payload)
			if err != nil {
				return snapshot{}, fmt.Errorf("catalog: corrupt video record %d: %w", recordIndex, err)
			}
			snap.videos = append(snap.videos, v)
		default:
			return snapshot{}, fmt.Errorf("catalog: unknown record type %d at record %d", recType, recordIndex)
		}
		recordIndex++
	}

	log.Debug().Int("programs", len(snap.programs)).Int("videos", len(snap.videos)).Msg("loaded catalog snapshot")
	return snap, nil
}

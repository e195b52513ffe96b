package ingest

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/placement"
	"github.com/shibafu528/dtvault-central/internal/rpcproto"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

func newTestDeps(t *testing.T) (Deps, *catalog.Program) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.bin"))
	require.NoError(t, err)

	backend, err := storage.NewEphemeralBackend("", "primary")
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	reg, err := storage.NewRegistry(backend)
	require.NoError(t, err)

	program, _, err := store.FindOrCreate(catalog.ProgramKey{
		StartAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		NetworkID: 1,
		ServiceID: 2,
		EventID:   3,
	}, func() (*catalog.Program, error) {
		return &catalog.Program{Name: "test program"}, nil
	})
	require.NoError(t, err)

	return Deps{
		Catalog:   store,
		Registry:  reg,
		Placement: placement.Config{DefaultStorage: "primary"},
	}, program
}

func encodedUploadBody(t *testing.T, chunks ...[]byte) *bufio.Reader {
	t.Helper()
	var buf bytes.Buffer
	var offset uint64
	for _, c := range chunks {
		require.NoError(t, rpcproto.WriteDatagram(&buf, rpcproto.Datagram{Offset: offset, Payload: c}))
		offset += uint64(len(c))
	}
	return bufio.NewReader(&buf)
}

func TestCreateVideo_Success(t *testing.T) {
	deps, program := newTestDeps(t)
	header := CreateVideoHeader{
		ProgramID:  program.ID,
		ProviderID: "prov-1",
		FileName:   "recording.ts",
		MimeType:   "video/mp2t",
	}
	body := encodedUploadBody(t, []byte("hello "), []byte("world"))

	view, err := CreateVideo(context.Background(), deps, header, body)
	require.NoError(t, err)
	require.Equal(t, program.ID, view.ProgramID)
	require.Equal(t, "prov-1", view.ProviderID)
	require.NotEmpty(t, view.ID)
	require.NotEmpty(t, view.StorageID)

	stored, err := deps.Catalog.FindVideo(view.ID)
	require.NoError(t, err)
	require.Equal(t, "recording.ts", stored.FileName)
}

func TestCreateVideo_RejectsMissingField(t *testing.T) {
	deps, program := newTestDeps(t)
	header := CreateVideoHeader{ProgramID: program.ID, FileName: "a.ts", MimeType: "video/mp2t"}
	_, err := CreateVideo(context.Background(), deps, header, encodedUploadBody(t))
	require.ErrorIs(t, err, ErrMissingField)
}

func TestCreateVideo_RejectsInvalidFileName(t *testing.T) {
	deps, program := newTestDeps(t)
	header := CreateVideoHeader{ProgramID: program.ID, ProviderID: "p1", FileName: "../escape", MimeType: "video/mp2t"}
	_, err := CreateVideo(context.Background(), deps, header, encodedUploadBody(t))
	require.ErrorIs(t, err, storage.ErrInvalidFileName)
}

func TestCreateVideo_RejectsUnknownProgram(t *testing.T) {
	deps, _ := newTestDeps(t)
	header := CreateVideoHeader{ProgramID: "missing", ProviderID: "p1", FileName: "a.ts", MimeType: "video/mp2t"}
	_, err := CreateVideo(context.Background(), deps, header, encodedUploadBody(t))
	require.ErrorIs(t, err, catalog.ErrProgramNotFound)
}

func TestCreateVideo_RejectsDuplicateProviderID(t *testing.T) {
	deps, program := newTestDeps(t)
	header := CreateVideoHeader{ProgramID: program.ID, ProviderID: "dup", FileName: "a.ts", MimeType: "video/mp2t"}
	_, err := CreateVideo(context.Background(), deps, header, encodedUploadBody(t, []byte("x")))
	require.NoError(t, err)

	header2 := CreateVideoHeader{ProgramID: program.ID, ProviderID: "dup", FileName: "b.ts", MimeType: "video/mp2t"}
	_, err = CreateVideo(context.Background(), deps, header2, encodedUploadBody(t, []byte("y")))
	require.ErrorIs(t, err, catalog.ErrVideoAlreadyExists)
}

func TestCreateVideo_RejectsOutOfOrderOffset(t *testing.T) {
	deps, program := newTestDeps(t)
	header := CreateVideoHeader{ProgramID: program.ID, ProviderID: "p1", FileName: "a.ts", MimeType: "video/mp2t"}

	var buf bytes.Buffer
	require.NoError(t, rpcproto.WriteDatagram(&buf, rpcproto.Datagram{Offset: 0, Payload: []byte("abcdef")}))
	require.NoError(t, rpcproto.WriteDatagram(&buf, rpcproto.Datagram{Offset: 2, Payload: []byte("xyz")}))
	body := bufio.NewReader(&buf)

	_, err := CreateVideo(context.Background(), deps, header, body)
	require.ErrorIs(t, err, ErrInvalidOffset)
}

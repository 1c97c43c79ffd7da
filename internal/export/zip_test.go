package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func stringEntry(name, content string) Entry {
	return Entry{
		Name: name,
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestWriteArchiveRoundTrip(t *testing.T) {
	entries := []Entry{
		stringEntry("cs101/student-uploads/hw1/alice-Homework 1.pdf", "alice's essay"),
		stringEntry("cs101/student-uploads/hw1/bob-Homework 1.pdf", "bob's essay"),
	}

	var buf bytes.Buffer
	flushes := 0
	flush := func() error {
		flushes++
		return nil
	}

	require.NoError(t, WriteArchive(context.Background(), entries, &buf, flush, zerolog.Nop()))
	require.Equal(t, len(entries)+1, flushes, "one flush per entry plus the final central directory")

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)

	want := map[string]string{
		"cs101/student-uploads/hw1/alice-Homework 1.pdf": "alice's essay",
		"cs101/student-uploads/hw1/bob-Homework 1.pdf":   "bob's essay",
	}
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		require.Equal(t, want[file.Name], string(content))
		delete(want, file.Name)
	}
	require.Empty(t, want)
}

func TestWriteArchiveEmptyInputStillValidZip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArchive(context.Background(), nil, &buf, func() error { return nil }, zerolog.Nop()))
	require.NotZero(t, buf.Len(), "empty archive must still emit header/footer bytes")

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Empty(t, reader.File)
}

func TestWriteArchiveReadFailureAborts(t *testing.T) {
	readErr := errors.New("storage unavailable")
	entries := []Entry{
		stringEntry("first.txt", "ok"),
		{
			Name: "broken.txt",
			Open: func(context.Context) (io.ReadCloser, error) {
				return nil, readErr
			},
		},
	}

	var buf bytes.Buffer
	err := WriteArchive(context.Background(), entries, &buf, func() error { return nil }, zerolog.Nop())
	require.ErrorIs(t, err, readErr)
	require.NotZero(t, buf.Len(), "the already-streamed prefix has been sent")
}

func TestWriteArchiveHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := WriteArchive(ctx, []Entry{stringEntry("a.txt", "a")}, &buf, func() error { return nil }, zerolog.Nop())
	require.ErrorIs(t, err, context.Canceled)
}

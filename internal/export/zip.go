package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Entry describes one archive member: a destination name inside the zip and a
// lazily opened document stream.
type Entry struct {
	Name string
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// DefaultArchiveName is used when the caller supplies no download filename.
const DefaultArchiveName = "zipfile"

// WriteArchive assembles a DEFLATE zip archive from entries and writes it to w
// incrementally. flush is called after every entry so the transport can hand
// the accumulated chunk to the client before the next document is read; only
// one document is held in flight at a time. The final flush carries the
// archive's central directory, so an empty entry list still produces a valid
// (empty) archive.
//
// A document read failure aborts the stream. The response has already started
// by then, so the client receives a truncated archive; the failure is logged
// and returned for server-side visibility.
func WriteArchive(ctx context.Context, entries []Entry, w io.Writer, flush func() error, logger zerolog.Logger) error {
	zw := zip.NewWriter(w)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		// No Close on failure: the archive must arrive truncated, not
		// finalized with a partial entry set.
		if err := writeEntry(ctx, zw, entry); err != nil {
			logger.Error().Err(err).Str("entry", entry.Name).Msg("zip export aborted, client receives truncated archive")
			return err
		}

		if err := zw.Flush(); err != nil {
			return fmt.Errorf("failed to flush archive entry %q: %w", entry.Name, err)
		}
		if err := flush(); err != nil {
			return fmt.Errorf("failed to hand chunk to transport: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	return flush()
}

func writeEntry(ctx context.Context, zw *zip.Writer, entry Entry) error {
	reader, err := entry.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer reader.Close()

	writer, err := zw.CreateHeader(&zip.FileHeader{
		Name:   entry.Name,
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive entry: %w", err)
	}

	if _, err := io.Copy(writer, reader); err != nil {
		return fmt.Errorf("failed to copy document into archive: %w", err)
	}

	return nil
}

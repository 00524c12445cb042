package endofday

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/fastprodman/vapor/internal/ledger"
	"github.com/fastprodman/vapor/internal/market"
)

// ArchivePath is where the ledger of day is kept once the day is closed.
func ArchivePath(dir string, day market.Day) string {
	return filepath.Join(dir, fmt.Sprintf("daily-%d.txt.br", day))
}

// writeArchive compresses the raw ledger lines of a closed day.
func writeArchive(ctx context.Context, dir string, day market.Day, lines []ledger.Line) error {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	path := ArchivePath(dir, day)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	//nolint:errcheck
	defer f.Close()

	bw := brotli.NewWriterLevel(f, brotli.DefaultCompression)

	for _, l := range lines {
		err = ctx.Err()
		if err != nil {
			return fmt.Errorf("archive %s: %w", path, err)
		}

		_, err = io.WriteString(bw, l.Raw+"\n")
		if err != nil {
			return fmt.Errorf("archive %s: %w", path, err)
		}
	}

	err = bw.Close()
	if err != nil {
		return fmt.Errorf("flush archive %s: %w", path, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("close archive %s: %w", path, err)
	}

	return nil
}

// ReadArchive decodes an archived ledger.
func ReadArchive(path string) ([]ledger.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	//nolint:errcheck
	defer f.Close()

	lines, err := ledger.ReadAll(brotli.NewReader(f))
	if err != nil {
		return lines, fmt.Errorf("read archive %s: %w", path, err)
	}

	return lines, nil
}

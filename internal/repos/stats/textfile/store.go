package textfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	repo "github.com/fastprodman/vapor/internal/repos/stats"
	"github.com/fastprodman/vapor/internal/stats"
)

var _ repo.Store = (*Store)(nil)

// Store is the stats.txt file. It only remembers the latest report.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Totals(_ context.Context) (stats.Totals, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats.Totals{}, nil
		}

		return stats.Totals{}, fmt.Errorf("open %s: %w", s.path, err)
	}
	//nolint:errcheck
	defer f.Close()

	t, err := stats.ReadText(f)
	if err != nil {
		return stats.Totals{}, fmt.Errorf("%s: %w", s.path, err)
	}

	return t, nil
}

func (s *Store) Save(ctx context.Context, r stats.Report) error {
	var buf bytes.Buffer

	err := stats.WriteText(&buf, r)
	if err != nil {
		return err
	}

	err = ctx.Err()
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}

	err = os.WriteFile(s.path, buf.Bytes(), 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	return nil
}

package textfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fastprodman/vapor/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats.txt")
	s := New(path)

	got, err := s.Totals(t.Context())
	require.NoError(t, err)
	assert.Zero(t, got, "missing file carries nothing")

	r := stats.Report{
		Day:   2,
		Total: stats.Totals{Revenue: 5000, Refunded: 1000},
		Daily: stats.Totals{Revenue: 2000},
	}
	require.NoError(t, s.Save(t.Context(), r))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "40.00\n50.00\n10.00\n20.00\n20.00\n0.00\n", string(raw))

	got, err = s.Totals(t.Context())
	require.NoError(t, err)
	assert.Equal(t, r.Total, got)
}

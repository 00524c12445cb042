package ledger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:generate mockgen -destination=./mocks/mock_sink.go -package=mocks github.com/fastprodman/vapor/internal/ledger Sink

// Sink receives the records of a finished session.
type Sink interface {
	Append(ctx context.Context, records []Record) error
}

// FileSink appends records to a daily transaction file.
type FileSink struct {
	path string
}

var _ Sink = (*FileSink)(nil)

// Discard drops every record. Used when replaying a ledger that is already
// on disk.
var Discard Sink = discard{}

type discard struct{}

func (discard) Append(context.Context, []Record) error { return nil }

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Path() string {
	return s.path
}

// Reset truncates the file, creating it if needed. Called at start of day.
func (s *FileSink) Reset() error {
	err := os.WriteFile(s.path, nil, 0o644)
	if err != nil {
		return fmt.Errorf("truncate %s: %w", s.path, err)
	}

	return nil
}

// Append encodes every record before touching the file, so a record that
// cannot be encoded leaves the file as it was.
func (s *FileSink) Append(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	var b strings.Builder

	for _, r := range records {
		line, err := Encode(r)
		if err != nil {
			return fmt.Errorf("append: %w", err)
		}

		b.WriteString(line)
		b.WriteByte('\n')
	}

	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	_, err = f.WriteString(b.String())
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	err = f.Sync()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", s.path, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}

	return nil
}

// Line is one raw line of a transaction file with its decoding result.
type Line struct {
	No     int
	Raw    string
	Record Record
	Err    error
}

// ReadAll decodes every non-empty line of r. Decoding failures are reported
// per line; the returned error is only set when reading itself fails.
func ReadAll(r io.Reader) ([]Line, error) {
	var lines []Line

	sc := bufio.NewScanner(r)
	no := 0

	for sc.Scan() {
		no++

		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}

		rec, err := Decode(raw)
		lines = append(lines, Line{No: no, Raw: raw, Record: rec, Err: err})
	}

	err := sc.Err()
	if err != nil {
		return lines, fmt.Errorf("scan: %w", err)
	}

	return lines, nil
}

// ReadFile opens path and calls ReadAll on it.
func ReadFile(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := ReadAll(f)
	if err != nil {
		return lines, fmt.Errorf("read %s: %w", path, err)
	}

	return lines, nil
}

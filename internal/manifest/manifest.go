// Package manifest writes and reads the plain-text manifest that describes
// the archives in an output directory.
//
// The format is line oriented and meant for quick inspection by people and
// shell scripts, not as a serialization format:
//
//	# imgship manifest
//	# generated: 2026-10-19T12:00:00Z
//	# archives: 1
//	# total size: 1.2 GB
//	app-latest-amd64.tar<TAB>1.2 GB<TAB>app:latest
package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dosanma1/imgship/pkg/xos"
)

const (
	title          = "# imgship manifest"
	generatedKey   = "# generated: "
	archivesKey    = "# archives: "
	totalSizeKey   = "# total size: "
	fieldSeparator = "\t"
)

var ErrMalformed = errors.New("malformed manifest")

// Record describes one archive.
type Record struct {
	Name     string
	Size     int64
	ImageRef string
}

// HumanSize returns the record size as rendered in the manifest.
func (r Record) HumanSize() string {
	return humanize.Bytes(uint64(r.Size))
}

// Manifest is the list of archives produced by one run.
type Manifest struct {
	GeneratedAt time.Time
	Records     []Record
}

// TotalSize sums the sizes of all records.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, r := range m.Records {
		total += r.Size
	}
	return total
}

// WriteTo renders the manifest to w.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(generatedKey + m.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString(archivesKey + strconv.Itoa(len(m.Records)) + "\n")
	b.WriteString(totalSizeKey + humanize.Bytes(uint64(m.TotalSize())) + "\n")
	for _, r := range m.Records {
		b.WriteString(strings.Join([]string{r.Name, r.HumanSize(), r.ImageRef}, fieldSeparator))
		b.WriteByte('\n')
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Write renders the manifest atomically to path.
func (m *Manifest) Write(path string) error {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return err
	}
	if err := xos.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Summary is the header of a parsed manifest.
type Summary struct {
	Archives  int
	TotalSize string
}

// Parsed is a manifest read back from disk. Sizes are the human-readable
// values, so byte counts are approximate.
type Parsed struct {
	Manifest
	Summary Summary
}

// Parse reads a manifest produced by WriteTo.
func Parse(r io.Reader) (*Parsed, error) {
	var p Parsed
	scanner := bufio.NewScanner(r)
	line := 0
	titled := false
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		switch {
		case !titled:
			titled = true
			if text != title {
				return nil, fmt.Errorf("%w: unexpected title %q", ErrMalformed, text)
			}
		case strings.HasPrefix(text, generatedKey):
			t, err := time.Parse(time.RFC3339, strings.TrimPrefix(text, generatedKey))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
			}
			p.GeneratedAt = t
		case strings.HasPrefix(text, archivesKey):
			n, err := strconv.Atoi(strings.TrimPrefix(text, archivesKey))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
			}
			p.Summary.Archives = n
		case strings.HasPrefix(text, totalSizeKey):
			p.Summary.TotalSize = strings.TrimPrefix(text, totalSizeKey)
		case strings.HasPrefix(text, "#"):
			// unknown header lines are ignored
		default:
			rec, err := parseRecord(text)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
			}
			p.Records = append(p.Records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !titled {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}
	if p.Summary.Archives != len(p.Records) {
		return nil, fmt.Errorf("%w: header lists %d archives, found %d records", ErrMalformed, p.Summary.Archives, len(p.Records))
	}
	return &p, nil
}

func parseRecord(text string) (Record, error) {
	fields := strings.Split(text, fieldSeparator)
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("expected 3 tab-separated fields, got %d", len(fields))
	}
	size, err := humanize.ParseBytes(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("size %q: %v", fields[1], err)
	}
	return Record{Name: fields[0], Size: int64(size), ImageRef: fields[2]}, nil
}

package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// timeLayout matches the timestamp column pair of a probe log line. Fractional
// seconds in the input are accepted whether or not they are present.
const timeLayout = "2006-01-02 15:04:05"

// Record is one parsed probe measurement. Loss classification happens later,
// at append time in the monitor package — a Record only carries what the probe
// wrote.
type Record struct {
	Timestamp time.Time
	Current   float64
	Average   float64
	Sequence  int
}

// Dir is a sample source backed by a directory of per-host log files. The
// file name is the host identifier.
type Dir struct {
	dir string
}

// NewDir creates a Dir for the given log directory. The directory does not
// have to exist yet; a missing directory simply yields no sources.
func NewDir(dir string) *Dir {
	return &Dir{dir: dir}
}

// Sources lists the regular files in the log directory, sorted by name.
// A missing directory is not an error.
func (d *Dir) Sources() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("source: list %q: %w", d.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ReadRecent returns up to max of the newest records in the named log file,
// in chronological order. Malformed lines are skipped with a debug log; only
// a failure to read the file itself is an error.
func (d *Dir) ReadRecent(name string, max int) ([]Record, error) {
	path := filepath.Join(d.dir, name)
	lines, err := tailLines(path, max)
	if err != nil {
		return nil, fmt.Errorf("source: read %q: %w", name, err)
	}

	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		rec, err := parseLine(line)
		if err != nil {
			slog.Debug("source: skipping malformed line", "file", name, "err", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseLine parses one probe log line:
//
//	<date> <time> <current> <average> <sequence>
func parseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Record{}, fmt.Errorf("want 5 fields, got %d", len(fields))
	}

	ts, err := time.Parse(timeLayout, fields[0]+" "+fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("timestamp: %w", err)
	}
	current, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Record{}, fmt.Errorf("current: %w", err)
	}
	average, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Record{}, fmt.Errorf("average: %w", err)
	}
	sequence, err := strconv.Atoi(fields[4])
	if err != nil {
		return Record{}, fmt.Errorf("sequence: %w", err)
	}
	if current < 0 || average < 0 || sequence < 0 {
		return Record{}, fmt.Errorf("negative value in %q", line)
	}

	return Record{Timestamp: ts, Current: current, Average: average, Sequence: sequence}, nil
}

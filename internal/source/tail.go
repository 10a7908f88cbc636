package source

import (
	"bytes"
	"io"
	"os"
)

// tailBlockSize is how much of the file is read per backward step while
// looking for the last max lines.
const tailBlockSize = 32 * 1024

// tailLines returns the last max non-empty lines of the file at path, oldest
// first. The file is read backwards in blocks so a long-running probe log is
// never loaded whole.
func tailLines(path string, max int) ([]string, error) {
	if max <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var (
		buf    []byte
		offset = info.Size()
	)
	for offset > 0 && lineCount(buf) <= max {
		step := int64(tailBlockSize)
		if step > offset {
			step = offset
		}
		offset -= step

		block := make([]byte, step)
		if _, err := f.ReadAt(block, offset); err != nil && err != io.EOF {
			return nil, err
		}
		buf = append(block, buf...)
	}

	lines := splitLines(buf)
	if offset > 0 && len(lines) > 0 {
		// The first line may begin before the part we read — drop it.
		lines = lines[1:]
	}
	if len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	return lines, nil
}

// lineCount counts newline-separated non-empty lines in buf.
func lineCount(buf []byte) int {
	return len(splitLines(buf))
}

// splitLines splits buf on newlines, dropping empty lines and trimming
// carriage returns.
func splitLines(buf []byte) []string {
	if len(buf) == 0 {
		return nil
	}
	raw := bytes.Split(buf, []byte{'\n'})
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = bytes.TrimRight(l, "\r")
		if len(bytes.TrimSpace(l)) > 0 {
			lines = append(lines, string(l))
		}
	}
	return lines
}

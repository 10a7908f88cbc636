package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Target is one configured monitoring target: the host identifier (which is
// also the log file name) and its address label.
type Target struct {
	Name    string
	Address string
}

// Targets is an ordered target list parsed from a deadman targets file. The
// zero value and nil are both valid empty lists, so callers can run without a
// targets file at all.
type Targets struct {
	entries []Target
	index   map[string]string
}

// LoadTargets parses the targets file at path: one target per line,
// tab-separated `name<TAB>address`. Blank lines, comment lines and lines
// without a tab are skipped, matching the deadman targets format.
func LoadTargets(path string) (*Targets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("targets: open %q: %w", path, err)
	}
	defer f.Close()

	t := &Targets{index: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "\t") {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		addr := strings.TrimSpace(parts[1])
		if name == "" {
			continue
		}
		if _, dup := t.index[name]; !dup {
			t.entries = append(t.entries, Target{Name: name, Address: addr})
		}
		t.index[name] = addr
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("targets: read %q: %w", path, err)
	}
	return t, nil
}

// Names returns the target identifiers in file order.
func (t *Targets) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.Name
	}
	return names
}

// Addr returns the configured address for name, or "" when the target is not
// listed.
func (t *Targets) Addr(name string) string {
	if t == nil {
		return ""
	}
	return t.index[name]
}

// Len returns the number of configured targets.
func (t *Targets) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

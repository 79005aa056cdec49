package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ProcessInfo identifies one live process observed during a scan.
type ProcessInfo struct {
	PID     int    `json:"pid"`
	Command string `json:"command"`
}

// ProcessLister enumerates live processes whose executable name matches one
// of the given names. The default implementation walks /proc.
type ProcessLister interface {
	List(ctx context.Context, names []string) ([]ProcessInfo, error)
}

type procLister struct{}

func (procLister) List(ctx context.Context, names []string) ([]ProcessInfo, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			wanted[name] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	var matches []ProcessInfo
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		raw, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "cmdline"))
		if err != nil || len(raw) == 0 {
			continue
		}
		argv0 := string(raw)
		if idx := strings.IndexByte(argv0, 0); idx >= 0 {
			argv0 = argv0[:idx]
		}
		base := filepath.Base(argv0)
		if _, ok := wanted[base]; !ok {
			continue
		}
		matches = append(matches, ProcessInfo{PID: pid, Command: base})
	}
	return matches, nil
}

// pidAlive probes a pid with signal 0. EPERM still means the process
// exists, just owned by someone else.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == unix.EPERM
}

package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// PIDFile enforces a single running dispatchd instance per pid file path
type PIDFile struct {
	path string
}

// New returns a manager for the pid file at path
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Acquire claims the pid file for the current process. A file naming a
// live process means another instance owns it; stale or unreadable files
// are replaced.
func (p *PIDFile) Acquire() error {
	if pid, ok := p.readPID(); ok && processAlive(pid) {
		return fmt.Errorf("daemon is already running (PID %d)", pid)
	}

	body := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(p.path, []byte(body), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the pid file; a missing file is fine
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// readPID parses the pid recorded in the file, if any
func (p *PIDFile) readPID() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// processAlive probes pid with signal 0. EPERM still means the process
// exists, it just belongs to someone else.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

package logsvc

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// RotatingFile is an append-only log file that is moved to "<path>.1" once it exceeds maxBytes.
// Only one backup is kept.
type RotatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	file     *os.File
	size     int64
	Created  bool // the file did not exist when opened
}

var _ io.WriteCloser = (*RotatingFile)(nil)

func OpenRotatingFile(path string, maxBytes int64) (*RotatingFile, error) {
	rf := &RotatingFile{path: path, maxBytes: maxBytes}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		rf.Created = true
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening log file %s", rf.path)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "stat log file %s", rf.path)
	}
	rf.file = f
	rf.size = fi.Size()
	return nil
}

func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return err
	}
	backup := rf.path + ".1"
	_ = os.Remove(backup)
	if err := os.Rename(rf.path, backup); err != nil {
		return errors.Wrap(err, "rotating log file")
	}
	return rf.open()
}

func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, fmt.Errorf("log file %s is closed", rf.path)
	}
	if rf.maxBytes > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.maxBytes {
		if err := rf.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

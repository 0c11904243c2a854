// Package local implements the cache insertion log against the local
// filesystem, the same append-fsync discipline as
// components/replica's write log: one JSON record per line, fsynced before
// Append returns, so an insert acknowledged to a caller survives a crash.
// Drain additionally persists a byte offset pointer file so a restarted
// refresh job resumes exactly where the last successful Drain left off
// instead of re-folding records already consolidated into a generation.
package local

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/domain/cache"
)

// Log is an InsertionLog backed by a single append-only file plus a sibling
// pointer file recording the byte offset Drain has consumed through.
type Log struct {
	path        string
	pointerPath string

	mu sync.Mutex
}

// NewLog opens (creating its directory if necessary) the insertion log at
// path, with its pointer file alongside it.
func NewLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return &Log{path: path, pointerPath: path + ".pointer"}, nil
}

// Append writes rec as one JSON line and fsyncs before returning.
func (l *Log) Append(_ context.Context, rec cache.InsertionLogRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}

	return f.Sync()
}

// Drain returns every well-formed record appended since the last successful
// Drain and advances the pointer past them. A trailing malformed line (a
// write truncated by a crash) is discarded rather than treated as an error,
// the same tolerance components/replica's write log applies on replay.
func (l *Log) Drain(_ context.Context) ([]cache.InsertionLogRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}
	defer f.Close()

	offset, err := l.readPointer()
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(offset, 0); err != nil {
		return nil, err
	}

	var records []cache.InsertionLogRecord

	consumed := offset

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		raw := scanner.Bytes()
		line := bytes.TrimSpace(raw)

		if len(line) == 0 {
			consumed += int64(len(raw)) + 1
			continue
		}

		var rec cache.InsertionLogRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			break
		}

		records = append(records, rec)
		consumed += int64(len(raw)) + 1
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := l.writePointer(consumed); err != nil {
		return nil, err
	}

	return records, nil
}

func (l *Log) readPointer() (int64, error) {
	data, err := os.ReadFile(l.pointerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}

		return 0, err
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, nil
	}

	return offset, nil
}

// writePointer persists offset via a temp-file-plus-rename so a crash
// mid-write never leaves a half-written pointer behind.
func (l *Log) writePointer(offset int64) error {
	tmp := l.pointerPath + ".tmp"

	if err := os.WriteFile(tmp, []byte(strconv.FormatInt(offset, 10)), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, l.pointerPath)
}

var _ cache.InsertionLog = (*Log)(nil)

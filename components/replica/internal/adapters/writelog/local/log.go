// Package local implements the replica write log against the local
// filesystem: one JSON record per line, appended and fsynced before the
// write is acknowledged.
package local

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	replicadom "github.com/thirdway-labs/modelctl/components/replica/internal/domain/replica"
)

// Log is a WriteLog backed by a single append-only file.
type Log struct {
	path string

	mu      sync.Mutex
	nextSeq int64
}

// NewLog opens (creating if necessary) the log file at path, truncates any
// partial trailing record, and recovers nextSeq by replaying it once.
func NewLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(path); err == nil && len(data) > 0 && data[len(data)-1] != '\n' {
		if err := os.Truncate(path, int64(bytes.LastIndexByte(data, '\n')+1)); err != nil {
			return nil, err
		}
	}

	l := &Log{path: path}

	records, err := l.Replay(context.Background())
	if err != nil {
		return nil, err
	}

	var maxSeq int64

	for _, r := range records {
		if r.Seq > maxSeq {
			maxSeq = r.Seq
		}
	}

	atomic.StoreInt64(&l.nextSeq, maxSeq+1)

	return l, nil
}

// Append assigns rec the next sequence number, writes it as one JSON line,
// and fsyncs before returning, so the record is durable before the caller
// acknowledges the write.
func (l *Log) Append(_ context.Context, rec mmodel.WriteLogRecord) (mmodel.WriteLogRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec.Seq = l.nextSeq

	line, err := json.Marshal(rec)
	if err != nil {
		return mmodel.WriteLogRecord{}, err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return mmodel.WriteLogRecord{}, err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return mmodel.WriteLogRecord{}, err
	}

	if err := f.Sync(); err != nil {
		return mmodel.WriteLogRecord{}, err
	}

	l.nextSeq++

	return rec, nil
}

// Replay reads every well-formed record in file order. A trailing line that
// fails to parse (a partial write interrupted by a crash, since each record
// is written as a single Write+Sync, this can only be the last line) is
// silently discarded rather than treated as corruption.
func (l *Log) Replay(_ context.Context) ([]mmodel.WriteLogRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}
	defer f.Close()

	var records []mmodel.WriteLogRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec mmodel.WriteLogRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// A malformed line can only be a truncated trailing record left
			// by a crash mid-write; discard it and stop, per §4.5.
			break
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

var _ replicadom.WriteLog = (*Log)(nil)

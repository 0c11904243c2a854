// Package local implements the replica's single-writer lease against the
// local filesystem: the lease is a small JSON file written atomically
// (temp file + rename) the way the artifact store commits chunks.
package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type leaseState struct {
	Holder    string    `json:"holder"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Lease is a file-backed single-writer lease with expiry. A stale lease
// (holder crashed without releasing) is only reclaimable once its age
// exceeds twice Period, per §4.5.
type Lease struct {
	path   string
	period time.Duration

	mu sync.Mutex
}

// NewLease returns a Lease backed by a file at path with the given lease
// period (renewed leases extend Period from the renewal time).
func NewLease(path string, period time.Duration) (*Lease, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return &Lease{path: path, period: period}, nil
}

func (l *Lease) read() (*leaseState, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var st leaseState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, nil
	}

	return &st, nil
}

func (l *Lease) write(st leaseState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), "lease-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), l.path)
}

// Acquire claims the lease for holder if no lease exists, holder already
// holds it, or it has gone stale (age beyond 2x Period, i.e. one full Period
// past its expiry). A lease held by a different holder that has merely
// expired is not yet reclaimable.
func (l *Lease) Acquire(_ context.Context, holder string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	st, err := l.read()
	if err != nil {
		return false, err
	}

	if st != nil && st.Holder != holder && now.Before(st.ExpiresAt.Add(l.period)) {
		return false, nil
	}

	return true, l.write(leaseState{Holder: holder, ExpiresAt: now.Add(l.period)})
}

// Renew extends holder's lease if it still holds it.
func (l *Lease) Renew(_ context.Context, holder string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.read()
	if err != nil {
		return false, err
	}

	if st == nil || st.Holder != holder {
		return false, nil
	}

	return true, l.write(leaseState{Holder: holder, ExpiresAt: time.Now().Add(l.period)})
}

// Release gives up the lease if holder currently holds it.
func (l *Lease) Release(_ context.Context, holder string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.read()
	if err != nil {
		return err
	}

	if st == nil || st.Holder != holder {
		return nil
	}

	return os.Remove(l.path)
}

// Reachable reports whether the lease file's directory can be stat'd. A
// false result means the write coordinator cannot evaluate the lease at
// all, so production-mode writes are rejected rather than silently
// buffered, per the §9 Open Question resolution.
func (l *Lease) Reachable(_ context.Context) bool {
	_, err := os.Stat(filepath.Dir(l.path))
	return err == nil
}

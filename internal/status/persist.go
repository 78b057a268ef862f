package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caskdeck/caskdeck/internal/flock"
	"github.com/caskdeck/caskdeck/internal/logging"
)

const (
	// StateFileName is the snapshot file written inside the state directory.
	StateFileName = "state.json"

	stateLockName = "state.lock"
)

// StatePath returns the snapshot path inside dir.
func StatePath(dir string) string {
	return filepath.Join(dir, StateFileName)
}

// SaveSnapshot writes snap to dir atomically: the data goes to a temporary
// file first and is renamed into place. A file lock is held during the
// write so concurrent readers never see a partial file.
func SaveSnapshot(dir string, snap Snapshot) error {
	fl := flock.New(dir, stateLockName)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	if snap.PID == 0 {
		snap.PID = os.Getpid()
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	target := StatePath(dir)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot saved in dir.
func LoadSnapshot(dir string) (Snapshot, error) {
	fl := flock.New(dir, stateLockName)
	if err := fl.Lock(); err != nil {
		return Snapshot{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := os.ReadFile(StatePath(dir))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read state file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Tasks == nil {
		snap.Tasks = []TaskView{}
	}
	return snap, nil
}

// Persister writes board snapshots to a state directory from its own
// goroutine. Changes that arrive while a write is in progress are
// coalesced into one write of the latest snapshot, so board observers never
// wait on the disk or on another process holding the state lock.
type Persister struct {
	dir    string
	logger *logging.Logger

	mu      sync.Mutex
	pending *Snapshot

	writeMu sync.Mutex // serialises writes so older snapshots never land last
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// PersistOnChange makes b write its snapshot to dir after every state
// change. Write failures are logged. Close the returned Persister to stop
// it and write the last snapshot.
func PersistOnChange(b *Board, dir string, logger *logging.Logger) *Persister {
	if logger == nil {
		logger = logging.NopLogger()
	}
	p := &Persister{
		dir:    dir,
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.loop()
	b.OnChange(p.offer)
	return p
}

// offer records snap as the next snapshot to write. It never blocks.
func (p *Persister) offer(snap Snapshot) {
	p.mu.Lock()
	p.pending = &snap
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Persister) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
			p.Flush()
		}
	}
}

// Flush writes the pending snapshot, if any, and returns once it is on
// disk.
func (p *Persister) Flush() {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	snap := p.pending
	p.pending = nil
	p.mu.Unlock()
	if snap == nil {
		return
	}
	if err := SaveSnapshot(p.dir, *snap); err != nil {
		p.logger.Warn("failed to save status snapshot", "dir", p.dir, "error", err)
	}
}

// Close stops the writer goroutine and writes the last pending snapshot.
// Snapshots offered after Close are kept until the next Flush.
func (p *Persister) Close() {
	p.once.Do(func() {
		close(p.stop)
		<-p.done
	})
	p.Flush()
}

// Package history persists benchmark runs in a pebble database.
//
// Runs are keyed by KSUID, whose byte order follows creation time, so a
// reverse scan lists the newest runs first.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/cwbudde/algo-transpose/internal/bench"
)

// ErrNotFound is returned for unknown run ids.
var ErrNotFound = errors.New("history: run not found")

var (
	runPrefix = []byte("run/")
	runEnd    = []byte("run0") // '0' follows '/'
)

// Run is one invocation of the benchmark tool.
type Run struct {
	ID       ksuid.KSUID    `json:"id"`
	Command  string         `json:"command"`
	Host     string         `json:"host"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Results  []bench.Result `json:"results"`
}

// Store is a run database. It is safe for concurrent use.
type Store struct {
	db *pebble.DB

	mu   sync.Mutex
	last ksuid.KSUID
}

// Open opens or creates the database in dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", dir, err)
	}

	s := &Store{db: db}

	ids, err := s.scan(1)
	if err != nil {
		db.Close()
		return nil, err
	}

	if len(ids) > 0 {
		s.last = ids[0]
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(id ksuid.KSUID) []byte {
	key := make([]byte, 0, len(runPrefix)+len(id))

	return append(append(key, runPrefix...), id.Bytes()...)
}

// nextID returns a fresh id strictly greater than every id handed out so
// far, so runs recorded within the same second keep their order.
func (s *Store) nextID() ksuid.KSUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ksuid.New()
	if ksuid.Compare(id, s.last) <= 0 {
		id = s.last.Next()
	}

	s.last = id

	return id
}

// Record assigns run a new id, stores it and returns the id.
func (s *Store) Record(run *Run) (ksuid.KSUID, error) {
	run.ID = s.nextID()

	data, err := json.Marshal(run)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("history: encode run: %w", err)
	}

	if err := s.db.Set(runKey(run.ID), data, pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("history: store run %s: %w", run.ID, err)
	}

	return run.ID, nil
}

// Get loads the run with the given id.
func (s *Store) Get(id ksuid.KSUID) (Run, error) {
	data, closer, err := s.db.Get(runKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return Run{}, fmt.Errorf("history: get %s: %w", id, err)
	}
	defer closer.Close()

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("history: decode run %s: %w", id, err)
	}

	return run, nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) List(limit int) ([]Run, error) {
	ids, err := s.scan(limit)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(ids))

	for _, id := range ids {
		run, err := s.Get(id)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, nil
}

// Delete removes the run with the given id.
func (s *Store) Delete(id ksuid.KSUID) error {
	key := runKey(id)

	_, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err != nil {
		return fmt.Errorf("history: get %s: %w", id, err)
	}

	closer.Close()

	if err := s.db.Delete(key, pebble.Sync); err != nil {
		return fmt.Errorf("history: delete %s: %w", id, err)
	}

	return nil
}

// scan returns up to limit run ids, newest first.
func (s *Store) scan(limit int) ([]ksuid.KSUID, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: runPrefix, UpperBound: runEnd})
	if err != nil {
		return nil, fmt.Errorf("history: iterate: %w", err)
	}

	var ids []ksuid.KSUID

	for valid := iter.Last(); valid; valid = iter.Prev() {
		id, err := ksuid.FromBytes(iter.Key()[len(runPrefix):])
		if err != nil {
			iter.Close()
			return nil, fmt.Errorf("history: corrupt key %x: %w", iter.Key(), err)
		}

		ids = append(ids, id)

		if limit > 0 && len(ids) == limit {
			break
		}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("history: iterate: %w", err)
	}

	return ids, nil
}

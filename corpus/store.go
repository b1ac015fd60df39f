package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"alma.local/evmfuzz/feedback"
	"alma.local/evmfuzz/oracle"
	"alma.local/evmfuzz/taint"
)

const (
	entryExt = ".msgpack"
	taintExt = ".taint.ssz"
)

var ErrDuplicateID = errors.New("corpus: duplicate testcase id")

// Entry is the on-disk form of a testcase.
type Entry struct {
	ID       string             `msgpack:"id"`
	Exit     string             `msgpack:"exit"`
	Metadata map[string]string  `msgpack:"metadata"`
	Input    msgpack.RawMessage `msgpack:"input"`
	HasTaint bool               `msgpack:"has_taint"`
}

// Store holds the testcases accepted by all workers of a campaign. It is safe
// for concurrent use. When dir is set every added testcase is also written to
// disk.
type Store struct {
	mu    sync.RWMutex
	dir   string
	cases []*feedback.Testcase
	ids   map[string]struct{}
}

// NewStore creates a store. An empty dir keeps the corpus in memory only.
func NewStore(dir string) (*Store, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("corpus: create dir: %w", err)
		}
	}
	return &Store{
		dir: dir,
		ids: make(map[string]struct{}),
	}, nil
}

// Add appends tc and persists it if the store is backed by a directory.
func (s *Store) Add(tc *feedback.Testcase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[tc.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, tc.ID)
	}
	if s.dir != "" {
		if err := s.persist(tc); err != nil {
			return err
		}
	}
	s.ids[tc.ID] = struct{}{}
	s.cases = append(s.cases, tc)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

// Get returns the i-th testcase in insertion order.
func (s *Store) Get(i int) (*feedback.Testcase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.cases) {
		return nil, false
	}
	return s.cases[i], true
}

// All returns a copy of the testcase list.
func (s *Store) All() []*feedback.Testcase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*feedback.Testcase(nil), s.cases...)
}

// WithTaint returns the number of testcases carrying taint facts.
func (s *Store) WithTaint() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, tc := range s.cases {
		if len(tc.TaintFacts) > 0 {
			n++
		}
	}
	return n
}

func (s *Store) persist(tc *feedback.Testcase) error {
	input, err := msgpack.Marshal(tc.Input)
	if err != nil {
		return fmt.Errorf("corpus: encode input %s: %w", tc.ID, err)
	}
	entry := Entry{
		ID:       tc.ID,
		Exit:     tc.Exit.String(),
		Metadata: tc.Metadata,
		Input:    input,
		HasTaint: len(tc.TaintFacts) > 0,
	}
	raw, err := msgpack.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("corpus: encode entry %s: %w", tc.ID, err)
	}

	if entry.HasTaint {
		if err := oracle.RoundTrip[taint.Snapshot](tc.TaintFacts); err != nil {
			return fmt.Errorf("corpus: taint snapshot %s: %w", tc.ID, err)
		}
		if err := os.WriteFile(filepath.Join(s.dir, tc.ID+taintExt), tc.TaintFacts, 0o644); err != nil {
			return fmt.Errorf("corpus: write taint %s: %w", tc.ID, err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.dir, tc.ID+entryExt), raw, 0o644); err != nil {
		return fmt.Errorf("corpus: write entry %s: %w", tc.ID, err)
	}
	return nil
}

// LoadEntries reads every persisted entry under dir, sorted by id.
func LoadEntries(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus: read dir: %w", err)
	}
	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), entryExt) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("corpus: read %s: %w", f.Name(), err)
		}
		var e Entry
		if err := msgpack.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("corpus: decode %s: %w", f.Name(), err)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// LoadTaint reads and decodes the taint snapshot persisted for id.
func LoadTaint(dir, id string) (*taint.Snapshot, error) {
	raw, err := os.ReadFile(filepath.Join(dir, id+taintExt))
	if err != nil {
		return nil, fmt.Errorf("corpus: read taint %s: %w", id, err)
	}
	var snap taint.Snapshot
	if err := snap.UnmarshalSSZ(raw); err != nil {
		return nil, fmt.Errorf("corpus: decode taint %s: %w", id, err)
	}
	return &snap, nil
}

// Dir returns the directory the store persists to, or "" for memory only.
func (s *Store) Dir() string {
	return s.dir
}

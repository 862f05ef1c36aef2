// Package store keeps the content tree (age → season → topic → record) in
// memory and mirrors every change to a single JSON document on disk.
//
// The Store is the only writer of the document. Each mutation checks its
// address, changes the tree and persists it under one lock hold; a failed
// write rolls the tree back to the last persisted document.
package store

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"menubot/internal/logging"
)

// Store is the durable content tree.
type Store struct {
	mu        sync.Mutex
	path      string
	atomic    bool
	tree      *Tree
	persisted []byte
	hash      [sha256.Size]byte
	onChange  []func()
}

// Option configures a Store.
type Option func(*Store)

// WithAtomicWrite selects write-to-temp + rename (true, the default) or a
// plain overwrite of the menu file.
func WithAtomicWrite(enabled bool) Option {
	return func(s *Store) { s.atomic = enabled }
}

// Open loads the menu document at path. A missing file yields an empty tree;
// the file is created by the first save.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		atomic: true,
		tree:   NewTree(),
	}
	for _, opt := range opts {
		opt(s)
	}

	timer := logging.StartTimer(logging.CategoryStore, "store.Open")
	defer timer.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Store("menu file %s does not exist, starting with an empty tree", path)
			return s, nil
		}
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}

	tree, err := DecodeTree(data)
	if err != nil {
		return nil, &CorruptStoreError{Path: path, Err: err}
	}
	s.tree = tree
	s.persisted = data
	s.hash = sha256.Sum256(data)

	st := tree.Stats()
	logging.Store("loaded %s: %d ages, %d seasons, %d topics, %d messages",
		path, st.Ages, st.Seasons, st.Topics, st.Messages)
	return s, nil
}

// Path returns the menu file location.
func (s *Store) Path() string {
	return s.path
}

// OnChange registers fn to run after the tree is replaced by Reload.
// Callbacks run without the store lock held.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Save writes the whole tree to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := s.tree.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode menu: %w", err)
	}
	if err := s.writeFile(data); err != nil {
		return fmt.Errorf("failed to write menu file: %w", err)
	}
	s.persisted = data
	s.hash = sha256.Sum256(data)
	logging.StoreDebug("saved %s (%d bytes)", s.path, len(data))
	return nil
}

func (s *Store) writeFile(data []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if !s.atomic {
		return os.WriteFile(s.path, data, 0644)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Reload re-reads the menu file. Unchanged content is skipped and reported
// as false. Corrupt content leaves the current tree in place.
func (s *Store) Reload() (bool, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("failed to read menu file: %w", err)
	}
	sum := sha256.Sum256(data)
	if sum == s.hash {
		s.mu.Unlock()
		return false, nil
	}
	tree, err := DecodeTree(data)
	if err != nil {
		s.mu.Unlock()
		return false, &CorruptStoreError{Path: s.path, Err: err}
	}
	s.tree = tree
	s.persisted = data
	s.hash = sum
	callbacks := append([]func(){}, s.onChange...)
	s.mu.Unlock()

	logging.Store("reloaded %s after an external change", s.path)
	for _, fn := range callbacks {
		fn()
	}
	return true, nil
}

// =============================================================================
// READS
// =============================================================================

// Ages lists the age categories in menu order.
func (s *Store) Ages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Ages()
}

// Seasons lists the seasons of age, nil when age is unknown.
func (s *Store) Seasons(age string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seasons, err := s.tree.Seasons(age)
	if err != nil {
		return nil
	}
	return seasons
}

// Topics lists the topic titles of age/season, nil when either is unknown.
func (s *Store) Topics(age, season string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	topics, err := s.tree.Topics(age, season)
	if err != nil {
		return nil
	}
	return topics
}

func (s *Store) HasAge(age string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.tree.seasons(age)
	return err == nil
}

func (s *Store) HasSeason(age, season string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.tree.topics(age, season)
	return err == nil
}

// Get returns a normalized copy of the addressed record.
func (s *Store) Get(age, season, topic string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.tree.Record(age, season, topic)
	if err != nil {
		return Record{}, false
	}
	return r, true
}

// Snapshot returns a deep copy of the tree.
func (s *Store) Snapshot() *Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Clone()
}

// Stats counts the levels of the current tree.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Stats()
}

// =============================================================================
// MUTATIONS
// =============================================================================

// mutate applies fn and persists the result. When fn fails nothing is
// written; when the write fails the tree is restored from the last
// persisted document.
func (s *Store) mutate(op string, fn func(t *Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "store."+op)
	defer timer.StopWithThreshold(250 * time.Millisecond)

	before := s.tree.Clone()
	if err := fn(s.tree); err != nil {
		s.tree = before
		return err
	}
	if err := s.saveLocked(); err != nil {
		logging.StoreError("%s: save failed, rolling back: %v", op, err)
		s.rollbackLocked(before)
		return err
	}
	return nil
}

func (s *Store) rollbackLocked(fallback *Tree) {
	if len(s.persisted) == 0 {
		s.tree = fallback
		return
	}
	tree, err := DecodeTree(s.persisted)
	if err != nil {
		logging.StoreWarn("persisted copy of %s no longer decodes, keeping the pre-mutation tree: %v", s.path, err)
		s.tree = fallback
		return
	}
	s.tree = tree
}

// PutTopic creates the topic with text as its only message, or overwrites
// the first message of an existing topic (appending when it has none).
func (s *Store) PutTopic(age, season, topic, text string) error {
	return s.mutate("PutTopic", func(t *Tree) error {
		topics, err := t.topics(age, season)
		if err != nil {
			return err
		}
		r, ok := topics.Get(topic)
		if !ok {
			rec := Record{Messages: []string{text}}
			rec.normalize()
			topics.Set(topic, &rec)
			return nil
		}
		r.normalize()
		if len(r.Messages) == 0 {
			r.Messages = append(r.Messages, text)
		} else {
			r.Messages[0] = text
		}
		return nil
	})
}

func (s *Store) DeleteTopic(age, season, topic string) error {
	return s.mutate("DeleteTopic", func(t *Tree) error {
		topics, err := t.topics(age, season)
		if err != nil {
			return err
		}
		if _, ok := topics.Delete(topic); !ok {
			return notFound(LevelTopic, topic)
		}
		return nil
	})
}

// RenameTopic moves the record under oldTitle to newTitle at the end of the
// season. Renaming to the same title does nothing; a taken title fails with
// ErrConflict.
func (s *Store) RenameTopic(age, season, oldTitle, newTitle string) error {
	if oldTitle == newTitle {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := s.tree.record(age, season, oldTitle)
		return err
	}
	return s.mutate("RenameTopic", func(t *Tree) error {
		topics, err := t.topics(age, season)
		if err != nil {
			return err
		}
		r, ok := topics.Get(oldTitle)
		if !ok {
			return notFound(LevelTopic, oldTitle)
		}
		if _, taken := topics.Get(newTitle); taken {
			return fmt.Errorf("topic %q: %w", newTitle, ErrConflict)
		}
		topics.Delete(oldTitle)
		topics.Set(newTitle, r)
		return nil
	})
}

func (s *Store) AppendMessage(age, season, topic, text string) error {
	return s.mutate("AppendMessage", func(t *Tree) error {
		r, err := t.record(age, season, topic)
		if err != nil {
			return err
		}
		r.normalize()
		r.Messages = append(r.Messages, text)
		return nil
	})
}

// ReplaceMessage overwrites the message at zero-based index.
func (s *Store) ReplaceMessage(age, season, topic string, index int, text string) error {
	return s.mutate("ReplaceMessage", func(t *Tree) error {
		r, err := t.message(age, season, topic, index)
		if err != nil {
			return err
		}
		r.Messages[index] = text
		return nil
	})
}

// DeleteMessage removes the message at zero-based index.
func (s *Store) DeleteMessage(age, season, topic string, index int) error {
	return s.mutate("DeleteMessage", func(t *Tree) error {
		r, err := t.message(age, season, topic, index)
		if err != nil {
			return err
		}
		r.Messages = append(r.Messages[:index], r.Messages[index+1:]...)
		return nil
	})
}

// AddSeason creates age/season when missing. The chat flows never create
// ages or seasons; this serves seeding and the CLI.
func (s *Store) AddSeason(age, season string) error {
	return s.mutate("AddSeason", func(t *Tree) error {
		t.AddSeason(age, season)
		return nil
	})
}

// Persisted returns a copy of the bytes last read from or written to disk.
func (s *Store) Persisted() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.persisted)
}

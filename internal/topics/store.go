// Package topics holds the session's topic list and answers
// search-as-you-type queries against it.
package topics

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrStale is returned for a load that completed after a newer load had
// already been committed. Its result is discarded.
var ErrStale = errors.New("stale topic load discarded")

// Lister is the slice of the API the store needs.
type Lister interface {
	ListTopics(ctx context.Context) ([]api.Topic, error)
}

// Store is the in-memory topic list. Loads are sequenced: every load takes a
// token from Begin, and a completion is only applied when its token is newer
// than the last committed one, so the most recently issued successful load
// always ends up displayed.
type Store struct {
	mu        sync.RWMutex
	all       []api.Topic
	loaded    bool
	issued    uint64
	committed uint64
}

func NewStore() *Store {
	return &Store{}
}

// Begin issues a sequence token for a new load.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit replaces the topic set if seq is newer than the last commit.
// It reports whether the set was replaced.
func (s *Store) Commit(seq uint64, topics []api.Topic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.committed {
		return false
	}
	all := make([]api.Topic, len(topics))
	copy(all, topics)
	s.all = all
	s.loaded = true
	s.committed = seq
	return true
}

// Stale reports whether a load with token seq has been overtaken by a
// committed newer load.
func (s *Store) Stale(seq uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return seq <= s.committed
}

// LoadAll fetches the full list and commits it. A load overtaken by a newer
// one returns ErrStale.
func (s *Store) LoadAll(ctx context.Context, l Lister) ([]api.Topic, error) {
	seq := s.Begin()
	topics, err := l.ListTopics(ctx)
	if err != nil {
		if s.Stale(seq) {
			return nil, ErrStale
		}
		return nil, err
	}
	if !s.Commit(seq, topics) {
		return nil, ErrStale
	}
	return s.All(), nil
}

// Loaded reports whether any load has been committed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) All() []api.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Topic, len(s.all))
	copy(out, s.all)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all)
}

func (s *Store) Get(id int) (api.Topic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.all {
		if t.ID == id {
			return t, true
		}
	}
	return api.Topic{}, false
}

// Filter returns the topics whose title contains query, ignoring case.
// An empty query returns the full set.
func (s *Store) Filter(query string) []api.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	if q == "" {
		out := make([]api.Topic, len(s.all))
		copy(out, s.all)
		return out
	}

	out := make([]api.Topic, 0)
	for _, t := range s.all {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

// Suggest returns up to n titles that fuzzily match query, closest first.
// It backs the "no results" state when Filter finds nothing.
func (s *Store) Suggest(query string, n int) []api.Topic {
	q := strings.TrimSpace(query)
	if q == "" || n <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]string, len(s.all))
	for i, t := range s.all {
		titles[i] = t.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(q, titles)
	sort.Stable(ranks)

	var out []api.Topic
	for _, r := range ranks {
		out = append(out, s.all[r.OriginalIndex])
		if len(out) == n {
			break
		}
	}
	return out
}

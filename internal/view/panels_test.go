package view

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/poller"
	"github.com/google/go-cmp/cmp"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) SaveWindow(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[name] = data
	return nil
}

func (m *memStore) LoadWindow(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[name], nil
}

func entry(i int) api.FeedbackEntry {
	return api.FeedbackEntry{
		User:      api.Label(fmt.Sprintf("user%d", i)),
		Comment:   fmt.Sprintf("comment %d", i),
		CreatedAt: api.ParseTimestamp(fmt.Sprintf("2024-05-01 10:%02d:00", i)),
	}
}

func TestPlaceholdersBeforeFirstTick(t *testing.T) {
	v := NewPanels(5, 3, nil, nil).Snapshot()
	if v.Users != PlaceholderLoading || v.TopicCount != PlaceholderLoading {
		t.Errorf("expected loading placeholders, got %q / %q", v.Users, v.TopicCount)
	}
	if v.NewsStatus.Placeholder() != PlaceholderLoading {
		t.Error("news should be loading")
	}
}

func TestStatsFailureDoesNotBlockNews(t *testing.T) {
	p := NewPanels(5, 3, nil, nil)
	p.Apply(poller.Result{Feed: poller.FeedStats, Err: errors.New("boom")})
	p.Apply(poller.Result{Feed: poller.FeedNews, News: []api.NewsItem{{Title: "Exams moved"}}})

	v := p.Snapshot()
	if v.Users != PlaceholderFailed {
		t.Errorf("users = %q, want %q", v.Users, PlaceholderFailed)
	}
	if v.NewsStatus != PanelReady || len(v.News) != 1 || v.News[0].Title != "Exams moved" {
		t.Errorf("news not updated: %+v", v.News)
	}
}

func TestPushEvictsOldest(t *testing.T) {
	p := NewPanels(5, 3, nil, nil)
	var initial []api.FeedbackEntry
	for i := 5; i >= 1; i-- {
		initial = append(initial, entry(i))
	}
	p.Apply(poller.Result{Feed: poller.FeedFeedback, Feedback: initial})

	p.FeedbackUpdate(entry(6))

	got := p.FeedbackWindow()
	want := []api.FeedbackEntry{entry(6), entry(5), entry(4), entry(3), entry(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("window (-want +got):\n%s", diff)
	}
}

func TestFeedbackToggle(t *testing.T) {
	p := NewPanels(5, 3, nil, nil)
	for i := 1; i <= 5; i++ {
		p.FeedbackUpdate(entry(i))
	}

	v := p.Snapshot()
	if len(v.Feedback) != 3 || v.Hidden != 2 {
		t.Fatalf("collapsed: shown=%d hidden=%d", len(v.Feedback), v.Hidden)
	}
	if v.Feedback[0].Comment != "comment 5" {
		t.Errorf("newest should be first, got %q", v.Feedback[0].Comment)
	}

	p.ToggleFeedback()
	v = p.Snapshot()
	if len(v.Feedback) != 5 || v.Hidden != 0 || !v.FeedbackExpanded {
		t.Errorf("expanded: shown=%d hidden=%d", len(v.Feedback), v.Hidden)
	}
}

func TestStatsPushOverwrites(t *testing.T) {
	p := NewPanels(5, 3, nil, nil)
	p.Apply(poller.Result{Feed: poller.FeedStats, Err: errors.New("down")})
	p.StatsUpdate(api.Stats{UsersCount: 9})
	if v := p.Snapshot(); v.Users != "9" {
		t.Errorf("users = %q", v.Users)
	}
	p.Apply(poller.Result{Feed: poller.FeedTopicCount, TopicCount: 14})
	if v := p.Snapshot(); v.TopicCount != "14" {
		t.Errorf("topic count = %q", v.TopicCount)
	}
}

func TestRestoreFromStore(t *testing.T) {
	store := &memStore{}
	p := NewPanels(5, 3, store, nil)
	p.NewsUpdate(api.NewsItem{Title: "Cached", CreatedAt: api.ParseTimestamp("2024-05-01 09:00:00")})

	restored := NewPanels(5, 3, store, nil)
	if err := restored.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	v := restored.Snapshot()
	if v.NewsStatus != PanelReady || len(v.News) != 1 || v.News[0].Title != "Cached" {
		t.Errorf("restored news = %+v (%v)", v.News, v.NewsStatus)
	}
	if v.FeedbackStatus != PanelLoading {
		t.Errorf("empty feedback window should still be loading, got %v", v.FeedbackStatus)
	}
}

func TestConcurrentPollAndPush(t *testing.T) {
	p := NewPanels(5, 3, nil, nil)
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.FeedbackUpdate(entry(i))
		}()
		go func() {
			defer wg.Done()
			p.Apply(poller.Result{Feed: poller.FeedStats, Stats: api.Stats{UsersCount: i}})
		}()
	}
	wg.Wait()

	got := p.FeedbackWindow()
	if len(got) != 5 {
		t.Fatalf("window size = %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Errorf("window not newest first at %d: %v", i, got)
		}
	}
	if got[0].Comment != "comment 20" {
		t.Errorf("newest = %q, want comment 20", got[0].Comment)
	}
}

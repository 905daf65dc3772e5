package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eduverse/eduverse/internal/api"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu       sync.Mutex
	feedback []api.FeedbackEntry
	stats    []api.Stats
	news     []api.NewsItem
	events   chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: make(chan string, 16)}
}

func (s *recordingSink) FeedbackUpdate(e api.FeedbackEntry) {
	s.mu.Lock()
	s.feedback = append(s.feedback, e)
	s.mu.Unlock()
	s.events <- EventFeedback
}

func (s *recordingSink) StatsUpdate(st api.Stats) {
	s.mu.Lock()
	s.stats = append(s.stats, st)
	s.mu.Unlock()
	s.events <- EventStats
}

func (s *recordingSink) NewsUpdate(n api.NewsItem) {
	s.mu.Lock()
	s.news = append(s.news, n)
	s.mu.Unlock()
	s.events <- EventNews
}

func TestReadEvents(t *testing.T) {
	stream := ": keep-alive\n\n" +
		"event: stats_update\n" +
		"data: {\"users_count\": 7}\n\n" +
		"event:news_update\n" +
		"data: {\"title\": \"a\",\n" +
		"data: \"created_at\": \"2024-05-01 10:00:00\"}\n\n" +
		"data: plain\n\n" +
		"event: dangling\n"

	type ev struct{ name, data string }
	var got []ev
	err := readEvents(strings.NewReader(stream), func(name string, data []byte) {
		got = append(got, ev{name, string(data)})
	})
	if err != nil {
		t.Fatalf("readEvents: %v", err)
	}

	want := []ev{
		{"stats_update", `{"users_count": 7}`},
		{"news_update", "{\"title\": \"a\",\n\"created_at\": \"2024-05-01 10:00:00\"}"},
		{"message", "plain"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDispatchTable(t *testing.T) {
	sink := newRecordingSink()
	l := New(Options{URL: "http://unused"}, sink)

	if err := l.Dispatch(EventFeedback, []byte(`{"user":"ann","topic":3,"comment":"ok"}`)); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if err := l.Dispatch(EventStats, []byte(`{"users_count":42}`)); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if err := l.Dispatch(EventNews, []byte(`{"title":"Holiday","created_at":"2024-05-01T10:00:00Z"}`)); err != nil {
		t.Fatalf("news: %v", err)
	}
	if err := l.Dispatch("chat_message", []byte(`{}`)); err != nil {
		t.Errorf("unknown events must be ignored, got %v", err)
	}
	if err := l.Dispatch(EventStats, []byte(`not json`)); err == nil {
		t.Error("expected decode error")
	}

	if len(sink.feedback) != 1 || sink.feedback[0].Topic.String() != "3" {
		t.Errorf("feedback = %+v", sink.feedback)
	}
	if len(sink.stats) != 1 || sink.stats[0].UsersCount != 42 {
		t.Errorf("stats = %+v", sink.stats)
	}
	if len(sink.news) != 1 || sink.news[0].Title != "Holiday" {
		t.Errorf("news = %+v", sink.news)
	}
}

func TestRunReconnectsAndFiresHook(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		switch conns.Add(1) {
		case 1:
			fmt.Fprint(w, "event: feedback_update\ndata: {\"user\":\"ann\",\"topic\":\"Articles\",\"comment\":\"hi\"}\n\n")
			flusher.Flush()
			// Drop the stream.
		default:
			fmt.Fprint(w, "event: stats_update\ndata: {\"users_count\":5}\n\n")
			flusher.Flush()
			<-r.Context().Done()
		}
	}))
	defer srv.Close()

	sink := newRecordingSink()
	reconnected := make(chan struct{}, 1)
	l := New(Options{
		URL:        srv.URL,
		APIKey:     "secret",
		HTTPClient: srv.Client(),
		MinBackoff: 10 * time.Millisecond,
		MaxBackoff: 20 * time.Millisecond,
		OnReconnect: func() {
			reconnected <- struct{}{}
		},
	}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	wait := func(what string, ch <-chan struct{}) {
		t.Helper()
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}

	expectEvent := func(name string) {
		t.Helper()
		select {
		case got := <-sink.events:
			if got != name {
				t.Errorf("got event %s, want %s", got, name)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", name)
		}
	}

	expectEvent(EventFeedback)
	wait("reconnect hook", reconnected)
	expectEvent(EventStats)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunBacksOffOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	hooked := atomic.Bool{}
	l := New(Options{
		URL:         srv.URL,
		HTTPClient:  srv.Client(),
		MinBackoff:  5 * time.Millisecond,
		MaxBackoff:  10 * time.Millisecond,
		OnReconnect: func() { hooked.Store(true) },
	}, newRecordingSink())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := l.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v", err)
	}
	if hits.Load() < 2 {
		t.Errorf("expected repeated attempts, got %d", hits.Load())
	}
	if hooked.Load() {
		t.Error("reconnect hook must only fire after a successful connection")
	}
}

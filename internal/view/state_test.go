package view

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/topics"
)

var testTopics = []api.Topic{
	{ID: 1, Title: "Present Simple"},
	{ID: 2, Title: "Past Perfect"},
	{ID: 3, Title: "Modal Verbs"},
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestState(t *testing.T) (*State, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewState(topics.NewStore(), NewPanels(5, 3, nil, nil), Options{
		NoticeTTL:  5 * time.Second,
		SuccessTTL: 2500 * time.Millisecond,
		Now:        clock.now,
	})
	return s, clock
}

func loaded(t *testing.T) *State {
	t.Helper()
	s, _ := newTestState(t)
	if !s.FinishLoad(s.BeginLoad(), testTopics, nil) {
		t.Fatal("load rejected")
	}
	return s
}

func TestInitialLoadFailureIsPersistent(t *testing.T) {
	s, clock := newTestState(t)
	seq := s.BeginLoad()
	if s.ListStatus() != ListLoading {
		t.Fatalf("status = %v, want loading", s.ListStatus())
	}

	s.FinishLoad(seq, nil, &api.NetworkError{Op: "list topics", Err: errors.New("refused")})
	if s.ListStatus() != ListFailed {
		t.Errorf("status = %v, want failed", s.ListStatus())
	}
	if s.ListError() == "" {
		t.Error("expected a persistent list error message")
	}
	if _, ok := s.Notices.Latest(); !ok {
		t.Error("expected a dismissible notice")
	}

	clock.t = clock.t.Add(time.Minute)
	s.ExpireNotices()
	if s.ListStatus() != ListFailed || s.ListError() == "" {
		t.Error("list error must outlive the notice")
	}

	// A later successful load clears it.
	s.FinishLoad(s.BeginLoad(), testTopics, nil)
	if s.ListStatus() != ListReady || s.ListError() != "" {
		t.Errorf("status = %v err = %q after recovery", s.ListStatus(), s.ListError())
	}
}

func TestReloadFailureKeepsList(t *testing.T) {
	s := loaded(t)
	s.FinishLoad(s.BeginLoad(), nil, &api.ServerError{Op: "list topics", Status: 500})
	if s.ListStatus() != ListReady {
		t.Errorf("status = %v, want ready", s.ListStatus())
	}
	if len(s.Visible()) != len(testTopics) {
		t.Errorf("visible = %d topics", len(s.Visible()))
	}
}

func TestQueryStates(t *testing.T) {
	s := loaded(t)

	s.SetQuery("past")
	if s.ListStatus() != ListReady || len(s.Visible()) != 1 || s.Visible()[0].ID != 2 {
		t.Errorf("past: status=%v visible=%v", s.ListStatus(), s.Visible())
	}

	s.SetQuery("modl")
	if s.ListStatus() != ListNoResults {
		t.Fatalf("modl: status = %v, want no results", s.ListStatus())
	}
	if len(s.Suggestions()) == 0 || s.Suggestions()[0].ID != 3 {
		t.Errorf("expected Modal Verbs suggested, got %v", s.Suggestions())
	}

	s.SetQuery("")
	if len(s.Visible()) != len(testTopics) || s.Suggestions() != nil {
		t.Errorf("empty query should show everything without suggestions")
	}
}

func TestQueryAppliesToReloadedList(t *testing.T) {
	s := loaded(t)
	s.SetQuery("verbs")
	s.FinishLoad(s.BeginLoad(), append(testTopics, api.Topic{ID: 4, Title: "Phrasal Verbs"}), nil)
	if len(s.Visible()) != 2 {
		t.Errorf("expected filter reapplied after reload, got %v", s.Visible())
	}
}

func TestSelectionSingletonAcrossFailures(t *testing.T) {
	s := loaded(t)

	a := s.BeginShow()
	s.FinishShow(a, api.Topic{ID: 1, Title: "Present Simple"}, nil)

	failed := s.BeginShow()
	s.FinishShow(failed, api.Topic{}, &api.ServerError{Op: "get topic", Status: 404})
	if !s.IsSelected(1) {
		t.Error("a failed fetch must leave the previous selection")
	}
	if s.Detail() == nil || s.Detail().Topic.ID != 1 {
		t.Error("a failed fetch must leave the previous detail")
	}

	b := s.BeginShow()
	s.FinishShow(b, api.Topic{ID: 2, Title: "Past Perfect"}, nil)

	active := 0
	for _, topic := range testTopics {
		if s.IsSelected(topic.ID) {
			active++
			if topic.ID != 2 {
				t.Errorf("topic %d unexpectedly active", topic.ID)
			}
		}
	}
	if active != 1 {
		t.Errorf("expected exactly one active entry, got %d", active)
	}
}

func TestShowLastIssuedWins(t *testing.T) {
	s := loaded(t)
	a := s.BeginShow()
	b := s.BeginShow()

	if !s.FinishShow(b, api.Topic{ID: 2}, nil) {
		t.Fatal("B should apply")
	}
	if s.FinishShow(a, api.Topic{ID: 1}, nil) {
		t.Error("late A must be dropped")
	}
	if id, _ := s.Selected(); id != 2 {
		t.Errorf("selected = %d, want 2", id)
	}
}

func TestShowOvertakenFailureIsQuiet(t *testing.T) {
	s := loaded(t)
	a := s.BeginShow()
	_ = s.BeginShow()
	if s.FinishShow(a, api.Topic{}, errors.New("timeout")) {
		t.Error("failure of an overtaken fetch should be dropped")
	}
	if _, ok := s.Notices.Latest(); ok {
		t.Error("no notice expected for an overtaken fetch")
	}
}

func TestShowResetsAccordion(t *testing.T) {
	s := loaded(t)
	s.FinishShow(s.BeginShow(), api.Topic{ID: 1, Examples: "<p>x</p>"}, nil)
	s.Accordion().Toggle(SectionExamples)
	s.FinishShow(s.BeginShow(), api.Topic{ID: 2}, nil)
	if s.Accordion().Current() != "" {
		t.Errorf("expected sections collapsed for a new topic, got %q", s.Accordion().Current())
	}
}

func TestNoticeTTLs(t *testing.T) {
	s, clock := newTestState(t)
	s.Notify(NoticeSuccess, "Thanks for your feedback!")
	s.Notify(NoticeError, "Could not open topic")

	clock.t = clock.t.Add(3 * time.Second)
	if n := s.ExpireNotices(); n != 1 {
		t.Errorf("expected the success notice to expire first, removed %d", n)
	}
	latest, ok := s.Notices.Latest()
	if !ok || !strings.HasPrefix(latest.Text, "Could not") {
		t.Errorf("latest = %+v", latest)
	}
	if !s.Notices.Dismiss(latest.ID) {
		t.Error("dismiss failed")
	}
	if len(s.Notices.Active()) != 0 {
		t.Error("expected no notices left")
	}
}

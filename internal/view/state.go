// Package view holds the session's view state: the filtered topic list, the
// selected topic and its rendered detail, notices and the auxiliary panels.
// State has a single writer; hosts mutate it from one loop and render from
// its accessors.
package view

import (
	"time"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/topics"
)

type ListStatus int

const (
	ListLoading ListStatus = iota
	ListReady
	ListNoResults
	ListFailed
)

func (s ListStatus) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListReady:
		return "ready"
	case ListNoResults:
		return "no results"
	case ListFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const suggestionCount = 3

type Options struct {
	NoticeTTL  time.Duration
	SuccessTTL time.Duration
	Now        func() time.Time
}

type State struct {
	Topics  *topics.Store
	Panels  *Panels
	Notices Notices

	accordion *Accordion

	query       string
	visible     []api.Topic
	suggestions []api.Topic
	list        ListStatus
	listErr     string

	selected    int
	hasSelected bool
	detail      *Fragment

	detailIssued    uint64
	detailCommitted uint64

	noticeTTL  time.Duration
	successTTL time.Duration
	now        func() time.Time
}

func NewState(store *topics.Store, panels *Panels, opts Options) *State {
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 5 * time.Second
	}
	if opts.SuccessTTL <= 0 {
		opts.SuccessTTL = 2500 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &State{
		Topics:     store,
		Panels:     panels,
		accordion:  NewAccordion(SectionExamples, SectionMedia),
		noticeTTL:  opts.NoticeTTL,
		successTTL: opts.SuccessTTL,
		now:        opts.Now,
	}
}

// BeginLoad issues a topic list load.
func (s *State) BeginLoad() uint64 {
	if !s.Topics.Loaded() {
		s.list = ListLoading
	}
	return s.Topics.Begin()
}

// FinishLoad applies the outcome of the load issued as seq. Outcomes of
// loads overtaken by a newer committed load are dropped and FinishLoad
// returns false.
func (s *State) FinishLoad(seq uint64, list []api.Topic, err error) bool {
	if err != nil {
		if s.Topics.Stale(seq) {
			return false
		}
		msg := api.UserMessage(err)
		if !s.Topics.Loaded() {
			s.list = ListFailed
			s.listErr = msg
		}
		s.Notify(NoticeError, "Could not load topics: "+msg)
		return true
	}
	if !s.Topics.Commit(seq, list) {
		return false
	}
	s.listErr = ""
	s.refilter()
	return true
}

func (s *State) SetQuery(q string) {
	s.query = q
	s.refilter()
}

func (s *State) Query() string { return s.query }

func (s *State) refilter() {
	if !s.Topics.Loaded() {
		return
	}
	s.visible = s.Topics.Filter(s.query)
	s.suggestions = nil
	if len(s.visible) == 0 {
		s.list = ListNoResults
		s.suggestions = s.Topics.Suggest(s.query, suggestionCount)
		return
	}
	s.list = ListReady
}

func (s *State) Visible() []api.Topic { return s.visible }

// Suggestions are fuzzy matches offered when a query has no results.
func (s *State) Suggestions() []api.Topic { return s.suggestions }

func (s *State) ListStatus() ListStatus { return s.list }

// ListError is the message kept on screen after the first load failed.
func (s *State) ListError() string { return s.listErr }

// BeginShow issues a detail fetch.
func (s *State) BeginShow() uint64 {
	s.detailIssued++
	return s.detailIssued
}

// FinishShow applies the detail fetch issued as seq. On success the topic
// becomes the only selected entry; on failure selection and detail stay as
// they were and an error notice is raised. A fetch overtaken by a newer one
// that already completed is dropped.
func (s *State) FinishShow(seq uint64, t api.Topic, err error) bool {
	if seq <= s.detailCommitted {
		return false
	}
	if err != nil {
		if seq < s.detailIssued {
			// A newer fetch is still pending; its outcome decides.
			return false
		}
		s.Notify(NoticeError, "Could not open topic: "+api.UserMessage(err))
		return true
	}
	s.detailCommitted = seq
	s.selected, s.hasSelected = t.ID, true
	s.detail = Render(t)
	s.accordion.CloseAll()
	return true
}

// Selected returns the active topic id. At most one topic is active.
func (s *State) Selected() (int, bool) { return s.selected, s.hasSelected }

func (s *State) IsSelected(id int) bool { return s.hasSelected && s.selected == id }

// Detail is the fragment for the selected topic, or nil.
func (s *State) Detail() *Fragment { return s.detail }

func (s *State) Accordion() *Accordion { return s.accordion }

func (s *State) Notify(kind NoticeKind, text string) Notice {
	ttl := s.noticeTTL
	if kind == NoticeSuccess {
		ttl = s.successTTL
	}
	return s.Notices.Add(kind, text, ttl, s.now())
}

func (s *State) ExpireNotices() int {
	return s.Notices.Expire(s.now())
}

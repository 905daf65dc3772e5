package view

import (
	"strconv"
	"sync"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/bounded"
	"github.com/eduverse/eduverse/internal/poller"
	"go.uber.org/zap"
)

const (
	WindowFeedback = "feedback"
	WindowNews     = "news"

	PlaceholderLoading = "…"
	PlaceholderFailed  = "failed to load"
)

type PanelStatus int

const (
	PanelLoading PanelStatus = iota
	PanelReady
	PanelFailed
)

// Placeholder is the text a panel shows instead of its content, or "" when
// it is ready.
func (s PanelStatus) Placeholder() string {
	switch s {
	case PanelLoading:
		return PlaceholderLoading
	case PanelFailed:
		return PlaceholderFailed
	}
	return ""
}

// Panels holds the auxiliary panels fed by the poller and the live
// listener. Both write through the same methods; it is safe for concurrent
// use.
type Panels struct {
	mu sync.Mutex

	users       int
	usersStatus PanelStatus

	topicCount  int
	topicStatus PanelStatus

	news       *bounded.Window[api.NewsItem]
	newsStatus PanelStatus

	feedback       *bounded.Window[api.FeedbackEntry]
	feedbackStatus PanelStatus
	visible        int
	expanded       bool

	logger *zap.Logger
}

// NewPanels creates panels whose news and feedback windows keep capacity
// entries and persist through store, which may be nil. visible is how many
// feedback entries show before the toggle.
func NewPanels(capacity, visible int, store bounded.Store, logger *zap.Logger) *Panels {
	if logger == nil {
		logger = zap.NewNop()
	}
	if visible < 1 {
		visible = 3
	}
	return &Panels{
		news: bounded.New(WindowNews, capacity, func(a, b api.NewsItem) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}, store),
		feedback: bounded.New(WindowFeedback, capacity, func(a, b api.FeedbackEntry) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}, store),
		visible: visible,
		logger:  logger,
	}
}

// Restore loads the persisted windows. Restored entries are shown until the
// first refresh replaces them.
func (p *Panels) Restore() error {
	if err := p.news.Load(); err != nil {
		return err
	}
	if err := p.feedback.Load(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.news.Len() > 0 {
		p.newsStatus = PanelReady
	}
	if p.feedback.Len() > 0 {
		p.feedbackStatus = PanelReady
	}
	return nil
}

// Apply folds one poll result into its panel. A failure only marks that
// panel.
func (p *Panels) Apply(r poller.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch r.Feed {
	case poller.FeedStats:
		if r.Err != nil {
			p.usersStatus = PanelFailed
			return
		}
		p.users, p.usersStatus = r.Stats.UsersCount, PanelReady
	case poller.FeedTopicCount:
		if r.Err != nil {
			p.topicStatus = PanelFailed
			return
		}
		p.topicCount, p.topicStatus = r.TopicCount, PanelReady
	case poller.FeedNews:
		if r.Err != nil {
			p.newsStatus = PanelFailed
			return
		}
		p.persisted(p.news.Reset(r.News))
		p.newsStatus = PanelReady
	case poller.FeedFeedback:
		if r.Err != nil {
			p.feedbackStatus = PanelFailed
			return
		}
		p.persisted(p.feedback.Reset(r.Feedback))
		p.feedbackStatus = PanelReady
	}
}

func (p *Panels) FeedbackUpdate(e api.FeedbackEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.persisted(p.feedback.Push(e))
	p.feedbackStatus = PanelReady
}

func (p *Panels) StatsUpdate(s api.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users, p.usersStatus = s.UsersCount, PanelReady
}

func (p *Panels) NewsUpdate(n api.NewsItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.persisted(p.news.Push(n))
	p.newsStatus = PanelReady
}

// ToggleFeedback flips between the first few entries and the whole window.
func (p *Panels) ToggleFeedback() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded = !p.expanded
	return p.expanded
}

func (p *Panels) persisted(err error) {
	if err != nil {
		p.logger.Warn("persisting panel window", zap.Error(err))
	}
}

// PanelsView is a point-in-time copy of the panels for rendering.
type PanelsView struct {
	Users       string
	UsersStatus PanelStatus

	TopicCount  string
	TopicStatus PanelStatus

	News       []api.NewsItem
	NewsStatus PanelStatus

	// Feedback holds the entries on display; Hidden counts the rest of the
	// window behind the toggle.
	Feedback         []api.FeedbackEntry
	Hidden           int
	FeedbackExpanded bool
	FeedbackStatus   PanelStatus
}

func (p *Panels) Snapshot() PanelsView {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := PanelsView{
		UsersStatus:      p.usersStatus,
		TopicStatus:      p.topicStatus,
		NewsStatus:       p.newsStatus,
		FeedbackStatus:   p.feedbackStatus,
		FeedbackExpanded: p.expanded,
	}

	v.Users = p.usersStatus.Placeholder()
	if p.usersStatus == PanelReady {
		v.Users = strconv.Itoa(p.users)
	}
	v.TopicCount = p.topicStatus.Placeholder()
	if p.topicStatus == PanelReady {
		v.TopicCount = strconv.Itoa(p.topicCount)
	}

	if p.newsStatus == PanelReady {
		v.News = p.news.Items()
	}
	if p.feedbackStatus == PanelReady {
		all := p.feedback.Items()
		if p.expanded || len(all) <= p.visible {
			v.Feedback = all
		} else {
			v.Feedback = all[:p.visible]
			v.Hidden = len(all) - p.visible
		}
	}
	return v
}

// FeedbackWindow returns every cached feedback entry, newest first.
func (p *Panels) FeedbackWindow() []api.FeedbackEntry {
	return p.feedback.Items()
}

// NewsWindow returns every cached news item, newest first.
func (p *Panels) NewsWindow() []api.NewsItem {
	return p.news.Items()
}

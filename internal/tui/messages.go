package tui

import (
	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/poller"
)

type topicsLoadedMsg struct {
	seq    uint64
	topics []api.Topic
	err    error
}

type topicLoadedMsg struct {
	seq   uint64
	topic api.Topic
	err   error
}

type pollResultMsg struct {
	result poller.Result
}

// pollDoneMsg ends a tick. results carries what could not be sent while
// the tick ran.
type pollDoneMsg struct {
	failed  int
	results []poller.Result
}

type pollTickMsg struct{}

type noticeTickMsg struct{}

type feedbackDoneMsg struct {
	err error
}

type feedbackPushedMsg struct {
	entry api.FeedbackEntry
}

type statsPushedMsg struct {
	stats api.Stats
}

type newsPushedMsg struct {
	item api.NewsItem
}

type reconnectedMsg struct{}

type openErrMsg struct {
	err error
}

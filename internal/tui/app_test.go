package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/feedback"
	"github.com/eduverse/eduverse/internal/host"
	"github.com/eduverse/eduverse/internal/poller"
	"github.com/eduverse/eduverse/internal/topics"
	"github.com/eduverse/eduverse/internal/view"
)

type fakeClient struct {
	topics    []api.Topic
	submitted []api.FeedbackRequest
	submitErr error
}

func (f *fakeClient) Stats(context.Context) (api.Stats, error) { return api.Stats{UsersCount: 3}, nil }
func (f *fakeClient) ListTopics(context.Context) ([]api.Topic, error) {
	return f.topics, nil
}
func (f *fakeClient) News(context.Context) ([]api.NewsItem, error) { return nil, errors.New("down") }
func (f *fakeClient) Feedback(context.Context) ([]api.FeedbackEntry, error) {
	return []api.FeedbackEntry{{User: "ann", Comment: "hi"}}, nil
}
func (f *fakeClient) GetTopic(_ context.Context, id int) (api.Topic, error) {
	for _, t := range f.topics {
		if t.ID == id {
			return t, nil
		}
	}
	return api.Topic{}, &api.ServerError{Op: "get topic", Status: 404}
}
func (f *fakeClient) SubmitFeedback(_ context.Context, req api.FeedbackRequest) error {
	f.submitted = append(f.submitted, req)
	return f.submitErr
}

type memNames struct{ name string }

func (m *memNames) DisplayName() (string, error)     { return m.name, nil }
func (m *memNames) SetDisplayName(name string) error { m.name = name; return nil }

func newTestApp(c *fakeClient, names *memNames) *App {
	state := view.NewState(topics.NewStore(), view.NewPanels(5, 3, nil, nil), view.Options{})
	a := NewApp(RunOpts{
		Client:   c,
		State:    state,
		Poller:   poller.New(c, time.Hour, nil, nil),
		Identity: &feedback.Resolver{Names: names},
	})
	// Keep notice expiry timers out of the synchronous command runner.
	a.noticeTicking = true
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(a *App, s string) {
	for _, r := range s {
		a.Update(key(string(r)))
	}
}

// run executes cmd, feeding resulting messages back into the app, and
// descends into batches.
func run(a *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(a, c)
		}
	case nil, spinner.TickMsg, pollTickMsg:
	default:
		_, next := a.Update(msg)
		run(a, next)
	}
}

func loadedApp(t *testing.T, c *fakeClient, names *memNames) *App {
	t.Helper()
	a := newTestApp(c, names)
	_, _ = a.Update(topicsLoadedMsg{seq: a.state.BeginLoad(), topics: c.topics})
	if a.state.ListStatus() != view.ListReady {
		t.Fatalf("list status = %v", a.state.ListStatus())
	}
	return a
}

func TestLatestIssuedListWins(t *testing.T) {
	a := newTestApp(&fakeClient{}, &memNames{})
	seqA := a.state.BeginLoad()
	seqB := a.state.BeginLoad()

	a.Update(topicsLoadedMsg{seq: seqB, topics: []api.Topic{{ID: 2, Title: "B"}}})
	a.Update(topicsLoadedMsg{seq: seqA, topics: []api.Topic{{ID: 1, Title: "A"}}})

	got := a.state.Visible()
	if len(got) != 1 || got[0].Title != "B" {
		t.Errorf("visible = %v, want B's list", got)
	}
}

func TestSearchAsYouType(t *testing.T) {
	c := &fakeClient{topics: []api.Topic{{ID: 1, Title: "Present Simple"}, {ID: 2, Title: "Past Perfect"}}}
	a := loadedApp(t, c, &memNames{})

	a.Update(key("/"))
	typeText(a, "past")
	if a.state.Query() != "past" || len(a.state.Visible()) != 1 {
		t.Errorf("query=%q visible=%v", a.state.Query(), a.state.Visible())
	}
	a.Update(key("esc"))
	if a.state.Query() != "" || len(a.state.Visible()) != 2 {
		t.Error("esc should clear the search")
	}
}

func TestOpenTopicAndSendFeedbackWithPrompt(t *testing.T) {
	c := &fakeClient{topics: []api.Topic{{ID: 7, Title: "Articles"}}}
	names := &memNames{}
	a := loadedApp(t, c, names)

	_, cmd := a.Update(key("enter"))
	run(a, cmd)
	if !a.state.IsSelected(7) {
		t.Fatal("topic 7 should be selected")
	}

	a.Update(key("c"))
	if a.mode != modeFeedback {
		t.Fatalf("mode = %v, want feedback", a.mode)
	}
	typeText(a, "clear rules")
	_, cmd = a.Update(key("enter"))
	if a.mode != modeName {
		t.Fatalf("expected name prompt, mode = %v", a.mode)
	}
	run(a, cmd)

	typeText(a, "Ann")
	_, cmd = a.Update(key("enter"))
	run(a, cmd)

	if names.name != "Ann" {
		t.Errorf("display name not persisted: %q", names.name)
	}
	if len(c.submitted) != 1 {
		t.Fatalf("submitted %d times", len(c.submitted))
	}
	want := api.FeedbackRequest{UserID: "Ann", TopicID: 7, Comment: "clear rules"}
	if c.submitted[0] != want {
		t.Errorf("request = %+v, want %+v", c.submitted[0], want)
	}
	if a.mode != modeNormal || a.commentInput.Value() != "" {
		t.Errorf("form should reset after success: mode=%v value=%q", a.mode, a.commentInput.Value())
	}
	if n, ok := a.state.Notices.Latest(); !ok || n.Kind != view.NoticeSuccess {
		t.Errorf("expected success notice, got %+v", n)
	}
	if v := a.state.Panels.Snapshot(); v.Users != "3" || len(v.Feedback) != 1 {
		t.Errorf("panels not refreshed after submit: %+v", v)
	}
}

func TestHostIdentitySkipsNamePrompt(t *testing.T) {
	c := &fakeClient{topics: []api.Topic{{ID: 7, Title: "Articles"}}}
	names := &memNames{}
	state := view.NewState(topics.NewStore(), view.NewPanels(5, 3, nil, nil), view.Options{})
	a := NewApp(RunOpts{
		Client:   c,
		State:    state,
		Poller:   poller.New(c, time.Hour, nil, nil),
		Identity: &feedback.Resolver{Names: names},
		Host:     host.NewTerminal("4242", nil),
	})
	a.noticeTicking = true
	a.Update(topicsLoadedMsg{seq: a.state.BeginLoad(), topics: c.topics})

	_, cmd := a.Update(key("enter"))
	run(a, cmd)
	a.Update(key("c"))
	typeText(a, "nice")
	_, cmd = a.Update(key("enter"))
	if a.mode == modeName {
		t.Fatal("prompted for a name although the host supplies one")
	}
	run(a, cmd)

	if len(c.submitted) != 1 || c.submitted[0].UserID != "4242" {
		t.Fatalf("submitted = %+v, want one request from 4242", c.submitted)
	}
	if names.name != "" {
		t.Errorf("host identity should not be stored as a display name, got %q", names.name)
	}
}

func TestEmptyCommentNeverSubmits(t *testing.T) {
	c := &fakeClient{topics: []api.Topic{{ID: 1, Title: "Articles"}}}
	a := loadedApp(t, c, &memNames{name: "Ann"})
	_, cmd := a.Update(key("enter"))
	run(a, cmd)

	a.Update(key("c"))
	typeText(a, "   ")
	_, cmd = a.Update(key("enter"))
	run(a, cmd)

	if len(c.submitted) != 0 {
		t.Errorf("whitespace comment was submitted")
	}
	if a.form.Message() == "" {
		t.Error("expected inline validation message")
	}
}

func TestFailedFeedbackKeepsComment(t *testing.T) {
	c := &fakeClient{
		topics:    []api.Topic{{ID: 1, Title: "Articles"}},
		submitErr: &api.ServerError{Op: "submit feedback", Status: 400, Message: "Topic not found"},
	}
	a := loadedApp(t, c, &memNames{name: "Ann"})
	_, cmd := a.Update(key("enter"))
	run(a, cmd)

	a.Update(key("c"))
	typeText(a, "please keep")
	_, cmd = a.Update(key("enter"))
	run(a, cmd)

	if a.mode != modeFeedback {
		t.Errorf("mode = %v, want feedback", a.mode)
	}
	if a.commentInput.Value() != "please keep" {
		t.Errorf("comment lost: %q", a.commentInput.Value())
	}
	if !strings.Contains(a.renderForm(60), "Topic not found") {
		t.Errorf("form should show the server message:\n%s", a.renderForm(60))
	}
}

func TestPollWithoutProgramAppliesOnDone(t *testing.T) {
	c := &fakeClient{}
	a := newTestApp(c, &memNames{})
	run(a, a.pollCmd())

	v := a.state.Panels.Snapshot()
	if v.Users != "3" {
		t.Errorf("users = %q", v.Users)
	}
	if v.NewsStatus != view.PanelFailed {
		t.Errorf("news status = %v, want failed", v.NewsStatus)
	}
	if a.polling {
		t.Error("polling flag should clear")
	}
}

func TestResolveURL(t *testing.T) {
	a := newTestApp(&fakeClient{}, &memNames{})
	a.baseURL = "http://localhost:5000"
	if got := a.resolveURL("/static/uploads/a.png"); got != "http://localhost:5000/static/uploads/a.png" {
		t.Errorf("resolveURL = %q", got)
	}
	if got := a.resolveURL("https://youtu.be/x"); got != "https://youtu.be/x" {
		t.Errorf("absolute URLs pass through, got %q", got)
	}
}

func TestViewRenders(t *testing.T) {
	c := &fakeClient{topics: []api.Topic{{ID: 1, Title: "Articles", Structure: "<p>a / an</p>"}}}
	a := loadedApp(t, c, &memNames{})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	out := a.View()
	if !strings.Contains(out, "eduverse") || !strings.Contains(out, "Articles") {
		t.Errorf("unexpected view:\n%s", out)
	}
}

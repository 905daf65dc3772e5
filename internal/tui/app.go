package tui

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/browser"
	"github.com/eduverse/eduverse/internal/feedback"
	"github.com/eduverse/eduverse/internal/host"
	"github.com/eduverse/eduverse/internal/live"
	"github.com/eduverse/eduverse/internal/poller"
	"github.com/eduverse/eduverse/internal/view"
	"go.uber.org/zap"
)

type focusPane int

const (
	focusList focusPane = iota
	focusDetail
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFeedback
	modeName
	modeHelp
)

// Client is the API surface the TUI drives.
type Client interface {
	poller.Source
	GetTopic(ctx context.Context, id int) (api.Topic, error)
	SubmitFeedback(ctx context.Context, req api.FeedbackRequest) error
}

// SyncInfo reports when the panels were last refreshed.
type SyncInfo interface {
	LastSync() (time.Time, error)
}

type App struct {
	client   Client
	state    *view.State
	poller   *poller.Poller
	identity *feedback.Resolver
	host     host.Host
	sync     SyncInfo
	logger   *zap.Logger

	baseURL string
	timeout time.Duration

	cursor int
	focus  focusPane
	mode   mode

	width  int
	height int

	// Sub-components
	searchInput  textinput.Model
	commentInput textinput.Model
	nameInput    textinput.Model
	spinner      spinner.Model
	form         *feedback.Form

	// State
	polling       bool
	noticeTicking bool
	detailScroll  int
	lastSync      time.Time
	pendingUser   string

	// send delivers messages from background work; nil until Run starts the
	// program.
	send func(tea.Msg)
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Client   Client
	State    *view.State
	Poller   *poller.Poller
	Identity *feedback.Resolver
	Host     *host.Terminal
	Sync     SyncInfo
	Logger   *zap.Logger

	BaseURL        string
	RequestTimeout time.Duration

	// Events configures the push stream; an empty URL disables live updates.
	Events live.Options
}

func NewApp(opts RunOpts) *App {
	search := textinput.New()
	search.Placeholder = "Search topics..."
	search.Prompt = searchPromptStyle.Render("/ ")
	search.CharLimit = 100

	comment := textinput.New()
	comment.Placeholder = "Your feedback..."
	comment.Prompt = formLabelStyle.Render("> ")
	comment.CharLimit = 1000

	name := textinput.New()
	name.Placeholder = "Your name"
	name.Prompt = formLabelStyle.Render("name: ")
	name.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var h host.Host = opts.Host
	if opts.Host == nil {
		h = host.NewTerminal("", logger)
	}
	identity := &feedback.Resolver{}
	if opts.Identity != nil {
		id := *opts.Identity
		identity = &id
	}
	if identity.Host == nil {
		identity.Host = h
	}

	return &App{
		client:       opts.Client,
		state:        opts.State,
		poller:       opts.Poller,
		identity:     identity,
		host:         h,
		sync:         opts.Sync,
		logger:       logger,
		baseURL:      opts.BaseURL,
		timeout:      timeout,
		searchInput:  search,
		commentInput: comment,
		nameInput:    name,
		spinner:      sp,
		form:         feedback.NewForm(),
	}
}

func (a *App) Init() tea.Cmd {
	a.host.Ready()
	a.refreshLastSync()
	return tea.Batch(a.loadTopicsCmd(), a.pollCmd(), a.schedulePoll())
}

// loadTopicsCmd issues a sequenced list load.
func (a *App) loadTopicsCmd() tea.Cmd {
	seq := a.state.BeginLoad()
	c, timeout := a.client, a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		topics, err := c.ListTopics(ctx)
		return topicsLoadedMsg{seq: seq, topics: topics, err: err}
	}
}

func (a *App) showTopicCmd(id int) tea.Cmd {
	seq := a.state.BeginShow()
	c, timeout := a.client, a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		t, err := c.GetTopic(ctx, id)
		return topicLoadedMsg{seq: seq, topic: t, err: err}
	}
}

// pollCmd runs one poller tick. Results stream back as they arrive so each
// panel updates on its own.
func (a *App) pollCmd() tea.Cmd {
	if a.polling || a.poller == nil {
		return nil
	}
	a.polling = true
	p, send, timeout := a.poller, a.send, a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		var pending []poller.Result
		failed := p.Tick(ctx, func(r poller.Result) {
			if send != nil {
				send(pollResultMsg{result: r})
				return
			}
			pending = append(pending, r)
		})
		return pollDoneMsg{failed: failed, results: pending}
	}
}

// fetchFeedsCmd refreshes a few feeds outside the regular tick.
func (a *App) fetchFeedsCmd(feeds ...poller.Feed) tea.Cmd {
	c, timeout := a.client, a.timeout
	cmds := make([]tea.Cmd, 0, len(feeds))
	for _, f := range feeds {
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return pollResultMsg{result: poller.Fetch(ctx, c, f)}
		})
	}
	return tea.Batch(cmds...)
}

func (a *App) schedulePoll() tea.Cmd {
	if a.poller == nil {
		return nil
	}
	return tea.Tick(a.poller.Interval(), func(time.Time) tea.Msg { return pollTickMsg{} })
}

func (a *App) noticeTickCmd() tea.Cmd {
	if a.noticeTicking {
		return nil
	}
	a.noticeTicking = true
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg { return noticeTickMsg{} })
}

func (a *App) submitFeedbackCmd(req api.FeedbackRequest) tea.Cmd {
	c, timeout := a.client, a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return feedbackDoneMsg{err: c.SubmitFeedback(ctx, req)}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

// resolveURL makes server-relative upload paths absolute.
func (a *App) resolveURL(raw string) string {
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	base, err := url.Parse(a.baseURL)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

func (a *App) refreshLastSync() {
	if a.sync == nil {
		return
	}
	if t, err := a.sync.LastSync(); err == nil {
		a.lastSync = t
	}
}

func (a *App) notify(kind view.NoticeKind, text string) tea.Cmd {
	a.state.Notify(kind, text)
	return a.noticeTickCmd()
}

func (a *App) clampCursor() {
	n := len(a.state.Visible())
	if a.cursor >= n {
		a.cursor = max(0, n-1)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case topicsLoadedMsg:
		if !a.state.FinishLoad(msg.seq, msg.topics, msg.err) {
			a.logger.Debug("dropped stale topic list", zap.Uint64("seq", msg.seq))
			return a, nil
		}
		a.clampCursor()
		if msg.err != nil {
			a.logger.Warn("loading topics", zap.Error(msg.err))
			return a, a.noticeTickCmd()
		}
		return a, nil

	case topicLoadedMsg:
		if !a.state.FinishShow(msg.seq, msg.topic, msg.err) {
			return a, nil
		}
		if msg.err != nil {
			a.logger.Warn("loading topic", zap.Error(msg.err))
			return a, a.noticeTickCmd()
		}
		a.detailScroll = 0
		return a, nil

	case pollResultMsg:
		a.state.Panels.Apply(msg.result)
		return a, nil

	case pollDoneMsg:
		a.polling = false
		for _, r := range msg.results {
			a.state.Panels.Apply(r)
		}
		a.refreshLastSync()
		return a, nil

	case pollTickMsg:
		return a, tea.Batch(a.pollCmd(), a.schedulePoll())

	case feedbackPushedMsg:
		a.state.Panels.FeedbackUpdate(msg.entry)
		return a, nil

	case statsPushedMsg:
		a.state.Panels.StatsUpdate(msg.stats)
		return a, nil

	case newsPushedMsg:
		a.state.Panels.NewsUpdate(msg.item)
		return a, nil

	case reconnectedMsg:
		return a, a.pollCmd()

	case feedbackDoneMsg:
		return a.finishFeedback(msg.err)

	case noticeTickMsg:
		a.noticeTicking = false
		a.state.ExpireNotices()
		if len(a.state.Notices.Active()) > 0 {
			return a, a.noticeTickCmd()
		}
		return a, nil

	case openErrMsg:
		return a, a.notify(view.NoticeError, msg.err.Error())

	case spinner.TickMsg:
		if a.form.Busy() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	}

	// Mode-specific handling
	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFeedback:
		return a.handleFeedbackKey(msg)
	case modeName:
		return a.handleNameKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	// Normal mode
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.state.Visible())-1 {
			a.cursor++
		} else if a.focus == focusDetail {
			a.detailScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
		} else if a.focus == focusDetail && a.detailScroll > 0 {
			a.detailScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusDetail
		} else {
			a.focus = focusList
		}
		return a, nil
	case "enter":
		visible := a.state.Visible()
		if a.cursor < len(visible) {
			return a, a.showTopicCmd(visible[a.cursor].ID)
		}
		return a, nil
	case "e":
		a.state.Accordion().Toggle(view.SectionExamples)
		return a, nil
	case "m":
		a.state.Accordion().Toggle(view.SectionMedia)
		return a, nil
	case "o":
		if f := a.state.Detail(); f != nil && f.MediaURL() != "" {
			return a, openBrowserCmd(a.resolveURL(f.MediaURL()))
		}
		return a, nil
	case "t":
		a.state.Panels.ToggleFeedback()
		return a, nil
	case "c":
		if a.state.Detail() == nil {
			return a, a.notify(view.NoticeInfo, "Open a topic before leaving feedback")
		}
		a.mode = modeFeedback
		a.commentInput.SetValue(a.form.Comment())
		a.commentInput.Focus()
		return a, textinput.Blink
	case "x":
		a.state.Notices.DismissLatest()
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "r":
		return a, tea.Batch(a.loadTopicsCmd(), a.pollCmd())
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.state.SetQuery("")
		a.clampCursor()
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	// Only re-filter on actual value changes, not cursor moves etc.
	if a.searchInput.Value() != a.state.Query() {
		a.state.SetQuery(a.searchInput.Value())
		a.cursor = 0
	}
	return a, cmd
}

func (a *App) handleFeedbackKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !a.form.Busy() {
			a.mode = modeNormal
			a.commentInput.Blur()
		}
		return a, nil
	case "enter":
		return a.submitFeedback()
	}
	if a.form.Busy() {
		return a, nil
	}
	var cmd tea.Cmd
	a.commentInput, cmd = a.commentInput.Update(msg)
	return a, cmd
}

func (a *App) handleNameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeFeedback
		a.nameInput.Blur()
		a.commentInput.Focus()
		return a, nil
	case "enter":
		name, err := a.identity.Remember(a.nameInput.Value())
		if err != nil {
			a.logger.Warn("saving display name", zap.Error(err))
			return a, a.notify(view.NoticeError, api.UserMessage(err))
		}
		a.pendingUser = name
		a.nameInput.Blur()
		a.mode = modeFeedback
		a.commentInput.Focus()
		return a.submitFeedback()
	}
	var cmd tea.Cmd
	a.nameInput, cmd = a.nameInput.Update(msg)
	return a, cmd
}

// submitFeedback resolves the identity, prompting for a name once if
// needed, then validates and sends the comment.
func (a *App) submitFeedback() (tea.Model, tea.Cmd) {
	if a.form.Busy() {
		return a, nil
	}

	user := a.pendingUser
	if user == "" {
		if id, ok := a.identity.Known(); ok {
			user = id
		} else {
			a.mode = modeName
			a.commentInput.Blur()
			a.nameInput.Focus()
			return a, textinput.Blink
		}
	}

	topicID := ""
	if id, ok := a.state.Selected(); ok {
		topicID = strconv.Itoa(id)
	}
	req, err := a.form.Begin(topicID, a.commentInput.Value(), user)
	if err != nil {
		// Shown inline by the form.
		return a, nil
	}
	a.logger.Debug("submitting feedback", zap.Int("topic", req.TopicID))
	return a, tea.Batch(a.submitFeedbackCmd(req), a.spinner.Tick)
}

func (a *App) finishFeedback(err error) (tea.Model, tea.Cmd) {
	a.form.Finish(err)
	if err != nil {
		a.logger.Warn("submitting feedback", zap.Error(err))
		// Comment stays in the input for a retry.
		return a, nil
	}
	a.form.Reset()
	a.commentInput.SetValue("")
	a.commentInput.Blur()
	a.mode = modeNormal
	return a, tea.Batch(
		a.notify(view.NoticeSuccess, "Thanks for your feedback!"),
		a.fetchFeedsCmd(poller.FeedStats, poller.FeedFeedback),
	)
}

func (a *App) renderForm(width int) string {
	if a.mode != modeFeedback && a.mode != modeName {
		if msg := a.form.Message(); msg != "" && a.form.Phase() == feedback.Failed {
			return formErrorStyle.Render(msg) + itemDimStyle.Render("  (c to retry)")
		}
		return itemDimStyle.Render("c to leave feedback")
	}

	out := formLabelStyle.Render("Feedback") + "\n"
	if a.mode == modeName {
		out += itemDimStyle.Render("What name should we show with your feedback?") + "\n"
		out += a.nameInput.View()
		return out
	}
	a.commentInput.Width = max(width-4, 10)
	out += a.commentInput.View()
	if a.form.Busy() {
		out += "\n" + a.spinner.View() + " sending…"
	} else if msg := a.form.Message(); msg != "" {
		out += "\n" + formErrorStyle.Render(msg)
	}
	return out
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  eduverse")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}

	// Layout calculations
	headerHeight := 1
	barHeight := 1
	statusHeight := 1
	contentHeight := max(a.height-headerHeight-barHeight-statusHeight-4, 3) // borders

	listWidth := int(float64(a.width) * 0.35)
	detailWidth := a.width - listWidth - 1 // gap

	panels := a.state.Panels.Snapshot()

	// Header
	headerLeft := headerStyle.Render("eduverse")
	headerRight := headerStatsStyle.Render(fmt.Sprintf("users %s · topics %s ", panels.Users, panels.TopicCount))
	headerGap := max(a.width-lipgloss.Width(headerLeft)-lipgloss.Width(headerRight), 0)
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Section bar (replaced by the search input when searching)
	bar := renderSectionBar(a.state.Accordion(), a.width)
	if a.mode == modeSearch {
		bar = a.searchInput.View()
	}

	// Left column: topic list above the live panels
	innerListW := listWidth - 4 // border + padding
	panelsHeight := contentHeight / 2
	topicsHeight := contentHeight - panelsHeight - 1
	left := renderList(a.state, a.cursor, topicsHeight, innerListW) + "\n" +
		itemDimStyle.Render(truncateStr("────────────────────────────────────────────────", innerListW)) + "\n" +
		renderPanels(panels, innerListW, panelsHeight)

	listStyle, detailStyle := paneStyle, paneStyle
	if a.focus == focusList {
		listStyle = paneActiveStyle
	} else {
		detailStyle = paneActiveStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).MaxHeight(contentHeight + 2).Render(left)

	innerDetailW := detailWidth - 4
	detail := renderDetail(a.state.Detail(), a.state.Accordion(), innerDetailW, contentHeight, a.detailScroll, a.renderForm(innerDetailW))
	detailPane := detailStyle.Width(detailWidth - 2).Height(contentHeight).Render(detail)

	// Join panes
	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	status := renderStatusBar(len(a.state.Visible()), a.state.Query(), a.lastSync, a.width, a.mode, a.polling)
	if n, ok := a.state.Notices.Latest(); ok {
		status = renderNotice(n, a.width)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bar, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("eduverse")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through topics / scroll detail\n" +
		"  tab           Switch focus between list and detail\n" +
		"  enter         Open topic\n\n" +
		dim.Render("Topic") + "\n" +
		"  e             Toggle examples\n" +
		"  m             Toggle media\n" +
		"  o             Open media in browser\n" +
		"  c             Leave feedback\n\n" +
		dim.Render("Panels") + "\n" +
		"  t             Show all / fewer feedback entries\n" +
		"  r             Reload topics and panels\n" +
		"  x             Dismiss notice\n\n" +
		dim.Render("General") + "\n" +
		"  /             Search topics\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

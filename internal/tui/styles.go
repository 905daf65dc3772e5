package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorActiveBdr = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorTabActive = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorTabBg     = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#2A2A3E"}
	colorSurface   = lipgloss.AdaptiveColor{Light: "#F4F4F4", Dark: "#1E1E2E"}
	colorStatusBg  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#16213E"}
	colorStatusFg  = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorRed       = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F6D"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingLeft(1)

	headerStatsStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Align(lipgloss.Right)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	paneActiveStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorActiveBdr)

	itemTitleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	itemCursorStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	itemActiveStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	itemDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary).
				MarginBottom(1)

	detailBodyStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	detailLinkStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	panelFailedStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Italic(true)

	tabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorTabActive).
			Padding(0, 1).
			Bold(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Background(colorTabBg).
				Padding(0, 1)

	tabSeparatorStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Background(colorSurface)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorStatusBg).
			Foreground(colorStatusFg).
			PaddingLeft(1).
			PaddingRight(1)

	noticeErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	noticeSuccessStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	noticeInfoStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	searchPromptStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	formLabelStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	formErrorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	helpCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorActiveBdr).
			Padding(1, 3)

	helpDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const helpText = `[yellow::b]Keyboard Shortcuts[-:-:-]

[lightgreen]Playback Controls:[-]
  [white]Space[-]       Play/Pause current song
  [white]Enter[-]       Play selected song / open playlist
  [white]n / N[-]       Next song
  [white]p / P[-]       Previous song
  [white]→ / ←[-]       Seek forward/backward 10s
  [white]m / M[-]       Cycle play mode (sequential, shuffle, repeat-one)
  [white]+ / -[-]       Volume up/down
  [white]f / F[-]       Toggle favorite

[lightgreen]Playlists & History:[-]
  [white]a / A[-]       Add current song to a playlist
  [white]c / C[-]       Create a playlist
  [white]d / Del[-]     Remove song from my playlist, delete the
              selected playlist, or clear history

[lightgreen]Navigation:[-]
  [white]↑ / ↓[-]       Navigate list
  [white]J / K[-]       Next/Previous page
  [white][ / ][-]       Previous/Next page (alternative)
  [white]PgUp/PgDn[-]   Previous/Next page (alternative)
  [white]gg / G[-]      First/Last page
  [white]/[-]           Search (empty search shows hot keywords)
  [white]r / R[-]       Home (recommendations)
  [white]l / L[-]       Library: favorites, history, my playlists
  [white]q / Q[-]       Show playback queue
  [white]?[-]           Show this help panel

[lightgreen]General:[-]
  [white]ESC[-]         Close modal / Leave search / Exit program
  [white]Ctrl+C[-]      Exit program

[yellow]Press ESC or ? to close this help panel[-]
`

// HelpView lists the keyboard shortcuts
type HelpView struct {
	modal
}

// NewHelpView creates a new help view
func NewHelpView(app *App) *HelpView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true).
		SetText(helpText)

	hv := &HelpView{modal: newModal(app, textView, " Help (ESC to close) ", 64, 40)}
	hv.container.SetBorderColor(tcell.ColorYellow)
	return hv
}

// Show displays the help view
func (hv *HelpView) Show() {
	hv.open()
}

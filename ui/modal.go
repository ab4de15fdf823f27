package ui

import "github.com/rivo/tview"

// modal is a bordered panel shown centered over the main layout.
// Opening replaces the root; closing restores it and refocuses the song table.
type modal struct {
	app           *App
	container     *tview.Flex
	focus         tview.Primitive
	width, height int
	active        bool
}

func newModal(app *App, content tview.Primitive, title string, width, height int) modal {
	container := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(content, 0, 1, true)
	container.SetBorder(true).SetTitle(title)
	return modal{app: app, container: container, focus: content, width: width, height: height}
}

func (m *modal) open() {
	m.active = true
	m.app.showModal(m.container, m.width, m.height)
	m.app.tviewApp.SetFocus(m.focus)
}

// Close hides the modal
func (m *modal) Close() {
	m.active = false
	m.app.tviewApp.SetRoot(m.app.rootFlex, true)
	m.app.tviewApp.SetFocus(m.app.songTable)
}

// IsActive returns whether the modal is shown
func (m *modal) IsActive() bool {
	return m.active
}

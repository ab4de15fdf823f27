package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// QueueView shows the controller queue; ENTER jumps to the selected entry
type QueueView struct {
	modal
	table *tview.Table
}

// NewQueueView creates a new queue view
func NewQueueView(app *App) *QueueView {
	qv := &QueueView{}
	qv.table = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)

	qv.table.SetSelectedFunc(func(row, column int) {
		if row < 1 {
			return
		}
		qv.app.run("jump", func() error { return qv.app.ctrl.Jump(row - 1) })
		qv.refreshQueue()
	})

	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Attributes(tcell.AttrBold)
	for col, title := range []string{"#", "Title", "Artist", "Duration"} {
		qv.table.SetCell(0, col, tview.NewTableCell(title).SetStyle(headerStyle).SetSelectable(false))
	}

	qv.modal = newModal(app, qv.table, " Playback Queue (ESC/q to close) ", 90, 24)
	qv.container.SetBorderColor(tcell.NewHexColor(0x00bcd4))
	return qv
}

// Show refreshes the queue and displays it
func (qv *QueueView) Show() {
	qv.refreshQueue()
	qv.open()
}

// refreshQueue updates the queue display from the controller snapshot
func (qv *QueueView) refreshQueue() {
	for i := qv.table.GetRowCount() - 1; i > 0; i-- {
		qv.table.RemoveRow(i)
	}

	snap := qv.app.ctrl.Snapshot()
	if len(snap.Queue) == 0 {
		qv.table.SetCell(1, 0, tview.NewTableCell("Queue is empty").
			SetAlign(tview.AlignCenter).
			SetExpansion(4).
			SetTextColor(tcell.ColorGray))
		return
	}

	rowStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	for i, song := range snap.Queue {
		row := i + 1
		number := fmt.Sprintf("%d", i+1)
		titleStyle := rowStyle
		if i == snap.Index {
			number = "▶ " + number
			titleStyle = rowStyle.Foreground(tcell.ColorLightGreen)
		}

		qv.table.SetCell(row, 0,
			tview.NewTableCell(number).
				SetStyle(rowStyle.Foreground(tcell.ColorLightGreen)).
				SetAlign(tview.AlignRight))

		qv.table.SetCell(row, 1,
			tview.NewTableCell(song.Name).
				SetStyle(titleStyle).
				SetExpansion(2))

		qv.table.SetCell(row, 2,
			tview.NewTableCell(song.Artist).
				SetStyle(rowStyle.Foreground(tcell.ColorGray)).
				SetMaxWidth(20))

		qv.table.SetCell(row, 3,
			tview.NewTableCell(song.FormattedDuration()).
				SetStyle(rowStyle.Foreground(tcell.ColorGray)).
				SetAlign(tview.AlignRight))
	}

	qv.table.SetSelectedStyle(tcell.StyleDefault.
		Background(tcell.ColorDarkCyan).
		Foreground(tcell.ColorWhite))
	if snap.Index >= 0 {
		qv.table.Select(snap.Index+1, 0)
	}
}

package shelftui

import (
	"slices"

	"github.com/tOgg1/shelf/internal/viewsync"
)

// rowState is the current row and selection shared by the list and the grid.
// It implements the navigation half of viewsync.View.
type rowState struct {
	count     func() int
	cursor    int
	anchor    int
	selection viewsync.Selection

	onCurrent   func(row int)
	onSelection func()
}

func newRowState(count func() int) rowState {
	return rowState{count: count, cursor: -1, anchor: -1}
}

func (s *rowState) CurrentRow() (int, bool) {
	if s.cursor < 0 || s.cursor >= s.count() {
		return 0, false
	}
	return s.cursor, true
}

func (s *rowState) SelectedRows() []int {
	return s.selection.Rows()
}

// SetCurrentRow moves the cursor. A user move also makes the row the whole
// selection; a mirrored move leaves the selection alone.
func (s *rowState) SetCurrentRow(row int, forSync bool) {
	n := s.count()
	if n == 0 {
		return
	}
	row = clampRow(row, n)

	if !forSync {
		s.anchor = row
		s.setSelection(viewsync.SelectionFromRanges([]viewsync.Range{{First: row, Last: row}}))
	}
	s.setCursor(row)
}

func (s *rowState) SelectRows(ranges []viewsync.Range) {
	s.setSelection(viewsync.SelectionFromRanges(ranges).Clamp(s.count()))
}

func (s *rowState) OnCurrentChanged(fn func(row int)) { s.onCurrent = fn }

func (s *rowState) OnSelectionChanged(fn func()) { s.onSelection = fn }

// move steps the cursor by delta rows. With extend the selection grows from
// the anchor to the new row instead of being replaced.
func (s *rowState) move(delta int, extend bool) {
	n := s.count()
	if n == 0 {
		return
	}
	from := s.cursor
	if from < 0 {
		from = 0
		delta = 0
	}
	target := clampRow(from+delta, n)
	if !extend {
		s.SetCurrentRow(target, false)
		return
	}
	if s.anchor < 0 {
		s.anchor = from
	}
	lo, hi := min(s.anchor, target), max(s.anchor, target)
	s.setSelection(viewsync.SelectionFromRanges([]viewsync.Range{{First: lo, Last: hi}}))
	s.setCursor(target)
}

func (s *rowState) jump(row int) {
	if s.count() == 0 {
		return
	}
	s.SetCurrentRow(row, false)
}

func (s *rowState) toggle() {
	row, ok := s.CurrentRow()
	if !ok {
		return
	}
	s.anchor = row
	s.setSelection(s.selection.Toggle(row))
}

func (s *rowState) selectAll() {
	n := s.count()
	if n == 0 {
		return
	}
	s.setSelection(viewsync.SelectionFromRanges([]viewsync.Range{{First: 0, Last: n - 1}}))
}

// reset clamps the cursor and selection after the row set changed. No
// callbacks fire; callers resynchronize views explicitly.
func (s *rowState) reset() {
	n := s.count()
	s.selection = s.selection.Clamp(n)
	switch {
	case n == 0:
		s.cursor, s.anchor = -1, -1
	case s.cursor >= n:
		s.cursor = n - 1
	}
	if s.anchor >= n {
		s.anchor = n - 1
	}
}

// clear drops the cursor and selection without firing callbacks.
func (s *rowState) clear() {
	s.cursor, s.anchor = -1, -1
	s.selection = viewsync.Selection{}
}

func (s *rowState) setCursor(row int) {
	if row == s.cursor {
		return
	}
	s.cursor = row
	if s.onCurrent != nil {
		s.onCurrent(row)
	}
}

func (s *rowState) setSelection(sel viewsync.Selection) {
	if slices.Equal(sel.Ranges(), s.selection.Ranges()) {
		return
	}
	s.selection = sel
	if s.onSelection != nil {
		s.onSelection()
	}
}

func clampRow(row, n int) int {
	if row < 0 {
		return 0
	}
	if row >= n {
		return n - 1
	}
	return row
}

// Package viewsync keeps a primary row view and any number of secondary
// presentations of the same records on the same current row and selection.
//
// A Controller is owned by the presentation goroutine. Views report changes
// through the callbacks they are given and the controller copies the change
// to the other side, with a Guard so the copy does not echo back.
package viewsync

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tOgg1/shelf/internal/logging"
)

// PrimaryKey addresses the primary view. It is always registered and always
// sits at stack position 0.
const PrimaryKey = ""

// Controller errors.
var (
	ErrViewAlreadyRegistered = errors.New("view already registered")
	ErrViewNotRegistered     = errors.New("view not registered")
)

// Phase identifies the step of a data-source switch.
type Phase int

const (
	// PhaseSwap runs before views see the new source: quiesce background work
	// and move registrations over.
	PhaseSwap Phase = iota
	// PhaseRefresh runs after the switch: drop anything derived from the old source.
	PhaseRefresh
)

func (p Phase) String() string {
	switch p {
	case PhaseSwap:
		return "swap"
	case PhaseRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// View is a presentation of the shared, identically ordered record rows.
type View interface {
	// CurrentRow returns the current row, or ok=false when there is none.
	CurrentRow() (row int, ok bool)
	// SelectedRows returns the selected rows in ascending order.
	SelectedRows() []int
	// SetCurrentRow moves the current row. forSync is true when the move is
	// mirrored from another view and must not be treated as user navigation.
	SetCurrentRow(row int, forSync bool)
	// SelectRows replaces the selection without moving the current row.
	SelectRows(ranges []Range)
	// OnCurrentChanged registers the callback fired when the current row changes.
	OnCurrentChanged(fn func(row int))
	// OnSelectionChanged registers the callback fired when the selection changes.
	OnSelectionChanged(fn func())
}

// Secondary is an alternate presentation driven by the controller.
type Secondary[S any] interface {
	View
	// Shown is called every time the view becomes the current view.
	Shown()
	// SetSource is called twice per data-source switch, once per Phase.
	SetSource(src S, phase Phase)
}

// Controller synchronizes a primary view with registered secondaries.
type Controller[S any] struct {
	primary   View
	secondary map[string]Secondary[S]
	stack     []string
	current   string
	guard     Guard

	primaryWired bool
	logger       zerolog.Logger
}

// New creates a controller with primary as the current view.
func New[S any](primary View) *Controller[S] {
	return &Controller[S]{
		primary:   primary,
		secondary: make(map[string]Secondary[S]),
		stack:     []string{PrimaryKey},
		current:   PrimaryKey,
		logger:    logging.Component("viewsync"),
	}
}

// Register adds a secondary view under key and appends it to the display stack.
func (c *Controller[S]) Register(key string, view Secondary[S]) error {
	if key == PrimaryKey {
		return fmt.Errorf("%w: primary key is reserved", ErrViewAlreadyRegistered)
	}
	if _, exists := c.secondary[key]; exists {
		return fmt.Errorf("%w: %q", ErrViewAlreadyRegistered, key)
	}

	c.secondary[key] = view
	c.stack = append(c.stack, key)

	view.OnCurrentChanged(func(row int) { c.secondaryCurrentChanged(key, row) })
	view.OnSelectionChanged(func() { c.secondarySelectionChanged(key) })

	c.logger.Debug().Str("view", key).Int("position", len(c.stack)-1).Msg("view registered")
	return nil
}

// Activate makes key the current view. Activating the current view does nothing.
func (c *Controller[S]) Activate(key string) error {
	if key == c.current {
		return nil
	}
	if key == PrimaryKey {
		c.current = PrimaryKey
		c.logger.Debug().Msg("primary view active")
		return nil
	}

	view, ok := c.secondary[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrViewNotRegistered, key)
	}

	c.current = key
	c.copyPrimaryInto(view)
	view.Shown()

	if !c.primaryWired {
		c.primary.OnCurrentChanged(c.primaryCurrentChanged)
		c.primary.OnSelectionChanged(c.primarySelectionChanged)
		c.primaryWired = true
	}

	c.logger.Debug().Str("view", key).Msg("view active")
	return nil
}

// PropagateSourceChange forwards a data-source switch to every secondary view
// in stack order. The primary is not notified.
func (c *Controller[S]) PropagateSourceChange(src S, phase Phase) {
	for _, key := range c.stack[1:] {
		c.secondary[key].SetSource(src, phase)
	}
}

// Current returns the key and view that are currently shown.
func (c *Controller[S]) Current() (string, View) {
	if c.current == PrimaryKey {
		return PrimaryKey, c.primary
	}
	return c.current, c.secondary[c.current]
}

// CurrentKey returns the key of the current view.
func (c *Controller[S]) CurrentKey() string { return c.current }

// Primary returns the primary view.
func (c *Controller[S]) Primary() View { return c.primary }

// Lookup returns the secondary view registered under key.
func (c *Controller[S]) Lookup(key string) (Secondary[S], error) {
	view, ok := c.secondary[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrViewNotRegistered, key)
	}
	return view, nil
}

// StackPosition returns the display stack index of key.
func (c *Controller[S]) StackPosition(key string) (int, error) {
	for i, k := range c.stack {
		if k == key {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrViewNotRegistered, key)
}

// Keys returns the display stack, primary first.
func (c *Controller[S]) Keys() []string {
	return append([]string(nil), c.stack...)
}

// Syncing reports whether a mirrored update is in flight.
func (c *Controller[S]) Syncing() bool { return c.guard.Held() }

func (c *Controller[S]) copyPrimaryInto(view Secondary[S]) {
	release, ok := c.guard.Acquire()
	if !ok {
		return
	}
	defer release()

	if row, ok := c.primary.CurrentRow(); ok {
		view.SetCurrentRow(row, true)
	}
	view.SelectRows(Ranges(c.primary.SelectedRows()))
}

// mirror runs fn under the guard unless a copy is already in flight or there
// is no secondary view on screen to mirror with.
func (c *Controller[S]) mirror(fn func()) {
	if c.guard.Held() || c.current == PrimaryKey {
		return
	}
	release, ok := c.guard.Acquire()
	if !ok {
		return
	}
	defer release()
	fn()
}

func (c *Controller[S]) secondaryCurrentChanged(key string, row int) {
	if key != c.current {
		return
	}
	c.mirror(func() {
		c.primary.SetCurrentRow(row, true)
	})
}

func (c *Controller[S]) secondarySelectionChanged(key string) {
	if key != c.current {
		return
	}
	c.mirror(func() {
		c.primary.SelectRows(Ranges(c.secondary[key].SelectedRows()))
	})
}

func (c *Controller[S]) primaryCurrentChanged(row int) {
	c.mirror(func() {
		c.secondary[c.current].SetCurrentRow(row, true)
	})
}

func (c *Controller[S]) primarySelectionChanged() {
	c.mirror(func() {
		c.secondary[c.current].SelectRows(Ranges(c.primary.SelectedRows()))
	})
}

// Package selection turns pointer down/move/up into a normalized display-space
// rectangle and decides when that rectangle is large enough to commit.
package selection

import (
	"errors"
	"log"

	"xshot/src/geometry"
)

var ErrDegenerateSelection = errors.New("selection too small")

// Controller is owned by one capture session and must only be used from the
// event loop goroutine.
type Controller struct {
	minSpan    float64
	dragging   bool
	visible    bool
	qualifying bool
	start      geometry.Point
	rect       geometry.Rect
}

// New returns a controller with the given threshold; minSpan <= 0 selects
// geometry.MinSelectionSpan.
func New(minSpan float64) *Controller {
	if minSpan <= 0 {
		minSpan = geometry.MinSelectionSpan
	}
	return &Controller{minSpan: minSpan}
}

// PointerDown starts a new drag anchored at p and returns true. A press inside
// an already qualifying selection is a click on that selection (the first half
// of a double-click) and leaves it untouched; it returns false.
func (c *Controller) PointerDown(p geometry.Point) bool {
	if c.qualifying && !c.dragging && c.rect.Contains(p) {
		return false
	}
	c.dragging = true
	c.visible = true
	c.qualifying = false
	c.start = p
	c.rect = geometry.Rect{X: p.X, Y: p.Y}
	return true
}

// PointerMove updates the live rectangle while dragging. The boolean is false
// when no drag is in progress.
func (c *Controller) PointerMove(p geometry.Point) (geometry.Rect, bool) {
	if !c.dragging {
		return c.rect, false
	}
	c.rect = geometry.Normalize(c.start, p)
	return c.rect, true
}

// PointerUp ends the drag at p and reports whether the selection qualifies. A
// rectangle below the threshold stays as the live rect but is no longer shown.
func (c *Controller) PointerUp(p geometry.Point) bool {
	if !c.dragging {
		return c.qualifying
	}
	c.rect = geometry.Normalize(c.start, p)
	c.dragging = false
	c.qualifying = c.rect.Qualifies(c.minSpan)
	c.visible = c.qualifying
	if !c.qualifying {
		log.Printf("selection: %v below %.0fpx threshold, ignoring", c.rect, c.minSpan)
	}
	return c.qualifying
}

// Commit returns the rectangle to export, or ErrDegenerateSelection when there
// is nothing qualifying to commit.
func (c *Controller) Commit() (geometry.Rect, error) {
	if !c.qualifying || c.dragging {
		return geometry.Rect{}, ErrDegenerateSelection
	}
	return c.rect, nil
}

func (c *Controller) Rect() geometry.Rect { return c.rect }
func (c *Controller) Dragging() bool      { return c.dragging }
func (c *Controller) Visible() bool       { return c.visible }
func (c *Controller) Qualifying() bool    { return c.qualifying }

package application

import (
	"sync"

	"github.com/threadboard/threadboard/internal/sched"
)

// Rect is a trigger element's bounding box, captured once when a more-menu
// opens. It is never recomputed; scrolling closes the menu instead of
// repositioning it.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MoreMenu is the open more-menu slot: which comment it belongs to and the
// screen anchor captured at open time.
type MoreMenu struct {
	CommentID string
	Anchor    Rect
}

// OverlayController owns the two popover slots for a thread view: at most one
// reaction picker and at most one more-menu, process-wide. Trigger clicks
// toggle the popover for the same comment and move it for a different one.
// Any armed outside click, or any scroll, closes both slots; opening one kind
// does not synchronously close the other, global exclusivity is enforced only
// by the shared dismissal path.
//
// The outside-click listener is armed on a deferred zero-delay task so the
// click that opened a popover is never interpreted as an outside click
// against it.
type OverlayController struct {
	mu             sync.Mutex
	sched          sched.Scheduler
	reactionPicker string
	moreMenu       *MoreMenu
	armed          bool
	armHandle      sched.Handle
}

// NewOverlayController creates an OverlayController using the given scheduler
// for deferred listener arming.
func NewOverlayController(s sched.Scheduler) *OverlayController {
	return &OverlayController{sched: s}
}

// ToggleReactionPicker handles a reaction-picker trigger click on a comment.
func (o *OverlayController) ToggleReactionPicker(commentID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.reactionPicker == commentID {
		o.reactionPicker = ""
		if o.moreMenu == nil {
			o.disarmLocked()
		}
		return
	}

	o.reactionPicker = commentID
	o.armDeferredLocked()
}

// ToggleMoreMenu handles a more-menu trigger click on a comment, capturing
// the trigger's bounding box as the menu anchor.
func (o *OverlayController) ToggleMoreMenu(commentID string, anchor Rect) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.moreMenu != nil && o.moreMenu.CommentID == commentID {
		o.moreMenu = nil
		if o.reactionPicker == "" {
			o.disarmLocked()
		}
		return
	}

	o.moreMenu = &MoreMenu{CommentID: commentID, Anchor: anchor}
	o.armDeferredLocked()
}

// OutsideClick handles a click outside any popover subtree. It closes both
// slots once the deferred listener has armed; before that it is a no-op, so
// the opening click cannot dismiss its own popover.
func (o *OverlayController) OutsideClick() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.armed {
		return
	}
	o.closeAllLocked()
}

// ScrollObserved handles a scroll event on the window or the thread-list
// container. Scrolling always closes both slots.
func (o *OverlayController) ScrollObserved() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeAllLocked()
}

// Reset closes everything, for a project switch or view teardown.
func (o *OverlayController) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeAllLocked()
}

// ReactionPicker returns the comment id the reaction picker is open for.
func (o *OverlayController) ReactionPicker() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reactionPicker, o.reactionPicker != ""
}

// MoreMenu returns the open more-menu slot.
func (o *OverlayController) MoreMenu() (MoreMenu, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.moreMenu == nil {
		return MoreMenu{}, false
	}
	return *o.moreMenu, true
}

func (o *OverlayController) armDeferredLocked() {
	o.armed = false
	if o.armHandle != nil {
		o.armHandle.Cancel()
	}
	o.armHandle = o.sched.Schedule(0, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.armed = true
	})
}

func (o *OverlayController) disarmLocked() {
	o.armed = false
	if o.armHandle != nil {
		o.armHandle.Cancel()
		o.armHandle = nil
	}
}

func (o *OverlayController) closeAllLocked() {
	o.reactionPicker = ""
	o.moreMenu = nil
	o.disarmLocked()
}

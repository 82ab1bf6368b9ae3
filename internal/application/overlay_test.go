package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadboard/threadboard/internal/application"
	"github.com/threadboard/threadboard/internal/sched"
)

func TestOverlay_TriggerClickToggles(t *testing.T) {
	clock := sched.NewManual()
	o := application.NewOverlayController(clock)

	o.ToggleReactionPicker("c1")
	id, open := o.ReactionPicker()
	require.True(t, open)
	assert.Equal(t, "c1", id)

	o.ToggleReactionPicker("c1")
	_, open = o.ReactionPicker()
	assert.False(t, open, "same trigger click closes")
}

func TestOverlay_TriggerClickMovesToOtherComment(t *testing.T) {
	clock := sched.NewManual()
	o := application.NewOverlayController(clock)

	anchor := application.Rect{X: 10, Y: 20, Width: 30, Height: 15}
	o.ToggleMoreMenu("c1", anchor)
	o.ToggleMoreMenu("c2", application.Rect{X: 50})

	menu, open := o.MoreMenu()
	require.True(t, open)
	assert.Equal(t, "c2", menu.CommentID)
	assert.Equal(t, 50.0, menu.Anchor.X)
}

func TestOverlay_OpeningOneKindKeepsTheOther(t *testing.T) {
	clock := sched.NewManual()
	o := application.NewOverlayController(clock)

	o.ToggleReactionPicker("c1")
	clock.Advance(0)
	o.ToggleMoreMenu("c2", application.Rect{})

	_, pickerOpen := o.ReactionPicker()
	_, menuOpen := o.MoreMenu()
	assert.True(t, pickerOpen, "a picker stays open when a menu opens elsewhere")
	assert.True(t, menuOpen)

	// The next armed outside click restores exclusivity by closing both.
	clock.Advance(0)
	o.OutsideClick()
	_, pickerOpen = o.ReactionPicker()
	_, menuOpen = o.MoreMenu()
	assert.False(t, pickerOpen)
	assert.False(t, menuOpen)
}

func TestOverlay_OpeningClickCannotDismissItself(t *testing.T) {
	clock := sched.NewManual()
	o := application.NewOverlayController(clock)

	o.ToggleReactionPicker("c1")

	// The same click bubbles to the document before the listener arms.
	o.OutsideClick()
	_, open := o.ReactionPicker()
	require.True(t, open, "outside click before arming is a no-op")

	clock.Advance(time.Millisecond)
	o.OutsideClick()
	_, open = o.ReactionPicker()
	assert.False(t, open)
}

func TestOverlay_ScrollAlwaysCloses(t *testing.T) {
	clock := sched.NewManual()
	o := application.NewOverlayController(clock)

	o.ToggleReactionPicker("c1")
	o.ToggleMoreMenu("c2", application.Rect{})

	// No arming needed for scroll dismissal.
	o.ScrollObserved()

	_, pickerOpen := o.ReactionPicker()
	_, menuOpen := o.MoreMenu()
	assert.False(t, pickerOpen)
	assert.False(t, menuOpen)
}

func TestOverlay_ResetClosesEverything(t *testing.T) {
	clock := sched.NewManual()
	o := application.NewOverlayController(clock)

	o.ToggleMoreMenu("c1", application.Rect{})
	o.Reset()

	_, open := o.MoreMenu()
	assert.False(t, open)
	assert.Zero(t, clock.Pending(), "no armed listener left behind")
}

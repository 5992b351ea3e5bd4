package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStepsOnlyMoveForward(t *testing.T) {
	s := NewSession("919800000000", time.Now(), time.Hour)
	s.StartBooking(s.Phone)
	assert.True(t, s.InBooking())

	seen := []BookingStep{s.Booking.Step}
	for s.InBooking() {
		prev := s.Booking.Step
		s.AdvanceBooking()
		assert.True(t, prev.Before(s.Booking.Step), "%s should precede %s", prev, s.Booking.Step)
		seen = append(seen, s.Booking.Step)
	}

	assert.Equal(t, bookingSteps, seen)
	assert.Equal(t, ModeNone, s.Mode)
	assert.Equal(t, StepDone, s.Booking.Step)

	s.AdvanceBooking()
	assert.Equal(t, StepDone, s.Booking.Step, "done is terminal")
}

func TestUnsetStepIsInactive(t *testing.T) {
	assert.False(t, StepUnset.Active())
	assert.Equal(t, StepUnset, StepUnset.Next())
	assert.True(t, BookingInfo{}.IsEmpty())
	assert.False(t, BookingInfo{Step: StepName}.IsEmpty())
}

func TestRecentHistory(t *testing.T) {
	s := NewSession("1", time.Now(), time.Hour)
	for _, text := range []string{"a", "b", "c", "d", "e", "f"} {
		s.AddTurn(text, true)
	}
	recent := s.RecentHistory(4)
	assert.Len(t, recent, 4)
	assert.Equal(t, "c", recent[0].Text)
	assert.Equal(t, "f", recent[3].Text)

	short := NewSession("2", time.Now(), time.Hour)
	short.AddTurn("only", false)
	assert.Len(t, short.RecentHistory(4), 1)
}

package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
			if tt.allowed {
				assert.NoError(t, ValidateTransition(tt.from, tt.to))
			} else {
				assert.ErrorIs(t, ValidateTransition(tt.from, tt.to), ErrInvalidTransition)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())

	assert.True(t, StatusConfirmed.CanBeCancelled())
	assert.False(t, StatusCompleted.CanBeCancelled())
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusPending, ParseStatus("PENDING"))
	assert.Equal(t, StatusConfirmed, ParseStatus(" confirmed "))
	assert.Equal(t, StatusConfirmed, ParseStatus(""))
	assert.Equal(t, StatusConfirmed, ParseStatus("booked"))
	assert.False(t, Status("booked").IsValid())
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "Morning", SlotLabel(0, id.SlotMorning))
	assert.Equal(t, "Day 1 - Morning", SlotLabel(1, id.SlotMorning))
	assert.Equal(t, "Day 3 - Evening", SlotLabel(3, id.SlotEvening))
}

func TestVerificationTransitions(t *testing.T) {
	// No transition between decision states is forbidden, and re-applying a
	// decision is legal (it refreshes the stamp).
	for _, from := range []VerificationStatus{VerificationPending, VerificationApproved, VerificationRejected} {
		assert.True(t, from.CanTransitionTo(VerificationApproved), "%s -> approved", from)
		assert.True(t, from.CanTransitionTo(VerificationRejected), "%s -> rejected", from)
		assert.False(t, from.CanTransitionTo(VerificationPending), "%s -> pending", from)
	}
}

func TestVerificationWorkflow(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	verifier := Verifier{ID: id.NewUserID(), Name: "Jane Officer", Email: "jane@club.test"}

	rec, err := NewRecord("Day 1 - Morning", CheckInStart, now, Location{Lat: 13.7, Lng: 100.5}, "", "")
	require.NoError(t, err)
	require.Equal(t, VerificationPending, rec.Status)

	t.Run("rejection dual-writes the note", func(t *testing.T) {
		require.NoError(t, rec.CanVerify(VerificationRejected))
		rec.ApplyRejection(verifier, now, "no photo")

		assert.Equal(t, VerificationRejected, rec.Status)
		assert.Equal(t, "no photo", rec.CancelReason)
		assert.Equal(t, "no photo", rec.VerificationNote)
		require.NotNil(t, rec.VerifiedBy)
		assert.Equal(t, verifier.ID, *rec.VerifiedBy)
		assert.Equal(t, "Jane Officer", rec.VerifiedByName)
	})

	t.Run("approval after rejection clears the cancel reason", func(t *testing.T) {
		later := now.Add(time.Hour)
		require.NoError(t, rec.CanVerify(VerificationApproved))
		rec.ApplyApproval(verifier, later, "resubmitted")

		assert.Equal(t, VerificationApproved, rec.Status)
		assert.Equal(t, "resubmitted", rec.VerificationNote)
		assert.Empty(t, rec.CancelReason)
		assert.Equal(t, later, *rec.VerifiedAt)
	})

	t.Run("re-approval refreshes the stamp", func(t *testing.T) {
		other := Verifier{ID: id.NewUserID(), Name: "Ann Officer", Email: "ann@club.test"}
		latest := now.Add(2 * time.Hour)
		require.NoError(t, rec.CanVerify(VerificationApproved))
		rec.ApplyApproval(other, latest, "double checked")

		assert.Equal(t, VerificationApproved, rec.Status)
		assert.Equal(t, other.ID, *rec.VerifiedBy)
		assert.Equal(t, "double checked", rec.VerificationNote)
		assert.Equal(t, latest, *rec.VerifiedAt)
	})
}

func TestLedgerAppend(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l, err := NewLedger(id.NewActivityID(), id.NewUserID(), StudentSnapshot{}, now)
	require.NoError(t, err)

	start, err := NewRecord("Morning", CheckInStart, now, Location{}, "", "")
	require.NoError(t, err)
	require.NoError(t, l.Append(start, now))

	t.Run("a second start entry for the slot is rejected", func(t *testing.T) {
		dup, err := NewRecord("Morning", CheckInStart, now.Add(time.Minute), Location{}, "", "")
		require.NoError(t, err)
		aerr := l.Append(dup, now)
		require.Error(t, aerr)
		assert.True(t, dErrors.HasCode(aerr, dErrors.CodeConflict))
	})

	t.Run("the end entry for the same slot is accepted", func(t *testing.T) {
		end, err := NewRecord("Morning", CheckInEnd, now.Add(3*time.Hour), Location{}, "", "")
		require.NoError(t, err)
		require.NoError(t, l.Append(end, now))
		assert.Len(t, l.Entries, 2)
	})

	t.Run("another slot starts fresh", func(t *testing.T) {
		other, err := NewRecord("Afternoon", CheckInStart, now, Location{}, "", "")
		require.NoError(t, err)
		require.NoError(t, l.Append(other, now))
	})
}

func TestPendingEntries(t *testing.T) {
	now := time.Now()
	verifier := Verifier{ID: id.NewUserID()}

	l, err := NewLedger(id.NewActivityID(), id.NewUserID(), StudentSnapshot{}, now)
	require.NoError(t, err)

	a, err := NewRecord("Morning", CheckInStart, now, Location{}, "", "")
	require.NoError(t, err)
	require.NoError(t, l.Append(a, now))

	b, err := NewRecord("Morning", CheckInEnd, now, Location{}, "", "")
	require.NoError(t, err)
	require.NoError(t, l.Append(b, now))

	got, ok := l.RecordByID(a.ID)
	require.True(t, ok)
	got.ApplyApproval(verifier, now, "")

	pending := l.PendingEntries()
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
}

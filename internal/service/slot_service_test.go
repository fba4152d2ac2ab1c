package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slotswap/internal/apperr"
	"slotswap/internal/model"
	"slotswap/internal/service"
	"slotswap/internal/store"
	"slotswap/internal/store/memory"
)

type slotFixture struct {
	st    *memory.Store
	svc   *service.SlotService
	owner *model.User
	other *model.User
}

func newSlotFixture(t *testing.T) *slotFixture {
	t.Helper()
	st := memory.New()
	return &slotFixture{
		st:    st,
		svc:   service.NewSlotService(st, zap.NewNop()),
		owner: seedUser(t, st, "Alice Park", "alice@example.com"),
		other: seedUser(t, st, "Bob Tran", "bob@example.com"),
	}
}

func createInput(hour int) service.CreateSlotInput {
	return service.CreateSlotInput{
		Title:     "Team sync",
		StartTime: testDay.Add(time.Duration(hour) * time.Hour),
		EndTime:   testDay.Add(time.Duration(hour+1) * time.Hour),
	}
}

func TestCreateSlotDefaultsToBusy(t *testing.T) {
	f := newSlotFixture(t)

	slot, err := f.svc.Create(context.Background(), f.owner.ID, createInput(9))
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusBusy, slot.Status)
	assert.Equal(t, f.owner.ID, slot.OwnerID)
	assert.NotEqual(t, uuid.Nil, slot.ID)
}

func TestCreateSlotValidation(t *testing.T) {
	f := newSlotFixture(t)

	tests := []struct {
		name  string
		input service.CreateSlotInput
	}{
		{
			name: "missing title",
			input: service.CreateSlotInput{
				StartTime: testDay,
				EndTime:   testDay.Add(time.Hour),
			},
		},
		{
			name: "title too long",
			input: service.CreateSlotInput{
				Title:     strings.Repeat("x", 101),
				StartTime: testDay,
				EndTime:   testDay.Add(time.Hour),
			},
		},
		{
			name: "end before start",
			input: service.CreateSlotInput{
				Title:     "Backwards",
				StartTime: testDay.Add(time.Hour),
				EndTime:   testDay,
			},
		},
		{
			name: "zero duration",
			input: service.CreateSlotInput{
				Title:     "Instant",
				StartTime: testDay,
				EndTime:   testDay,
			},
		},
		{
			name: "swap pending on create",
			input: service.CreateSlotInput{
				Title:     "Sneaky",
				StartTime: testDay,
				EndTime:   testDay.Add(time.Hour),
				Status:    model.SlotStatusSwapPending,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.owner.ID, tc.input)
			assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument), "got %v", err)
		})
	}
}

func TestCreateSlotRejectsOverlap(t *testing.T) {
	f := newSlotFixture(t)

	_, err := f.svc.Create(context.Background(), f.owner.ID, createInput(9))
	require.NoError(t, err)

	overlapping := createInput(9)
	overlapping.StartTime = overlapping.StartTime.Add(30 * time.Minute)
	overlapping.EndTime = overlapping.EndTime.Add(30 * time.Minute)
	_, err = f.svc.Create(context.Background(), f.owner.ID, overlapping)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	// Back-to-back slots touch but do not overlap.
	_, err = f.svc.Create(context.Background(), f.owner.ID, createInput(10))
	assert.NoError(t, err)

	// Another user may hold the same time range.
	_, err = f.svc.Create(context.Background(), f.other.ID, createInput(9))
	assert.NoError(t, err)
}

func TestGetSlotOwnerOnly(t *testing.T) {
	f := newSlotFixture(t)
	slot, err := f.svc.Create(context.Background(), f.owner.ID, createInput(9))
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), f.owner.ID, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, got.ID)

	_, err = f.svc.Get(context.Background(), f.other.ID, slot.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.svc.Get(context.Background(), f.owner.ID, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListSlotsFilters(t *testing.T) {
	f := newSlotFixture(t)

	early, err := f.svc.Create(context.Background(), f.owner.ID, createInput(8))
	require.NoError(t, err)
	late, err := f.svc.Create(context.Background(), f.owner.ID, createInput(15))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), f.owner.ID, late.ID, model.SlotStatusSwappable)
	require.NoError(t, err)

	all, err := f.svc.List(context.Background(), f.owner.ID, store.SlotFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID, "sorted by start time")

	swappable := model.SlotStatusSwappable
	filtered, err := f.svc.List(context.Background(), f.owner.ID, store.SlotFilter{Status: &swappable})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, late.ID, filtered[0].ID)

	from := testDay.Add(12 * time.Hour)
	ranged, err := f.svc.List(context.Background(), f.owner.ID, store.SlotFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, late.ID, ranged[0].ID)
}

func TestUpdateSlot(t *testing.T) {
	f := newSlotFixture(t)
	slot, err := f.svc.Create(context.Background(), f.owner.ID, createInput(9))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.owner.ID, createInput(11))
	require.NoError(t, err)

	title := "Renamed sync"
	updated, err := f.svc.Update(context.Background(), f.owner.ID, slot.ID, service.UpdateSlotInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	// Moving onto the neighbouring slot conflicts.
	newStart := testDay.Add(11 * time.Hour)
	newEnd := testDay.Add(12 * time.Hour)
	_, err = f.svc.Update(context.Background(), f.owner.ID, slot.ID, service.UpdateSlotInput{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	// Re-saving its own time range is not a conflict with itself.
	sameStart := slot.StartTime
	_, err = f.svc.Update(context.Background(), f.owner.ID, slot.ID, service.UpdateSlotInput{StartTime: &sameStart})
	assert.NoError(t, err)

	_, err = f.svc.Update(context.Background(), f.other.ID, slot.ID, service.UpdateSlotInput{Title: &title})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestUpdateRefusedWhileSwapPending(t *testing.T) {
	f := newSlotFixture(t)
	slot, err := f.svc.Create(context.Background(), f.owner.ID, createInput(9))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), f.owner.ID, slot.ID, model.SlotStatusSwappable)
	require.NoError(t, err)
	require.NoError(t, f.st.UpdateSlotStatus(context.Background(), slot.ID, model.SlotStatusSwapPending, model.SlotStatusSwappable))

	title := "Nope"
	_, err = f.svc.Update(context.Background(), f.owner.ID, slot.ID, service.UpdateSlotInput{Title: &title})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	err = f.svc.Delete(context.Background(), f.owner.ID, slot.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestSetStatusCannotEnterSwapPending(t *testing.T) {
	f := newSlotFixture(t)
	slot, err := f.svc.Create(context.Background(), f.owner.ID, createInput(9))
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), f.owner.ID, slot.ID, model.SlotStatusSwapPending)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	updated, err := f.svc.SetStatus(context.Background(), f.owner.ID, slot.ID, model.SlotStatusSwappable)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusSwappable, updated.Status)
}

func TestDeleteSlot(t *testing.T) {
	f := newSlotFixture(t)
	slot, err := f.svc.Create(context.Background(), f.owner.ID, createInput(9))
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), f.other.ID, slot.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, f.svc.Delete(context.Background(), f.owner.ID, slot.ID))

	err = f.svc.Delete(context.Background(), f.owner.ID, slot.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestMarketplaceListsOthersSwappableSlots(t *testing.T) {
	f := newSlotFixture(t)

	mine, err := f.svc.Create(context.Background(), f.owner.ID, createInput(9))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), f.owner.ID, mine.ID, model.SlotStatusSwappable)
	require.NoError(t, err)

	theirsLate, err := f.svc.Create(context.Background(), f.other.ID, createInput(15))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), f.other.ID, theirsLate.ID, model.SlotStatusSwappable)
	require.NoError(t, err)

	theirsEarly, err := f.svc.Create(context.Background(), f.other.ID, createInput(7))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), f.other.ID, theirsEarly.ID, model.SlotStatusSwappable)
	require.NoError(t, err)

	// Busy slots never show up.
	_, err = f.svc.Create(context.Background(), f.other.ID, createInput(12))
	require.NoError(t, err)

	listing, err := f.svc.Marketplace(context.Background(), f.owner.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, listing, 2)
	assert.Equal(t, theirsEarly.ID, listing[0].ID, "sorted by start time")
	assert.Equal(t, theirsLate.ID, listing[1].ID)

	from := testDay.Add(10 * time.Hour)
	ranged, err := f.svc.Marketplace(context.Background(), f.owner.ID, &from, nil)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, theirsLate.ID, ranged[0].ID)
}

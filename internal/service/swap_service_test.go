package service_test

import (
	"context"
	"errors"
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

var testDay = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, st *memory.Store, name, email string) *model.User {
	t.Helper()
	user := &model.User{
		ID:           uuid.New(),
		FullName:     name,
		Email:        email,
		PasswordHash: "x",
	}
	require.NoError(t, st.CreateUser(context.Background(), user))
	return user
}

func seedSlot(t *testing.T, st *memory.Store, owner uuid.UUID, title string, hour int, status model.SlotStatus) *model.Slot {
	t.Helper()
	slot := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     title,
		StartTime: testDay.Add(time.Duration(hour) * time.Hour),
		EndTime:   testDay.Add(time.Duration(hour+1) * time.Hour),
		Status:    status,
	}
	require.NoError(t, st.CreateSlot(context.Background(), slot))
	return slot
}

func getSlot(t *testing.T, st *memory.Store, id uuid.UUID) *model.Slot {
	t.Helper()
	slot, err := st.GetSlot(context.Background(), id)
	require.NoError(t, err)
	return slot
}

func getRequest(t *testing.T, st *memory.Store, id uuid.UUID) *model.SwapRequest {
	t.Helper()
	req, err := st.GetSwapRequest(context.Background(), id)
	require.NoError(t, err)
	return req
}

type swapFixture struct {
	st    *memory.Store
	svc   *service.SwapService
	alice *model.User
	bob   *model.User
	slotA *model.Slot // alice, SWAPPABLE
	slotB *model.Slot // bob, SWAPPABLE
}

func newSwapFixture(t *testing.T) *swapFixture {
	t.Helper()
	st := memory.New()
	f := &swapFixture{
		st:    st,
		svc:   service.NewSwapService(st, zap.NewNop()),
		alice: seedUser(t, st, "Alice Park", "alice@example.com"),
		bob:   seedUser(t, st, "Bob Tran", "bob@example.com"),
	}
	f.slotA = seedSlot(t, st, f.alice.ID, "Morning shift", 9, model.SlotStatusSwappable)
	f.slotB = seedSlot(t, st, f.bob.ID, "Evening shift", 18, model.SlotStatusSwappable)
	return f
}

func (f *swapFixture) propose(t *testing.T) *model.SwapRequest {
	t.Helper()
	req, err := f.svc.Propose(context.Background(), f.alice.ID, f.slotA.ID, f.slotB.ID)
	require.NoError(t, err)
	return req
}

// errInjected simulates an infrastructure failure inside a transaction.
var errInjected = errors.New("injected store failure")

// faultStore makes one named Tx operation fail after a configurable number
// of successful calls, so every write phase can be interrupted midway.
type faultStore struct {
	store.Store
	failOn  string
	allowed int
}

func (f *faultStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return f.Store.InTx(ctx, func(tx store.Tx) error {
		return fn(&faultTx{Tx: tx, f: f})
	})
}

type faultTx struct {
	store.Tx
	f *faultStore
}

func (t *faultTx) maybeFail(op string) error {
	if t.f.failOn != op {
		return nil
	}
	if t.f.allowed > 0 {
		t.f.allowed--
		return nil
	}
	return errInjected
}

func (t *faultTx) CreateSwapRequest(ctx context.Context, req *model.SwapRequest) error {
	if err := t.maybeFail("CreateSwapRequest"); err != nil {
		return err
	}
	return t.Tx.CreateSwapRequest(ctx, req)
}

func (t *faultTx) UpdateSlotStatus(ctx context.Context, id uuid.UUID, next, expected model.SlotStatus) error {
	if err := t.maybeFail("UpdateSlotStatus"); err != nil {
		return err
	}
	return t.Tx.UpdateSlotStatus(ctx, id, next, expected)
}

func (t *faultTx) UpdateSwapRequestStatus(ctx context.Context, id uuid.UUID, next, expected model.SwapStatus) error {
	if err := t.maybeFail("UpdateSwapRequestStatus"); err != nil {
		return err
	}
	return t.Tx.UpdateSwapRequestStatus(ctx, id, next, expected)
}

func TestProposeMarksBothSlotsPending(t *testing.T) {
	f := newSwapFixture(t)

	req := f.propose(t)

	assert.Equal(t, model.SwapStatusPending, req.Status)
	assert.Equal(t, f.alice.ID, req.RequesterID)
	assert.Equal(t, f.bob.ID, req.RecipientID)
	assert.Equal(t, f.slotA.ID, req.MySlotID)
	assert.Equal(t, f.slotB.ID, req.TheirSlotID)

	assert.Equal(t, model.SlotStatusSwapPending, getSlot(t, f.st, f.slotA.ID).Status)
	assert.Equal(t, model.SlotStatusSwapPending, getSlot(t, f.st, f.slotB.ID).Status)
}

func TestProposeUnknownSlot(t *testing.T) {
	f := newSwapFixture(t)

	_, err := f.svc.Propose(context.Background(), f.alice.ID, uuid.New(), f.slotB.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.svc.Propose(context.Background(), f.alice.ID, f.slotA.ID, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, f.slotA.ID).Status)
	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, f.slotB.ID).Status)
}

func TestProposeNotOwnerOfOfferedSlot(t *testing.T) {
	f := newSwapFixture(t)

	// Alice offers Bob's slot.
	_, err := f.svc.Propose(context.Background(), f.alice.ID, f.slotB.ID, f.slotA.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, f.slotA.ID).Status)
	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, f.slotB.ID).Status)
}

func TestProposeWithOwnSlotRejected(t *testing.T) {
	f := newSwapFixture(t)
	slotC := seedSlot(t, f.st, f.alice.ID, "Afternoon shift", 14, model.SlotStatusSwappable)

	_, err := f.svc.Propose(context.Background(), f.alice.ID, f.slotA.ID, slotC.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, f.slotA.ID).Status)
	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, slotC.ID).Status)
}

func TestProposeRequiresSwappableSlots(t *testing.T) {
	f := newSwapFixture(t)
	busy := seedSlot(t, f.st, f.bob.ID, "Standup", 8, model.SlotStatusBusy)

	_, err := f.svc.Propose(context.Background(), f.alice.ID, f.slotA.ID, busy.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, f.slotA.ID).Status)
}

func TestProposeRejectsSlotAlreadyPending(t *testing.T) {
	f := newSwapFixture(t)
	f.propose(t)

	carol := seedUser(t, f.st, "Carol Webb", "carol@example.com")
	slotD := seedSlot(t, f.st, carol.ID, "Night shift", 22, model.SlotStatusSwappable)

	// slotB is already held by the first proposal.
	_, err := f.svc.Propose(context.Background(), carol.ID, slotD.ID, f.slotB.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, slotD.ID).Status)
}

func TestProposeStoreFaultLeavesNoTrace(t *testing.T) {
	f := newSwapFixture(t)

	// Fail on the second slot write: the request row and the first slot
	// write must both be rolled back.
	faulty := &faultStore{Store: f.st, failOn: "UpdateSlotStatus", allowed: 1}
	svc := service.NewSwapService(faulty, zap.NewNop())

	_, err := svc.Propose(context.Background(), f.alice.ID, f.slotA.ID, f.slotB.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))

	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, f.slotA.ID).Status)
	assert.Equal(t, model.SlotStatusSwappable, getSlot(t, f.st, f.slotB.ID).Status)

	outgoing, err := f.st.ListOutgoingRequests(context.Background(), f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, outgoing)
}

func TestRespondAcceptExchangesOwnership(t *testing.T) {
	f := newSwapFixture(t)
	req := f.propose(t)

	resolved, err := f.svc.Respond(context.Background(), f.bob.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusAccepted, resolved.Status)

	slotA := getSlot(t, f.st, f.slotA.ID)
	slotB := getSlot(t, f.st, f.slotB.ID)
	assert.Equal(t, f.bob.ID, slotA.OwnerID)
	assert.Equal(t, f.alice.ID, slotB.OwnerID)
	assert.Equal(t, model.SlotStatusBusy, slotA.Status)
	assert.Equal(t, model.SlotStatusBusy, slotB.Status)
	assert.Equal(t, model.SwapStatusAccepted, getRequest(t, f.st, req.ID).Status)
}

func TestRespondRejectRestoresAvailability(t *testing.T) {
	f := newSwapFixture(t)
	req := f.propose(t)

	resolved, err := f.svc.Respond(context.Background(), f.bob.ID, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusRejected, resolved.Status)

	slotA := getSlot(t, f.st, f.slotA.ID)
	slotB := getSlot(t, f.st, f.slotB.ID)
	assert.Equal(t, f.alice.ID, slotA.OwnerID)
	assert.Equal(t, f.bob.ID, slotB.OwnerID)
	assert.Equal(t, model.SlotStatusSwappable, slotA.Status)
	assert.Equal(t, model.SlotStatusSwappable, slotB.Status)
	assert.Equal(t, model.SwapStatusRejected, getRequest(t, f.st, req.ID).Status)
}

func TestRespondUnknownRequest(t *testing.T) {
	f := newSwapFixture(t)

	_, err := f.svc.Respond(context.Background(), f.bob.ID, uuid.New(), true)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRespondRequesterMayNotResolve(t *testing.T) {
	f := newSwapFixture(t)
	req := f.propose(t)

	_, err := f.svc.Respond(context.Background(), f.alice.ID, req.ID, true)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	assert.Equal(t, model.SwapStatusPending, getRequest(t, f.st, req.ID).Status)
	assert.Equal(t, model.SlotStatusSwapPending, getSlot(t, f.st, f.slotA.ID).Status)
}

func TestRespondTerminalRequestIsIdempotentFailure(t *testing.T) {
	f := newSwapFixture(t)
	req := f.propose(t)

	_, err := f.svc.Respond(context.Background(), f.bob.ID, req.ID, true)
	require.NoError(t, err)

	slotA := getSlot(t, f.st, f.slotA.ID)

	// A second response fails the same way no matter which answer it carries.
	for _, accept := range []bool{true, false} {
		_, err := f.svc.Respond(context.Background(), f.bob.ID, req.ID, accept)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	}

	assert.Equal(t, model.SwapStatusAccepted, getRequest(t, f.st, req.ID).Status)
	assert.Equal(t, slotA.OwnerID, getSlot(t, f.st, f.slotA.ID).OwnerID)
}

func TestRespondAbortsWhenSlotMutatedExternally(t *testing.T) {
	f := newSwapFixture(t)
	req := f.propose(t)

	// Something outside the engine yanked the slot out of SWAP_PENDING.
	hijacked := getSlot(t, f.st, f.slotA.ID)
	hijacked.Status = model.SlotStatusBusy
	require.NoError(t, f.st.UpdateSlot(context.Background(), hijacked))

	for _, accept := range []bool{true, false} {
		_, err := f.svc.Respond(context.Background(), f.bob.ID, req.ID, accept)
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	}

	// The ledger stays PENDING and the untouched slot stays held.
	assert.Equal(t, model.SwapStatusPending, getRequest(t, f.st, req.ID).Status)
	assert.Equal(t, model.SlotStatusSwapPending, getSlot(t, f.st, f.slotB.ID).Status)
}

func TestRespondStoreFaultKeepsPendingSnapshot(t *testing.T) {
	f := newSwapFixture(t)
	req := f.propose(t)

	// Both slot transfers succeed, then the ledger write fails: everything
	// must roll back to the pre-transition snapshot.
	faulty := &faultStore{Store: f.st, failOn: "UpdateSwapRequestStatus"}
	svc := service.NewSwapService(faulty, zap.NewNop())

	_, err := svc.Respond(context.Background(), f.bob.ID, req.ID, true)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))

	slotA := getSlot(t, f.st, f.slotA.ID)
	slotB := getSlot(t, f.st, f.slotB.ID)
	assert.Equal(t, f.alice.ID, slotA.OwnerID)
	assert.Equal(t, f.bob.ID, slotB.OwnerID)
	assert.Equal(t, model.SlotStatusSwapPending, slotA.Status)
	assert.Equal(t, model.SlotStatusSwapPending, slotB.Status)
	assert.Equal(t, model.SwapStatusPending, getRequest(t, f.st, req.ID).Status)
}

func TestListIncomingPendingNewestFirst(t *testing.T) {
	f := newSwapFixture(t)
	carol := seedUser(t, f.st, "Carol Webb", "carol@example.com")
	bobSecond := seedSlot(t, f.st, f.bob.ID, "Late shift", 20, model.SlotStatusSwappable)
	carolSlot := seedSlot(t, f.st, carol.ID, "Early shift", 6, model.SlotStatusSwappable)

	first := f.propose(t)
	second, err := f.svc.Propose(context.Background(), carol.ID, carolSlot.ID, bobSecond.ID)
	require.NoError(t, err)

	incoming, err := f.svc.ListIncoming(context.Background(), f.bob.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 2)
	assert.Equal(t, second.ID, incoming[0].ID)
	assert.Equal(t, first.ID, incoming[1].ID)

	// Views arrive resolved.
	require.NotNil(t, incoming[0].Requester)
	assert.Equal(t, carol.FullName, incoming[0].Requester.FullName)
	require.NotNil(t, incoming[0].MySlot)
	require.NotNil(t, incoming[0].TheirSlot)

	// Resolved requests drop out of the incoming list.
	_, err = f.svc.Respond(context.Background(), f.bob.ID, second.ID, false)
	require.NoError(t, err)

	incoming, err = f.svc.ListIncoming(context.Background(), f.bob.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, first.ID, incoming[0].ID)
}

func TestListOutgoingIncludesResolved(t *testing.T) {
	f := newSwapFixture(t)
	bobSecond := seedSlot(t, f.st, f.bob.ID, "Late shift", 20, model.SlotStatusSwappable)
	aliceSecond := seedSlot(t, f.st, f.alice.ID, "Lunch cover", 12, model.SlotStatusSwappable)

	first := f.propose(t)
	_, err := f.svc.Respond(context.Background(), f.bob.ID, first.ID, false)
	require.NoError(t, err)

	second, err := f.svc.Propose(context.Background(), f.alice.ID, aliceSecond.ID, bobSecond.ID)
	require.NoError(t, err)

	outgoing, err := f.svc.ListOutgoing(context.Background(), f.alice.ID)
	require.NoError(t, err)
	require.Len(t, outgoing, 2)
	assert.Equal(t, second.ID, outgoing[0].ID)
	assert.Equal(t, model.SwapStatusPending, outgoing[0].Status)
	assert.Equal(t, first.ID, outgoing[1].ID)
	assert.Equal(t, model.SwapStatusRejected, outgoing[1].Status)

	require.NotNil(t, outgoing[0].Recipient)
	assert.Equal(t, f.bob.FullName, outgoing[0].Recipient.FullName)

	// Nothing outgoing for the recipient side.
	bobOutgoing, err := f.svc.ListOutgoing(context.Background(), f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobOutgoing)
}

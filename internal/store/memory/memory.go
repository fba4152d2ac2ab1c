// Package memory implements store.Store with mutex-guarded maps. It backs
// the service tests and doubles as a throwaway dev backend. InTx snapshots
// the maps up front and restores them when the callback fails, which gives
// the same abort-discards-writes contract the postgres store gets from a
// database transaction.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"slotswap/internal/model"
	"slotswap/internal/store"
)

type state struct {
	slots    map[uuid.UUID]model.Slot
	requests map[uuid.UUID]model.SwapRequest
	users    map[uuid.UUID]model.User
	// reqSeq preserves creation order so newest-first listings are stable
	// even when two requests share a timestamp.
	reqSeq  map[uuid.UUID]uint64
	nextSeq uint64
}

func newState() *state {
	return &state{
		slots:    make(map[uuid.UUID]model.Slot),
		requests: make(map[uuid.UUID]model.SwapRequest),
		users:    make(map[uuid.UUID]model.User),
		reqSeq:   make(map[uuid.UUID]uint64),
	}
}

func (st *state) clone() *state {
	c := newState()
	for id, s := range st.slots {
		c.slots[id] = s
	}
	for id, r := range st.requests {
		c.requests[id] = r
	}
	for id, u := range st.users {
		c.users[id] = u
	}
	for id, seq := range st.reqSeq {
		c.reqSeq[id] = seq
	}
	c.nextSeq = st.nextSeq
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// InTx runs fn against the live state under the lock; if fn fails the
// pre-transaction snapshot is restored and no write survives.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(s.st); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetSlot(ctx, id)
}

func (s *Store) UpdateSlotStatus(ctx context.Context, id uuid.UUID, next, expected model.SlotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateSlotStatus(ctx, id, next, expected)
}

func (s *Store) UpdateSlotOwnerAndStatus(ctx context.Context, id, newOwner uuid.UUID, next, expected model.SlotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateSlotOwnerAndStatus(ctx, id, newOwner, next, expected)
}

func (s *Store) CreateSwapRequest(ctx context.Context, req *model.SwapRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateSwapRequest(ctx, req)
}

func (s *Store) GetSwapRequest(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetSwapRequest(ctx, id)
}

func (s *Store) UpdateSwapRequestStatus(ctx context.Context, id uuid.UUID, next, expected model.SwapStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateSwapRequestStatus(ctx, id, next, expected)
}

func (s *Store) CreateSlot(ctx context.Context, slot *model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.slots[slot.ID]; ok {
		return fmt.Errorf("create slot %s: %w", slot.ID, store.ErrDuplicate)
	}
	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	s.st.slots[slot.ID] = *slot
	return nil
}

func (s *Store) UpdateSlot(ctx context.Context, slot *model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.st.slots[slot.ID]
	if !ok {
		return fmt.Errorf("update slot %s: %w", slot.ID, store.ErrNotFound)
	}
	slot.CreatedAt = current.CreatedAt
	slot.UpdatedAt = time.Now()
	s.st.slots[slot.ID] = *slot
	return nil
}

func (s *Store) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.slots[id]; !ok {
		return fmt.Errorf("delete slot %s: %w", id, store.ErrNotFound)
	}
	delete(s.st.slots, id)
	return nil
}

func (s *Store) ListSlotsByOwner(ctx context.Context, ownerID uuid.UUID, filter store.SlotFilter) ([]*model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slots []*model.Slot
	for _, slot := range s.st.slots {
		if slot.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && slot.Status != *filter.Status {
			continue
		}
		if filter.From != nil && slot.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && slot.StartTime.After(*filter.To) {
			continue
		}
		cp := slot
		slots = append(slots, &cp)
	}
	sortSlotsByStart(slots)
	return slots, nil
}

func (s *Store) ListSwappableSlots(ctx context.Context, exceptOwner uuid.UUID, from, to *time.Time) ([]*model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slots []*model.Slot
	for _, slot := range s.st.slots {
		if slot.Status != model.SlotStatusSwappable || slot.OwnerID == exceptOwner {
			continue
		}
		if from != nil && slot.StartTime.Before(*from) {
			continue
		}
		if to != nil && slot.StartTime.After(*to) {
			continue
		}
		cp := slot
		slots = append(slots, &cp)
	}
	sortSlotsByStart(slots)
	return slots, nil
}

func (s *Store) FindOverlappingSlots(ctx context.Context, ownerID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slots []*model.Slot
	for _, slot := range s.st.slots {
		if slot.OwnerID != ownerID || slot.ID == exclude {
			continue
		}
		if !slot.Overlaps(start, end) {
			continue
		}
		cp := slot
		slots = append(slots, &cp)
	}
	sortSlotsByStart(slots)
	return slots, nil
}

func (s *Store) ListIncomingRequests(ctx context.Context, recipientID uuid.UUID) ([]*model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.st.listRequests(func(r model.SwapRequest) bool {
		return r.RecipientID == recipientID && r.Status == model.SwapStatusPending
	}), nil
}

func (s *Store) ListOutgoingRequests(ctx context.Context, requesterID uuid.UUID) ([]*model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.st.listRequests(func(r model.SwapRequest) bool {
		return r.RequesterID == requesterID
	}), nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.st.users {
		if existing.Email == user.Email {
			return fmt.Errorf("create user %s: %w", user.Email, store.ErrDuplicate)
		}
	}
	user.CreatedAt = time.Now()
	s.st.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.st.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", id, store.ErrNotFound)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.st.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user %s: %w", email, store.ErrNotFound)
}

// state implements store.Tx. Callers hold the Store lock.

func (st *state) GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, ok := st.slots[id]
	if !ok {
		return nil, fmt.Errorf("get slot %s: %w", id, store.ErrNotFound)
	}
	return &slot, nil
}

func (st *state) UpdateSlotStatus(ctx context.Context, id uuid.UUID, next, expected model.SlotStatus) error {
	slot, ok := st.slots[id]
	if !ok {
		return fmt.Errorf("get slot %s: %w", id, store.ErrNotFound)
	}
	if slot.Status != expected {
		return fmt.Errorf("update slot %s status: %w", id, store.ErrStale)
	}
	slot.Status = next
	slot.UpdatedAt = time.Now()
	st.slots[id] = slot
	return nil
}

func (st *state) UpdateSlotOwnerAndStatus(ctx context.Context, id, newOwner uuid.UUID, next, expected model.SlotStatus) error {
	slot, ok := st.slots[id]
	if !ok {
		return fmt.Errorf("get slot %s: %w", id, store.ErrNotFound)
	}
	if slot.Status != expected {
		return fmt.Errorf("update slot %s owner: %w", id, store.ErrStale)
	}
	slot.OwnerID = newOwner
	slot.Status = next
	slot.UpdatedAt = time.Now()
	st.slots[id] = slot
	return nil
}

func (st *state) CreateSwapRequest(ctx context.Context, req *model.SwapRequest) error {
	if _, ok := st.requests[req.ID]; ok {
		return fmt.Errorf("create swap request %s: %w", req.ID, store.ErrDuplicate)
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	st.requests[req.ID] = *req
	st.nextSeq++
	st.reqSeq[req.ID] = st.nextSeq
	return nil
}

func (st *state) GetSwapRequest(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	req, ok := st.requests[id]
	if !ok {
		return nil, fmt.Errorf("get swap request %s: %w", id, store.ErrNotFound)
	}
	return &req, nil
}

func (st *state) UpdateSwapRequestStatus(ctx context.Context, id uuid.UUID, next, expected model.SwapStatus) error {
	req, ok := st.requests[id]
	if !ok {
		return fmt.Errorf("get swap request %s: %w", id, store.ErrNotFound)
	}
	if req.Status != expected {
		return fmt.Errorf("update swap request %s status: %w", id, store.ErrStale)
	}
	req.Status = next
	req.UpdatedAt = time.Now()
	st.requests[id] = req
	return nil
}

func (st *state) listRequests(match func(model.SwapRequest) bool) []*model.SwapRequest {
	var requests []*model.SwapRequest
	for _, req := range st.requests {
		if !match(req) {
			continue
		}
		r := req
		st.resolve(&r)
		requests = append(requests, &r)
	}
	sort.Slice(requests, func(i, j int) bool {
		return st.reqSeq[requests[i].ID] > st.reqSeq[requests[j].ID]
	})
	return requests
}

func (st *state) resolve(req *model.SwapRequest) {
	if u, ok := st.users[req.RequesterID]; ok {
		req.Requester = u.Summary()
	}
	if u, ok := st.users[req.RecipientID]; ok {
		req.Recipient = u.Summary()
	}
	if slot, ok := st.slots[req.MySlotID]; ok {
		s := slot
		req.MySlot = &s
	}
	if slot, ok := st.slots[req.TheirSlotID]; ok {
		s := slot
		req.TheirSlot = &s
	}
}

func sortSlotsByStart(slots []*model.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"slotswap/internal/model"
	"slotswap/internal/store"
)

// CreateSwapRequest inserts a new ledger entry.
func (s *Store) CreateSwapRequest(ctx context.Context, req *model.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (id, requester_id, recipient_id, my_slot_id, their_slot_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx, query,
		req.ID,
		req.RequesterID,
		req.RecipientID,
		req.MySlotID,
		req.TheirSlotID,
		req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}

	return nil
}

// GetSwapRequest fetches a ledger entry by id.
func (s *Store) GetSwapRequest(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := `
		SELECT id, requester_id, recipient_id, my_slot_id, their_slot_id, status, created_at, updated_at
		FROM swap_requests
		WHERE id = $1
	`

	var req model.SwapRequest
	err := s.db.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.RequesterID,
		&req.RecipientID,
		&req.MySlotID,
		&req.TheirSlotID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get swap request %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get swap request: %w", err)
	}

	return &req, nil
}

// UpdateSwapRequestStatus resolves a ledger entry only if it still is in
// expected. The guard is what makes two concurrent resolutions safe: the
// loser updates zero rows and gets ErrStale.
func (s *Store) UpdateSwapRequestStatus(ctx context.Context, id uuid.UUID, next, expected model.SwapStatus) error {
	query := `
		UPDATE swap_requests
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`

	tag, err := s.db.Exec(ctx, query, next, id, expected)
	if err != nil {
		return fmt.Errorf("update swap request status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := s.GetSwapRequest(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("update swap request %s status: %w", id, store.ErrStale)
	}

	return nil
}

// requestViewQuery resolves both principals and both slots in one round trip.
const requestViewQuery = `
	SELECT sr.id, sr.requester_id, sr.recipient_id, sr.my_slot_id, sr.their_slot_id,
	       sr.status, sr.created_at, sr.updated_at,
	       rq.id, rq.full_name, rq.email,
	       rc.id, rc.full_name, rc.email,
	       ms.id, ms.owner_id, ms.title, ms.start_time, ms.end_time, ms.status, ms.created_at, ms.updated_at,
	       ts.id, ts.owner_id, ts.title, ts.start_time, ts.end_time, ts.status, ts.created_at, ts.updated_at
	FROM swap_requests sr
	JOIN users rq ON rq.id = sr.requester_id
	JOIN users rc ON rc.id = sr.recipient_id
	JOIN slots ms ON ms.id = sr.my_slot_id
	JOIN slots ts ON ts.id = sr.their_slot_id
`

// ListIncomingRequests returns pending requests addressed to the recipient,
// newest first.
func (s *Store) ListIncomingRequests(ctx context.Context, recipientID uuid.UUID) ([]*model.SwapRequest, error) {
	query := requestViewQuery + `
	WHERE sr.recipient_id = $1 AND sr.status = $2
	ORDER BY sr.created_at DESC
	`

	return s.queryRequestViews(ctx, query, recipientID, model.SwapStatusPending)
}

// ListOutgoingRequests returns every request made by the requester, newest first.
func (s *Store) ListOutgoingRequests(ctx context.Context, requesterID uuid.UUID) ([]*model.SwapRequest, error) {
	query := requestViewQuery + `
	WHERE sr.requester_id = $1
	ORDER BY sr.created_at DESC
	`

	return s.queryRequestViews(ctx, query, requesterID)
}

func (s *Store) queryRequestViews(ctx context.Context, query string, args ...any) ([]*model.SwapRequest, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query swap requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.SwapRequest
	for rows.Next() {
		var (
			req               model.SwapRequest
			requester         model.User
			recipient         model.User
			mySlot, theirSlot model.Slot
		)
		err := rows.Scan(
			&req.ID, &req.RequesterID, &req.RecipientID, &req.MySlotID, &req.TheirSlotID,
			&req.Status, &req.CreatedAt, &req.UpdatedAt,
			&requester.ID, &requester.FullName, &requester.Email,
			&recipient.ID, &recipient.FullName, &recipient.Email,
			&mySlot.ID, &mySlot.OwnerID, &mySlot.Title, &mySlot.StartTime, &mySlot.EndTime, &mySlot.Status, &mySlot.CreatedAt, &mySlot.UpdatedAt,
			&theirSlot.ID, &theirSlot.OwnerID, &theirSlot.Title, &theirSlot.StartTime, &theirSlot.EndTime, &theirSlot.Status, &theirSlot.CreatedAt, &theirSlot.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}

		req.Requester = &requester
		req.Recipient = &recipient
		req.MySlot = &mySlot
		req.TheirSlot = &theirSlot
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap requests: %w", err)
	}

	return requests, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"slotswap/internal/model"
	"slotswap/internal/store"
)

const slotColumns = `id, owner_id, title, start_time, end_time, status, created_at, updated_at`

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.Title,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// CreateSlot inserts a new slot and fills in the generated timestamps.
func (s *Store) CreateSlot(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (id, owner_id, title, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx, query,
		slot.ID,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetSlot fetches a slot by id.
func (s *Store) GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get slot %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}

	return slot, nil
}

// UpdateSlot rewrites the slot's mutable fields unconditionally. Reserved
// for calendar edits; swap transitions go through the conditional updates.
func (s *Store) UpdateSlot(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET title = $1, start_time = $2, end_time = $3, status = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`

	err := s.db.QueryRow(
		ctx, query,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.ID,
	).Scan(&slot.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update slot %s: %w", slot.ID, store.ErrNotFound)
		}
		return fmt.Errorf("update slot: %w", err)
	}

	return nil
}

// UpdateSlotStatus moves a slot to next only if it currently is in expected.
func (s *Store) UpdateSlotStatus(ctx context.Context, id uuid.UUID, next, expected model.SlotStatus) error {
	query := `
		UPDATE slots
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`

	tag, err := s.db.Exec(ctx, query, next, id, expected)
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := s.GetSlot(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("update slot %s status: %w", id, store.ErrStale)
	}

	return nil
}

// UpdateSlotOwnerAndStatus transfers ownership and moves the slot to next,
// only if it currently is in expected.
func (s *Store) UpdateSlotOwnerAndStatus(ctx context.Context, id, newOwner uuid.UUID, next, expected model.SlotStatus) error {
	query := `
		UPDATE slots
		SET owner_id = $1, status = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`

	tag, err := s.db.Exec(ctx, query, newOwner, next, id, expected)
	if err != nil {
		return fmt.Errorf("update slot owner: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := s.GetSlot(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("update slot %s owner: %w", id, store.ErrStale)
	}

	return nil
}

// DeleteSlot removes a slot.
func (s *Store) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete slot %s: %w", id, store.ErrNotFound)
	}

	return nil
}

// ListSlotsByOwner returns the owner's slots ordered by start time.
func (s *Store) ListSlotsByOwner(ctx context.Context, ownerID uuid.UUID, filter store.SlotFilter) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE owner_id = $1`
	args := []any{ownerID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND start_time <= $%d", len(args))
	}
	query += " ORDER BY start_time"

	return s.querySlots(ctx, query, args...)
}

// ListSwappableSlots returns other users' SWAPPABLE slots ordered by start time.
func (s *Store) ListSwappableSlots(ctx context.Context, exceptOwner uuid.UUID, from, to *time.Time) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE status = $1 AND owner_id <> $2`
	args := []any{model.SlotStatusSwappable, exceptOwner}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND start_time <= $%d", len(args))
	}
	query += " ORDER BY start_time"

	return s.querySlots(ctx, query, args...)
}

// FindOverlappingSlots returns the owner's slots intersecting [start, end).
func (s *Store) FindOverlappingSlots(ctx context.Context, ownerID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE owner_id = $1
		  AND id <> $2
		  AND start_time < $3
		  AND end_time > $4
		ORDER BY start_time
	`

	return s.querySlots(ctx, query, ownerID, exclude, end, start)
}

func (s *Store) querySlots(ctx context.Context, query string, args ...any) ([]*model.Slot, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

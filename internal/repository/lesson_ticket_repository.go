package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aviary-labs/flightdesk/internal/model"
)

type LessonTicketRepository struct {
	pool *pgxpool.Pool
}

func NewLessonTicketRepository(pool *pgxpool.Pool) *LessonTicketRepository {
	return &LessonTicketRepository{pool: pool}
}

const lessonTicketColumns = `
	id, ticket_number, lesson_request_id, cfi_id, status,
	hobbs_in, hobbs_out, notes, created_at, updated_at
`

func scanLessonTicket(row pgx.Row) (*model.LessonTicket, error) {
	var (
		ticket   model.LessonTicket
		hobbsIn  decimal.NullDecimal
		hobbsOut decimal.NullDecimal
	)
	err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.LessonRequestID,
		&ticket.CFIID,
		&ticket.Status,
		&hobbsIn,
		&hobbsOut,
		&ticket.Notes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hobbsIn.Valid {
		ticket.HobbsIn = &hobbsIn.Decimal
	}
	if hobbsOut.Valid {
		ticket.HobbsOut = &hobbsOut.Decimal
	}
	return &ticket, nil
}

// GetByID returns a ticket, or nil when none exists.
func (r *LessonTicketRepository) GetByID(ctx context.Context, id string) (*model.LessonTicket, error) {
	query := `SELECT ` + lessonTicketColumns + ` FROM lesson_tickets WHERE id = $1`

	ticket, err := scanLessonTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket by id: %w", err)
	}
	return ticket, nil
}

// GetByRequestID returns the ticket shadowing a lesson request, or nil.
func (r *LessonTicketRepository) GetByRequestID(ctx context.Context, requestID string) (*model.LessonTicket, error) {
	query := `SELECT ` + lessonTicketColumns + ` FROM lesson_tickets WHERE lesson_request_id = $1`

	ticket, err := scanLessonTicket(r.pool.QueryRow(ctx, query, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket by request id: %w", err)
	}
	return ticket, nil
}

// ListByCFI returns a CFI's tickets, newest first, optionally filtered
// by status.
func (r *LessonTicketRepository) ListByCFI(ctx context.Context, cfiID string, status *model.TicketStatus) ([]*model.LessonTicket, error) {
	query := `SELECT ` + lessonTicketColumns + `
		FROM lesson_tickets
		WHERE cfi_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, cfiID, status)
	if err != nil {
		return nil, fmt.Errorf("list tickets by cfi: %w", err)
	}
	defer rows.Close()

	var tickets []*model.LessonTicket
	for rows.Next() {
		ticket, err := scanLessonTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// Advance moves a ticket to target and the linked request to the
// matching status in one transaction. The request update is guarded on
// the status the ticket's current state implies, so a request that was
// concurrently moved elsewhere (e.g. into student_reviewing) fails the
// guard and rolls the whole advance back.
func (r *LessonTicketRepository) Advance(ctx context.Context, id string, target model.TicketStatus) error {
	return r.advance(ctx, id, target, nil, nil, "")
}

// Complete moves an in_progress ticket to completed together with its
// flight log.
func (r *LessonTicketRepository) Complete(ctx context.Context, id string, hobbsIn, hobbsOut decimal.Decimal, notes string) error {
	return r.advance(ctx, id, model.TicketStatusCompleted, &hobbsIn, &hobbsOut, notes)
}

func (r *LessonTicketRepository) advance(ctx context.Context, id string, target model.TicketStatus, hobbsIn, hobbsOut *decimal.Decimal, notes string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		current   model.TicketStatus
		requestID string
	)
	err = tx.QueryRow(ctx, `
		SELECT status, lesson_request_id
		FROM lesson_tickets
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&current, &requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock ticket: %w", err)
	}
	if !current.CanTransitionTo(target) {
		return ErrStaleStatus
	}

	_, err = tx.Exec(ctx, `
		UPDATE lesson_tickets
		SET status = $2,
		    hobbs_in = COALESCE($3, hobbs_in),
		    hobbs_out = COALESCE($4, hobbs_out),
		    notes = CASE WHEN $5 = '' THEN notes ELSE $5 END,
		    updated_at = now()
		WHERE id = $1
	`, id, target, hobbsIn, hobbsOut, notes)
	if err != nil {
		return fmt.Errorf("advance ticket: %w", err)
	}

	var reservedSlotID *int64
	err = tx.QueryRow(ctx, `
		UPDATE lesson_requests
		SET status = $2,
		    rejected_at = CASE WHEN $2 = 'rejected' THEN now() ELSE rejected_at END,
		    updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING reserved_slot_id
	`, requestID, target.RequestStatus(), current.RequestStatus()).Scan(&reservedSlotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("request %s diverged from ticket %s: %w", requestID, id, ErrStaleStatus)
	}
	if err != nil {
		return fmt.Errorf("advance request: %w", err)
	}

	// Rejection is terminal for the request; free the slot hold it took
	// at assignment, if any.
	if target == model.TicketStatusRejected && reservedSlotID != nil {
		if err := releaseSlotTx(ctx, tx, *reservedSlotID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE lesson_requests SET reserved_slot_id = NULL WHERE id = $1`, requestID); err != nil {
			return fmt.Errorf("clear slot hold: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

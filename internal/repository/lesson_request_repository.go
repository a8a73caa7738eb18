package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aviary-labs/flightdesk/internal/model"
)

// LessonRequestRepository owns lesson_requests and keeps the shadow
// lesson_tickets row synchronized. Every lifecycle write that touches
// both tables runs in a single transaction; single-table transitions use
// a status-guarded UPDATE so a concurrent transition by another actor
// surfaces as ErrStaleStatus instead of a silent overwrite.
type LessonRequestRepository struct {
	pool *pgxpool.Pool
}

func NewLessonRequestRepository(pool *pgxpool.Pool) *LessonRequestRepository {
	return &LessonRequestRepository{pool: pool}
}

const lessonRequestColumns = `
	id, student_id, cfi_id, aircraft_id,
	to_char(requested_date, 'YYYY-MM-DD'),
	to_char(requested_start_time, 'HH24:MI'),
	to_char(requested_end_time, 'HH24:MI'),
	to_char(modified_date, 'YYYY-MM-DD'),
	to_char(modified_start_time, 'HH24:MI'),
	to_char(modified_end_time, 'HH24:MI'),
	modified_cfi_id, modified_aircraft_id,
	reserved_slot_id,
	status, student_message, cfi_message,
	approved_at, rejected_at, created_at, updated_at
`

func scanLessonRequest(row pgx.Row) (*model.LessonRequest, error) {
	var req model.LessonRequest
	err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.CFIID,
		&req.AircraftID,
		&req.RequestedDate,
		&req.RequestedStartTime,
		&req.RequestedEndTime,
		&req.ModifiedDate,
		&req.ModifiedStartTime,
		&req.ModifiedEndTime,
		&req.ModifiedCFIID,
		&req.ModifiedAircraftID,
		&req.ReservedSlotID,
		&req.Status,
		&req.StudentMessage,
		&req.CFIMessage,
		&req.ApprovedAt,
		&req.RejectedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classifyNoEffect resolves a guarded UPDATE that affected no rows into
// the right sentinel: the row is either gone or in another status.
func classifyNoEffect(ctx context.Context, q queryRower, id string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM lesson_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check request exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleStatus
}

// CreateWithTicket inserts a lesson request and its paired ticket in one
// transaction, so a ticket can never exist without its request or vice
// versa.
func (r *LessonRequestRepository) CreateWithTicket(ctx context.Context, req *model.LessonRequest, ticket *model.LessonTicket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO lesson_requests
			(id, student_id, cfi_id, aircraft_id,
			 requested_date, requested_start_time, requested_end_time,
			 status, student_message)
		VALUES ($1, $2, $3, $4, $5::date, $6::time, $7::time, $8, $9)
		RETURNING created_at, updated_at
	`,
		req.ID,
		req.StudentID,
		req.CFIID,
		req.AircraftID,
		req.RequestedDate,
		req.RequestedStartTime,
		req.RequestedEndTime,
		req.Status,
		req.StudentMessage,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("lesson request %s: %w", req.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create lesson request: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO lesson_tickets (id, ticket_number, lesson_request_id, cfi_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`,
		ticket.ID,
		ticket.TicketNumber,
		ticket.LessonRequestID,
		ticket.CFIID,
		ticket.Status,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("lesson ticket %s: %w", ticket.TicketNumber, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create lesson ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID returns a lesson request, or nil when none exists.
func (r *LessonRequestRepository) GetByID(ctx context.Context, id string) (*model.LessonRequest, error) {
	query := `SELECT ` + lessonRequestColumns + ` FROM lesson_requests WHERE id = $1`

	req, err := scanLessonRequest(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson request by id: %w", err)
	}
	return req, nil
}

// ListByStudent returns a student's requests, newest first.
func (r *LessonRequestRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.LessonRequest, error) {
	query := `SELECT ` + lessonRequestColumns + `
		FROM lesson_requests
		WHERE student_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list requests by student: %w", err)
	}
	defer rows.Close()

	var reqs []*model.LessonRequest
	for rows.Next() {
		req, err := scanLessonRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// Approve moves a pending or assigned request to accepted and stamps
// approved_at, advancing the shadow ticket in the same transaction.
func (r *LessonRequestRepository) Approve(ctx context.Context, id, cfiMessage string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE lesson_requests
		SET status = 'accepted', approved_at = now(), cfi_message = $2, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'assigned')
	`, id, cfiMessage)
	if err != nil {
		return fmt.Errorf("approve request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return classifyNoEffect(ctx, tx, id)
	}

	if err := syncTicketTx(ctx, tx, id, model.TicketStatusAccepted); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Reject moves a pending or assigned request to rejected, releases the
// slot hold this request took at assignment (if any), and advances the
// ticket — all in one transaction.
func (r *LessonRequestRepository) Reject(ctx context.Context, id, cfiMessage string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		status         model.LessonRequestStatus
		reservedSlotID *int64
	)
	err = tx.QueryRow(ctx, `
		SELECT status, reserved_slot_id
		FROM lesson_requests
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status, &reservedSlotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock request: %w", err)
	}
	if status != model.LessonStatusPending && status != model.LessonStatusAssigned {
		return ErrStaleStatus
	}

	_, err = tx.Exec(ctx, `
		UPDATE lesson_requests
		SET status = 'rejected', rejected_at = now(), cfi_message = $2,
		    reserved_slot_id = NULL, updated_at = now()
		WHERE id = $1
	`, id, cfiMessage)
	if err != nil {
		return fmt.Errorf("reject request: %w", err)
	}

	// Give back only the hold this request itself took. A request
	// assigned without an aircraft reservation holds nothing.
	if reservedSlotID != nil {
		if err := releaseSlotTx(ctx, tx, *reservedSlotID); err != nil {
			return err
		}
	}

	if err := syncTicketTx(ctx, tx, id, model.TicketStatusRejected); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ProposeModification moves a pending or assigned request to
// student_reviewing and records the counter-proposal. The ticket keeps
// its status: student review has no instructor-facing state.
func (r *LessonRequestRepository) ProposeModification(ctx context.Context, id string, mod model.Modification, cfiMessage string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lesson_requests
		SET status = 'student_reviewing',
		    modified_date = COALESCE($2::date, modified_date),
		    modified_start_time = COALESCE($3::time, modified_start_time),
		    modified_end_time = COALESCE($4::time, modified_end_time),
		    modified_cfi_id = COALESCE($5, modified_cfi_id),
		    modified_aircraft_id = COALESCE($6, modified_aircraft_id),
		    cfi_message = $7,
		    updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'assigned')
	`, id, mod.Date, mod.StartTime, mod.EndTime, mod.CFIID, mod.AircraftID, cfiMessage)
	if err != nil {
		return fmt.Errorf("propose modification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return classifyNoEffect(ctx, r.pool, id)
	}
	return nil
}

// ResolveReview settles a counter-proposal under student review. Accept
// moves the request to accepted; deny moves it to denied and releases
// the slot hold taken back when the request was assigned. The shadow
// ticket follows in the same transaction.
func (r *LessonRequestRepository) ResolveReview(ctx context.Context, id string, accept bool, studentMessage string) error {
	target := model.LessonStatusDenied
	if accept {
		target = model.LessonStatusAccepted
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		status         model.LessonRequestStatus
		reservedSlotID *int64
	)
	err = tx.QueryRow(ctx, `
		SELECT status, reserved_slot_id
		FROM lesson_requests
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status, &reservedSlotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock request: %w", err)
	}
	if status != model.LessonStatusStudentReviewing {
		return ErrStaleStatus
	}

	_, err = tx.Exec(ctx, `
		UPDATE lesson_requests
		SET status = $2,
		    student_message = $3,
		    approved_at = CASE WHEN $2 = 'accepted' THEN now() ELSE approved_at END,
		    reserved_slot_id = CASE WHEN $2 = 'denied' THEN NULL ELSE reserved_slot_id END,
		    updated_at = now()
		WHERE id = $1
	`, id, target, studentMessage)
	if err != nil {
		return fmt.Errorf("resolve review: %w", err)
	}

	// Denial is terminal; an accepted proposal keeps the hold for the
	// lesson itself.
	if !accept && reservedSlotID != nil {
		if err := releaseSlotTx(ctx, tx, *reservedSlotID); err != nil {
			return err
		}
	}

	if err := syncTicketTx(ctx, tx, id, model.TicketStatusForRequest(target)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AssignResources binds a CFI and/or aircraft to a pending request and
// moves it to assigned. When an aircraft is assigned its slot is
// reserved with an atomic conditional upsert in the same transaction; a
// lost slot race rolls everything back, so a half-assigned state can
// never be observed.
func (r *LessonRequestRepository) AssignResources(ctx context.Context, id string, cfiID, aircraftID *string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		status        model.LessonRequestStatus
		requestedDate string
		startTime     string
		endTime       string
	)
	err = tx.QueryRow(ctx, `
		SELECT status,
		       to_char(requested_date, 'YYYY-MM-DD'),
		       to_char(requested_start_time, 'HH24:MI'),
		       to_char(requested_end_time, 'HH24:MI')
		FROM lesson_requests
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status, &requestedDate, &startTime, &endTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock request: %w", err)
	}
	if status != model.LessonStatusPending {
		return ErrStaleStatus
	}

	// Take the hold first so a lost slot race aborts before anything
	// else changes. The winning slot id is recorded on the request;
	// terminal transitions release exactly that hold.
	var reservedSlotID *int64
	if aircraftID != nil {
		slotID, err := reserveSlotTx(ctx, tx, model.EntityAircraft, *aircraftID, requestedDate, startTime, endTime)
		if err != nil {
			return err
		}
		reservedSlotID = &slotID
	}

	_, err = tx.Exec(ctx, `
		UPDATE lesson_requests
		SET cfi_id = COALESCE($2, cfi_id),
		    aircraft_id = COALESCE($3, aircraft_id),
		    reserved_slot_id = COALESCE($4, reserved_slot_id),
		    status = 'assigned',
		    updated_at = now()
		WHERE id = $1
	`, id, cfiID, aircraftID, reservedSlotID)
	if err != nil {
		return fmt.Errorf("assign resources: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE lesson_tickets
		SET status = 'assigned', cfi_id = COALESCE($2, cfi_id), updated_at = now()
		WHERE lesson_request_id = $1 AND status = 'pending'
	`, id, cfiID)
	if err != nil {
		return fmt.Errorf("advance ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// syncTicketTx advances the shadow ticket of a request that just settled
// (accepted or rejected). The ticket must still be on the instructor
// side of its lifecycle; anything else means the two records diverged.
func syncTicketTx(ctx context.Context, tx pgx.Tx, requestID string, target model.TicketStatus) error {
	tag, err := tx.Exec(ctx, `
		UPDATE lesson_tickets
		SET status = $2, updated_at = now()
		WHERE lesson_request_id = $1 AND status IN ('pending', 'assigned')
	`, requestID, target)
	if err != nil {
		return fmt.Errorf("sync ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sync ticket for request %s: %w", requestID, ErrStaleStatus)
	}
	return nil
}

package request_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookkeys/bookkeys/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no booking request matches the given id.
// Callers treat this as an already-processed/invalid link, not a crash.
var ErrNotFound = errors.New("booking request not found")

// Request status values. A request leaves "pending" at most once.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// DefaultOwnerUserID scopes the owner index for single-tenant deployments.
const DefaultOwnerUserID = "single-tenant"

// BookingRequest is the central entity: one visitor's pending meeting request
// against an executive calendar. TokenHash is a one-way digest; the raw
// approval token is never persisted. Requests are never deleted; terminal
// rows stay as an audit trail.
type BookingRequest struct {
	ID            uuid.UUID  `json:"id"`
	OwnerUserID   string     `json:"owner_user_id"`
	Slug          string     `json:"slug"`
	TargetExecUpn string     `json:"target_exec_upn"`
	Title         string     `json:"title"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	Attendees     []string   `json:"attendees"`
	WantsTeams    bool       `json:"wants_teams"`
	Notes         string     `json:"notes"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	LastActionAt  *time.Time `json:"last_action_at,omitempty"`
	TokenHash     string     `json:"-"`
	ExecEventID   string     `json:"exec_event_id,omitempty"`
	AllMailboxes  []string   `json:"all_mailboxes,omitempty"`
	InputTimeZone string     `json:"input_time_zone"`
}

// RequestSummary is the denormalized per-owner projection used for listing.
// It is not a second source of truth.
type RequestSummary struct {
	RequestID     uuid.UUID `json:"request_id"`
	CreatedAt     time.Time `json:"created_at"`
	Status        string    `json:"status"`
	TargetExecUpn string    `json:"target_exec_upn"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	InputTimeZone string    `json:"input_time_zone"`
}

// StatusPatch is the partial update applied on a terminal transition.
type StatusPatch struct {
	Status       string
	LastActionAt time.Time
	ExecEventID  string
}

// Store persists booking requests in two tables: booking_requests keyed by
// request id and booking_requests_by_owner keyed by owner id + request id.
type Store struct {
	DB *pgxpool.Pool
}

// NewStore creates a new instance of Store.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// EnsureSchema creates the request tables when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS booking_requests (
			id              UUID PRIMARY KEY,
			owner_user_id   TEXT NOT NULL,
			slug            TEXT NOT NULL,
			target_exec_upn TEXT NOT NULL,
			title           TEXT NOT NULL,
			start_at        TIMESTAMPTZ NOT NULL,
			end_at          TIMESTAMPTZ NOT NULL,
			customer_name   TEXT NOT NULL,
			customer_email  TEXT NOT NULL,
			attendees       TEXT[] NOT NULL DEFAULT '{}',
			wants_teams     BOOLEAN NOT NULL DEFAULT FALSE,
			notes           TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL,
			expires_at      TIMESTAMPTZ NOT NULL,
			last_action_at  TIMESTAMPTZ,
			token_hash      TEXT NOT NULL,
			exec_event_id   TEXT NOT NULL DEFAULT '',
			all_mailboxes   TEXT[] NOT NULL DEFAULT '{}',
			input_time_zone TEXT NOT NULL DEFAULT 'UTC'
		)`)
	if err != nil {
		return fmt.Errorf("failed to create booking_requests table: %w", err)
	}

	_, err = s.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS booking_requests_by_owner (
			owner_user_id   TEXT NOT NULL,
			request_id      UUID NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL,
			status          TEXT NOT NULL,
			target_exec_upn TEXT NOT NULL,
			start_at        TIMESTAMPTZ NOT NULL,
			end_at          TIMESTAMPTZ NOT NULL,
			input_time_zone TEXT NOT NULL DEFAULT 'UTC',
			PRIMARY KEY (owner_user_id, request_id)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create booking_requests_by_owner table: %w", err)
	}
	return nil
}

// CreateRequest upserts the request row. Ids are freshly generated so there
// is no real absence check; upsert semantics keep retries safe.
func (s *Store) CreateRequest(ctx context.Context, r *BookingRequest) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO booking_requests (
			id, owner_user_id, slug, target_exec_upn, title, start_at, end_at,
			customer_name, customer_email, attendees, wants_teams, notes,
			status, created_at, expires_at, last_action_at, token_hash,
			exec_event_id, all_mailboxes, input_time_zone
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			token_hash = EXCLUDED.token_hash`,
		r.ID, r.OwnerUserID, r.Slug, r.TargetExecUpn, r.Title, r.Start, r.End,
		r.CustomerName, r.CustomerEmail, r.Attendees, r.WantsTeams, r.Notes,
		r.Status, r.CreatedAt, r.ExpiresAt, r.LastActionAt, r.TokenHash,
		r.ExecEventID, r.AllMailboxes, r.InputTimeZone)
	if err != nil {
		return fmt.Errorf("failed to create booking request: %w", err)
	}
	return nil
}

// GetRequest loads one request by id, returning ErrNotFound when absent.
func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*BookingRequest, error) {
	var r BookingRequest
	err := s.DB.QueryRow(ctx, `
		SELECT id, owner_user_id, slug, target_exec_upn, title, start_at, end_at,
		       customer_name, customer_email, attendees, wants_teams, notes,
		       status, created_at, expires_at, last_action_at, token_hash,
		       exec_event_id, all_mailboxes, input_time_zone
		FROM booking_requests WHERE id = $1`, id).Scan(
		&r.ID, &r.OwnerUserID, &r.Slug, &r.TargetExecUpn, &r.Title, &r.Start, &r.End,
		&r.CustomerName, &r.CustomerEmail, &r.Attendees, &r.WantsTeams, &r.Notes,
		&r.Status, &r.CreatedAt, &r.ExpiresAt, &r.LastActionAt, &r.TokenHash,
		&r.ExecEventID, &r.AllMailboxes, &r.InputTimeZone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking request %s: %w", id, err)
	}
	return &r, nil
}

// UpdateStatus applies a terminal-transition patch. Callers re-check status
// before calling; last-write-wins on the underlying store is sufficient.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, patch StatusPatch) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE booking_requests
		SET status = $2,
		    last_action_at = $3,
		    exec_event_id = CASE WHEN $4 <> '' THEN $4 ELSE exec_event_id END
		WHERE id = $1`,
		id, patch.Status, patch.LastActionAt, patch.ExecEventID)
	if err != nil {
		return fmt.Errorf("failed to update booking request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	// Keep the owner projection in step, best-effort.
	_, err = s.DB.Exec(ctx, `
		UPDATE booking_requests_by_owner SET status = $2 WHERE request_id = $1`,
		id, patch.Status)
	if err != nil {
		logger.ErrorLogger.Errorf("failed to update owner index for request %s: %v", id, err)
	}
	return nil
}

// IndexByOwner writes the denormalized owner-index row. Failure here must
// not roll back the primary request creation.
func (s *Store) IndexByOwner(ctx context.Context, ownerUserID string, summary RequestSummary) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO booking_requests_by_owner (
			owner_user_id, request_id, created_at, status,
			target_exec_upn, start_at, end_at, input_time_zone
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (owner_user_id, request_id) DO UPDATE SET
			status = EXCLUDED.status`,
		ownerUserID, summary.RequestID, summary.CreatedAt, summary.Status,
		summary.TargetExecUpn, summary.Start, summary.End, summary.InputTimeZone)
	if err != nil {
		return fmt.Errorf("failed to index request %s by owner: %w", summary.RequestID, err)
	}
	return nil
}

// ListByOwner returns the owner's request summaries, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerUserID string) ([]RequestSummary, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT request_id, created_at, status, target_exec_upn, start_at, end_at, input_time_zone
		FROM booking_requests_by_owner
		WHERE owner_user_id = $1
		ORDER BY created_at DESC`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for owner %s: %w", ownerUserID, err)
	}
	defer rows.Close()

	var out []RequestSummary
	for rows.Next() {
		var s RequestSummary
		if err := rows.Scan(&s.RequestID, &s.CreatedAt, &s.Status, &s.TargetExecUpn,
			&s.Start, &s.End, &s.InputTimeZone); err != nil {
			return nil, fmt.Errorf("failed to scan request summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

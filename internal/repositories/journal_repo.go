package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecnal/moxiworks-platform/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrJournalConflict = errors.New("journal entry is not pending")

type JournalRepo struct {
	pool *pgxpool.Pool
}

func NewJournalRepo(pool *pgxpool.Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

// Create stores a new pending entry and fills its ID and timestamps.
func (r *JournalRepo) Create(ctx context.Context, e *models.JournalEntry) error {
	e.Status = models.JournalStatusPending
	return r.pool.QueryRow(ctx, `
		INSERT INTO action_log_journal (request_id, caller_id, caller_service, moxi_works_agent_id,
		                                partner_contact_id, title, body, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, e.RequestID, e.CallerID, e.CallerService, e.MoxiWorksAgentID,
		e.PartnerContactID, e.Title, e.Body, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *JournalRepo) MarkSent(ctx context.Context, id uuid.UUID, agentUUID *string) error {
	return r.transition(ctx, id, models.JournalStatusSent, agentUUID, nil)
}

func (r *JournalRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.transition(ctx, id, models.JournalStatusFailed, nil, &reason)
}

func (r *JournalRepo) transition(ctx context.Context, id uuid.UUID, to string, agentUUID, reason *string) error {
	if !models.IsValidJournalTransition(models.JournalStatusPending, to) {
		return fmt.Errorf("invalid journal transition to %s", to)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE action_log_journal
		SET status = $1, agent_uuid = COALESCE($2, agent_uuid), error = $3, updated_at = now()
		WHERE id = $4 AND status = $5
	`, to, agentUUID, reason, id, models.JournalStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJournalConflict
	}
	return nil
}

// ListByContact returns the entries for one partner contact, newest first.
func (r *JournalRepo) ListByContact(ctx context.Context, partnerContactID string, limit, offset int) ([]models.JournalEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, request_id, caller_id, caller_service, moxi_works_agent_id, partner_contact_id,
		       agent_uuid, title, body, status, error, created_at, updated_at
		FROM action_log_journal WHERE partner_contact_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, partnerContactID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.CallerID, &e.CallerService, &e.MoxiWorksAgentID,
			&e.PartnerContactID, &e.AgentUUID, &e.Title, &e.Body, &e.Status, &e.Error,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// timelineRepository stores the append-only audit entries backing an issue's
// timeline. Rows are never updated or deleted.
type timelineRepository struct {
	pool *pgxpool.Pool
}

func (r *timelineRepository) insertTx(ctx context.Context, tx pgx.Tx, issueID string, events []domain.TimelineEvent) error {
	const query = `
        INSERT INTO issue_events (issue_id, occurred_at, status, annotation, note, updated_by)
        VALUES ($1,$2,$3,$4,$5,$6)`
	for _, event := range events {
		if _, err := tx.Exec(ctx, query,
			issueID,
			event.Timestamp,
			string(event.Status),
			string(event.Annotation),
			event.Note,
			event.UpdatedBy,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *timelineRepository) countTx(ctx context.Context, tx pgx.Tx, issueID string) (int, error) {
	const query = `SELECT COUNT(*) FROM issue_events WHERE issue_id=$1`
	var count int
	if err := tx.QueryRow(ctx, query, issueID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *timelineRepository) listByIssue(ctx context.Context, issueID string) ([]domain.TimelineEvent, error) {
	const query = `
        SELECT occurred_at, status, annotation, note, updated_by
        FROM issue_events WHERE issue_id=$1 ORDER BY occurred_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimelineEvent
	for rows.Next() {
		var (
			event      domain.TimelineEvent
			status     string
			annotation string
		)
		if err := rows.Scan(
			&event.Timestamp,
			&status,
			&annotation,
			&event.Note,
			&event.UpdatedBy,
		); err != nil {
			return nil, err
		}
		event.Status = domain.IssueStatus(status)
		event.Annotation = domain.Annotation(annotation)
		result = append(result, event)
	}
	return result, rows.Err()
}

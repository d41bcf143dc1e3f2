package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssueFilter captures listing parameters for tracker and dashboard views.
type IssueFilter struct {
	Statuses    []domain.IssueStatus
	Priorities  []domain.IssuePriority
	Categories  []string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// IssueRepository is the host-owned issue collection: a mapping from issue id
// to Issue, updated by whole-record replacement. Listing results omit the
// timeline; GetByID returns the full record.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	ListAll(ctx context.Context) ([]domain.Issue, error)
}

type issueRepository struct {
	pool     *pgxpool.Pool
	timeline *timelineRepository
}

// NewIssueRepository instantiates the postgres-backed repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool, timeline: &timelineRepository{pool: pool}}
}

const issueColumns = `id, title, description, category, priority, status,
               lat, lng, address, photos, reported_by, assigned_to,
               created_at, updated_at, sla_deadline`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO issues (id, title, description, category, priority, status, lat, lng, address, photos, reported_by, assigned_to, created_at, updated_at, sla_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`
	if _, err := tx.Exec(ctx, query,
		issue.ID,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Status,
		issue.Location.Lat,
		issue.Location.Lng,
		issue.Location.Address,
		issue.Photos,
		issue.ReportedBy,
		issue.AssignedTo,
		issue.CreatedAt,
		issue.UpdatedAt,
		issue.SLADeadline,
	); err != nil {
		return err
	}
	if err := r.timeline.insertTx(ctx, tx, issue.ID, issue.Timeline); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE issues SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            lat=$6, lng=$7, address=$8, photos=$9, assigned_to=$10, updated_at=$11
        WHERE id=$12`
	cmd, err := tx.Exec(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Status,
		issue.Location.Lat,
		issue.Location.Lng,
		issue.Location.Address,
		issue.Photos,
		issue.AssignedTo,
		issue.UpdatedAt,
		issue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return util.NewNotFound("issue", map[string]any{"id": issue.ID})
	}

	// The timeline is append-only: persist only entries beyond those already
	// stored.
	persisted, err := r.timeline.countTx(ctx, tx, issue.ID)
	if err != nil {
		return err
	}
	if persisted < len(issue.Timeline) {
		if err := r.timeline.insertTx(ctx, tx, issue.ID, issue.Timeline[persisted:]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id=$1`, issueColumns)
	issue, err := r.scanSingle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	timeline, err := r.timeline.listByIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	issue.Timeline = timeline
	return issue, nil
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := fmt.Sprintf(`SELECT %s FROM issues`, issueColumns)
	clauses := []string{"TRUE"}
	var args []any

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(address) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) ListAll(ctx context.Context) ([]domain.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues ORDER BY created_at DESC`, issueColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) scanSingle(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Priority,
		&issue.Status,
		&issue.Location.Lat,
		&issue.Location.Lng,
		&issue.Location.Address,
		&issue.Photos,
		&issue.ReportedBy,
		&issue.AssignedTo,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.SLADeadline,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("issue", nil)
		}
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.Description,
			&issue.Category,
			&issue.Priority,
			&issue.Status,
			&issue.Location.Lat,
			&issue.Location.Lng,
			&issue.Location.Address,
			&issue.Photos,
			&issue.ReportedBy,
			&issue.AssignedTo,
			&issue.CreatedAt,
			&issue.UpdatedAt,
			&issue.SLADeadline,
		); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}

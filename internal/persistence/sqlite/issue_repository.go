package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/hall-booking/internal/persistence"
)

const issueColumns = "id, customer_id, booking_id, hall_id, description, status, assigned_scheduler_id, resolution, reported_at, updated_at"

// IssueRepository implements persistence.IssueRepository using SQLite.
type IssueRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewIssueRepository creates a new SQLite issue repository.
func NewIssueRepository(pool *ConnectionPool) *IssueRepository {
	return &IssueRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateIssue inserts a new issue.
func (r *IssueRepository) CreateIssue(ctx context.Context, issue persistence.Issue) error {
	if issue.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO issues (` + issueColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		issue.ID,
		issue.CustomerID,
		issue.BookingID,
		issue.HallID,
		issue.Description,
		issue.Status,
		issue.AssignedSchedulerID,
		issue.Resolution,
		issue.ReportedAt.UTC().Format(time.RFC3339),
		issue.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// UpdateIssue replaces the mutable columns of an existing issue.
func (r *IssueRepository) UpdateIssue(ctx context.Context, issue persistence.Issue) error {
	if issue.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE issues
		SET status = ?, assigned_scheduler_id = ?, resolution = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		issue.Status,
		issue.AssignedSchedulerID,
		issue.Resolution,
		issue.UpdatedAt.UTC().Format(time.RFC3339),
		issue.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetIssue retrieves an issue by id.
func (r *IssueRepository) GetIssue(ctx context.Context, id string) (persistence.Issue, error) {
	if id == "" {
		return persistence.Issue{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Issue{}, persistence.ErrNotFound
		}
		return persistence.Issue{}, r.mapper.MapError(err)
	}
	return issue, nil
}

// ListIssues returns every issue ordered by report time.
func (r *IssueRepository) ListIssues(ctx context.Context) ([]persistence.Issue, error) {
	return r.queryIssues(ctx, `SELECT `+issueColumns+` FROM issues ORDER BY reported_at ASC, id ASC`)
}

// ListIssuesByStatus returns the issues in one state ordered by report time.
func (r *IssueRepository) ListIssuesByStatus(ctx context.Context, status string) ([]persistence.Issue, error) {
	return r.queryIssues(ctx, `SELECT `+issueColumns+` FROM issues WHERE status = ? ORDER BY reported_at ASC, id ASC`, status)
}

func (r *IssueRepository) queryIssues(ctx context.Context, query string, args ...any) ([]persistence.Issue, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var issues []persistence.Issue
	for rows.Next() {
		issue, err := scanIssue(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return issues, nil
}

func scanIssue(scan func(dest ...any) error) (persistence.Issue, error) {
	var issue persistence.Issue
	var reportedAt, updatedAt string

	if err := scan(
		&issue.ID,
		&issue.CustomerID,
		&issue.BookingID,
		&issue.HallID,
		&issue.Description,
		&issue.Status,
		&issue.AssignedSchedulerID,
		&issue.Resolution,
		&reportedAt,
		&updatedAt,
	); err != nil {
		return persistence.Issue{}, err
	}

	var err error
	if issue.ReportedAt, err = time.Parse(time.RFC3339, reportedAt); err != nil {
		return persistence.Issue{}, fmt.Errorf("failed to parse reported_at: %w", err)
	}
	if issue.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Issue{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return issue, nil
}

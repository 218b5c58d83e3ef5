package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/apnisec/backend/internal/model"
)

const issueColumns = `id, user_id, title, description, type, status, priority, created_at, updated_at`

func (db *Postgres) CreateIssue(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	query := `
		INSERT INTO issues (id, user_id, title, description, type, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + issueColumns
	return db.scanIssue(db.Pool.QueryRow(ctx, query,
		issue.ID, issue.UserID, issue.Title, issue.Description, issue.Type, issue.Status, issue.Priority))
}

func (db *Postgres) GetIssueByID(ctx context.Context, id string) (*model.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id = $1`
	return db.scanIssue(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) ListIssuesByUser(ctx context.Context, userID string, filter model.IssueFilter) ([]model.Issue, error) {
	where, args := issueFilterClauses(userID, filter)

	orderBy := "created_at"
	switch filter.OrderBy {
	case "createdAt":
		orderBy = "created_at"
	case "updatedAt":
		orderBy = "updated_at"
	case "title", "priority", "status":
		orderBy = filter.OrderBy
	}
	order := "DESC"
	if strings.EqualFold(filter.Order, "asc") {
		order = "ASC"
	}

	query := fmt.Sprintf(
		`SELECT %s FROM issues WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		issueColumns, strings.Join(where, " AND "), orderBy, order, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := make([]model.Issue, 0)
	for rows.Next() {
		issue, err := db.scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, rows.Err()
}

func (db *Postgres) CountIssuesByUser(ctx context.Context, userID string, filter model.IssueFilter) (int, error) {
	where, args := issueFilterClauses(userID, filter)
	query := `SELECT COUNT(*) FROM issues WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := db.Pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (db *Postgres) UpdateIssue(ctx context.Context, id string, patch model.UpdateIssueRequest) (*model.Issue, error) {
	query := `
		UPDATE issues
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    type = COALESCE($4, type),
		    status = COALESCE($5, status),
		    priority = COALESCE($6, priority),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + issueColumns
	return db.scanIssue(db.Pool.QueryRow(ctx, query,
		id, patch.Title, patch.Description, patch.Type, patch.Status, patch.Priority))
}

func (db *Postgres) DeleteIssue(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	return err
}

func issueFilterClauses(userID string, filter model.IssueFilter) ([]string, []any) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		add("priority = $%d", filter.Priority)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	return where, args
}

func (db *Postgres) scanIssue(row rowScanner) (*model.Issue, error) {
	var issue model.Issue
	err := row.Scan(
		&issue.ID,
		&issue.UserID,
		&issue.Title,
		&issue.Description,
		&issue.Type,
		&issue.Status,
		&issue.Priority,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

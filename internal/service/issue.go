package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/apperr"
	"github.com/apnisec/backend/internal/model"
)

const (
	defaultIssuePageSize = 10
	maxIssuePageSize     = 100
)

// IssueStore is the persistence contract for issue records.
type IssueStore interface {
	CreateIssue(ctx context.Context, issue *model.Issue) (*model.Issue, error)
	GetIssueByID(ctx context.Context, id string) (*model.Issue, error)
	ListIssuesByUser(ctx context.Context, userID string, filter model.IssueFilter) ([]model.Issue, error)
	CountIssuesByUser(ctx context.Context, userID string, filter model.IssueFilter) (int, error)
	UpdateIssue(ctx context.Context, id string, patch model.UpdateIssueRequest) (*model.Issue, error)
	DeleteIssue(ctx context.Context, id string) error
}

type IssueService struct {
	store    IssueStore
	users    UserStore
	notifier Notifier
	logger   *zap.Logger
}

func NewIssueService(store IssueStore, users UserStore, notifier Notifier, logger *zap.Logger) *IssueService {
	return &IssueService{store: store, users: users, notifier: notifier, logger: logger}
}

func (s *IssueService) CreateForUser(ctx context.Context, userID string, req model.CreateIssueRequest) (*model.Issue, error) {
	if details := validateCreateIssue(&req); len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details...)
	}

	issue := &model.Issue{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Status:      req.Status,
		Priority:    req.Priority,
	}

	created, err := s.store.CreateIssue(ctx, issue)
	if err != nil {
		return nil, err
	}

	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		s.notifier.SendIssueCreated(user.Email, *created)
	} else {
		s.logger.Warn("issue created but owner lookup failed, skipping notification",
			zap.String("issue_id", created.ID), zap.Error(err))
	}

	return created, nil
}

func (s *IssueService) GetForUser(ctx context.Context, id, userID string) (*model.Issue, error) {
	if id == "" {
		return nil, apperr.Validation("Issue ID is required")
	}

	issue, err := s.store.GetIssueByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound("Issue not found")
		}
		return nil, err
	}
	if issue.UserID != userID {
		return nil, apperr.Authorization("You do not have permission to view this issue")
	}
	return issue, nil
}

func (s *IssueService) ListForUser(ctx context.Context, userID string, filter model.IssueFilter) (*model.IssuePage, error) {
	if details := validateIssueFilter(&filter); len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details...)
	}

	issues, err := s.store.ListIssuesByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountIssuesByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit

	return &model.IssuePage{
		Issues:     issues,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *IssueService) UpdateForUser(ctx context.Context, id, userID string, patch model.UpdateIssueRequest) (*model.Issue, error) {
	if id == "" {
		return nil, apperr.Validation("Issue ID is required")
	}
	if details := validateUpdateIssue(&patch); len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details...)
	}

	existing, err := s.store.GetIssueByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound("Issue not found")
		}
		return nil, err
	}
	if existing.UserID != userID {
		return nil, apperr.Authorization("You do not have permission to update this issue")
	}

	return s.store.UpdateIssue(ctx, id, patch)
}

func (s *IssueService) DeleteForUser(ctx context.Context, id, userID string) error {
	if id == "" {
		return apperr.Validation("Issue ID is required")
	}

	existing, err := s.store.GetIssueByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return apperr.NotFound("Issue not found")
		}
		return err
	}
	if existing.UserID != userID {
		return apperr.Authorization("You do not have permission to delete this issue")
	}

	return s.store.DeleteIssue(ctx, id)
}

// validateCreateIssue checks the request in place, applying defaults for
// status and priority.
func validateCreateIssue(req *model.CreateIssueRequest) []string {
	var details []string

	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		details = append(details, "Title is required")
	case utf8.RuneCountInString(title) < 3:
		details = append(details, "Title must be at least 3 characters long")
	case utf8.RuneCountInString(title) > 200:
		details = append(details, "Title must not exceed 200 characters")
	}

	description := strings.TrimSpace(req.Description)
	switch {
	case description == "":
		details = append(details, "Description is required")
	case utf8.RuneCountInString(description) < 10:
		details = append(details, "Description must be at least 10 characters long")
	}

	if req.Type == "" {
		details = append(details, "Issue type is required")
	} else if !model.ValidIssueType(req.Type) {
		details = append(details, "Invalid issue type")
	}

	if req.Priority == "" {
		req.Priority = model.IssuePriorityMedium
	} else if !model.ValidIssuePriority(req.Priority) {
		details = append(details, "Invalid issue priority")
	}

	if req.Status == "" {
		req.Status = model.IssueStatusOpen
	} else if !model.ValidIssueStatus(req.Status) {
		details = append(details, "Invalid issue status")
	}

	return details
}

func validateUpdateIssue(patch *model.UpdateIssueRequest) []string {
	var details []string

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		switch {
		case title == "":
			details = append(details, "Title cannot be empty")
		case utf8.RuneCountInString(title) < 3:
			details = append(details, "Title must be at least 3 characters long")
		case utf8.RuneCountInString(title) > 200:
			details = append(details, "Title must not exceed 200 characters")
		}
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		switch {
		case description == "":
			details = append(details, "Description cannot be empty")
		case utf8.RuneCountInString(description) < 10:
			details = append(details, "Description must be at least 10 characters long")
		}
	}
	if patch.Type != nil && !model.ValidIssueType(*patch.Type) {
		details = append(details, "Invalid issue type")
	}
	if patch.Priority != nil && !model.ValidIssuePriority(*patch.Priority) {
		details = append(details, "Invalid issue priority")
	}
	if patch.Status != nil && !model.ValidIssueStatus(*patch.Status) {
		details = append(details, "Invalid issue status")
	}

	return details
}

func validateIssueFilter(filter *model.IssueFilter) []string {
	var details []string

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultIssuePageSize
	} else if filter.Limit > maxIssuePageSize {
		details = append(details, "Limit must not exceed 100")
	}
	if filter.Type != "" && !model.ValidIssueType(filter.Type) {
		details = append(details, "Invalid issue type")
	}
	if filter.Status != "" && !model.ValidIssueStatus(filter.Status) {
		details = append(details, "Invalid issue status")
	}
	if filter.Priority != "" && !model.ValidIssuePriority(filter.Priority) {
		details = append(details, "Invalid issue priority")
	}

	return details
}

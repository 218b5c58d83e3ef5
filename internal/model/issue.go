package model

import "time"

const (
	IssueTypeVAPT             = "VAPT"
	IssueTypeCloudSecurity    = "CLOUD_SECURITY"
	IssueTypeReteamAssessment = "RETEAM_ASSESSMENT"

	IssueStatusOpen       = "OPEN"
	IssueStatusInProgress = "IN_PROGRESS"
	IssueStatusResolved   = "RESOLVED"
	IssueStatusClosed     = "CLOSED"

	IssuePriorityLow      = "LOW"
	IssuePriorityMedium   = "MEDIUM"
	IssuePriorityHigh     = "HIGH"
	IssuePriorityCritical = "CRITICAL"
)

func ValidIssueType(t string) bool {
	switch t {
	case IssueTypeVAPT, IssueTypeCloudSecurity, IssueTypeReteamAssessment:
		return true
	}
	return false
}

func ValidIssueStatus(s string) bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

func ValidIssuePriority(p string) bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityCritical:
		return true
	}
	return false
}

type Issue struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateIssueRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

type UpdateIssueRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

type IssueFilter struct {
	Type     string
	Status   string
	Priority string
	Search   string
	Page     int
	Limit    int
	OrderBy  string
	Order    string
}

type IssuePage struct {
	Issues     []Issue `json:"issues"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/apperr"
	"github.com/apnisec/backend/internal/model"
	"github.com/apnisec/backend/internal/service"
)

type IssueHandler struct {
	svc    *service.IssueService
	logger *zap.Logger
}

func NewIssueHandler(svc *service.IssueService, logger *zap.Logger) *IssueHandler {
	return &IssueHandler{svc: svc, logger: logger}
}

// List godoc
// @Summary List the current user's security issues
// @Tags issues
// @Produce json
// @Security BearerAuth
// @Param type query string false "Issue type filter"
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Param search query string false "Title/description search"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} model.IssuePage
// @Failure 401 {object} model.ErrorResponse
// @Router /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	user := CurrentUser(c)

	filter := model.IssueFilter{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		OrderBy:  c.Query("orderBy"),
		Order:    c.Query("order"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}

	page, err := h.svc.ListForUser(c.Request.Context(), user.ID, filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create godoc
// @Summary Create a security issue
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateIssueRequest true "Issue fields"
// @Success 201 {object} model.Issue
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /issues [post]
func (h *IssueHandler) Create(c *gin.Context) {
	user := CurrentUser(c)

	var req model.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, apperr.Validation("Invalid request body"))
		return
	}

	issue, err := h.svc.CreateForUser(c.Request.Context(), user.ID, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// Get godoc
// @Summary Get one issue
// @Tags issues
// @Produce json
// @Security BearerAuth
// @Param id path string true "Issue ID"
// @Success 200 {object} model.Issue
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	user := CurrentUser(c)

	issue, err := h.svc.GetForUser(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// Update godoc
// @Summary Update one issue
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Issue ID"
// @Param request body model.UpdateIssueRequest true "Fields to update"
// @Success 200 {object} model.Issue
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /issues/{id} [put]
func (h *IssueHandler) Update(c *gin.Context) {
	user := CurrentUser(c)

	var req model.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, apperr.Validation("Invalid request body"))
		return
	}

	issue, err := h.svc.UpdateForUser(c.Request.Context(), c.Param("id"), user.ID, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// Delete godoc
// @Summary Delete one issue
// @Tags issues
// @Produce json
// @Security BearerAuth
// @Param id path string true "Issue ID"
// @Success 200 {object} model.MessageResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /issues/{id} [delete]
func (h *IssueHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)

	if err := h.svc.DeleteForUser(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Issue deleted successfully"})
}

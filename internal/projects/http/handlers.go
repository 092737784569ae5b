package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/auth"
	"github.com/GoSim-25-26J-441/resume-builder-backend/internal/projects/domain"
)

func (h *Handler) listMetadata(c *gin.Context) {
	items, err := h.svc.ListMetadata(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.fail(c, "list metadata", err, "Failed to fetch projects metadata")
		return
	}
	c.JSON(http.StatusOK, response{Success: true, Data: items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, "get project", err, "")
		return
	}
	c.JSON(http.StatusOK, response{Success: true, Data: p})
}

func (h *Handler) create(c *gin.Context) {
	var req domain.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Message: "Invalid request body"})
		return
	}

	p, err := h.svc.Create(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		h.fail(c, "create project", err, "Failed to create project")
		return
	}
	c.JSON(http.StatusCreated, response{Success: true, Message: "Project created successfully", Data: p})
}

func (h *Handler) update(c *gin.Context) {
	var req domain.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Message: "Invalid request body"})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, "update project", err, "Failed to update project")
		return
	}
	c.JSON(http.StatusOK, response{Success: true, Message: "Project updated successfully", Data: p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		h.fail(c, "delete project", err, "Failed to delete project")
		return
	}
	c.JSON(http.StatusOK, response{Success: true, Message: "Project deleted successfully"})
}

// fail maps a service error onto a status code. Store failures use
// internalMsg when given, so callers never see driver details.
func (h *Handler) fail(c *gin.Context, op string, err error, internalMsg string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, response{Message: "Missing required fields"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, response{Message: "Project not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, response{Message: "Project already exists"})
	default:
		h.log.Error(op+" failed",
			zap.String("user_id", auth.UserID(c)),
			zap.String("project_id", c.Param("id")),
			zap.Error(err),
		)
		if internalMsg == "" {
			internalMsg = "Internal server error"
		}
		c.JSON(http.StatusInternalServerError, response{Message: internalMsg})
	}
}

package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

type addSubtaskRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

func (h *handlerImpl) HandleAddSubtask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	var req addSubtaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		abort(c, newBadRequestError(models.ErrEmptyTitle.Error()))
		return
	}

	updated, err := h.tasks.AddSubtask(c, task.ID, title)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to add subtask")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, updated)
}

func (h *handlerImpl) HandleToggleSubtask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	subtaskID := c.Param("subtaskId")
	updated, err := h.tasks.ToggleSubtask(c, task.ID, subtaskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("subtask_id", subtaskID).
			Msg("failed to toggle subtask")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, updated)
}

func (h *handlerImpl) HandleDeleteSubtask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	subtaskID := c.Param("subtaskId")
	updated, err := h.tasks.DeleteSubtask(c, task.ID, subtaskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("subtask_id", subtaskID).
			Msg("failed to delete subtask")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, updated)
}

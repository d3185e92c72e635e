package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-planner/internal/models"
)

type addNoteRequest struct {
	Content string `json:"content" binding:"required,max=4096"`
}

func (h *handlerImpl) bindNote(c *gin.Context) (string, bool) {
	var req addNoteRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return "", false
	}

	if strings.TrimSpace(req.Content) == "" {
		abort(c, newBadRequestError(models.ErrEmptyContent.Error()))
		return "", false
	}
	return req.Content, true
}

func (h *handlerImpl) HandleAddTaskNote(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	content, ok := h.bindNote(c)
	if !ok {
		return
	}

	note, err := h.tasks.AddTaskNote(c, task.ID, content)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to add task note")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, note)
}

func (h *handlerImpl) HandleAddSubtaskNote(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	content, ok := h.bindNote(c)
	if !ok {
		return
	}

	subtaskID := c.Param("subtaskId")
	note, err := h.tasks.AddSubtaskNote(c, task.ID, subtaskID, content)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("subtask_id", subtaskID).
			Msg("failed to add subtask note")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, note)
}

func (h *handlerImpl) HandleUpdateTaskNote(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	content, ok := h.bindNote(c)
	if !ok {
		return
	}

	noteID := c.Param("noteId")
	note, err := h.tasks.UpdateTaskNote(c, task.ID, noteID, content)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("note_id", noteID).
			Msg("failed to update task note")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, note)
}

func (h *handlerImpl) HandleDeleteTaskNote(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	noteID := c.Param("noteId")
	updated, err := h.tasks.DeleteTaskNote(c, task.ID, noteID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("note_id", noteID).
			Msg("failed to delete task note")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, updated)
}

func (h *handlerImpl) HandleUpdateSubtaskNote(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	content, ok := h.bindNote(c)
	if !ok {
		return
	}

	subtaskID, noteID := c.Param("subtaskId"), c.Param("noteId")
	note, err := h.tasks.UpdateSubtaskNote(c, task.ID, subtaskID, noteID, content)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("subtask_id", subtaskID).
			Str("note_id", noteID).
			Msg("failed to update subtask note")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, note)
}

func (h *handlerImpl) HandleDeleteSubtaskNote(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	subtaskID, noteID := c.Param("subtaskId"), c.Param("noteId")
	updated, err := h.tasks.DeleteSubtaskNote(c, task.ID, subtaskID, noteID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("subtask_id", subtaskID).
			Str("note_id", noteID).
			Msg("failed to delete subtask note")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, updated)
}

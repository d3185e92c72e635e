package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-planner/internal/models"
	"github.com/adanyl0v/go-todo-planner/internal/query"
	"github.com/adanyl0v/go-todo-planner/internal/store"
)

type createTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description string   `json:"description" binding:"max=4096"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Priority    string   `json:"priority" binding:"required"`
	Status      string   `json:"status"`
	Notes       []string `json:"notes"`
}

func (r createTaskRequest) draft(userID string) (models.TaskDraft, error) {
	d := models.TaskDraft{
		UserID:      userID,
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Status:      models.StatusTodo,
	}

	var err error
	if d.StartDate, err = parseOptionalDate(r.StartDate); err != nil {
		return models.TaskDraft{}, err
	}
	if d.EndDate, err = parseOptionalDate(r.EndDate); err != nil {
		return models.TaskDraft{}, err
	}
	if d.Priority, err = models.ParsePriority(r.Priority); err != nil {
		return models.TaskDraft{}, err
	}
	if r.Status != "" {
		if d.Status, err = models.ParseStatus(r.Status); err != nil {
			return models.TaskDraft{}, err
		}
	}

	for _, content := range r.Notes {
		if strings.TrimSpace(content) == "" {
			return models.TaskDraft{}, models.ErrEmptyContent
		}
		d.Notes = append(d.Notes, models.Note{Content: content})
	}
	return d, d.Validate()
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	draft, err := req.draft(userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("invalid task")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	task, err := h.tasks.AddTask(c, draft)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to create task")
		abortWithStoreError(c, err)
		return
	}

	h.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", userID).
		Str("email", c.GetString(emailCtxKey)).
		Msg("created task")
	h.respond(c, http.StatusCreated, task)
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filter, err := query.ParseFilter(c.Query("priority"), c.Query("status"), c.Query("search"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("invalid filter")
		abort(c, newBadRequestError(err.Error()))
		return
	}
	filter.UserID = userID

	sort, err := query.ParseSort(c.Query("sort"), c.Query("dir"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("invalid sort")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	tasks := query.Apply(h.tasks.FilterTasks(query.Filter{UserID: userID}), filter, sort)

	h.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("selected tasks")
	h.respond(c, http.StatusOK, gin.H{"tasks": tasks})
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, task)
}

type subtaskPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type updateTaskRequest struct {
	Title       *string           `json:"title" binding:"omitempty,max=255"`
	Description *string           `json:"description" binding:"omitempty,max=4096"`
	StartDate   *string           `json:"startDate"`
	EndDate     *string           `json:"endDate"`
	Priority    *string           `json:"priority"`
	Status      *string           `json:"status"`
	Progress    *int              `json:"progress"`
	Subtasks    *[]subtaskPayload `json:"subtasks"`
}

// patch converts the request into a store patch. Subtasks that name an
// existing id keep their notes and creation time.
func (r updateTaskRequest) patch(current models.Task) (models.TaskPatch, error) {
	var p models.TaskPatch

	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return p, models.ErrEmptyTitle
		}
		p.Title = &title
	}
	p.Description = r.Description

	if r.StartDate != nil {
		d, err := parseOptionalDate(*r.StartDate)
		if err != nil {
			return p, err
		}
		p.StartDate = &d
	}
	if r.EndDate != nil {
		d, err := parseOptionalDate(*r.EndDate)
		if err != nil {
			return p, err
		}
		p.EndDate = &d
	}

	if r.Priority != nil {
		priority, err := models.ParsePriority(*r.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &priority
	}
	if r.Status != nil {
		status, err := models.ParseStatus(*r.Status)
		if err != nil {
			return p, err
		}
		p.Status = &status
	}
	p.Progress = r.Progress

	if r.Subtasks != nil {
		subtasks := make([]models.SubTask, 0, len(*r.Subtasks))
		seen := make(map[string]struct{}, len(*r.Subtasks))
		for _, payload := range *r.Subtasks {
			title := strings.TrimSpace(payload.Title)
			if title == "" {
				return p, models.ErrEmptyTitle
			}
			if payload.ID != "" {
				if _, ok := seen[payload.ID]; ok {
					return p, fmt.Errorf("%w: %s", errDuplicateSubtaskID, payload.ID)
				}
				seen[payload.ID] = struct{}{}
			}

			st := models.SubTask{Title: title, Completed: payload.Completed}
			if i := current.SubtaskIndex(payload.ID); payload.ID != "" && i >= 0 {
				existing := current.Subtasks[i]
				st.ID = existing.ID
				st.Notes = existing.Notes
				st.CreatedAt = existing.CreatedAt
			}
			subtasks = append(subtasks, st)
		}
		p.Subtasks = &subtasks
	}

	if p.IsEmpty() {
		return p, errEmptyPatch
	}
	return p, nil
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	current, ok := h.ownedTask(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	patch, err := req.patch(current)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", current.ID).
			Msg("invalid task update")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	var check store.Check
	if patch.StartDate != nil || patch.EndDate != nil {
		check = func(t *models.Task) error {
			return models.ValidateDateRange(t.StartDate, t.EndDate)
		}
	}

	task, err := h.tasks.UpdateTaskChecked(c, current.ID, patch, check)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", current.ID).
			Msg("failed to update task")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, task)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, task.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to delete task")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, gin.H{"id": task.ID})
}

func (h *handlerImpl) HandleMarkTaskDone(c *gin.Context) {
	task, ok := h.ownedTask(c)
	if !ok {
		return
	}

	record, err := h.tasks.MarkTaskDone(c, task.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to mark task done")
		abortWithStoreError(c, err)
		return
	}
	h.respond(c, http.StatusOK, record)
}

// ownedTask loads the task named by the :id parameter. Tasks of other
// users are reported as missing.
func (h *handlerImpl) ownedTask(c *gin.Context) (models.Task, bool) {
	userID, ok := h.userID(c)
	if !ok {
		return models.Task{}, false
	}

	taskID := c.Param("id")
	task, err := h.tasks.Task(taskID)
	if err == nil && task.UserID != userID {
		err = store.ErrTaskNotFound
	}
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("task_id", taskID).
			Str("user_id", userID).
			Msg("task not found")
		abortWithStoreError(c, err)
		return models.Task{}, false
	}
	return task, true
}

func parseOptionalDate(s string) (models.Date, error) {
	if strings.TrimSpace(s) == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(s)
}

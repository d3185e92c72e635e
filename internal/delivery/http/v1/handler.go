package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-planner/internal/identity"
	"github.com/adanyl0v/go-todo-planner/internal/models"
	"github.com/adanyl0v/go-todo-planner/internal/query"
	"github.com/adanyl0v/go-todo-planner/internal/store"
)

type Handler interface {
	HandleAuthMiddleware(c *gin.Context)
	HandleHealth(c *gin.Context)
	HandleGetSyncStatus(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleMarkTaskDone(c *gin.Context)

	HandleAddSubtask(c *gin.Context)
	HandleToggleSubtask(c *gin.Context)
	HandleDeleteSubtask(c *gin.Context)

	HandleAddTaskNote(c *gin.Context)
	HandleAddSubtaskNote(c *gin.Context)
	HandleUpdateTaskNote(c *gin.Context)
	HandleDeleteTaskNote(c *gin.Context)
	HandleUpdateSubtaskNote(c *gin.Context)
	HandleDeleteSubtaskNote(c *gin.Context)

	HandleGetHistory(c *gin.Context)
	HandleGetOverview(c *gin.Context)
	HandleGetDailyProgress(c *gin.Context)
	HandleGetWeek(c *gin.Context)
	HandleGetOngoing(c *gin.Context)
	HandleGetMonth(c *gin.Context)
}

// TaskStore is the subset of *store.Store the handlers need.
type TaskStore interface {
	AddTask(ctx context.Context, d models.TaskDraft) (models.Task, error)
	Task(id string) (models.Task, error)
	FilterTasks(f query.Filter) []models.Task
	UpdateTaskChecked(ctx context.Context, id string, p models.TaskPatch, check store.Check) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	MarkTaskDone(ctx context.Context, id string) (models.CompletionRecord, error)

	AddSubtask(ctx context.Context, taskID, title string) (models.Task, error)
	ToggleSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error)
	DeleteSubtask(ctx context.Context, taskID, subtaskID string) (models.Task, error)

	AddTaskNote(ctx context.Context, taskID, content string) (models.Note, error)
	AddSubtaskNote(ctx context.Context, taskID, subtaskID, content string) (models.Note, error)
	UpdateTaskNote(ctx context.Context, taskID, noteID, content string) (models.Note, error)
	DeleteTaskNote(ctx context.Context, taskID, noteID string) (models.Task, error)
	UpdateSubtaskNote(ctx context.Context, taskID, subtaskID, noteID, content string) (models.Note, error)
	DeleteSubtaskNote(ctx context.Context, taskID, subtaskID, noteID string) (models.Task, error)

	History() []models.CompletionRecord
	SyncStatus() store.SyncStatus
}

type TokenVerifier interface {
	Verify(token string) (*identity.Identity, error)
}

type handlerImpl struct {
	logger   zerolog.Logger
	tasks    TaskStore
	verifier TokenVerifier
	now      func() time.Time
}

func New(
	logger zerolog.Logger,
	tasks TaskStore,
	verifier TokenVerifier,
) Handler {
	return &handlerImpl{
		logger:   logger,
		tasks:    tasks,
		verifier: verifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-planner/internal/models"
	"github.com/adanyl0v/go-todo-planner/internal/store"
)

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errEmptyPatch         = errors.New("no fields to update")
	errMissingUserID      = errors.New("no user id found in context")
	errDuplicateSubtaskID = errors.New("duplicate subtask id")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

// abortWithStoreError maps a store error to its HTTP status.
func abortWithStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidPriority),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrInvalidDateRange):
		abort(c, newBadRequestError(err.Error()))
	case errors.Is(err, store.ErrTaskNotFound):
		abort(c, newNotFoundError(store.ErrTaskNotFound.Error()))
	case errors.Is(err, store.ErrSubtaskNotFound):
		abort(c, newNotFoundError(store.ErrSubtaskNotFound.Error()))
	case errors.Is(err, store.ErrNoteNotFound):
		abort(c, newNotFoundError(store.ErrNoteNotFound.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}

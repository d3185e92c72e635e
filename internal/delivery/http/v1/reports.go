package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-planner/internal/models"
	"github.com/adanyl0v/go-todo-planner/internal/query"
	"github.com/adanyl0v/go-todo-planner/internal/reports"
)

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlerImpl) HandleGetSyncStatus(c *gin.Context) {
	h.respond(c, http.StatusOK, h.tasks.SyncStatus())
}

type historyResponse struct {
	Records []models.CompletionRecord `json:"records"`
	Months  []reports.MonthGroup      `json:"months"`
	Stats   reports.HistoryStats      `json:"stats"`
}

// HandleGetHistory returns the caller's completion records, most recent
// first. ?window= names a period relative to now, ?since= a start date and
// ?priority= a single priority. When both window and since are given the
// later bound wins.
func (h *handlerImpl) HandleGetHistory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filter := reports.HistoryFilter{UserID: userID}

	since, err := reports.WindowStart(c.Query("window"), h.now())
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("invalid history window")
		abort(c, newBadRequestError(err.Error()))
		return
	}
	filter.Since = since

	if raw := c.Query("since"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("invalid since date")
			abort(c, newBadRequestError(err.Error()))
			return
		}
		if d.Time().After(filter.Since) {
			filter.Since = d.Time()
		}
	}

	if raw := c.Query("priority"); raw != "" && !strings.EqualFold(raw, "all") {
		priority, err := models.ParsePriority(raw)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("invalid priority")
			abort(c, newBadRequestError(err.Error()))
			return
		}
		filter.Priority = &priority
	}

	records := reports.FilterHistory(h.tasks.History(), filter)
	h.respond(c, http.StatusOK, historyResponse{
		Records: records,
		Months:  reports.GroupByMonth(records),
		Stats:   reports.NewHistoryStats(records, time.Time{}),
	})
}

func (h *handlerImpl) HandleGetOverview(c *gin.Context) {
	tasks, ok := h.userTasks(c)
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, reports.NewOverview(tasks))
}

func (h *handlerImpl) HandleGetDailyProgress(c *gin.Context) {
	tasks, ok := h.userTasks(c)
	if !ok {
		return
	}

	day, ok := h.dateQuery(c, "date", models.DateOf(h.now()))
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, reports.DailyProgress(tasks, day))
}

// HandleGetWeek defaults to the week starting on the most recent Sunday.
func (h *handlerImpl) HandleGetWeek(c *gin.Context) {
	tasks, ok := h.userTasks(c)
	if !ok {
		return
	}

	today := models.DateOf(h.now())
	start, ok := h.dateQuery(c, "start", today.AddDays(-int(today.Time().Weekday())))
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, gin.H{"days": reports.Week(tasks, start)})
}

func (h *handlerImpl) HandleGetOngoing(c *gin.Context) {
	tasks, ok := h.userTasks(c)
	if !ok {
		return
	}
	h.respond(c, http.StatusOK, gin.H{"tasks": reports.Ongoing(tasks)})
}

// HandleGetMonth summarizes the month named by ?month=YYYY-MM, by default
// the current one, week by week.
func (h *handlerImpl) HandleGetMonth(c *gin.Context) {
	tasks, ok := h.userTasks(c)
	if !ok {
		return
	}

	day := models.DateOf(h.now())
	if raw := c.Query("month"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			h.logger.Error().
				Err(err).
				Str("month", raw).
				Msg("invalid month query")
			abort(c, newBadRequestError(fmt.Sprintf("invalid month %q: expected YYYY-MM", raw)))
			return
		}
		day = models.DateOf(t)
	}

	h.respond(c, http.StatusOK, gin.H{
		"month": fmt.Sprintf("%04d-%02d", day.Year(), int(day.Month())),
		"weeks": reports.Month(tasks, day),
	})
}

func (h *handlerImpl) userTasks(c *gin.Context) ([]models.Task, bool) {
	userID, ok := h.userID(c)
	if !ok {
		return nil, false
	}
	return h.tasks.FilterTasks(query.Filter{UserID: userID}), true
}

func (h *handlerImpl) dateQuery(c *gin.Context, key string, fallback models.Date) (models.Date, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}

	d, err := models.ParseDate(raw)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(key, raw).
			Msg("invalid date query")
		abort(c, newBadRequestError(err.Error()))
		return models.Date{}, false
	}
	return d, true
}

package v1

import "github.com/gin-gonic/gin"

func RegisterRoutes(router gin.IRouter, h Handler) {
	router.GET("/healthz", h.HandleHealth)

	api := router.Group("/api/v1", h.HandleAuthMiddleware)
	api.GET("/sync", h.HandleGetSyncStatus)
	api.GET("/history", h.HandleGetHistory)

	tasks := api.Group("/tasks")
	tasks.POST("", h.HandleCreateTask)
	tasks.GET("", h.HandleGetTasks)
	tasks.GET("/:id", h.HandleGetTask)
	tasks.PATCH("/:id", h.HandleUpdateTask)
	tasks.DELETE("/:id", h.HandleDeleteTask)
	tasks.POST("/:id/done", h.HandleMarkTaskDone)
	tasks.POST("/:id/notes", h.HandleAddTaskNote)
	tasks.PATCH("/:id/notes/:noteId", h.HandleUpdateTaskNote)
	tasks.DELETE("/:id/notes/:noteId", h.HandleDeleteTaskNote)
	tasks.POST("/:id/subtasks", h.HandleAddSubtask)
	tasks.POST("/:id/subtasks/:subtaskId/toggle", h.HandleToggleSubtask)
	tasks.DELETE("/:id/subtasks/:subtaskId", h.HandleDeleteSubtask)
	tasks.POST("/:id/subtasks/:subtaskId/notes", h.HandleAddSubtaskNote)
	tasks.PATCH("/:id/subtasks/:subtaskId/notes/:noteId", h.HandleUpdateSubtaskNote)
	tasks.DELETE("/:id/subtasks/:subtaskId/notes/:noteId", h.HandleDeleteSubtaskNote)

	reports := api.Group("/reports")
	reports.GET("/overview", h.HandleGetOverview)
	reports.GET("/daily", h.HandleGetDailyProgress)
	reports.GET("/week", h.HandleGetWeek)
	reports.GET("/ongoing", h.HandleGetOngoing)
	reports.GET("/monthly", h.HandleGetMonth)
}

package activity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-directory/internal/handler"
	activityService "github.com/jwalitptl/clinic-directory/internal/service/activity"
)

type Handler struct {
	service activityService.LogServicer
}

func NewHandler(service activityService.LogServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	logs := r.Group("/logs")
	{
		logs.GET("", h.ListLogs)
		logs.DELETE("", h.ClearLogs)
	}
}

func (h *Handler) ListLogs(c *gin.Context) {
	params := activityService.ListParams{
		Type:     c.Query("type"),
		Priority: c.Query("priority"),
		Limit:    c.Query("limit"),
	}

	entries, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) ClearLogs(c *gin.Context) {
	if _, err := h.service.Clear(c.Request.Context()); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.MessageResponse{Message: "Logs cleared successfully"})
}

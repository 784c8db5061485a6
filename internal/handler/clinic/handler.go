package clinic

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-directory/internal/handler"
	"github.com/jwalitptl/clinic-directory/internal/model"
	clinicService "github.com/jwalitptl/clinic-directory/internal/service/clinic"
)

type Handler struct {
	service clinicService.ClinicServicer
}

func NewHandler(service clinicService.ClinicServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinics := r.Group("/clinics")
	{
		clinics.POST("", h.CreateClinic)
		clinics.GET("", h.ListClinics)
		clinics.GET("/search", h.SearchClinics)
	}
}

func (h *Handler) CreateClinic(c *gin.Context) {
	var req model.NewClinic
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, h.service.RejectCreate(c.Request.Context(), err))
		return
	}

	clinic, err := h.service.CreateClinic(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clinic)
}

func (h *Handler) ListClinics(c *gin.Context) {
	clinics, err := h.service.ListClinics(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clinics)
}

func (h *Handler) SearchClinics(c *gin.Context) {
	filters := model.SearchFilters{
		City:       c.Query("city"),
		State:      c.Query("state"),
		SearchTerm: c.Query("searchTerm"),
		ServiceIDs: serviceIDs(c.QueryArray("services")),
	}

	clinics, err := h.service.SearchClinics(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clinics)
}

// serviceIDs accepts both ?services=A&services=B and ?services=A,B.
func serviceIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

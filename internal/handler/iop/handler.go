package iop

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/handler"
	"github.com/oculomed/glauco-api/internal/model"
	iopsvc "github.com/oculomed/glauco-api/internal/service/iop"
	"github.com/oculomed/glauco-api/pkg/httputil"
)

type Handler struct {
	service  iopsvc.Service
	resolver *handler.PatientResolver
}

func NewHandler(service iopsvc.Service, resolver *handler.PatientResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	iop := r.Group("/iop-measurements")
	{
		iop.POST("", h.Record)
		iop.GET("", h.List)
		iop.GET("/:id", h.Get)
		iop.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Record(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateIOPMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	measurement, err := h.service.Record(c.Request.Context(), patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, measurement)
}

func (h *Handler) Get(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid measurement ID")
		return
	}

	measurement, err := h.service.Get(c.Request.Context(), id, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, measurement)
}

func (h *Handler) List(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filters := &model.IOPFilters{PatientID: patientID}
	if eye := c.Query("eye"); eye != "" {
		filters.Eye = model.Eye(eye)
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			httputil.RespondWithBadRequest(c, "invalid 'from' timestamp")
			return
		}
		filters.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			httputil.RespondWithBadRequest(c, "invalid 'to' timestamp")
			return
		}
		filters.To = t
	}

	measurements, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, measurements)
}

func (h *Handler) Delete(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid measurement ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, patientID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "measurement deleted"})
}

package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/handler"
	"github.com/oculomed/glauco-api/internal/middleware"
	"github.com/oculomed/glauco-api/internal/model"
	apptsvc "github.com/oculomed/glauco-api/internal/service/appointment"
	"github.com/oculomed/glauco-api/pkg/httputil"
)

type Handler struct {
	service  apptsvc.Service
	resolver *handler.PatientResolver
}

func NewHandler(service apptsvc.Service, resolver *handler.PatientResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appts := r.Group("/appointments")
	{
		appts.GET("", h.List)
		appts.GET("/:id", h.Get)
		appts.POST("/:id/reschedule", h.RequestReschedule)
	}

	r.GET("/reschedule-requests", h.ListRescheduleRequests)
}

func (h *Handler) Get(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid appointment ID")
		return
	}

	appt, err := h.service.Get(c.Request.Context(), id, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) List(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filters := &model.AppointmentFilters{PatientID: patientID}
	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
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

	appts, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) RequestReschedule(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid appointment ID")
		return
	}

	var req model.CreateRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	userEmail := c.GetString(middleware.ContextUserEmailKey)

	request, err := h.service.RequestReschedule(c.Request.Context(), appointmentID, patientID, userEmail, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, request)
}

func (h *Handler) ListRescheduleRequests(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	requests, err := h.service.ListRescheduleRequests(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, requests)
}

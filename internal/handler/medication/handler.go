package medication

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/handler"
	"github.com/oculomed/glauco-api/internal/model"
	medsvc "github.com/oculomed/glauco-api/internal/service/medication"
	"github.com/oculomed/glauco-api/pkg/httputil"
)

type Handler struct {
	service  medsvc.Service
	resolver *handler.PatientResolver
}

func NewHandler(service medsvc.Service, resolver *handler.PatientResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	meds := r.Group("/medications")
	{
		meds.POST("", h.Create)
		meds.GET("", h.List)
		meds.GET("/:id", h.Get)
		meds.PUT("/:id", h.Update)
		meds.DELETE("/:id", h.Deactivate)

		meds.POST("/:id/reminders", h.AddReminder)
		meds.GET("/:id/reminders", h.ListReminders)

		meds.POST("/:id/doses", h.RecordDose)
	}

	r.DELETE("/reminders/:id", h.DeleteReminder)
	r.GET("/doses", h.ListDoses)
}

func (h *Handler) Create(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	medication, err := h.service.Create(c.Request.Context(), patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, medication)
}

func (h *Handler) Get(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid medication ID")
		return
	}

	medication, err := h.service.Get(c.Request.Context(), id, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, medication)
}

func (h *Handler) List(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	activeOnly := c.Query("active") == "true"

	medications, err := h.service.List(c.Request.Context(), patientID, activeOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, medications)
}

func (h *Handler) Update(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid medication ID")
		return
	}

	var req model.UpdateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	medication, err := h.service.Update(c.Request.Context(), id, patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, medication)
}

func (h *Handler) Deactivate(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid medication ID")
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id, patientID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "medication deactivated"})
}

func (h *Handler) AddReminder(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	medicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid medication ID")
		return
	}

	var req model.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	reminder, err := h.service.AddReminder(c.Request.Context(), medicationID, patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, reminder)
}

func (h *Handler) ListReminders(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	medicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid medication ID")
		return
	}

	reminders, err := h.service.ListReminders(c.Request.Context(), medicationID, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, reminders)
}

func (h *Handler) DeleteReminder(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	reminderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid reminder ID")
		return
	}

	if err := h.service.DeleteReminder(c.Request.Context(), reminderID, patientID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "reminder deleted"})
}

func (h *Handler) RecordDose(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	medicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid medication ID")
		return
	}

	var req model.RecordDoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	dose, err := h.service.RecordDose(c.Request.Context(), medicationID, patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, dose)
}

func (h *Handler) ListDoses(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	// Default to the trailing week.
	to := time.Now()
	from := to.AddDate(0, 0, -7)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondWithBadRequest(c, "invalid 'from' timestamp")
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondWithBadRequest(c, "invalid 'to' timestamp")
			return
		}
		to = t
	}

	doses, err := h.service.ListDoses(c.Request.Context(), patientID, from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doses)
}

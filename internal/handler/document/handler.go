package document

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/handler"
	"github.com/oculomed/glauco-api/internal/model"
	docsvc "github.com/oculomed/glauco-api/internal/service/document"
	"github.com/oculomed/glauco-api/pkg/httputil"
)

type Handler struct {
	service  docsvc.Service
	resolver *handler.PatientResolver
}

func NewHandler(service docsvc.Service, resolver *handler.PatientResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	docs := r.Group("/documents")
	{
		docs.POST("", h.Upload)
		docs.GET("", h.List)
		docs.GET("/:id", h.Get)
		docs.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Upload(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		httputil.RespondWithBadRequest(c, "missing or invalid 'file' field")
		return
	}
	defer file.Close()

	category := model.DocumentCategory(c.PostForm("category"))
	if category == "" {
		category = model.DocumentCategoryOther
	}
	description := c.PostForm("description")

	doc, err := h.service.Upload(c.Request.Context(), patientID, file, header, category, description)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, doc)
}

func (h *Handler) Get(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid document ID")
		return
	}

	doc, err := h.service.Get(c.Request.Context(), id, patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doc)
}

func (h *Handler) List(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	docs, err := h.service.List(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, docs)
}

func (h *Handler) Delete(c *gin.Context) {
	patientID, err := h.resolver.PatientID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid document ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, patientID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "document deleted"})
}

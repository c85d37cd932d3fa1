package notification

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/middleware"
	"github.com/oculomed/glauco-api/internal/model"
	notifsvc "github.com/oculomed/glauco-api/internal/service/notification"
	"github.com/oculomed/glauco-api/pkg/httputil"
)

type Handler struct {
	service notifsvc.Service
}

func NewHandler(service notifsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/:id/read", h.MarkRead)
		notifications.PUT("/read-all", h.MarkAllRead)
	}

	push := r.Group("/push-subscriptions")
	{
		push.POST("", h.Subscribe)
		push.DELETE("", h.Unsubscribe)
	}
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithBadRequest(c, "no authenticated user")
		return
	}

	filters := &model.NotificationFilters{
		RecipientID: userID,
		UnreadOnly:  c.Query("unread") == "true",
	}
	var err error
	filters.Page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid page")
		return
	}
	filters.PageSize, err = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid page_size")
		return
	}

	notifications, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, notifications)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithBadRequest(c, "no authenticated user")
		return
	}

	count, err := h.service.CountUnread(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"unread": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithBadRequest(c, "no authenticated user")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid notification ID")
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "notification marked as read"})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithBadRequest(c, "no authenticated user")
		return
	}

	if err := h.service.MarkAllRead(c.Request.Context(), userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "all notifications marked as read"})
}

func (h *Handler) Subscribe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithBadRequest(c, "no authenticated user")
		return
	}

	var req model.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	if err := h.service.Subscribe(c.Request.Context(), userID, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, gin.H{"message": "subscription registered"})
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithBadRequest(c, "no authenticated user")
		return
	}

	var req model.UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBadRequest(c, err.Error())
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), userID, req.Endpoint); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "subscription removed"})
}

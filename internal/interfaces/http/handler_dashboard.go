package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chatdagang/internal/entities"
	"chatdagang/internal/usecases"
)

type DashboardHandler struct {
	dashboard *usecases.DashboardUsecase
	auth      *usecases.AuthUsecase
}

func NewDashboardHandler(dashboard *usecases.DashboardUsecase, auth *usecases.AuthUsecase) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, auth: auth}
}

func (h *DashboardHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *DashboardHandler) Register(c *gin.Context) {
	var req struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		BusinessID int64  `json:"business_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(req.Username) < 3 || len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password (min 6 chars)"})
		return
	}
	if err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.BusinessID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

func (h *DashboardHandler) ListCarts(c *gin.Context) {
	views, err := h.dashboard.ListCarts(c.Request.Context(), businessID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load carts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"carts": views})
}

func (h *DashboardHandler) CancelCart(c *gin.Context) {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart id"})
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.dashboard.CancelCart(c.Request.Context(), businessID(c), cartID, req.Note); err != nil {
		if errors.Is(err, usecases.ErrCartClosed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Cart already closed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// SetHandover locks or unlocks a conversation for manual takeover. While
// locked, inbound messages are logged but the bot stays silent.
func (h *DashboardHandler) SetHandover(c *gin.Context) {
	var req struct {
		CustomerChannelID string `json:"customer_channel_id" binding:"required"`
		EmployeeID        *int64 `json:"employee_id"`
		Locked            bool   `json:"locked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	key := entities.ConversationKey{BusinessID: businessID(c), CustomerChannelID: req.CustomerChannelID}
	if err := h.dashboard.SetHandover(c.Request.Context(), key, req.EmployeeID, req.Locked); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update handover"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "locked": req.Locked})
}

func (h *DashboardHandler) Transcript(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	key := entities.ConversationKey{
		BusinessID:        businessID(c),
		CustomerChannelID: c.Param("customerID"),
	}

	logs, err := h.dashboard.Transcript(c.Request.Context(), key, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transcript"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": logs})
}

func (h *DashboardHandler) CreateReservation(c *gin.Context) {
	var req struct {
		ResourceID        string    `json:"resource_id" binding:"required"`
		CustomerChannelID string    `json:"customer_channel_id"`
		StartsAt          time.Time `json:"starts_at" binding:"required"`
		EndsAt            time.Time `json:"ends_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res := &entities.Reservation{
		BusinessID:        businessID(c),
		ResourceID:        req.ResourceID,
		CustomerChannelID: req.CustomerChannelID,
		StartsAt:          req.StartsAt,
		EndsAt:            req.EndsAt,
	}
	if err := h.dashboard.BookReservation(c.Request.Context(), res); err != nil {
		if errors.Is(err, usecases.ErrSlotTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Slot already booked"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reservation": res})
}

func (h *DashboardHandler) ListReservations(c *gin.Context) {
	reservations, err := h.dashboard.ListReservations(c.Request.Context(), businessID(c), c.Query("resource_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reservations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}

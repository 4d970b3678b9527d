package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/middleware"
	"github.com/aimoney/aimoney-api/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCustomerName = "고객"

// OrderController serves /api/v1/orders
type OrderController struct {
	db *gorm.DB
}

// NewOrderController creates an order controller over the given store
func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{db: db}
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	OrderID       string `json:"order_id" binding:"required"`
	ProductName   string `json:"product_name" binding:"required"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	PaymentMethod string `json:"payment_method"`
	PaymentKey    string `json:"payment_key"`
}

// UpdateOrderRequest represents the request body for updating an order.
// Status is stored verbatim; it is not checked against the known statuses.
type UpdateOrderRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders handles GET /api/v1/orders - the caller's orders, or every order with ?admin=true
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	query := ctrl.db.WithContext(c.Request.Context()).Order("created_at DESC")

	if c.Query("admin") == "true" {
		if !session.IsAdmin() {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "Admin role required to list all orders")
			return
		}
	} else {
		query = query.Where("user_email = ?", session.Email)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to list orders", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve orders")
		return
	}

	respondSuccess(c, http.StatusOK, orders)
}

// CreateOrder handles POST /api/v1/orders - records a paid order for the caller.
// Re-submitting a payment key the caller already recorded returns the stored order.
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Invalid request data", err)
		return
	}

	userName := session.Name
	if userName == "" {
		userName = defaultCustomerName
	}
	userID := session.UserID
	if userID == "" {
		userID = session.Email
	}

	order := models.Order{
		OrderID:       req.OrderID,
		UserID:        userID,
		UserEmail:     session.Email,
		UserName:      userName,
		ProductName:   req.ProductName,
		Amount:        req.Amount,
		Status:        models.OrderStatusPaid,
		PaymentMethod: req.PaymentMethod,
	}
	if key := strings.TrimSpace(req.PaymentKey); key != "" {
		order.PaymentKey = &key
	}

	ctx := c.Request.Context()
	log := logger.FromCtx(ctx)

	if err := ctrl.db.WithContext(ctx).Create(&order).Error; err != nil {
		if isDuplicateKeyError(err) && order.PaymentKey != nil {
			ctrl.respondExistingOrder(c, session, *order.PaymentKey)
			return
		}
		log.Error("Failed to create order", zap.String("order_id", req.OrderID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order")
		return
	}

	log.Info("Order created",
		zap.String("id", order.ID),
		zap.String("order_id", order.OrderID),
		zap.Int64("amount", order.Amount),
	)
	respondSuccess(c, http.StatusCreated, order)
}

func (ctrl *OrderController) respondExistingOrder(c *gin.Context, session *middleware.Session, paymentKey string) {
	var existing models.Order
	if err := ctrl.db.WithContext(c.Request.Context()).Where("payment_key = ?", paymentKey).First(&existing).Error; err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to load order for duplicate payment key", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order")
		return
	}

	if existing.UserEmail != session.Email {
		respondError(c, http.StatusConflict, "ORDER_EXISTS", "An order for this payment already exists")
		return
	}

	respondSuccess(c, http.StatusOK, existing)
}

// GetOrder handles GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	order, ok := ctrl.loadOrder(c, session)
	if !ok {
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// UpdateOrder handles PATCH /api/v1/orders/:id - overwrites the status
func (ctrl *OrderController) UpdateOrder(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Invalid request data", err)
		return
	}

	order, ok := ctrl.loadOrder(c, session)
	if !ok {
		return
	}

	log := logger.FromCtx(c.Request.Context())
	if !models.IsKnownOrderStatus(req.Status) {
		log.Warn("Order status outside the known set", zap.String("id", order.ID), zap.String("status", req.Status))
	}

	// Save stamps updated_at
	order.Status = req.Status
	if err := ctrl.db.WithContext(c.Request.Context()).Save(order).Error; err != nil {
		log.Error("Failed to update order", zap.String("id", order.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order")
		return
	}

	respondSuccess(c, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/orders/:id
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	order, ok := ctrl.loadOrder(c, session)
	if !ok {
		return
	}

	if err := ctrl.db.WithContext(c.Request.Context()).Delete(order).Error; err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to delete order", zap.String("id", order.ID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete order")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": order.ID})
}

// loadOrder fetches :id and checks the caller owns it or is an admin
func (ctrl *OrderController) loadOrder(c *gin.Context, session *middleware.Session) (*models.Order, bool) {
	var order models.Order
	err := ctrl.db.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return nil, false
	}
	if err != nil {
		logger.FromCtx(c.Request.Context()).Error("Failed to load order", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve order")
		return nil, false
	}

	if order.UserEmail != session.Email && !session.IsAdmin() {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
		return nil, false
	}

	return &order, true
}

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/Nik-nicole/energym1-sub001/kafka"
	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type AdminHandler struct {
	db       *sql.DB
	producer sarama.SyncProducer
	logger   *zap.Logger
}

func NewAdminHandler(db *sql.DB, producer sarama.SyncProducer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		db:       db,
		producer: producer,
		logger:   logger,
	}
}

// UpdateOrderStatus applies one edge of the status graph. The read and the
// write share a row lock so racing admins cannot lose updates. Payment
// status is deliberately untouched here.
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "UpdateOrderStatus")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Orden inválida"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Estado inválido: " + string(req.Status)})
		return
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to begin transaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer tx.Rollback()

	var current models.OrderStatus
	err = tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Orden no encontrada"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to get order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	if !models.CanTransition(current, req.Status) {
		transErr := &models.InvalidTransitionError{From: current, To: req.Status}
		c.JSON(http.StatusBadRequest, gin.H{"error": transErr.Error()})
		return
	}

	var order models.Order
	err = scanOrder(tx.QueryRowContext(ctx,
		"UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING "+orderSelectColumns,
		req.Status, orderID), &order)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to update order status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to commit status update", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	event := models.OrderEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		EventType:     "order_status_changed",
	}
	if err := kafka.PublishOrderEvent(ctx, h.producer, kafka.OrderEventsTopic, event, h.logger); err != nil {
		h.logger.Error("Failed to publish order_status_changed event", zap.Error(err))
	}

	h.logger.Info("Order status updated",
		zap.Int("order_id", orderID),
		zap.String("from", string(current)),
		zap.String("to", string(req.Status)),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// DeleteOrder cascades over payments and items in one transaction.
func (h *AdminHandler) DeleteOrder(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "DeleteOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Orden inválida"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to begin transaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE order_id = $1", orderID); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to delete payments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to delete order items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to delete order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Orden no encontrada"})
		return
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to commit order delete", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("Order deleted", zap.Int("order_id", orderID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetUserPlan is an administrative escape hatch: it forces the user's most
// recent order containing the plan straight to CONFIRMED/PAID or
// CANCELLED/CANCELLED, bypassing the transition table on purpose.
func (h *AdminHandler) SetUserPlan(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "SetUserPlan")
	defer span.End()

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Usuario inválido"})
		return
	}

	var req models.SetUserPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int("user_id", userID),
		attribute.Int("plan_id", req.PlanID),
		attribute.Bool("is_active", *req.IsActive),
	)

	status, paymentStatus := models.OrderStatusConfirmed, models.OrderPaymentPaid
	if !*req.IsActive {
		status, paymentStatus = models.OrderStatusCancelled, models.OrderPaymentCancelled
	}

	order, err := h.forceOrderState(ctx, userID, req.PlanID, status, paymentStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "El usuario no tiene órdenes con ese plan"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to set user plan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("User plan toggled",
		zap.Int("user_id", userID),
		zap.Int("plan_id", req.PlanID),
		zap.Bool("is_active", *req.IsActive),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// forceOrderState writes both status fields directly, without consulting
// the transition table.
func (h *AdminHandler) forceOrderState(ctx context.Context, userID, planID int, status models.OrderStatus, paymentStatus models.OrderPaymentStatus) (models.Order, error) {
	var order models.Order

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return order, err
	}
	defer tx.Rollback()

	var orderID int
	err = tx.QueryRowContext(ctx,
		`SELECT o.id FROM orders o
		 JOIN order_items oi ON oi.order_id = o.id
		 WHERE o.user_id = $1 AND oi.plan_id = $2
		 ORDER BY o.created_at DESC LIMIT 1 FOR UPDATE OF o`,
		userID, planID).Scan(&orderID)
	if err != nil {
		return order, err
	}

	err = scanOrder(tx.QueryRowContext(ctx,
		"UPDATE orders SET status = $1, payment_status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3 RETURNING "+orderSelectColumns,
		status, paymentStatus, orderID), &order)
	if err != nil {
		return order, err
	}

	return order, tx.Commit()
}

func (h *AdminHandler) SetUserActive(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Usuario inválido"})
		return
	}

	var req models.SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err = h.db.QueryRowContext(c.Request.Context(),
		"UPDATE users SET is_active = $1 WHERE id = $2 RETURNING id, name, email, role, is_active, created_at",
		*req.IsActive, userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
			return
		}
		h.logger.Error("Failed to toggle user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("User toggled", zap.Int("user_id", userID), zap.Bool("is_active", user.IsActive))
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		"SELECT id, name, email, role, is_active, created_at FROM users ORDER BY id")
	if err != nil {
		h.logger.Error("Failed to fetch users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			h.logger.Error("Failed to scan user", zap.Error(err))
			continue
		}
		users = append(users, u)
	}

	c.JSON(http.StatusOK, users)
}

// GetOrders is the back-office listing with buyer info attached.
func (h *AdminHandler) GetOrders(c *gin.Context) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		`SELECT o.id, o.order_number, o.user_id, o.total_amount, o.status, o.payment_status, o.payment_method,
		        COALESCE(o.shipping_address, ''), COALESCE(o.shipping_city, ''), o.created_at, o.updated_at,
		        u.name, u.email
		 FROM orders o JOIN users u ON u.id = o.user_id
		 ORDER BY o.created_at DESC`)
	if err != nil {
		h.logger.Error("Failed to fetch orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer rows.Close()

	type adminOrder struct {
		models.Order
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}

	orders := []adminOrder{}
	for rows.Next() {
		var o adminOrder
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentStatus,
			&o.PaymentMethod, &o.ShippingAddress, &o.ShippingCity, &o.CreatedAt, &o.UpdatedAt,
			&o.UserName, &o.UserEmail); err != nil {
			h.logger.Error("Failed to scan order", zap.Error(err))
			continue
		}
		orders = append(orders, o)
	}

	c.JSON(http.StatusOK, orders)
}

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/Nik-nicole/energym1-sub001/kafka"
	"github.com/Nik-nicole/energym1-sub001/middleware"
	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// simulatedGatewayLatency stands in for the round trip to a real payment
// gateway. The simulation itself never fails once validation passes.
const simulatedGatewayLatency = 150 * time.Millisecond

type PaymentHandler struct {
	db       *sql.DB
	producer sarama.SyncProducer
	logger   *zap.Logger
}

func NewPaymentHandler(db *sql.DB, producer sarama.SyncProducer, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		db:       db,
		producer: producer,
		logger:   logger,
	}
}

// SimulatePayment confirms a pending order and records exactly one
// COMPLETED payment, all under a row lock so concurrent attempts cannot
// double-pay.
func (h *PaymentHandler) SimulatePayment(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "SimulatePayment")
	defer span.End()

	userID := middleware.UserID(c)

	var req models.SimulatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int("order.id", req.OrderID),
		attribute.Float64("payment.amount", req.Amount),
	)

	time.Sleep(simulatedGatewayLatency)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to begin transaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer tx.Rollback()

	var order models.Order
	err = scanOrder(tx.QueryRowContext(ctx,
		"SELECT "+orderSelectColumns+" FROM orders WHERE id = $1 FOR UPDATE", req.OrderID), &order)
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

	if order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Orden no encontrada"})
		return
	}

	if order.PaymentStatus != models.OrderPaymentPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La orden ya fue procesada"})
		return
	}

	if math.Abs(req.Amount-order.TotalAmount) > 0.01 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El monto no coincide con el total de la orden"})
		return
	}

	err = scanOrder(tx.QueryRowContext(ctx,
		"UPDATE orders SET status = $1, payment_status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3 RETURNING "+orderSelectColumns,
		models.OrderStatusConfirmed, models.OrderPaymentPaid, order.ID), &order)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to update order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	transactionID := "TXN-" + uuid.NewString()
	gatewayResponse := fmt.Sprintf(`{"simulated": true, "approved_at": %q}`, time.Now().UTC().Format(time.RFC3339))

	var payment models.Payment
	err = tx.QueryRowContext(ctx,
		"INSERT INTO payments (order_id, amount, method, status, transaction_id, gateway_response) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, order_id, amount, method, status, transaction_id, created_at",
		order.ID, req.Amount, req.PaymentMethod, models.PaymentStatusCompleted, transactionID, gatewayResponse,
	).Scan(&payment.ID, &payment.OrderID, &payment.Amount, &payment.Method, &payment.Status, &payment.TransactionID, &payment.CreatedAt)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to create payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to commit payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	middleware.RecordPaymentProcessed(string(payment.Status))

	event := models.OrderEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		EventType:     "order_paid",
	}
	if err := kafka.PublishOrderEvent(ctx, h.producer, kafka.OrderEventsTopic, event, h.logger); err != nil {
		h.logger.Error("Failed to publish order_paid event", zap.Error(err))
	}

	h.logger.Info("Payment simulated",
		zap.Int("order_id", order.ID),
		zap.String("transaction_id", payment.TransactionID),
	)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": payment,
		"order":   order,
	})
}

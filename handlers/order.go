package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/Nik-nicole/energym1-sub001/kafka"
	"github.com/Nik-nicole/energym1-sub001/middleware"
	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type OrderHandler struct {
	db       *sql.DB
	producer sarama.SyncProducer
	logger   *zap.Logger
}

func NewOrderHandler(db *sql.DB, producer sarama.SyncProducer, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		db:       db,
		producer: producer,
		logger:   logger,
	}
}

// newOrderNumber is time-based with a random suffix, unique enough for a
// human-readable reference; the column's UNIQUE constraint backs it up.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

const orderSelectColumns = "id, order_number, user_id, total_amount, status, payment_status, payment_method, COALESCE(shipping_address, ''), COALESCE(shipping_city, ''), created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }, o *models.Order) error {
	return row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &o.ShippingAddress, &o.ShippingCity, &o.CreatedAt, &o.UpdatedAt)
}

// CreateOrder validates every line item against the catalog, recomputes
// totals server-side and inserts the PENDING/PENDING order with its items
// in a single transaction.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "CreateOrder")
	defer span.End()

	userID := middleware.UserID(c)
	span.SetAttributes(attribute.Int("user_id", userID))

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La orden debe tener al menos un ítem"})
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

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = $1", userID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to check user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	// Resolve unit prices from the catalog and total server-side.
	items := make([]models.OrderItem, 0, len(req.Items))
	total := 0.0
	for _, it := range req.Items {
		if (it.ProductID == nil) == (it.PlanID == nil) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cada ítem debe referenciar un producto o un plan"})
			return
		}

		var unitPrice float64
		if it.ProductID != nil {
			err = tx.QueryRowContext(ctx, "SELECT price FROM products WHERE id = $1", *it.ProductID).Scan(&unitPrice)
		} else {
			err = tx.QueryRowContext(ctx, "SELECT price FROM plans WHERE id = $1", *it.PlanID).Scan(&unitPrice)
		}
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Ítem referencia un producto o plan inexistente"})
				return
			}
			span.RecordError(err)
			h.logger.Error("Failed to resolve item price", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}

		lineTotal := float64(it.Quantity) * unitPrice
		items = append(items, models.OrderItem{
			ProductID:  it.ProductID,
			PlanID:     it.PlanID,
			Quantity:   it.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: lineTotal,
		})
		total += lineTotal
	}

	if math.Abs(total-req.TotalAmount) > 0.01 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El total no coincide con los ítems"})
		return
	}

	var order models.Order
	err = scanOrder(tx.QueryRowContext(ctx,
		"INSERT INTO orders (order_number, user_id, total_amount, status, payment_status, payment_method, shipping_address, shipping_city) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING "+orderSelectColumns,
		newOrderNumber(), userID, total, models.OrderStatusPending, models.OrderPaymentPending,
		req.PaymentMethod, req.ShippingAddress, req.ShippingCity), &order)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to create order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowContext(ctx,
			"INSERT INTO order_items (order_id, product_id, plan_id, quantity, unit_price, total_price) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
			order.ID, items[i].ProductID, items[i].PlanID, items[i].Quantity, items[i].UnitPrice, items[i].TotalPrice,
		).Scan(&items[i].ID)
		if err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to create order item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to commit order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	order.Items = items

	span.SetAttributes(attribute.Int("order.id", order.ID))
	middleware.RecordOrderCreated()

	event := models.OrderEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		EventType:     "order_created",
	}
	if err := kafka.PublishOrderEvent(ctx, h.producer, kafka.OrderEventsTopic, event, h.logger); err != nil {
		h.logger.Error("Failed to publish order_created event", zap.Error(err))
	}

	h.logger.Info("Order created", zap.Int("order_id", order.ID), zap.String("order_number", order.OrderNumber))
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetOrders lists the caller's order history, newest first.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "GetOrders")
	defer span.End()

	userID := middleware.UserID(c)

	rows, err := h.db.QueryContext(ctx,
		"SELECT "+orderSelectColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan order", zap.Error(err))
			continue
		}
		orders = append(orders, o)
	}

	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, span := otel.Tracer("energym").Start(c.Request.Context(), "GetOrder")
	defer span.End()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Orden inválida"})
		return
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	var order models.Order
	err = scanOrder(h.db.QueryRowContext(ctx,
		"SELECT "+orderSelectColumns+" FROM orders WHERE id = $1", orderID), &order)
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

	// Owners see their own orders; admins see all.
	if order.UserID != middleware.UserID(c) && c.GetString(middleware.ContextRole) != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Acceso denegado"})
		return
	}

	items, err := h.loadItems(ctx, order.ID)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to load order items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	order.Items = items

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) loadItems(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, plan_id, quantity, unit_price, total_price FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.PlanID, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

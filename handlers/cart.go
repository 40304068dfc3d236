package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/Nik-nicole/energym1-sub001/cart"
	"github.com/Nik-nicole/energym1-sub001/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	db     *sql.DB
	store  cart.Store
	logger *zap.Logger
}

func NewCartHandler(db *sql.DB, store cart.Store, logger *zap.Logger) *CartHandler {
	return &CartHandler{db: db, store: store, logger: logger}
}

type addCartItemRequest struct {
	ProductID int `json:"product_id" binding:"required"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID := middleware.UserID(c)

	current, err := h.store.Load(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, current)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	userID := middleware.UserID(c)

	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Snapshot current catalog data into the cart entry.
	var item cart.Item
	err := h.db.QueryRowContext(c.Request.Context(),
		"SELECT id, name, price, stock, category, COALESCE(image_url, ''), COALESCE(sede_id, 0) FROM products WHERE id = $1",
		req.ProductID,
	).Scan(&item.ProductID, &item.Name, &item.Price, &item.Stock, &item.Category, &item.ImageURL, &item.SedeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
			return
		}
		h.logger.Error("Failed to fetch product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	if item.Stock < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Producto sin stock"})
		return
	}

	current, err := h.store.Load(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	current = current.AddItem(item)

	if err := h.store.Save(c.Request.Context(), userID, current); err != nil {
		h.logger.Error("Failed to save cart", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, current)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID := middleware.UserID(c)

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Producto inválido"})
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current, err := h.store.Load(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	current = current.UpdateQuantity(productID, *req.Quantity)

	if err := h.store.Save(c.Request.Context(), userID, current); err != nil {
		h.logger.Error("Failed to save cart", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, current)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID := middleware.UserID(c)

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Producto inválido"})
		return
	}

	current, err := h.store.Load(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	current = current.RemoveItem(productID)

	if err := h.store.Save(c.Request.Context(), userID, current); err != nil {
		h.logger.Error("Failed to save cart", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, current)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	userID := middleware.UserID(c)

	if err := h.store.Delete(c.Request.Context(), userID); err != nil {
		h.logger.Error("Failed to clear cart", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, cart.Cart{})
}

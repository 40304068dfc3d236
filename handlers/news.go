package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NewsHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewNewsHandler(db *sql.DB, logger *zap.Logger) *NewsHandler {
	return &NewsHandler{db: db, logger: logger}
}

// GetNews lists published entries only; drafts stay admin-side.
func (h *NewsHandler) GetNews(c *gin.Context) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		"SELECT id, title, body, COALESCE(image_url, ''), published, created_at, updated_at FROM news WHERE published = TRUE ORDER BY created_at DESC")
	if err != nil {
		h.logger.Error("Failed to fetch news", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer rows.Close()

	items := []models.News{}
	for rows.Next() {
		var n models.News
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.ImageURL, &n.Published, &n.CreatedAt, &n.UpdatedAt); err != nil {
			h.logger.Error("Failed to scan news", zap.Error(err))
			continue
		}
		items = append(items, n)
	}

	c.JSON(http.StatusOK, items)
}

func (h *NewsHandler) GetNewsItem(c *gin.Context) {
	id := c.Param("id")

	var n models.News
	err := h.db.QueryRowContext(c.Request.Context(),
		"SELECT id, title, body, COALESCE(image_url, ''), published, created_at, updated_at FROM news WHERE id = $1 AND published = TRUE",
		id,
	).Scan(&n.ID, &n.Title, &n.Body, &n.ImageURL, &n.Published, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Noticia no encontrada"})
			return
		}
		h.logger.Error("Failed to fetch news item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, n)
}

func (h *NewsHandler) CreateNews(c *gin.Context) {
	var req models.NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	var n models.News
	err := h.db.QueryRowContext(c.Request.Context(),
		"INSERT INTO news (title, body, image_url, published) VALUES ($1, $2, $3, $4) RETURNING id, title, body, COALESCE(image_url, ''), published, created_at, updated_at",
		req.Title, req.Body, req.ImageURL, published,
	).Scan(&n.ID, &n.Title, &n.Body, &n.ImageURL, &n.Published, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		h.logger.Error("Failed to create news", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("News created", zap.Int("news_id", n.ID))
	c.JSON(http.StatusCreated, n)
}

func (h *NewsHandler) UpdateNews(c *gin.Context) {
	id := c.Param("id")

	var req models.NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	var n models.News
	err := h.db.QueryRowContext(c.Request.Context(),
		"UPDATE news SET title = $1, body = $2, image_url = $3, published = $4, updated_at = CURRENT_TIMESTAMP WHERE id = $5 RETURNING id, title, body, COALESCE(image_url, ''), published, created_at, updated_at",
		req.Title, req.Body, req.ImageURL, published, id,
	).Scan(&n.ID, &n.Title, &n.Body, &n.ImageURL, &n.Published, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Noticia no encontrada"})
			return
		}
		h.logger.Error("Failed to update news", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("News updated", zap.String("news_id", id))
	c.JSON(http.StatusOK, n)
}

func (h *NewsHandler) DeleteNews(c *gin.Context) {
	id := c.Param("id")

	result, err := h.db.ExecContext(c.Request.Context(), "DELETE FROM news WHERE id = $1", id)
	if err != nil {
		h.logger.Error("Failed to delete news", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Noticia no encontrada"})
		return
	}

	h.logger.Info("News deleted", zap.String("news_id", id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

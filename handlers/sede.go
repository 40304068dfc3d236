package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SedeHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSedeHandler(db *sql.DB, logger *zap.Logger) *SedeHandler {
	return &SedeHandler{db: db, logger: logger}
}

func (h *SedeHandler) GetSedes(c *gin.Context) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		"SELECT id, name, address, city, COALESCE(phone, ''), COALESCE(image_url, ''), created_at, updated_at FROM sedes ORDER BY id")
	if err != nil {
		h.logger.Error("Failed to fetch sedes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer rows.Close()

	sedes := []models.Sede{}
	for rows.Next() {
		var s models.Sede
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.Phone, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt); err != nil {
			h.logger.Error("Failed to scan sede", zap.Error(err))
			continue
		}
		sedes = append(sedes, s)
	}

	c.JSON(http.StatusOK, sedes)
}

func (h *SedeHandler) GetSede(c *gin.Context) {
	id := c.Param("id")

	var s models.Sede
	err := h.db.QueryRowContext(c.Request.Context(),
		"SELECT id, name, address, city, COALESCE(phone, ''), COALESCE(image_url, ''), created_at, updated_at FROM sedes WHERE id = $1",
		id,
	).Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.Phone, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sede no encontrada"})
			return
		}
		h.logger.Error("Failed to fetch sede", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, s)
}

func (h *SedeHandler) CreateSede(c *gin.Context) {
	var req models.SedeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var s models.Sede
	err := h.db.QueryRowContext(c.Request.Context(),
		"INSERT INTO sedes (name, address, city, phone, image_url) VALUES ($1, $2, $3, $4, $5) RETURNING id, name, address, city, COALESCE(phone, ''), COALESCE(image_url, ''), created_at, updated_at",
		req.Name, req.Address, req.City, req.Phone, req.ImageURL,
	).Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.Phone, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		h.logger.Error("Failed to create sede", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("Sede created", zap.Int("sede_id", s.ID))
	c.JSON(http.StatusCreated, s)
}

func (h *SedeHandler) UpdateSede(c *gin.Context) {
	id := c.Param("id")

	var req models.SedeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var s models.Sede
	err := h.db.QueryRowContext(c.Request.Context(),
		"UPDATE sedes SET name = $1, address = $2, city = $3, phone = $4, image_url = $5, updated_at = CURRENT_TIMESTAMP WHERE id = $6 RETURNING id, name, address, city, COALESCE(phone, ''), COALESCE(image_url, ''), created_at, updated_at",
		req.Name, req.Address, req.City, req.Phone, req.ImageURL, id,
	).Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.Phone, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sede no encontrada"})
			return
		}
		h.logger.Error("Failed to update sede", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("Sede updated", zap.String("sede_id", id))
	c.JSON(http.StatusOK, s)
}

func (h *SedeHandler) DeleteSede(c *gin.Context) {
	id := c.Param("id")

	result, err := h.db.ExecContext(c.Request.Context(), "DELETE FROM sedes WHERE id = $1", id)
	if err != nil {
		h.logger.Error("Failed to delete sede", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sede no encontrada"})
		return
	}

	h.logger.Info("Sede deleted", zap.String("sede_id", id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

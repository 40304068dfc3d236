package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/Nik-nicole/energym1-sub001/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PlanHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPlanHandler(db *sql.DB, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{db: db, logger: logger}
}

func (h *PlanHandler) GetPlans(c *gin.Context) {
	rows, err := h.db.QueryContext(c.Request.Context(),
		"SELECT id, name, COALESCE(description, ''), price, duration_days, created_at, updated_at FROM plans ORDER BY price")
	if err != nil {
		h.logger.Error("Failed to fetch plans", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationDays, &p.CreatedAt, &p.UpdatedAt); err != nil {
			h.logger.Error("Failed to scan plan", zap.Error(err))
			continue
		}
		plans = append(plans, p)
	}

	c.JSON(http.StatusOK, plans)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	id := c.Param("id")

	var p models.Plan
	err := h.db.QueryRowContext(c.Request.Context(),
		"SELECT id, name, COALESCE(description, ''), price, duration_days, created_at, updated_at FROM plans WHERE id = $1",
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationDays, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan no encontrado"})
			return
		}
		h.logger.Error("Failed to fetch plan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var p models.Plan
	err := h.db.QueryRowContext(c.Request.Context(),
		"INSERT INTO plans (name, description, price, duration_days) VALUES ($1, $2, $3, $4) RETURNING id, name, COALESCE(description, ''), price, duration_days, created_at, updated_at",
		req.Name, req.Description, req.Price, req.DurationDays,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationDays, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		h.logger.Error("Failed to create plan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("Plan created", zap.Int("plan_id", p.ID))
	c.JSON(http.StatusCreated, p)
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	id := c.Param("id")

	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var p models.Plan
	err := h.db.QueryRowContext(c.Request.Context(),
		"UPDATE plans SET name = $1, description = $2, price = $3, duration_days = $4, updated_at = CURRENT_TIMESTAMP WHERE id = $5 RETURNING id, name, COALESCE(description, ''), price, duration_days, created_at, updated_at",
		req.Name, req.Description, req.Price, req.DurationDays, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationDays, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan no encontrado"})
			return
		}
		h.logger.Error("Failed to update plan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	h.logger.Info("Plan updated", zap.String("plan_id", id))
	c.JSON(http.StatusOK, p)
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	id := c.Param("id")

	result, err := h.db.ExecContext(c.Request.Context(), "DELETE FROM plans WHERE id = $1", id)
	if err != nil {
		h.logger.Error("Failed to delete plan", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan no encontrado"})
		return
	}

	h.logger.Info("Plan deleted", zap.String("plan_id", id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

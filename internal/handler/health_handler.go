package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spikeapp/spike-server/internal/pkg/response"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c *gin.Context) {
	var one int
	if err := h.db.QueryRowContext(c.Request.Context(), "SELECT 1").Scan(&one); err != nil {
		response.Error(c, http.StatusInternalServerError, "database unreachable")
		return
	}
	response.Success(c, gin.H{"db": "up"})
}

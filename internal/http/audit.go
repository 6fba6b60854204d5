package http

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"chitti-admin/internal/audit"
	"chitti-admin/internal/backend"
)

// GET /v1/audit?entity=payment&action=status&page=2
func (s *Server) listAudit(c *gin.Context) {
	if s.audit == nil {
		writeError(c, 503, "audit_disabled", "The audit log is not configured")
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	rows, total, err := s.audit.List(c.Request.Context(), audit.Query{
		Entity: c.Query("entity"),
		Action: c.Query("action"),
		Page:   page,
		Size:   s.cfg.PageSize,
	})
	if err != nil {
		log.Printf("audit list: %v", err)
		writeError(c, 500, "internal_error", backend.GenericMessage)
		return
	}
	c.JSON(200, gin.H{
		"rows":      rows,
		"page":      page,
		"page_size": s.cfg.PageSize,
		"total":     total,
	})
}

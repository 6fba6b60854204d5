package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"chitti-admin/internal/views"
)

// GET /v1/payments/monthly?year=2025
//
// Per-month payment counts and approved amount for the year either side of year.
func (s *Server) paymentsMonthly(c *gin.Context) {
	year := s.today().Year()
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			writeError(c, 400, "invalid_query", "year must be a number")
			return
		}
		year = y
	}

	payments, err := s.api.ListPayments(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(200, gin.H{
		"year":  year,
		"years": views.MonthlyPayments(payments, year, s.loc),
	})
}

package http

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"chitti-admin/internal/events"
	"chitti-admin/internal/forms"
	"chitti-admin/internal/models"
	"chitti-admin/internal/views"
)

// POST /v1/payments
func (s *Server) submitPayment(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, 400, "invalid_request", "could not read body")
		return
	}
	in, err := s.forms.Payment(body)
	if err != nil {
		writeFormError(c, err)
		return
	}

	msg, err := s.api.CreatePayment(c.Request.Context(), in)
	s.finish(c, change{
		action:  "create",
		entity:  "payment",
		key:     in.Phone,
		fields:  []string{"phone", "paid_amount", "utr_number"},
		event:   events.PaymentSubmitted,
		payload: in,
	}, err)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(201, gin.H{"message": successMessage(msg, "Payment submitted successfully!")})
}

func (s *Server) filteredPayments(c *gin.Context) ([]models.Payment, int, bool) {
	q, page := listQuery(c)
	status, err := views.PaymentStatusFilter(c.Query("status"))
	if err != nil {
		writeQueryError(c, err)
		return nil, page, false
	}
	month, err := views.PaymentMonthFilter(c.Query("month"), c.Query("year"), s.now(), s.loc)
	if err != nil {
		writeQueryError(c, err)
		return nil, page, false
	}
	payments, err := s.api.ListPayments(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return nil, page, false
	}
	rows, err := views.Payments.Apply(payments, q, status, month)
	if err != nil {
		writeQueryError(c, err)
		return nil, page, false
	}
	return rows, page, true
}

// GET /v1/payments
func (s *Server) listPayments(c *gin.Context) {
	rows, page, ok := s.filteredPayments(c)
	if !ok {
		return
	}
	p := pageOf(s, rows, page)
	c.JSON(200, gin.H{
		"rows":        p.Rows,
		"page":        p.Page,
		"page_size":   p.PageSize,
		"total_pages": p.TotalPages,
		"total":       p.Total,
		"stats":       views.SummarizePayments(rows),
	})
}

// GET /v1/payments/export
func (s *Server) exportPayments(c *gin.Context) {
	rows, _, ok := s.filteredPayments(c)
	if !ok {
		return
	}
	writeCSV(c, &views.Payments, rows, "payments_"+s.today().Format("2006-01-02")+".csv")
}

type statusInput struct {
	Phone          string `json:"phone"`
	CreatedAt      string `json:"created_at"`
	ApprovalStatus string `json:"approval_status"`
}

// PUT /v1/payments/status
func (s *Server) updatePaymentStatus(c *gin.Context) {
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, 400, "invalid_request", err.Error())
		return
	}
	// created_at goes back exactly as the backend sent it; only the phone is trimmed.
	key := models.PaymentKey{Phone: strings.TrimSpace(input.Phone), CreatedAt: input.CreatedAt}
	status, fields := validatePaymentUpdate(key, input.ApprovalStatus)
	if len(fields) > 0 {
		writeFormError(c, fields)
		return
	}

	msg, err := s.setPaymentStatus(c, key, status)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": successMessage(msg, "Payment updated successfully")})
}

func validatePaymentUpdate(key models.PaymentKey, rawStatus string) (models.ApprovalStatus, forms.Errors) {
	fields := forms.Errors{}
	if strings.TrimSpace(key.Phone) == "" {
		fields["phone"] = "Phone number is required"
	}
	if strings.TrimSpace(key.CreatedAt) == "" {
		fields["created_at"] = "created_at is required"
	}
	status, err := models.ParseApprovalStatus(rawStatus)
	if err != nil {
		fields["approval_status"] = badStatusMessage
	}
	return status, fields
}

func (s *Server) setPaymentStatus(c *gin.Context, key models.PaymentKey, status models.ApprovalStatus) (string, error) {
	update := models.PaymentStatusUpdate{Phone: key.Phone, CreatedAt: key.CreatedAt, ApprovalStatus: status}

	unlock := s.locks.Lock("payment:" + key.String())
	msg, err := s.api.UpdatePayment(c.Request.Context(), update)
	unlock()

	s.finish(c, change{
		action:  "status",
		entity:  "payment",
		key:     key.String(),
		fields:  []string{"approval_status"},
		event:   events.PaymentStatusChanged,
		payload: update,
	}, err)
	return msg, err
}

// POST /v1/payments/bulk-status
//
// Items are applied in order and the first failure stops the batch.
func (s *Server) bulkPaymentStatus(c *gin.Context) {
	var input struct {
		Items          []models.PaymentKey `json:"items"`
		ApprovalStatus string              `json:"approval_status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, 400, "invalid_request", err.Error())
		return
	}
	if len(input.Items) == 0 {
		writeFormError(c, forms.Errors{"items": "Select at least one payment"})
		return
	}
	status, err := models.ParseApprovalStatus(input.ApprovalStatus)
	if err != nil {
		writeFormError(c, forms.Errors{"approval_status": badStatusMessage})
		return
	}
	for i := range input.Items {
		input.Items[i].Phone = strings.TrimSpace(input.Items[i].Phone)
		if err := input.Items[i].Validate(); err != nil {
			writeFormError(c, forms.Errors{"items": fmt.Sprintf("Item %d: %v", i+1, err)})
			return
		}
	}

	updated := 0
	for _, key := range input.Items {
		if _, err := s.setPaymentStatus(c, key, status); err != nil {
			code, msg := backendStatus(err)
			c.AbortWithStatusJSON(code, gin.H{
				"error":   "bulk_update_failed",
				"message": msg,
				"updated": updated,
				"failed":  key,
			})
			return
		}
		updated++
	}
	c.JSON(200, gin.H{"message": "Payments updated successfully", "updated": updated})
}

package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chitti-admin/internal/events"
	"chitti-admin/internal/forms"
	"chitti-admin/internal/models"
	"chitti-admin/internal/views"
)

// POST /v1/members
func (s *Server) createMember(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, 400, "invalid_request", "could not read body")
		return
	}
	in, err := s.forms.Customer(body)
	if err != nil {
		writeFormError(c, err)
		return
	}

	msg, err := s.api.CreateCustomer(c.Request.Context(), in)
	s.finish(c, change{
		action:  "create",
		entity:  "member",
		key:     in.Phone,
		fields:  []string{"phone", "full_name", "address", "start_date", "total_months"},
		event:   events.MemberCreated,
		payload: gin.H{"phone": in.Phone, "full_name": in.FullName, "start_date": in.StartDate, "total_months": in.TotalMonths},
	}, err)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(201, gin.H{"message": successMessage(msg, "Customer added successfully!")})
}

// GET /v1/members
func (s *Server) listMembers(c *gin.Context) {
	q, page := listQuery(c)
	status, err := views.MemberStatusFilter(c.Query("status"))
	if err != nil {
		writeQueryError(c, err)
		return
	}
	members, err := s.api.ListCustomers(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return
	}
	rows, err := views.Members.Apply(views.MemberViews(members, s.today()), q, status)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(200, pageOf(s, rows, page))
}

// PUT /v1/members/:phone/status
func (s *Server) updateMemberStatus(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))
	var input struct {
		ApprovalStatus string  `json:"approval_status" binding:"required"`
		LastMonthPaid  *string `json:"last_month_paid"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, 400, "invalid_request", "approval_status is required")
		return
	}
	status, err := models.ParseApprovalStatus(input.ApprovalStatus)
	if err != nil {
		writeFormError(c, forms.Errors{"approval_status": badStatusMessage})
		return
	}
	update := models.MemberStatusUpdate{Phone: phone, ApprovalStatus: status}
	fields := []string{"approval_status"}
	if input.LastMonthPaid != nil {
		d := strings.TrimSpace(*input.LastMonthPaid)
		if _, err := time.Parse("2006-01-02", d); d != "" && err != nil {
			writeFormError(c, forms.Errors{"last_month_paid": "Date must be YYYY-MM-DD"})
			return
		}
		if d != "" {
			update.LastMonthPaid = &d
			fields = append(fields, "last_month_paid")
		}
	}

	unlock := s.locks.Lock("member:" + phone)
	msg, err := s.api.UpdateCustomer(c.Request.Context(), update)
	unlock()

	s.finish(c, change{
		action:  "status",
		entity:  "member",
		key:     phone,
		fields:  fields,
		event:   events.MemberStatusChanged,
		payload: update,
	}, err)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": successMessage(msg, "Customer updated successfully")})
}

func (s *Server) filteredRecords(c *gin.Context) ([]models.MemberRecord, int, bool) {
	q, page := listQuery(c)
	status, err := views.MemberRecordStatusFilter(c.Query("status"))
	if err != nil {
		writeQueryError(c, err)
		return nil, page, false
	}
	records, err := s.api.ListAllCustomers(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return nil, page, false
	}
	rows, err := views.MemberRecords.Apply(records, q, status)
	if err != nil {
		writeQueryError(c, err)
		return nil, page, false
	}
	return rows, page, true
}

// GET /v1/members/all
func (s *Server) listAllMembers(c *gin.Context) {
	rows, page, ok := s.filteredRecords(c)
	if !ok {
		return
	}
	c.JSON(200, pageOf(s, rows, page))
}

// GET /v1/members/export
func (s *Server) exportMembers(c *gin.Context) {
	rows, _, ok := s.filteredRecords(c)
	if !ok {
		return
	}
	writeCSV(c, &views.MemberRecords, rows, "customers_"+s.today().Format("2006-01-02")+".csv")
}

func (s *Server) filteredSummary(c *gin.Context) ([]models.MemberSummary, int, bool) {
	q, page := listQuery(c)
	filters, err := views.SummaryFilters(c.Query("payment_state"), c.Query("remaining"), c.Query("total_paid"))
	if err != nil {
		writeQueryError(c, err)
		return nil, page, false
	}
	summary, err := s.api.GoldUsersSummary(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return nil, page, false
	}
	rows, err := views.Summary.Apply(summary, q, filters...)
	if err != nil {
		writeQueryError(c, err)
		return nil, page, false
	}
	return rows, page, true
}

// GET /v1/members/summary
func (s *Server) listSummary(c *gin.Context) {
	rows, page, ok := s.filteredSummary(c)
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
		"stats":       views.SummarizeMembers(rows),
	})
}

// GET /v1/members/summary/export
func (s *Server) exportSummary(c *gin.Context) {
	rows, _, ok := s.filteredSummary(c)
	if !ok {
		return
	}
	writeCSV(c, &views.Summary, rows, "gold_users_"+s.today().Format("2006-01-02")+".csv")
}

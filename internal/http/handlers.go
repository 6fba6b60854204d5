package http

import (
	"bytes"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chitti-admin/internal/audit"
	"chitti-admin/internal/auth"
	"chitti-admin/internal/backend"
	"chitti-admin/internal/config"
	"chitti-admin/internal/events"
	"chitti-admin/internal/forms"
	"chitti-admin/internal/models"
	"chitti-admin/internal/table"
)

// Deps are the collaborators the admin API is built from.
type Deps struct {
	API    backend.API
	Forms  *forms.Validator
	Auth   *auth.Service
	Audit  *audit.Recorder
	Events events.Publisher
}

type Server struct {
	cfg    *config.Config
	api    backend.API
	forms  *forms.Validator
	auth   *auth.Service
	audit  *audit.Recorder
	events events.Publisher
	locks  *rowLocks
	loc    *time.Location
	now    func() time.Time
}

func NewServer(cfg *config.Config, d Deps) *gin.Engine {
	return newServer(cfg, d).routes()
}

func newServer(cfg *config.Config, d Deps) *Server {
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &Server{
		cfg:    cfg,
		api:    d.API,
		forms:  d.Forms,
		auth:   d.Auth,
		audit:  d.Audit,
		events: pub,
		locks:  newRowLocks(),
		loc:    loadLocationOrIndia(cfg.TZDefault),
		now:    time.Now,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors(s.cfg))
	r.Use(logging())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// Public
	r.POST("/v1/auth/login", s.authLogin)
	r.GET("/v1/auth/remembered", s.authRemembered)
	r.POST("/v1/payments", s.submitPayment)

	authorized := r.Group("/v1")
	authorized.Use(AuthMiddleware(s.auth))
	{
		authorized.POST("/auth/logout", s.authLogout)
		authorized.GET("/auth/session", s.authSession)

		authorized.POST("/members", s.createMember)
		authorized.GET("/members", s.listMembers)
		authorized.GET("/members/export", s.exportMembers)
		authorized.GET("/members/all", s.listAllMembers)
		authorized.GET("/members/summary", s.listSummary)
		authorized.GET("/members/summary/export", s.exportSummary)
		authorized.PUT("/members/:phone/status", s.updateMemberStatus)

		authorized.GET("/payments", s.listPayments)
		authorized.GET("/payments/export", s.exportPayments)
		authorized.GET("/payments/monthly", s.paymentsMonthly)
		authorized.PUT("/payments/status", s.updatePaymentStatus)
		authorized.POST("/payments/bulk-status", s.bulkPaymentStatus)

		authorized.GET("/collections", s.listCollection)
		authorized.POST("/collections", s.createCollectionItem)
		authorized.DELETE("/collections/:id", s.deleteCollectionItem)

		authorized.GET("/metal-rates", s.listMetalRates)
		authorized.POST("/metal-rates", s.createMetalRate)
		authorized.PUT("/metal-rates/:id", s.updateMetalRate)

		authorized.GET("/audit", s.listAudit)
	}
	return r
}

func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}

// listQuery reads search, sort, order and page. A missing page means page 1.
func listQuery(c *gin.Context) (table.Query, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	return table.Query{
		Search:  c.Query("search"),
		SortKey: strings.TrimSpace(c.Query("sort")),
		Desc:    strings.EqualFold(c.Query("order"), "desc"),
	}, page
}

func pageOf[T any](s *Server, rows []T, page int) table.Page[T] {
	return table.Paginate(rows, page, s.cfg.PageSize)
}

func writeCSV[T any](c *gin.Context, schema *table.Schema[T], rows []T, filename string) {
	var buf bytes.Buffer
	if err := schema.WriteCSV(&buf, rows); err != nil {
		writeQueryError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, "text/csv; charset=utf-8", buf.Bytes())
}

func successMessage(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

// change describes one admin mutation for the audit log and the event stream.
type change struct {
	action  string
	entity  string
	key     string
	fields  []string
	event   string
	payload any
}

// finish records the outcome of a mutation and, when it succeeded, announces it.
func (s *Server) finish(c *gin.Context, ch change, err error) {
	adminID, name := actor(c)
	entry := models.AuditEntry{
		AdminID:   adminID,
		Username:  name,
		Action:    ch.action,
		Entity:    ch.entity,
		EntityKey: ch.key,
		Fields:    ch.fields,
		Outcome:   models.OutcomeOK,
	}
	if err != nil {
		entry.Outcome = models.OutcomeFailed
		entry.Error = backend.Message(err)
	}
	s.audit.Record(c.Request.Context(), entry)
	if err == nil && ch.event != "" {
		events.Emit(c.Request.Context(), s.events, events.Event{Key: ch.event, Actor: name, Entity: ch.key, Payload: ch.payload})
	}
}

func loadLocationOrIndia(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		log.Printf("unknown time zone %q, using Asia/Kolkata", name)
	}
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+1800)
}

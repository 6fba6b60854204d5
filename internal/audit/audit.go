package audit

import (
	"context"
	"log"

	"gorm.io/gorm"

	"chitti-admin/internal/models"
)

// Recorder stores one row per admin mutation. Failing to write the log never fails
// the mutation itself.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Record(ctx context.Context, e models.AuditEntry) {
	if r == nil || r.db == nil {
		return
	}
	if e.Outcome == "" {
		e.Outcome = models.OutcomeOK
	}
	if err := r.db.WithContext(context.WithoutCancel(ctx)).Create(&e).Error; err != nil {
		log.Printf("audit: %s %s %s: %v", e.Action, e.Entity, e.EntityKey, err)
	}
}

type Query struct {
	Entity string
	Action string
	Page   int
	Size   int
}

// List returns newest entries first along with the total matching count.
func (r *Recorder) List(ctx context.Context, q Query) ([]models.AuditEntry, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.AuditEntry{})
	if q.Entity != "" {
		tx = tx.Where("entity = ?", q.Entity)
	}
	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}
	tx = tx.Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if q.Size <= 0 {
		q.Size = 10
	}
	if q.Page < 1 {
		q.Page = 1
	}
	var out []models.AuditEntry
	err := tx.Order("created_at DESC, id DESC").Offset((q.Page - 1) * q.Size).Limit(q.Size).Find(&out).Error
	return out, total, err
}

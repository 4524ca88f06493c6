package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"catasto_app_go/models"

	"gorm.io/gorm"
)

// ActorContext identifies who performs a mutation. Every mutating operation
// takes it explicitly and stamps it on the audit entries it writes.
type ActorContext struct {
	UserID    string
	SessionID string
	ClientIP  string
}

// AuditSink receives one entry per row mutation. It is called with the
// transaction of the business change; an error aborts that change.
type AuditSink interface {
	Record(tx *gorm.DB, entry *models.AuditLog) error
}

// DBAuditSink persists entries in the audit_logs table
type DBAuditSink struct{}

func (DBAuditSink) Record(tx *gorm.DB, entry *models.AuditLog) error {
	return tx.Create(entry).Error
}

// Audit is the active sink
var Audit AuditSink = DBAuditSink{}

// recordAudit snapshots before/after as JSON and hands the entry to the sink
func recordAudit(
	tx *gorm.DB,
	actor ActorContext,
	table string,
	op models.AuditOperation,
	recordID interface{},
	before interface{},
	after interface{},
) error {
	entry := models.AuditLog{
		CreatedAt:     time.Now().UTC(),
		UserID:        ptrIfNotEmpty(actor.UserID),
		SessionID:     actor.SessionID,
		ClientIP:      actor.ClientIP,
		ResourceTable: table,
		RecordID:      formatRecordID(recordID),
		Operation:     op,
	}

	if before != nil {
		bytes, err := json.Marshal(before)
		if err != nil {
			return fmt.Errorf("audit snapshot of %s: %w", table, err)
		}
		entry.OldValues = string(bytes)
	}
	if after != nil {
		bytes, err := json.Marshal(after)
		if err != nil {
			return fmt.Errorf("audit snapshot of %s: %w", table, err)
		}
		entry.NewValues = string(bytes)
	}

	if err := Audit.Record(tx, &entry); err != nil {
		return fmt.Errorf("audit %s %s %s: %w", op, table, entry.RecordID, err)
	}
	return nil
}

func formatRecordID(id interface{}) string {
	switch v := id.(type) {
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetRecordAuditHistory retrieves the audit history of one row, newest first
func GetRecordAuditHistory(db *gorm.DB, table string, recordID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("table_name = ? AND record_id = ?", table, recordID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

// AuditLogFilters contains filter options for audit log queries
type AuditLogFilters struct {
	Table     string
	RecordID  string
	Operation string
	UserID    string
	SessionID string
	DateFrom  time.Time
	DateTo    time.Time
}

// SearchAuditLogs retrieves paginated audit logs
func SearchAuditLogs(db *gorm.DB, filters AuditLogFilters, page, pageSize int) ([]models.AuditLog, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query := db.Model(&models.AuditLog{})

	if filters.Table != "" {
		query = query.Where("table_name = ?", filters.Table)
	}
	if filters.RecordID != "" {
		query = query.Where("record_id = ?", filters.RecordID)
	}
	if filters.Operation != "" {
		query = query.Where("operation = ?", filters.Operation)
	}
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.SessionID != "" {
		query = query.Where("session_id = ?", filters.SessionID)
	}
	if !filters.DateFrom.IsZero() {
		query = query.Where("created_at >= ?", filters.DateFrom)
	}
	if !filters.DateTo.IsZero() {
		query = query.Where("created_at <= ?", filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error

	return logs, total, err
}

// normalizePage clamps pagination arguments
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}

package models

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditOperation is the kind of row mutation an audit entry describes
type AuditOperation string

const (
	AuditOperationInsert AuditOperation = "INSERT"
	AuditOperationUpdate AuditOperation = "UPDATE"
	AuditOperationDelete AuditOperation = "DELETE"
)

// AuditLog is an immutable record of a single row mutation
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_created_at" json:"created_at"`

	// Actor identification
	UserID    *string `gorm:"index:idx_audit_user" json:"user_id,omitempty"`
	SessionID string  `gorm:"not null;index:idx_audit_session" json:"session_id"`
	ClientIP  string  `json:"client_ip,omitempty"`

	// Target row
	ResourceTable string         `gorm:"column:table_name;not null;index:idx_audit_record" json:"table_name"`
	RecordID      string         `gorm:"not null;index:idx_audit_record" json:"record_id"`
	Operation     AuditOperation `gorm:"not null;index:idx_audit_operation" json:"operation"`

	// Row snapshots, JSON encoded
	OldValues string `gorm:"type:text" json:"old_values,omitempty"`
	NewValues string `gorm:"type:text" json:"new_values,omitempty"`
}

// FieldChange is one column whose value differs between the two snapshots
type FieldChange struct {
	Field  string      `json:"field"`
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

// snapshotBookkeeping lists columns every write touches
var snapshotBookkeeping = map[string]bool{"updated_at": true}

func decodeSnapshot(raw string) map[string]interface{} {
	values := map[string]interface{}{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &values)
	}
	return values
}

// Diff compares the old and new snapshots column by column, sorted by name.
// Inserts report every column with a nil Before, deletes with a nil After.
func (a *AuditLog) Diff() []FieldChange {
	before := decodeSnapshot(a.OldValues)
	after := decodeSnapshot(a.NewValues)

	fields := make([]string, 0, len(before)+len(after))
	for f := range before {
		fields = append(fields, f)
	}
	for f := range after {
		if _, seen := before[f]; !seen {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)

	diff := []FieldChange{}
	for _, f := range fields {
		if snapshotBookkeeping[f] || reflect.DeepEqual(before[f], after[f]) {
			continue
		}
		diff = append(diff, FieldChange{Field: f, Before: before[f], After: after[f]})
	}
	return diff
}

// BeforeCreate generates the UUID
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate prevents modification of audit logs (immutability)
func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// BeforeDelete prevents deletion of audit logs (immutability)
func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"catasto_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRecordAudit(t *testing.T) {
	conn := setupTestDB(t)

	before := map[string]interface{}{"stato": "attiva"}
	after := map[string]interface{}{"stato": "inattiva"}
	require.NoError(t, recordAudit(conn, testActor, "partite", models.AuditOperationUpdate, uint(42), before, after))

	var entry models.AuditLog
	require.NoError(t, conn.First(&entry, "record_id = ?", "42").Error)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "partite", entry.ResourceTable)
	assert.Equal(t, models.AuditOperationUpdate, entry.Operation)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "archivista-1", *entry.UserID)
	assert.Equal(t, "sess-test", entry.SessionID)
	assert.Equal(t, "10.0.0.1", entry.ClientIP)

	var savedOld, savedNew map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entry.OldValues), &savedOld))
	require.NoError(t, json.Unmarshal([]byte(entry.NewValues), &savedNew))
	assert.Equal(t, "attiva", savedOld["stato"])
	assert.Equal(t, "inattiva", savedNew["stato"])

	// Inserts carry no old snapshot; anonymous actors leave user_id null
	require.NoError(t, recordAudit(conn, ActorContext{SessionID: "s2"}, "comuni", models.AuditOperationInsert, "abc", nil, after))
	var insert models.AuditLog
	require.NoError(t, conn.First(&insert, "record_id = ?", "abc").Error)
	assert.Empty(t, insert.OldValues)
	assert.Nil(t, insert.UserID)
}

func TestAuditLogsAreImmutable(t *testing.T) {
	conn := setupTestDB(t)
	require.NoError(t, recordAudit(conn, testActor, "partite", models.AuditOperationInsert, uint(1), nil, map[string]int{"id": 1}))

	var entry models.AuditLog
	require.NoError(t, conn.First(&entry).Error)

	entry.ClientIP = "127.0.0.1"
	assert.Error(t, conn.Save(&entry).Error)
	assert.Error(t, conn.Delete(&entry).Error)

	var reloaded models.AuditLog
	require.NoError(t, conn.First(&reloaded, "id = ?", entry.ID).Error)
	assert.Equal(t, "10.0.0.1", reloaded.ClientIP)
}

func TestAuditSinkFailureAbortsMutation(t *testing.T) {
	conn := setupTestDB(t)
	withAuditSink(t, failingSink{})

	_, err := CreateComune(context.Background(), conn, testActor, ComuneInput{Nome: "Albenga", Provincia: "Savona", Regione: "Liguria"})
	require.Error(t, err)
	assert.Zero(t, countRows(t, conn, &models.Comune{}))
}

// recordingSink keeps entries in memory and forwards to the database sink
type recordingSink struct {
	entries []models.AuditLog
}

func (s *recordingSink) Record(tx *gorm.DB, entry *models.AuditLog) error {
	s.entries = append(s.entries, *entry)
	return DBAuditSink{}.Record(tx, entry)
}

func TestWorkflowAuditTrail(t *testing.T) {
	conn := setupTestDB(t)
	seedRegistry(t, conn)
	sink := &recordingSink{}
	withAuditSink(t, sink)

	origin := registerPartita(t, conn, 10, "Casa")
	sink.entries = nil

	_, err := TransferOwnership(context.Background(), conn, testActor, TransferInput{
		OrigineID: origin.ID, Numero: 11, DataVariazione: day(2024, 6, 1),
		NuoviPossessori: []LinkInput{{PossessoreID: 7, Titolo: "proprietà esclusiva"}},
	})
	require.NoError(t, err)

	var tables []string
	for _, e := range sink.entries {
		tables = append(tables, string(e.Operation)+" "+e.ResourceTable)
		assert.Equal(t, "sess-test", e.SessionID)
	}
	assert.Equal(t, []string{
		"INSERT partite",
		"INSERT partita_possessore",
		"UPDATE immobili",
		"INSERT variazioni",
		"UPDATE partite",
	}, tables)
}

func TestSearchAuditLogs(t *testing.T) {
	conn := setupTestDB(t)
	other := ActorContext{UserID: "revisore", SessionID: "sess-2", ClientIP: "10.0.0.2"}

	require.NoError(t, recordAudit(conn, testActor, "partite", models.AuditOperationInsert, uint(1), nil, map[string]int{"id": 1}))
	require.NoError(t, recordAudit(conn, testActor, "partite", models.AuditOperationUpdate, uint(1), map[string]int{"id": 1}, map[string]int{"id": 1}))
	require.NoError(t, recordAudit(conn, other, "immobili", models.AuditOperationDelete, uint(9), map[string]int{"id": 9}, nil))

	logs, total, err := SearchAuditLogs(conn, AuditLogFilters{Table: "partite"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)

	_, total, err = SearchAuditLogs(conn, AuditLogFilters{UserID: "revisore", Operation: string(models.AuditOperationDelete)}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = SearchAuditLogs(conn, AuditLogFilters{SessionID: "sess-test", RecordID: "1"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = SearchAuditLogs(conn, AuditLogFilters{DateFrom: time.Now().UTC().Add(time.Hour)}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	page, size := normalizePage(0, 1000)
	assert.Equal(t, 1, page)
	assert.Equal(t, 50, size)
}

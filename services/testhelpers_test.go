package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"catasto_app_go/db"
	"catasto_app_go/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testActor = ActorContext{UserID: "archivista-1", SessionID: "sess-test", ClientIP: "10.0.0.1"}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	require.NoError(t, SeedDefaultCatalogs(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}

func strPtr(s string) *string { return &s }

func uintPtr(u uint) *uint { return &u }

// registryFixture seeds Comune "Albenga" (id 1) and possessori 5 and 7
type registryFixture struct {
	comune models.Comune
	mario  models.Possessore
	giulia models.Possessore
}

func seedRegistry(t *testing.T, conn *gorm.DB) registryFixture {
	t.Helper()
	f := registryFixture{
		comune: models.Comune{ID: 1, Nome: "Albenga", Provincia: "Savona", Regione: "Liguria"},
		mario:  models.Possessore{ID: 5, ComuneRiferimentoID: 1, NomeCompleto: "Rossi Mario fu Giovanni", Attivo: true},
		giulia: models.Possessore{ID: 7, ComuneRiferimentoID: 1, NomeCompleto: "Bianchi Giulia", Attivo: true},
	}
	require.NoError(t, conn.Create(&f.comune).Error)
	require.NoError(t, conn.Create(&f.mario).Error)
	require.NoError(t, conn.Create(&f.giulia).Error)
	return f
}

// registerPartita registers a partita owned by possessore 5 with the given immobili
func registerPartita(t *testing.T, conn *gorm.DB, numero int, nature ...string) *models.Partita {
	t.Helper()
	in := RegisterPropertyInput{
		ComuneID:     1,
		Numero:       numero,
		DataImpianto: day(2024, 1, 1),
		Possessori:   []LinkInput{{PossessoreID: 5, Titolo: "proprietà esclusiva"}},
	}
	for _, natura := range nature {
		in.Immobili = append(in.Immobili, ImmobileInput{Natura: natura})
	}
	p, err := RegisterNewProperty(context.Background(), conn, testActor, in)
	require.NoError(t, err)
	return p
}

func countRows(t *testing.T, conn *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

// failingSink rejects every audit entry
type failingSink struct{}

func (failingSink) Record(tx *gorm.DB, entry *models.AuditLog) error {
	return errors.New("audit store unavailable")
}

// withAuditSink swaps the active sink for the duration of the test
func withAuditSink(t *testing.T, sink AuditSink) {
	t.Helper()
	previous := Audit
	Audit = sink
	t.Cleanup(func() { Audit = previous })
}

// assertClosureInvariant checks stato = inattiva exactly when data_chiusura is set
func assertClosureInvariant(t *testing.T, conn *gorm.DB) {
	t.Helper()
	var partite []models.Partita
	require.NoError(t, conn.Find(&partite).Error)
	for _, p := range partite {
		if p.Stato == models.PartitaStatoInattiva {
			require.NotNil(t, p.DataChiusura, "partita %d inattiva without data_chiusura", p.ID)
		} else {
			require.Nil(t, p.DataChiusura, "partita %d attiva with data_chiusura", p.ID)
		}
	}
}

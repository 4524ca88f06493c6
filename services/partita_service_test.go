package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"catasto_app_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePartita(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		conn := setupTestDB(t)
		seedRegistry(t, conn)

		p, err := CreatePartita(ctx, conn, testActor, CreatePartitaInput{
			ComuneID: 1, Numero: 10, Suffisso: "  ", DataImpianto: day(1932, 3, 15),
		})
		require.NoError(t, err)
		assert.Equal(t, models.PartitaTipoPrincipale, p.Tipo)
		assert.Equal(t, models.PartitaStatoAttiva, p.Stato)
		assert.Equal(t, "", p.SuffissoPartita)
		assert.Nil(t, p.NumeroProvenienza)
		assert.Nil(t, p.DataChiusura)
		assert.Equal(t, "10", p.Riferimento())
	})

	t.Run("DuplicateTuple", func(t *testing.T) {
		conn := setupTestDB(t)
		seedRegistry(t, conn)

		_, err := CreatePartita(ctx, conn, testActor, CreatePartitaInput{ComuneID: 1, Numero: 10, DataImpianto: day(2024, 1, 1)})
		require.NoError(t, err)

		_, err = CreatePartita(ctx, conn, testActor, CreatePartitaInput{ComuneID: 1, Numero: 10, DataImpianto: day(2024, 2, 1)})
		assert.ErrorIs(t, err, ErrUniqueConstraint)

		// A suffix makes a distinct tuple
		bis, err := CreatePartita(ctx, conn, testActor, CreatePartitaInput{ComuneID: 1, Numero: 10, Suffisso: "bis", DataImpianto: day(2024, 2, 1)})
		require.NoError(t, err)
		assert.Equal(t, "10/bis", bis.Riferimento())

		_, err = CreatePartita(ctx, conn, testActor, CreatePartitaInput{ComuneID: 1, Numero: 10, Suffisso: "bis", DataImpianto: day(2024, 2, 1)})
		assert.ErrorIs(t, err, ErrUniqueConstraint)
		assert.Equal(t, int64(2), countRows(t, conn, &models.Partita{}))
	})

	t.Run("ConcurrentCreateOneWins", func(t *testing.T) {
		conn := setupTestDB(t)
		seedRegistry(t, conn)

		const workers = 4
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = CreatePartita(ctx, conn, testActor, CreatePartitaInput{ComuneID: 1, Numero: 77, DataImpianto: day(2024, 1, 1)})
			}(i)
		}
		wg.Wait()

		var ok int
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, ErrUniqueConstraint)
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, int64(1), countRows(t, conn, &models.Partita{}))
	})

	t.Run("Validation", func(t *testing.T) {
		conn := setupTestDB(t)
		seedRegistry(t, conn)

		cases := map[string]CreatePartitaInput{
			"missing comune":   {Numero: 1, DataImpianto: day(2024, 1, 1)},
			"zero numero":      {ComuneID: 1, DataImpianto: day(2024, 1, 1)},
			"bad tipo":         {ComuneID: 1, Numero: 1, Tipo: "terziaria", DataImpianto: day(2024, 1, 1)},
			"missing impianto": {ComuneID: 1, Numero: 1},
		}
		for name, in := range cases {
			_, err := CreatePartita(ctx, conn, testActor, in)
			assert.ErrorIs(t, err, ErrValidation, name)
		}

		_, err := CreatePartita(ctx, conn, testActor, CreatePartitaInput{ComuneID: 99, Numero: 1, DataImpianto: day(2024, 1, 1)})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClosePartita(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	seedRegistry(t, conn)

	withImmobili := registerPartita(t, conn, 10, "Casa")
	_, err := ClosePartita(ctx, conn, testActor, withImmobili.ID, day(2024, 6, 1))
	assert.ErrorIs(t, err, ErrInvalidState, "partita still owns immobili")

	empty, err := CreatePartita(ctx, conn, testActor, CreatePartitaInput{ComuneID: 1, Numero: 11, DataImpianto: day(2024, 1, 1)})
	require.NoError(t, err)

	_, err = ClosePartita(ctx, conn, testActor, empty.ID, day(2023, 12, 31))
	assert.ErrorIs(t, err, ErrValidation, "closure before impianto")

	closed, err := ClosePartita(ctx, conn, testActor, empty.ID, day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, models.PartitaStatoInattiva, closed.Stato)
	require.NotNil(t, closed.DataChiusura)
	assert.True(t, sameDay(day(2024, 6, 1), *closed.DataChiusura))

	_, err = ClosePartita(ctx, conn, testActor, empty.ID, day(2024, 7, 1))
	assert.ErrorIs(t, err, ErrInvalidState, "already inattiva")

	_, err = ClosePartita(ctx, conn, testActor, 999, day(2024, 7, 1))
	assert.ErrorIs(t, err, ErrNotFound)

	assertClosureInvariant(t, conn)
}

func TestUpdatePartita(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	seedRegistry(t, conn)
	p := registerPartita(t, conn, 10, "Casa")

	updated, err := UpdatePartita(ctx, conn, testActor, p.ID, UpdatePartitaInput{
		Tipo:              models.PartitaTipoSecondaria,
		DataImpianto:      day(1930, 5, 2),
		NumeroProvenienza: strPtr(" 4 "),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PartitaTipoSecondaria, updated.Tipo)
	assert.True(t, sameDay(day(1930, 5, 2), updated.DataImpianto))
	require.NotNil(t, updated.NumeroProvenienza)
	assert.Equal(t, "4", *updated.NumeroProvenienza)
	assert.Equal(t, models.PartitaStatoAttiva, updated.Stato)
	assert.Nil(t, updated.DataChiusura)

	// Updating never re-saves associations
	assert.Equal(t, int64(1), countRows(t, conn, &models.Immobile{}))
	assert.Equal(t, int64(1), countRows(t, conn, &models.PartitaPossessore{}))

	history, err := GetRecordAuditHistory(conn, "partite", fmt.Sprint(p.ID))
	require.NoError(t, err)
	require.Len(t, history, 2)

	_, err = UpdatePartita(ctx, conn, testActor, p.ID, UpdatePartitaInput{Tipo: "x", DataImpianto: day(1930, 5, 2)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPossessoreLinks(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	seedRegistry(t, conn)
	p := registerPartita(t, conn, 10, "Casa")

	link, err := AddPossessoreLink(ctx, conn, testActor, p.ID, LinkInput{PossessoreID: 7, Titolo: " usufrutto ", Quota: strPtr("1/3")})
	require.NoError(t, err)
	assert.Equal(t, "usufrutto", link.Titolo)
	assert.Equal(t, models.PartitaTipoPrincipale, link.TipoPartita)

	_, err = AddPossessoreLink(ctx, conn, testActor, p.ID, LinkInput{PossessoreID: 7, Titolo: "usufrutto"})
	assert.ErrorIs(t, err, ErrUniqueConstraint)

	_, err = AddPossessoreLink(ctx, conn, testActor, p.ID, LinkInput{PossessoreID: 42, Titolo: "usufrutto"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = AddPossessoreLink(ctx, conn, testActor, p.ID, LinkInput{PossessoreID: 7})
	assert.ErrorIs(t, err, ErrValidation, "titolo required")

	_, err = AddPossessoreLink(ctx, conn, testActor, 999, LinkInput{PossessoreID: 7, Titolo: "usufrutto"})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := UpdateLink(ctx, conn, testActor, link.ID, LinkUpdate{Titolo: "nuda proprietà", TipoPartita: models.PartitaTipoSecondaria})
	require.NoError(t, err)
	assert.Equal(t, "nuda proprietà", updated.Titolo)
	assert.Equal(t, models.PartitaTipoSecondaria, updated.TipoPartita)
	assert.Nil(t, updated.Quota)

	_, err = UpdateLink(ctx, conn, testActor, link.ID, LinkUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, RemoveLink(ctx, conn, testActor, link.ID))
	assert.ErrorIs(t, RemoveLink(ctx, conn, testActor, link.ID), ErrNotFound)

	// Both endpoints survive the removal
	_, err = GetPossessore(conn, 7)
	require.NoError(t, err)
	aggregate, err := GetPartitaAggregate(conn, p.ID)
	require.NoError(t, err)
	assert.Len(t, aggregate.Possessori, 1)

	t.Run("InactivePartitaRejectsLinks", func(t *testing.T) {
		empty, err := CreatePartita(ctx, conn, testActor, CreatePartitaInput{ComuneID: 1, Numero: 50, DataImpianto: day(2024, 1, 1)})
		require.NoError(t, err)
		_, err = ClosePartita(ctx, conn, testActor, empty.ID, day(2024, 2, 1))
		require.NoError(t, err)

		_, err = AddPossessoreLink(ctx, conn, testActor, empty.ID, LinkInput{PossessoreID: 7, Titolo: "usufrutto"})
		assert.ErrorIs(t, err, ErrInvalidState)
		_, err = AddImmobile(ctx, conn, testActor, empty.ID, ImmobileInput{Natura: "Casa"})
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestImmobili(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	seedRegistry(t, conn)
	source := registerPartita(t, conn, 10, "Casa")
	dest := registerPartita(t, conn, 11, "Orto")

	t.Run("AddValidation", func(t *testing.T) {
		_, err := AddImmobile(ctx, conn, testActor, source.ID, ImmobileInput{Natura: "  "})
		assert.ErrorIs(t, err, ErrValidation)

		negative := -1
		_, err = AddImmobile(ctx, conn, testActor, source.ID, ImmobileInput{Natura: "Casa", NumeroVani: &negative})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = AddImmobile(ctx, conn, testActor, source.ID, ImmobileInput{Natura: "Casa", LocalitaID: uintPtr(404)})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("AddWithLocalita", func(t *testing.T) {
		loc, _, err := GetOrCreateLocalita(ctx, conn, testActor, LocalitaInput{ComuneID: 1, Nome: "Via Roma", Tipo: models.LocalitaTipoVia})
		require.NoError(t, err)

		imm, err := AddImmobile(ctx, conn, testActor, source.ID, ImmobileInput{
			Natura: "Magazzino", LocalitaID: &loc.ID, Classificazione: strPtr("C/2"),
		})
		require.NoError(t, err)
		assert.Equal(t, source.ID, imm.PartitaID)
		require.NotNil(t, imm.LocalitaID)
		assert.Equal(t, loc.ID, *imm.LocalitaID)
	})

	t.Run("AddWithoutLocalita", func(t *testing.T) {
		imm, err := AddImmobile(ctx, conn, testActor, source.ID, ImmobileInput{Natura: "Terreno"})
		require.NoError(t, err)
		assert.Nil(t, imm.LocalitaID)
	})

	t.Run("Move", func(t *testing.T) {
		casa := source.Immobili[0].ID

		_, err := MoveImmobile(ctx, conn, testActor, casa, source.ID)
		assert.ErrorIs(t, err, ErrInvalidState, "same partita")

		moved, err := MoveImmobile(ctx, conn, testActor, casa, dest.ID)
		require.NoError(t, err)
		assert.Equal(t, dest.ID, moved.PartitaID)

		_, err = MoveImmobile(ctx, conn, testActor, 999, source.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		// A plain move never closes the source
		reloaded, err := GetPartita(conn, source.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PartitaStatoAttiva, reloaded.Stato)
	})

	t.Run("UpdateKeepsPartita", func(t *testing.T) {
		orto := dest.Immobili[0].ID
		updated, err := UpdateImmobile(ctx, conn, testActor, orto, ImmobileInput{Natura: "Orto irriguo", Consistenza: strPtr("2 are")})
		require.NoError(t, err)
		assert.Equal(t, "Orto irriguo", updated.Natura)
		assert.Equal(t, dest.ID, updated.PartitaID)
	})

	t.Run("Delete", func(t *testing.T) {
		orto := dest.Immobili[0].ID
		require.NoError(t, DeleteImmobile(ctx, conn, testActor, orto))
		_, err := GetImmobile(conn, orto)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, DeleteImmobile(ctx, conn, testActor, orto), ErrNotFound)
	})
}

func TestSearchPartite(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	seedRegistry(t, conn)

	registerPartita(t, conn, 10, "Casa", "Orto")
	p11 := registerPartita(t, conn, 11, "Prato")
	_, err := AddPossessoreLink(ctx, conn, testActor, p11.ID, LinkInput{PossessoreID: 7, Titolo: "comproprietà"})
	require.NoError(t, err)

	rows, total, err := SearchPartite(conn, PartitaFilters{ComuneID: 1}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, 10, rows[0].NumeroPartita)
	assert.Equal(t, "Albenga", rows[0].ComuneNome)
	assert.Equal(t, int64(1), rows[0].NumPossessori)
	assert.Equal(t, int64(2), rows[0].NumImmobili)
	assert.Equal(t, int64(2), rows[1].NumPossessori)

	rows, total, err = SearchPartite(conn, PartitaFilters{NomePossessore: "bianchi"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, p11.ID, rows[0].ID)

	numero := 10
	_, total, err = SearchPartite(conn, PartitaFilters{Numero: &numero, Stato: models.PartitaStatoInattiva}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"catasto_app_go/logger"
	"catasto_app_go/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	importSheetInstructions = "Istruzioni"
	importSheetPartite      = "Partite"
)

// Partite sheet columns
const (
	colNumero = iota
	colSuffisso
	colTipo
	colDataImpianto
	colPossessoreID
	colTitolo
	colQuota
	colNatura
	colLocalitaID
	colClassificazione
	importColumns
)

var importHeaders = []string{
	"Numero*", "Suffisso", "Tipo", "Data impianto*", "Possessore ID", "Titolo",
	"Quota", "Natura immobile", "Localita ID", "Classificazione",
}

// ImportResult contains the summary of the import process
type ImportResult struct {
	TotalGroups           int      `json:"total_groups"`
	SuccessCount          int      `json:"success_count"`
	FailedCount           int      `json:"failed_count"`
	SkippedOverLimitCount int      `json:"skipped_over_limit_count"`
	CreatedPartitaIDs     []uint   `json:"created_partita_ids"`
	Errors                []string `json:"errors"`
}

// importGroup collects the rows of one partita
type importGroup struct {
	firstRow int
	input    RegisterPropertyInput
	seen     map[uint]bool
	err      error
}

// GeneratePartiteImportTemplate builds the Excel template for bulk registration
func GeneratePartiteImportTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", importSheetInstructions)
	instructions := []string{
		"Importazione partite",
		"",
		"- Una riga per ogni coppia possessore/immobile; le righe con lo stesso numero e suffisso formano una partita.",
		"- Ogni partita deve avere almeno un possessore (Possessore ID + Titolo) e un immobile (Natura immobile).",
		"- Date nel formato AAAA-MM-GG oppure GG/MM/AAAA.",
		"- Tipo: principale (predefinito) o secondaria.",
		"- Ogni partita viene registrata separatamente: un errore scarta solo quella partita.",
	}
	for i, line := range instructions {
		f.SetCellValue(importSheetInstructions, fmt.Sprintf("A%d", i+1), line)
	}
	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	f.SetCellStyle(importSheetInstructions, "A1", "A1", titleStyle)
	f.SetColWidth(importSheetInstructions, "A", "A", 100)

	f.NewSheet(importSheetPartite)
	for i, header := range importHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(importSheetPartite, cell, header)
	}
	example := []interface{}{10, "", models.PartitaTipoPrincipale, "1932-03-15", 5, "proprietà esclusiva", "1/1", "Casa", "", "A/4"}
	for i, value := range example {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(importSheetPartite, cell, value)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastHeader, _ := excelize.CoordinatesToCellName(len(importHeaders), 1)
	f.SetCellStyle(importSheetPartite, "A1", lastHeader, headerStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

// ImportPartiteFromExcel registers the partite listed in the Partite sheet.
// Each partita is one RegisterNewProperty call with its own transaction.
// maxGroups <= 0 means no limit.
func ImportPartiteFromExcel(ctx context.Context, db *gorm.DB, actor ActorContext, comuneID uint, file io.Reader, maxGroups int) (*ImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(importSheetPartite); idx < 0 {
		return nil, validationError("invalid excel format: missing sheet %q", importSheetPartite)
	}
	rows, err := f.GetRows(importSheetPartite)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", importSheetPartite, err)
	}
	if _, err := GetComune(db, comuneID); err != nil {
		return nil, err
	}

	groups, order := groupImportRows(comuneID, rows)
	result := &ImportResult{Errors: []string{}, CreatedPartitaIDs: []uint{}}

	for _, key := range order {
		group := groups[key]
		if maxGroups > 0 && result.TotalGroups >= maxGroups {
			result.SkippedOverLimitCount++
			continue
		}
		result.TotalGroups++

		if group.err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (partita %s): %v", group.firstRow, key, group.err))
			continue
		}

		partita, err := RegisterNewProperty(ctx, db, actor, group.input)
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (partita %s): %v", group.firstRow, key, err))
			continue
		}
		result.SuccessCount++
		result.CreatedPartitaIDs = append(result.CreatedPartitaIDs, partita.ID)
	}

	logger.Log.Info("partite import completed",
		zap.Uint("comune_id", comuneID),
		zap.Int("groups", result.TotalGroups),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("skipped", result.SkippedOverLimitCount),
		zap.String("user_id", actor.UserID),
	)
	return result, nil
}

// groupImportRows folds sheet rows into one RegisterPropertyInput per numero/suffisso
func groupImportRows(comuneID uint, rows [][]string) (map[string]*importGroup, []string) {
	groups := make(map[string]*importGroup)
	var order []string

	for i, row := range rows {
		if i == 0 {
			continue // Header
		}
		cells := make([]string, importColumns)
		for c := 0; c < importColumns && c < len(row); c++ {
			cells[c] = strings.TrimSpace(row[c])
		}
		if cells[colNumero] == "" {
			continue
		}
		rowNum := i + 1

		key := cells[colNumero]
		if cells[colSuffisso] != "" {
			key += "/" + cells[colSuffisso]
		}
		group, ok := groups[key]
		if !ok {
			group = &importGroup{firstRow: rowNum, seen: make(map[uint]bool)}
			groups[key] = group
			order = append(order, key)
		}
		if group.err != nil {
			continue
		}
		if err := group.addRow(comuneID, cells); err != nil {
			group.err = fmt.Errorf("row %d: %w", rowNum, err)
		}
	}
	return groups, order
}

func (g *importGroup) addRow(comuneID uint, cells []string) error {
	in := &g.input
	if in.Numero == 0 {
		numero, err := strconv.Atoi(cells[colNumero])
		if err != nil {
			return fmt.Errorf("invalid numero %q", cells[colNumero])
		}
		data, err := ParseDate(cells[colDataImpianto])
		if err != nil {
			return err
		}
		in.ComuneID = comuneID
		in.Numero = numero
		in.Suffisso = cells[colSuffisso]
		in.Tipo = strings.ToLower(cells[colTipo])
		in.DataImpianto = data
	}

	if raw := cells[colPossessoreID]; raw != "" {
		id, err := parseUintCell(raw)
		if err != nil {
			return fmt.Errorf("invalid possessore id %q", raw)
		}
		if !g.seen[id] {
			g.seen[id] = true
			in.Possessori = append(in.Possessori, LinkInput{
				PossessoreID: id,
				TipoPartita:  in.Tipo,
				Titolo:       cells[colTitolo],
				Quota:        optionalCell(cells[colQuota]),
			})
		}
	}

	if natura := cells[colNatura]; natura != "" {
		immobile := ImmobileInput{
			Natura:          natura,
			Classificazione: optionalCell(cells[colClassificazione]),
		}
		if raw := cells[colLocalitaID]; raw != "" {
			id, err := parseUintCell(raw)
			if err != nil {
				return fmt.Errorf("invalid localita id %q", raw)
			}
			immobile.LocalitaID = &id
		}
		in.Immobili = append(in.Immobili, immobile)
	}
	return nil
}

func parseUintCell(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(n), nil
}

func optionalCell(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Package excel imports vocabulary items from spreadsheet files into the
// catalog. Both .xlsx workbooks and plain CSV exports are accepted.
package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"github.com/marat/lexdrill/internal/quiz"
	"github.com/marat/lexdrill/internal/store"
)

// ImportConfig defines the import configuration. Columns are Excel-style
// letters; the same positions apply to CSV fields.
type ImportConfig struct {
	FilePath          string
	WordColumn        string // word in the target language
	DefinitionColumn  string // definition or gloss
	TranslationColumn string // semicolon-separated translations
	CategoryColumn    string // semantic category (animals, verbs, ...)
	UnitColumn        string // curriculum unit
	AudioColumn       string // optional audio reference
	ImageColumn       string // optional image reference
	SheetName         string
	StartRow          int // 1-based first data row
}

// DefaultImportConfig returns the default column layout:
// word, definition, translations, category, unit, audio, image.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:        "A",
		DefinitionColumn:  "B",
		TranslationColumn: "C",
		CategoryColumn:    "D",
		UnitColumn:        "E",
		AudioColumn:       "F",
		ImageColumn:       "G",
		SheetName:         "Sheet1",
		StartRow:          2,
	}
}

// ImportResult summarizes one import run.
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Errors         []string
}

// Importer writes parsed rows into the catalog.
type Importer struct {
	catalog *store.CatalogRepo
	cfg     ImportConfig
}

// New returns an importer targeting the given catalog.
func New(catalog *store.CatalogRepo, cfg ImportConfig) *Importer {
	return &Importer{catalog: catalog, cfg: cfg}
}

// Run imports items from the configured file, dispatching on extension.
func (im *Importer) Run(ctx context.Context) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(im.cfg.FilePath))
	if ext == ".csv" {
		return im.fromCSV(ctx)
	}
	return im.fromExcel(ctx)
}

func (im *Importer) fromExcel(ctx context.Context) (*ImportResult, error) {
	f, err := excelize.OpenFile(im.cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(im.cfg.SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", im.cfg.SheetName, err)
	}

	result := &ImportResult{}
	for i, row := range rows {
		if i < im.cfg.StartRow-1 {
			continue
		}
		im.processRow(ctx, row, i+1, result)
	}
	return result, nil
}

func (im *Importer) fromCSV(ctx context.Context) (*ImportResult, error) {
	file, err := os.Open(im.cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ImportResult{}
	rowNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rowNum++
		if rowNum < im.cfg.StartRow {
			continue
		}
		im.processRow(ctx, row, rowNum, result)
	}
	return result, nil
}

func (im *Importer) processRow(ctx context.Context, row []string, rowNum int, result *ImportResult) {
	result.TotalProcessed++

	item, err := im.parseRow(row)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
		return
	}

	created, err := im.catalog.Upsert(ctx, item)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
		return
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
}

func (im *Importer) parseRow(row []string) (quiz.Item, error) {
	word := cell(row, im.cfg.WordColumn)
	if word == "" {
		return quiz.Item{}, errors.New("empty word")
	}

	translations := lo.Filter(
		lo.Map(strings.Split(cell(row, im.cfg.TranslationColumn), ";"), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}),
		func(s string, _ int) bool { return s != "" },
	)
	definition := cell(row, im.cfg.DefinitionColumn)
	if definition == "" && len(translations) == 0 {
		return quiz.Item{}, errors.New("no definition or translation")
	}

	unit := cell(row, im.cfg.UnitColumn)
	return quiz.Item{
		ID:           itemID(unit, word),
		Word:         word,
		Definition:   definition,
		Translations: translations,
		Category:     strings.ToLower(cell(row, im.cfg.CategoryColumn)),
		UnitID:       unit,
		AudioRef:     cell(row, im.cfg.AudioColumn),
		ImageRef:     cell(row, im.cfg.ImageColumn),
	}, nil
}

// itemID derives a stable identifier so re-importing the same file
// updates rows instead of duplicating them.
func itemID(unit, word string) string {
	w := strings.ToLower(strings.Join(strings.Fields(word), "-"))
	if unit == "" {
		return w
	}
	return strings.ToLower(unit) + ":" + w
}

// cell returns the trimmed value at an Excel-style column letter, or ""
// when the row is too short.
func cell(row []string, column string) string {
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return -1
	}
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/marat/lexdrill/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestImport_CSV(t *testing.T) {
	s := openTestStore(t)
	path := filepath.Join(t.TempDir(), "words.csv")
	csv := "word,definition,translations,category,unit,audio,image\n" +
		"Hund,a domestic dog,dog; hound,animals,u1,hund.mp3,\n" +
		"Katze,a small cat,cat,animals,u1,,\n" +
		",missing word,,animals,u1,,\n" +
		"laufen,,to run,verbs,u1,,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	im := New(s.Catalog(), cfg)

	res, err := im.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalProcessed)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 0, res.Updated)
	require.Len(t, res.Errors, 1, "the empty-word row should be reported")

	pool, err := s.Catalog().FetchPool(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, pool, 3)

	byWord := map[string]int{}
	for i, it := range pool {
		byWord[it.Word] = i
	}
	hund := pool[byWord["Hund"]]
	assert.Equal(t, "u1:hund", hund.ID)
	assert.Equal(t, []string{"dog", "hound"}, hund.Translations)
	assert.Equal(t, "animals", hund.Category)
	assert.Equal(t, "hund.mp3", hund.AudioRef)
	assert.True(t, hund.HasAudio())

	// Re-importing the same file updates in place.
	res, err = im.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 3, res.Updated)

	n, err := s.Catalog().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImport_Excel(t *testing.T) {
	s := openTestStore(t)
	path := filepath.Join(t.TempDir(), "words.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"word", "definition", "translations", "category", "unit"},
		{"Pferd", "a horse", "horse", "animals", "u2"},
		{"rot", "the color of blood", "red", "colors", "u2"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	res, err := New(s.Catalog(), cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalProcessed)
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Errors)

	pool, err := s.Catalog().FetchPool(context.Background(), "u2")
	require.NoError(t, err)
	assert.Len(t, pool, 2)
}

func TestImport_MissingFile(t *testing.T) {
	s := openTestStore(t)
	cfg := DefaultImportConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "nope.xlsx")
	_, err := New(s.Catalog(), cfg).Run(context.Background())
	assert.Error(t, err)
}

func TestItemID(t *testing.T) {
	tests := []struct {
		unit, word, want string
	}{
		{"u1", "Hund", "u1:hund"},
		{"", "Hund", "hund"},
		{"U1", "zu Hause", "u1:zu-hause"},
	}
	for _, tt := range tests {
		if got := itemID(tt.unit, tt.word); got != tt.want {
			t.Errorf("itemID(%q, %q) = %q, want %q", tt.unit, tt.word, got, tt.want)
		}
	}
}

func TestColumnToIndex(t *testing.T) {
	tests := []struct {
		col  string
		want int
	}{
		{"A", 0}, {"B", 1}, {"Z", 25}, {"AA", 26}, {"ab", 27}, {"", -1},
	}
	for _, tt := range tests {
		if got := columnToIndex(tt.col); got != tt.want {
			t.Errorf("columnToIndex(%q) = %d, want %d", tt.col, got, tt.want)
		}
	}
}

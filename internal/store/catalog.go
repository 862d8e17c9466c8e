package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/marat/lexdrill/internal/quiz"
)

// CatalogRepo reads and writes the word catalog. The engine only reads;
// writes come from the importer and tooling.
type CatalogRepo struct {
	db *sqlx.DB
}

type wordRow struct {
	ID           string `db:"id"`
	Word         string `db:"word"`
	Definition   string `db:"definition"`
	Translations string `db:"translations"`
	AudioRef     string `db:"audio_ref"`
	ImageRef     string `db:"image_ref"`
	Category     string `db:"category"`
	UnitID       string `db:"unit_id"`
}

func (r wordRow) toItem() (quiz.Item, error) {
	var translations []string
	if err := json.Unmarshal([]byte(r.Translations), &translations); err != nil {
		return quiz.Item{}, fmt.Errorf("decode translations for %s: %w", r.ID, err)
	}
	return quiz.Item{
		ID:           r.ID,
		Word:         r.Word,
		Definition:   r.Definition,
		Translations: translations,
		AudioRef:     r.AudioRef,
		ImageRef:     r.ImageRef,
		Category:     r.Category,
		UnitID:       r.UnitID,
	}, nil
}

// FetchPool returns the items of one unit, or the whole catalog when
// unitID is empty.
func (r *CatalogRepo) FetchPool(ctx context.Context, unitID string) ([]quiz.Item, error) {
	var rows []wordRow
	var err error
	if unitID == "" {
		err = r.db.SelectContext(ctx, &rows, `SELECT * FROM words ORDER BY id`)
	} else {
		err = r.db.SelectContext(ctx, &rows, `SELECT * FROM words WHERE unit_id = ? ORDER BY id`, unitID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch pool: %w", err)
	}

	items := make([]quiz.Item, 0, len(rows))
	for _, row := range rows {
		it, err := row.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Upsert inserts or replaces one catalog item, keyed by id.
// Returns true when the item was newly created.
func (r *CatalogRepo) Upsert(ctx context.Context, it quiz.Item) (bool, error) {
	translations, err := json.Marshal(it.Translations)
	if err != nil {
		return false, fmt.Errorf("encode translations: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM words WHERE id = ?)`, it.ID); err != nil {
		return false, fmt.Errorf("check word: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO words (id, word, definition, translations, audio_ref, image_ref, category, unit_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			word = excluded.word,
			definition = excluded.definition,
			translations = excluded.translations,
			audio_ref = excluded.audio_ref,
			image_ref = excluded.image_ref,
			category = excluded.category,
			unit_id = excluded.unit_id`,
		it.ID, it.Word, it.Definition, string(translations), it.AudioRef, it.ImageRef, it.Category, it.UnitID)
	if err != nil {
		return false, fmt.Errorf("upsert word %s: %w", it.ID, err)
	}
	return !exists, nil
}

// Count returns the catalog size.
func (r *CatalogRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM words`); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

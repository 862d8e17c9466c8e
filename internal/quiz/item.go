package quiz

// Item is an immutable learning unit owned by the external catalog.
// The engine only reads it.
type Item struct {
	ID           string   `json:"id" db:"id"`
	Word         string   `json:"word" db:"word"`
	Definition   string   `json:"definition" db:"definition"`
	Translations []string `json:"translations"`
	AudioRef     string   `json:"audio_ref,omitempty" db:"audio_ref"`
	ImageRef     string   `json:"image_ref,omitempty" db:"image_ref"`
	Category     string   `json:"category" db:"category"`
	UnitID       string   `json:"unit_id" db:"unit_id"`
}

// Translation returns the canonical (first) target-language translation.
func (it Item) Translation() string {
	if len(it.Translations) == 0 {
		return ""
	}
	return it.Translations[0]
}

// HasAudio reports whether the item carries an audio reference and can
// back an audio-recognition question.
func (it Item) HasAudio() bool {
	return it.AudioRef != ""
}

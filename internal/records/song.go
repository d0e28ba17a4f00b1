package records

// Song represents the song a chart belongs to. Transliterations are
// frequently null in simfile metadata, so every field is nullable.
type Song struct {
	Title                   *string
	TitleTransliteration    *string
	SubTitle                *string
	SubTitleTransliteration *string
	Artist                  *string
	ArtistTransliteration   *string
	DurationSeconds         *float64
}

var songSchema = schema{
	"title":                   required(),
	"titleTransliteration":    required(),
	"subTitle":                required(),
	"subTitleTransliteration": required(),
	"artist":                  required(),
	"artistTransliteration":   required(),
	"durationSeconds":         required(),
}

// NewSong hydrates a Song from a loosely typed document
func NewSong(doc map[string]any) (*Song, error) {
	vals, err := build("Song", songSchema, doc)
	if err != nil {
		return nil, err
	}

	return &Song{
		Title:                   asStringPtr(vals["title"]),
		TitleTransliteration:    asStringPtr(vals["titleTransliteration"]),
		SubTitle:                asStringPtr(vals["subTitle"]),
		SubTitleTransliteration: asStringPtr(vals["subTitleTransliteration"]),
		Artist:                  asStringPtr(vals["artist"]),
		ArtistTransliteration:   asStringPtr(vals["artistTransliteration"]),
		DurationSeconds:         asFloatPtr(vals["durationSeconds"]),
	}, nil
}

// Flatten merges the song's fields into a flat payload namespace,
// omitting null fields entirely.
func (s *Song) Flatten() map[string]any {
	out := make(map[string]any, 7)
	putString(out, "title", s.Title)
	putString(out, "titleTransliteration", s.TitleTransliteration)
	putString(out, "subTitle", s.SubTitle)
	putString(out, "subTitleTransliteration", s.SubTitleTransliteration)
	putString(out, "artist", s.Artist)
	putString(out, "artistTransliteration", s.ArtistTransliteration)
	putFloat(out, "durationSeconds", s.DurationSeconds)
	return out
}

// TimingWindows holds the per-judgment timing windows, in seconds, that
// were active for a play. Unlike Song and ScoreBreakdown these are not
// merged into the parent namespace; they travel as a nested object.
type TimingWindows struct {
	FantasticTimingWindow float64
	ExcellentTimingWindow float64
	GreatTimingWindow     float64
	DecentTimingWindow    float64
	WayoffTimingWindow    float64
	MineTimingWindow      float64
	HoldTimingWindow      float64
	RollTimingWindow      float64
}

var timingWindowsSchema = schema{
	"fantasticTimingWindow": required(),
	"excellentTimingWindow": required(),
	"greatTimingWindow":     required(),
	"decentTimingWindow":    required(),
	"wayoffTimingWindow":    required(),
	"mineTimingWindow":      required(),
	"holdTimingWindow":      required(),
	"rollTimingWindow":      required(),
}

// NewTimingWindows hydrates a TimingWindows from a loosely typed document
func NewTimingWindows(doc map[string]any) (*TimingWindows, error) {
	vals, err := build("TimingWindows", timingWindowsSchema, doc)
	if err != nil {
		return nil, err
	}

	return &TimingWindows{
		FantasticTimingWindow: asFloat(vals["fantasticTimingWindow"]),
		ExcellentTimingWindow: asFloat(vals["excellentTimingWindow"]),
		GreatTimingWindow:     asFloat(vals["greatTimingWindow"]),
		DecentTimingWindow:    asFloat(vals["decentTimingWindow"]),
		WayoffTimingWindow:    asFloat(vals["wayoffTimingWindow"]),
		MineTimingWindow:      asFloat(vals["mineTimingWindow"]),
		HoldTimingWindow:      asFloat(vals["holdTimingWindow"]),
		RollTimingWindow:      asFloat(vals["rollTimingWindow"]),
	}, nil
}

// ToMap returns the windows as a nested payload object
func (t *TimingWindows) ToMap() map[string]any {
	return map[string]any{
		"fantasticTimingWindow": t.FantasticTimingWindow,
		"excellentTimingWindow": t.ExcellentTimingWindow,
		"greatTimingWindow":     t.GreatTimingWindow,
		"decentTimingWindow":    t.DecentTimingWindow,
		"wayoffTimingWindow":    t.WayoffTimingWindow,
		"mineTimingWindow":      t.MineTimingWindow,
		"holdTimingWindow":      t.HoldTimingWindow,
		"rollTimingWindow":      t.RollTimingWindow,
	}
}

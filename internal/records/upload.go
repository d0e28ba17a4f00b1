package records

import "fmt"

// SpeedMod represents the speed modifier active for a play, e.g.
// {type: "x", value: 2.5}
type SpeedMod struct {
	Type  string
	Value float64
}

// ToMap returns the speed mod as a nested payload object
func (m *SpeedMod) ToMap() map[string]any {
	return map[string]any{
		"type":  m.Type,
		"value": m.Value,
	}
}

// Mod represents a single named modifier with its value, used for the
// free-form "other" modifier list
type Mod struct {
	Name  string
	Value string
}

// ToMap returns the mod as a nested payload object
func (m Mod) ToMap() map[string]any {
	return map[string]any{
		"name":  m.Name,
		"value": m.Value,
	}
}

// InputEvent represents a single pad input during a play
type InputEvent struct {
	Beat     float64
	Column   int
	Released bool
}

var inputEventSchema = schema{
	"beat":     required(),
	"column":   required(),
	"released": required(),
}

// NewInputEvent hydrates an InputEvent from a loosely typed document
func NewInputEvent(doc map[string]any) (*InputEvent, error) {
	vals, err := build("InputEvent", inputEventSchema, doc)
	if err != nil {
		return nil, err
	}

	return &InputEvent{
		Beat:     asFloat(vals["beat"]),
		Column:   asInt(vals["column"]),
		Released: asBool(vals["released"]),
	}, nil
}

// ToMap returns the event as a nested payload object
func (e InputEvent) ToMap() map[string]any {
	return map[string]any{
		"beat":     e.Beat,
		"column":   e.Column,
		"released": e.Released,
	}
}

// NoteScore represents the judgment of a single note. Tap notes carry
// no hold judgment and vice versa, so both judgments are nullable, as
// is the offset for notes that were never hit.
type NoteScore struct {
	Beat          float64
	Column        int
	HoldNoteScore *string
	TapNoteScore  *string
	Offset        *float64
}

var noteScoreSchema = schema{
	"beat":          required(),
	"column":        required(),
	"holdNoteScore": required(),
	"tapNoteScore":  required(),
	"offset":        required(),
}

// NewNoteScore hydrates a NoteScore from a loosely typed document
func NewNoteScore(doc map[string]any) (*NoteScore, error) {
	vals, err := build("NoteScore", noteScoreSchema, doc)
	if err != nil {
		return nil, err
	}

	return &NoteScore{
		Beat:          asFloat(vals["beat"]),
		Column:        asInt(vals["column"]),
		HoldNoteScore: asStringPtr(vals["holdNoteScore"]),
		TapNoteScore:  asStringPtr(vals["tapNoteScore"]),
		Offset:        asFloatPtr(vals["offset"]),
	}, nil
}

// ToMap returns the note score as a nested payload object, omitting
// null judgments and offsets.
func (n NoteScore) ToMap() map[string]any {
	out := map[string]any{
		"beat":   n.Beat,
		"column": n.Column,
	}
	putString(out, "holdNoteScore", n.HoldNoteScore)
	putString(out, "tapNoteScore", n.TapNoteScore)
	putFloat(out, "offset", n.Offset)
	return out
}

// ChartUpload is the aggregate unit submitted after a play: the chart
// identity, the score with its breakdown, the song, the active timing
// windows and modifiers, and the full input/judgment traces.
type ChartUpload struct {
	Hash          string
	Meter         int
	PlayMode      string
	StepData      string
	StepArtist    *string
	Song          *Song
	Score         *Score
	Group         *string
	CabSide       *string
	SpeedMod      *SpeedMod
	MusicRate     *float64
	ModsTurn      []string
	ModsTransform []string
	ModsOther     []Mod
	NoteSkin      *string
	Perspective   *string
	TimingWindows *TimingWindows

	InputEvents         []InputEvent
	NoteScoresWithBeats []NoteScore
}

var chartUploadSchema = schema{
	"hash":                required(),
	"meter":               required(),
	"playMode":            required(),
	"stepData":            required(),
	"stepArtist":          required(),
	"song":                required(),
	"score":               required(),
	"group":               required(),
	"cabSide":             required(),
	"speedMod":            required(),
	"musicRate":           required(),
	"modsTurn":            required(),
	"modsTransform":       required(),
	"modsOther":           required(),
	"noteSkin":            required(),
	"perspective":         required(),
	"timingWindows":       required(),
	"inputEvents":         optional(nil),
	"noteScoresWithBeats": optional(nil),
}

// NewChartUpload hydrates a ChartUpload from a loosely typed document.
// Nested records supplied as plain maps are recursively constructed;
// already constructed instances are kept as-is. The event lists default
// to fresh empty slices so no two uploads ever share backing storage.
func NewChartUpload(doc map[string]any) (*ChartUpload, error) {
	vals, err := build("ChartUpload", chartUploadSchema, doc)
	if err != nil {
		return nil, err
	}

	u := &ChartUpload{
		Hash:          asString(vals["hash"]),
		Meter:         asInt(vals["meter"]),
		PlayMode:      asString(vals["playMode"]),
		StepData:      asString(vals["stepData"]),
		StepArtist:    asStringPtr(vals["stepArtist"]),
		Group:         asStringPtr(vals["group"]),
		CabSide:       asStringPtr(vals["cabSide"]),
		MusicRate:     asFloatPtr(vals["musicRate"]),
		ModsTurn:      asStringSlice(vals["modsTurn"]),
		ModsTransform: asStringSlice(vals["modsTransform"]),
		NoteSkin:      asStringPtr(vals["noteSkin"]),
		Perspective:   asStringPtr(vals["perspective"]),
	}

	switch v := vals["song"].(type) {
	case map[string]any:
		s, err := NewSong(v)
		if err != nil {
			return nil, err
		}
		u.Song = s
	case *Song:
		u.Song = v
	}

	switch v := vals["score"].(type) {
	case map[string]any:
		s, err := NewScore(v)
		if err != nil {
			return nil, err
		}
		u.Score = s
	case *Score:
		u.Score = v
	}

	switch v := vals["timingWindows"].(type) {
	case map[string]any:
		t, err := NewTimingWindows(v)
		if err != nil {
			return nil, err
		}
		u.TimingWindows = t
	case *TimingWindows:
		u.TimingWindows = v
	}

	switch v := vals["speedMod"].(type) {
	case map[string]any:
		u.SpeedMod = &SpeedMod{Type: asString(v["type"]), Value: asFloat(v["value"])}
	case *SpeedMod:
		u.SpeedMod = v
	}

	switch v := vals["modsOther"].(type) {
	case []any:
		mods := make([]Mod, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				mods = append(mods, Mod{Name: asString(m["name"]), Value: asString(m["value"])})
			}
		}
		u.ModsOther = mods
	case []Mod:
		u.ModsOther = v
	}

	u.InputEvents = make([]InputEvent, 0)
	switch v := vals["inputEvents"].(type) {
	case []any:
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				ev, err := NewInputEvent(m)
				if err != nil {
					return nil, err
				}
				u.InputEvents = append(u.InputEvents, *ev)
			}
		}
	case []InputEvent:
		u.InputEvents = append(u.InputEvents, v...)
	}

	u.NoteScoresWithBeats = make([]NoteScore, 0)
	switch v := vals["noteScoresWithBeats"].(type) {
	case []any:
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				ns, err := NewNoteScore(m)
				if err != nil {
					return nil, err
				}
				u.NoteScoresWithBeats = append(u.NoteScoresWithBeats, *ns)
			}
		}
	case []NoteScore:
		u.NoteScoresWithBeats = append(u.NoteScoresWithBeats, v...)
	}

	return u, nil
}

// Flatten produces the complete flat submission view of the upload: the
// score and song fields merged into the top-level namespace, the
// upload's own scalar fields alongside them, and the remaining nested
// records (timing windows, speed mod, other mods, event traces) one
// level deep as nested objects. Null fields are omitted entirely.
func (u *ChartUpload) Flatten() map[string]any {
	out := make(map[string]any, 48)

	if u.Score != nil {
		for k, v := range u.Score.Flatten() {
			out[k] = v
		}
	}
	if u.Song != nil {
		for k, v := range u.Song.Flatten() {
			out[k] = v
		}
	}

	out["hash"] = u.Hash
	out["meter"] = u.Meter
	out["playMode"] = u.PlayMode
	out["stepData"] = u.StepData
	putString(out, "stepArtist", u.StepArtist)
	putString(out, "group", u.Group)
	putString(out, "cabSide", u.CabSide)
	putFloat(out, "musicRate", u.MusicRate)
	putString(out, "noteSkin", u.NoteSkin)
	putString(out, "perspective", u.Perspective)
	if u.ModsTurn != nil {
		out["modsTurn"] = u.ModsTurn
	}
	if u.ModsTransform != nil {
		out["modsTransform"] = u.ModsTransform
	}

	if u.SpeedMod != nil {
		out["speedMod"] = u.SpeedMod.ToMap()
	}
	if u.ModsOther != nil {
		mods := make([]map[string]any, 0, len(u.ModsOther))
		for _, m := range u.ModsOther {
			mods = append(mods, m.ToMap())
		}
		out["modsOther"] = mods
	}
	if u.TimingWindows != nil {
		out["timingWindows"] = u.TimingWindows.ToMap()
	}

	events := make([]map[string]any, 0, len(u.InputEvents))
	for _, e := range u.InputEvents {
		events = append(events, e.ToMap())
	}
	out["inputEvents"] = events

	notes := make([]map[string]any, 0, len(u.NoteScoresWithBeats))
	for _, n := range u.NoteScoresWithBeats {
		notes = append(notes, n.ToMap())
	}
	out["noteScoresWithBeats"] = notes

	return out
}

// String renders the upload for logs. The raw step data is deliberately
// left out; it is a bulky blob that would drown every log line.
func (u *ChartUpload) String() string {
	title := ""
	if u.Song != nil && u.Song.Title != nil {
		title = *u.Song.Title
	}
	var scoreValue any
	if u.Score != nil && u.Score.ScoreValue != nil {
		scoreValue = *u.Score.ScoreValue
	}
	var speedMod any
	if u.SpeedMod != nil {
		speedMod = fmt.Sprintf("%s%g", u.SpeedMod.Type, u.SpeedMod.Value)
	}

	return fmt.Sprintf(
		"(ChartUpload hash=%s meter=%d playMode=%s stepArtist=%v song=%q scoreValue=%v group=%v cabSide=%v speedMod=%v musicRate=%v modsTurn=%v modsTransform=%v modsOther=%v noteSkin=%v perspective=%v inputEvents=%d noteScores=%d)",
		u.Hash, u.Meter, u.PlayMode, strOrNil(u.StepArtist), title, scoreValue,
		strOrNil(u.Group), strOrNil(u.CabSide), speedMod, floatOrNil(u.MusicRate),
		u.ModsTurn, u.ModsTransform, u.ModsOther, strOrNil(u.NoteSkin),
		strOrNil(u.Perspective),
		len(u.InputEvents), len(u.NoteScoresWithBeats),
	)
}

func strOrNil(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

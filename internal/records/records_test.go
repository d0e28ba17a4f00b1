package records

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int           { return &v }
func strp(v string) *string     { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool        { return &v }

func breakdownDoc() map[string]any {
	return map[string]any{
		"fantastics": float64(120), "excellents": float64(40), "greats": float64(12),
		"decents": float64(3), "wayoffs": float64(1), "misses": float64(2),
		"holds": float64(10), "holdsTotal": float64(11), "minesHit": float64(0),
		"minesAvoided": float64(4), "minesTotal": float64(4), "rolls": float64(2),
		"rollsTotal": float64(2), "jumps": float64(8), "jumpsTotal": float64(9),
		"hands": float64(1), "handsTotal": float64(1),
	}
}

func songDoc() map[string]any {
	return map[string]any{
		"title": "Springtime", "titleTransliteration": nil,
		"subTitle": "", "subTitleTransliteration": nil,
		"artist": "Kors K", "artistTransliteration": nil,
		"durationSeconds": 95.2,
	}
}

func timingDoc() map[string]any {
	return map[string]any{
		"fantasticTimingWindow": 0.015, "excellentTimingWindow": 0.03,
		"greatTimingWindow": 0.045, "decentTimingWindow": 0.09,
		"wayoffTimingWindow": 0.135, "mineTimingWindow": 0.07,
		"holdTimingWindow": 0.25, "rollTimingWindow": 0.35,
	}
}

func uploadDoc() map[string]any {
	return map[string]any{
		"hash":       "abc123",
		"meter":      float64(11),
		"playMode":   "Single",
		"stepData":   "0001\n1000\n0100\n",
		"stepArtist": "copied",
		"song":       songDoc(),
		"score": map[string]any{
			"scoreBreakdown":  breakdownDoc(),
			"scoreValue":      0.982,
			"passed":          true,
			"secondsSurvived": 95.2,
		},
		"group":         "weekly",
		"cabSide":       "P1",
		"speedMod":      map[string]any{"type": "x", "value": 2.5},
		"musicRate":     1.0,
		"modsTurn":      []any{"Mirror"},
		"modsTransform": []any{},
		"modsOther":     []any{map[string]any{"name": "Blink", "value": "on"}},
		"noteSkin":      "cel",
		"perspective":   "Overhead",
		"timingWindows": timingDoc(),
	}
}

func TestNewPlayer(t *testing.T) {
	tests := []struct {
		name    string
		doc     map[string]any
		wantErr string
		check   func(t *testing.T, p *Player)
	}{
		{
			name: "all fields supplied",
			doc: map[string]any{
				"_id": "p1", "nickname": "Sol", "shortNickname": "SOL",
				"avatarIconUrl": "http://x/a.png", "rfidUid": "04:AA",
				"metaData": `{"country":"SE"}`, "mountType": true,
			},
			check: func(t *testing.T, p *Player) {
				assert.Equal(t, "p1", p.ID)
				assert.Equal(t, "Sol", p.Nickname)
				assert.Equal(t, "SOL", p.ShortNickname)
				assert.Equal(t, "04:AA", p.RfidUID)
				assert.True(t, p.MountType)
			},
		},
		{
			name: "optional fields default",
			doc:  map[string]any{"_id": "p1", "nickname": "Sol"},
			check: func(t *testing.T, p *Player) {
				assert.Equal(t, "", p.ShortNickname)
				assert.Equal(t, "", p.AvatarIconURL)
				assert.Equal(t, "", p.RfidUID)
				require.NotNil(t, p.MetaData)
				assert.Equal(t, "{}", *p.MetaData)
				assert.False(t, p.MountType)
			},
		},
		{
			name:    "missing required nickname",
			doc:     map[string]any{"_id": "p1"},
			wantErr: `required field "nickname" missing`,
		},
		{
			name:    "missing required id",
			doc:     map[string]any{"nickname": "Sol"},
			wantErr: `required field "_id" missing`,
		},
		{
			name: "extra keys ignored",
			doc: map[string]any{
				"_id": "p1", "nickname": "Sol",
				"playerLevel": float64(12), "accuracy": 0.97,
			},
			check: func(t *testing.T, p *Player) {
				assert.Equal(t, "Sol", p.Nickname)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlayer(tt.doc)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, IsMissingField(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestPlayerGetMeta(t *testing.T) {
	tests := []struct {
		name string
		meta *string
		key  string
		want any
	}{
		{"present key", strp(`{"country":"SE","team":"north"}`), "country", "SE"},
		{"absent key", strp(`{"country":"SE"}`), "team", nil},
		{"null blob", nil, "country", nil},
		{"malformed blob", strp(`{country`), "country", nil},
		{"empty blob", strp("{}"), "country", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Player{ID: "p1", Nickname: "Sol", MetaData: tt.meta}
			assert.Equal(t, tt.want, p.GetMeta(tt.key))
		})
	}
}

func TestNewScoreBreakdownRequiresEveryField(t *testing.T) {
	for field := range scoreBreakdownSchema {
		t.Run(field, func(t *testing.T) {
			doc := breakdownDoc()
			delete(doc, field)
			_, err := NewScoreBreakdown(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), field)
			assert.True(t, IsMissingField(err))
		})
	}

	b, err := NewScoreBreakdown(breakdownDoc())
	require.NoError(t, err)
	assert.Equal(t, intp(120), b.Fantastics)
	assert.Equal(t, intp(2), b.Misses)
}

func TestNewScoreHydratesNestedBreakdown(t *testing.T) {
	t.Run("breakdown as plain map", func(t *testing.T) {
		s, err := NewScore(map[string]any{
			"scoreBreakdown":  breakdownDoc(),
			"scoreValue":      0.95,
			"passed":          true,
			"secondsSurvived": 88.0,
		})
		require.NoError(t, err)
		require.NotNil(t, s.ScoreBreakdown)
		assert.Equal(t, intp(40), s.ScoreBreakdown.Excellents)
		assert.Equal(t, floatp(0.95), s.ScoreValue)
		assert.Equal(t, boolp(true), s.Passed)
	})

	t.Run("breakdown instance preserved", func(t *testing.T) {
		b := &ScoreBreakdown{Fantastics: intp(7)}
		s, err := NewScore(map[string]any{
			"scoreBreakdown":  b,
			"scoreValue":      0.5,
			"passed":          false,
			"secondsSurvived": 10.0,
		})
		require.NoError(t, err)
		assert.Same(t, b, s.ScoreBreakdown)
	})

	t.Run("missing breakdown fails", func(t *testing.T) {
		_, err := NewScore(map[string]any{
			"scoreValue": 0.5, "passed": false, "secondsSurvived": 10.0,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scoreBreakdown")
	})

	t.Run("invalid nested breakdown fails", func(t *testing.T) {
		_, err := NewScore(map[string]any{
			"scoreBreakdown":  map[string]any{"fantastics": float64(1)},
			"scoreValue":      0.5,
			"passed":          false,
			"secondsSurvived": 10.0,
		})
		require.Error(t, err)
		assert.True(t, IsMissingField(err))
	})
}

func TestNewChartUpload(t *testing.T) {
	u, err := NewChartUpload(uploadDoc())
	require.NoError(t, err)

	assert.Equal(t, "abc123", u.Hash)
	assert.Equal(t, 11, u.Meter)
	require.NotNil(t, u.Song)
	assert.Equal(t, strp("Springtime"), u.Song.Title)
	assert.Nil(t, u.Song.TitleTransliteration)
	require.NotNil(t, u.Score)
	require.NotNil(t, u.Score.ScoreBreakdown)
	assert.Equal(t, intp(2), u.Score.ScoreBreakdown.Misses)
	require.NotNil(t, u.TimingWindows)
	assert.Equal(t, 0.015, u.TimingWindows.FantasticTimingWindow)
	require.NotNil(t, u.SpeedMod)
	assert.Equal(t, "x", u.SpeedMod.Type)
	assert.Equal(t, 2.5, u.SpeedMod.Value)
	assert.Equal(t, []Mod{{Name: "Blink", Value: "on"}}, u.ModsOther)
	assert.Equal(t, []string{"Mirror"}, u.ModsTurn)

	// event lists default to empty
	assert.Empty(t, u.InputEvents)
	assert.Empty(t, u.NoteScoresWithBeats)
}

func TestNewChartUploadEventListsNotAliased(t *testing.T) {
	a, err := NewChartUpload(uploadDoc())
	require.NoError(t, err)
	b, err := NewChartUpload(uploadDoc())
	require.NoError(t, err)

	a.InputEvents = append(a.InputEvents, InputEvent{Beat: 1, Column: 2})
	assert.Empty(t, b.InputEvents)

	a.NoteScoresWithBeats = append(a.NoteScoresWithBeats, NoteScore{Beat: 1, Column: 2})
	assert.Empty(t, b.NoteScoresWithBeats)
}

func TestNewChartUploadHydratesEventLists(t *testing.T) {
	doc := uploadDoc()
	doc["inputEvents"] = []any{
		map[string]any{"beat": 1.5, "column": float64(2), "released": false},
		map[string]any{"beat": 1.75, "column": float64(2), "released": true},
	}
	doc["noteScoresWithBeats"] = []any{
		map[string]any{
			"beat": 1.5, "column": float64(2),
			"holdNoteScore": nil, "tapNoteScore": "W1", "offset": 0.002,
		},
	}

	u, err := NewChartUpload(doc)
	require.NoError(t, err)
	require.Len(t, u.InputEvents, 2)
	assert.Equal(t, InputEvent{Beat: 1.5, Column: 2, Released: false}, u.InputEvents[0])
	assert.True(t, u.InputEvents[1].Released)

	require.Len(t, u.NoteScoresWithBeats, 1)
	ns := u.NoteScoresWithBeats[0]
	assert.Nil(t, ns.HoldNoteScore)
	assert.Equal(t, strp("W1"), ns.TapNoteScore)
	assert.Equal(t, floatp(0.002), ns.Offset)
}

func TestNewChartUploadRejectsBadEvent(t *testing.T) {
	doc := uploadDoc()
	doc["inputEvents"] = []any{map[string]any{"beat": 1.5, "column": float64(2)}}

	_, err := NewChartUpload(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "released")
}

func TestChartUploadStringSuppressesStepData(t *testing.T) {
	u, err := NewChartUpload(uploadDoc())
	require.NoError(t, err)

	s := u.String()
	assert.Contains(t, s, "abc123")
	assert.Contains(t, s, "Single")
	assert.NotContains(t, s, "0001")
	assert.NotContains(t, s, u.StepData)
}

func TestScoreBreakdownFlattenOmitsNil(t *testing.T) {
	doc := breakdownDoc()
	doc["misses"] = nil
	b, err := NewScoreBreakdown(doc)
	require.NoError(t, err)
	require.Nil(t, b.Misses)

	flat := b.Flatten()
	_, ok := flat["misses"]
	assert.False(t, ok, "nil field must be omitted, not sent as null")
	assert.Equal(t, 120, flat["fantastics"])
	assert.Len(t, flat, 16)
}

func TestChartUploadFlatten(t *testing.T) {
	u, err := NewChartUpload(uploadDoc())
	require.NoError(t, err)

	flat := u.Flatten()

	// score and song fields are merged into the top-level namespace
	assert.Equal(t, 0.982, flat["scoreValue"])
	assert.Equal(t, true, flat["passed"])
	assert.Equal(t, 2, flat["misses"])
	assert.Equal(t, "Springtime", flat["title"])
	assert.Equal(t, "Kors K", flat["artist"])

	// upload's own scalars come along
	assert.Equal(t, "abc123", flat["hash"])
	assert.Equal(t, 11, flat["meter"])
	assert.Equal(t, "weekly", flat["group"])
	assert.Equal(t, "0001\n1000\n0100\n", flat["stepData"])

	// null song fields are omitted
	_, ok := flat["titleTransliteration"]
	assert.False(t, ok)

	// timing windows and speed mod stay nested one level deep
	tw, ok := flat["timingWindows"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.015, tw["fantasticTimingWindow"])
	sm, ok := flat["speedMod"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", sm["type"])

	// event traces are sequences of flat maps
	assert.Equal(t, []map[string]any{}, flat["inputEvents"])

	// no record values leak through at the top level
	for k, v := range flat {
		switch v.(type) {
		case *Song, *Score, *ScoreBreakdown, *TimingWindows:
			t.Errorf("field %q holds an unflattened record", k)
		}
	}
}

func TestMissingFieldErrorMessage(t *testing.T) {
	err := &MissingFieldError{Record: "Song", Field: "title"}
	assert.True(t, strings.Contains(err.Error(), "Song"))
	assert.True(t, strings.Contains(err.Error(), `"title"`))
	assert.True(t, IsMissingField(err))
	assert.False(t, IsMissingField(nil))
}

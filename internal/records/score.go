package records

// ScoreBreakdown holds the per-judgment counts for one play. Every
// field is required at construction; a field may still carry a null
// value, in which case it is omitted from the flattened payload.
type ScoreBreakdown struct {
	Fantastics   *int
	Excellents   *int
	Greats       *int
	Decents      *int
	Wayoffs      *int
	Misses       *int
	Holds        *int
	HoldsTotal   *int
	MinesHit     *int
	MinesAvoided *int
	MinesTotal   *int
	Rolls        *int
	RollsTotal   *int
	Jumps        *int
	JumpsTotal   *int
	Hands        *int
	HandsTotal   *int
}

var scoreBreakdownSchema = schema{
	"fantastics":   required(),
	"excellents":   required(),
	"greats":       required(),
	"decents":      required(),
	"wayoffs":      required(),
	"misses":       required(),
	"holds":        required(),
	"holdsTotal":   required(),
	"minesHit":     required(),
	"minesAvoided": required(),
	"minesTotal":   required(),
	"rolls":        required(),
	"rollsTotal":   required(),
	"jumps":        required(),
	"jumpsTotal":   required(),
	"hands":        required(),
	"handsTotal":   required(),
}

// NewScoreBreakdown hydrates a ScoreBreakdown from a loosely typed document
func NewScoreBreakdown(doc map[string]any) (*ScoreBreakdown, error) {
	vals, err := build("ScoreBreakdown", scoreBreakdownSchema, doc)
	if err != nil {
		return nil, err
	}

	return &ScoreBreakdown{
		Fantastics:   asIntPtr(vals["fantastics"]),
		Excellents:   asIntPtr(vals["excellents"]),
		Greats:       asIntPtr(vals["greats"]),
		Decents:      asIntPtr(vals["decents"]),
		Wayoffs:      asIntPtr(vals["wayoffs"]),
		Misses:       asIntPtr(vals["misses"]),
		Holds:        asIntPtr(vals["holds"]),
		HoldsTotal:   asIntPtr(vals["holdsTotal"]),
		MinesHit:     asIntPtr(vals["minesHit"]),
		MinesAvoided: asIntPtr(vals["minesAvoided"]),
		MinesTotal:   asIntPtr(vals["minesTotal"]),
		Rolls:        asIntPtr(vals["rolls"]),
		RollsTotal:   asIntPtr(vals["rollsTotal"]),
		Jumps:        asIntPtr(vals["jumps"]),
		JumpsTotal:   asIntPtr(vals["jumpsTotal"]),
		Hands:        asIntPtr(vals["hands"]),
		HandsTotal:   asIntPtr(vals["handsTotal"]),
	}, nil
}

// Flatten merges the breakdown's fields into a flat payload namespace,
// omitting null fields entirely.
func (b *ScoreBreakdown) Flatten() map[string]any {
	out := make(map[string]any, 17)
	putInt(out, "fantastics", b.Fantastics)
	putInt(out, "excellents", b.Excellents)
	putInt(out, "greats", b.Greats)
	putInt(out, "decents", b.Decents)
	putInt(out, "wayoffs", b.Wayoffs)
	putInt(out, "misses", b.Misses)
	putInt(out, "holds", b.Holds)
	putInt(out, "holdsTotal", b.HoldsTotal)
	putInt(out, "minesHit", b.MinesHit)
	putInt(out, "minesAvoided", b.MinesAvoided)
	putInt(out, "minesTotal", b.MinesTotal)
	putInt(out, "rolls", b.Rolls)
	putInt(out, "rollsTotal", b.RollsTotal)
	putInt(out, "jumps", b.Jumps)
	putInt(out, "jumpsTotal", b.JumpsTotal)
	putInt(out, "hands", b.Hands)
	putInt(out, "handsTotal", b.HandsTotal)
	return out
}

// Score represents the result of a single play
type Score struct {
	ScoreBreakdown  *ScoreBreakdown
	ScoreValue      *float64
	Passed          *bool
	SecondsSurvived *float64
}

var scoreSchema = schema{
	"scoreBreakdown":  required(),
	"scoreValue":      required(),
	"passed":          required(),
	"secondsSurvived": required(),
}

// NewScore hydrates a Score from a loosely typed document. A breakdown
// supplied as a plain map is recursively constructed; an already
// constructed *ScoreBreakdown is kept as-is.
func NewScore(doc map[string]any) (*Score, error) {
	vals, err := build("Score", scoreSchema, doc)
	if err != nil {
		return nil, err
	}

	s := &Score{
		ScoreValue:      asFloatPtr(vals["scoreValue"]),
		Passed:          asBoolPtr(vals["passed"]),
		SecondsSurvived: asFloatPtr(vals["secondsSurvived"]),
	}

	switch v := vals["scoreBreakdown"].(type) {
	case map[string]any:
		b, err := NewScoreBreakdown(v)
		if err != nil {
			return nil, err
		}
		s.ScoreBreakdown = b
	case *ScoreBreakdown:
		s.ScoreBreakdown = v
	}

	return s, nil
}

// Flatten merges the score's own fields and its breakdown's fields into
// a single flat namespace, omitting null fields.
func (s *Score) Flatten() map[string]any {
	out := make(map[string]any, 20)
	putFloat(out, "scoreValue", s.ScoreValue)
	putBool(out, "passed", s.Passed)
	putFloat(out, "secondsSurvived", s.SecondsSurvived)
	if s.ScoreBreakdown != nil {
		for k, v := range s.ScoreBreakdown.Flatten() {
			out[k] = v
		}
	}
	return out
}

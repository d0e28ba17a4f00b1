package records

import "encoding/json"

// Player represents a registered player profile as returned by the
// tournament service
type Player struct {
	ID            string
	Nickname      string
	ShortNickname string
	AvatarIconURL string
	RfidUID       string
	MetaData      *string
	MountType     bool
}

var playerSchema = schema{
	"_id":           required(),
	"nickname":      required(),
	"shortNickname": optional(""),
	"avatarIconUrl": optional(""),
	"rfidUid":       optional(""),
	"metaData":      optional("{}"),
	"mountType":     optional(false),
}

// NewPlayer hydrates a Player from a loosely typed document. Keys not
// declared in the schema are ignored.
func NewPlayer(doc map[string]any) (*Player, error) {
	vals, err := build("Player", playerSchema, doc)
	if err != nil {
		return nil, err
	}

	return &Player{
		ID:            asString(vals["_id"]),
		Nickname:      asString(vals["nickname"]),
		ShortNickname: asString(vals["shortNickname"]),
		AvatarIconURL: asString(vals["avatarIconUrl"]),
		RfidUID:       asString(vals["rfidUid"]),
		MetaData:      asStringPtr(vals["metaData"]),
		MountType:     asBool(vals["mountType"]),
	}, nil
}

// GetMeta returns the named key from the player's metaData blob, or nil
// when the blob is null, malformed, or does not contain the key. The
// blob is parsed on each call, never at construction time.
func (p *Player) GetMeta(field string) any {
	if p.MetaData == nil {
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(*p.MetaData), &data); err != nil {
		return nil
	}

	return data[field]
}

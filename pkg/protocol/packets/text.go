package packets

import (
	"encoding/json"
	"strings"
)

// Text is a chat component. Only the fields the login and status flows
// produce are modelled; a bare JSON string decodes into Text.Text.
type Text struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
	Bold  bool   `json:"bold,omitempty"`
	Extra []Text `json:"extra,omitempty"`
}

// UnmarshalJSON accepts both the object and the plain string form.
func (t *Text) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		*t = Text{}
		return json.Unmarshal(data, &t.Text)
	}
	type plain Text
	return json.Unmarshal(data, (*plain)(t))
}

// Plain returns the concatenated text without formatting.
func (t Text) Plain() string {
	var b strings.Builder
	t.writePlain(&b)
	return b.String()
}

func (t Text) writePlain(b *strings.Builder) {
	b.WriteString(t.Text)
	for _, e := range t.Extra {
		e.writePlain(b)
	}
}

// JSON returns t encoded as a chat component.
func (t Text) JSON() string {
	data, _ := json.Marshal(t)
	return string(data)
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const (
	LangFR = "fr"
	LangAR = "ar"
)

// LocalizedText holds a display string that is stored either as a plain
// string or as a {fr, ar} document. Both shapes decode and round-trip.
type LocalizedText struct {
	Plain string
	FR    string
	AR    string
}

type localizedDoc struct {
	FR string `bson:"fr,omitempty" json:"fr,omitempty"`
	AR string `bson:"ar,omitempty" json:"ar,omitempty"`
}

func Text(value string) LocalizedText {
	return LocalizedText{Plain: value}
}

func Translated(fr, ar string) LocalizedText {
	return LocalizedText{FR: fr, AR: ar}
}

func (t LocalizedText) isTranslated() bool {
	return t.FR != "" || t.AR != ""
}

func (t LocalizedText) IsZero() bool {
	return strings.TrimSpace(t.Plain) == "" && strings.TrimSpace(t.FR) == "" && strings.TrimSpace(t.AR) == ""
}

// Resolve picks the requested language, then falls back to fr, ar and
// finally the plain value.
func (t LocalizedText) Resolve(lang string) string {
	candidates := make([]string, 0, 4)
	switch lang {
	case LangFR:
		candidates = append(candidates, t.FR)
	case LangAR:
		candidates = append(candidates, t.AR)
	}
	candidates = append(candidates, t.FR, t.AR, t.Plain)
	for _, value := range candidates {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func (t LocalizedText) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, value := range []string{t.Plain, t.FR, t.AR} {
		if strings.Contains(strings.ToLower(value), q) {
			return true
		}
	}
	return false
}

func (t LocalizedText) Trimmed() LocalizedText {
	return LocalizedText{
		Plain: strings.TrimSpace(t.Plain),
		FR:    strings.TrimSpace(t.FR),
		AR:    strings.TrimSpace(t.AR),
	}
}

func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if t.isTranslated() {
		return json.Marshal(localizedDoc{FR: t.FR, AR: t.AR})
	}
	return json.Marshal(t.Plain)
}

func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*t = LocalizedText{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*t = LocalizedText{Plain: value}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var doc localizedDoc
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return err
		}
		*t = LocalizedText{FR: doc.FR, AR: doc.AR}
		return nil
	default:
		return fmt.Errorf("localized text must be a string or an {fr, ar} object")
	}
}

// UnmarshalBSONValue accepts both string and embedded document values so
// legacy single-language documents keep decoding.
func (t *LocalizedText) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	switch bt {
	case bsontype.Null, bsontype.Undefined:
		*t = LocalizedText{}
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(bt, data, &value); err != nil {
			return err
		}
		*t = LocalizedText{Plain: value}
		return nil
	case bsontype.EmbeddedDocument:
		var doc localizedDoc
		if err := bson.UnmarshalValue(bt, data, &doc); err != nil {
			return err
		}
		*t = LocalizedText{FR: doc.FR, AR: doc.AR}
		return nil
	default:
		return fmt.Errorf("cannot decode %s into LocalizedText", bt)
	}
}

func (t LocalizedText) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if t.isTranslated() {
		return bson.MarshalValue(localizedDoc{FR: t.FR, AR: t.AR})
	}
	return bson.MarshalValue(t.Plain)
}

package model

import (
	"encoding/json"
	"strings"
)

// UnknownClass is the reserved bucket for values never seen during training.
const UnknownClass = "Unknown"

// LabelEncoder maps categorical values to the stable indices used at training time.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder builds an encoder over classes, appending UnknownClass when absent.
func NewLabelEncoder(classes []string) *LabelEncoder {
	e := &LabelEncoder{
		classes: make([]string, 0, len(classes)+1),
		index:   make(map[string]int, len(classes)+1),
	}
	for _, c := range classes {
		if _, dup := e.index[c]; dup {
			continue
		}
		e.index[c] = len(e.classes)
		e.classes = append(e.classes, c)
	}
	if _, ok := e.index[UnknownClass]; !ok {
		e.index[UnknownClass] = len(e.classes)
		e.classes = append(e.classes, UnknownClass)
	}
	return e
}

// Lookup returns the index of value and whether it was seen during training.
func (e *LabelEncoder) Lookup(value string) (int, bool) {
	idx, ok := e.index[value]
	return idx, ok
}

// Encode returns the index of value, or the Unknown bucket for unseen values.
func (e *LabelEncoder) Encode(value string) int {
	if idx, ok := e.index[value]; ok {
		return idx
	}
	return e.index[UnknownClass]
}

// Decode maps an index back to its class label.
func (e *LabelEncoder) Decode(idx int) (string, bool) {
	if idx < 0 || idx >= len(e.classes) {
		return "", false
	}
	return e.classes[idx], true
}

// Classes returns a copy of the ordered class list.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return err
	}
	*e = *NewLabelEncoder(classes)
	return nil
}

func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.classes)
}

// EncoderSet holds one encoder per categorical field.
type EncoderSet map[string]*LabelEncoder

// Encode maps value through the field's encoder. Fields without an encoder
// encode to 0, which is where an empty training vocabulary would put Unknown.
func (s EncoderSet) Encode(field, value string) int {
	enc, ok := s[strings.ToLower(field)]
	if !ok || enc == nil {
		return 0
	}
	return enc.Encode(value)
}

// Get returns the encoder for field, if any.
func (s EncoderSet) Get(field string) (*LabelEncoder, bool) {
	enc, ok := s[strings.ToLower(field)]
	return enc, ok && enc != nil
}

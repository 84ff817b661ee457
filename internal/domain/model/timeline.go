package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// TimelinePoint is the display-ready projection of a NormalizedEntry.
type TimelinePoint struct {
	Discipline string     `json:"discipline"`
	Date       time.Time  `json:"date"`
	Value      PointValue `json:"value"`
	Wind       *float64   `json:"wind,omitempty"`
	Meeting    string     `json:"meeting,omitempty"`
	Points     *float64   `json:"points,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// PointValue is either a number or, for marks like "DNF", the raw text.
type PointValue struct {
	Number   float64
	Text     string
	IsNumber bool
}

// NumberValue wraps a canonical numeric mark.
func NumberValue(v float64) PointValue { return PointValue{Number: v, IsNumber: true} }

// TextValue wraps a non-numeric mark.
func TextValue(s string) PointValue { return PointValue{Text: s} }

// MarshalJSON encodes the value as a JSON number or string.
func (v PointValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber {
		return []byte(strconv.FormatFloat(v.Number, 'f', -1, 64)), nil
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (v *PointValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = NumberValue(f)
	return nil
}

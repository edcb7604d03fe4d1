package engagement

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Record is one visitor interaction as stored by the backend.
type Record struct {
	UserID          string     `json:"user_id,omitempty"`
	Age             FlexString `json:"age,omitempty"`
	Job             string     `json:"job,omitempty"`
	Desires         []string   `json:"desires"`
	QuestionClicked string     `json:"question_clicked,omitempty"`
	Service         string     `json:"service,omitempty"`
	Timestamp       string     `json:"timestamp,omitempty"`
}

// Header lists the export columns in backend CSV order.
var Header = []string{"user_id", "age", "job", "desire", "question", "service", "timestamp"}

// DesiresText joins desires the way the engagement table shows them.
func (r Record) DesiresText() string {
	return strings.Join(r.Desires, ", ")
}

// Row returns the table cells for the record. Missing values are empty strings.
func (r Record) Row() []string {
	return []string{
		r.UserID,
		r.Age.String(),
		r.Job,
		r.DesiresText(),
		r.QuestionClicked,
		r.Service,
		r.Timestamp,
	}
}

// Stamp fills Timestamp with t in RFC 3339 when it is unset.
func (r *Record) Stamp(t time.Time) {
	if r.Timestamp == "" {
		r.Timestamp = t.UTC().Format(time.RFC3339)
	}
}

// FlexString accepts a JSON string, number or null. The backend stores ages as
// integers while older records carry strings.
type FlexString string

// String returns the raw value.
func (f FlexString) String() string {
	return string(f)
}

// Int parses the value as an integer.
func (f FlexString) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
		return nil
	}
}

// MarshalJSON emits an integer when the value is numeric, null when empty.
func (f FlexString) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	if n, ok := f.Int(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(f))
}

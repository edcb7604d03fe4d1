package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CountEntry is one label/count pair of an aggregate.
type CountEntry struct {
	Label string
	Count int
}

// Counts is a label→count mapping that keeps the order the backend sent.
type Counts struct {
	entries []CountEntry
}

// NewCounts builds Counts from pairs in the given order. Later duplicates
// overwrite the count but keep the first position.
func NewCounts(entries ...CountEntry) Counts {
	om := orderedmap.New[string, int](orderedmap.WithCapacity[string, int](len(entries)))
	for _, e := range entries {
		om.Set(e.Label, e.Count)
	}
	return countsFrom(om)
}

func countsFrom(om *orderedmap.OrderedMap[string, int]) Counts {
	out := make([]CountEntry, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, CountEntry{Label: pair.Key, Count: pair.Value})
	}
	return Counts{entries: out}
}

// Entries returns a copy of the pairs in order.
func (c Counts) Entries() []CountEntry {
	out := make([]CountEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Labels returns the labels in order.
func (c Counts) Labels() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Label
	}
	return out
}

// Values returns the counts in order.
func (c Counts) Values() []float64 {
	out := make([]float64, len(c.entries))
	for i, e := range c.entries {
		out[i] = float64(e.Count)
	}
	return out
}

// Len reports the number of labels.
func (c Counts) Len() int {
	return len(c.entries)
}

// Total sums every count.
func (c Counts) Total() int {
	total := 0
	for _, e := range c.entries {
		total += e.Count
	}
	return total
}

// Head returns the first n entries in backend order.
func (c Counts) Head(n int) Counts {
	out := c.Entries()
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return Counts{entries: out}
}

// UnmarshalJSON decodes a JSON object preserving key order. null yields empty Counts.
func (c *Counts) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		c.entries = nil
		return nil
	}
	om := orderedmap.New[string, int]()
	if err := om.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("dashboard: decode counts: %w", err)
	}
	*c = countsFrom(om)
	return nil
}

// MarshalJSON encodes Counts as a JSON object in order.
func (c Counts) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, int](orderedmap.WithCapacity[string, int](len(c.entries)))
	for _, e := range c.entries {
		om.Set(e.Label, e.Count)
	}
	return json.Marshal(om)
}

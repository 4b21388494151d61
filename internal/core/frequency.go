package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// FrequencyEntry is one key of a frequency table
type FrequencyEntry struct {
	Key   string
	Count int
}

// Frequency is an ordered frequency table. It serialises as a JSON object that keeps its order.
type Frequency []FrequencyEntry

// Get returns the count for key, zero when absent
func (f Frequency) Get(key string) int {
	for _, e := range f {
		if e.Key == key {
			return e.Count
		}
	}
	return 0
}

// Keys returns the keys in table order
func (f Frequency) Keys() []string {
	keys := make([]string, len(f))
	for i, e := range f {
		keys[i] = e.Key
	}
	return keys
}

// MarshalJSON writes the table as an object in table order
func (f Frequency) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", e.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping the key order of the document
func (f *Frequency) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("frequency: expected object, got %v", tok)
	}

	out := Frequency{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("frequency: expected string key, got %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("frequency: value for %q: %w", key, err)
		}
		out = append(out, FrequencyEntry{Key: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// counter accumulates counts remembering first-seen order
type counter struct {
	index   map[string]int
	entries Frequency
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.entries[i].Count++
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, FrequencyEntry{Key: key, Count: 1})
}

// firstSeen returns the table in first-seen order
func (c *counter) firstSeen() Frequency {
	out := make(Frequency, len(c.entries))
	copy(out, c.entries)
	return out
}

// descending returns the table by descending count, ties kept in first-seen order
func (c *counter) descending() Frequency {
	out := c.firstSeen()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

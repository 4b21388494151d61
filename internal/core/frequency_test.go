package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_DescendingKeepsFirstSeenTies(t *testing.T) {
	c := newCounter()
	for _, k := range []string{"b", "a", "c", "a", "c", "d"} {
		c.add(k)
	}

	assert.Equal(t, []string{"a", "c", "b", "d"}, c.descending().Keys())
	assert.Equal(t, []string{"b", "a", "c", "d"}, c.firstSeen().Keys())
	assert.Equal(t, 2, c.descending().Get("a"))
	assert.Equal(t, 0, c.descending().Get("missing"))
}

func TestFrequency_JSONKeepsOrder(t *testing.T) {
	f := Frequency{{Key: "zeta", Count: 3}, {Key: "alpha", Count: 1}}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":3,"alpha":1}`, string(data))

	var back Frequency
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, f, back)
}

func TestFrequency_EmptyMarshalsAsObject(t *testing.T) {
	data, err := json.Marshal(Frequency{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	var f Frequency
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &f))
}

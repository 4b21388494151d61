package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestClip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"within limit", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello"},
		{"runes not bytes", "añoñaño", 3, "año"},
		{"no limit", "hello", 0, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clip(tt.in, tt.max))
		})
	}
}

func TestExcerpt(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	assert.Equal(t, "abc", tp.Excerpt("abc\xffdef", 3))
	assert.Equal(t, "abcdef", tp.Excerpt("abc\xffdef", 100))
}

package bypass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChecker_IsBypassed(t *testing.T) {
	c := NewChecker([]string{" Example.com ", "*.partner.io", ""}, zap.NewNop())

	tests := []struct {
		sender string
		want   bool
	}{
		{"ana@example.com", true},
		{"Ana Lopez <ANA@EXAMPLE.COM>", true},
		{"ana@mail.example.com", false},
		{"bob@partner.io", true},
		{"bob@eu.partner.io", true},
		{"bob@notpartner.io", false},
		{"not an address", false},
		{"trailing@", false},
	}
	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsBypassed(tt.sender))
		})
	}
}

func TestChecker_Empty(t *testing.T) {
	assert.False(t, NewChecker(nil, nil).IsBypassed("ana@example.com"))
}

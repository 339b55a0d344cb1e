package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "Hello", want: "hello"},
		{in: "  big   \t house ", want: "big house"},
		{in: "ＡＢＣ", want: "abc"},
		{in: "Straße", want: "strasse"},
		{in: "CAFÉ", want: "café"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestASCIISafe(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "plain text", want: "plain text"},
		{in: "café", want: "cafe"},
		{in: "naïve", want: "naive"},
		{in: "a→b", want: "a b"},
		{in: "日本", want: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ASCIISafe(tt.in))
		})
	}
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, `ab%`, LikePrefix("ab"))
	assert.Equal(t, `50\%\_a\\%`, LikePrefix(`50%_a\`))
	assert.Equal(t, `%x\_y%`, LikeContains("x_y"))
}

package narration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkdown(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "# The Long Road\nIt began at dawn.", "The Long Road It began at dawn."},
		{"emphasis", "A **bold** and *quiet* hero", "A bold and quiet hero"},
		{"link", "See [the map](https://example.com) now", "See the map now"},
		{"image", "Before ![alt](img.png)after", "Before after"},
		{"code", "Cast `fireball` and ```shield```", "Cast fireball and shield"},
		{"list", "- first\n- second", "first second"},
		{"quote", "> spoken softly\nthen loud", "spoken softly then loud"},
		{"whitespace", "  many   spaces\n\n\nand lines  ", "many spaces and lines"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripMarkdown(tc.in))
		})
	}
}

func TestStripMarkdown_PlainTextOnlyNormalizesWhitespace(t *testing.T) {
	in := "The hero walked home.\nShe was tired,   but proud."
	assert.Equal(t, "The hero walked home. She was tired, but proud.", StripMarkdown(in))
}

func TestIsNarratable(t *testing.T) {
	assert.False(t, IsNarratable(StripMarkdown("## **Hi**")))
	assert.False(t, IsNarratable("123456789"))
	assert.True(t, IsNarratable("1234567890"))
}

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID(NewJournalEntry("u", "", "x", MoodHappy, false).ID))
	assert.True(t, IsValidID("7D0F3C4E-0000-4000-8000-000000000001"))

	for _, id := range []string{
		"",
		"abc",
		"7d0f3c4e000040008000000000000001",
		"{7d0f3c4e-0000-4000-8000-000000000001}",
		"urn:uuid:7d0f3c4e-0000-4000-8000-000000000001",
		"7d0f3c4e-0000-4000-8000-00000000000g",
	} {
		assert.False(t, IsValidID(id), id)
	}
}

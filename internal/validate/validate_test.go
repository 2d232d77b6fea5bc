package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomerFields(t *testing.T) {
	n, ok := Name("  Дилноза Каримова ")
	assert.True(t, ok)
	assert.Equal(t, "Дилноза Каримова", n)

	_, ok = Name("   ")
	assert.False(t, ok)
	_, ok = Name(strings.Repeat("a", 101))
	assert.False(t, ok)
	_, ok = Name("bad\x00name")
	assert.False(t, ok)

	for _, p := range []string{"+998 90 123-45-67", "(71) 200 00 00", "998901234567"} {
		_, ok := Phone(p)
		assert.True(t, ok, p)
	}
	for _, p := range []string{"", "12", "call me", "+998<script>"} {
		_, ok := Phone(p)
		assert.False(t, ok, p)
	}

	a, ok := Address("Tashkent,\nChilonzor 7")
	assert.True(t, ok)
	assert.Contains(t, a, "Chilonzor")

	notes, ok := Notes("")
	assert.True(t, ok)
	assert.Empty(t, notes)
	_, ok = Notes(strings.Repeat("x", 1001))
	assert.False(t, ok)
}

func TestID(t *testing.T) {
	_, ok := ID("emulsion-10l")
	assert.True(t, ok)
	_, ok = ID("../etc")
	assert.False(t, ok)
	_, ok = ID("")
	assert.False(t, ok)
}

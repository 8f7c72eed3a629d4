package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag_HasAny(t *testing.T) {
	tags := ProgramTextArea | Word | Fixed

	assert.True(t, tags.Has(Word))
	assert.True(t, tags.Has(Word|Fixed))
	assert.False(t, tags.Has(Word|Free))
	assert.True(t, tags.Any(Word|Free))
	assert.False(t, tags.Has(0))
}

func TestTag_StringRoundTrip(t *testing.T) {
	tags := Comment | Skipped | Variable

	assert.Equal(t, "COMMENT|VARIABLE|SKIPPED", tags.String())
	assert.Equal(t, tags, ParseTags(tags.String()))
	assert.Equal(t, "NONE", Tag(0).String())
}

func TestSourceFormat(t *testing.T) {
	tests := []struct {
		in   string
		want SourceFormat
	}{
		{"fixed", FormatFixed},
		{`"FREE"`, FormatFree},
		{" Variable ", FormatVariable},
	}
	for _, tt := range tests {
		got, err := ParseSourceFormat(tt.in)
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseSourceFormat("TERMINAL")
	assert.Error(t, err)

	f, ok := FormatOf(NewToken("x", StartOf(""), Free))
	assert.True(t, ok)
	assert.Equal(t, FormatFree, f)
	assert.Equal(t, Variable, FormatVariable.Tag())
}

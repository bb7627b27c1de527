package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredAnswer(t *testing.T) {
	v := Parse("Answer: YES\nDescription: a red car\nConfidence: 8")

	assert.True(t, v.IsMatch)
	require.NotNil(t, v.Description)
	assert.Equal(t, "a red car", *v.Description)
	assert.Equal(t, 8, v.Confidence)
}

func TestParseMissingConfidenceDefaults(t *testing.T) {
	v := Parse("Answer: YES\nDescription: a dog on a couch")

	assert.Equal(t, DefaultConfidence, v.Confidence)
	assert.True(t, v.IsMatch)
}

func TestParseMalformedConfidenceDefaults(t *testing.T) {
	v := Parse("Answer: NO\nConfidence: abc")

	assert.Equal(t, DefaultConfidence, v.Confidence)
	assert.False(t, v.IsMatch)
}

func TestParseMatchThreshold(t *testing.T) {
	atThreshold := Parse("Answer: YES\nConfidence: 7")
	assert.True(t, atThreshold.IsMatch)

	belowThreshold := Parse("Answer: YES\nConfidence: 6")
	assert.False(t, belowThreshold.IsMatch)
}

func TestParseMissingAnswerIsNoMatch(t *testing.T) {
	v := Parse("Description: an empty street\nConfidence: 9")

	assert.False(t, v.IsMatch)
	require.NotNil(t, v.Description)
	assert.Equal(t, "an empty street", *v.Description)
}

func TestParseCaseInsensitivePrefixes(t *testing.T) {
	v := Parse("ANSWER: yes\nREASONING: blurred but visible\nCONFIDENCE: 9")

	assert.True(t, v.IsMatch)
	require.NotNil(t, v.Description)
	assert.Equal(t, "blurred but visible", *v.Description)
}

func TestParseLastDescriptionWins(t *testing.T) {
	v := Parse("Reasoning: maybe a bike\nAlternative description: definitely a scooter")

	require.NotNil(t, v.Description)
	assert.Equal(t, "definitely a scooter", *v.Description)
}

func TestParseIgnoresUnknownLines(t *testing.T) {
	v := Parse("Here is my analysis.\nAnswer: NO\nNote: low light\nConfidence: 3")

	assert.False(t, v.IsMatch)
	assert.Equal(t, 3, v.Confidence)
	assert.Nil(t, v.Description)
}

func TestParseEmptyInput(t *testing.T) {
	v := Parse("")

	assert.False(t, v.IsMatch)
	assert.Equal(t, DefaultConfidence, v.Confidence)
	assert.Nil(t, v.Description)
}

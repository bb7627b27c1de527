// Package verdict turns the vision backend's free-text answer into a
// structured detection verdict. Parsing never fails: malformed or missing
// fields fall back to defaults.
package verdict

import (
	"strconv"
	"strings"
)

const (
	// DefaultConfidence is assumed when the confidence line is missing or
	// does not parse as an integer.
	DefaultConfidence = 10

	// MatchThreshold is the minimum confidence for a YES answer to count
	// as a match.
	MatchThreshold = 7
)

// Verdict is the structured result of one frame analysis.
type Verdict struct {
	IsMatch     bool
	Description *string
	Confidence  int
}

var descriptionPrefixes = []string{"description:", "reasoning:", "alternative description:"}

// Parse scans raw line by line for the labeled answer, description and
// confidence fields. Lines matching no known prefix are ignored; when the
// backend emits several description-like lines the last one wins.
func Parse(raw string) Verdict {
	answer := ""
	confidence := DefaultConfidence
	var description *string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "answer:"):
			answer = strings.ToUpper(strings.TrimSpace(line[len("answer:"):]))
		case hasDescriptionPrefix(lower):
			_, rest, _ := strings.Cut(line, ":")
			d := strings.TrimSpace(rest)
			description = &d
		case strings.HasPrefix(lower, "confidence:"):
			v, err := strconv.Atoi(strings.TrimSpace(line[len("confidence:"):]))
			if err != nil {
				confidence = DefaultConfidence
				continue
			}
			confidence = v
		}
	}

	return Verdict{
		IsMatch:     answer == "YES" && confidence >= MatchThreshold,
		Description: description,
		Confidence:  confidence,
	}
}

func hasDescriptionPrefix(lower string) bool {
	for _, p := range descriptionPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

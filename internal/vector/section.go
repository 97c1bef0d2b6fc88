package vector

import (
	"regexp"
	"strings"

	"github.com/hyperjump/docqa/internal/models"
)

var sectionPattern = regexp.MustCompile(`(?i)section\s+[\d.]+[:\s]+([^:\n]+)`)

// ExtractSection returns the label of the first "Section <n>: <label>" heading in
// text, or models.UnknownSection when there is none.
func ExtractSection(text string) string {
	m := sectionPattern.FindStringSubmatch(text)
	if m == nil {
		return models.UnknownSection
	}
	label := strings.TrimSpace(m[1])
	if label == "" {
		return models.UnknownSection
	}
	return label
}

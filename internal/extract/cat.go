package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractWithCat handles ODT and RTF documents.
func extractWithCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("cat: %w", err)
	}
	return text, nil
}

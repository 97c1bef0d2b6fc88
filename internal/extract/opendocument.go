package extract

import (
	"fmt"
	"regexp"
	"strings"
)

const openDocumentContentPath = "content.xml"

// Paragraphs and headings, including any nested spans.
var odfBlock = regexp.MustCompile(`(?s)<text:(?:p|h)(?:\s[^>]*)?>(.*?)</text:(?:p|h)>`)

// extractOpenDocument reads content.xml of an ODP or ODS package and returns one
// line per non-empty paragraph or heading in document order.
func extractOpenDocument(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	data, err := readZipEntry(zr, openDocumentContentPath)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", fmt.Errorf("%s not found", openDocumentContentPath)
	}
	var lines []string
	for _, m := range odfBlock.FindAllStringSubmatch(string(data), -1) {
		if line := strings.TrimSpace(stripTags(m[1])); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

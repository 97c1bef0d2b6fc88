package extract

import (
	"archive/zip"
	"fmt"
	"regexp"
	"strings"
)

const (
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// Paragraph bodies; runs inside a paragraph are concatenated.
	wParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	wtTag      = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// Override elements may list PartName and ContentType in either order.
	overrideTag  = regexp.MustCompile(`<Override[^>]*>`)
	partNameAttr = regexp.MustCompile(`PartName="([^"]+)"`)
)

// findDocxMainDocumentPath reads [Content_Types].xml for the main document part.
// It returns "" when the part is not declared.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipEntry(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	for _, tag := range overrideTag.FindAllString(string(data), -1) {
		if !strings.Contains(tag, `ContentType="`+docxMainContentType+`"`) {
			continue
		}
		if m := partNameAttr.FindStringSubmatch(tag); m != nil {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return ""
}

// extractDOCX returns one line per non-empty paragraph of the main document part.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipEntry(zr, docPath)
	if err != nil {
		return "", err
	}
	if docXML == nil {
		return "", fmt.Errorf("%s not found", docPath)
	}
	var lines []string
	for _, para := range wParagraph.FindAllString(string(docXML), -1) {
		var b strings.Builder
		for _, run := range wtTag.FindAllStringSubmatch(para, -1) {
			b.WriteString(run[1])
		}
		if line := strings.TrimSpace(xmlUnescaper.Replace(b.String())); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

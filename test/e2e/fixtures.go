// Package e2e runs whole-stack question answering tests over the HTTP API.
package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// UploadExtensions are the document types the upload tests generate. PDF, ODT and
// RTF are extractable but have no minimal generator here.
var UploadExtensions = []string{
	".txt", ".md", ".rst",
	".docx", ".xlsx", ".pptx", ".odp", ".ods",
}

// BuildDocument returns a minimal document of type ext holding text, one
// paragraph (or row) per line. Unknown extensions get the raw text.
func BuildDocument(ext, text string) ([]byte, error) {
	lines := strings.Split(text, "\n")
	switch ext {
	case ".docx":
		return zipped("word/document.xml",
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`,
			wrapLines(lines, `<w:p><w:r><w:t>`, `</w:t></w:r></w:p>`),
			`</w:body></w:document>`)
	case ".pptx":
		return zipped("ppt/slides/slide1.xml",
			`<p:sld xmlns:p="a" xmlns:a="b"><p:cSld><p:spTree><p:sp><p:txBody>`,
			wrapLines(lines, `<a:p><a:r><a:t>`, `</a:t></a:r></a:p>`),
			`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	case ".odp":
		return zipped("content.xml",
			`<office:document><office:body><draw:page><draw:text-box>`,
			wrapLines(lines, `<text:p>`, `</text:p>`),
			`</draw:text-box></draw:page></office:body></office:document>`)
	case ".ods":
		return zipped("content.xml",
			`<office:document><office:body><table:table>`,
			wrapLines(lines, `<table:table-row><table:table-cell><text:p>`, `</text:p></table:table-cell></table:table-row>`),
			`</table:table></office:body></office:document>`)
	case ".xlsx":
		return spreadsheet(lines)
	default:
		return []byte(text), nil
	}
}

func wrapLines(lines []string, prefix, suffix string) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(prefix)
		_ = xml.EscapeText(&sb, []byte(line))
		sb.WriteString(suffix)
	}
	return sb.String()
}

func zipped(name string, parts ...string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create(name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write([]byte(strings.Join(parts, ""))); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func spreadsheet(lines []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	for i, line := range lines {
		if err := f.SetCellValue("Sheet1", fmt.Sprintf("A%d", i+1), line); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

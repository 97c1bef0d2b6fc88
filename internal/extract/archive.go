package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
)

// maxZipEntryBytes bounds how much of one archive entry is read into memory.
const maxZipEntryBytes = 64 << 20

var xmlTag = regexp.MustCompile(`<[^>]+>`)

func openZip(content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a zip archive: %w", err)
	}
	return zr, nil
}

// readZipEntry returns the contents of the entry called name, or nil when absent.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return readZipFile(f)
		}
	}
	return nil, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxZipEntryBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

// stripTags removes XML markup and unescapes the five predefined entities.
func stripTags(s string) string {
	s = xmlTag.ReplaceAllString(s, "")
	return xmlUnescaper.Replace(s)
}

package extract

import (
	"archive/zip"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	atTag     = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
)

// extractPPTX returns the text of each slide on its own line, in slide-number order.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content)
	if err != nil {
		return "", err
	}
	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePath.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var lines []string
	for _, s := range slides {
		data, err := readZipFile(s.file)
		if err != nil {
			return "", err
		}
		var parts []string
		for _, p := range atTag.FindAllStringSubmatch(string(data), -1) {
			if t := strings.TrimSpace(p[1]); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, xmlUnescaper.Replace(strings.Join(parts, " ")))
		}
	}
	return strings.Join(lines, "\n"), nil
}

package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// xmlFormat is a zip package whose text lives in XML text nodes.
type xmlFormat struct {
	name  string
	parts func(zr *zip.Reader) []string
	node  *regexp.Regexp
}

var (
	docx = xmlFormat{
		name:  "DOCX",
		parts: docxParts,
		node:  regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`),
	}
	pptx = xmlFormat{
		name:  "PPTX",
		parts: slideParts,
		node:  regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`),
	}
	odf = xmlFormat{
		name:  "OpenDocument",
		parts: func(*zip.Reader) []string { return []string{"content.xml"} },
		node:  regexp.MustCompile(`<text:(?:p|span|h)(?:\s[^>]*)?>([^<]*)</text:(?:p|span|h)>`),
	}
)

// extract joins the text nodes of every part, in part order.
func (f xmlFormat) extract(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%s: not a zip: %w", f.name, err)
	}
	parts := f.parts(zr)
	if len(parts) == 0 {
		return "", nil
	}
	var words []string
	for _, name := range parts {
		data, err := readEntry(zr, name)
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.name, err)
		}
		for _, m := range f.node.FindAllSubmatch(data, -1) {
			if text := strings.TrimSpace(string(m[1])); text != "" {
				words = append(words, text)
			}
		}
	}
	return strings.Join(words, " "), nil
}

var errEntryNotFound = errors.New("entry not found")

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s: %w", name, errEntryNotFound)
}

const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

var overrideTag = regexp.MustCompile(`<Override\s[^>]*>`)
var xmlAttr = regexp.MustCompile(`(\w+)="([^"]*)"`)

// docxParts returns the main document part named in [Content_Types].xml,
// falling back to word/document.xml.
func docxParts(zr *zip.Reader) []string {
	if types, err := readEntry(zr, "[Content_Types].xml"); err == nil {
		for _, tag := range overrideTag.FindAll(types, -1) {
			attrs := map[string]string{}
			for _, a := range xmlAttr.FindAllSubmatch(tag, -1) {
				attrs[string(a[1])] = string(a[2])
			}
			if attrs["ContentType"] == docxMainContentType && attrs["PartName"] != "" {
				return []string{strings.TrimPrefix(attrs["PartName"], "/")}
			}
		}
	}
	return []string{"word/document.xml"}
}

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// slideParts returns the slide parts ordered by slide number.
func slideParts(zr *zip.Reader) []string {
	type slide struct {
		name string
		n    int
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{name: f.Name, n: n})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	names := make([]string, len(slides))
	for i, s := range slides {
		names[i] = s.name
	}
	return names
}

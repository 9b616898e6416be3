package cid10

import (
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

// ErrNoCodes is returned when the XML yields nothing, almost always a
// wrong file rather than an empty classification.
var ErrNoCodes = errors.New("no CID-10 codes found in input")

// codeElementRe matches category and subcategory elements in the DATASUS
// CID-10 XML and captures the code attribute and the element's <nome>
// text. A regex scan rather than an XML parser: the generator runs once
// against a fixed file, and the upstream XML is not schema-stable enough
// to be worth modeling.
var codeElementRe = regexp.MustCompile(
	`(?s)<(?:categoria|subcategoria)[^>]*\bcod(?:sub)?cat="([A-Z]\d{2,3})"[^>]*>.*?<nome>(.*?)</nome>`)

// tagRe strips markup nested inside <nome> (the XML marks up references
// with inline elements).
var tagRe = regexp.MustCompile(`<[^>]+>`)

// ExtractXML scans the DATASUS CID-10 XML and returns the codes in
// document order. Subcategory codes gain the display dot (A000 becomes
// A00.0); entities in names are decoded.
func ExtractXML(r io.Reader) ([]Code, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read CID-10 XML: %w", err)
	}

	matches := codeElementRe.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return nil, ErrNoCodes
	}

	codes := make([]Code, 0, len(matches))
	for _, m := range matches {
		code := displayCode(string(m[1]))
		name := cleanName(string(m[2]))
		if name == "" {
			continue
		}
		codes = append(codes, Code{Code: code, Name: name})
	}
	return codes, nil
}

// displayCode inserts the dot into subcategory codes: A000 -> A00.0.
// Category codes (A00) pass through.
func displayCode(raw string) string {
	if len(raw) == 4 {
		return raw[:3] + "." + raw[3:]
	}
	return raw
}

func cleanName(raw string) string {
	name := tagRe.ReplaceAllString(raw, "")
	name = html.UnescapeString(name)
	return strings.Join(strings.Fields(name), " ")
}

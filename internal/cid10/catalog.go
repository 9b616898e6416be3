package cid10

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Code is one CID-10 entry in the JSON artifact.
type Code struct {
	Code string `json:"code"`
	Name string `json:"name"`

	// folded is the accent-folded name, computed once at load time.
	folded string
}

// Catalog is the in-memory reference data the search helper scans.
type Catalog struct {
	codes []Code
}

// NewCatalog builds a catalog from extracted codes, folding names up
// front so searches don't re-normalize 14k names per query.
func NewCatalog(codes []Code) *Catalog {
	prepared := make([]Code, len(codes))
	for i, c := range codes {
		c.folded = Fold(c.Name)
		prepared[i] = c
	}
	return &Catalog{codes: prepared}
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.codes) }

// Codes returns the entries in artifact order.
func (c *Catalog) Codes() []Code { return c.codes }

// WriteJSON writes the artifact the clinic application serves to its
// autocomplete widget. Stable field order, indented: the file is checked
// into the application repo and diffed by humans.
func WriteJSON(codes []Code, path string) error {
	data, err := json.MarshalIndent(codes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal CID-10 catalog: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads the artifact back into a searchable catalog.
func LoadJSON(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var codes []Code
	if err := json.Unmarshal(data, &codes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewCatalog(codes), nil
}

// Search scans the catalog linearly and returns entries whose folded name
// contains the folded query, or whose code starts with the query
// (case-insensitive, dot optional). Artifact order is preserved. An empty
// query matches nothing.
func (c *Catalog) Search(query string) []Code {
	folded := Fold(query)
	if folded == "" {
		return nil
	}
	codeQuery := normalizeCodeQuery(query)

	var out []Code
	for _, entry := range c.codes {
		if strings.Contains(entry.folded, folded) {
			out = append(out, entry)
			continue
		}
		if codeQuery != "" && strings.HasPrefix(stripDot(entry.Code), codeQuery) {
			out = append(out, entry)
		}
	}
	return out
}

// SearchXML is the competing strategy the benchmark measures: re-extract
// the codes from the raw XML on every query, then apply the same match.
func SearchXML(xml []byte, query string) ([]Code, error) {
	codes, err := ExtractXML(bytes.NewReader(xml))
	if err != nil {
		return nil, err
	}
	return NewCatalog(codes).Search(query), nil
}

// normalizeCodeQuery uppercases and de-dots a query so it can prefix-match
// codes; returns "" when the query doesn't look like a code at all.
func normalizeCodeQuery(query string) string {
	q := stripDot(strings.ToUpper(strings.TrimSpace(query)))
	if q == "" {
		return ""
	}
	if q[0] < 'A' || q[0] > 'Z' {
		return ""
	}
	return q
}

func stripDot(code string) string {
	return strings.ReplaceAll(code, ".", "")
}

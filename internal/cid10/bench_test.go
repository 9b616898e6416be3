package cid10

import (
	"fmt"
	"strings"
	"testing"
)

// benchXML builds a catalog-sized XML document so the two strategies are
// compared at a realistic scale (the real classification has ~14k codes;
// a few thousand is enough to show the shape of the difference).
func benchXML(categories int) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><cid10>`)
	for i := 0; i < categories; i++ {
		code := fmt.Sprintf("%c%02d", 'A'+i%26, i%100)
		fmt.Fprintf(&b, `<categoria codcat="%s"><nome>Condição número %d</nome>`, code, i)
		for j := 0; j < 3; j++ {
			fmt.Fprintf(&b, `<subcategoria codsubcat="%s%d"><nome>Subcondição %d do grupo %d</nome></subcategoria>`,
				code, j, j, i)
		}
		b.WriteString(`</categoria>`)
	}
	b.WriteString(`</cid10>`)
	return []byte(b.String())
}

// BenchmarkSearchCatalog measures the shipped strategy: precomputed JSON
// catalog, folded once, linear scan per query.
func BenchmarkSearchCatalog(b *testing.B) {
	xml := benchXML(1000)
	codes, err := ExtractXML(strings.NewReader(string(xml)))
	if err != nil {
		b.Fatal(err)
	}
	catalog := NewCatalog(codes)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if got := catalog.Search("condicao numero 500"); len(got) == 0 {
			b.Fatal("expected a match")
		}
	}
}

// BenchmarkSearchXML measures the naive strategy: regex-extract from the
// raw XML on every query.
func BenchmarkSearchXML(b *testing.B) {
	xml := benchXML(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		got, err := SearchXML(xml, "condicao numero 500")
		if err != nil {
			b.Fatal(err)
		}
		if len(got) == 0 {
			b.Fatal("expected a match")
		}
	}
}

// BenchmarkFold isolates the normalization cost shared by both strategies.
func BenchmarkFold(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Fold("Cárie dentária limitada ao esmalte")
	}
}

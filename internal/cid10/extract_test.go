package cid10

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleXML mimics the DATASUS CID-10 structure: categories with nested
// subcategories, accented names, entities, and inline markup.
const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<cid10>
  <capitulo numcap="01" nome="Algumas doenças infecciosas e parasitárias">
    <grupo codinicial="A00" codfinal="A09" nome="Doenças infecciosas intestinais">
      <categoria codcat="A00">
        <nome>Cólera</nome>
        <subcategoria codsubcat="A000">
          <nome>Cólera devida a Vibrio cholerae 01, biótipo cholerae</nome>
        </subcategoria>
        <subcategoria codsubcat="A001">
          <nome>Cólera devida a Vibrio cholerae 01, biótipo El Tor</nome>
        </subcategoria>
      </categoria>
      <categoria codcat="A01">
        <nome>Febres tifóide e paratifóide</nome>
      </categoria>
    </grupo>
  </capitulo>
  <capitulo numcap="11" nome="Doenças do aparelho digestivo">
    <grupo codinicial="K00" codfinal="K14" nome="Doenças da cavidade oral">
      <categoria codcat="K02">
        <nome>C&#225;rie dent&#225;ria</nome>
        <subcategoria codsubcat="K021">
          <nome>C&#225;rie da <ref>dentina</ref></nome>
        </subcategoria>
      </categoria>
    </grupo>
  </capitulo>
</cid10>
`

func TestExtractXML(t *testing.T) {
	codes, err := ExtractXML(strings.NewReader(sampleXML))
	require.NoError(t, err)
	require.Len(t, codes, 6)

	// Document order, dots inserted into subcategory codes.
	assert.Equal(t, "A00", codes[0].Code)
	assert.Equal(t, "Cólera", codes[0].Name)
	assert.Equal(t, "A00.0", codes[1].Code)
	assert.Equal(t, "A00.1", codes[2].Code)
	assert.Equal(t, "A01", codes[3].Code)

	// Entities decoded.
	assert.Equal(t, "K02", codes[4].Code)
	assert.Equal(t, "Cárie dentária", codes[4].Name)

	// Inline markup inside <nome> stripped.
	assert.Equal(t, "K02.1", codes[5].Code)
	assert.Equal(t, "Cárie da dentina", codes[5].Name)
}

func TestExtractXMLNoCodes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "unrelated XML", input: `<html><body>not a classification</body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractXML(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrNoCodes)
		})
	}
}

func TestDisplayCode(t *testing.T) {
	assert.Equal(t, "A00", displayCode("A00"))
	assert.Equal(t, "A00.0", displayCode("A000"))
	assert.Equal(t, "K07.6", displayCode("K076"))
}

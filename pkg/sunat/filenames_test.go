package sunat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// El nombre del ZIP del escenario de referencia: boleta B001-00000004 del
// emisor 20136564367.
func TestFilenames_EscenarioReferencia(t *testing.T) {
	xmlName, zipName := sunat.Filenames("20136564367", "03", "B001", 4)
	assert.Equal(t, "20136564367-03-B001-00000004.xml", xmlName)
	assert.Equal(t, "20136564367-03-B001-00000004.zip", zipName)
}

func TestFilenames_LimpiaRUCYSerie(t *testing.T) {
	xmlName, _ := sunat.Filenames("20.136.564.367", "01", " f001 ", 123)
	assert.Equal(t, "20136564367-01-F001-00000123.xml", xmlName)
}

func TestFormatDocumentID(t *testing.T) {
	assert.Equal(t, "B001-00000004", sunat.FormatDocumentID("B001", 4))
	assert.Equal(t, "F001-12345678", sunat.FormatDocumentID("f001", 12345678))
}

// La concatenación {RUC}{usuario} es el esquema de autenticación SOL, no una
// convención WS-Security genérica.
func TestSOLUsername(t *testing.T) {
	assert.Equal(t, "20136564367MODDATOS", sunat.SOLUsername("20136564367", "MODDATOS"))
	assert.Equal(t, "20136564367MODDATOS", sunat.SOLUsername("20.136.564.367", " MODDATOS "))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "PANADERIA EL SOL S.A.C.", sunat.NormalizeText("PANADERÍA  EL SOL S.A.C."))
	assert.Equal(t, "CAFE MOLIDO 250G", sunat.NormalizeText("CAFÉ MOLIDO  250G"))
}

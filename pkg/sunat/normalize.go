package sunat

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizer descompone, elimina marcas diacríticas y caracteres de control, y
// recompone. El validador de SUNAT rechaza XML con restos cp1252 que arrastran
// los catálogos antiguos del POS; las razones sociales y descripciones pasan por
// aquí antes de serializarse.
var normalizer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.In(unicode.Cc)),
	norm.NFC,
)

// NormalizeText limpia texto libre destinado al XML o a mensajes de alerta:
// sin tildes, sin caracteres de control y sin espacios redundantes.
func NormalizeText(s string) string {
	out, _, err := transform.String(normalizer, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

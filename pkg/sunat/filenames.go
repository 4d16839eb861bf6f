package sunat

import (
	"fmt"
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`[^0-9]`)

// FormatDocumentID devuelve el identificador de comprobante en el formato de
// transmisión: {serie}-{correlativo con 8 dígitos}. Ejemplo: B001-00000004.
func FormatDocumentID(serie string, correlativo int64) string {
	return fmt.Sprintf("%s-%08d", strings.ToUpper(strings.TrimSpace(serie)), correlativo)
}

// Filenames genera los nombres requeridos por el WS SUNAT para el XML interno y el ZIP.
//
//	{RUC}-{tipoComprobante}-{serie}-{correlativo:08d}.xml / .zip
//
// El nombre del ZIP, el nombre de la entrada interna y el parámetro fileName de
// sendBill deben coincidir exactamente; de lo contrario SUNAT rechaza el envío
// antes de inspeccionar el contenido.
func Filenames(ruc, tipoDoc, serie string, correlativo int64) (xmlName, zipName string) {
	base := fmt.Sprintf("%s-%s-%s",
		nonDigit.ReplaceAllString(ruc, ""),
		strings.TrimSpace(tipoDoc),
		FormatDocumentID(serie, correlativo),
	)
	return base + ".xml", base + ".zip"
}

// SOLUsername concatena RUC + usuario secundario SOL tal como lo exige la
// autenticación del WS SUNAT ({RUC}{usuario}). Es una particularidad del esquema
// de la autoridad, no una convención WS-Security: se aísla aquí para poder
// corregirla sin tocar el cliente de transporte.
func SOLUsername(ruc, usuario string) string {
	return nonDigit.ReplaceAllString(ruc, "") + strings.TrimSpace(usuario)
}

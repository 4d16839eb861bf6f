// Package sunat implementa el pipeline de facturación electrónica contra el
// Web Service de SUNAT: construcción del XML UBL 2.1, firma XML-DSig,
// empaquetado ZIP y transporte SOAP.
package sunat

import (
	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
)

// BuildContext agrupa lo necesario para construir el XML de un comprobante:
// el documento normalizado y las partes tributarias.
type BuildContext struct {
	Doc     *cpe.InvoiceDocument
	Emisor  *cpe.Party
	Cliente *cpe.Party
}

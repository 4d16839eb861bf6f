package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// Venta es el registro persistido de un comprobante emitido: la cabecera
// contable más el estado frente a SUNAT y los artefactos del envío (XML firmado
// y CDR). La identidad de negocio es (emisor_ruc, tipo, serie, correlativo).
type Venta struct {
	ID            string          `json:"id"`
	EmisorRUC     string          `json:"emisor_ruc"`
	TipoDocumento string          `json:"tipo_documento"`
	Serie         string          `json:"serie"`
	Correlativo   int64           `json:"correlativo"`
	FechaEmision  time.Time       `json:"fecha_emision"`
	Moneda        string          `json:"moneda"`
	TotalGravado  decimal.Decimal `json:"total_gravado"`
	TotalIGV      decimal.Decimal `json:"total_igv"`
	TotalVenta    decimal.Decimal `json:"total_venta"`

	EstadoSUNAT cpe.EstadoSUNAT `json:"estado_sunat"`
	Nota        string          `json:"nota,omitempty"`   // detalle del último resultado ("Ticket: N", faultstring, etc.)
	Ticket      string          `json:"ticket,omitempty"` // ticket de procesamiento asíncrono, si SUNAT entregó uno
	Intentos    int             `json:"intentos"`

	XMLFirmado []byte `json:"-"` // XML ya firmado, se retransmite tal cual en los reintentos
	CDR        []byte `json:"-"` // ZIP de la constancia de recepción (solo aceptados)

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentID devuelve {serie}-{correlativo:08d}, el identificador de
// transmisión del comprobante.
func (v *Venta) DocumentID() string {
	return sunat.FormatDocumentID(v.Serie, v.Correlativo)
}

// NombreArchivo devuelve el nombre base {ruc}-{tipo}-{serie}-{correlativo:08d}
// que comparten el XML, el ZIP y el parámetro fileName del envío SOAP.
func (v *Venta) NombreArchivo() (xmlName, zipName string) {
	return sunat.Filenames(v.EmisorRUC, v.TipoDocumento, v.Serie, v.Correlativo)
}

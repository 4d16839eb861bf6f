// Package cpe define el modelo normalizado del Comprobante de Pago Electrónico:
// cabecera, partes, subtotales de impuesto y líneas, con los invariantes de
// montos que el pipeline verifica antes de construir el XML.
package cpe

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// Estados persistidos de un comprobante frente a SUNAT.
type EstadoSUNAT string

const (
	EstadoPendiente     EstadoSUNAT = "PENDIENTE"
	EstadoAceptado      EstadoSUNAT = "ACEPTADO"
	EstadoRechazado     EstadoSUNAT = "RECHAZADO"
	EstadoErrorConexion EstadoSUNAT = "ERROR_CONEXION"
)

// Terminal indica si el estado ya no admite transiciones (un ACEPTADO o
// RECHAZADO persistido nunca vuelve a PENDIENTE).
func (e EstadoSUNAT) Terminal() bool {
	return e == EstadoAceptado || e == EstadoRechazado
}

// Outcome es el resultado de un intento de transmisión o consulta de estado.
// Exactamente una variante aplica por respuesta.
type Outcome struct {
	Estado  EstadoSUNAT
	CDR     []byte // ZIP de la Constancia de Recepción (solo Aceptado); opaco, se persiste para auditoría
	Codigo  string // faultcode / statusCode (Rechazado)
	Mensaje string // faultstring / detalle (Rechazado, ErrorConexion, Pendiente)
	Ticket  string // número de ticket de procesamiento asíncrono (Pendiente)
}

// Nota devuelve el texto a persistir como nota del comprobante. Un pendiente
// con ticket se anota "Ticket: N": el barrido de conciliación reconoce ese
// prefijo y consulta por getStatus en lugar de getStatusCdr.
func (o Outcome) Nota() string {
	if o.Estado == EstadoPendiente && o.Ticket != "" {
		return "Ticket: " + o.Ticket
	}
	return o.Mensaje
}

// TicketDeNota extrae el número de ticket de una nota "Ticket: N".
// Devuelve vacío si la nota no sigue la convención.
func TicketDeNota(nota string) string {
	if resto, ok := strings.CutPrefix(nota, "Ticket: "); ok {
		return strings.TrimSpace(resto)
	}
	return ""
}

// Party identidad tributaria de emisor o receptor.
type Party struct {
	TipoDocIdentidad string // Catálogo 06: 6=RUC, 1=DNI, 0=sin documento
	Numero           string // RUC 11 dígitos, DNI 8 dígitos, o vacío
	RazonSocial      string
	Direccion        string
	CodigoLocal      string // AddressTypeCode; "0000" = establecimiento principal
}

// TaxSubtotal agregado por categoría de impuesto. En la práctica casi siempre
// hay uno solo (IGV 18%).
type TaxSubtotal struct {
	Base       decimal.Decimal // monto imponible
	Monto      decimal.Decimal // impuesto
	Tasa       decimal.Decimal // porcentaje, típicamente 18
	Afectacion string          // Catálogo 07 (TaxExemptionReasonCode)
}

// InvoiceLine una línea vendida. El orden de inserción es el orden de
// presentación y debe preservarse.
type InvoiceLine struct {
	Cantidad       decimal.Decimal
	UnidadMedida   string          // Catálogo 03, ej. NIU
	ValorVenta     decimal.Decimal // importe de línea sin IGV (2 decimales)
	ValorUnitario  decimal.Decimal // valor unitario sin IGV
	PrecioUnitario decimal.Decimal // precio unitario con IGV, alta precisión (10 decimales en el XML)
	IGV            decimal.Decimal
	BaseImponible  decimal.Decimal
	Tasa           decimal.Decimal
	Afectacion     string
	Descripcion    string
}

// DocumentoAfectado referencia al comprobante que una nota de crédito modifica.
type DocumentoAfectado struct {
	TipoDocumento string
	Serie         string
	Correlativo   int64
}

// InvoiceDocument un comprobante electrónico normalizado. Inmutable una vez
// firmado: una corrección exige una nota de crédito nueva, nunca mutar un
// documento ya transmitido.
type InvoiceDocument struct {
	TipoDocumento string // Catálogo 01: 01 factura, 03 boleta, 07 NC
	Serie         string // 4 caracteres alfanuméricos, ej. B001
	Correlativo   int64  // positivo; 8 dígitos con ceros en el ID de transmisión
	Emision       time.Time

	Moneda       string // ISO 4217, por defecto PEN
	TotalGravado decimal.Decimal // total de línea sin impuestos
	TotalIGV     decimal.Decimal
	TotalVenta   decimal.Decimal // importe total a pagar

	Leyenda string // monto en letras para el cbc:Note; vacío = no se emite

	Impuestos []TaxSubtotal
	Lineas    []InvoiceLine

	// Solo notas de crédito (tipo 07)
	DocAfectado *DocumentoAfectado
	CodigoNota  string // Catálogo 09
	Motivo      string
}

// ID devuelve el identificador de transmisión {serie}-{correlativo:08d}.
func (d *InvoiceDocument) ID() string {
	return sunat.FormatDocumentID(d.Serie, d.Correlativo)
}

// EsNotaCredito indica si el documento es una nota de crédito.
func (d *InvoiceDocument) EsNotaCredito() bool {
	return d.TipoDocumento == sunat.DocTypeNotaCredito
}

// tolerancia de redondeo para los invariantes de montos (un céntimo).
var toleranciaRedondeo = decimal.NewFromFloat(0.01)

var serieRe = regexp.MustCompile(`^[A-Z0-9]{4}$`)

func dentroDeTolerancia(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(toleranciaRedondeo)
}

// Validate verifica identidad, partes e invariantes de montos del documento.
// Retorna un *ValidationError con el primer campo inválido encontrado.
func (d *InvoiceDocument) Validate() error {
	if !sunat.ValidDocumentTypeCodes[d.TipoDocumento] {
		return &ValidationError{Campo: "tipoDocumento", Detalle: "código de comprobante desconocido " + d.TipoDocumento}
	}
	if !serieRe.MatchString(d.Serie) {
		return &ValidationError{Campo: "serie", Detalle: "debe ser 4 caracteres alfanuméricos en mayúscula"}
	}
	if d.Correlativo <= 0 {
		return &ValidationError{Campo: "correlativo", Detalle: "debe ser positivo"}
	}
	if d.Emision.IsZero() {
		return &ValidationError{Campo: "fechaEmision", Detalle: "requerida"}
	}
	if len(d.Moneda) != 3 {
		return &ValidationError{Campo: "moneda", Detalle: "código ISO 4217 de 3 letras"}
	}
	if len(d.Lineas) == 0 {
		return &ValidationError{Campo: "detalles", Detalle: "el comprobante requiere al menos una línea"}
	}
	if d.EsNotaCredito() {
		if d.DocAfectado == nil {
			return &ValidationError{Campo: "docAfectado", Detalle: "la nota de crédito requiere el documento afectado"}
		}
		if d.Motivo == "" {
			return &ValidationError{Campo: "motivoNotaCredito", Detalle: "requerido"}
		}
	}

	// payable == line_extension + tax, dentro de tolerancia
	if !dentroDeTolerancia(d.TotalVenta, d.TotalGravado.Add(d.TotalIGV)) {
		return &ValidationError{Campo: "totalGeneral", Detalle: "no cuadra con gravado + IGV"}
	}

	sumaLineas := decimal.Zero
	sumaIGV := decimal.Zero
	for _, l := range d.Lineas {
		if err := l.validate(); err != nil {
			return err
		}
		sumaLineas = sumaLineas.Add(l.ValorVenta)
		sumaIGV = sumaIGV.Add(l.IGV)
	}
	if !dentroDeTolerancia(sumaLineas, d.TotalGravado) {
		return &ValidationError{Campo: "totalGravado", Detalle: "no cuadra con la suma de líneas"}
	}
	if !dentroDeTolerancia(sumaIGV, d.TotalIGV) {
		return &ValidationError{Campo: "totalIGV", Detalle: "no cuadra con la suma del IGV por línea"}
	}

	cien := decimal.NewFromInt(100)
	for _, st := range d.Impuestos {
		esperado := st.Base.Mul(st.Tasa).Div(cien).Round(2)
		if !dentroDeTolerancia(st.Monto, esperado) {
			return &ValidationError{Campo: "impuestos", Detalle: "subtotal de impuesto no cuadra con base por tasa"}
		}
	}
	return nil
}

func (l *InvoiceLine) validate() error {
	if l.Cantidad.IsNegative() {
		return &ValidationError{Campo: "detalles.cantidad", Detalle: "no puede ser negativa"}
	}
	if !sunat.ValidMeasurementUnitCodes[l.UnidadMedida] {
		return &ValidationError{Campo: "detalles.unidadMedida", Detalle: "código de unidad desconocido " + l.UnidadMedida}
	}
	if l.Descripcion == "" {
		return &ValidationError{Campo: "detalles.descripcion", Detalle: "requerida"}
	}
	if !dentroDeTolerancia(l.ValorVenta, l.BaseImponible.Round(2)) {
		return &ValidationError{Campo: "detalles.valorTotal", Detalle: "no cuadra con la base imponible"}
	}
	// precio unitario con IGV por cantidad ≈ valor de venta + IGV de línea
	if l.Cantidad.IsPositive() {
		esperado := l.ValorVenta.Add(l.IGV)
		if !dentroDeTolerancia(l.PrecioUnitario.Mul(l.Cantidad).Round(2), esperado) {
			return &ValidationError{Campo: "detalles.precioUnitario", Detalle: "no cuadra con valor de venta + IGV"}
		}
	}
	return nil
}

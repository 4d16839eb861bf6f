package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// ClienteRequest receptor del comprobante. Para ventas a público puede omitirse
// completo: se asume el receptor genérico sin documento.
type ClienteRequest struct {
	TipoDocumento string `json:"tipo_documento" validate:"omitempty,oneof=0 1 4 6 7"`
	Numero        string `json:"numero,omitempty"`
	RazonSocial   string `json:"razon_social,omitempty"`
	Direccion     string `json:"direccion,omitempty"`
}

// DetalleRequest línea del comprobante. Los montos llegan como decimales; el
// precio unitario incluye IGV y conserva alta precisión.
type DetalleRequest struct {
	Cantidad       decimal.Decimal `json:"cantidad" validate:"required"`
	UnidadMedida   string          `json:"unidad_medida,omitempty"`
	Descripcion    string          `json:"descripcion" validate:"required"`
	ValorUnitario  decimal.Decimal `json:"valor_unitario"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	ValorVenta     decimal.Decimal `json:"valor_venta"`
	IGV            decimal.Decimal `json:"igv"`
	Tasa           decimal.Decimal `json:"tasa"`
	Afectacion     string          `json:"afectacion,omitempty" validate:"omitempty,oneof=10 20 30"`
}

// ImpuestoRequest subtotal de impuesto por categoría de afectación.
type ImpuestoRequest struct {
	Base       decimal.Decimal `json:"base"`
	Monto      decimal.Decimal `json:"monto"`
	Tasa       decimal.Decimal `json:"tasa"`
	Afectacion string          `json:"afectacion,omitempty" validate:"omitempty,oneof=10 20 30"`
}

// DocAfectadoRequest comprobante que una nota de crédito modifica.
type DocAfectadoRequest struct {
	TipoDocumento string `json:"tipo_documento" validate:"required,oneof=01 03"`
	Serie         string `json:"serie" validate:"required,len=4"`
	Correlativo   int64  `json:"correlativo" validate:"required,gt=0"`
}

// EmitirComprobanteRequest body para POST /api/comprobantes.
// FechaEmision en formato 2006-01-02; HoraEmision 15:04:05 opcional (si va
// vacía se usa la hora del servidor).
type EmitirComprobanteRequest struct {
	TipoDocumento string `json:"tipo_documento" validate:"required,oneof=01 03 07"`
	Serie         string `json:"serie" validate:"required,len=4"`
	Correlativo   int64  `json:"correlativo" validate:"required,gt=0"`
	FechaEmision  string `json:"fecha_emision" validate:"required,datetime=2006-01-02"`
	HoraEmision   string `json:"hora_emision,omitempty" validate:"omitempty,datetime=15:04:05"`
	Moneda        string `json:"moneda,omitempty" validate:"omitempty,len=3"`

	TotalGravado decimal.Decimal `json:"total_gravado"`
	TotalIGV     decimal.Decimal `json:"total_igv"`
	TotalVenta   decimal.Decimal `json:"total_venta"`
	Leyenda      string          `json:"leyenda,omitempty"` // vacía = se calcula el monto en letras

	Cliente   *ClienteRequest   `json:"cliente,omitempty"`
	Impuestos []ImpuestoRequest `json:"impuestos,omitempty" validate:"dive"`
	Detalles  []DetalleRequest  `json:"detalles" validate:"required,min=1,dive"`

	// Solo notas de crédito (tipo 07)
	DocAfectado *DocAfectadoRequest `json:"doc_afectado,omitempty"`
	CodigoNota  string              `json:"codigo_nota,omitempty" validate:"omitempty,oneof=01 04 07"`
	Motivo      string              `json:"motivo,omitempty"`
}

// Validate verifica la sintaxis del payload con las tags de validación.
func (r *EmitirComprobanteRequest) Validate() error {
	return validate.Struct(r)
}

// Map convierte el payload en el documento y receptor de dominio, aplicando
// los valores por defecto del pipeline: moneda PEN, unidad NIU, afectación
// gravada, texto libre normalizado (sin tildes ni caracteres de control) y
// receptor genérico cuando no viene cliente.
func (r *EmitirComprobanteRequest) Map() (*cpe.InvoiceDocument, *cpe.Party, error) {
	emision, err := parseEmision(r.FechaEmision, r.HoraEmision)
	if err != nil {
		return nil, nil, &cpe.ValidationError{Campo: "fechaEmision", Detalle: err.Error()}
	}

	doc := &cpe.InvoiceDocument{
		TipoDocumento: r.TipoDocumento,
		Serie:         r.Serie,
		Correlativo:   r.Correlativo,
		Emision:       emision,
		Moneda:        defaultString(r.Moneda, sunat.CurrencyPEN),
		TotalGravado:  r.TotalGravado,
		TotalIGV:      r.TotalIGV,
		TotalVenta:    r.TotalVenta,
		Leyenda:       sunat.NormalizeText(r.Leyenda),
	}

	for _, d := range r.Detalles {
		doc.Lineas = append(doc.Lineas, cpe.InvoiceLine{
			Cantidad:       d.Cantidad,
			UnidadMedida:   defaultString(d.UnidadMedida, sunat.UnitUnidad),
			ValorVenta:     d.ValorVenta,
			ValorUnitario:  d.ValorUnitario,
			PrecioUnitario: d.PrecioUnitario,
			IGV:            d.IGV,
			BaseImponible:  d.ValorVenta,
			Tasa:           d.Tasa,
			Afectacion:     defaultString(d.Afectacion, sunat.AfectacionGravado),
			Descripcion:    sunat.NormalizeText(d.Descripcion),
		})
	}
	for _, i := range r.Impuestos {
		doc.Impuestos = append(doc.Impuestos, cpe.TaxSubtotal{
			Base:       i.Base,
			Monto:      i.Monto,
			Tasa:       i.Tasa,
			Afectacion: defaultString(i.Afectacion, sunat.AfectacionGravado),
		})
	}
	if r.DocAfectado != nil {
		doc.DocAfectado = &cpe.DocumentoAfectado{
			TipoDocumento: r.DocAfectado.TipoDocumento,
			Serie:         r.DocAfectado.Serie,
			Correlativo:   r.DocAfectado.Correlativo,
		}
		doc.CodigoNota = defaultString(r.CodigoNota, sunat.NotaCreditoAnulacion)
		doc.Motivo = sunat.NormalizeText(r.Motivo)
	}

	cliente := mapCliente(r.Cliente)
	return doc, cliente, nil
}

func mapCliente(c *ClienteRequest) *cpe.Party {
	if c == nil || c.TipoDocumento == "" || c.TipoDocumento == sunat.IDSchemeSinDocumento {
		p := cpe.SinDocumento()
		return &p
	}
	return &cpe.Party{
		TipoDocIdentidad: c.TipoDocumento,
		Numero:           c.Numero,
		RazonSocial:      sunat.NormalizeText(c.RazonSocial),
		Direccion:        sunat.NormalizeText(c.Direccion),
	}
}

func parseEmision(fecha, hora string) (time.Time, error) {
	if hora == "" {
		d, err := time.ParseInLocation("2006-01-02", fecha, time.Local)
		if err != nil {
			return time.Time{}, err
		}
		ahora := time.Now()
		return time.Date(d.Year(), d.Month(), d.Day(),
			ahora.Hour(), ahora.Minute(), ahora.Second(), 0, time.Local), nil
	}
	return time.ParseInLocation("2006-01-02 15:04:05", fecha+" "+hora, time.Local)
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ComprobanteResponse comprobante emitido para las respuestas de la API.
type ComprobanteResponse struct {
	ID           string          `json:"id"`
	Comprobante  string          `json:"comprobante"` // {serie}-{correlativo:08d}
	EmisorRUC    string          `json:"emisor_ruc"`
	TipoDoc      string          `json:"tipo_documento"`
	FechaEmision string          `json:"fecha_emision"`
	Moneda       string          `json:"moneda"`
	TotalGravado decimal.Decimal `json:"total_gravado"`
	TotalIGV     decimal.Decimal `json:"total_igv"`
	TotalVenta   decimal.Decimal `json:"total_venta"`
	EstadoSUNAT  string          `json:"estado_sunat"` // PENDIENTE|ACEPTADO|RECHAZADO|ERROR_CONEXION
	Nota         string          `json:"nota,omitempty"`
	Ticket       string          `json:"ticket,omitempty"`
}

// EstadoComprobanteDTO respuesta ligera para el endpoint de consulta de estado
// GET /api/comprobantes/:serie/:numero/estado. El POS consulta hasta que
// estado_sunat sea terminal.
type EstadoComprobanteDTO struct {
	ID          string `json:"id"`
	Comprobante string `json:"comprobante"`
	EstadoSUNAT string `json:"estado_sunat"`
	Nota        string `json:"nota,omitempty"`
	Ticket      string `json:"ticket,omitempty"`
	Intentos    int    `json:"intentos"`
	TieneCDR    bool   `json:"tiene_cdr"`
}

// DeVenta arma la respuesta completa desde la entidad persistida.
func DeVenta(v *entity.Venta) ComprobanteResponse {
	return ComprobanteResponse{
		ID:           v.ID,
		Comprobante:  v.DocumentID(),
		EmisorRUC:    v.EmisorRUC,
		TipoDoc:      v.TipoDocumento,
		FechaEmision: v.FechaEmision.Format("2006-01-02"),
		Moneda:       v.Moneda,
		TotalGravado: v.TotalGravado,
		TotalIGV:     v.TotalIGV,
		TotalVenta:   v.TotalVenta,
		EstadoSUNAT:  string(v.EstadoSUNAT),
		Nota:         v.Nota,
		Ticket:       v.Ticket,
	}
}

// EstadoDeVenta arma la respuesta ligera de estado.
func EstadoDeVenta(v *entity.Venta) EstadoComprobanteDTO {
	return EstadoComprobanteDTO{
		ID:          v.ID,
		Comprobante: v.DocumentID(),
		EstadoSUNAT: string(v.EstadoSUNAT),
		Nota:        v.Nota,
		Ticket:      v.Ticket,
		Intentos:    v.Intentos,
		TieneCDR:    len(v.CDR) > 0,
	}
}

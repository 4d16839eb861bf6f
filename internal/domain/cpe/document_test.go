package cpe_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// buildBoletaReferencia arma el escenario de referencia: boleta B001-00000004,
// dos líneas de 25.42 y 101.69 sin IGV, tasa 18% => IGV 22.88, total 150.00.
func buildBoletaReferencia() *cpe.InvoiceDocument {
	return &cpe.InvoiceDocument{
		TipoDocumento: sunat.DocTypeBoleta,
		Serie:         "B001",
		Correlativo:   4,
		Emision:       time.Date(2024, 5, 10, 14, 30, 0, 0, time.Local),
		Moneda:        sunat.CurrencyPEN,
		TotalGravado:  dec("127.11"),
		TotalIGV:      dec("22.88"),
		TotalVenta:    dec("150.00"),
		Leyenda:       "CIENTO CINCUENTA CON 00/100 SOLES",
		Impuestos: []cpe.TaxSubtotal{{
			Base:       dec("127.11"),
			Monto:      dec("22.88"),
			Tasa:       dec("18"),
			Afectacion: sunat.AfectacionGravado,
		}},
		Lineas: []cpe.InvoiceLine{
			{
				Cantidad:       dec("1"),
				UnidadMedida:   sunat.UnitUnidad,
				ValorVenta:     dec("25.42"),
				ValorUnitario:  dec("25.42"),
				PrecioUnitario: dec("29.9956"),
				IGV:            dec("4.58"),
				BaseImponible:  dec("25.42"),
				Tasa:           dec("18"),
				Afectacion:     sunat.AfectacionGravado,
				Descripcion:    "GASEOSA 3L",
			},
			{
				Cantidad:       dec("1"),
				UnidadMedida:   sunat.UnitUnidad,
				ValorVenta:     dec("101.69"),
				ValorUnitario:  dec("101.69"),
				PrecioUnitario: dec("119.9942"),
				IGV:            dec("18.30"),
				BaseImponible:  dec("101.69"),
				Tasa:           dec("18"),
				Afectacion:     sunat.AfectacionGravado,
				Descripcion:    "CAJA CERVEZA",
			},
		},
	}
}

func TestValidate_EscenarioReferencia(t *testing.T) {
	doc := buildBoletaReferencia()
	require.NoError(t, doc.Validate())
	assert.Equal(t, "B001-00000004", doc.ID())
}

// El total a pagar admite hasta un céntimo de holgura de redondeo:
// 127.11 + 22.88 = 149.99 y el POS redondea la venta a 150.00.
func TestValidate_ToleranciaDeRedondeo(t *testing.T) {
	doc := buildBoletaReferencia()
	doc.TotalVenta = dec("149.99")
	assert.NoError(t, doc.Validate())

	doc.TotalVenta = dec("150.02")
	assert.Error(t, doc.Validate(), "más de un céntimo de diferencia debe fallar")
}

func TestValidate_SumaDeLineasDebeCuadrar(t *testing.T) {
	doc := buildBoletaReferencia()
	doc.TotalGravado = dec("130.00")
	doc.TotalVenta = dec("152.88")
	err := doc.Validate()
	require.Error(t, err)
	var verr *cpe.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "totalGravado", verr.Campo)
}

func TestValidate_IGVPorLineaDebeCuadrar(t *testing.T) {
	doc := buildBoletaReferencia()
	doc.Lineas[0].IGV = dec("9.00")
	assert.Error(t, doc.Validate())
}

func TestValidate_SerieInvalida(t *testing.T) {
	doc := buildBoletaReferencia()
	doc.Serie = "B1"
	assert.Error(t, doc.Validate())
	doc.Serie = "b001"
	assert.Error(t, doc.Validate())
}

func TestValidate_CorrelativoInvalido(t *testing.T) {
	doc := buildBoletaReferencia()
	doc.Correlativo = 0
	assert.Error(t, doc.Validate())
}

func TestValidate_NotaCreditoRequiereDocAfectado(t *testing.T) {
	doc := buildBoletaReferencia()
	doc.TipoDocumento = sunat.DocTypeNotaCredito
	doc.Serie = "BC01"
	err := doc.Validate()
	require.Error(t, err)

	doc.DocAfectado = &cpe.DocumentoAfectado{TipoDocumento: sunat.DocTypeBoleta, Serie: "B001", Correlativo: 4}
	doc.Motivo = "ANULACION DE LA OPERACION"
	doc.CodigoNota = sunat.NotaCreditoAnulacion
	assert.NoError(t, doc.Validate())
}

func TestValidate_SinLineas(t *testing.T) {
	doc := buildBoletaReferencia()
	doc.Lineas = nil
	assert.Error(t, doc.Validate())
}

// ── Party ─────────────────────────────────────────────────────────────────────

func TestPartyValidate_RUC(t *testing.T) {
	p := cpe.Party{TipoDocIdentidad: sunat.IDSchemeRUC, Numero: "20136564367", RazonSocial: "DISTRIBUIDORA ANDINA S.A.C."}
	assert.NoError(t, p.Validate())

	p.Numero = "20136564360"
	assert.Error(t, p.Validate(), "RUC con verificador incorrecto debe fallar")
}

func TestPartyValidate_DNI(t *testing.T) {
	p := cpe.Party{TipoDocIdentidad: sunat.IDSchemeDNI, Numero: "45678912", RazonSocial: "JUAN PEREZ"}
	assert.NoError(t, p.Validate())

	p.Numero = "456789"
	assert.Error(t, p.Validate())
}

func TestPartyValidate_SinDocumento(t *testing.T) {
	p := cpe.SinDocumento()
	assert.NoError(t, p.Validate())
	assert.Equal(t, sunat.ClienteGenerico, p.RazonSocial)

	p.Numero = "123"
	assert.Error(t, p.Validate(), "sin documento no lleva número")
}

func TestEstadoTerminal(t *testing.T) {
	assert.True(t, cpe.EstadoAceptado.Terminal())
	assert.True(t, cpe.EstadoRechazado.Terminal())
	assert.False(t, cpe.EstadoPendiente.Terminal())
	assert.False(t, cpe.EstadoErrorConexion.Terminal())
}

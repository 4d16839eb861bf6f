package dto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

func reqBoleta() *EmitirComprobanteRequest {
	return &EmitirComprobanteRequest{
		TipoDocumento: sunat.DocTypeBoleta,
		Serie:         "B001",
		Correlativo:   4,
		FechaEmision:  "2024-05-10",
		TotalGravado:  decimal.RequireFromString("127.11"),
		TotalIGV:      decimal.RequireFromString("22.88"),
		TotalVenta:    decimal.RequireFromString("150.00"),
		Detalles: []DetalleRequest{{
			Cantidad:       decimal.NewFromInt(1),
			Descripcion:    "Menú del día",
			ValorUnitario:  decimal.RequireFromString("127.11"),
			PrecioUnitario: decimal.RequireFromString("149.9898"),
			ValorVenta:     decimal.RequireFromString("127.11"),
			IGV:            decimal.RequireFromString("22.88"),
			Tasa:           decimal.NewFromInt(18),
		}},
	}
}

func TestValidate_PayloadMinimoValido(t *testing.T) {
	require.NoError(t, reqBoleta().Validate())
}

func TestValidate_RechazaPayloadIncompleto(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*EmitirComprobanteRequest)
	}{
		{"tipo desconocido", func(r *EmitirComprobanteRequest) { r.TipoDocumento = "99" }},
		{"serie corta", func(r *EmitirComprobanteRequest) { r.Serie = "B1" }},
		{"correlativo cero", func(r *EmitirComprobanteRequest) { r.Correlativo = 0 }},
		{"fecha mal formada", func(r *EmitirComprobanteRequest) { r.FechaEmision = "10/05/2024" }},
		{"sin detalles", func(r *EmitirComprobanteRequest) { r.Detalles = nil }},
		{"detalle sin descripción", func(r *EmitirComprobanteRequest) { r.Detalles[0].Descripcion = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := reqBoleta()
			tc.mutate(r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestMap_AplicaDefaults(t *testing.T) {
	doc, cliente, err := reqBoleta().Map()
	require.NoError(t, err)

	assert.Equal(t, sunat.CurrencyPEN, doc.Moneda)
	assert.Equal(t, sunat.UnitUnidad, doc.Lineas[0].UnidadMedida)
	assert.Equal(t, sunat.AfectacionGravado, doc.Lineas[0].Afectacion)
	assert.Equal(t, "Menu del dia", doc.Lineas[0].Descripcion, "sin tildes")

	// sin cliente en el payload → receptor genérico sin documento
	assert.Equal(t, sunat.IDSchemeSinDocumento, cliente.TipoDocIdentidad)
	assert.Equal(t, sunat.ClienteGenerico, cliente.RazonSocial)
}

func TestMap_FechaConHoraExplicita(t *testing.T) {
	r := reqBoleta()
	r.HoraEmision = "14:30:00"

	doc, _, err := r.Map()
	require.NoError(t, err)
	assert.Equal(t, 2024, doc.Emision.Year())
	assert.Equal(t, 14, doc.Emision.Hour())
	assert.Equal(t, 30, doc.Emision.Minute())
}

func TestMap_ClienteConDNI(t *testing.T) {
	r := reqBoleta()
	r.Cliente = &ClienteRequest{
		TipoDocumento: sunat.IDSchemeDNI,
		Numero:        "45678912",
		RazonSocial:   "Juan Pérez",
	}

	_, cliente, err := r.Map()
	require.NoError(t, err)
	assert.Equal(t, sunat.IDSchemeDNI, cliente.TipoDocIdentidad)
	assert.Equal(t, "45678912", cliente.Numero)
	assert.Equal(t, "Juan Perez", cliente.RazonSocial, "la razón social se normaliza")
}

func TestMap_NotaDeCredito(t *testing.T) {
	r := reqBoleta()
	r.TipoDocumento = sunat.DocTypeNotaCredito
	r.Serie = "BC01"
	r.DocAfectado = &DocAfectadoRequest{TipoDocumento: sunat.DocTypeBoleta, Serie: "B001", Correlativo: 4}
	r.Motivo = "Anulación de la operación"

	doc, _, err := r.Map()
	require.NoError(t, err)
	require.NotNil(t, doc.DocAfectado)
	assert.Equal(t, "B001", doc.DocAfectado.Serie)
	assert.Equal(t, sunat.NotaCreditoAnulacion, doc.CodigoNota, "código por defecto si no viene")
	assert.Equal(t, "Anulacion de la operacion", doc.Motivo)
}

func TestMap_IDDeTransmision(t *testing.T) {
	doc, _, err := reqBoleta().Map()
	require.NoError(t, err)
	assert.Equal(t, "B001-00000004", doc.ID())
}

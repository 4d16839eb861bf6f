package sunat_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

func TestMontoEnLetras_Casos(t *testing.T) {
	cases := []struct {
		monto    string
		moneda   string
		expected string
	}{
		{"150.00", "PEN", "CIENTO CINCUENTA CON 00/100 SOLES"},
		{"0.50", "PEN", "CERO CON 50/100 SOLES"},
		{"21.00", "PEN", "VEINTIUNO CON 00/100 SOLES"},
		{"100.00", "PEN", "CIEN CON 00/100 SOLES"},
		{"116.99", "PEN", "CIENTO DIECISÉIS CON 99/100 SOLES"},
		{"735.40", "PEN", "SETECIENTOS TREINTA Y CINCO CON 40/100 SOLES"},
		{"1000.00", "PEN", "MIL CON 00/100 SOLES"},
		{"12345.67", "PEN", "DOCE MIL TRESCIENTOS CUARENTA Y CINCO CON 67/100 SOLES"},
		{"1000000.00", "PEN", "UN MILLÓN CON 00/100 SOLES"},
		{"2500000.10", "PEN", "DOS MILLONES QUINIENTOS MIL CON 10/100 SOLES"},
		{"99.90", "USD", "NOVENTA Y NUEVE CON 90/100 DÓLARES AMERICANOS"},
	}
	for _, c := range cases {
		monto := decimal.RequireFromString(c.monto)
		assert.Equal(t, c.expected, sunat.MontoEnLetras(monto, c.moneda), "monto %s", c.monto)
	}
}

// El importe se redondea a 2 decimales antes de expresarse en letras, igual que
// los totales del comprobante.
func TestMontoEnLetras_Redondeo(t *testing.T) {
	monto := decimal.RequireFromString("149.999")
	assert.Equal(t, "CIENTO CINCUENTA CON 00/100 SOLES", sunat.MontoEnLetras(monto, "PEN"))
}

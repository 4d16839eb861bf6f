package sunat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MontoEnLetras convierte un importe a su leyenda en letras para el cbc:Note
// (código de leyenda 1000): "CIENTO CINCUENTA CON 00/100 SOLES".
// La parte entera se expresa en letras y los céntimos como fracción NN/100.
// Soporta importes hasta 999 999 999.99; la moneda se nombra según el código ISO.
func MontoEnLetras(monto decimal.Decimal, moneda string) string {
	monto = monto.Round(2)
	entero := monto.IntPart()
	centimos := monto.Sub(decimal.NewFromInt(entero)).Mul(decimal.NewFromInt(100)).IntPart()
	if centimos < 0 {
		centimos = -centimos
	}
	return fmt.Sprintf("%s CON %02d/100 %s", numeroEnLetras(entero), centimos, nombreMoneda(moneda))
}

func nombreMoneda(codigo string) string {
	switch strings.ToUpper(codigo) {
	case "USD":
		return "DÓLARES AMERICANOS"
	case "EUR":
		return "EUROS"
	default:
		return "SOLES"
	}
}

var unidades = [...]string{
	"", "UNO", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE", "OCHO", "NUEVE",
	"DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE", "QUINCE", "DIECISÉIS", "DIECISIETE",
	"DIECIOCHO", "DIECINUEVE", "VEINTE", "VEINTIUNO", "VEINTIDÓS", "VEINTITRÉS",
	"VEINTICUATRO", "VEINTICINCO", "VEINTISÉIS", "VEINTISIETE", "VEINTIOCHO", "VEINTINUEVE",
}

var decenas = [...]string{
	"", "", "", "TREINTA", "CUARENTA", "CINCUENTA", "SESENTA", "SETENTA", "OCHENTA", "NOVENTA",
}

var centenas = [...]string{
	"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS", "QUINIENTOS",
	"SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS",
}

func numeroEnLetras(n int64) string {
	if n == 0 {
		return "CERO"
	}
	if n < 0 {
		return "MENOS " + numeroEnLetras(-n)
	}

	var partes []string

	if millones := n / 1_000_000; millones > 0 {
		if millones == 1 {
			partes = append(partes, "UN MILLÓN")
		} else {
			partes = append(partes, numeroEnLetras(millones)+" MILLONES")
		}
		n %= 1_000_000
	}
	if miles := n / 1000; miles > 0 {
		if miles == 1 {
			partes = append(partes, "MIL")
		} else {
			partes = append(partes, cientosEnLetras(miles)+" MIL")
		}
		n %= 1000
	}
	if n > 0 {
		partes = append(partes, cientosEnLetras(n))
	}
	return strings.Join(partes, " ")
}

// cientosEnLetras expresa 1..999.
func cientosEnLetras(n int64) string {
	if n == 100 {
		return "CIEN"
	}
	var partes []string
	if c := n / 100; c > 0 {
		partes = append(partes, centenas[c])
		n %= 100
	}
	switch {
	case n == 0:
	case n < 30:
		partes = append(partes, unidades[n])
	default:
		d, u := n/10, n%10
		if u == 0 {
			partes = append(partes, decenas[d])
		} else {
			partes = append(partes, decenas[d]+" Y "+unidades[u])
		}
	}
	return strings.Join(partes, " ")
}

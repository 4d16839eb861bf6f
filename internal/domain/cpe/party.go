package cpe

import (
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// Validate verifica que el tipo de documento de identidad sea conocido y que el
// número calce con el formato del tipo. Un receptor sin documento (venta a
// público) es válido: tipo "0" y razón social genérica.
func (p *Party) Validate() error {
	if !sunat.ValidIdentificationSchemes[p.TipoDocIdentidad] {
		return &ValidationError{Campo: "tipoDocIdentidad", Detalle: "código desconocido " + p.TipoDocIdentidad}
	}
	switch p.TipoDocIdentidad {
	case sunat.IDSchemeRUC:
		if err := sunat.ValidateRUC(p.Numero); err != nil {
			return &ValidationError{Campo: "ruc", Detalle: err.Error()}
		}
	case sunat.IDSchemeDNI:
		if err := sunat.ValidateDNI(p.Numero); err != nil {
			return &ValidationError{Campo: "dni", Detalle: err.Error()}
		}
	case sunat.IDSchemeSinDocumento:
		if p.Numero != "" {
			return &ValidationError{Campo: "numero", Detalle: "un receptor sin documento no lleva número"}
		}
	}
	if p.RazonSocial == "" {
		return &ValidationError{Campo: "razonSocial", Detalle: "requerida"}
	}
	return nil
}

// SinDocumento construye el receptor genérico para ventas a público sin
// documento de identidad.
func SinDocumento() Party {
	return Party{
		TipoDocIdentidad: sunat.IDSchemeSinDocumento,
		RazonSocial:      sunat.ClienteGenerico,
	}
}

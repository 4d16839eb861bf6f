package cpe

import "fmt"

// Taxonomía de errores del pipeline de comprobantes. Los errores de construcción
// y de firma abortan el envío antes de cualquier llamada de red; los de
// transporte alimentan el barrido de reintentos; el rechazo es terminal para el
// documento (se corrige con una nota de crédito, nunca mutando el enviado).

// StructuralError indica que el árbol XML no tiene el ExtensionContent reservado
// para la firma. Es un defecto de código, nunca se reintenta.
type StructuralError struct {
	Detalle string
}

func (e *StructuralError) Error() string {
	return "estructura del comprobante inválida: " + e.Detalle
}

// CertificateError indica un certificado ausente, vacío o no parseable.
type CertificateError struct {
	Detalle string
}

func (e *CertificateError) Error() string {
	return "certificado inválido: " + e.Detalle
}

// KeyLoadError indica que la llave privada no pudo cargarse (contenedor P12
// corrupto o passphrase incorrecta).
type KeyLoadError struct {
	Err error
}

func (e *KeyLoadError) Error() string {
	return fmt.Sprintf("no se pudo cargar la llave privada: %v", e.Err)
}

func (e *KeyLoadError) Unwrap() error { return e.Err }

// TransportError indica una falla de red o HTTP no-200. Siempre reintentable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("error de conexión con SUNAT: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError indica un rechazo de negocio/validación por parte de SUNAT.
// Terminal: requiere un documento nuevo corregido.
type RejectedError struct {
	Codigo  string
	Mensaje string
}

func (e *RejectedError) Error() string {
	if e.Codigo != "" {
		return fmt.Sprintf("SUNAT rechazó el comprobante [%s]: %s", e.Codigo, e.Mensaje)
	}
	return "SUNAT rechazó el comprobante: " + e.Mensaje
}

// ValidationError indica un campo inválido en el payload de entrada o en el
// documento normalizado. Un solo tipo para toda la validación (campo + detalle).
type ValidationError struct {
	Campo   string
	Detalle string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación: campo %q: %s", e.Campo, e.Detalle)
}

// Package sunat contiene catálogos y validaciones alineados a los Anexos de la
// Resolución de Comprobantes de Pago Electrónicos SUNAT (Perú).
package sunat

// =============================================================================
// Catálogo 01 - Tipo de Comprobante de Pago
// =============================================================================

const (
	DocTypeFactura     = "01" // Factura
	DocTypeBoleta      = "03" // Boleta de venta
	DocTypeNotaCredito = "07" // Nota de crédito
	DocTypeNotaDebito  = "08" // Nota de débito
)

// ValidDocumentTypeCodes tipos de comprobante que el pipeline sabe emitir.
var ValidDocumentTypeCodes = map[string]bool{
	DocTypeFactura:     true,
	DocTypeBoleta:      true,
	DocTypeNotaCredito: true,
	DocTypeNotaDebito:  true,
}

// =============================================================================
// Catálogo 06 - Tipo de Documento de Identidad (schemeID en PartyIdentification)
// =============================================================================

const (
	IDSchemeSinDocumento = "0" // Sin documento (venta a público)
	IDSchemeDNI          = "1" // DNI (8 dígitos)
	IDSchemeRUC          = "6" // RUC (11 dígitos)
	IDSchemeCarnetExt    = "4" // Carnet de extranjería
	IDSchemePasaporte    = "7" // Pasaporte
)

// ValidIdentificationSchemes códigos de tipo de documento de identidad aceptados.
var ValidIdentificationSchemes = map[string]bool{
	IDSchemeSinDocumento: true,
	IDSchemeDNI:          true,
	IDSchemeRUC:          true,
	IDSchemeCarnetExt:    true,
	IDSchemePasaporte:    true,
}

// ClienteGenerico nombre por defecto para ventas sin documento de identidad.
const ClienteGenerico = "CLIENTES VARIOS"

// =============================================================================
// Catálogo 05 - Tipos de Tributo. El IGV doméstico es siempre la tripleta
// 1000 / IGV / VAT.
// =============================================================================

const (
	TaxSchemeIGVID   = "1000"
	TaxSchemeIGVName = "IGV"
	TaxSchemeIGVType = "VAT"
)

// =============================================================================
// Catálogo 07 - Afectación del IGV (TaxExemptionReasonCode por línea)
// =============================================================================

const (
	AfectacionGravado   = "10" // Gravado - operación onerosa
	AfectacionExonerado = "20" // Exonerado - operación onerosa
	AfectacionInafecto  = "30" // Inafecto - operación onerosa
)

// =============================================================================
// Catálogo 03 - Unidades de Medida (ISO/UNECE, @unitCode)
// =============================================================================

const (
	UnitUnidad   = "NIU" // Unidad (bienes)
	UnitServicio = "ZZ"  // Servicio
	UnitKilogram = "KGM" // Kilogramo
	UnitGram     = "GRM" // Gramo
	UnitLitre    = "LTR" // Litro
	UnitMetre    = "MTR" // Metro
	UnitDozen    = "DZN" // Docena
	UnitBox      = "BX"  // Caja
	UnitPackage  = "PK"  // Paquete
)

// ValidMeasurementUnitCodes códigos de unidad de medida de uso común en el POS.
var ValidMeasurementUnitCodes = map[string]bool{
	UnitUnidad: true, UnitServicio: true, UnitKilogram: true, UnitGram: true,
	UnitLitre: true, UnitMetre: true, UnitDozen: true, UnitBox: true,
	UnitPackage: true,
}

// =============================================================================
// Catálogo 09 - Tipo de Nota de Crédito
// =============================================================================

const (
	NotaCreditoAnulacion  = "01" // Anulación de la operación
	NotaCreditoDevolucion = "07" // Devolución por ítem
	NotaCreditoDescuento  = "04" // Descuento global
)

// Moneda por defecto del pipeline (ISO 4217).
const CurrencyPEN = "PEN"

// SignatureID identificador de la firma digital. El cbc:ID del bloque
// cac:Signature, el URI del DigitalSignatureAttachment y el atributo Id del
// ds:Signature inyectado deben usar el mismo valor.
const SignatureID = "SignatureSP"

// TasaIGV tasa vigente del IGV en porcentaje.
const TasaIGV = "18.00"

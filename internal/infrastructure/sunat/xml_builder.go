package sunat

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// Namespaces oficiales UBL 2.1 usados por SUNAT. Son exactamente cinco; el
// XSD de SUNAT valida contra estos URIs y no admite variantes.
const (
	// Namespace por defecto (UBL Invoice)
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	// Namespace por defecto de las notas de crédito
	NsCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
)

// SignatureID identificador de la firma; el cbc:ID del bloque cac:Signature y
// el Id del ds:Signature inyectado deben coincidir.
const SignatureID = sunat.SignatureID

// XMLBuilderService construye el XML UBL 2.1 del comprobante (sin firmar).
// La salida es determinística: el mismo documento produce los mismos bytes,
// condición necesaria para que el digest de la firma sea reproducible.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del documento Invoice o CreditNote según UBL 2.1.
// El primer hijo del elemento raíz es siempre ext:UBLExtensions con un
// ExtensionContent vacío: es el punto de anclaje donde el firmador inyecta
// ds:Signature, y SUNAT rechaza el documento si la firma está en otro lugar.
func (s *XMLBuilderService) Build(ctx *BuildContext) ([]byte, error) {
	if ctx == nil || ctx.Doc == nil || ctx.Emisor == nil || ctx.Cliente == nil {
		return nil, &cpe.StructuralError{Detalle: "faltan documento, emisor o cliente en el contexto"}
	}
	doc := ctx.Doc

	rootNs := NsInvoice
	rootLocal := "Invoice"
	if doc.EsNotaCredito() {
		rootNs = NsCreditNote
		rootLocal = "CreditNote"
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Space: rootNs, Local: rootLocal},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: rootNs},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: NsDs},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ---- CRÍTICO: ext:UBLExtensions siempre como primer hijo del raíz.
	// ExtensionContent queda vacío; el firmador inyectará <ds:Signature> aquí.
	s.writeUBLExtensions(enc)

	// ---- cbc: cabecera en el orden fijo del XSD
	writeCbc(enc, "UBLVersionID", "2.1")
	writeCbc(enc, "CustomizationID", "2.0")
	writeCbc(enc, "ID", doc.ID())
	writeCbc(enc, "IssueDate", doc.Emision.Format("2006-01-02"))
	writeCbc(enc, "IssueTime", doc.Emision.Format("15:04:05"))
	if !doc.EsNotaCredito() {
		writeCbcWithAttr(enc, "InvoiceTypeCode", doc.TipoDocumento, "listID", "0101")
	}
	if doc.Leyenda != "" {
		// Leyenda "monto en letras" (Catálogo 52, código 1000)
		writeCbcWithAttr(enc, "Note", doc.Leyenda, "languageLocaleID", "1000")
	}
	if doc.EsNotaCredito() && doc.Motivo != "" {
		writeCbc(enc, "Note", doc.Motivo)
	}
	writeCbc(enc, "DocumentCurrencyCode", doc.Moneda)

	if doc.EsNotaCredito() {
		s.writeDiscrepancyResponse(enc, doc)
		s.writeBillingReference(enc, doc)
	}

	// ---- cac:Signature (referencia al ds:Signature que se inyectará)
	s.writeSignatureBlock(enc, ctx.Emisor)

	// ---- Partes
	s.writeSupplierParty(enc, ctx.Emisor)
	s.writeCustomerParty(enc, ctx.Cliente)

	// ---- cac:TaxTotal
	s.writeTaxTotal(enc, doc)

	// ---- cac:LegalMonetaryTotal
	s.writeLegalMonetaryTotal(enc, doc)

	// ---- Líneas (el orden de inserción se preserva)
	lineLocal := "InvoiceLine"
	qtyLocal := "InvoicedQuantity"
	if doc.EsNotaCredito() {
		lineLocal = "CreditNoteLine"
		qtyLocal = "CreditedQuantity"
	}
	for i, line := range doc.Lineas {
		s.writeLine(enc, lineLocal, qtyLocal, i+1, line, doc.Moneda)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeUBLExtensions escribe el contenedor de extensiones con un único
// ExtensionContent vacío reservado para la firma.
func (s *XMLBuilderService) writeUBLExtensions(enc *xml.Encoder) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "UBLExtensions"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "UBLExtension"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "ExtensionContent"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "ExtensionContent"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "UBLExtension"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "UBLExtensions"}})
}

// writeDiscrepancyResponse motivo de la nota de crédito (Catálogo 09).
func (s *XMLBuilderService) writeDiscrepancyResponse(enc *xml.Encoder, doc *cpe.InvoiceDocument) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "DiscrepancyResponse"}})
	writeCbc(enc, "ReferenceID", sunat.FormatDocumentID(doc.DocAfectado.Serie, doc.DocAfectado.Correlativo))
	writeCbc(enc, "ResponseCode", doc.CodigoNota)
	writeCbc(enc, "Description", doc.Motivo)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "DiscrepancyResponse"}})
}

// writeBillingReference referencia al comprobante afectado.
func (s *XMLBuilderService) writeBillingReference(enc *xml.Encoder, doc *cpe.InvoiceDocument) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "BillingReference"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "InvoiceDocumentReference"}})
	writeCbc(enc, "ID", sunat.FormatDocumentID(doc.DocAfectado.Serie, doc.DocAfectado.Correlativo))
	writeCbc(enc, "DocumentTypeCode", doc.DocAfectado.TipoDocumento)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "InvoiceDocumentReference"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "BillingReference"}})
}

// writeSignatureBlock escribe cac:Signature, cuyo cbc:ID y URI de adjunto deben
// coincidir con el Id del ds:Signature que el firmador inyecta después.
func (s *XMLBuilderService) writeSignatureBlock(enc *xml.Encoder, emisor *cpe.Party) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Signature"}})
	writeCbc(enc, "ID", SignatureID)

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "SignatoryParty"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PartyIdentification"}})
	writeCbc(enc, "ID", emisor.Numero)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PartyIdentification"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PartyName"}})
	writeCbc(enc, "Name", emisor.RazonSocial)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PartyName"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "SignatoryParty"}})

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "DigitalSignatureAttachment"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "ExternalReference"}})
	writeCbc(enc, "URI", "#"+SignatureID)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "ExternalReference"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "DigitalSignatureAttachment"}})

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Signature"}})
}

func (s *XMLBuilderService) writeSupplierParty(enc *xml.Encoder, emisor *cpe.Party) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "AccountingSupplierParty"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Party"}})

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PartyIdentification"}})
	writeCbcWithAttr(enc, "ID", emisor.Numero, "schemeID", emisor.TipoDocIdentidad)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PartyIdentification"}})

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PartyLegalEntity"}})
	writeCbc(enc, "RegistrationName", emisor.RazonSocial)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "RegistrationAddress"}})
	codigoLocal := emisor.CodigoLocal
	if codigoLocal == "" {
		codigoLocal = "0000"
	}
	writeCbc(enc, "AddressTypeCode", codigoLocal)
	if emisor.Direccion != "" {
		_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "AddressLine"}})
		writeCbc(enc, "Line", emisor.Direccion)
		_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "AddressLine"}})
	}
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "RegistrationAddress"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PartyLegalEntity"}})

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Party"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "AccountingSupplierParty"}})
}

func (s *XMLBuilderService) writeCustomerParty(enc *xml.Encoder, cliente *cpe.Party) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "AccountingCustomerParty"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Party"}})

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PartyIdentification"}})
	writeCbcWithAttr(enc, "ID", cliente.Numero, "schemeID", cliente.TipoDocIdentidad)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PartyIdentification"}})

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PartyLegalEntity"}})
	writeCbc(enc, "RegistrationName", cliente.RazonSocial)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PartyLegalEntity"}})

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Party"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "AccountingCustomerParty"}})
}

func (s *XMLBuilderService) writeTaxTotal(enc *xml.Encoder, doc *cpe.InvoiceDocument) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "TaxTotal"}})
	writeCbcAmount(enc, "TaxAmount", formatAmount(doc.TotalIGV), doc.Moneda)
	for _, st := range doc.Impuestos {
		_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "TaxSubtotal"}})
		writeCbcAmount(enc, "TaxableAmount", formatAmount(st.Base), doc.Moneda)
		writeCbcAmount(enc, "TaxAmount", formatAmount(st.Monto), doc.Moneda)
		s.writeTaxCategory(enc, st.Tasa, st.Afectacion)
		_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "TaxSubtotal"}})
	}
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "TaxTotal"}})
}

// writeTaxCategory categoría del IGV: tasa, afectación (Catálogo 07) y la
// tripleta fija del tributo 1000/IGV/VAT.
func (s *XMLBuilderService) writeTaxCategory(enc *xml.Encoder, tasa decimal.Decimal, afectacion string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "TaxCategory"}})
	writeCbc(enc, "Percent", formatAmount(tasa))
	writeCbc(enc, "TaxExemptionReasonCode", afectacion)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "TaxScheme"}})
	writeCbc(enc, "ID", sunat.TaxSchemeIGVID)
	writeCbc(enc, "Name", sunat.TaxSchemeIGVName)
	writeCbc(enc, "TaxTypeCode", sunat.TaxSchemeIGVType)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "TaxScheme"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "TaxCategory"}})
}

func (s *XMLBuilderService) writeLegalMonetaryTotal(enc *xml.Encoder, doc *cpe.InvoiceDocument) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "LegalMonetaryTotal"}})
	writeCbcAmount(enc, "LineExtensionAmount", formatAmount(doc.TotalGravado), doc.Moneda)
	writeCbcAmount(enc, "TaxInclusiveAmount", formatAmount(doc.TotalVenta), doc.Moneda)
	writeCbcAmount(enc, "PayableAmount", formatAmount(doc.TotalVenta), doc.Moneda)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "LegalMonetaryTotal"}})
}

func (s *XMLBuilderService) writeLine(enc *xml.Encoder, lineLocal, qtyLocal string, num int, line cpe.InvoiceLine, moneda string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: lineLocal}})
	writeCbc(enc, "ID", strconv.Itoa(num))
	writeCbcWithAttr(enc, qtyLocal, line.Cantidad.String(), "unitCode", line.UnidadMedida)
	writeCbcAmount(enc, "LineExtensionAmount", formatAmount(line.ValorVenta), moneda)

	// Precio de venta unitario con IGV, alta precisión (Catálogo 16, código 01)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "PricingReference"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "AlternativeConditionPrice"}})
	writeCbcAmount(enc, "PriceAmount", formatUnitPrice(line.PrecioUnitario), moneda)
	writeCbc(enc, "PriceTypeCode", "01")
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "AlternativeConditionPrice"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "PricingReference"}})

	// IGV de la línea
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "TaxTotal"}})
	writeCbcAmount(enc, "TaxAmount", formatAmount(line.IGV), moneda)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "TaxSubtotal"}})
	writeCbcAmount(enc, "TaxableAmount", formatAmount(line.BaseImponible), moneda)
	writeCbcAmount(enc, "TaxAmount", formatAmount(line.IGV), moneda)
	s.writeTaxCategory(enc, line.Tasa, line.Afectacion)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "TaxSubtotal"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "TaxTotal"}})

	// cac:Item
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Item"}})
	writeCbc(enc, "Description", line.Descripcion)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Item"}})

	// cac:Price (valor unitario sin IGV)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: "Price"}})
	writeCbcAmount(enc, "PriceAmount", formatUnitPrice(line.ValorUnitario), moneda)
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: "Price"}})

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: lineLocal}})
}

func writeCbc(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCbc, Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

func writeCbcAmount(enc *xml.Encoder, local, value, currency string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Space: NsCbc, Local: local},
		Attr: []xml.Attr{{Name: xml.Name{Local: "currencyID"}, Value: currency}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Space: NsCbc, Local: local},
		Attr: []xml.Attr{{Name: xml.Name{Local: attrLocal}, Value: attrValue}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

// formatAmount montos y totales van con dos decimales fijos.
func formatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// formatUnitPrice precios unitarios van con alta precisión para no perder
// centavos en cantidades grandes.
func formatUnitPrice(d decimal.Decimal) string {
	return d.StringFixed(10)
}

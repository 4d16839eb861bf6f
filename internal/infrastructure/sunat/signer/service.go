// Servicio de firma digital XML-DSig enveloped para comprobantes SUNAT.
// Inyecta <ds:Signature> en el <ext:ExtensionContent> que el builder deja
// vacío como primer hijo del documento.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// DigitalSignatureService implementa la firma enveloped e inyecta el nodo en el XML.
type DigitalSignatureService struct{}

// NewDigitalSignatureService crea el servicio.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{}
}

// Sign implementa pkg/sunat.Signer. El digest de la Reference (URI="",
// transform enveloped) se calcula sobre el documento SIN firma, que es
// exactamente el estado del árbol que recibe esta función; inyectar la firma
// después no altera el digest porque el transform enveloped la excluye.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, &cpe.StructuralError{Detalle: "XML vacío"}
	}
	if len(cert.Certificate) == 0 {
		return nil, &cpe.CertificateError{Detalle: "certificado sin cadena"}
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, &cpe.CertificateError{Detalle: "la llave privada debe ser RSA"}
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, &cpe.CertificateError{Detalle: fmt.Sprintf("parsear certificado: %v", err)}
	}

	// 1) Digest del documento sin firmar (C14N + SHA-256)
	docDigestB64, err := DocumentDigest(xmlBytes)
	if err != nil {
		return nil, &cpe.StructuralError{Detalle: fmt.Sprintf("canonicalizar documento: %v", err)}
	}

	// 2) SignedInfo canonicalizado, firmado con RSA-SHA256
	signedInfoXML := buildSignedInfo(docDigestB64)
	canonicalSignedInfo, err := canonicalizeXML([]byte(signedInfoXML))
	if err != nil {
		return nil, &cpe.StructuralError{Detalle: fmt.Sprintf("canonicalizar SignedInfo: %v", err)}
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("firmar SignedInfo: %w", err)
	}

	// 3) Nodo completo con KeyInfo (X509Certificate embebido)
	signatureXML := buildFullSignature(
		signedInfoXML,
		base64.StdEncoding.EncodeToString(signatureValue),
		base64.StdEncoding.EncodeToString(x509Cert.Raw),
	)

	// 4) Inyectar en el ExtensionContent reservado
	return injectSignature(xmlBytes, signatureXML)
}

// DocumentDigest devuelve el digest SHA-256 en Base64 del documento
// canonicalizado. Compartido con los tests de verificación para que el cálculo
// y la comprobación no puedan divergir.
func DocumentDigest(xmlBytes []byte) (string, error) {
	canonical, err := canonicalizeXML(xmlBytes)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgExcC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildFullSignature(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `" Id="` + sunat.SignatureID + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

// injectSignature coloca el ds:Signature dentro del primer ext:ExtensionContent
// del documento. Si el builder no dejó el punto de anclaje, el documento está
// mal construido: error estructural, nunca se reintenta.
func injectSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, &cpe.StructuralError{Detalle: fmt.Sprintf("parsear XML: %v", err)}
	}
	root := doc.Root()
	if root == nil {
		return nil, &cpe.StructuralError{Detalle: "documento sin raíz"}
	}
	content := findExtensionContent(root)
	if content == nil {
		return nil, &cpe.StructuralError{Detalle: "no se encontró ext:ExtensionContent para inyectar la firma"}
	}

	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, &cpe.StructuralError{Detalle: fmt.Sprintf("parsear Signature: %v", err)}
	}
	content.AddChild(sigDoc.Root())

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// findExtensionContent busca por nombre local, con o sin prefijo, el primer
// ExtensionContent bajo UBLExtensions/UBLExtension.
func findExtensionContent(root *etree.Element) *etree.Element {
	for _, child := range root.ChildElements() {
		if localTag(child) != "UBLExtensions" {
			continue
		}
		for _, ext := range child.ChildElements() {
			if localTag(ext) != "UBLExtension" {
				continue
			}
			for _, ec := range ext.ChildElements() {
				if localTag(ec) == "ExtensionContent" {
					return ec
				}
			}
		}
	}
	return nil
}

func localTag(el *etree.Element) string {
	if i := strings.IndexByte(el.Tag, ':'); i >= 0 {
		return el.Tag[i+1:]
	}
	return el.Tag
}

var _ sunat.Signer = (*DigitalSignatureService)(nil)

// Package sunat: interfaz para la firma digital de comprobantes XML (XML-DSig, SUNAT).

package sunat

import "crypto/tls"

// Signer firma un XML de comprobante y devuelve el XML con la firma colocada en
// el ext:ExtensionContent que el builder deja vacío.
type Signer interface {
	// Sign toma el XML del comprobante (sin firma) y el certificado con llave
	// privada, y retorna el XML con el nodo ds:Signature dentro de
	// ext:ExtensionContent.
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}

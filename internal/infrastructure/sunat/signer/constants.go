// Constantes de algoritmos XML-DSig para la firma de comprobantes SUNAT.

package signer

const (
	NamespaceDS = "http://www.w3.org/2000/09/xmldsig#"

	// Canonicalización exclusiva, la que declara la firma de SUNAT.
	AlgExcC14N         = "http://www.w3.org/2001/10/xml-exc-c14n#"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

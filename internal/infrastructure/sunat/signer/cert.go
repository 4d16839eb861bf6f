// Carga de certificado desde bytes .p12 (PKCS#12) o PEM. El certificado del
// emisor vive en la base de datos, no en disco, por eso se carga desde bytes.

package signer

import (
	"bytes"
	"crypto/tls"
	"fmt"

	"golang.org/x/crypto/pkcs12"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
)

var pemHeader = []byte("-----BEGIN ")

// Load carga certificado y llave privada desde los bytes tal como se
// almacenaron: contenedor PKCS#12 o PEM combinado (cert + llave en el mismo
// blob). El password solo aplica a contenedores P12.
func Load(data []byte, password string) (tls.Certificate, error) {
	if len(data) == 0 {
		return tls.Certificate{}, &cpe.CertificateError{Detalle: "el emisor no tiene certificado cargado"}
	}
	if bytes.Contains(data, pemHeader) {
		return LoadFromPEMBytes(data)
	}
	return LoadFromP12Bytes(data, password)
}

// LoadFromP12Bytes decodifica un contenedor .p12/.pfx. El password puede ser
// vacío si el contenedor no está protegido.
func LoadFromP12Bytes(data []byte, password string) (tls.Certificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, &cpe.KeyLoadError{Err: fmt.Errorf("decodificar p12: %w", err)}
	}
	// pkcs12.Decode devuelve un solo certificado; para SUNAT basta el hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEMBytes carga un PEM combinado (certificado y llave en el mismo blob).
func LoadFromPEMBytes(data []byte) (tls.Certificate, error) {
	cert, err := tls.X509KeyPair(data, data)
	if err != nil {
		return tls.Certificate{}, &cpe.KeyLoadError{Err: fmt.Errorf("cargar PEM: %w", err)}
	}
	return cert, nil
}

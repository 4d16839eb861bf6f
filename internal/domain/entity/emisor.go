package entity

import "time"

// Emisor es la empresa que emite comprobantes: identidad tributaria,
// credenciales SOL y el certificado digital con el que se firma.
type Emisor struct {
	RUC         string `json:"ruc"`
	RazonSocial string `json:"razon_social"`
	Direccion   string `json:"direccion"`
	CodigoLocal string `json:"codigo_local"` // anexo SUNAT, "0000" = principal

	UsuarioSOL string `json:"usuario_sol"`
	ClaveSOL   string `json:"-"`

	// Certificado digital en el formato original del archivo (P12/PFX o PEM);
	// la passphrase solo aplica a contenedores P12.
	Certificado  []byte `json:"-"`
	CertPassword string `json:"-"`

	// FeURL permite fijar un endpoint distinto al del ambiente configurado
	// (por ejemplo un OSE). Vacío = endpoint por defecto del ambiente.
	FeURL string `json:"fe_url,omitempty"`

	// Destinatarios de las alertas de rechazo (correos).
	AlertaCorreos []string `json:"alerta_correos,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

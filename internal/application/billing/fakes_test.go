package billing_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maparedes/Facturacion-api/internal/domain"
	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
	infrasunat "github.com/maparedes/Facturacion-api/internal/infrastructure/sunat"
)

// ── Dobles de prueba ──────────────────────────────────────────────────────────

type ventaRepoFake struct {
	mu       sync.Mutex
	creadas  []*entity.Venta
	listado  []*entity.Venta
	updates  map[string]cpe.Outcome
	terminal bool // simula fila ya en estado terminal
	errList  error
}

func newVentaRepoFake() *ventaRepoFake {
	return &ventaRepoFake{updates: map[string]cpe.Outcome{}}
}

func (f *ventaRepoFake) Create(ctx context.Context, v *entity.Venta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.ID == "" {
		v.ID = fmt.Sprintf("venta-%d", len(f.creadas)+1)
	}
	f.creadas = append(f.creadas, v)
	return nil
}

func (f *ventaRepoFake) GetByID(ctx context.Context, id string) (*entity.Venta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.creadas {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("venta %s no encontrada", id)
}

func (f *ventaRepoFake) GetByDocumento(ctx context.Context, emisorRUC, tipo, serie string, correlativo int64) (*entity.Venta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range append(append([]*entity.Venta{}, f.creadas...), f.listado...) {
		if v.EmisorRUC == emisorRUC && v.TipoDocumento == tipo && v.Serie == serie && v.Correlativo == correlativo {
			return v, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *ventaRepoFake) ListParaReintento(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Venta, error) {
	if f.errList != nil {
		return nil, f.errList
	}
	return f.listado, nil
}

func (f *ventaRepoFake) UpdateEstado(ctx context.Context, id string, out cpe.Outcome) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.terminal {
		return false, nil
	}
	f.updates[id] = out
	return true, nil
}

type emisorRepoFake struct {
	emisores map[string]*entity.Emisor
	err      error
}

func (f *emisorRepoFake) GetByRUC(ctx context.Context, ruc string) (*entity.Emisor, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.emisores[ruc]
	if !ok {
		return nil, fmt.Errorf("emisor %s no encontrado", ruc)
	}
	return e, nil
}

type transmitterFake struct {
	mu sync.Mutex

	sendOut  cpe.Outcome
	sendErr  error
	sends    []string // fileName de cada sendBill
	statuses []string // ticket de cada getStatus
	cdrs     []string // serie de cada getStatusCdr

	statusOut cpe.Outcome
	statusErr error
	cdrOut    cpe.Outcome
	cdrErr    error
}

func (f *transmitterFake) SendBill(ctx context.Context, endpoint string, creds infrasunat.Credentials, fileName string, zipBytes []byte) (cpe.Outcome, error) {
	f.mu.Lock()
	f.sends = append(f.sends, fileName)
	f.mu.Unlock()
	return f.sendOut, f.sendErr
}

func (f *transmitterFake) GetStatusCDR(ctx context.Context, endpoint string, creds infrasunat.Credentials, ruc, tipo, serie string, numero int64) (cpe.Outcome, error) {
	f.mu.Lock()
	f.cdrs = append(f.cdrs, serie)
	f.mu.Unlock()
	return f.cdrOut, f.cdrErr
}

func (f *transmitterFake) GetStatus(ctx context.Context, endpoint string, creds infrasunat.Credentials, ticket string) (cpe.Outcome, error) {
	f.mu.Lock()
	f.statuses = append(f.statuses, ticket)
	f.mu.Unlock()
	return f.statusOut, f.statusErr
}

type notifierFake struct {
	mu      sync.Mutex
	avisos  []string // "comprobante: motivo"
	errSend error
}

func (f *notifierFake) NotificarRechazo(ctx context.Context, v *entity.Venta, emisor *entity.Emisor, motivo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errSend != nil {
		return f.errSend
	}
	f.avisos = append(f.avisos, v.DocumentID()+": "+motivo)
	return nil
}

// firmadorFake devuelve el XML tal cual; la firma real se prueba en el
// paquete signer.
type firmadorFake struct{}

func (firmadorFake) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	return xmlBytes, nil
}

// certificadoPEM genera un blob PEM (cert + llave) cargable por signer.Load.
func certificadoPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "DISTRIBUIDORA ANDINA S.A.C."},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	var blob []byte
	blob = append(blob, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	blob = append(blob, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})...)
	return blob
}

func emisorDePrueba(t *testing.T) *entity.Emisor {
	t.Helper()
	return &entity.Emisor{
		RUC:           "20136564367",
		RazonSocial:   "DISTRIBUIDORA ANDINA S.A.C.",
		Direccion:     "AV. LOS OLIVOS 123, LIMA",
		UsuarioSOL:    "MODDATOS",
		ClaveSOL:      "moddatos",
		Certificado:   certificadoPEM(t),
		AlertaCorreos: []string{"alertas@andina.pe"},
	}
}

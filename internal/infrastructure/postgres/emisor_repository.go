package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maparedes/Facturacion-api/internal/domain"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
	"github.com/maparedes/Facturacion-api/internal/domain/repository"
)

var _ repository.EmisorRepository = (*EmisorRepo)(nil)

// EmisorRepo implementación de EmisorRepository.
type EmisorRepo struct {
	q Querier
}

// NewEmisorRepository construye el adaptador.
func NewEmisorRepository(q Querier) *EmisorRepo {
	return &EmisorRepo{q: q}
}

// GetByRUC resuelve el emisor con sus credenciales SOL y certificado.
func (r *EmisorRepo) GetByRUC(ctx context.Context, ruc string) (*entity.Emisor, error) {
	query := `
		SELECT ruc, razon_social, direccion, codigo_local,
		       usuario_sol, clave_sol, certificado, cert_password,
		       fe_url, alerta_correos, created_at, updated_at
		FROM emisores WHERE ruc = $1`
	var e entity.Emisor
	var direccion, codigoLocal, certPassword, feURL *string
	err := r.q.QueryRow(ctx, query, ruc).Scan(
		&e.RUC, &e.RazonSocial, &direccion, &codigoLocal,
		&e.UsuarioSOL, &e.ClaveSOL, &e.Certificado, &certPassword,
		&feURL, &e.AlertaCorreos, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get emisor: %w", err)
	}
	e.Direccion = deref(direccion)
	e.CodigoLocal = deref(codigoLocal)
	e.CertPassword = deref(certPassword)
	e.FeURL = deref(feURL)
	return &e, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maparedes/Facturacion-api/internal/domain"
	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
	"github.com/maparedes/Facturacion-api/internal/domain/repository"
)

var _ repository.VentaRepository = (*VentaRepo)(nil)

// VentaRepo implementación de VentaRepository (usable con pool o tx).
type VentaRepo struct {
	q Querier
}

// NewVentaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVentaRepository(q Querier) *VentaRepo {
	return &VentaRepo{q: q}
}

const ventaColumns = `id, emisor_ruc, tipo_documento, serie, correlativo, fecha_emision,
	       moneda, total_gravado, total_igv, total_venta,
	       estado_sunat, nota, ticket, intentos, xml_firmado, cdr,
	       created_at, updated_at`

// Create persiste el comprobante. La identidad de negocio
// (emisor_ruc, tipo, serie, correlativo) tiene constraint único.
func (r *VentaRepo) Create(ctx context.Context, v *entity.Venta) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	query := `
		INSERT INTO ventas (id, emisor_ruc, tipo_documento, serie, correlativo, fecha_emision,
		                    moneda, total_gravado, total_igv, total_venta,
		                    estado_sunat, nota, ticket, intentos, xml_firmado, cdr,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		v.ID, v.EmisorRUC, v.TipoDocumento, v.Serie, v.Correlativo, v.FechaEmision,
		v.Moneda, v.TotalGravado, v.TotalIGV, v.TotalVenta,
		v.EstadoSUNAT, nullIfEmpty(v.Nota), nullIfEmpty(v.Ticket), v.Intentos, v.XMLFirmado, v.CDR,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("comprobante %s ya registrado: %w", v.DocumentID(), domain.ErrDuplicate)
		}
		return fmt.Errorf("insert venta: %w", err)
	}
	return nil
}

// GetByID obtiene un comprobante por su ID interno.
func (r *VentaRepo) GetByID(ctx context.Context, id string) (*entity.Venta, error) {
	query := `SELECT ` + ventaColumns + ` FROM ventas WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetByDocumento obtiene un comprobante por su identidad de negocio.
func (r *VentaRepo) GetByDocumento(ctx context.Context, emisorRUC, tipo, serie string, correlativo int64) (*entity.Venta, error) {
	query := `SELECT ` + ventaColumns + ` FROM ventas
		WHERE emisor_ruc = $1 AND tipo_documento = $2 AND serie = $3 AND correlativo = $4`
	return r.scanOne(r.q.QueryRow(ctx, query, emisorRUC, tipo, serie, correlativo))
}

// ListParaReintento selecciona los comprobantes que el barrido debe reprocesar,
// del más antiguo al más reciente.
func (r *VentaRepo) ListParaReintento(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Venta, error) {
	query := `SELECT ` + ventaColumns + ` FROM ventas
		WHERE estado_sunat = $1
		   OR (estado_sunat = $2 AND updated_at < $3)
		ORDER BY updated_at ASC
		LIMIT $4`
	rows, err := r.q.Query(ctx, query, cpe.EstadoErrorConexion, cpe.EstadoPendiente, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("listar para reintento: %w", err)
	}
	defer rows.Close()

	var ventas []*entity.Venta
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		ventas = append(ventas, v)
	}
	return ventas, rows.Err()
}

// UpdateEstado aplica el resultado de un envío o consulta. La cláusula WHERE
// excluye los estados terminales: un reintento tardío nunca revierte un
// ACEPTADO o RECHAZADO. Devuelve false si la fila ya era terminal (o no existe).
func (r *VentaRepo) UpdateEstado(ctx context.Context, id string, out cpe.Outcome) (bool, error) {
	query := `
		UPDATE ventas
		SET estado_sunat = $2,
		    nota         = $3,
		    ticket       = COALESCE(NULLIF($4, ''), ticket),
		    cdr          = COALESCE($5, cdr),
		    intentos     = intentos + 1,
		    updated_at   = $6
		WHERE id = $1 AND estado_sunat NOT IN ($7, $8)`
	tag, err := r.q.Exec(ctx, query,
		id, out.Estado, nullIfEmpty(out.Nota()), out.Ticket, out.CDR, time.Now(),
		cpe.EstadoAceptado, cpe.EstadoRechazado,
	)
	if err != nil {
		return false, fmt.Errorf("actualizar estado: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *VentaRepo) scanOne(row pgx.Row) (*entity.Venta, error) {
	v, err := r.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *VentaRepo) scan(row pgx.Row) (*entity.Venta, error) {
	var v entity.Venta
	var nota, ticket *string
	err := row.Scan(
		&v.ID, &v.EmisorRUC, &v.TipoDocumento, &v.Serie, &v.Correlativo, &v.FechaEmision,
		&v.Moneda, &v.TotalGravado, &v.TotalIGV, &v.TotalVenta,
		&v.EstadoSUNAT, &nota, &ticket, &v.Intentos, &v.XMLFirmado, &v.CDR,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan venta: %w", err)
	}
	v.Nota = deref(nota)
	v.Ticket = deref(ticket)
	return &v, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

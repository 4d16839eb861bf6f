// Package repository define los puertos de persistencia del dominio.
// Las implementaciones viven en internal/infrastructure/postgres.
package repository

import (
	"context"
	"time"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
)

// VentaRepository persiste comprobantes emitidos y su estado frente a SUNAT.
type VentaRepository interface {
	Create(ctx context.Context, venta *entity.Venta) error
	GetByID(ctx context.Context, id string) (*entity.Venta, error)
	GetByDocumento(ctx context.Context, emisorRUC, tipo, serie string, correlativo int64) (*entity.Venta, error)

	// ListParaReintento selecciona los comprobantes que el barrido debe
	// reprocesar: ERROR_CONEXION de cualquier antigüedad, y PENDIENTE cuya
	// última actualización sea anterior a cutoff. Ordenados del más antiguo
	// al más reciente, hasta limit filas.
	ListParaReintento(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Venta, error)

	// UpdateEstado aplica el resultado de un envío o consulta. La actualización
	// es condicional: solo procede si el estado persistido no es terminal, de
	// modo que un reintento tardío nunca revierta un ACEPTADO o RECHAZADO.
	// Devuelve false si la fila ya estaba en estado terminal.
	UpdateEstado(ctx context.Context, id string, out cpe.Outcome) (bool, error)
}

// EmisorRepository resuelve la empresa emisora y sus credenciales.
type EmisorRepository interface {
	GetByRUC(ctx context.Context, ruc string) (*entity.Emisor, error)
}

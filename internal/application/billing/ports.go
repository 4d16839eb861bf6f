// Package billing orquesta el ciclo de emisión del comprobante electrónico:
//
//	Documento → XML UBL 2.1 → Firma → ZIP → Envío SOAP → Persistencia
//
// y el barrido de conciliación que reprocesa pendientes y caídas de conexión.
package billing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/maparedes/Facturacion-api/internal/domain/entity"
)

// Notifier canal de alerta de rechazos. Las implementaciones concretas viven
// en internal/infrastructure/notify.
type Notifier interface {
	NotificarRechazo(ctx context.Context, v *entity.Venta, emisor *entity.Emisor, motivo string) error
}

// notificarRechazo hace fan-out a todos los canales. Un canal caído se loguea
// y no bloquea a los demás ni al pipeline.
func notificarRechazo(ctx context.Context, log zerolog.Logger, notifiers []Notifier, v *entity.Venta, emisor *entity.Emisor, motivo string) {
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		if err := n.NotificarRechazo(ctx, v, emisor, motivo); err != nil {
			log.Error().Err(err).
				Str("comprobante", v.DocumentID()).
				Msg("no se pudo enviar la alerta de rechazo")
		}
	}
}

package billing

import (
	"context"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
)

// ConsultarEstado devuelve el estado actual de un comprobante. Si ya es
// terminal responde lo persistido; si no, reconsulta el WS de SUNAT en línea
// (getStatus cuando hay ticket, getStatusCdr en caso contrario) compartiendo
// el transporte y el circuito del pipeline de emisión, y persiste el resultado
// antes de responder.
func (s *EmisionService) ConsultarEstado(ctx context.Context, emisorRUC, tipo, serie string, correlativo int64) (*entity.Venta, error) {
	venta, err := s.ventaRepo.GetByDocumento(ctx, emisorRUC, tipo, serie, correlativo)
	if err != nil {
		return nil, err
	}
	if venta.EstadoSUNAT.Terminal() {
		return venta, nil
	}

	emisor, err := s.emisorRepo.GetByRUC(ctx, emisorRUC)
	if err != nil {
		return nil, err
	}
	endpoint := s.endpoint(emisor)
	creds := credenciales(emisor)

	ticket := venta.Ticket
	if ticket == "" {
		ticket = cpe.TicketDeNota(venta.Nota)
	}

	var out cpe.Outcome
	err = s.cb.Execute(func() error {
		var errOp error
		if ticket != "" {
			out, errOp = s.transmitter.GetStatus(ctx, endpoint, creds, ticket)
		} else {
			out, errOp = s.transmitter.GetStatusCDR(ctx, endpoint, creds, venta.EmisorRUC, venta.TipoDocumento, venta.Serie, venta.Correlativo)
		}
		return errOp
	})
	if err != nil {
		out = outcomeDeError(err)
	}

	s.aplicarResultado(ctx, venta, emisor, out)
	return venta, nil
}

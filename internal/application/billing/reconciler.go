package billing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
	"github.com/maparedes/Facturacion-api/internal/domain/repository"
	"github.com/maparedes/Facturacion-api/internal/infrastructure/resilience"
	infrasunat "github.com/maparedes/Facturacion-api/internal/infrastructure/sunat"
	"github.com/maparedes/Facturacion-api/pkg/config"
)

// Reconciler es el barrido de conciliación de estados: un único worker en
// segundo plano que reprocesa los comprobantes en ERROR_CONEXION y los
// PENDIENTE antiguos. Enrutamiento por comprobante:
//
//   - nota "Ticket: N"            → getStatus (envío asíncrono en proceso)
//   - ERROR_CONEXION con XML      → sendBill  (retransmite el mismo firmado)
//   - PENDIENTE                   → getStatusCdr (reconsulta la constancia)
//
// El circuito abierto salta el barrido completo; un fallo por comprobante se
// loguea y no detiene al resto del lote.
type Reconciler struct {
	ventaRepo   repository.VentaRepository
	emisorRepo  repository.EmisorRepository
	transmitter infrasunat.Transmitter
	cb          *resilience.CircuitBreaker
	notifiers   []Notifier
	sunatCfg    config.SUNATConfig
	sweepCfg    config.SweepConfig
	log         zerolog.Logger
}

// NewReconciler construye el worker de conciliación.
func NewReconciler(
	ventaRepo repository.VentaRepository,
	emisorRepo repository.EmisorRepository,
	transmitter infrasunat.Transmitter,
	cb *resilience.CircuitBreaker,
	notifiers []Notifier,
	sunatCfg config.SUNATConfig,
	sweepCfg config.SweepConfig,
	log zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		ventaRepo:   ventaRepo,
		emisorRepo:  emisorRepo,
		transmitter: transmitter,
		cb:          cb,
		notifiers:   notifiers,
		sunatCfg:    sunatCfg,
		sweepCfg:    sweepCfg,
		log:         log,
	}
}

// Start lanza el worker en una goroutine. Respeta ctx para el apagado limpio:
// la cancelación corta también un barrido a medio lote.
func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.sweepCfg.Interval)
		defer ticker.Stop()

		r.log.Info().
			Dur("intervalo", r.sweepCfg.Interval).
			Dur("gracia", r.sweepCfg.Grace).
			Msg("barrido de conciliación iniciado")

		for {
			select {
			case <-ctx.Done():
				r.log.Info().Msg("barrido de conciliación detenido")
				return
			case <-ticker.C:
				r.Sweep(ctx)
			}
		}
	}()
}

// Sweep ejecuta una pasada del barrido. Exportado para poder dispararlo desde
// tests y desde un endpoint administrativo.
func (r *Reconciler) Sweep(ctx context.Context) {
	if r.cb.Estado() == resilience.Abierto {
		r.log.Debug().Msg("circuito abierto, barrido omitido")
		return
	}

	cutoff := time.Now().Add(-r.sweepCfg.Grace)
	ventas, err := r.ventaRepo.ListParaReintento(ctx, cutoff, r.sweepCfg.BatchSize)
	if err != nil {
		r.log.Error().Err(err).Msg("no se pudo listar comprobantes para reintento")
		return
	}
	if len(ventas) == 0 {
		return
	}
	r.log.Info().Int("cantidad", len(ventas)).Msg("procesando comprobantes pendientes")

	for _, v := range ventas {
		if ctx.Err() != nil {
			return
		}
		// el circuito puede abrirse a mitad de lote
		if r.cb.Estado() == resilience.Abierto {
			r.log.Debug().Msg("circuito abierto a mitad de lote, barrido detenido")
			return
		}
		r.procesar(ctx, v)
	}
}

// procesar reintenta un comprobante. Cualquier fallo queda contenido aquí.
func (r *Reconciler) procesar(ctx context.Context, v *entity.Venta) {
	emisor, err := r.emisorRepo.GetByRUC(ctx, v.EmisorRUC)
	if err != nil {
		r.log.Error().Err(err).
			Str("comprobante", v.DocumentID()).
			Str("ruc", v.EmisorRUC).
			Msg("no se pudo resolver el emisor, comprobante omitido")
		return
	}
	endpoint := r.endpoint(emisor)
	creds := credenciales(emisor)

	var out cpe.Outcome
	err = r.cb.Execute(func() error {
		var errOp error
		out, errOp = r.consultar(ctx, v, endpoint, creds)
		return errOp
	})
	if err != nil {
		out = outcomeDeError(err)
	}

	actualizado, err := r.ventaRepo.UpdateEstado(ctx, v.ID, out)
	if err != nil {
		r.log.Error().Err(err).Str("comprobante", v.DocumentID()).Msg("no se pudo persistir el estado")
		return
	}
	if !actualizado {
		// otro proceso lo resolvió mientras consultábamos
		return
	}
	r.log.Info().
		Str("comprobante", v.DocumentID()).
		Str("estado", string(out.Estado)).
		Msg("comprobante conciliado")

	if out.Estado == cpe.EstadoRechazado {
		notificarRechazo(ctx, r.log, r.notifiers, v, emisor, out.Mensaje)
	}
}

// consultar elige la operación del WS según el estado del comprobante.
func (r *Reconciler) consultar(ctx context.Context, v *entity.Venta, endpoint string, creds infrasunat.Credentials) (cpe.Outcome, error) {
	ticket := v.Ticket
	if ticket == "" {
		ticket = cpe.TicketDeNota(v.Nota)
	}
	if ticket != "" {
		return r.transmitter.GetStatus(ctx, endpoint, creds, ticket)
	}
	if v.EstadoSUNAT == cpe.EstadoErrorConexion && len(v.XMLFirmado) > 0 {
		// el XML ya firmado se retransmite tal cual; firmar de nuevo
		// cambiaría el digest de un documento que quizá SUNAT ya recibió
		xmlName, zipName := v.NombreArchivo()
		zipBytes, err := infrasunat.CompressXMLToZip(v.XMLFirmado, xmlName)
		if err != nil {
			return cpe.Outcome{}, err
		}
		return r.transmitter.SendBill(ctx, endpoint, creds, zipName, zipBytes)
	}
	return r.transmitter.GetStatusCDR(ctx, endpoint, creds, v.EmisorRUC, v.TipoDocumento, v.Serie, v.Correlativo)
}

func (r *Reconciler) endpoint(emisor *entity.Emisor) string {
	if emisor.FeURL != "" {
		return emisor.FeURL
	}
	return r.sunatCfg.DefaultEndpoint()
}

package billing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/internal/domain/entity"
	"github.com/maparedes/Facturacion-api/internal/domain/repository"
	"github.com/maparedes/Facturacion-api/internal/infrastructure/resilience"
	infrasunat "github.com/maparedes/Facturacion-api/internal/infrastructure/sunat"
	"github.com/maparedes/Facturacion-api/internal/infrastructure/sunat/signer"
	"github.com/maparedes/Facturacion-api/pkg/config"
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// EmisionService orquesta la emisión de un comprobante. Los errores
// estructurales y de certificado abortan ANTES de cualquier llamada de red; el
// comprobante firmado se persiste antes de enviar para que un corte de
// conexión nunca pierda el XML ya firmado.
type EmisionService struct {
	ventaRepo   repository.VentaRepository
	emisorRepo  repository.EmisorRepository
	builder     *infrasunat.XMLBuilderService
	firmador    sunat.Signer
	transmitter infrasunat.Transmitter
	cb          *resilience.CircuitBreaker
	notifiers   []Notifier
	cfg         config.SUNATConfig
	log         zerolog.Logger
}

// NewEmisionService construye el orquestador con todas sus dependencias.
func NewEmisionService(
	ventaRepo repository.VentaRepository,
	emisorRepo repository.EmisorRepository,
	builder *infrasunat.XMLBuilderService,
	firmador sunat.Signer,
	transmitter infrasunat.Transmitter,
	cb *resilience.CircuitBreaker,
	notifiers []Notifier,
	cfg config.SUNATConfig,
	log zerolog.Logger,
) *EmisionService {
	return &EmisionService{
		ventaRepo:   ventaRepo,
		emisorRepo:  emisorRepo,
		builder:     builder,
		firmador:    firmador,
		transmitter: transmitter,
		cb:          cb,
		notifiers:   notifiers,
		cfg:         cfg,
		log:         log,
	}
}

// Emitir ejecuta el ciclo completo para un documento ya normalizado:
// validar → construir XML → firmar → empaquetar → persistir → enviar →
// actualizar estado. Devuelve la venta con su estado final frente a SUNAT.
func (s *EmisionService) Emitir(ctx context.Context, emisorRUC string, doc *cpe.InvoiceDocument, cliente *cpe.Party) (*entity.Venta, error) {
	if doc.Leyenda == "" {
		doc.Leyenda = sunat.MontoEnLetras(doc.TotalVenta, doc.Moneda)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := cliente.Validate(); err != nil {
		return nil, err
	}

	emisor, err := s.emisorRepo.GetByRUC(ctx, emisorRUC)
	if err != nil {
		return nil, fmt.Errorf("resolver emisor %s: %w", emisorRUC, err)
	}

	// ── Construcción y firma: cualquier error aquí aborta sin tocar la red ──
	xmlBytes, err := s.builder.Build(&infrasunat.BuildContext{
		Doc:     doc,
		Emisor:  partyDeEmisor(emisor),
		Cliente: cliente,
	})
	if err != nil {
		return nil, err
	}

	cert, err := signer.Load(emisor.Certificado, emisor.CertPassword)
	if err != nil {
		return nil, err
	}
	firmado, err := s.firmador.Sign(xmlBytes, cert)
	if err != nil {
		return nil, err
	}

	xmlName, zipName := sunat.Filenames(emisor.RUC, doc.TipoDocumento, doc.Serie, doc.Correlativo)
	zipBytes, err := infrasunat.CompressXMLToZip(firmado, xmlName)
	if err != nil {
		return nil, err
	}

	// ── Persistir antes de enviar: el XML firmado no se pierde nunca ──
	venta := &entity.Venta{
		EmisorRUC:     emisor.RUC,
		TipoDocumento: doc.TipoDocumento,
		Serie:         doc.Serie,
		Correlativo:   doc.Correlativo,
		FechaEmision:  doc.Emision,
		Moneda:        doc.Moneda,
		TotalGravado:  doc.TotalGravado,
		TotalIGV:      doc.TotalIGV,
		TotalVenta:    doc.TotalVenta,
		EstadoSUNAT:   cpe.EstadoPendiente,
		XMLFirmado:    firmado,
	}
	if err := s.ventaRepo.Create(ctx, venta); err != nil {
		return nil, err
	}

	// ── Envío y clasificación ──
	out := s.enviar(ctx, emisor, zipName, zipBytes)
	s.aplicarResultado(ctx, venta, emisor, out)
	return venta, nil
}

// enviar ejecuta el sendBill a través del circuit breaker y reduce todo fallo
// de transporte (incluido el circuito abierto) a ERROR_CONEXION.
func (s *EmisionService) enviar(ctx context.Context, emisor *entity.Emisor, zipName string, zipBytes []byte) cpe.Outcome {
	endpoint := s.endpoint(emisor)
	creds := credenciales(emisor)

	var out cpe.Outcome
	err := s.cb.Execute(func() error {
		var errSend error
		out, errSend = s.transmitter.SendBill(ctx, endpoint, creds, zipName, zipBytes)
		return errSend
	})
	if err != nil {
		return outcomeDeError(err)
	}
	return out
}

// aplicarResultado persiste el resultado respetando los estados terminales y
// dispara las alertas de rechazo.
func (s *EmisionService) aplicarResultado(ctx context.Context, venta *entity.Venta, emisor *entity.Emisor, out cpe.Outcome) {
	actualizado, err := s.ventaRepo.UpdateEstado(ctx, venta.ID, out)
	if err != nil {
		s.log.Error().Err(err).Str("comprobante", venta.DocumentID()).Msg("no se pudo persistir el estado SUNAT")
		return
	}
	if !actualizado {
		s.log.Warn().Str("comprobante", venta.DocumentID()).Msg("estado terminal, resultado descartado")
		return
	}
	venta.EstadoSUNAT = out.Estado
	venta.Nota = out.Nota()
	venta.Ticket = out.Ticket
	if out.CDR != nil {
		venta.CDR = out.CDR
	}

	evento := s.log.Info()
	if out.Estado == cpe.EstadoRechazado || out.Estado == cpe.EstadoErrorConexion {
		evento = s.log.Warn()
	}
	evento.
		Str("comprobante", venta.DocumentID()).
		Str("estado", string(out.Estado)).
		Str("detalle", out.Mensaje).
		Msg("resultado de transmisión SUNAT")

	if out.Estado == cpe.EstadoRechazado {
		notificarRechazo(ctx, s.log, s.notifiers, venta, emisor, out.Mensaje)
	}
}

func (s *EmisionService) endpoint(emisor *entity.Emisor) string {
	if emisor.FeURL != "" {
		return emisor.FeURL
	}
	return s.cfg.DefaultEndpoint()
}

func credenciales(emisor *entity.Emisor) infrasunat.Credentials {
	return infrasunat.Credentials{
		RUC:     emisor.RUC,
		Usuario: emisor.UsuarioSOL,
		Clave:   emisor.ClaveSOL,
	}
}

func partyDeEmisor(e *entity.Emisor) *cpe.Party {
	return &cpe.Party{
		TipoDocIdentidad: sunat.IDSchemeRUC,
		Numero:           e.RUC,
		RazonSocial:      sunat.NormalizeText(e.RazonSocial),
		Direccion:        sunat.NormalizeText(e.Direccion),
		CodigoLocal:      e.CodigoLocal,
	}
}

// outcomeDeError reduce un error de envío a su estado persistible. Todo error
// que llega aquí es de transporte o del circuito: reintentable.
func outcomeDeError(err error) cpe.Outcome {
	return cpe.Outcome{Estado: cpe.EstadoErrorConexion, Mensaje: err.Error()}
}

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/maparedes/Facturacion-api/internal/application/billing"
	"github.com/maparedes/Facturacion-api/internal/infrastructure/notify"
	"github.com/maparedes/Facturacion-api/internal/infrastructure/postgres"
	"github.com/maparedes/Facturacion-api/internal/infrastructure/resilience"
	infrasunat "github.com/maparedes/Facturacion-api/internal/infrastructure/sunat"
	"github.com/maparedes/Facturacion-api/internal/infrastructure/sunat/signer"
	httpRouter "github.com/maparedes/Facturacion-api/internal/interfaces/http"
	"github.com/maparedes/Facturacion-api/pkg/config"
	"github.com/maparedes/Facturacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("sunat_env", cfg.SUNAT.Env).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	ventaRepo := postgres.NewVentaRepository(pool)
	emisorRepo := postgres.NewEmisorRepository(pool)

	// Pipeline SUNAT: construcción UBL → firma → ZIP → SOAP
	xmlBuilder := infrasunat.NewXMLBuilderService()
	firmador := signer.NewDigitalSignatureService()
	transmitter := infrasunat.NewSOAPClient(cfg.SUNAT.HTTPTimeout)
	cb := resilience.New(resilience.Config{})

	// Canales de alerta de rechazo; cada uno se deshabilita si no hay config
	var notifiers []billing.Notifier
	if mailer := notify.NewMailer(cfg.Alertas); mailer != nil {
		notifiers = append(notifiers, mailer)
	}
	if wa := notify.NewWhatsAppClient(cfg.Alertas.WhatsAppURL); wa != nil {
		notifiers = append(notifiers, wa)
	}

	emisionSvc := billing.NewEmisionService(
		ventaRepo, emisorRepo, xmlBuilder, firmador, transmitter,
		cb, notifiers, cfg.SUNAT, log.Component("emision"),
	)

	// Barrido de conciliación: reintenta ERROR_CONEXION y reconsulta
	// PENDIENTE antiguos; se detiene con el contexto de apagado.
	reconciler := billing.NewReconciler(
		ventaRepo, emisorRepo, transmitter, cb, notifiers,
		cfg.SUNAT, cfg.Sweep, log.Component("barrido"),
	)
	reconciler.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Emision:    emisionSvc,
		Reconciler: reconciler,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	stop()

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/maparedes/Facturacion-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Emision    *billing.EmisionService
	Reconciler *billing.Reconciler
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Comprobantes (protegido)
	comprobantes := protected.Group("/comprobantes")
	handler := NewComprobanteHandler(deps.Emision)
	comprobantes.Post("/", handler.Emitir)
	comprobantes.Get("/:serie/:numero/estado", handler.Estado)

	// Administración (protegido, solo admin): dispara un barrido de
	// conciliación fuera del intervalo programado.
	admin := protected.Group("/admin", RequireRole("admin"))
	admin.Post("/barrido", func(c *fiber.Ctx) error {
		// el contexto de fiber se recicla al responder; el barrido corre aparte
		go deps.Reconciler.Sweep(context.Background())
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "barrido iniciado"})
	})
}

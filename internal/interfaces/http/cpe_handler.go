package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/maparedes/Facturacion-api/internal/application/billing"
	"github.com/maparedes/Facturacion-api/internal/application/dto"
	"github.com/maparedes/Facturacion-api/internal/domain"
	"github.com/maparedes/Facturacion-api/internal/domain/cpe"
	"github.com/maparedes/Facturacion-api/pkg/sunat"
)

// ComprobanteHandler maneja las peticiones HTTP de emisión y consulta de
// comprobantes (protegido).
type ComprobanteHandler struct {
	svc *billing.EmisionService
}

// NewComprobanteHandler construye el handler.
func NewComprobanteHandler(svc *billing.EmisionService) *ComprobanteHandler {
	return &ComprobanteHandler{svc: svc}
}

// Emitir construye, firma y transmite un comprobante a SUNAT.
// POST /api/comprobantes
func (h *ComprobanteHandler) Emitir(c *fiber.Ctx) error {
	emisorRUC := GetEmisorRUC(c)
	if emisorRUC == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.EmitirComprobanteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := in.Validate(); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "campo inválido: " + verrs[0].Field()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	doc, cliente, err := in.Map()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	venta, err := h.svc.Emitir(c.Context(), emisorRUC, doc, cliente)
	if err != nil {
		return emitirError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DeVenta(venta))
}

// Estado consulta el estado actual de un comprobante; si aún no es terminal
// reconsulta el WS de SUNAT en línea. El tipo de comprobante va por query
// (?tipo=01|03|07), boleta por defecto.
// GET /api/comprobantes/:serie/:numero/estado
func (h *ComprobanteHandler) Estado(c *fiber.Ctx) error {
	emisorRUC := GetEmisorRUC(c)
	if emisorRUC == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	serie := c.Params("serie")
	numero, err := c.ParamsInt("numero")
	if err != nil || numero <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "número de comprobante inválido"})
	}
	tipo := c.Query("tipo", sunat.DocTypeBoleta)
	if !sunat.ValidDocumentTypeCodes[tipo] {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo de comprobante desconocido"})
	}

	venta, err := h.svc.ConsultarEstado(c.Context(), emisorRUC, tipo, serie, int64(numero))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "comprobante no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.EstadoDeVenta(venta))
}

// emitirError traduce los errores del pipeline a respuestas HTTP. Los mensajes
// estructurales y de certificado van crudos: el operador del POS los necesita
// para corregir.
func emitirError(c *fiber.Ctx, err error) error {
	var verr *cpe.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: verr.Error()})
	}
	var serr *cpe.StructuralError
	if errors.As(err, &serr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "ESTRUCTURA", Message: serr.Error()})
	}
	var cerr *cpe.CertificateError
	if errors.As(err, &cerr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERTIFICADO", Message: cerr.Error()})
	}
	var kerr *cpe.KeyLoadError
	if errors.As(err, &kerr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "CERTIFICADO", Message: kerr.Error()})
	}
	if errors.Is(err, domain.ErrDuplicate) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICADO", Message: "el comprobante ya fue emitido"})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "emisor no encontrado"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

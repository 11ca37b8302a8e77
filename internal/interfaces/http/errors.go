package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

// errorMapping código HTTP y código de error por error de dominio.
var errorMapping = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrDuplicateLot, fiber.StatusConflict, "DUPLICATE_LOT", "ya existe un lote con esa clave natural y otros campos inmutables"},
	{domain.ErrImmutableFieldViolation, fiber.StatusConflict, "IMMUTABLE_FIELD", "costo, cantidad y precios del lote no se pueden modificar"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY", "cantidad inválida"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrDeltaConflict, fiber.StatusConflict, "DELTA_CONFLICT", "delta_id reutilizado con otro contenido"},
	{domain.ErrOversold, fiber.StatusConflict, "OVERSOLD", "lote sobrevendido"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
}

// writeError traduce un error de dominio a la respuesta HTTP.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: m.message})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

package domain

import "errors"

// Errores de dominio del libro de lotes (sin dependencias externas).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrDuplicateLot            = errors.New("lote duplicado con campos inmutables distintos")
	ErrImmutableFieldViolation = errors.New("intento de modificar un campo inmutable del lote")
	ErrInvalidQuantity         = errors.New("cantidad inválida")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrOversold                = errors.New("lote sobrevendido")
	ErrUnresolvedCostBasis     = errors.New("base de costo no resuelta")
	ErrDeltaConflict           = errors.New("delta_id reutilizado con otro contenido")
)

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/ledger"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

// SaleHandler ventas, devoluciones y costo por asignación.
type SaleHandler struct {
	sales *ledger.AllocationUseCase
	costs *ledger.CostUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(sales *ledger.AllocationUseCase, costs *ledger.CostUseCase) *SaleHandler {
	return &SaleHandler{sales: sales, costs: costs}
}

// Resolve godoc
// @Summary      Proponer lotes para una venta (sin registrar)
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResolveSaleRequest  true  "product_id, quantity, lot_id opcional"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/resolve [post]
func (h *SaleHandler) Resolve(c *fiber.Ctx) error {
	var in dto.ResolveSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	portions, err := h.sales.ResolveSale(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"portions": portions})
}

// RecordSale godoc
// @Summary      Registrar línea de venta
// @Description  Idempotente por sale_line_id.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleLineRequest  true  "Línea de venta"
// @Success      201   {object}  dto.SaleLineResponse
// @Success      200   {object}  dto.SaleLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) RecordSale(c *fiber.Ctx) error {
	var in dto.SaleLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.sales.RecordSale(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	if out.Replayed {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RecordReturn godoc
// @Summary      Registrar devolución
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnLineRequest  true  "return_line_id, original_allocation_id, quantity"
// @Success      201   {object}  entity.Allocation
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *SaleHandler) RecordReturn(c *fiber.Ctx) error {
	var in dto.ReturnLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	a, replayed, err := h.sales.RecordReturn(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	if replayed {
		return c.JSON(a)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

// GetAllocation godoc
// @Summary      Obtener asignación
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la asignación"
// @Success      200  {object}  entity.Allocation
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/allocations/{id} [get]
func (h *SaleHandler) GetAllocation(c *fiber.Ctx) error {
	a, err := h.sales.GetAllocation(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(a)
}

// LineCost godoc
// @Summary      Costo y margen de una asignación
// @Description  Si la base de costo no se resuelve responde 200 con estimated=true.
// @Tags         cost
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la asignación"
// @Success      200  {object}  entity.LineCost
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/allocations/{id}/cost [get]
func (h *SaleHandler) LineCost(c *fiber.Ctx) error {
	lc, err := h.costs.LineCost(c.Context(), c.Params("id"))
	if err != nil && !errors.Is(err, domain.ErrUnresolvedCostBasis) {
		return writeError(c, err)
	}
	return c.JSON(lc)
}

// SaleLineCost godoc
// @Summary      Costo agregado de una línea de venta
// @Tags         cost
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea de venta"
// @Success      200  {object}  dto.SaleLineCostResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sale-lines/{id}/cost [get]
func (h *SaleHandler) SaleLineCost(c *fiber.Ctx) error {
	out, err := h.costs.SaleLineCost(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

package ledger

import "github.com/google/uuid"

// deltaNamespace espacio de nombres UUID v5 para los IDs de delta del libro de lotes.
var deltaNamespace = uuid.MustParse("6f1c3b0e-8a57-4c61-9d55-3f2a7c0d9b41")

// SaleEventKey clave del evento lógico de una línea de venta.
func SaleEventKey(saleLineID string) string {
	return "SALE:" + saleLineID
}

// ReturnEventKey clave del evento lógico de una línea de devolución.
func ReturnEventKey(returnLineID string) string {
	return "RETURN:" + returnLineID
}

// DeltaID calcula el ID direccionado por contenido (UUID v5) de un delta a partir del evento
// lógico y el lote. La cantidad no entra en el ID: el mismo evento con otra cantidad produce
// el mismo ID y se rechaza como conflicto.
func DeltaID(eventKey, lotID string) string {
	return uuid.NewSHA1(deltaNamespace, []byte(eventKey+"|"+lotID)).String()
}

// AllocationID ID determinista de la asignación de un evento sobre un lote.
func AllocationID(eventKey, lotID string) string {
	return uuid.NewSHA1(deltaNamespace, []byte("ALLOC|"+eventKey+"|"+lotID)).String()
}

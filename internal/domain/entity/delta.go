package entity

import "time"

// Delta es la unidad atómica de mutación del consumo de un lote.
// ID es direccionado por contenido: el mismo evento lógico produce siempre el mismo ID.
type Delta struct {
	ID               string    `json:"delta_id"`
	LotID            string    `json:"lot_id"`
	SignedQuantity   int64     `json:"signed_quantity"`
	OriginWriterID   string    `json:"origin_writer_id"`
	LogicalTimestamp uint64    `json:"logical_timestamp"`
	CreatedAt        time.Time `json:"created_at"`
}

// SamePayload indica si dos deltas con el mismo ID describen la misma mutación.
func (d Delta) SamePayload(o Delta) bool {
	return d.LotID == o.LotID && d.SignedQuantity == o.SignedQuantity
}

package ledger

import "github.com/jhoicas/Inventario-lotes/internal/domain/entity"

// VersionVector máximo timestamp lógico visto por escritor de origen.
type VersionVector map[string]uint64

// Observe avanza el vector con un delta.
func (v VersionVector) Observe(d entity.Delta) {
	v.Advance(d.OriginWriterID, d.LogicalTimestamp)
}

// Advance avanza el vector con un sello (escritor, timestamp) cualquiera.
func (v VersionVector) Advance(writerID string, ts uint64) {
	if ts > v[writerID] {
		v[writerID] = ts
	}
}

// Covers indica si el vector ya incluye el delta.
func (v VersionVector) Covers(d entity.Delta) bool {
	return v.CoversStamp(d.OriginWriterID, d.LogicalTimestamp)
}

// CoversStamp indica si el vector ya incluye el sello (escritor, timestamp).
func (v VersionVector) CoversStamp(writerID string, ts uint64) bool {
	return ts <= v[writerID]
}

// Join combina otro vector tomando el máximo por escritor.
func (v VersionVector) Join(o VersionVector) {
	for w, ts := range o {
		if ts > v[w] {
			v[w] = ts
		}
	}
}

// Clone copia el vector.
func (v VersionVector) Clone() VersionVector {
	out := make(VersionVector, len(v))
	for w, ts := range v {
		out[w] = ts
	}
	return out
}

package ledger

import "sync"

// LamportClock reloj lógico por escritor. Tick ordena los deltas locales en orden de creación;
// Observe lo adelanta al fusionar deltas remotos.
type LamportClock struct {
	mu      sync.Mutex
	counter uint64
}

// NewLamportClock inicia el reloj en start (normalmente el máximo timestamp local persistido).
func NewLamportClock(start uint64) *LamportClock {
	return &LamportClock{counter: start}
}

// Tick avanza el reloj y devuelve el nuevo timestamp.
func (c *LamportClock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter++
	return c.counter
}

// Observe adelanta el reloj si ts es mayor.
func (c *LamportClock) Observe(ts uint64) {
	c.mu.Lock()
	if ts > c.counter {
		c.counter = ts
	}
	c.mu.Unlock()
}

// Now devuelve el valor actual sin avanzar.
func (c *LamportClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

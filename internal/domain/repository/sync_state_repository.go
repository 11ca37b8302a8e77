package repository

import (
	"context"
	"time"
)

// SyncStateRepository guarda el estado de conciliación: vector de versiones por par remoto
// y la marca "última conciliación".
type SyncStateRepository interface {
	GetPeerVector(ctx context.Context, peer string) (map[string]uint64, error)
	SavePeerVector(ctx context.Context, peer string, vector map[string]uint64) error
	GetLastReconciledAt(ctx context.Context) (*time.Time, error)
	SetLastReconciledAt(ctx context.Context, at time.Time) error
}

package keys

import (
	"context"
	"fmt"

	"keyadmin/internal/platform/models"
)

type ProvisionBackend interface {
	CreateKey(ctx context.Context, regionID int, name string, capability models.KeyCapability) (*models.PrivateAIKey, error)
}

// Provisioner creates new keys. Each capability dispatches to its own
// backend endpoint; on success the aggregator's cached lists are dropped so
// the new key shows up on the next read. Nothing local changes on failure.
type Provisioner struct {
	backend    ProvisionBackend
	aggregator *Aggregator
}

func NewProvisioner(backend ProvisionBackend, aggregator *Aggregator) *Provisioner {
	return &Provisioner{backend: backend, aggregator: aggregator}
}

func (p *Provisioner) Create(ctx context.Context, regionID int, name string, capability models.KeyCapability) (*models.PrivateAIKey, error) {
	if !capability.Valid() {
		return nil, fmt.Errorf("unknown key capability %q", capability)
	}
	if name == "" {
		return nil, fmt.Errorf("key name is required")
	}
	if regionID == 0 {
		return nil, fmt.Errorf("region is required")
	}

	key, err := p.backend.CreateKey(ctx, regionID, name, capability)
	if err != nil {
		return nil, err
	}

	p.aggregator.Invalidate()
	return key, nil
}

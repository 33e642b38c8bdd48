package keys

import (
	"context"
	"errors"
	"testing"

	"keyadmin/internal/platform/models"
)

type fakeProvisionBackend struct {
	capabilities []models.KeyCapability
	err          error
}

func (f *fakeProvisionBackend) CreateKey(ctx context.Context, regionID int, name string, capability models.KeyCapability) (*models.PrivateAIKey, error) {
	f.capabilities = append(f.capabilities, capability)
	if f.err != nil {
		return nil, f.err
	}
	return &models.PrivateAIKey{ID: 100, Name: name, Region: "eu-west"}, nil
}

func TestProvisioner_DispatchesCapability(t *testing.T) {
	listBackend := newFakeBackend()
	listBackend.keys = []models.PrivateAIKey{{ID: 1, Name: "old", OwnerID: intp(4)}}
	agg := NewAggregator(listBackend)

	backend := &fakeProvisionBackend{}
	p := NewProvisioner(backend, agg)

	for _, capability := range []models.KeyCapability{models.CapabilityFull, models.CapabilityLLM, models.CapabilityVector} {
		key, err := p.Create(context.Background(), 7, "my-key", capability)
		if err != nil {
			t.Fatalf("create %s: %v", capability, err)
		}
		if key.ID == 0 {
			t.Errorf("create %s returned no key", capability)
		}
	}
	if len(backend.capabilities) != 3 ||
		backend.capabilities[0] != models.CapabilityFull ||
		backend.capabilities[1] != models.CapabilityLLM ||
		backend.capabilities[2] != models.CapabilityVector {
		t.Errorf("capabilities passed through wrong: %v", backend.capabilities)
	}
}

func TestProvisioner_RejectsInvalidInput(t *testing.T) {
	backend := &fakeProvisionBackend{}
	p := NewProvisioner(backend, NewAggregator(newFakeBackend()))

	cases := []struct {
		name       string
		regionID   int
		keyName    string
		capability models.KeyCapability
	}{
		{"unknown capability", 7, "my-key", "root"},
		{"empty name", 7, "", models.CapabilityLLM},
		{"missing region", 0, "my-key", models.CapabilityLLM},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := p.Create(context.Background(), tc.regionID, tc.keyName, tc.capability); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if len(backend.capabilities) != 0 {
		t.Error("invalid input must not reach the backend")
	}
}

func TestProvisioner_SuccessInvalidatesList(t *testing.T) {
	listBackend := newFakeBackend()
	listBackend.keys = []models.PrivateAIKey{{ID: 1, Name: "old", OwnerID: intp(4)}}
	agg := NewAggregator(listBackend)
	p := NewProvisioner(&fakeProvisionBackend{}, agg)

	scope := Scope{UserID: 4}
	if _, err := agg.ListKeys(context.Background(), scope); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Create(context.Background(), 7, "my-key", models.CapabilityVector); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := agg.ListKeys(context.Background(), scope); err != nil {
		t.Fatal(err)
	}
	if listBackend.listCalls != 2 {
		t.Error("provisioning must invalidate the cached key list")
	}
}

func TestProvisioner_FailureLeavesStateUntouched(t *testing.T) {
	listBackend := newFakeBackend()
	listBackend.keys = []models.PrivateAIKey{{ID: 1, Name: "old", OwnerID: intp(4)}}
	agg := NewAggregator(listBackend)
	p := NewProvisioner(&fakeProvisionBackend{err: errors.New("name already taken")}, agg)

	scope := Scope{UserID: 4}
	if _, err := agg.ListKeys(context.Background(), scope); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Create(context.Background(), 7, "my-key", models.CapabilityFull); err == nil {
		t.Fatal("expected create error")
	}

	if _, err := agg.ListKeys(context.Background(), scope); err != nil {
		t.Fatal(err)
	}
	if listBackend.listCalls != 1 {
		t.Error("failed provisioning must not drop the cached list")
	}
}

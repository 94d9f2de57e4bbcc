package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func TestProvideVehiclesRequiresResolvedTrip(t *testing.T) {
	p := NewProvider(nil)
	st := &flow.State{}
	err := p.ProvideVehicles(context.Background(), st)
	assert.Error(t, err)
}

func TestProvideDriversRequiresResolvedTrip(t *testing.T) {
	p := NewProvider(nil)
	st := &flow.State{}
	err := p.ProvideDrivers(context.Background(), st)
	assert.Error(t, err)
}

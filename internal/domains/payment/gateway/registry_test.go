package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/payment/gateway"
	"storefront-backend/internal/domains/payment/gateway/mock"
	"storefront-backend/internal/domains/payment/model"
)

func TestRegistryBindsConfiguredProviders(t *testing.T) {
	card := mock.NewProvider("card", model.FlowSinglePhase)
	wallet := mock.NewProvider("wallet", model.FlowTwoPhase)

	r, err := gateway.NewRegistry("card", "wallet", card, wallet)
	require.NoError(t, err)

	got, err := r.ForFlow(model.FlowSinglePhase)
	require.NoError(t, err)
	assert.Equal(t, "card", got.Name())

	got, err = r.ForFlow(model.FlowTwoPhase)
	require.NoError(t, err)
	assert.Equal(t, "wallet", got.Name())
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	_, err := gateway.NewRegistry("stripe", "", mock.NewProvider("card", model.FlowSinglePhase))
	assert.ErrorIs(t, err, model.ErrUnsupportedProvider)
}

func TestRegistryRejectsFlowMismatch(t *testing.T) {
	_, err := gateway.NewRegistry("", "card", mock.NewProvider("card", model.FlowSinglePhase))
	assert.ErrorIs(t, err, model.ErrProviderFlowMismatch)
}

func TestRegistryUnconfiguredFlow(t *testing.T) {
	r, err := gateway.NewRegistry("card", "", mock.NewProvider("card", model.FlowSinglePhase))
	require.NoError(t, err)

	_, err = r.ForFlow(model.FlowTwoPhase)
	assert.ErrorIs(t, err, model.ErrUnsupportedProvider)
}

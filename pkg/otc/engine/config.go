package engine

import (
	"github.com/code-payments/otc-server/pkg/config"
	"github.com/code-payments/otc-server/pkg/config/env"
	"github.com/code-payments/otc-server/pkg/config/memory"
	"github.com/code-payments/otc-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "OTC_SETTLEMENT_ENGINE_"

	ListingLockCountConfigEnvName = envConfigPrefix + "LISTING_LOCK_COUNT"
	defaultListingLockCount       = 1024

	MaxProofPayloadSizeConfigEnvName = envConfigPrefix + "MAX_PROOF_PAYLOAD_SIZE"
	defaultMaxProofPayloadSize       = 16 * 1024
)

type conf struct {
	listingLockCount    config.Uint64
	maxProofPayloadSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			listingLockCount:    env.NewUint64Config(ListingLockCountConfigEnvName, defaultListingLockCount),
			maxProofPayloadSize: env.NewUint64Config(MaxProofPayloadSizeConfigEnvName, defaultMaxProofPayloadSize),
		}
	}
}

type testOverrides struct {
	maxProofPayloadSize uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		maxProofPayloadSize := uint64(defaultMaxProofPayloadSize)
		if overrides.maxProofPayloadSize > 0 {
			maxProofPayloadSize = overrides.maxProofPayloadSize
		}

		return &conf{
			listingLockCount:    wrapper.NewUint64Config(memory.NewConfig(defaultListingLockCount), defaultListingLockCount),
			maxProofPayloadSize: wrapper.NewUint64Config(memory.NewConfig(maxProofPayloadSize), maxProofPayloadSize),
		}
	}
}

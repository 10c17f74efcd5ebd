package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
)

var testShipping = config.ShippingConfig{
	MainlandFeeYen:   500,
	IslandFeeYen:     1200,
	FreeThresholdYen: 15000,
}

func TestIsIslandAddress(t *testing.T) {
	cases := []struct {
		name     string
		region   string
		locality string
		want     bool
	}{
		{"okinawa prefecture", "沖縄県", "那覇市", true},
		{"tokyo mainland", "東京都", "渋谷区", false},
		{"tokyo island municipality", "東京都", "八丈町", true},
		{"island locality prefix", "東京都", "八丈町樫立", true},
		{"sado", "新潟県", "佐渡市", true},
		{"amami", "鹿児島県", "奄美市", true},
		{"kagoshima mainland", "鹿児島県", "鹿児島市", false},
		{"padded region", " 沖縄県 ", "那覇市", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isIslandAddress(tc.region, tc.locality))
		})
	}
}

func TestShippingFee(t *testing.T) {
	cases := []struct {
		name     string
		subtotal int
		region   string
		locality string
		want     int
	}{
		{"mainland tier", 12300, "東京都", "渋谷区", 500},
		{"island tier", 12300, "沖縄県", "那覇市", 1200},
		{"free at threshold", 15000, "東京都", "渋谷区", 0},
		{"free above threshold", 20000, "沖縄県", "那覇市", 0},
		{"just below threshold", 14999, "東京都", "渋谷区", 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shippingFee(testShipping, tc.subtotal, tc.region, tc.locality))
		})
	}
}

func TestShippingFee_thresholdDisabled(t *testing.T) {
	cfg := config.ShippingConfig{MainlandFeeYen: 500, IslandFeeYen: 1200}
	assert.Equal(t, 500, shippingFee(cfg, 100000, "東京都", "渋谷区"))
}

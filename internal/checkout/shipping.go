package checkout

import (
	"strings"

	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
)

// islandRegions are prefectures where every address ships at the island tier.
var islandRegions = []string{
	"沖縄県",
}

// islandLocalities is the static gazetteer of municipalities on remote
// islands inside otherwise-mainland prefectures. Entries match either the
// exact locality or a prefix of it, so "八丈町樫立" still classifies.
var islandLocalities = []string{
	"大島町",
	"利島村",
	"新島村",
	"神津島村",
	"三宅村",
	"御蔵島村",
	"八丈町",
	"青ヶ島村",
	"小笠原村",
	"佐渡市",
	"隠岐の島町",
	"海士町",
	"西ノ島町",
	"知夫村",
	"奄美市",
	"壱岐市",
	"対馬市",
	"五島市",
	"礼文町",
	"利尻町",
	"利尻富士町",
}

// isIslandAddress classifies the delivery address against the gazetteer.
func isIslandAddress(region, locality string) bool {
	region = strings.TrimSpace(region)
	for _, candidate := range islandRegions {
		if region == candidate {
			return true
		}
	}

	locality = strings.TrimSpace(locality)
	for _, candidate := range islandLocalities {
		if locality == candidate || strings.HasPrefix(locality, candidate) {
			return true
		}
	}
	return false
}

// shippingFee selects the fee tier for the address and zeroes it when the
// subtotal clears the free-shipping threshold.
func shippingFee(cfg config.ShippingConfig, subtotalYen int, region, locality string) int {
	if cfg.FreeThresholdYen > 0 && subtotalYen >= cfg.FreeThresholdYen {
		return 0
	}
	if isIslandAddress(region, locality) {
		return cfg.IslandFeeYen
	}
	return cfg.MainlandFeeYen
}

package progression

import "github.com/cory-johannsen/idlerpg/internal/game/balance"

// zonesPerTier is the number of zones that share a prestige requirement.
const zonesPerTier = 2

// ranksPerTier is the prestige rank step between tiers.
const ranksPerTier = 5

// PrestigeRequiredForZone returns the minimum prestige rank that unlocks zone.
// Zones 1-2 need 0, 3-4 need 5, 5-6 need 10, 7-8 need 15, 9-10 need 20.
func PrestigeRequiredForZone(zone uint32) uint32 {
	if zone <= 1 {
		return 0
	}
	return ((zone - 1) / zonesPerTier) * ranksPerTier
}

// MaxZoneForPrestige returns the highest zone accessible at rank.
//
// Postcondition: CanAccessZone(rank, result) is true, and result == balance.MaxZone
// or CanAccessZone(rank, result+1) is false.
func MaxZoneForPrestige(rank uint32) uint32 {
	return min(balance.MaxZone, (rank/ranksPerTier+1)*zonesPerTier)
}

// CanAccessZone reports whether rank is high enough to enter zone.
func CanAccessZone(rank, zone uint32) bool {
	return zone >= 1 && zone <= balance.MaxZone && rank >= PrestigeRequiredForZone(zone)
}

// Package seed derives reproducible per-panel diffusion seeds.
//
// The panel hash is pinned to FNV-1a (64-bit) over the UTF-8 bytes of the
// panel ID. This is part of the on-disk format contract: runtime string
// hashes are salted per process and must never leak in here, or recorded
// seeds stop being reproducible across restarts.
package seed

import "hash/fnv"

const (
	hashMod = 1_000_000
	// SeedMod is the exclusive upper bound for derived seeds (max int32).
	SeedMod = 2_147_483_647
)

// Derive computes the deterministic seed for a panel. Pure function: the
// same (globalSeed, panelID) pair yields the same seed in every process.
func Derive(globalSeed int64, panelID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(panelID))
	panelHash := int64(h.Sum64() % hashMod)

	s := (globalSeed%SeedMod + panelHash) % SeedMod
	if s < 0 {
		s += SeedMod
	}
	return s
}

// PanelHash exposes the intermediate hash term so summaries can record the
// full derivation inputs alongside the result.
func PanelHash(panelID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(panelID))
	return int64(h.Sum64() % hashMod)
}

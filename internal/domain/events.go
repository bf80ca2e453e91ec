package domain

import "time"

// FeeDistribution records one distribution pass. The three share amounts are
// the intended net targets, not the grossed wire amounts.
type FeeDistribution struct {
	StakersAmount  uint64    `json:"stakersAmount"`
	TreasuryAmount uint64    `json:"treasuryAmount"`
	LpAmount       uint64    `json:"lpAmount"`
	Total          uint64    `json:"total"`
	Signature      string    `json:"signature,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// HarvestRun records one pass of the harvest pipeline. Distributed is zero
// when the post-withdraw balance stayed under the dust floor.
type HarvestRun struct {
	Sources     uint32    `json:"sources"`
	VaultBefore uint64    `json:"vaultBefore"`
	Distributed uint64    `json:"distributed"`
	VaultAfter  uint64    `json:"vaultAfter"`
	Timestamp   time.Time `json:"timestamp"`
}

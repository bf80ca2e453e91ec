package domain

import (
	"github.com/gagliardetto/solana-go"
)

// RouterState is the single persistent record of the fee router. It is
// created once at setup time and never mutated afterwards: the authority and
// the address nonce are fixed for the lifetime of the deployment.
type RouterState struct {
	// AddressNonce is the bump produced when the routing vault address was
	// derived from the authority and the mint.
	AddressNonce uint8 `json:"addressNonce"`

	// Authority is the identity allowed to move funds out of the routing
	// vault and to withdraw the mint's withheld fees.
	Authority solana.PublicKey `json:"authority"`
}

// DerivedSigningIdentity returns the identity every outbound ledger call
// must be authorized by.
func (r *RouterState) DerivedSigningIdentity() solana.PublicKey {
	return r.Authority
}

// FeeParameters is the mint's transfer-fee schedule for the current epoch.
// A nil *FeeParameters means the mint carries no transfer-fee extension and
// transfers deduct nothing.
type FeeParameters struct {
	FeeRateBasisPoints uint16
	MaximumFee         uint64
}

// SplitTargets are the intended net shares of one distribution pass. They
// always sum exactly to the input amount.
type SplitTargets struct {
	Stakers       uint64
	Treasury      uint64
	LiquidityPool uint64
}

func (s SplitTargets) Total() uint64 {
	return s.Stakers + s.Treasury + s.LiquidityPool
}

// VaultSnapshot captures the routing vault balance around a harvest run.
type VaultSnapshot struct {
	Before uint64
	After  uint64
}

// TokenAccountInfo is the subset of a token account the harvester validates
// before sweeping it.
type TokenAccountInfo struct {
	Address      solana.PublicKey
	OwnerProgram solana.PublicKey
	Mint         solana.PublicKey
	Amount       uint64
}

// TransferRequest is one outbound transfer from the routing vault.
type TransferRequest struct {
	To     solana.PublicKey
	Amount uint64
}

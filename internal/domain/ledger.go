package domain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// TokenLedger is the token-program capability the router consumes. The
// implementation lives in internal/services/ledger; tests substitute fakes.
type TokenLedger interface {
	// HarvestWithheld moves each source account's withheld fees into the
	// mint's pooled withheld balance.
	HarvestWithheld(ctx context.Context, sources []solana.PublicKey) (solana.Signature, error)

	// WithdrawWithheld moves the mint's pooled withheld balance into the
	// routing vault.
	WithdrawWithheld(ctx context.Context) (solana.Signature, error)

	// TransferFromVault submits the given transfers out of the routing vault
	// in a single atomic transaction. Extra instructions ride in the same
	// transaction and fail or succeed with it.
	TransferFromVault(ctx context.Context, transfers []TransferRequest, decimals uint8, extra ...solana.Instruction) (solana.Signature, error)

	// VaultBalance reads the routing vault's live balance.
	VaultBalance(ctx context.Context) (uint64, error)

	// ReadTokenAccount fetches and decodes an arbitrary token account.
	ReadTokenAccount(ctx context.Context, account solana.PublicKey) (*TokenAccountInfo, error)

	// FeeSchedule reads the mint's transfer-fee parameters for the current
	// epoch. Returns nil when the mint has no transfer-fee extension.
	FeeSchedule(ctx context.Context) (*FeeParameters, error)

	// MintDecimals reads the mint's configured decimal precision.
	MintDecimals(ctx context.Context) (uint8, error)
}

// RewardsSync fans the stakers deposit out to the active reward pools.
type RewardsSync interface {
	// SyncInstruction builds the downstream sync call. An empty poolIDs list
	// tells the rewards program to use its own active pool set.
	SyncInstruction(poolIDs []uint8) solana.Instruction
}

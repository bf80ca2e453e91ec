// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ID     = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	ATAProgramID    = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SystemProgramID = solana.SystemProgramID
)

// Seeds binding the router record to its mint. The router record key is
// derived from SeedNamespace + SeedRouter + mint, so exactly one record can
// exist per configured mint.
const (
	SeedNamespace = "solanadeads"
	SeedRouter    = "fee-router-v1"
)

// Fee split in basis points. Stakers and treasury are computed by
// percentage; the LP share takes the remainder so the three always sum to
// the input amount.
const (
	StakersBps  uint16 = 6500 // 65.00%
	TreasuryBps uint16 = 1750 // 17.50%

	BpsDenominator = 10_000
)

// MinDistribute is the dust floor in base units. Amounts below it are not
// worth three transfers.
const MinDistribute uint64 = 10

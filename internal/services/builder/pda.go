// Package builder derives the deterministic addresses the fee router
// operates on: the routing vault and recipient token accounts, and the
// rewards-program PDAs named in the downstream sync call.
package builder

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/roguepiratex/solanadeads-fee/internal/common"
)

// Rewards-program seeds, fixed by the deployed rewards program.
var (
	rewardsConfigSeed = []byte("rewards-config")
	poolRegistrySeed  = []byte("pool-registry-v2")
	rewardsVaultSeed  = []byte("rewards-vault")
)

type ataKey struct {
	Wallet       solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

var (
	ataCache   = make(map[ataKey]solana.PublicKey)
	ataCacheMu sync.RWMutex
)

// GetATAAddressForMint derives the associated token account of wallet for
// mint under the given token program. Results are cached; derivation never
// changes for a given triple.
func GetATAAddressForMint(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	key := ataKey{Wallet: wallet, Mint: mint, TokenProgram: tokenProgram}

	ataCacheMu.RLock()
	if cached, ok := ataCache[key]; ok {
		ataCacheMu.RUnlock()
		return cached, 0, nil
	}
	ataCacheMu.RUnlock()

	ata, bump, err := solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		common.ATAProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}

	ataCacheMu.Lock()
	ataCache[key] = ata
	ataCacheMu.Unlock()

	return ata, bump, nil
}

// GetRoutingVault derives the router authority's Token-2022 ATA for the
// mint. The returned bump is stored in the router record as the address
// nonce.
func GetRoutingVault(authority, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			authority[:],
			common.Token2022ID[:],
			mint[:],
		},
		common.ATAProgramID,
	)
}

// RouterRecordKey is the deterministic store key of the router record,
// namespaced to the mint so one record exists per configured asset.
func RouterRecordKey(mint solana.PublicKey) string {
	return common.SeedNamespace + ":" + common.SeedRouter + ":" + mint.String()
}

type rewardsPDAs struct {
	Config         solana.PublicKey
	PoolRegistry   solana.PublicKey
	VaultAuthority solana.PublicKey
}

var (
	rewardsPDACache   = make(map[solana.PublicKey]rewardsPDAs)
	rewardsPDACacheMu sync.RWMutex
)

// GetRewardsPDAs derives the rewards-program accounts referenced by the
// sync call: config, pool registry, and the vault authority.
func GetRewardsPDAs(rewardsProgram, mint solana.PublicKey) (config, poolRegistry, vaultAuthority solana.PublicKey, err error) {
	rewardsPDACacheMu.RLock()
	if cached, ok := rewardsPDACache[mint]; ok {
		rewardsPDACacheMu.RUnlock()
		return cached.Config, cached.PoolRegistry, cached.VaultAuthority, nil
	}
	rewardsPDACacheMu.RUnlock()

	config, _, err = solana.FindProgramAddress([][]byte{rewardsConfigSeed, mint[:]}, rewardsProgram)
	if err != nil {
		return
	}
	poolRegistry, _, err = solana.FindProgramAddress([][]byte{poolRegistrySeed, mint[:]}, rewardsProgram)
	if err != nil {
		return
	}
	vaultAuthority, _, err = solana.FindProgramAddress([][]byte{rewardsVaultSeed, mint[:]}, rewardsProgram)
	if err != nil {
		return
	}

	rewardsPDACacheMu.Lock()
	rewardsPDACache[mint] = rewardsPDAs{Config: config, PoolRegistry: poolRegistry, VaultAuthority: vaultAuthority}
	rewardsPDACacheMu.Unlock()
	return
}

package config

import (
	"fmt"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"
)

// Mainnet defaults. Every identity can be overridden through the
// environment, but once loaded the config is immutable for the life of the
// process.
const (
	defaultMint           = "DEADsWJZaonaiZPFkrqEEBGf43mzA5uHeHpwgy9dW666"
	defaultTreasuryOwner  = "26xcb2Ygdj47BSsXTgQf4QHQw38jxMaKbENHyzwkaQA8"
	defaultLPOwner        = "4zrLoUzDrTSohZ4ay6uuQM5fAPbyPSMi31hTRCaaQx7y"
	defaultStakersVault   = "2SHAd8fzBFYnDvK8DBHYQkcjiVtxh2L7ondTQ1ECztFv"
	defaultRewardsProgram = "DEADZS7SrZMW5aGgXzgUis59iaQfjgdmnXMQuJJo7uAu"
)

// RouterConfig binds the router to one fee-bearing mint and its three
// downstream recipients.
type RouterConfig struct {
	// Mint is the Token-2022 fee-bearing mint this deployment serves.
	Mint solana.PublicKey

	// TreasuryOwner and LPOwner are wallet owners; their token accounts are
	// derived as ATAs of the mint.
	TreasuryOwner solana.PublicKey
	LPOwner       solana.PublicKey

	// StakersVault is the rewards vault token account itself, not an owner.
	// It receives the stakers share directly.
	StakersVault solana.PublicKey

	// RewardsProgram is the downstream program notified after a nonzero
	// stakers transfer.
	RewardsProgram solana.PublicKey
}

func (rc *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (rc *RouterConfig) Load() error {
	var err error
	load := func(name, fallback string) solana.PublicKey {
		pk, e := solana.PublicKeyFromBase58(common.GetEnvOrDefault(name, fallback))
		if e != nil && err == nil {
			err = fmt.Errorf("invalid %s: %w", name, e)
		}
		return pk
	}

	rc.Mint = load("FEE_MINT", defaultMint)
	rc.TreasuryOwner = load("TREASURY_OWNER", defaultTreasuryOwner)
	rc.LPOwner = load("LP_OWNER", defaultLPOwner)
	rc.StakersVault = load("STAKERS_VAULT", defaultStakersVault)
	rc.RewardsProgram = load("REWARDS_PROGRAM", defaultRewardsProgram)
	if err != nil {
		return err
	}
	return rc.Validate()
}

func (rc *RouterConfig) Validate() error {
	for name, pk := range map[string]solana.PublicKey{
		"mint":            rc.Mint,
		"treasury owner":  rc.TreasuryOwner,
		"lp owner":        rc.LPOwner,
		"stakers vault":   rc.StakersVault,
		"rewards program": rc.RewardsProgram,
	} {
		if pk.IsZero() {
			return fmt.Errorf("router config: %s is not set", name)
		}
	}
	return nil
}

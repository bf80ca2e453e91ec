// Package distributor turns a vault balance into the three outbound
// transfers of one distribution pass.
package distributor

import (
	"context"
	"errors"
	"math/bits"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/roguepiratex/solanadeads-fee/internal/adapters/persistence"
	"github.com/roguepiratex/solanadeads-fee/internal/common"
	"github.com/roguepiratex/solanadeads-fee/internal/config"
	"github.com/roguepiratex/solanadeads-fee/internal/domain"
	"github.com/roguepiratex/solanadeads-fee/internal/metrics"
	"github.com/roguepiratex/solanadeads-fee/internal/services/builder"
	"github.com/roguepiratex/solanadeads-fee/internal/services/ledger"
	"github.com/roguepiratex/solanadeads-fee/internal/services/rewards"
	"github.com/roguepiratex/solanadeads-fee/internal/services/splitmath"
)

const DISTRIBUTOR_SERVICE = "distributor-service"

var (
	ErrZeroAmount               = errors.New("amount below the minimum distribution threshold")
	ErrInsufficientVaultBalance = errors.New("router vault has insufficient balance for requested distribution")

	// ErrDecimalsMismatch is reserved: the caller-supplied decimals value is
	// currently ignored in favor of the mint's own precision.
	ErrDecimalsMismatch = errors.New("supplied decimals do not match the mint")

	// Error aliases
	ErrMathOverflow = splitmath.ErrMathOverflow
)

// distributionJournal is the slice of the storage layer the engine writes.
type distributionJournal interface {
	AppendDistribution(*domain.FeeDistribution) error
}

type Engine struct {
	container.BaseDIInstance

	ledger  domain.TokenLedger
	rewards domain.RewardsSync
	journal distributionJournal

	stakersWallet  solana.PublicKey
	treasuryWallet solana.PublicKey
	lpWallet       solana.PublicKey
}

func (e *Engine) ID() string {
	return DISTRIBUTOR_SERVICE
}

func (e *Engine) Configure(c container.IContainer) error {
	conf := c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	e.ledger = c.Instance(ledger.LEDGER_SERVICE).(*ledger.Service)
	e.rewards = c.Instance(rewards.REWARDS_SERVICE).(*rewards.Service)
	e.journal = c.Instance(persistence.STORAGE_SERVICE).(*persistence.Storage)

	// The stakers destination is the rewards vault token account itself;
	// treasury and LP wallets are derived from their owners once here.
	e.stakersWallet = conf.StakersVault

	treasury, _, err := builder.GetATAAddressForMint(conf.TreasuryOwner, conf.Mint, common.Token2022ID)
	if err != nil {
		return err
	}
	e.treasuryWallet = treasury

	lp, _, err := builder.GetATAAddressForMint(conf.LPOwner, conf.Mint, common.Token2022ID)
	if err != nil {
		return err
	}
	e.lpWallet = lp

	return nil
}

// DistributeAmount is the standalone entry point: distribute a specific
// amount out of the routing vault. The caller-supplied decimals value is
// accepted for interface compatibility but the mint's own precision is
// authoritative.
func (e *Engine) DistributeAmount(ctx context.Context, amount uint64, decimals uint8) error {
	if amount < common.MinDistribute {
		return ErrZeroAmount
	}

	balance, err := e.ledger.VaultBalance(ctx)
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientVaultBalance
	}

	_ = decimals // the mint's decimals are used instead

	fee, err := e.ledger.FeeSchedule(ctx)
	if err != nil {
		return err
	}

	_, err = e.run(ctx, amount, fee, false)
	return err
}

// DistributeHarvested is the harvest-triggered entry point: the orchestrator
// has already re-read the vault and applied the dust floor, and the whole
// live balance is distributed. When withSync is set and the stakers share is
// nonzero, the rewards sync call rides in the same transaction as the three
// transfers.
func (e *Engine) DistributeHarvested(ctx context.Context, amount uint64, fee *domain.FeeParameters, withSync bool) (domain.SplitTargets, error) {
	return e.run(ctx, amount, fee, withSync)
}

func (e *Engine) run(ctx context.Context, amount uint64, fee *domain.FeeParameters, withSync bool) (domain.SplitTargets, error) {
	targets, err := splitmath.ComputeSplits(amount)
	if err != nil {
		metrics.Distributions.WithLabelValues("error").Inc()
		return domain.SplitTargets{}, err
	}

	grossed, err := splitmath.GrossUpSplits(targets, fee)
	if err != nil {
		metrics.Distributions.WithLabelValues("error").Inc()
		return domain.SplitTargets{}, err
	}

	// Fee-cap interactions can push the grossed total past what the vault
	// holds. Distributing the raw targets keeps the pass possible at the
	// cost of exact fee compensation.
	total, overflow := sumChecked(grossed.Stakers, grossed.Treasury, grossed.LiquidityPool)
	if overflow {
		metrics.Distributions.WithLabelValues("error").Inc()
		return domain.SplitTargets{}, ErrMathOverflow
	}
	if total > amount {
		log.Warn().
			Uint64("grossed", total).
			Uint64("amount", amount).
			Msg("[distributor] gross-up exceeds vault amount, falling back to raw targets")
		metrics.GrossUpFallbacks.Inc()
		grossed = targets
	}

	decimals, err := e.ledger.MintDecimals(ctx)
	if err != nil {
		metrics.Distributions.WithLabelValues("error").Inc()
		return domain.SplitTargets{}, err
	}

	transfers := []domain.TransferRequest{
		{To: e.stakersWallet, Amount: grossed.Stakers},
		{To: e.treasuryWallet, Amount: grossed.Treasury},
		{To: e.lpWallet, Amount: grossed.LiquidityPool},
	}

	var extra []solana.Instruction
	if withSync && targets.Stakers > 0 {
		extra = append(extra, e.rewards.SyncInstruction(nil))
	}

	sig, err := e.ledger.TransferFromVault(ctx, transfers, decimals, extra...)
	if err != nil {
		metrics.Distributions.WithLabelValues("error").Inc()
		if len(extra) > 0 {
			metrics.RewardsSyncFailures.Inc()
		}
		return domain.SplitTargets{}, err
	}

	// The event reports the intended net targets, not the grossed wire
	// amounts.
	event := &domain.FeeDistribution{
		StakersAmount:  targets.Stakers,
		TreasuryAmount: targets.Treasury,
		LpAmount:       targets.LiquidityPool,
		Total:          amount,
		Signature:      sig.String(),
		Timestamp:      time.Now().UTC(),
	}
	if err := e.journal.AppendDistribution(event); err != nil {
		log.Error().Err(err).Msg("[distributor] failed to journal distribution")
	}

	metrics.Distributions.WithLabelValues("ok").Inc()
	metrics.DistributedAmount.WithLabelValues("stakers").Add(float64(targets.Stakers))
	metrics.DistributedAmount.WithLabelValues("treasury").Add(float64(targets.Treasury))
	metrics.DistributedAmount.WithLabelValues("lp").Add(float64(targets.LiquidityPool))

	log.Info().
		Uint64("stakers", targets.Stakers).
		Uint64("treasury", targets.Treasury).
		Uint64("lp", targets.LiquidityPool).
		Uint64("total", amount).
		Str("signature", sig.String()).
		Msg("[distributor] fees distributed")

	return targets, nil
}

func sumChecked(a, b, c uint64) (uint64, bool) {
	ab, carry1 := bits.Add64(a, b, 0)
	abc, carry2 := bits.Add64(ab, c, 0)
	return abc, carry1 != 0 || carry2 != 0
}

// Package harvester drives the harvest pipeline: validate the source
// accounts, sweep their withheld fees to the mint, withdraw the pooled
// balance into the routing vault, and hand the fresh balance to the
// distribution engine.
package harvester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/roguepiratex/solanadeads-fee/internal/adapters/persistence"
	"github.com/roguepiratex/solanadeads-fee/internal/common"
	"github.com/roguepiratex/solanadeads-fee/internal/config"
	"github.com/roguepiratex/solanadeads-fee/internal/domain"
	"github.com/roguepiratex/solanadeads-fee/internal/metrics"
	"github.com/roguepiratex/solanadeads-fee/internal/services/distributor"
	"github.com/roguepiratex/solanadeads-fee/internal/services/ledger"
)

const HARVESTER_SERVICE = "harvester-service"

var (
	ErrInvalidMintForSink       = errors.New("sink account mint does not match the configured mint")
	ErrWrongTokenProgramForSink = errors.New("sink account is for the wrong token program")
)

// distributionEngine is the slice of the distributor the orchestrator
// drives.
type distributionEngine interface {
	DistributeHarvested(ctx context.Context, amount uint64, fee *domain.FeeParameters, withSync bool) (domain.SplitTargets, error)
}

// harvestJournal is the slice of the storage layer the orchestrator writes.
type harvestJournal interface {
	AppendHarvestRun(*domain.HarvestRun) error
}

type Orchestrator struct {
	container.BaseDIInstance

	ledger  domain.TokenLedger
	engine  distributionEngine
	journal harvestJournal

	mint solana.PublicKey
}

func (o *Orchestrator) ID() string {
	return HARVESTER_SERVICE
}

func (o *Orchestrator) Configure(c container.IContainer) error {
	conf := c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	o.mint = conf.Mint
	o.ledger = c.Instance(ledger.LEDGER_SERVICE).(*ledger.Service)
	o.engine = c.Instance(distributor.DISTRIBUTOR_SERVICE).(*distributor.Engine)
	o.journal = c.Instance(persistence.STORAGE_SERVICE).(*persistence.Storage)
	return nil
}

// HarvestAndDistribute runs one pass of the pipeline. Harvesting an empty
// source list is a valid no-op; a post-withdraw balance under the dust
// floor skips distribution and still counts as success.
func (o *Orchestrator) HarvestAndDistribute(ctx context.Context, sources []solana.PublicKey) (*domain.HarvestRun, error) {
	started := time.Now()

	if len(sources) == 0 {
		log.Info().Msg("[harvester] no fee-bearing accounts provided, skipping harvest")
		metrics.HarvestRuns.WithLabelValues("empty").Inc()
		return &domain.HarvestRun{Timestamp: time.Now().UTC()}, nil
	}

	if err := o.validateSources(ctx, sources); err != nil {
		metrics.HarvestRuns.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if fee, err := o.ledger.FeeSchedule(ctx); err == nil && fee != nil {
		log.Info().
			Uint16("bps", fee.FeeRateBasisPoints).
			Uint64("maxFee", fee.MaximumFee).
			Msg("[harvester] transfer-fee schedule for current epoch")
	} else if err == nil {
		log.Info().Msg("[harvester] no transfer-fee config on mint")
	}

	vaultBefore, err := o.ledger.VaultBalance(ctx)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	if _, err := o.ledger.HarvestWithheld(ctx, sources); err != nil {
		metrics.HarvestRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("harvest step failed: %w", err)
	}

	if _, err := o.ledger.WithdrawWithheld(ctx); err != nil {
		metrics.HarvestRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("withdraw step failed: %w", err)
	}

	// The post-withdraw balance is the authoritative distribution input;
	// the withheld mechanics belong to the token program, not this core.
	amount, err := o.ledger.VaultBalance(ctx)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	log.Info().Uint64("amount", amount).Msg("[harvester] vault balance after withdraw")

	if amount < common.MinDistribute {
		log.Info().
			Uint64("amount", amount).
			Uint64("floor", common.MinDistribute).
			Msg("[harvester] vault below dust floor, skipping distribution")

		run := &domain.HarvestRun{
			Sources:     uint32(len(sources)),
			VaultBefore: vaultBefore,
			Distributed: 0,
			VaultAfter:  amount,
			Timestamp:   time.Now().UTC(),
		}
		o.record(run, started, "dust")
		return run, nil
	}

	fee, err := o.ledger.FeeSchedule(ctx)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	if _, err := o.engine.DistributeHarvested(ctx, amount, fee, true); err != nil {
		metrics.HarvestRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("distribution step failed: %w", err)
	}

	vaultAfter, err := o.ledger.VaultBalance(ctx)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	run := &domain.HarvestRun{
		Sources:     uint32(len(sources)),
		VaultBefore: vaultBefore,
		Distributed: amount,
		VaultAfter:  vaultAfter,
		Timestamp:   time.Now().UTC(),
	}
	o.record(run, started, "ok")

	log.Info().
		Uint32("sources", run.Sources).
		Uint64("vaultBefore", run.VaultBefore).
		Uint64("distributed", run.Distributed).
		Uint64("vaultAfter", run.VaultAfter).
		Msg("[harvester] harvest run complete")

	return run, nil
}

// validateSources rejects any account that is not a Token-2022 account of
// the configured mint before a single ledger mutation happens.
func (o *Orchestrator) validateSources(ctx context.Context, sources []solana.PublicKey) error {
	for _, src := range sources {
		info, err := o.ledger.ReadTokenAccount(ctx, src)
		if err != nil {
			return fmt.Errorf("failed to read source account %s: %w", src, err)
		}
		if !info.OwnerProgram.Equals(common.Token2022ID) {
			return fmt.Errorf("%w: %s owned by %s", ErrWrongTokenProgramForSink, src, info.OwnerProgram)
		}
		if !info.Mint.Equals(o.mint) {
			return fmt.Errorf("%w: %s holds %s", ErrInvalidMintForSink, src, info.Mint)
		}
	}
	return nil
}

func (o *Orchestrator) record(run *domain.HarvestRun, started time.Time, outcome string) {
	if err := o.journal.AppendHarvestRun(run); err != nil {
		log.Error().Err(err).Msg("[harvester] failed to journal harvest run")
	}
	metrics.HarvestRuns.WithLabelValues(outcome).Inc()
	metrics.HarvestSources.Observe(float64(run.Sources))
	metrics.HarvestDuration.Observe(time.Since(started).Seconds())
}

package harvester

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/roguepiratex/solanadeads-fee/internal/common"
	"github.com/roguepiratex/solanadeads-fee/internal/domain"
)

// scriptedLedger plays back a fixed sequence of vault balances and records
// which mutations happened.
type scriptedLedger struct {
	balances []uint64
	reads    int

	accounts map[solana.PublicKey]*domain.TokenAccountInfo
	fee      *domain.FeeParameters

	harvested []solana.PublicKey
	withdrawn bool
}

func (f *scriptedLedger) HarvestWithheld(ctx context.Context, sources []solana.PublicKey) (solana.Signature, error) {
	f.harvested = append([]solana.PublicKey(nil), sources...)
	return solana.Signature{}, nil
}

func (f *scriptedLedger) WithdrawWithheld(ctx context.Context) (solana.Signature, error) {
	f.withdrawn = true
	return solana.Signature{}, nil
}

func (f *scriptedLedger) TransferFromVault(ctx context.Context, transfers []domain.TransferRequest, decimals uint8, extra ...solana.Instruction) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (f *scriptedLedger) VaultBalance(ctx context.Context) (uint64, error) {
	if f.reads >= len(f.balances) {
		return 0, errors.New("unexpected vault balance read")
	}
	v := f.balances[f.reads]
	f.reads++
	return v, nil
}

func (f *scriptedLedger) ReadTokenAccount(ctx context.Context, account solana.PublicKey) (*domain.TokenAccountInfo, error) {
	info, ok := f.accounts[account]
	if !ok {
		return nil, errors.New("account not found")
	}
	return info, nil
}

func (f *scriptedLedger) FeeSchedule(ctx context.Context) (*domain.FeeParameters, error) {
	return f.fee, nil
}

func (f *scriptedLedger) MintDecimals(ctx context.Context) (uint8, error) {
	return 6, nil
}

type recordingEngine struct {
	amount   uint64
	fee      *domain.FeeParameters
	withSync bool
	calls    int
	err      error
}

func (e *recordingEngine) DistributeHarvested(ctx context.Context, amount uint64, fee *domain.FeeParameters, withSync bool) (domain.SplitTargets, error) {
	e.calls++
	e.amount = amount
	e.fee = fee
	e.withSync = withSync
	if e.err != nil {
		return domain.SplitTargets{}, e.err
	}
	return domain.SplitTargets{}, nil
}

type recordingJournal struct {
	runs []*domain.HarvestRun
}

func (j *recordingJournal) AppendHarvestRun(run *domain.HarvestRun) error {
	j.runs = append(j.runs, run)
	return nil
}

func acct(seed byte) solana.PublicKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	return solana.PublicKeyFromBytes(b[:])
}

func goodSource(mint solana.PublicKey, seed byte) (solana.PublicKey, *domain.TokenAccountInfo) {
	addr := acct(seed)
	return addr, &domain.TokenAccountInfo{
		Address:      addr,
		OwnerProgram: common.Token2022ID,
		Mint:         mint,
		Amount:       100,
	}
}

func newTestOrchestrator(l *scriptedLedger, e *recordingEngine, j *recordingJournal, mint solana.PublicKey) *Orchestrator {
	return &Orchestrator{ledger: l, engine: e, journal: j, mint: mint}
}

func TestHarvestEmptySourceList(t *testing.T) {
	l := &scriptedLedger{}
	e := &recordingEngine{}
	j := &recordingJournal{}
	o := newTestOrchestrator(l, e, j, acct(9))

	run, err := o.HarvestAndDistribute(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.Sources != 0 || run.Distributed != 0 {
		t.Fatalf("run = %+v", run)
	}
	if l.harvested != nil || l.withdrawn || l.reads != 0 {
		t.Fatal("an empty source list must not touch the ledger")
	}
	if e.calls != 0 {
		t.Fatal("an empty source list must not distribute")
	}
	if len(j.runs) != 0 {
		t.Fatal("a no-op run must not be journaled")
	}
}

func TestHarvestRejectsWrongMint(t *testing.T) {
	mint := acct(9)
	src, info := goodSource(acct(8), 20) // account for a different mint
	l := &scriptedLedger{accounts: map[solana.PublicKey]*domain.TokenAccountInfo{src: info}}
	e := &recordingEngine{}
	o := newTestOrchestrator(l, e, &recordingJournal{}, mint)

	_, err := o.HarvestAndDistribute(context.Background(), []solana.PublicKey{src})
	if !errors.Is(err, ErrInvalidMintForSink) {
		t.Fatalf("err = %v, want ErrInvalidMintForSink", err)
	}
	if l.harvested != nil || l.withdrawn {
		t.Fatal("a rejected run must not mutate the ledger")
	}
}

func TestHarvestRejectsWrongTokenProgram(t *testing.T) {
	mint := acct(9)
	src := acct(20)
	l := &scriptedLedger{accounts: map[solana.PublicKey]*domain.TokenAccountInfo{
		src: {Address: src, OwnerProgram: common.TokenProgramID, Mint: mint},
	}}
	o := newTestOrchestrator(l, &recordingEngine{}, &recordingJournal{}, mint)

	_, err := o.HarvestAndDistribute(context.Background(), []solana.PublicKey{src})
	if !errors.Is(err, ErrWrongTokenProgramForSink) {
		t.Fatalf("err = %v, want ErrWrongTokenProgramForSink", err)
	}
	if l.harvested != nil || l.withdrawn {
		t.Fatal("a rejected run must not mutate the ledger")
	}
}

func TestHarvestDustSkipsDistribution(t *testing.T) {
	mint := acct(9)
	src, info := goodSource(mint, 20)
	l := &scriptedLedger{
		// before harvest, after withdraw: both under the dust floor
		balances: []uint64{3, 7},
		accounts: map[solana.PublicKey]*domain.TokenAccountInfo{src: info},
	}
	e := &recordingEngine{}
	j := &recordingJournal{}
	o := newTestOrchestrator(l, e, j, mint)

	run, err := o.HarvestAndDistribute(context.Background(), []solana.PublicKey{src})
	if err != nil {
		t.Fatal(err)
	}

	if !l.withdrawn || len(l.harvested) != 1 {
		t.Fatal("harvest and withdraw must still run for a dust balance")
	}
	if e.calls != 0 {
		t.Fatal("a dust balance must not be distributed")
	}
	if run.Sources != 1 || run.VaultBefore != 3 || run.Distributed != 0 || run.VaultAfter != 7 {
		t.Errorf("run = %+v", run)
	}
	if len(j.runs) != 1 || j.runs[0].Distributed != 0 {
		t.Fatalf("dust run must be journaled with distributed=0, got %+v", j.runs)
	}
}

func TestHarvestHappyPath(t *testing.T) {
	mint := acct(9)
	srcA, infoA := goodSource(mint, 20)
	srcB, infoB := goodSource(mint, 21)
	fee := &domain.FeeParameters{FeeRateBasisPoints: 100, MaximumFee: 1_000}
	l := &scriptedLedger{
		// before harvest, after withdraw, after distribution
		balances: []uint64{500, 10_500, 2},
		accounts: map[solana.PublicKey]*domain.TokenAccountInfo{srcA: infoA, srcB: infoB},
		fee:      fee,
	}
	e := &recordingEngine{}
	j := &recordingJournal{}
	o := newTestOrchestrator(l, e, j, mint)

	run, err := o.HarvestAndDistribute(context.Background(), []solana.PublicKey{srcA, srcB})
	if err != nil {
		t.Fatal(err)
	}

	if len(l.harvested) != 2 || !l.withdrawn {
		t.Fatal("both pipeline steps must run")
	}
	if e.calls != 1 || e.amount != 10_500 || e.fee != fee || !e.withSync {
		t.Errorf("engine call = {calls:%d amount:%d fee:%v withSync:%v}", e.calls, e.amount, e.fee, e.withSync)
	}
	if run.Sources != 2 || run.VaultBefore != 500 || run.Distributed != 10_500 || run.VaultAfter != 2 {
		t.Errorf("run = %+v", run)
	}
	if len(j.runs) != 1 {
		t.Fatalf("got %d journaled runs, want 1", len(j.runs))
	}
}

func TestHarvestDistributionFailure(t *testing.T) {
	mint := acct(9)
	src, info := goodSource(mint, 20)
	wantErr := errors.New("transaction failed")
	l := &scriptedLedger{
		balances: []uint64{0, 10_000},
		accounts: map[solana.PublicKey]*domain.TokenAccountInfo{src: info},
	}
	e := &recordingEngine{err: wantErr}
	j := &recordingJournal{}
	o := newTestOrchestrator(l, e, j, mint)

	_, err := o.HarvestAndDistribute(context.Background(), []solana.PublicKey{src})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(j.runs) != 0 {
		t.Fatal("a failed run must not be journaled")
	}
}

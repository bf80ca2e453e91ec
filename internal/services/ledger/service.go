// Package ledger implements the token-ledger capability over Solana RPC.
// Every mutating call is authorized by the router authority key, which must
// match the authority stored in the router record.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/roguepiratex/solanadeads-fee/internal/adapters/persistence"
	"github.com/roguepiratex/solanadeads-fee/internal/config"
	"github.com/roguepiratex/solanadeads-fee/internal/domain"
	"github.com/roguepiratex/solanadeads-fee/internal/services/builder"
)

const LEDGER_SERVICE = "ledger-service"

var (
	ErrNotInitialized    = errors.New("router record not initialized")
	ErrAuthorityMismatch = errors.New("loaded authority key does not match router record")
)

const confirmTimeout = 60 * time.Second

type Service struct {
	container.BaseDIInstance

	rpcClient *rpc.Client
	store     *persistence.Storage
	conf      *config.RouterConfig

	authority solana.PrivateKey
	vault     solana.PublicKey
	vaultBump uint8

	decimalsMu  sync.Mutex
	decimals    uint8
	hasDecimals bool
}

func (svc *Service) ID() string {
	return LEDGER_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.conf = c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	svc.store = c.Instance(persistence.STORAGE_SERVICE).(*persistence.Storage)

	svc.rpcClient = rpc.New(rpcConfig.RPCUrl)

	key, err := solana.PrivateKeyFromBase58(rpcConfig.AuthorityKey)
	if err != nil {
		return fmt.Errorf("invalid router authority key: %w", err)
	}
	svc.authority = key

	vault, bump, err := builder.GetRoutingVault(key.PublicKey(), svc.conf.Mint)
	if err != nil {
		return fmt.Errorf("failed to derive routing vault: %w", err)
	}
	svc.vault = vault
	svc.vaultBump = bump

	log.Info().
		Str("authority", key.PublicKey().String()).
		Str("vault", vault.String()).
		Str("mint", svc.conf.Mint.String()).
		Msg("[ledgerService] configured")
	return nil
}

// Authority returns the loaded signing identity.
func (svc *Service) Authority() solana.PublicKey {
	return svc.authority.PublicKey()
}

// Vault returns the routing vault address.
func (svc *Service) Vault() solana.PublicKey {
	return svc.vault
}

// VaultBump returns the nonce produced when the vault address was derived.
func (svc *Service) VaultBump() uint8 {
	return svc.vaultBump
}

// requireAuthority loads the router record and checks it authorizes the
// loaded key. Called before every mutating operation.
func (svc *Service) requireAuthority() (*domain.RouterState, error) {
	state, err := svc.store.LoadRouterState(svc.conf.Mint)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNotInitialized
	}
	if !state.DerivedSigningIdentity().Equals(svc.authority.PublicKey()) {
		return nil, ErrAuthorityMismatch
	}
	return state, nil
}

func (svc *Service) HarvestWithheld(ctx context.Context, sources []solana.PublicKey) (solana.Signature, error) {
	if _, err := svc.requireAuthority(); err != nil {
		return solana.Signature{}, err
	}
	ix := newHarvestWithheldInstruction(svc.conf.Mint, sources)
	return svc.sendAndConfirm(ctx, []solana.Instruction{ix})
}

func (svc *Service) WithdrawWithheld(ctx context.Context) (solana.Signature, error) {
	state, err := svc.requireAuthority()
	if err != nil {
		return solana.Signature{}, err
	}
	ix := newWithdrawWithheldInstruction(svc.conf.Mint, svc.vault, state.DerivedSigningIdentity())
	return svc.sendAndConfirm(ctx, []solana.Instruction{ix})
}

func (svc *Service) TransferFromVault(ctx context.Context, transfers []domain.TransferRequest, decimals uint8, extra ...solana.Instruction) (solana.Signature, error) {
	state, err := svc.requireAuthority()
	if err != nil {
		return solana.Signature{}, err
	}

	instructions := make([]solana.Instruction, 0, len(transfers)+len(extra))
	for _, tr := range transfers {
		instructions = append(instructions, newTransferCheckedInstruction(
			svc.vault,
			svc.conf.Mint,
			tr.To,
			state.DerivedSigningIdentity(),
			tr.Amount,
			decimals,
		))
	}
	instructions = append(instructions, extra...)

	return svc.sendAndConfirm(ctx, instructions)
}

func (svc *Service) VaultBalance(ctx context.Context) (uint64, error) {
	res, err := svc.rpcClient.GetTokenAccountBalance(ctx, svc.vault, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to read vault balance: %w", err)
	}
	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed vault balance %q: %w", res.Value.Amount, err)
	}
	return amount, nil
}

func (svc *Service) ReadTokenAccount(ctx context.Context, account solana.PublicKey) (*domain.TokenAccountInfo, error) {
	info, err := svc.rpcClient.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, err
	}
	if info.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return decodeTokenAccount(account, info.Value.Owner, info.Value.Data.GetBinary())
}

// FeeSchedule reads the mint's transfer-fee parameters for the current
// epoch. Read fresh on every call: the schedule can change between epochs.
func (svc *Service) FeeSchedule(ctx context.Context) (*domain.FeeParameters, error) {
	info, err := svc.rpcClient.GetAccountInfoWithOpts(ctx, svc.conf.Mint, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, err
	}
	if info.Value == nil {
		return nil, fmt.Errorf("%w: mint %s", ErrAccountNotFound, svc.conf.Mint)
	}

	cfg, err := parseTransferFeeConfig(info.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	epochInfo, err := svc.rpcClient.GetEpochInfo(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}

	fee := cfg.feeForEpoch(epochInfo.Epoch)
	return &domain.FeeParameters{
		FeeRateBasisPoints: fee.BasisPoints,
		MaximumFee:         fee.MaximumFee,
	}, nil
}

func (svc *Service) MintDecimals(ctx context.Context) (uint8, error) {
	svc.decimalsMu.Lock()
	defer svc.decimalsMu.Unlock()
	if svc.hasDecimals {
		return svc.decimals, nil
	}

	info, err := svc.rpcClient.GetAccountInfoWithOpts(ctx, svc.conf.Mint, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return 0, err
	}
	if info.Value == nil {
		return 0, fmt.Errorf("%w: mint %s", ErrAccountNotFound, svc.conf.Mint)
	}

	mint, err := decodeMint(info.Value.Data.GetBinary())
	if err != nil {
		return 0, err
	}

	svc.decimals = mint.Decimals
	svc.hasDecimals = true
	return mint.Decimals, nil
}

// sendAndConfirm signs the instructions with the authority key, submits
// them as one transaction, and polls until the cluster confirms it. The
// transaction is atomic: either every instruction lands or none does.
func (svc *Service) sendAndConfirm(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	blockhash, err := svc.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash.Value.Blockhash,
		solana.TransactionPayer(svc.authority.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(svc.authority.PublicKey()) {
			return &svc.authority
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := svc.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	if err := svc.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (svc *Service) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not confirmed: %w", sig, ctx.Err())
		case <-ticker.C:
			res, err := svc.rpcClient.GetSignatureStatuses(ctx, true, sig)
			if err != nil || len(res.Value) == 0 || res.Value[0] == nil {
				continue
			}
			status := res.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on chain: %v", sig, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}
}

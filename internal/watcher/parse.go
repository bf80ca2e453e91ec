package watcher

import (
	"github.com/rs/zerolog/log"

	"github.com/roguepiratex/solanadeads-fee/internal/metrics"
	"github.com/roguepiratex/solanadeads-fee/internal/services/ledger"
)

// ProcessMintUpdate refreshes the pooled-withheld gauge from a streamed
// mint account.
func ProcessMintUpdate(data []byte) {
	if amount, ok := ledger.WithheldAmountFromMintData(data); ok {
		metrics.MintWithheldAmount.Set(float64(amount))
	}
}

// ProcessVaultUpdate refreshes the vault-balance gauge from a streamed
// vault token account.
func ProcessVaultUpdate(data []byte) {
	amount, err := ledger.TokenAmountFromAccountData(data)
	if err != nil {
		log.Warn().Err(err).Msg("[withheldWatcher] failed to decode vault account")
		return
	}
	metrics.VaultBalance.Set(float64(amount))
}

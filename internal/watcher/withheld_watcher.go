// Package watcher streams the routing vault and the mint so operators can
// see fees accumulate between harvest runs.
package watcher

import (
	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	pb "github.com/andrew-solarstorm/yellowstone-grpc-client-go/proto"
	"github.com/thehyperflames/yellowstone"

	"github.com/roguepiratex/solanadeads-fee/internal/config"
	"github.com/roguepiratex/solanadeads-fee/internal/services"
	"github.com/roguepiratex/solanadeads-fee/internal/services/ledger"
)

const WITHHELD_WATCHER_SERVICE = "withheld-watcher-service"

type WithheldWatcherService struct {
	container.BaseDIInstance

	ySvc      *yellowstone.Service
	ledgerSvc *ledger.Service
	log       *services.ServiceLogger
	mint      solana.PublicKey
	subID     string
}

func (svc *WithheldWatcherService) ID() string {
	return WITHHELD_WATCHER_SERVICE
}

func (svc *WithheldWatcherService) Configure(c container.IContainer) error {
	svc.ySvc = c.Instance(yellowstone.YELLOWSTONE_SERVICE).(*yellowstone.Service)
	svc.ledgerSvc = c.Instance(ledger.LEDGER_SERVICE).(*ledger.Service)

	conf := c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)
	svc.mint = conf.Mint
	svc.log = services.NewServiceLogger(svc)
	return nil
}

func (svc *WithheldWatcherService) Start() error {
	commitment := pb.CommitmentLevel_CONFIRMED

	subID, err := svc.ySvc.SubscribeAccounts(
		[]string{svc.ledgerSvc.Vault().String(), svc.mint.String()},
		nil,
		nil,
		&commitment,
		svc.handleAccountUpdate,
	)
	if err != nil {
		svc.log.Error().Err(err).Msg("failed to subscribe to vault and mint")
		return err
	}
	svc.subID = subID

	svc.log.Info().
		Str("subID", subID).
		Str("vault", svc.ledgerSvc.Vault().String()).
		Str("mint", svc.mint.String()).
		Msg("subscribed")
	return nil
}

func (svc *WithheldWatcherService) Stop() error {
	if svc.subID != "" {
		return svc.ySvc.Unsubscribe(svc.subID)
	}
	return nil
}

func (svc *WithheldWatcherService) handleAccountUpdate(update *pb.SubscribeUpdate) error {
	account := update.GetAccount()
	if account == nil || account.Account == nil {
		return nil
	}

	pubkey := solana.PublicKeyFromBytes(account.Account.Pubkey)
	data := account.Account.Data

	switch {
	case pubkey.Equals(svc.mint):
		ProcessMintUpdate(data)
	case pubkey.Equals(svc.ledgerSvc.Vault()):
		ProcessVaultUpdate(data)
	}
	return nil
}

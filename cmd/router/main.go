package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/roguepiratex/solanadeads-fee/internal/adapters/persistence"
	"github.com/roguepiratex/solanadeads-fee/internal/config"
	"github.com/roguepiratex/solanadeads-fee/internal/http"
	"github.com/roguepiratex/solanadeads-fee/internal/services/distributor"
	"github.com/roguepiratex/solanadeads-fee/internal/services/harvester"
	"github.com/roguepiratex/solanadeads-fee/internal/services/ledger"
	"github.com/roguepiratex/solanadeads-fee/internal/services/rewards"
	"github.com/roguepiratex/solanadeads-fee/internal/watcher"
)

// @title Solanadeads Fee Router API
// @version 1.0
// @description Off-chain fee router for the DEADS Token-2022 mint. Sweeps withheld
// @description transfer fees into a routing vault and distributes them 65% to stakers,
// @description 17.5% to the treasury and 17.5% to the liquidity pool.
// @description
// @description ## - Pipeline
// @description 1. **Harvest**: move withheld fees from holder token accounts to the mint
// @description 2. **Withdraw**: pull the mint's pooled fees into the routing vault
// @description 3. **Distribute**: split the vault balance across the three sinks, grossing
// @description up each transfer so the intended net amounts land after transfer fees
// @description
// @description ## - Usage Tips
// @description - Amounts are in base units of the routed mint
// @description - Balances below 10 base units are left in the vault for the next run
// @description - Rate Limit: 10 requests/second (burst: 20)
// @host localhost:8080
// @BasePath /
// @schemes http
// @tag.name router
// @tag.description Router setup and status
// @tag.name fees
// @tag.description Harvest and distribute withheld transfer fees

func main() {
	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RPCConfig{},
		&config.RouterConfig{},
		&yellowstone.Config{},
	)

	// di container
	dic, err := container.New(
		conf,

		&persistence.Storage{},
		&yellowstone.Service{},

		&ledger.Service{},
		&rewards.Service{},
		&distributor.Engine{},
		&harvester.Orchestrator{},
		&watcher.WithheldWatcherService{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run() blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}

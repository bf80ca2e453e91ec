// Package rewards builds the downstream rewards-program call issued after
// the stakers share lands in the rewards vault.
package rewards

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/roguepiratex/solanadeads-fee/internal/common"
	"github.com/roguepiratex/solanadeads-fee/internal/config"
	"github.com/roguepiratex/solanadeads-fee/internal/services/builder"
)

const REWARDS_SERVICE = "rewards-service"

// syncVaultAndDistributeDiscriminator identifies the rewards program's
// sync_vault_and_distribute instruction.
var syncVaultAndDistributeDiscriminator = [8]byte{8, 138, 201, 54, 235, 135, 144, 204}

type Service struct {
	container.BaseDIInstance

	conf *config.RouterConfig

	configPDA       solana.PublicKey
	poolRegistryPDA solana.PublicKey
	vaultAuthority  solana.PublicKey
}

func (svc *Service) ID() string {
	return REWARDS_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)

	configPDA, poolRegistry, vaultAuthority, err := builder.GetRewardsPDAs(svc.conf.RewardsProgram, svc.conf.Mint)
	if err != nil {
		return err
	}
	svc.configPDA = configPDA
	svc.poolRegistryPDA = poolRegistry
	svc.vaultAuthority = vaultAuthority

	log.Info().
		Str("program", svc.conf.RewardsProgram.String()).
		Str("config", configPDA.String()).
		Msg("[rewardsService] configured")
	return nil
}

// SyncInstruction builds the sync_vault_and_distribute call. An empty
// poolIDs list tells the rewards program to use its own active pool set.
func (svc *Service) SyncInstruction(poolIDs []uint8) solana.Instruction {
	data := make([]byte, 0, 8+4+len(poolIDs))
	data = append(data, syncVaultAndDistributeDiscriminator[:]...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(poolIDs)))
	data = append(data, poolIDs...)

	return &syncInstruction{
		program: svc.conf.RewardsProgram,
		accounts: []*solana.AccountMeta{
			{PublicKey: svc.configPDA, IsSigner: false, IsWritable: true},
			{PublicKey: svc.poolRegistryPDA, IsSigner: false, IsWritable: false},
			{PublicKey: svc.conf.Mint, IsSigner: false, IsWritable: false},
			{PublicKey: svc.vaultAuthority, IsSigner: false, IsWritable: false},
			{PublicKey: svc.conf.StakersVault, IsSigner: false, IsWritable: true},
			{PublicKey: common.Token2022ID, IsSigner: false, IsWritable: false},
			{PublicKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		data: data,
	}
}

type syncInstruction struct {
	program  solana.PublicKey
	accounts []*solana.AccountMeta
	data     []byte
}

func (i *syncInstruction) ProgramID() solana.PublicKey {
	return i.program
}

func (i *syncInstruction) Accounts() []*solana.AccountMeta {
	return i.accounts
}

func (i *syncInstruction) Data() ([]byte, error) {
	return i.data, nil
}

package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/roguepiratex/solanadeads-fee/internal/common"
	"github.com/roguepiratex/solanadeads-fee/internal/domain"
)

// Token-2022 instruction tags. TransferFeeExtension is a prefixed
// instruction family: byte 0 selects the extension, byte 1 the operation.
const (
	transferCheckedTag      = 12
	transferFeeExtensionTag = 26

	withdrawWithheldFromMintOp = 2
	harvestWithheldToMintOp    = 4
)

// Mint account TLV layout constants. A Token-2022 mint with extensions is
// the 82-byte base mint, zero padding to 165, one account-type byte, then
// type/length/value entries.
const (
	baseMintLen          = 82
	accountTypeOffset    = 165
	accountTypeMint      = 1
	transferFeeConfigExt = 1
	transferFeeConfigLen = 108
)

var ErrAccountNotFound = errors.New("account not found")

// tokenInstruction is a hand-encoded Token-2022 instruction. The solana-go
// token package only generates classic SPL-token bindings, so the
// transfer-fee family is assembled directly.
type tokenInstruction struct {
	accounts []*solana.AccountMeta
	data     []byte
}

func (i *tokenInstruction) ProgramID() solana.PublicKey {
	return common.Token2022ID
}

func (i *tokenInstruction) Accounts() []*solana.AccountMeta {
	return i.accounts
}

func (i *tokenInstruction) Data() ([]byte, error) {
	return i.data, nil
}

// newTransferCheckedInstruction moves amount from source to destination,
// with the mint and decimals checked by the token program.
func newTransferCheckedInstruction(source, mint, destination, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	data := make([]byte, 10)
	data[0] = transferCheckedTag
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals

	return &tokenInstruction{
		accounts: []*solana.AccountMeta{
			{PublicKey: source, IsSigner: false, IsWritable: true},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: destination, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: false},
		},
		data: data,
	}
}

// newHarvestWithheldInstruction sweeps the withheld fees of the given
// source accounts into the mint's pooled withheld balance. Permissionless:
// no signer beyond the fee payer.
func newHarvestWithheldInstruction(mint solana.PublicKey, sources []solana.PublicKey) solana.Instruction {
	accounts := make([]*solana.AccountMeta, 0, 1+len(sources))
	accounts = append(accounts, &solana.AccountMeta{PublicKey: mint, IsSigner: false, IsWritable: true})
	for _, src := range sources {
		accounts = append(accounts, &solana.AccountMeta{PublicKey: src, IsSigner: false, IsWritable: true})
	}

	return &tokenInstruction{
		accounts: accounts,
		data:     []byte{transferFeeExtensionTag, harvestWithheldToMintOp},
	}
}

// newWithdrawWithheldInstruction moves the mint's pooled withheld balance
// into destination, signed by the withdraw-withheld authority.
func newWithdrawWithheldInstruction(mint, destination, authority solana.PublicKey) solana.Instruction {
	return &tokenInstruction{
		accounts: []*solana.AccountMeta{
			{PublicKey: mint, IsSigner: false, IsWritable: true},
			{PublicKey: destination, IsSigner: false, IsWritable: true},
			{PublicKey: authority, IsSigner: true, IsWritable: false},
		},
		data: []byte{transferFeeExtensionTag, withdrawWithheldFromMintOp},
	}
}

// epochFee is one entry of the mint's two-epoch fee schedule.
type epochFee struct {
	Epoch       uint64
	MaximumFee  uint64
	BasisPoints uint16
}

// transferFeeConfig is the decoded TransferFeeConfig mint extension.
type transferFeeConfig struct {
	WithheldAmount uint64
	Older          epochFee
	Newer          epochFee
}

// feeForEpoch returns the schedule entry in force for the given epoch.
func (c *transferFeeConfig) feeForEpoch(epoch uint64) epochFee {
	if epoch >= c.Newer.Epoch {
		return c.Newer
	}
	return c.Older
}

func decodeEpochFee(data []byte) epochFee {
	return epochFee{
		Epoch:       binary.LittleEndian.Uint64(data[0:8]),
		MaximumFee:  binary.LittleEndian.Uint64(data[8:16]),
		BasisPoints: binary.LittleEndian.Uint16(data[16:18]),
	}
}

// parseTransferFeeConfig walks the mint's TLV entries and decodes the
// TransferFeeConfig extension. Returns nil when the mint carries no
// extensions or no transfer-fee config; that is the "no fee" case, not an
// error.
func parseTransferFeeConfig(mintData []byte) (*transferFeeConfig, error) {
	if len(mintData) <= accountTypeOffset {
		return nil, nil
	}
	if mintData[accountTypeOffset] != accountTypeMint {
		return nil, fmt.Errorf("unexpected account type %d in mint data", mintData[accountTypeOffset])
	}

	tlv := mintData[accountTypeOffset+1:]
	for len(tlv) >= 4 {
		extType := binary.LittleEndian.Uint16(tlv[0:2])
		extLen := int(binary.LittleEndian.Uint16(tlv[2:4]))
		if len(tlv) < 4+extLen {
			return nil, fmt.Errorf("truncated TLV entry type %d: want %d bytes, have %d", extType, extLen, len(tlv)-4)
		}
		value := tlv[4 : 4+extLen]

		if extType == transferFeeConfigExt {
			if extLen < transferFeeConfigLen {
				return nil, fmt.Errorf("transfer fee config too short: %d bytes", extLen)
			}
			// 32-byte config authority and 32-byte withdraw authority
			// precede the amounts; the router resolves authority through
			// its own record, so only the fee schedule is kept.
			return &transferFeeConfig{
				WithheldAmount: binary.LittleEndian.Uint64(value[64:72]),
				Older:          decodeEpochFee(value[72:90]),
				Newer:          decodeEpochFee(value[90:108]),
			}, nil
		}

		tlv = tlv[4+extLen:]
	}
	return nil, nil
}

// WithheldAmountFromMintData returns the fees currently pooled on the mint,
// read from its TransferFeeConfig extension. ok is false when the mint data
// carries no such extension.
func WithheldAmountFromMintData(data []byte) (amount uint64, ok bool) {
	cfg, err := parseTransferFeeConfig(data)
	if err != nil || cfg == nil {
		return 0, false
	}
	return cfg.WithheldAmount, true
}

// TokenAmountFromAccountData returns a token account's balance from its raw
// account data.
func TokenAmountFromAccountData(data []byte) (uint64, error) {
	account, err := decodeTokenAccount(solana.PublicKey{}, solana.PublicKey{}, data)
	if err != nil {
		return 0, err
	}
	return account.Amount, nil
}

// decodeMint decodes the 82-byte base mint, tolerating trailing extension
// data.
func decodeMint(data []byte) (*token.Mint, error) {
	if len(data) < baseMintLen {
		return nil, fmt.Errorf("mint data too short: %d bytes", len(data))
	}
	var mint token.Mint
	if err := bin.NewBinDecoder(data[:baseMintLen]).Decode(&mint); err != nil {
		return nil, err
	}
	return &mint, nil
}

// decodeTokenAccount decodes the base token-account state, tolerating
// trailing extension data.
func decodeTokenAccount(address, ownerProgram solana.PublicKey, data []byte) (*domain.TokenAccountInfo, error) {
	var account token.Account
	if err := bin.NewBinDecoder(data).Decode(&account); err != nil {
		return nil, err
	}
	return &domain.TokenAccountInfo{
		Address:      address,
		OwnerProgram: ownerProgram,
		Mint:         account.Mint,
		Amount:       account.Amount,
	}, nil
}

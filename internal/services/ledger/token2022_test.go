package ledger

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/roguepiratex/solanadeads-fee/internal/common"
)

func pk(seed byte) solana.PublicKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	return solana.PublicKeyFromBytes(b[:])
}

func TestTransferCheckedEncoding(t *testing.T) {
	source := pk(1)
	mint := pk(2)
	dest := pk(3)
	owner := pk(4)

	ix := newTransferCheckedInstruction(source, mint, dest, owner, 123456789, 6)

	if !ix.ProgramID().Equals(common.Token2022ID) {
		t.Fatalf("program id = %s, want token-2022", ix.ProgramID())
	}

	data, err := ix.Data()
	if err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 10)
	want[0] = transferCheckedTag
	binary.LittleEndian.PutUint64(want[1:9], 123456789)
	want[9] = 6
	if !bytes.Equal(data, want) {
		t.Fatalf("data = %v, want %v", data, want)
	}

	accounts := ix.Accounts()
	if len(accounts) != 4 {
		t.Fatalf("got %d accounts, want 4", len(accounts))
	}
	checks := []struct {
		key      solana.PublicKey
		signer   bool
		writable bool
	}{
		{source, false, true},
		{mint, false, false},
		{dest, false, true},
		{owner, true, false},
	}
	for i, c := range checks {
		a := accounts[i]
		if !a.PublicKey.Equals(c.key) || a.IsSigner != c.signer || a.IsWritable != c.writable {
			t.Errorf("account %d = {%s signer=%v writable=%v}, want {%s signer=%v writable=%v}",
				i, a.PublicKey, a.IsSigner, a.IsWritable, c.key, c.signer, c.writable)
		}
	}
}

func TestHarvestWithheldEncoding(t *testing.T) {
	mint := pk(2)
	sources := []solana.PublicKey{pk(10), pk(11), pk(12)}

	ix := newHarvestWithheldInstruction(mint, sources)

	data, _ := ix.Data()
	if !bytes.Equal(data, []byte{transferFeeExtensionTag, harvestWithheldToMintOp}) {
		t.Fatalf("data = %v", data)
	}

	accounts := ix.Accounts()
	if len(accounts) != 4 {
		t.Fatalf("got %d accounts, want 4", len(accounts))
	}
	if !accounts[0].PublicKey.Equals(mint) || !accounts[0].IsWritable {
		t.Fatalf("first account must be the writable mint, got %+v", accounts[0])
	}
	for i, a := range accounts {
		if a.IsSigner {
			t.Errorf("harvest is permissionless but account %d is a signer", i)
		}
	}
	for i, src := range sources {
		if !accounts[i+1].PublicKey.Equals(src) || !accounts[i+1].IsWritable {
			t.Errorf("source %d = %+v, want writable %s", i, accounts[i+1], src)
		}
	}
}

func TestWithdrawWithheldEncoding(t *testing.T) {
	mint := pk(2)
	dest := pk(5)
	authority := pk(6)

	ix := newWithdrawWithheldInstruction(mint, dest, authority)

	data, _ := ix.Data()
	if !bytes.Equal(data, []byte{transferFeeExtensionTag, withdrawWithheldFromMintOp}) {
		t.Fatalf("data = %v", data)
	}

	accounts := ix.Accounts()
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(accounts))
	}
	if !accounts[0].IsWritable || !accounts[1].IsWritable {
		t.Fatal("mint and destination must be writable")
	}
	if !accounts[2].IsSigner {
		t.Fatal("withdraw authority must sign")
	}
}

// buildMintWithFeeConfig assembles a Token-2022 mint account: 82-byte base
// mint, padding to the account-type byte, then a single TransferFeeConfig
// TLV entry.
func buildMintWithFeeConfig(withheld uint64, older, newer epochFee) []byte {
	data := make([]byte, accountTypeOffset+1+4+transferFeeConfigLen)
	data[accountTypeOffset] = accountTypeMint

	tlv := data[accountTypeOffset+1:]
	binary.LittleEndian.PutUint16(tlv[0:2], transferFeeConfigExt)
	binary.LittleEndian.PutUint16(tlv[2:4], transferFeeConfigLen)

	value := tlv[4:]
	// authorities at 0:64 stay zero
	binary.LittleEndian.PutUint64(value[64:72], withheld)
	putEpochFee(value[72:90], older)
	putEpochFee(value[90:108], newer)
	return data
}

func putEpochFee(dst []byte, fee epochFee) {
	binary.LittleEndian.PutUint64(dst[0:8], fee.Epoch)
	binary.LittleEndian.PutUint64(dst[8:16], fee.MaximumFee)
	binary.LittleEndian.PutUint16(dst[16:18], fee.BasisPoints)
}

func TestParseTransferFeeConfig(t *testing.T) {
	older := epochFee{Epoch: 100, MaximumFee: 5_000_000, BasisPoints: 50}
	newer := epochFee{Epoch: 200, MaximumFee: 10_000_000, BasisPoints: 100}
	data := buildMintWithFeeConfig(42_000, older, newer)

	cfg, err := parseTransferFeeConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg == nil {
		t.Fatal("expected a transfer fee config")
	}
	if cfg.WithheldAmount != 42_000 {
		t.Errorf("withheld = %d, want 42000", cfg.WithheldAmount)
	}
	if cfg.Older != older {
		t.Errorf("older = %+v, want %+v", cfg.Older, older)
	}
	if cfg.Newer != newer {
		t.Errorf("newer = %+v, want %+v", cfg.Newer, newer)
	}
}

func TestParseTransferFeeConfigSkipsOtherExtensions(t *testing.T) {
	// A leading foreign extension must be skipped, not mistaken for the
	// fee config.
	older := epochFee{Epoch: 1, MaximumFee: 10, BasisPoints: 25}
	newer := epochFee{Epoch: 2, MaximumFee: 20, BasisPoints: 75}

	foreignLen := 12
	data := make([]byte, accountTypeOffset+1+4+foreignLen+4+transferFeeConfigLen)
	data[accountTypeOffset] = accountTypeMint

	tlv := data[accountTypeOffset+1:]
	binary.LittleEndian.PutUint16(tlv[0:2], 7) // some other extension
	binary.LittleEndian.PutUint16(tlv[2:4], uint16(foreignLen))

	feeEntry := tlv[4+foreignLen:]
	binary.LittleEndian.PutUint16(feeEntry[0:2], transferFeeConfigExt)
	binary.LittleEndian.PutUint16(feeEntry[2:4], transferFeeConfigLen)
	value := feeEntry[4:]
	binary.LittleEndian.PutUint64(value[64:72], 9)
	putEpochFee(value[72:90], older)
	putEpochFee(value[90:108], newer)

	cfg, err := parseTransferFeeConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg == nil {
		t.Fatal("expected a transfer fee config after the foreign entry")
	}
	if cfg.WithheldAmount != 9 || cfg.Newer != newer {
		t.Errorf("got %+v", cfg)
	}
}

func TestParseTransferFeeConfigAbsent(t *testing.T) {
	// Base mint without extensions: no config, no error.
	cfg, err := parseTransferFeeConfig(make([]byte, baseMintLen))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config, got %+v", cfg)
	}
}

func TestParseTransferFeeConfigTruncated(t *testing.T) {
	data := buildMintWithFeeConfig(1, epochFee{}, epochFee{})
	if _, err := parseTransferFeeConfig(data[:len(data)-20]); err == nil {
		t.Fatal("expected an error for a truncated TLV entry")
	}
}

func TestFeeForEpoch(t *testing.T) {
	cfg := &transferFeeConfig{
		Older: epochFee{Epoch: 100, BasisPoints: 50},
		Newer: epochFee{Epoch: 200, BasisPoints: 100},
	}

	if got := cfg.feeForEpoch(150); got.BasisPoints != 50 {
		t.Errorf("epoch 150: bps = %d, want the older 50", got.BasisPoints)
	}
	if got := cfg.feeForEpoch(200); got.BasisPoints != 100 {
		t.Errorf("epoch 200: bps = %d, want the newer 100", got.BasisPoints)
	}
	if got := cfg.feeForEpoch(500); got.BasisPoints != 100 {
		t.Errorf("epoch 500: bps = %d, want the newer 100", got.BasisPoints)
	}
}

func TestWithheldAmountFromMintData(t *testing.T) {
	data := buildMintWithFeeConfig(777, epochFee{}, epochFee{Epoch: 1})

	amount, ok := WithheldAmountFromMintData(data)
	if !ok || amount != 777 {
		t.Fatalf("got (%d, %v), want (777, true)", amount, ok)
	}

	if _, ok := WithheldAmountFromMintData(make([]byte, baseMintLen)); ok {
		t.Fatal("base mint without extensions must report ok=false")
	}
}

package builder

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/roguepiratex/solanadeads-fee/internal/common"
)

func key(seed byte) solana.PublicKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	return solana.PublicKeyFromBytes(b[:])
}

func TestGetRoutingVaultDeterministic(t *testing.T) {
	authority := key(1)
	mint := key(2)

	vault1, bump1, err := GetRoutingVault(authority, mint)
	if err != nil {
		t.Fatal(err)
	}
	vault2, bump2, err := GetRoutingVault(authority, mint)
	if err != nil {
		t.Fatal(err)
	}
	if !vault1.Equals(vault2) || bump1 != bump2 {
		t.Fatal("vault derivation must be deterministic")
	}
	if vault1.IsZero() {
		t.Fatal("derived a zero vault address")
	}

	otherVault, _, err := GetRoutingVault(authority, key(3))
	if err != nil {
		t.Fatal(err)
	}
	if vault1.Equals(otherVault) {
		t.Fatal("different mints must derive different vaults")
	}
}

func TestGetRoutingVaultMatchesToken2022ATA(t *testing.T) {
	authority := key(1)
	mint := key(2)

	vault, _, err := GetRoutingVault(authority, mint)
	if err != nil {
		t.Fatal(err)
	}
	ata, _, err := GetATAAddressForMint(authority, mint, common.Token2022ID)
	if err != nil {
		t.Fatal(err)
	}
	if !vault.Equals(ata) {
		t.Fatalf("vault %s must equal the authority's token-2022 ATA %s", vault, ata)
	}
}

func TestGetATAAddressForMintCached(t *testing.T) {
	wallet := key(4)
	mint := key(5)

	first, _, err := GetATAAddressForMint(wallet, mint, common.Token2022ID)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := GetATAAddressForMint(wallet, mint, common.Token2022ID)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equals(second) {
		t.Fatal("cached derivation must match")
	}

	classic, _, err := GetATAAddressForMint(wallet, mint, common.TokenProgramID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Equals(classic) {
		t.Fatal("token program must be part of the derivation")
	}
}

func TestRouterRecordKey(t *testing.T) {
	mint := key(6)
	want := common.SeedNamespace + ":" + common.SeedRouter + ":" + mint.String()
	if got := RouterRecordKey(mint); got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
	if RouterRecordKey(mint) == RouterRecordKey(key(7)) {
		t.Fatal("different mints must have different record keys")
	}
}

func TestGetRewardsPDAs(t *testing.T) {
	program := key(8)
	mint := key(9)

	config1, registry1, vaultAuth1, err := GetRewardsPDAs(program, mint)
	if err != nil {
		t.Fatal(err)
	}
	config2, registry2, vaultAuth2, err := GetRewardsPDAs(program, mint)
	if err != nil {
		t.Fatal(err)
	}
	if !config1.Equals(config2) || !registry1.Equals(registry2) || !vaultAuth1.Equals(vaultAuth2) {
		t.Fatal("rewards PDA derivation must be deterministic")
	}
	if config1.Equals(registry1) || config1.Equals(vaultAuth1) || registry1.Equals(vaultAuth1) {
		t.Fatal("the three rewards PDAs must be distinct")
	}
}

package custody

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawpay/settler/token"
	"github.com/clawpay/settler/types"
)

var (
	usdc  = types.Asset{0xa1}
	ltai  = types.Asset{0xa2}
	user  = types.Identity{0x01}
	dest  = types.Identity{0x02}
	payee = types.Identity{0x03}
)

func TestDerivationIsDeterministic(t *testing.T) {
	for _, scheme := range []types.AccountScheme{types.SchemeEVM, types.SchemeSolana} {
		a1 := DeriveAssetAccount(scheme, "deploy-1", usdc)
		a2 := DeriveAssetAccount(scheme, "deploy-1", usdc)
		assert.Equal(t, a1, a2, "scheme %s", scheme)
		assert.False(t, a1.IsZero())

		// distinct per asset and per deployment
		assert.NotEqual(t, a1, DeriveAssetAccount(scheme, "deploy-1", ltai))
		assert.NotEqual(t, a1, DeriveAssetAccount(scheme, "deploy-2", usdc))
		assert.NotEqual(t, a1, DeriveProgramAccount(scheme, "deploy-1"))
	}
}

func TestSchemesDeriveDifferentAccounts(t *testing.T) {
	evm := DeriveAssetAccount(types.SchemeEVM, "deploy-1", usdc)
	sol := DeriveAssetAccount(types.SchemeSolana, "deploy-1", usdc)
	assert.NotEqual(t, evm, sol)
}

func TestSolanaDerivationAcceptsBase58ProgramID(t *testing.T) {
	const programID = "AnAYnLu4gaHK6usSXybni24154Qg4DQuLUvkyPCJMvXu"
	a1 := DeriveAssetAccount(types.SchemeSolana, programID, usdc)
	a2 := DeriveAssetAccount(types.SchemeSolana, programID, usdc)
	assert.Equal(t, a1, a2)
	assert.False(t, a1.IsZero())
}

func TestPullReleaseBurn(t *testing.T) {
	ledger := token.NewMemoryLedger()
	vault := NewVault(ledger, types.SchemeEVM, "deploy-1", nil)
	ledger.Mint(usdc, user, big.NewInt(1000))

	// pull requires an allowance for the program account
	err := vault.Pull(usdc, user, big.NewInt(400))
	require.ErrorIs(t, err, types.ErrInsufficientAuthorizationSentinel)

	require.NoError(t, ledger.Approve(usdc, user, vault.ProgramAccount(), big.NewInt(400)))
	require.NoError(t, vault.Pull(usdc, user, big.NewInt(400)))
	assert.Equal(t, int64(400), vault.Balance(usdc).Int64())
	assert.Equal(t, int64(600), ledger.BalanceOf(usdc, user).Int64())

	require.NoError(t, vault.Burn(usdc, big.NewInt(100)))
	assert.Equal(t, int64(300), vault.Balance(usdc).Int64())
	assert.Equal(t, int64(900), ledger.TotalSupply(usdc).Int64())

	require.NoError(t, vault.Release(usdc, payee, big.NewInt(300)))
	assert.Equal(t, int64(0), vault.Balance(usdc).Int64())
	assert.Equal(t, int64(300), ledger.BalanceOf(usdc, payee).Int64())

	err = vault.Release(usdc, payee, big.NewInt(1))
	require.ErrorIs(t, err, types.ErrInsufficientBalanceSentinel)
}

func TestReleaseZeroIsNoop(t *testing.T) {
	ledger := token.NewMemoryLedger()
	vault := NewVault(ledger, types.SchemeEVM, "deploy-1", nil)
	require.NoError(t, vault.Release(usdc, payee, big.NewInt(0)))
	require.NoError(t, vault.Burn(usdc, big.NewInt(0)))
}

func TestNativeBalanceLivesOnProgramAccount(t *testing.T) {
	ledger := token.NewMemoryLedger()
	vault := NewVault(ledger, types.SchemeEVM, "deploy-1", nil)
	ledger.Mint(types.NativeAsset, vault.ProgramAccount(), big.NewInt(500))

	assert.Equal(t, int64(500), vault.Balance(types.NativeAsset).Int64())
	assert.Equal(t, vault.ProgramAccount(), vault.AssetAccount(types.NativeAsset))
}

func TestReleaseNativeKeepsReserve(t *testing.T) {
	ledger := token.NewMemoryLedger()
	vault := NewVault(ledger, types.SchemeSolana, "deploy-1", big.NewInt(200))
	ledger.Mint(types.NativeAsset, vault.ProgramAccount(), big.NewInt(500))

	err := vault.ReleaseNative(dest, big.NewInt(301))
	require.ErrorIs(t, err, types.ErrInsufficientBalanceSentinel)
	assert.Equal(t, int64(500), vault.Balance(types.NativeAsset).Int64())

	require.NoError(t, vault.ReleaseNative(dest, big.NewInt(300)))
	assert.Equal(t, int64(200), vault.Balance(types.NativeAsset).Int64())
	assert.Equal(t, int64(300), ledger.BalanceOf(types.NativeAsset, dest).Int64())
}

func TestReleaseNativeWithoutReserve(t *testing.T) {
	ledger := token.NewMemoryLedger()
	vault := NewVault(ledger, types.SchemeEVM, "deploy-1", nil)
	ledger.Mint(types.NativeAsset, vault.ProgramAccount(), big.NewInt(100))

	require.NoError(t, vault.ReleaseNative(dest, big.NewInt(100)))
	assert.Equal(t, int64(0), vault.Balance(types.NativeAsset).Int64())
}

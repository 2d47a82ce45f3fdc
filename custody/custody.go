// Package custody manages the program-owned holding accounts: one derivable
// sub-account per asset plus the program state account for native currency.
// Balances only ever leave custody through the settlement forward/burn steps
// or an explicit withdrawal; both paths go through the Vault.
package custody

import (
	"fmt"
	"math/big"

	"github.com/clawpay/settler/token"
	"github.com/clawpay/settler/types"
)

// Vault is a view over the ledger scoped to one deployment's custody
// accounts. It holds no balances of its own; the ledger is the single source
// of truth.
type Vault struct {
	ledger       token.Ledger
	scheme       types.AccountScheme
	deploymentID string

	program types.Identity

	// nativeReserve is the native balance floor withdrawals must respect.
	// Nil means no floor.
	nativeReserve *big.Int
}

// NewVault builds a custody view for the given deployment.
func NewVault(ledger token.Ledger, scheme types.AccountScheme, deploymentID string, nativeReserve *big.Int) *Vault {
	v := &Vault{
		ledger:       ledger,
		scheme:       scheme,
		deploymentID: deploymentID,
		program:      DeriveProgramAccount(scheme, deploymentID),
	}
	if nativeReserve != nil {
		v.nativeReserve = new(big.Int).Set(nativeReserve)
	}
	return v
}

// ProgramAccount returns the deployment's well-known account. Callers
// approve this identity before a pull deposit; it also holds the native
// balance.
func (v *Vault) ProgramAccount() types.Identity { return v.program }

// AssetAccount returns the custody sub-account for an asset. Native currency
// lives on the program account, not a sub-account.
func (v *Vault) AssetAccount(asset types.Asset) types.Identity {
	if asset.IsNative() {
		return v.program
	}
	return DeriveAssetAccount(v.scheme, v.deploymentID, asset)
}

// Balance returns the custodied amount of an asset.
func (v *Vault) Balance(asset types.Asset) *big.Int {
	if asset.IsNative() {
		return v.ledger.BalanceOf(types.NativeAsset, v.program)
	}
	return v.ledger.BalanceOf(asset, v.AssetAccount(asset))
}

// Pull moves amount of asset from an external holder into custody. The
// holder must have approved the program account for at least amount.
func (v *Vault) Pull(asset types.Asset, from types.Identity, amount *big.Int) error {
	return v.ledger.TransferFrom(asset, v.program, from, v.AssetAccount(asset), amount)
}

// Release moves amount of asset out of custody to the destination. A zero
// amount is a no-op so a fully-burned settlement never fails here.
func (v *Vault) Release(asset types.Asset, to types.Identity, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return v.ledger.Transfer(asset, v.AssetAccount(asset), to, amount)
}

// Burn irreversibly destroys amount of the custodied asset.
func (v *Vault) Burn(asset types.Asset, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return v.ledger.Burn(asset, v.AssetAccount(asset), amount)
}

// Approve grants spender a one-time allowance over the custody sub-account,
// used to let the swap capability pull its exact input.
func (v *Vault) Approve(asset types.Asset, spender types.Identity, amount *big.Int) error {
	return v.ledger.Approve(asset, v.AssetAccount(asset), spender, amount)
}

// ReleaseNative moves native currency out of the program account, keeping
// the configured reserve floor intact.
func (v *Vault) ReleaseNative(to types.Identity, amount *big.Int) error {
	balance := v.ledger.BalanceOf(types.NativeAsset, v.program)
	required := new(big.Int).Set(amount)
	if v.nativeReserve != nil {
		required.Add(required, v.nativeReserve)
	}
	if balance.Cmp(required) < 0 {
		return types.NewError(types.ErrInsufficientBalance,
			fmt.Sprintf("native balance %s cannot cover %s plus reserve", balance, amount))
	}
	return v.ledger.Transfer(types.NativeAsset, v.program, to, amount)
}

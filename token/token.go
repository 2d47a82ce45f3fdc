// Package token defines the ownable-balance substrate the settlement engine
// runs against: integral balances in the token's smallest unit, pull
// transfers gated by allowance, and irreversible burn.
package token

import (
	"math/big"

	"github.com/clawpay/settler/types"
)

// Ledger is the transfer substrate consumed by the engine. All amounts are
// exact integers in the asset's smallest unit; implementations perform no
// rounding. Failures are reported as *types.Error with the standard codes:
// insufficient_balance, insufficient_authorization, transfer_failed,
// invalid_amount.
type Ledger interface {
	// BalanceOf returns the holder's balance. The result is owned by the
	// caller and safe to mutate.
	BalanceOf(asset types.Asset, holder types.Identity) *big.Int

	// Transfer moves amount from `from` to `to`.
	Transfer(asset types.Asset, from, to types.Identity, amount *big.Int) error

	// Approve sets spender's allowance over holder's balance. A later
	// approval replaces the previous one.
	Approve(asset types.Asset, holder, spender types.Identity, amount *big.Int) error

	// Allowance returns spender's remaining allowance over holder's balance.
	Allowance(asset types.Asset, holder, spender types.Identity) *big.Int

	// TransferFrom moves amount from `from` to `to` on behalf of spender,
	// consuming allowance. Fails with insufficient_authorization when the
	// allowance does not cover amount.
	TransferFrom(asset types.Asset, spender, from, to types.Identity, amount *big.Int) error

	// Burn irreversibly destroys amount from the holder's balance, reducing
	// total supply.
	Burn(asset types.Asset, holder types.Identity, amount *big.Int) error

	// BurnFrom destroys amount from `from` on behalf of spender, consuming
	// allowance.
	BurnFrom(asset types.Asset, spender, from types.Identity, amount *big.Int) error

	// TotalSupply returns the asset's circulating supply.
	TotalSupply(asset types.Asset) *big.Int
}

// Transactional is implemented by ledgers that can roll back to a point-in-
// time snapshot. The engine uses it to make multi-step operations
// all-or-nothing; ledgers hosted in environments that already guarantee
// atomic transitions may omit it.
type Transactional interface {
	Ledger

	// Snapshot captures the current state and returns a restore function.
	// Calling restore rewinds every mutation made since the snapshot.
	Snapshot() (restore func())
}

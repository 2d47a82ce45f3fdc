// Package settlement implements the central state transition: splitting a
// gross payment-token amount into a burned portion and a forwarded portion,
// destroying the first and moving the second to the configured recipient.
package settlement

import (
	"fmt"
	"math/big"

	"github.com/clawpay/settler/config"
	"github.com/clawpay/settler/custody"
	"github.com/clawpay/settler/types"
)

var hundred = big.NewInt(100)

// Split computes the burn/forward partition of a gross amount:
// burned = floor(gross * pct / 100), forwarded = gross - burned. The two
// always sum to gross exactly.
func Split(gross *big.Int, pct uint8) (burned, forwarded *big.Int) {
	burned = new(big.Int).Mul(gross, big.NewInt(int64(pct)))
	burned.Div(burned, hundred)
	forwarded = new(big.Int).Sub(gross, burned)
	return burned, forwarded
}

// Record summarises one completed settlement. It is emitted, never stored.
type Record struct {
	Initiator types.Identity
	Asset     types.Asset
	Gross     *big.Int
	Burned    *big.Int
	Forwarded *big.Int
}

// Core executes settlements against one deployment's custody.
type Core struct {
	vault *custody.Vault
	asset types.Asset
}

// NewCore builds a settlement core for the given payment token.
func NewCore(vault *custody.Vault, paymentToken types.Asset) *Core {
	return &Core{vault: vault, asset: paymentToken}
}

// Settle destroys the burn portion of a custodied gross amount and forwards
// the rest to the configured recipient. The gross amount must already sit in
// the payment-token custody account. Sub-steps are not individually
// recoverable; the caller wraps Settle in its atomic unit so a failure here
// unwinds everything.
func (c *Core) Settle(initiator types.Identity, gross *big.Int, cfg *config.Settings) (*Record, error) {
	if gross == nil || gross.Sign() <= 0 {
		return nil, types.NewError(types.ErrInvalidAmount, "settlement amount must be positive")
	}
	balance := c.vault.Balance(c.asset)
	if balance.Cmp(gross) < 0 {
		return nil, types.NewError(types.ErrInsufficientBalance,
			fmt.Sprintf("custody holds %s, cannot settle %s", balance, gross))
	}

	burned, forwarded := Split(gross, cfg.BurnPercentage())

	if err := c.vault.Burn(c.asset, burned); err != nil {
		return nil, err
	}
	// A 100% burn leaves nothing to forward; Release treats zero as a no-op.
	if err := c.vault.Release(c.asset, cfg.Recipient(), forwarded); err != nil {
		return nil, err
	}

	return &Record{
		Initiator: initiator,
		Asset:     c.asset,
		Gross:     new(big.Int).Set(gross),
		Burned:    burned,
		Forwarded: forwarded,
	}, nil
}

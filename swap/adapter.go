package swap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/clawpay/settler/custody"
	"github.com/clawpay/settler/types"
)

// ExactInputParams is the instruction handed to the external capability.
type ExactInputParams struct {
	// Path is the encoded route, see EncodePath.
	Path []byte

	// Payer is the custody account the capability pulls the input from. The
	// adapter grants it an allowance of exactly AmountIn before the call.
	Payer types.Identity

	// Recipient is the custody account the realized output must land on.
	Recipient types.Identity

	AmountIn *big.Int

	// AmountOutMinimum bounds slippage. The capability itself must fail the
	// call when the realized output is below it.
	AmountOutMinimum *big.Int
}

// Exchange is the opaque exact-input swap capability. Implementations pull
// AmountIn from the payer, execute the route, credit the output to the
// recipient, and return the realized output; if it is below
// AmountOutMinimum they fail with slippage_exceeded instead.
type Exchange interface {
	// Identity is the spender the adapter approves before invoking.
	Identity() types.Identity

	ExactInput(ctx context.Context, params ExactInputParams) (*big.Int, error)
}

// Adapter is the stateless façade between custody and the exchange.
type Adapter struct {
	exchange Exchange
	vault    *custody.Vault
	mode     types.SlippageMode
}

// NewAdapter wires an exchange to a custody vault under the given slippage
// policy.
func NewAdapter(exchange Exchange, vault *custody.Vault, mode types.SlippageMode) *Adapter {
	return &Adapter{exchange: exchange, vault: vault, mode: mode}
}

// Mode returns the configured slippage policy.
func (a *Adapter) Mode() types.SlippageMode { return a.mode }

// ExactInput swaps amountIn of the custodied input asset along the hop
// route and returns the realized output, which lands on the custody account
// of the route's final asset. The output is not re-checked against minOut
// after the fact; enforcing the minimum is the capability's contract.
func (a *Adapter) ExactInput(ctx context.Context, input types.Asset, hops []types.Hop, amountIn, minOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, types.NewError(types.ErrInvalidAmount, "swap input amount must be positive")
	}
	if minOut == nil {
		minOut = new(big.Int)
	}
	if a.mode == types.SlippageRequired && minOut.Sign() == 0 {
		return nil, types.NewError(types.ErrInvalidAmount, "minimum output is required")
	}
	if len(hops) == 0 {
		return nil, types.NewError(types.ErrInvalidAmount, "swap route must have at least one hop")
	}

	balance := a.vault.Balance(input)
	if balance.Cmp(amountIn) < 0 {
		return nil, types.NewError(types.ErrInsufficientBalance,
			fmt.Sprintf("custody holds %s of %s, need %s", balance, input, amountIn))
	}

	path, err := EncodePath(input, hops)
	if err != nil {
		return nil, err
	}

	// One-time spending approval limited to the exact input.
	if err := a.vault.Approve(input, a.exchange.Identity(), amountIn); err != nil {
		return nil, err
	}

	out, err := a.exchange.ExactInput(ctx, ExactInputParams{
		Path:             path,
		Payer:            a.vault.AssetAccount(input),
		Recipient:        a.vault.AssetAccount(hops[len(hops)-1].Asset),
		AmountIn:         new(big.Int).Set(amountIn),
		AmountOutMinimum: new(big.Int).Set(minOut),
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Sign() < 0 {
		return nil, types.NewError(types.ErrTransferFailed, "swap capability returned an invalid output")
	}
	return out, nil
}

package swap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/clawpay/settler/token"
	"github.com/clawpay/settler/types"
)

// FixedRateExchange is a deterministic Exchange over a token ledger, used in
// tests and examples. It converts the whole route at a fixed numerator/
// denominator rate, pulls its input through the allowance the adapter
// granted, and pays the output from its own inventory, which the test setup
// funds.
type FixedRateExchange struct {
	ledger token.Ledger
	id     types.Identity
	num    *big.Int
	den    *big.Int
}

// NewFixedRateExchange builds an exchange identity converting at num/den.
func NewFixedRateExchange(ledger token.Ledger, id types.Identity, num, den int64) *FixedRateExchange {
	return &FixedRateExchange{
		ledger: ledger,
		id:     id,
		num:    big.NewInt(num),
		den:    big.NewInt(den),
	}
}

// Identity returns the spender identity the adapter approves.
func (x *FixedRateExchange) Identity() types.Identity { return x.id }

// ExactInput converts the route at the fixed rate. The minimum-output check
// happens before any balance moves, so a slippage failure has no effect,
// matching what the adapter's contract demands of the real capability.
func (x *FixedRateExchange) ExactInput(_ context.Context, params ExactInputParams) (*big.Int, error) {
	input, hops, err := DecodePath(params.Path)
	if err != nil {
		return nil, err
	}
	if params.AmountIn == nil || params.AmountIn.Sign() <= 0 {
		return nil, types.NewError(types.ErrInvalidAmount, "exchange input must be positive")
	}

	out := new(big.Int).Mul(params.AmountIn, x.num)
	out.Div(out, x.den)
	if params.AmountOutMinimum != nil && out.Cmp(params.AmountOutMinimum) < 0 {
		return nil, types.NewError(types.ErrSlippageExceeded,
			fmt.Sprintf("output %s below minimum %s", out, params.AmountOutMinimum))
	}

	if err := x.ledger.TransferFrom(input, x.id, params.Payer, x.id, params.AmountIn); err != nil {
		return nil, err
	}
	final := hops[len(hops)-1].Asset
	if err := x.ledger.Transfer(final, x.id, params.Recipient, out); err != nil {
		return nil, err
	}
	return out, nil
}

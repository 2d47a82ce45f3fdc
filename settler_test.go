package settler

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawpay/settler/store"
	"github.com/clawpay/settler/swap"
	"github.com/clawpay/settler/token"
	"github.com/clawpay/settler/types"
)

var (
	owner    = types.Identity{0x01}
	admin    = types.Identity{0x02}
	user     = types.Identity{0x03}
	outsider = types.Identity{0x04}
	treasury = types.Identity{0x05}
	exchID   = types.Identity{0xef}

	usdc = types.Asset{0xa1}
	weth = types.Asset{0xa2}
	ltai = types.Asset{0xa3}
)

type captureSink struct {
	events []types.Event
}

func (c *captureSink) Emit(ev types.Event) { c.events = append(c.events, ev) }

func (c *captureSink) ofKind(kind string) []types.Event {
	var out []types.Event
	for _, ev := range c.events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

func baseParams() types.EngineParams {
	return types.EngineParams{
		DeploymentID:      "test-deploy",
		Owner:             owner,
		PaymentToken:      ltai,
		StableAsset:       usdc,
		IntermediateAsset: weth,
		BurnPercentage:    80,
		Recipient:         treasury,
		PoolFees:          []types.FeeTier{types.FeeTierLow, types.FeeTierMedium},
		Ownership:         types.OwnershipDirect,
		Admins:            types.AdminPolicyStrict,
		Slippage:          types.SlippageRequired,
		Scheme:            types.SchemeEVM,
	}
}

type fixture struct {
	engine *Engine
	ledger *token.MemoryLedger
	sink   *captureSink
}

func newFixture(t *testing.T, params types.EngineParams, opts ...Option) *fixture {
	t.Helper()
	ledger := token.NewMemoryLedger()
	sink := &captureSink{}
	// out = in * 4 / 5
	exchange := swap.NewFixedRateExchange(ledger, exchID, 4, 5)
	ledger.Mint(ltai, exchID, big.NewInt(10_000_000))

	opts = append([]Option{WithExchange(exchange), WithSink(sink)}, opts...)
	engine, err := New(params, ledger, opts...)
	require.NoError(t, err)

	f := &fixture{engine: engine, ledger: ledger, sink: sink}
	require.NoError(t, f.engine.AddAdmin(owner, admin))
	return f
}

func (f *fixture) fundUser(asset types.Asset, amount int64) {
	f.ledger.Mint(asset, user, big.NewInt(amount))
}

func (f *fixture) fundCustody(asset types.Asset, amount int64) {
	f.ledger.Mint(asset, f.engine.CustodyAccount(asset), big.NewInt(amount))
}

func (f *fixture) approve(t *testing.T, asset types.Asset, amount int64) {
	t.Helper()
	require.NoError(t, f.ledger.Approve(asset, user, f.engine.ProgramAccount(), big.NewInt(amount)))
}

func TestNewValidatesParams(t *testing.T) {
	ledger := token.NewMemoryLedger()

	params := baseParams()
	params.Owner = types.ZeroIdentity
	_, err := New(params, ledger)
	require.ErrorIs(t, err, &types.Error{Code: types.ErrInvalidParams})

	params = baseParams()
	params.PaymentToken = types.NativeAsset
	_, err = New(params, ledger)
	require.ErrorIs(t, err, &types.Error{Code: types.ErrInvalidParams})

	params = baseParams()
	params.PoolFees = []types.FeeTier{500, 3000, 10000}
	_, err = New(params, ledger)
	require.ErrorIs(t, err, &types.Error{Code: types.ErrInvalidParams})

	params = baseParams()
	params.PoolFees = []types.FeeTier{500, 3000}
	params.IntermediateAsset = types.Asset{}
	_, err = New(params, ledger)
	require.ErrorIs(t, err, &types.Error{Code: types.ErrInvalidParams})

	_, err = New(baseParams(), nil)
	require.ErrorIs(t, err, &types.Error{Code: types.ErrInvalidParams})
}

func TestProcessPaymentSplits(t *testing.T) {
	f := newFixture(t, baseParams())
	f.fundUser(ltai, 1000)
	f.approve(t, ltai, 1000)

	require.NoError(t, f.engine.ProcessPayment(context.Background(), user, big.NewInt(1000)))

	assert.Equal(t, int64(0), f.ledger.BalanceOf(ltai, user).Int64())
	assert.Equal(t, int64(200), f.ledger.BalanceOf(ltai, treasury).Int64())
	assert.Equal(t, int64(0), f.engine.CustodyBalance(ltai).Int64())

	events := f.sink.ofKind("payment_processed")
	require.Len(t, events, 1)
	ev := events[0].(types.PaymentProcessed)
	assert.Equal(t, user, ev.Initiator)
	assert.Equal(t, int64(1000), ev.Amount.Int64())
	assert.Equal(t, int64(800), ev.Burned.Int64())
	assert.Equal(t, int64(200), ev.Forwarded.Int64())
	assert.NotEmpty(t, ev.Transition)
}

func TestProcessPaymentRequiresApproval(t *testing.T) {
	f := newFixture(t, baseParams())
	f.fundUser(ltai, 1000)

	err := f.engine.ProcessPayment(context.Background(), user, big.NewInt(1000))
	require.ErrorIs(t, err, types.ErrInsufficientAuthorizationSentinel)
	assert.Equal(t, int64(1000), f.ledger.BalanceOf(ltai, user).Int64())
	assert.Empty(t, f.sink.ofKind("payment_processed"))
}

func TestProcessPaymentRejectsBadInputs(t *testing.T) {
	f := newFixture(t, baseParams())

	err := f.engine.ProcessPayment(context.Background(), user, big.NewInt(0))
	require.ErrorIs(t, err, types.ErrInvalidAmountSentinel)

	err = f.engine.ProcessPayment(context.Background(), user, nil)
	require.ErrorIs(t, err, types.ErrInvalidAmountSentinel)

	err = f.engine.ProcessPayment(context.Background(), types.ZeroIdentity, big.NewInt(1))
	require.ErrorIs(t, err, types.ErrInvalidIdentitySentinel)
}

func TestErrorsCarryTransitionID(t *testing.T) {
	f := newFixture(t, baseParams())

	err := f.engine.ProcessPayment(context.Background(), user, big.NewInt(0))
	var terr *types.Error
	require.True(t, errors.As(err, &terr))
	assert.NotEmpty(t, terr.Transition)
}

// The reference route: 1_000_000 USDC in, two hops (USDC→WETH fee 500,
// WETH→LTAI fee 3000), exchange realizes 800_000 LTAI, burn percentage 80.
func TestTokenBalanceSweepReferenceScenario(t *testing.T) {
	f := newFixture(t, baseParams())
	f.fundCustody(usdc, 1_000_000)

	err := f.engine.ProcessTokenBalance(context.Background(), admin, big.NewInt(1_000_000), big.NewInt(700_000))
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.engine.CustodyBalance(usdc).Int64())
	assert.Equal(t, int64(160_000), f.ledger.BalanceOf(ltai, treasury).Int64())

	swept := f.sink.ofKind("balance_swept")
	require.Len(t, swept, 1)
	sw := swept[0].(types.BalanceSwept)
	assert.Equal(t, int64(1_000_000), sw.AmountIn.Int64())
	assert.Equal(t, int64(800_000), sw.AmountOut.Int64())

	payments := f.sink.ofKind("payment_processed")
	require.Len(t, payments, 1)
	ev := payments[0].(types.PaymentProcessed)
	assert.Equal(t, int64(800_000), ev.Amount.Int64())
	assert.Equal(t, int64(640_000), ev.Burned.Int64())
	assert.Equal(t, int64(160_000), ev.Forwarded.Int64())
}

func TestSweepIsAdminGated(t *testing.T) {
	f := newFixture(t, baseParams())
	f.fundCustody(usdc, 1000)

	err := f.engine.ProcessTokenBalance(context.Background(), outsider, big.NewInt(1000), big.NewInt(1))
	require.ErrorIs(t, err, types.ErrUnauthorizedSentinel)
	assert.Equal(t, int64(1000), f.engine.CustodyBalance(usdc).Int64())
}

func TestOwnerTrustedZeroMinimumIsOwnerOnly(t *testing.T) {
	params := baseParams()
	params.Slippage = types.SlippageOwnerTrusted
	f := newFixture(t, params)
	f.fundCustody(usdc, 1000)

	err := f.engine.ProcessTokenBalance(context.Background(), admin, big.NewInt(500), nil)
	require.ErrorIs(t, err, types.ErrUnauthorizedSentinel)

	require.NoError(t, f.engine.ProcessTokenBalance(context.Background(), owner, big.NewInt(500), nil))
	assert.Equal(t, int64(500), f.engine.CustodyBalance(usdc).Int64())
}

func TestSweepSlippageFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, baseParams())
	f.fundCustody(usdc, 1000)

	// rate yields 800, demand more
	err := f.engine.ProcessTokenBalance(context.Background(), admin, big.NewInt(1000), big.NewInt(801))
	require.ErrorIs(t, err, types.ErrSlippageExceededSentinel)
	assert.Equal(t, int64(1000), f.engine.CustodyBalance(usdc).Int64())
	assert.Equal(t, int64(0), f.engine.CustodyBalance(ltai).Int64())
	assert.Empty(t, f.sink.events[1:]) // only the admin_added from setup
}

// faultyExchange moves the input and then fails, to prove the engine
// unwinds partial effects.
type faultyExchange struct {
	ledger *token.MemoryLedger
	id     types.Identity
}

func (x *faultyExchange) Identity() types.Identity { return x.id }

func (x *faultyExchange) ExactInput(_ context.Context, p swap.ExactInputParams) (*big.Int, error) {
	input, _, err := swap.DecodePath(p.Path)
	if err != nil {
		return nil, err
	}
	if err := x.ledger.TransferFrom(input, x.id, p.Payer, x.id, p.AmountIn); err != nil {
		return nil, err
	}
	return nil, types.NewError(types.ErrTransferFailed, "route execution failed")
}

func TestSweepRollsBackPartialEffects(t *testing.T) {
	ledger := token.NewMemoryLedger()
	engine, err := New(baseParams(), ledger, WithExchange(&faultyExchange{ledger: ledger, id: exchID}))
	require.NoError(t, err)
	ledger.Mint(usdc, engine.CustodyAccount(usdc), big.NewInt(1000))

	err = engine.ProcessTokenBalance(context.Background(), owner, big.NewInt(1000), big.NewInt(1))
	require.ErrorIs(t, err, types.ErrTransferFailedSentinel)

	// the exchange's pull was reverted along with the approval
	assert.Equal(t, int64(1000), engine.CustodyBalance(usdc).Int64())
	assert.Equal(t, int64(0), ledger.BalanceOf(usdc, exchID).Int64())
	assert.Equal(t, int64(0), ledger.Allowance(usdc, engine.CustodyAccount(usdc), exchID).Int64())
}

func TestNativeBalanceSweep(t *testing.T) {
	f := newFixture(t, baseParams())
	f.ledger.Mint(types.NativeAsset, f.engine.ProgramAccount(), big.NewInt(1_000_000))

	err := f.engine.ProcessNativeBalance(context.Background(), admin, big.NewInt(1_000_000), big.NewInt(700_000))
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.engine.CustodyBalance(types.NativeAsset).Int64())
	assert.Equal(t, int64(160_000), f.ledger.BalanceOf(ltai, treasury).Int64())
}

func TestSweepWithoutExchange(t *testing.T) {
	ledger := token.NewMemoryLedger()
	engine, err := New(baseParams(), ledger)
	require.NoError(t, err)

	err = engine.ProcessTokenBalance(context.Background(), owner, big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, &types.Error{Code: types.ErrInvalidParams})
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t, baseParams())
	f.fundCustody(weth, 500)

	err := f.engine.Withdraw(outsider, weth, treasury, big.NewInt(100))
	require.ErrorIs(t, err, types.ErrUnauthorizedSentinel)

	err = f.engine.Withdraw(admin, weth, types.ZeroIdentity, big.NewInt(100))
	require.ErrorIs(t, err, types.ErrInvalidIdentitySentinel)

	err = f.engine.Withdraw(admin, weth, treasury, big.NewInt(0))
	require.ErrorIs(t, err, types.ErrInvalidAmountSentinel)

	err = f.engine.Withdraw(admin, weth, treasury, big.NewInt(501))
	require.ErrorIs(t, err, types.ErrInsufficientBalanceSentinel)
	assert.Equal(t, int64(500), f.engine.CustodyBalance(weth).Int64())

	require.NoError(t, f.engine.Withdraw(admin, weth, treasury, big.NewInt(200)))
	assert.Equal(t, int64(300), f.engine.CustodyBalance(weth).Int64())
	assert.Equal(t, int64(200), f.ledger.BalanceOf(weth, treasury).Int64())

	events := f.sink.ofKind("withdrawal")
	require.Len(t, events, 1)
	assert.Equal(t, admin, events[0].(types.Withdrawal).Initiator)
}

func TestWithdrawProtectedAsset(t *testing.T) {
	params := baseParams()
	protected := usdc
	params.ProtectedAsset = &protected
	f := newFixture(t, params)
	f.fundCustody(usdc, 500)

	err := f.engine.Withdraw(owner, usdc, treasury, big.NewInt(100))
	require.ErrorIs(t, err, types.ErrForbiddenAssetSentinel)
	assert.Equal(t, int64(500), f.engine.CustodyBalance(usdc).Int64())
}

func TestWithdrawNativeKeepsReserve(t *testing.T) {
	params := baseParams()
	params.NativeReserve = big.NewInt(100)
	f := newFixture(t, params)
	f.ledger.Mint(types.NativeAsset, f.engine.ProgramAccount(), big.NewInt(500))

	err := f.engine.WithdrawNative(admin, treasury, big.NewInt(401))
	require.ErrorIs(t, err, types.ErrInsufficientBalanceSentinel)

	require.NoError(t, f.engine.WithdrawNative(admin, treasury, big.NewInt(400)))
	assert.Equal(t, int64(100), f.engine.CustodyBalance(types.NativeAsset).Int64())
}

func TestConfigurationMutators(t *testing.T) {
	f := newFixture(t, baseParams())

	err := f.engine.SetBurnPercentage(admin, 50)
	require.ErrorIs(t, err, types.ErrUnauthorizedSentinel)

	err = f.engine.SetBurnPercentage(owner, 101)
	require.ErrorIs(t, err, types.ErrInvalidAmountSentinel)
	assert.Equal(t, uint8(80), f.engine.BurnPercentage())

	require.NoError(t, f.engine.SetBurnPercentage(owner, 50))
	assert.Equal(t, uint8(50), f.engine.BurnPercentage())

	err = f.engine.SetRecipient(owner, types.ZeroIdentity)
	require.ErrorIs(t, err, types.ErrInvalidIdentitySentinel)
	require.NoError(t, f.engine.SetRecipient(owner, outsider))
	assert.Equal(t, outsider, f.engine.Recipient())

	require.NoError(t, f.engine.SetPoolFee(owner, 1, types.FeeTierHigh))
	assert.Equal(t, []types.FeeTier{500, 10000}, f.engine.PoolFees())

	assert.Len(t, f.sink.ofKind("burn_percentage_updated"), 1)
	assert.Len(t, f.sink.ofKind("recipient_updated"), 1)
	assert.Len(t, f.sink.ofKind("pool_fee_updated"), 1)
}

func TestAdminLifecycle(t *testing.T) {
	f := newFixture(t, baseParams())

	err := f.engine.AddAdmin(outsider, outsider)
	require.ErrorIs(t, err, types.ErrUnauthorizedSentinel)

	err = f.engine.AddAdmin(owner, admin)
	require.ErrorIs(t, err, types.ErrAlreadyAdminSentinel)

	require.NoError(t, f.engine.AddAdmin(owner, outsider))
	assert.Equal(t, []types.Identity{admin, outsider}, f.engine.Admins())

	require.NoError(t, f.engine.RemoveAdmin(owner, outsider))
	assert.Equal(t, []types.Identity{admin}, f.engine.Admins())

	// reads do not mutate
	_ = f.engine.Admins()
	assert.Equal(t, []types.Identity{admin}, f.engine.Admins())
}

func TestDirectOwnershipTransfer(t *testing.T) {
	f := newFixture(t, baseParams())

	err := f.engine.ChangeOwner(admin, admin)
	require.ErrorIs(t, err, types.ErrUnauthorizedSentinel)
	assert.Equal(t, owner, f.engine.Owner())

	require.NoError(t, f.engine.ChangeOwner(owner, admin))
	assert.Equal(t, admin, f.engine.Owner())

	events := f.sink.ofKind("owner_changed")
	require.Len(t, events, 1)
}

func TestTwoStepOwnershipTransfer(t *testing.T) {
	params := baseParams()
	params.Ownership = types.OwnershipTwoStep
	f := newFixture(t, params)

	err := f.engine.ChangeOwner(owner, admin)
	require.ErrorIs(t, err, types.ErrUnauthorizedSentinel)

	require.NoError(t, f.engine.ProposeOwner(owner, user))
	assert.Equal(t, user, f.engine.PendingOwner())
	assert.Equal(t, owner, f.engine.Owner())

	err = f.engine.AcceptOwnership(outsider)
	require.ErrorIs(t, err, types.ErrUnauthorizedSentinel)
	assert.Equal(t, owner, f.engine.Owner())

	require.NoError(t, f.engine.AcceptOwnership(user))
	assert.Equal(t, user, f.engine.Owner())
	assert.True(t, f.engine.PendingOwner().IsZero())
}

func TestUnauthorizedMutationsLeaveStateUnchanged(t *testing.T) {
	f := newFixture(t, baseParams())
	before := f.engine.BurnPercentage()

	require.Error(t, f.engine.SetBurnPercentage(outsider, 10))
	require.Error(t, f.engine.SetRecipient(outsider, outsider))
	require.Error(t, f.engine.ChangeOwner(outsider, outsider))
	require.Error(t, f.engine.AddAdmin(outsider, outsider))
	require.Error(t, f.engine.RemoveAdmin(outsider, admin))

	assert.Equal(t, before, f.engine.BurnPercentage())
	assert.Equal(t, treasury, f.engine.Recipient())
	assert.Equal(t, owner, f.engine.Owner())
	assert.Equal(t, []types.Identity{admin}, f.engine.Admins())
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	persisted := store.NewMemoryStore()
	ledger := token.NewMemoryLedger()

	engine, err := New(baseParams(), ledger, WithStore(persisted))
	require.NoError(t, err)
	require.NoError(t, engine.AddAdmin(owner, admin))
	require.NoError(t, engine.SetBurnPercentage(owner, 25))
	require.NoError(t, engine.ChangeOwner(owner, user))

	// same deployment id resumes the persisted role and config state
	resumed, err := New(baseParams(), ledger, WithStore(persisted))
	require.NoError(t, err)
	assert.Equal(t, user, resumed.Owner())
	assert.Equal(t, []types.Identity{admin}, resumed.Admins())
	assert.Equal(t, uint8(25), resumed.BurnPercentage())
}

func TestCustodyAccountsAreDerivable(t *testing.T) {
	f := newFixture(t, baseParams())

	// the same deployment derives the same accounts every time
	other, err := New(baseParams(), f.ledger)
	require.NoError(t, err)
	assert.Equal(t, f.engine.CustodyAccount(usdc), other.CustodyAccount(usdc))
	assert.Equal(t, f.engine.ProgramAccount(), other.ProgramAccount())
	assert.NotEqual(t, f.engine.CustodyAccount(usdc), f.engine.CustodyAccount(ltai))
}

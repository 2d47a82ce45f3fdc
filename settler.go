// Package settler implements a token-payment settlement engine: incoming
// payment-token amounts are split deterministically into a burned portion
// and a forwarded portion, custodied stablecoin or native balances can be
// swept through an external exact-input swap into the payment token first,
// and a small set of privileged identities (one owner, zero or more admins)
// governs configuration and custody withdrawals.
//
// Every public operation is one atomic state transition: it either commits
// fully or leaves no effect. The engine serializes operations internally;
// hosting environments that already order transactions totally get the same
// behavior for free.
package settler

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clawpay/settler/config"
	"github.com/clawpay/settler/custody"
	"github.com/clawpay/settler/logger"
	"github.com/clawpay/settler/metrics"
	"github.com/clawpay/settler/roles"
	"github.com/clawpay/settler/settlement"
	"github.com/clawpay/settler/store"
	"github.com/clawpay/settler/swap"
	"github.com/clawpay/settler/token"
	"github.com/clawpay/settler/types"
)

// Version information.
const (
	Version = "1.0.0"
)

var validate = validator.New()

// Engine is one settlement deployment: role store, configuration, custody
// vault, settlement core, and (optionally) a swap adapter, all bound to a
// single ledger.
type Engine struct {
	mu sync.RWMutex

	params types.EngineParams
	ledger token.Ledger

	vault *custody.Vault
	core  *settlement.Core

	roles    *roles.Store
	settings *config.Settings

	exchange swap.Exchange
	adapter  *swap.Adapter

	log     logger.Logger
	metrics metrics.Recorder
	sink    types.Sink
	persist store.Store
	now     func() time.Time
}

// New initializes an engine against the given ledger. When a store is
// configured and already holds a snapshot for the deployment, the persisted
// role and configuration state is resumed and the corresponding params
// fields are ignored.
func New(params types.EngineParams, ledger token.Ledger, opts ...Option) (*Engine, error) {
	if ledger == nil {
		return nil, types.NewError(types.ErrInvalidParams, "ledger is required")
	}
	if err := validate.Struct(&params); err != nil {
		return nil, &types.Error{Code: types.ErrInvalidParams, Message: fmt.Sprintf("invalid engine params: %v", err)}
	}
	if params.PaymentToken.IsNative() {
		return nil, types.NewError(types.ErrInvalidParams, "payment token cannot be the native currency")
	}
	if !params.StableAsset.IsZero() {
		switch len(params.PoolFees) {
		case 1:
			// direct stable→payment route
		case 2:
			if params.IntermediateAsset.IsZero() {
				return nil, types.NewError(types.ErrInvalidParams, "two-hop route requires an intermediate asset")
			}
		default:
			return nil, types.NewError(types.ErrInvalidParams, "swap route needs one fee tier per hop")
		}
	}

	e := &Engine{
		params:  params,
		ledger:  ledger,
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		sink:    types.NoopSink{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.vault = custody.NewVault(ledger, params.Scheme, params.DeploymentID, params.NativeReserve)
	e.core = settlement.NewCore(e.vault, params.PaymentToken)
	if e.exchange != nil {
		e.adapter = swap.NewAdapter(e.exchange, e.vault, params.Slippage)
	}

	if err := e.restoreOrInit(); err != nil {
		return nil, err
	}

	e.log.Info("settlement engine initialized", map[string]any{
		"deployment": params.DeploymentID,
		"owner":      e.roles.Owner().Hex(),
		"burn_pct":   e.settings.BurnPercentage(),
	})
	return e, nil
}

func (e *Engine) restoreOrInit() error {
	if e.persist != nil {
		snapshot, ok, err := e.persist.Load(e.params.DeploymentID)
		if err != nil {
			return fmt.Errorf("load persisted state: %w", err)
		}
		if ok {
			roleStore, err := roles.FromState(snapshot.Roles)
			if err != nil {
				return err
			}
			settings, err := config.FromState(snapshot.Config)
			if err != nil {
				return err
			}
			e.roles = roleStore
			e.settings = settings
			return nil
		}
	}

	roleStore, err := roles.NewStore(e.params.Ownership, e.params.Admins, e.params.Owner)
	if err != nil {
		return err
	}
	settings, err := config.New(e.params.BurnPercentage, e.params.Recipient, e.params.PoolFees)
	if err != nil {
		return err
	}
	e.roles = roleStore
	e.settings = settings

	if e.persist != nil {
		if err := e.persist.Save(e.snapshot()); err != nil {
			return fmt.Errorf("persist initial state: %w", err)
		}
	}
	return nil
}

func (e *Engine) snapshot() store.Snapshot {
	return store.Snapshot{
		Deployment: e.params.DeploymentID,
		Roles:      e.roles.Snapshot(),
		Config:     e.settings.Snapshot(),
	}
}

// txState is the working copy an operation mutates. It is swapped in only
// when the operation succeeds.
type txState struct {
	roles    *roles.Store
	settings *config.Settings
}

// run executes one atomic state transition: the operation works on cloned
// role/config state and a ledger snapshot, and either everything commits or
// everything is discarded.
func (e *Engine) run(op string, fn func(id string, st *txState) ([]types.Event, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	start := e.now()
	labels := map[string]string{"deployment": e.params.DeploymentID}

	var restore func()
	if tl, ok := e.ledger.(token.Transactional); ok {
		restore = tl.Snapshot()
	}
	st := &txState{roles: e.roles.Clone(), settings: e.settings.Clone()}

	events, err := fn(id, st)
	if err != nil {
		if restore != nil {
			restore()
		}
		var terr *types.Error
		if errors.As(err, &terr) && terr.Transition == "" {
			terr.Transition = id
		}
		e.metrics.IncCounter("operation_failed", labels)
		e.log.Warn("operation aborted", map[string]any{
			"operation":  op,
			"transition": id,
			"error":      err.Error(),
		})
		return err
	}

	if e.persist != nil {
		pending := store.Snapshot{
			Deployment: e.params.DeploymentID,
			Roles:      st.roles.Snapshot(),
			Config:     st.settings.Snapshot(),
		}
		if err := e.persist.Save(pending); err != nil {
			if restore != nil {
				restore()
			}
			e.metrics.IncCounter("operation_failed", labels)
			return fmt.Errorf("persist state for transition %s: %w", id, err)
		}
	}

	e.roles = st.roles
	e.settings = st.settings

	for _, ev := range events {
		e.sink.Emit(ev)
		e.metrics.IncCounter(ev.Kind(), labels)
	}
	e.metrics.ObserveLatency(op, e.now().Sub(start), labels)
	e.log.Info("operation committed", map[string]any{
		"operation":  op,
		"transition": id,
	})
	return nil
}

// ProcessPayment pulls amount of the payment token from the caller into
// custody and settles it: the burn portion is destroyed, the rest forwarded
// to the configured recipient. The caller must have approved the program
// account for at least amount.
func (e *Engine) ProcessPayment(ctx context.Context, caller types.Identity, amount *big.Int) error {
	return e.run("process_payment", func(id string, st *txState) ([]types.Event, error) {
		if caller.IsZero() {
			return nil, types.NewError(types.ErrInvalidIdentity, "caller must not be the zero identity")
		}
		if amount == nil || amount.Sign() <= 0 {
			return nil, types.NewError(types.ErrInvalidAmount, "payment amount must be positive")
		}
		if err := e.vault.Pull(e.params.PaymentToken, caller, amount); err != nil {
			return nil, err
		}
		record, err := e.core.Settle(caller, amount, st.settings)
		if err != nil {
			return nil, err
		}
		return []types.Event{e.paymentEvent(id, record)}, nil
	})
}

// ProcessTokenBalance sweeps amount of the custodied stable asset through
// the swap route into the payment token and settles the realized output.
// Admin-gated; under the owner-trusted slippage policy a zero minimum
// output is owner-only.
func (e *Engine) ProcessTokenBalance(ctx context.Context, caller types.Identity, amount, minOut *big.Int) error {
	return e.sweep(ctx, "process_token_balance", caller, e.params.StableAsset, amount, minOut)
}

// ProcessNativeBalance sweeps amount of the custodied native balance
// through the swap route into the payment token and settles the realized
// output. Same gating as ProcessTokenBalance.
func (e *Engine) ProcessNativeBalance(ctx context.Context, caller types.Identity, amount, minOut *big.Int) error {
	return e.sweep(ctx, "process_native_balance", caller, types.NativeAsset, amount, minOut)
}

func (e *Engine) sweep(ctx context.Context, op string, caller types.Identity, input types.Asset, amount, minOut *big.Int) error {
	return e.run(op, func(id string, st *txState) ([]types.Event, error) {
		if e.adapter == nil {
			return nil, types.NewError(types.ErrInvalidParams, "no swap capability configured")
		}
		if input.IsZero() {
			return nil, types.NewError(types.ErrInvalidParams, "no sweep asset configured")
		}
		if minOut == nil {
			minOut = new(big.Int)
		}
		if e.adapter.Mode() == types.SlippageOwnerTrusted && minOut.Sign() == 0 {
			if !st.roles.IsOwner(caller) {
				return nil, types.NewError(types.ErrUnauthorized, "zero minimum output is owner-only")
			}
		} else if !st.roles.IsOwnerOrAdmin(caller) {
			return nil, types.NewError(types.ErrUnauthorized, "balance sweeps require owner or admin")
		}

		hops, err := e.route(st.settings)
		if err != nil {
			return nil, err
		}
		out, err := e.adapter.ExactInput(ctx, input, hops, amount, minOut)
		if err != nil {
			return nil, err
		}
		record, err := e.core.Settle(caller, out, st.settings)
		if err != nil {
			return nil, err
		}
		swept := types.BalanceSwept{
			Transition: id,
			Initiator:  caller,
			InputAsset: input,
			AmountIn:   new(big.Int).Set(amount),
			AmountOut:  out,
			MinOut:     new(big.Int).Set(minOut),
		}
		return []types.Event{swept, e.paymentEvent(id, record)}, nil
	})
}

// route builds the swap hop list from the live pool-fee configuration.
func (e *Engine) route(settings *config.Settings) ([]types.Hop, error) {
	fees := settings.PoolFees()
	switch len(fees) {
	case 1:
		return []types.Hop{{Asset: e.params.PaymentToken, Fee: fees[0]}}, nil
	case 2:
		return []types.Hop{
			{Asset: e.params.IntermediateAsset, Fee: fees[0]},
			{Asset: e.params.PaymentToken, Fee: fees[1]},
		}, nil
	default:
		return nil, types.NewError(types.ErrInvalidParams, "swap route not configured")
	}
}

func (e *Engine) paymentEvent(id string, record *settlement.Record) types.PaymentProcessed {
	return types.PaymentProcessed{
		Transition: id,
		Initiator:  record.Initiator,
		Asset:      record.Asset,
		Amount:     record.Gross,
		Burned:     record.Burned,
		Forwarded:  record.Forwarded,
		Timestamp:  e.now(),
	}
}

// AddAdmin adds an identity to the admin set. Owner-only; duplicate
// handling follows the configured admin policy.
func (e *Engine) AddAdmin(caller, admin types.Identity) error {
	return e.run("add_admin", func(id string, st *txState) ([]types.Event, error) {
		added, err := st.roles.AddAdmin(caller, admin)
		if err != nil {
			return nil, err
		}
		if !added {
			return nil, nil
		}
		return []types.Event{types.AdminAdded{Transition: id, Admin: admin}}, nil
	})
}

// RemoveAdmin removes an identity from the admin set. Owner-only.
func (e *Engine) RemoveAdmin(caller, admin types.Identity) error {
	return e.run("remove_admin", func(id string, st *txState) ([]types.Event, error) {
		removed, err := st.roles.RemoveAdmin(caller, admin)
		if err != nil {
			return nil, err
		}
		if !removed {
			return nil, nil
		}
		return []types.Event{types.AdminRemoved{Transition: id, Admin: admin}}, nil
	})
}

// ChangeOwner performs a direct one-step ownership transfer (direct mode
// deployments only).
func (e *Engine) ChangeOwner(caller, next types.Identity) error {
	return e.run("change_owner", func(id string, st *txState) ([]types.Event, error) {
		previous := st.roles.Owner()
		if err := st.roles.SetOwner(caller, next); err != nil {
			return nil, err
		}
		return []types.Event{types.OwnerChanged{Transition: id, Previous: previous, Owner: next}}, nil
	})
}

// ProposeOwner records a pending two-step ownership transfer (two-step mode
// deployments only).
func (e *Engine) ProposeOwner(caller, next types.Identity) error {
	return e.run("propose_owner", func(id string, st *txState) ([]types.Event, error) {
		if err := st.roles.ProposeOwner(caller, next); err != nil {
			return nil, err
		}
		return []types.Event{types.OwnerProposed{Transition: id, Current: st.roles.Owner(), Proposed: next}}, nil
	})
}

// AcceptOwnership completes a pending two-step transfer. Only the pending
// owner may call.
func (e *Engine) AcceptOwnership(caller types.Identity) error {
	return e.run("accept_ownership", func(id string, st *txState) ([]types.Event, error) {
		previous := st.roles.Owner()
		if err := st.roles.AcceptOwnership(caller); err != nil {
			return nil, err
		}
		return []types.Event{types.OwnerChanged{Transition: id, Previous: previous, Owner: st.roles.Owner()}}, nil
	})
}

// Withdraw moves amount of a custodied asset to the destination.
// Admin-gated; the protected asset, when configured, cannot leave custody
// this way. Native currency routes through the reserve-aware native path.
func (e *Engine) Withdraw(caller types.Identity, asset types.Asset, destination types.Identity, amount *big.Int) error {
	return e.run("withdraw", func(id string, st *txState) ([]types.Event, error) {
		if !st.roles.IsOwnerOrAdmin(caller) {
			return nil, types.NewError(types.ErrUnauthorized, "withdrawals require owner or admin")
		}
		if destination.IsZero() {
			return nil, types.NewError(types.ErrInvalidIdentity, "destination must not be the zero identity")
		}
		if amount == nil || amount.Sign() <= 0 {
			return nil, types.NewError(types.ErrInvalidAmount, "withdrawal amount must be positive")
		}
		if e.params.ProtectedAsset != nil && asset == *e.params.ProtectedAsset {
			return nil, types.NewError(types.ErrForbiddenAsset, fmt.Sprintf("%s cannot be withdrawn", asset))
		}
		var err error
		if asset.IsNative() {
			err = e.vault.ReleaseNative(destination, amount)
		} else {
			err = e.vault.Release(asset, destination, amount)
		}
		if err != nil {
			return nil, err
		}
		ev := types.Withdrawal{
			Transition:  id,
			Initiator:   caller,
			Asset:       asset,
			Destination: destination,
			Amount:      new(big.Int).Set(amount),
		}
		return []types.Event{ev}, nil
	})
}

// WithdrawNative moves native currency out of the program account, keeping
// the configured reserve floor. Admin-gated.
func (e *Engine) WithdrawNative(caller, destination types.Identity, amount *big.Int) error {
	return e.Withdraw(caller, types.NativeAsset, destination, amount)
}

// SetBurnPercentage updates the burn percentage. Owner-only; values above
// 100 are rejected.
func (e *Engine) SetBurnPercentage(caller types.Identity, p uint8) error {
	return e.run("set_burn_percentage", func(id string, st *txState) ([]types.Event, error) {
		if !st.roles.IsOwner(caller) {
			return nil, types.NewError(types.ErrUnauthorized, "only the owner can change the burn percentage")
		}
		previous, err := st.settings.SetBurnPercentage(p)
		if err != nil {
			return nil, err
		}
		return []types.Event{types.BurnPercentageUpdated{Transition: id, Previous: previous, Percentage: p}}, nil
	})
}

// SetRecipient updates the forwarding recipient. Owner-only; the zero
// identity is rejected.
func (e *Engine) SetRecipient(caller, recipient types.Identity) error {
	return e.run("set_recipient", func(id string, st *txState) ([]types.Event, error) {
		if !st.roles.IsOwner(caller) {
			return nil, types.NewError(types.ErrUnauthorized, "only the owner can change the recipient")
		}
		previous, err := st.settings.SetRecipient(recipient)
		if err != nil {
			return nil, err
		}
		return []types.Event{types.RecipientUpdated{Transition: id, Previous: previous, Recipient: recipient}}, nil
	})
}

// SetPoolFee updates the fee tier for one hop of the swap route.
// Owner-only.
func (e *Engine) SetPoolFee(caller types.Identity, hop int, fee types.FeeTier) error {
	return e.run("set_pool_fee", func(id string, st *txState) ([]types.Event, error) {
		if !st.roles.IsOwner(caller) {
			return nil, types.NewError(types.ErrUnauthorized, "only the owner can change pool fees")
		}
		previous, err := st.settings.SetPoolFee(hop, fee)
		if err != nil {
			return nil, err
		}
		return []types.Event{types.PoolFeeUpdated{Transition: id, Hop: hop, Previous: previous, Fee: fee}}, nil
	})
}

// Owner returns the current owner.
func (e *Engine) Owner() types.Identity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roles.Owner()
}

// PendingOwner returns the proposed owner, or the zero identity when no
// transfer is pending.
func (e *Engine) PendingOwner() types.Identity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roles.PendingOwner()
}

// Admins returns the admin set in insertion order. Reads never mutate
// state.
func (e *Engine) Admins() []types.Identity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roles.Admins()
}

// IsOwnerOrAdmin reports whether the identity passes the admin gate.
func (e *Engine) IsOwnerOrAdmin(caller types.Identity) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roles.IsOwnerOrAdmin(caller)
}

// BurnPercentage returns the live burn percentage.
func (e *Engine) BurnPercentage() uint8 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings.BurnPercentage()
}

// Recipient returns the live forwarding recipient.
func (e *Engine) Recipient() types.Identity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings.Recipient()
}

// PoolFees returns the live per-hop fee tiers.
func (e *Engine) PoolFees() []types.FeeTier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings.PoolFees()
}

// ProgramAccount returns the deployment's well-known account. Callers
// approve it before ProcessPayment.
func (e *Engine) ProgramAccount() types.Identity {
	return e.vault.ProgramAccount()
}

// CustodyAccount returns the derivable custody sub-account for an asset.
func (e *Engine) CustodyAccount(asset types.Asset) types.Identity {
	return e.vault.AssetAccount(asset)
}

// CustodyBalance returns the custodied amount of an asset.
func (e *Engine) CustodyBalance(asset types.Asset) *big.Int {
	return e.vault.Balance(asset)
}

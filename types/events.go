package types

import (
	"math/big"
	"time"
)

// Event is a record emitted for off-chain observers after a committed state
// transition. Events are ephemeral: the engine hands them to the configured
// sink and keeps nothing.
type Event interface {
	Kind() string
}

// Sink receives committed events. Implementations must not block.
type Sink interface {
	Emit(event Event)
}

// NoopSink discards all events.
type NoopSink struct{}

func (NoopSink) Emit(Event) {}

// PaymentProcessed records a completed settlement.
type PaymentProcessed struct {
	Transition string    `json:"transition"`
	Initiator  Identity  `json:"initiator"`
	Asset      Asset     `json:"asset"`
	Amount     *big.Int  `json:"amount"`
	Burned     *big.Int  `json:"burned"`
	Forwarded  *big.Int  `json:"forwarded"`
	Timestamp  time.Time `json:"timestamp"`
}

func (PaymentProcessed) Kind() string { return "payment_processed" }

// BalanceSwept records a custodied balance pulled through the swap route
// before settlement.
type BalanceSwept struct {
	Transition string   `json:"transition"`
	Initiator  Identity `json:"initiator"`
	InputAsset Asset    `json:"inputAsset"`
	AmountIn   *big.Int `json:"amountIn"`
	AmountOut  *big.Int `json:"amountOut"`
	MinOut     *big.Int `json:"minOut"`
}

func (BalanceSwept) Kind() string { return "balance_swept" }

// AdminAdded records a new admin identity.
type AdminAdded struct {
	Transition string   `json:"transition"`
	Admin      Identity `json:"admin"`
}

func (AdminAdded) Kind() string { return "admin_added" }

// AdminRemoved records an admin identity removal.
type AdminRemoved struct {
	Transition string   `json:"transition"`
	Admin      Identity `json:"admin"`
}

func (AdminRemoved) Kind() string { return "admin_removed" }

// OwnerProposed records a pending two-step ownership transfer.
type OwnerProposed struct {
	Transition string   `json:"transition"`
	Current    Identity `json:"current"`
	Proposed   Identity `json:"proposed"`
}

func (OwnerProposed) Kind() string { return "owner_proposed" }

// OwnerChanged records a completed ownership transfer, direct or accepted.
type OwnerChanged struct {
	Transition string   `json:"transition"`
	Previous   Identity `json:"previous"`
	Owner      Identity `json:"owner"`
}

func (OwnerChanged) Kind() string { return "owner_changed" }

// BurnPercentageUpdated records a burn-percentage change.
type BurnPercentageUpdated struct {
	Transition string `json:"transition"`
	Previous   uint8  `json:"previous"`
	Percentage uint8  `json:"percentage"`
}

func (BurnPercentageUpdated) Kind() string { return "burn_percentage_updated" }

// RecipientUpdated records a forwarding-recipient change.
type RecipientUpdated struct {
	Transition string   `json:"transition"`
	Previous   Identity `json:"previous"`
	Recipient  Identity `json:"recipient"`
}

func (RecipientUpdated) Kind() string { return "recipient_updated" }

// PoolFeeUpdated records a per-hop pool fee change.
type PoolFeeUpdated struct {
	Transition string  `json:"transition"`
	Hop        int     `json:"hop"`
	Previous   FeeTier `json:"previous"`
	Fee        FeeTier `json:"fee"`
}

func (PoolFeeUpdated) Kind() string { return "pool_fee_updated" }

// Withdrawal records an admin-gated custody withdrawal.
type Withdrawal struct {
	Transition  string   `json:"transition"`
	Initiator   Identity `json:"initiator"`
	Asset       Asset    `json:"asset"`
	Destination Identity `json:"destination"`
	Amount      *big.Int `json:"amount"`
}

func (Withdrawal) Kind() string { return "withdrawal" }

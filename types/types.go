// Package types holds the shared value types of the settlement engine:
// identities, assets, deployment parameters, the error taxonomy, and the
// records emitted for off-chain observers.
package types

import (
	"math/big"
)

// OwnershipMode selects the ownership-transfer state machine shape.
type OwnershipMode string

const (
	// OwnershipDirect swaps the owner in a single owner-only call.
	OwnershipDirect OwnershipMode = "direct"
	// OwnershipTwoStep requires a propose/accept handshake with the new owner.
	OwnershipTwoStep OwnershipMode = "two-step"
)

// AdminPolicy selects how duplicate admin adds and missing admin removes are
// treated.
type AdminPolicy string

const (
	// AdminPolicyStrict rejects duplicate adds (already_admin) and removes of
	// unknown identities (not_admin).
	AdminPolicyStrict AdminPolicy = "strict"
	// AdminPolicyIdempotent treats them as no-ops.
	AdminPolicyIdempotent AdminPolicy = "idempotent"
)

// SlippageMode selects whether a minimum swap output is mandatory.
type SlippageMode string

const (
	// SlippageRequired rejects sweeps with a zero minimum output.
	SlippageRequired SlippageMode = "required"
	// SlippageOwnerTrusted permits a zero minimum but restricts zero-minimum
	// sweeps to the owner.
	SlippageOwnerTrusted SlippageMode = "owner-trusted"
)

// AccountScheme selects how custody sub-accounts are derived from the
// deployment identifier and an asset identifier.
type AccountScheme string

const (
	// SchemeEVM derives custody accounts with keccak over deployment and
	// asset bytes, CREATE2-style.
	SchemeEVM AccountScheme = "evm"
	// SchemeSolana derives custody accounts as program-derived addresses
	// seeded with the asset mint.
	SchemeSolana AccountScheme = "solana"
)

// EngineParams is the full deployment configuration supplied at
// initialization. Mutable fields (burn percentage, recipient, pool fees)
// seed the live configuration and change only through the owner-gated
// mutators afterwards.
type EngineParams struct {
	// DeploymentID namespaces custody sub-account derivation so two engine
	// instances never collide on the same ledger.
	DeploymentID string `json:"deploymentId" validate:"required"`

	Owner        Identity `json:"owner" validate:"required"`
	PaymentToken Asset    `json:"paymentToken" validate:"required"`

	// StableAsset is the accepted incoming asset for balance sweeps. Optional
	// for deployments that only take the payment token directly.
	StableAsset Asset `json:"stableAsset,omitempty"`

	// IntermediateAsset is the middle hop of the stable→payment route (WETH
	// in the reference deployment). Required whenever StableAsset is set.
	IntermediateAsset Asset `json:"intermediateAsset,omitempty"`

	BurnPercentage uint8    `json:"burnPercentage" validate:"lte=100"`
	Recipient      Identity `json:"recipient" validate:"required"`

	// PoolFees holds one fee tier per hop of the stable→payment route, in
	// hop order.
	PoolFees []FeeTier `json:"poolFees,omitempty"`

	Ownership OwnershipMode `json:"ownership" validate:"required,oneof=direct two-step"`
	Admins    AdminPolicy   `json:"admins" validate:"required,oneof=strict idempotent"`
	Slippage  SlippageMode  `json:"slippage" validate:"required,oneof=required owner-trusted"`
	Scheme    AccountScheme `json:"scheme" validate:"required,oneof=evm solana"`

	// ProtectedAsset, when set, cannot be withdrawn through the generic
	// withdraw operation (forbidden_asset).
	ProtectedAsset *Asset `json:"protectedAsset,omitempty"`

	// NativeReserve is the native balance floor a native withdrawal must
	// leave in custody. Mirrors the rent-exemption floor on deployments that
	// require one. Nil means no floor.
	NativeReserve *big.Int `json:"nativeReserve,omitempty"`
}

// Hop is one leg of a multi-hop swap route: the asset the leg produces and
// the fee tier of the pool it crosses.
type Hop struct {
	Asset Asset   `json:"asset"`
	Fee   FeeTier `json:"fee"`
}

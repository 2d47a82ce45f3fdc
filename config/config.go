// Package config holds the mutable settlement configuration: the burn
// percentage, the forwarding recipient, and the per-hop pool fee tiers of
// the swap route. Mutation is validated here; who may mutate is the
// engine's concern.
package config

import (
	"fmt"

	"github.com/clawpay/settler/types"
)

// Settings is the live configuration singleton of one deployment.
type Settings struct {
	burnPercentage uint8
	recipient      types.Identity
	poolFees       []types.FeeTier
}

// New validates and builds the initial configuration.
func New(burnPercentage uint8, recipient types.Identity, poolFees []types.FeeTier) (*Settings, error) {
	if burnPercentage > 100 {
		return nil, types.NewError(types.ErrInvalidAmount,
			fmt.Sprintf("burn percentage %d exceeds 100", burnPercentage))
	}
	if recipient.IsZero() {
		return nil, types.NewError(types.ErrInvalidIdentity, "recipient must not be the zero identity")
	}
	s := &Settings{burnPercentage: burnPercentage, recipient: recipient}
	if len(poolFees) > 0 {
		s.poolFees = make([]types.FeeTier, len(poolFees))
		copy(s.poolFees, poolFees)
	}
	return s, nil
}

// BurnPercentage returns the current burn percentage in [0,100].
func (s *Settings) BurnPercentage() uint8 { return s.burnPercentage }

// Recipient returns the forwarding recipient.
func (s *Settings) Recipient() types.Identity { return s.recipient }

// PoolFees returns a copy of the per-hop fee tiers.
func (s *Settings) PoolFees() []types.FeeTier {
	out := make([]types.FeeTier, len(s.poolFees))
	copy(out, s.poolFees)
	return out
}

// PoolFee returns the fee tier for the given hop index.
func (s *Settings) PoolFee(hop int) (types.FeeTier, error) {
	if hop < 0 || hop >= len(s.poolFees) {
		return 0, types.NewError(types.ErrInvalidAmount, fmt.Sprintf("hop %d out of range", hop))
	}
	return s.poolFees[hop], nil
}

// SetBurnPercentage updates the burn percentage, returning the previous
// value. Values above 100 are rejected and leave the configuration
// unchanged.
func (s *Settings) SetBurnPercentage(p uint8) (uint8, error) {
	if p > 100 {
		return s.burnPercentage, types.NewError(types.ErrInvalidAmount,
			fmt.Sprintf("burn percentage %d exceeds 100", p))
	}
	prev := s.burnPercentage
	s.burnPercentage = p
	return prev, nil
}

// SetRecipient updates the forwarding recipient, returning the previous
// value. The zero identity is rejected.
func (s *Settings) SetRecipient(recipient types.Identity) (types.Identity, error) {
	if recipient.IsZero() {
		return s.recipient, types.NewError(types.ErrInvalidIdentity, "recipient must not be the zero identity")
	}
	prev := s.recipient
	s.recipient = recipient
	return prev, nil
}

// SetPoolFee updates the fee tier for one hop, returning the previous value.
func (s *Settings) SetPoolFee(hop int, fee types.FeeTier) (types.FeeTier, error) {
	if hop < 0 || hop >= len(s.poolFees) {
		return 0, types.NewError(types.ErrInvalidAmount, fmt.Sprintf("hop %d out of range", hop))
	}
	if fee == 0 {
		return s.poolFees[hop], types.NewError(types.ErrInvalidAmount, "fee tier must be non-zero")
	}
	prev := s.poolFees[hop]
	s.poolFees[hop] = fee
	return prev, nil
}

// Clone deep-copies the settings.
func (s *Settings) Clone() *Settings {
	clone := &Settings{burnPercentage: s.burnPercentage, recipient: s.recipient}
	if len(s.poolFees) > 0 {
		clone.poolFees = make([]types.FeeTier, len(s.poolFees))
		copy(clone.poolFees, s.poolFees)
	}
	return clone
}

// State is the serializable snapshot of the configuration.
type State struct {
	BurnPercentage uint8           `json:"burnPercentage"`
	Recipient      types.Identity  `json:"recipient"`
	PoolFees       []types.FeeTier `json:"poolFees,omitempty"`
}

// Snapshot exports the settings for persistence.
func (s *Settings) Snapshot() State {
	return State{BurnPercentage: s.burnPercentage, Recipient: s.recipient, PoolFees: s.PoolFees()}
}

// FromState rebuilds settings from a persisted snapshot.
func FromState(state State) (*Settings, error) {
	return New(state.BurnPercentage, state.Recipient, state.PoolFees)
}

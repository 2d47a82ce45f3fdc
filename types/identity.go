package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

// Identity is a 20-byte account identifier in the settlement engine. EVM
// deployments use the address bytes directly; Solana deployments map a
// 32-byte public key onto an Identity by truncation at the boundary (see
// IdentityFromPublicKey) and keep the full key only for custody derivation.
type Identity [20]byte

// ZeroIdentity is the null identity. It is never a valid owner, admin,
// recipient, or withdrawal destination.
var ZeroIdentity Identity

// IdentityFromHex parses a 0x-prefixed hex address into an Identity.
func IdentityFromHex(s string) (Identity, error) {
	if !common.IsHexAddress(s) {
		return ZeroIdentity, fmt.Errorf("invalid identity %q", s)
	}
	return Identity(common.HexToAddress(s)), nil
}

// IdentityFromPublicKey derives an Identity from a Solana public key. The
// first 20 bytes of the key are used; collisions are not a concern because
// identities are only compared against values produced the same way.
func IdentityFromPublicKey(key solana.PublicKey) Identity {
	var id Identity
	copy(id[:], key.Bytes()[:20])
	return id
}

// IsZero reports whether the identity is the null identity.
func (id Identity) IsZero() bool {
	return id == ZeroIdentity
}

// Address returns the identity as a go-ethereum address.
func (id Identity) Address() common.Address {
	return common.Address(id)
}

// Hex returns the checksummed hex encoding.
func (id Identity) Hex() string {
	return common.Address(id).Hex()
}

func (id Identity) String() string {
	return id.Hex()
}

// MarshalText encodes the identity as checksummed hex for JSON and map keys.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText parses a hex-encoded identity.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := IdentityFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Asset identifies a token contract or mint. The reserved NativeAsset value
// stands in for the deployment's native currency (ETH, SOL).
type Asset Identity

// NativeAsset is the conventional 0xeeee…eeee marker for the native currency.
var NativeAsset = Asset{
	0xee, 0xee, 0xee, 0xee, 0xee, 0xee, 0xee, 0xee, 0xee, 0xee,
	0xee, 0xee, 0xee, 0xee, 0xee, 0xee, 0xee, 0xee, 0xee, 0xee,
}

// AssetFromHex parses a 0x-prefixed hex address into an Asset.
func AssetFromHex(s string) (Asset, error) {
	id, err := IdentityFromHex(s)
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset: %w", err)
	}
	return Asset(id), nil
}

// IsNative reports whether the asset is the native-currency marker.
func (a Asset) IsNative() bool {
	return a == NativeAsset
}

// IsZero reports whether the asset is unset.
func (a Asset) IsZero() bool {
	return Identity(a).IsZero()
}

// Address returns the asset as a go-ethereum address.
func (a Asset) Address() common.Address {
	return common.Address(a)
}

func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return Identity(a).Hex()
}

// MarshalText encodes the asset as hex, or "native" for the native marker.
func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a hex-encoded asset or the "native" marker.
func (a *Asset) UnmarshalText(text []byte) error {
	if string(text) == "native" {
		*a = NativeAsset
		return nil
	}
	parsed, err := AssetFromHex(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// FeeTier identifies the fee bracket of a liquidity pool used for one swap
// hop, expressed in hundredths of a basis point (500 = 0.05%, 3000 = 0.3%).
type FeeTier uint32

const (
	FeeTierLowest FeeTier = 100
	FeeTierLow    FeeTier = 500
	FeeTierMedium FeeTier = 3000
	FeeTierHigh   FeeTier = 10000
)

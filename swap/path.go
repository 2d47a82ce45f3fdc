// Package swap adapts the external exact-input swap capability: it encodes
// multi-hop routes, grants the capability its one-time spending approval,
// and routes the realized output back into custody.
package swap

import (
	"github.com/clawpay/settler/types"
)

// EncodePath packs a route as tokenIn ‖ fee ‖ token ‖ fee ‖ token…, each
// asset 20 bytes and each fee tier 3 bytes big-endian, the layout the
// exact-input capability consumes.
func EncodePath(input types.Asset, hops []types.Hop) ([]byte, error) {
	if input.IsZero() {
		return nil, types.NewError(types.ErrInvalidIdentity, "input asset must not be zero")
	}
	if len(hops) == 0 {
		return nil, types.NewError(types.ErrInvalidAmount, "swap route must have at least one hop")
	}
	path := make([]byte, 0, 20+len(hops)*23)
	path = append(path, input.Address().Bytes()...)
	for _, hop := range hops {
		if hop.Asset.IsZero() {
			return nil, types.NewError(types.ErrInvalidIdentity, "hop asset must not be zero")
		}
		if hop.Fee == 0 {
			return nil, types.NewError(types.ErrInvalidAmount, "hop fee tier must be non-zero")
		}
		path = append(path, byte(hop.Fee>>16), byte(hop.Fee>>8), byte(hop.Fee))
		path = append(path, hop.Asset.Address().Bytes()...)
	}
	return path, nil
}

// DecodePath reverses EncodePath. Used by exchange fakes and observers.
func DecodePath(path []byte) (types.Asset, []types.Hop, error) {
	if len(path) < 43 || (len(path)-20)%23 != 0 {
		return types.Asset{}, nil, types.NewError(types.ErrInvalidAmount, "malformed swap path")
	}
	var input types.Asset
	copy(input[:], path[:20])
	rest := path[20:]
	hops := make([]types.Hop, 0, len(rest)/23)
	for len(rest) > 0 {
		fee := types.FeeTier(rest[0])<<16 | types.FeeTier(rest[1])<<8 | types.FeeTier(rest[2])
		var asset types.Asset
		copy(asset[:], rest[3:23])
		hops = append(hops, types.Hop{Asset: asset, Fee: fee})
		rest = rest[23:]
	}
	return input, hops, nil
}

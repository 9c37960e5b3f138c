package types

import (
	"github.com/holiman/uint256"
)

// Wei is an amount in the smallest currency unit.
type Wei = uint256.Int

func NewWei(v uint64) *Wei {
	return uint256.NewInt(v)
}

// WeiOrZero returns v or zero when v is nil, the result is always a copy.
func WeiOrZero(v *Wei) *Wei {
	if v == nil {
		return new(Wei)
	}
	return v.Clone()
}

// SafeAddWei returns a+b and false when the sum doesn't fit into 256 bits.
func SafeAddWei(a, b *Wei) (*Wei, bool) {
	sum, overflow := new(Wei).AddOverflow(WeiOrZero(a), WeiOrZero(b))
	if overflow {
		return nil, false
	}
	return sum, true
}

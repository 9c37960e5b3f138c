package types

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

type (
	// Identity is an opaque caller/owner address.
	Identity = common.Address

	// TokenID is the sequential identifier of a card, ids are assigned
	// densely starting from 0 and never reused.
	TokenID uint64
)

// NullIdentity is the distinguished "nobody" identity, tokens burned are
// transferred to it.
var NullIdentity Identity

func IsNull(id Identity) bool {
	return id == NullIdentity
}

// HexToIdentity converts hex string (with or without 0x prefix) to Identity,
// see common.HexToAddress for the rules.
func HexToIdentity(s string) Identity {
	return common.HexToAddress(s)
}

func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

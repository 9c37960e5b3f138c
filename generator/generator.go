/*
Package generator derives pseudo-random card values from a seed.

The derivation is a keyed pseudo-random function: the seed (caller, nonce,
external entropy) is CBOR encoded and hashed into a digest, each output slot
is then hashed separately with its own domain label and index, so no two
slots are derived from the same bytes. Reducing the 64-bit slot value modulo
the bound introduces a bias of at most bound/2^64, which is accepted.

Generate is deterministic, anyone knowing the inputs can recompute a card,
the unpredictability comes from the entropy not being known to the caller
before the pull is executed.
*/
package generator

import (
	"crypto"
	"encoding/binary"

	"github.com/futballcards/futballcards-go/hash"
	"github.com/futballcards/futballcards-go/types"
)

const (
	AttributeCount = 5
	NameCount      = 2
	ProfileCount   = 5

	// NameBase is the exclusive upper bound of generated name indexes.
	NameBase = 256
	// ProfileBase is the exclusive upper bound of generated profile values.
	ProfileBase = 10
)

// slot domains
const (
	domainAttribute = "attribute"
	domainName      = "name"
	domainProfile   = "profile"
)

type (
	Seed struct {
		_       struct{}       `cbor:",toarray"`
		Caller  types.Identity // the identity pulling the pack
		Nonce   uint64         // engine's mint nonce after increment
		Entropy []byte         // externally supplied entropy
	}

	Values struct {
		Attributes [AttributeCount]uint64 // each < attributesBase
		Name       [NameCount]uint64      // each < NameBase
		Profile    [ProfileCount]uint64   // each < ProfileBase
	}

	slotInput struct {
		_      struct{} `cbor:",toarray"`
		Domain string
		Index  uint64
		Digest []byte
	}
)

// Digest returns the SHA-256 hash of the CBOR encoded seed.
func (s Seed) Digest() []byte {
	return hash.Sum(crypto.SHA256, s)
}

/*
Generate derives card values from the seed. Attributes are bounded by
attributesBase, a zero bound yields zero values.
*/
func Generate(seed Seed, attributesBase uint64) Values {
	digest := seed.Digest()
	var v Values
	for i := range v.Attributes {
		v.Attributes[i] = Slot(digest, domainAttribute, uint64(i), attributesBase)
	}
	for i := range v.Name {
		v.Name[i] = Slot(digest, domainName, uint64(i), NameBase)
	}
	for i := range v.Profile {
		v.Profile[i] = Slot(digest, domainProfile, uint64(i), ProfileBase)
	}
	return v
}

// Slot derives value of a single output slot in range [0, bound).
func Slot(digest []byte, domain string, index, bound uint64) uint64 {
	if bound == 0 {
		return 0
	}
	h := hash.Sum(crypto.SHA256, slotInput{Domain: domain, Index: index, Digest: digest})
	return binary.BigEndian.Uint64(h[:8]) % bound
}

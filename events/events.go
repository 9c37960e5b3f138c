/*
Package events defines the records emitted by the card ledger.

Every event has a fixed field set; JSON names follow the names downstream
indexers know (_tokenId, _to, _value...). The topic of an event is the
keccak256 hash of its signature, the same way EVM log topics are built, so
indexers can filter on it without decoding the payload.
*/
package events

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/futballcards/futballcards-go/types"
)

type (
	Event interface {
		// Signature returns canonical event signature, ie "CardMinted(uint256,address)".
		Signature() string
	}

	// TokenEvent is implemented by events which concern single card.
	TokenEvent interface {
		Event
		Token() types.TokenID
	}

	// Emitter receives events of an operation in emission order.
	Emitter func(Event)
)

// Name returns the name part of the event signature.
func Name(e Event) string {
	sig := e.Signature()
	if i := strings.IndexByte(sig, '('); i >= 0 {
		return sig[:i]
	}
	return sig
}

// Topic returns keccak256 hash of the event signature.
func Topic(e Event) common.Hash {
	return crypto.Keccak256Hash([]byte(e.Signature()))
}

// Registry events.
type (
	CardMinted struct {
		_       struct{}       `cbor:",toarray"`
		TokenID types.TokenID  `json:"_tokenId"`
		To      types.Identity `json:"_to"`
	}

	TokenBaseURIChanged struct {
		_   struct{} `cbor:",toarray"`
		New string   `json:"_new"`
	}

	TokenBaseIPFSURIChanged struct {
		_   struct{} `cbor:",toarray"`
		New string   `json:"_new"`
	}

	AttributesChanged struct {
		_            struct{}      `cbor:",toarray"`
		TokenID      types.TokenID `json:"_tokenId"`
		Strength     uint64        `json:"_strength"`
		Speed        uint64        `json:"_speed"`
		Intelligence uint64        `json:"_intelligence"`
		Skill        uint64        `json:"_skill"`
	}

	NameChanged struct {
		_         struct{}      `cbor:",toarray"`
		TokenID   types.TokenID `json:"_tokenId"`
		FirstName uint64        `json:"_firstName"`
		LastName  uint64        `json:"_lastName"`
	}

	SpecialSet struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"_tokenId"`
		Value   uint64        `json:"_value"`
	}

	BadgeSet struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"_tokenId"`
		Value   uint64        `json:"_value"`
	}

	SponsorSet struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"_tokenId"`
		Value   uint64        `json:"_value"`
	}

	NumberSet struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"_tokenId"`
		Value   uint64        `json:"_value"`
	}

	BootsSet struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"_tokenId"`
		Value   uint64        `json:"_value"`
	}

	// StarAdded carries the star count after the increment.
	StarAdded struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"_tokenId"`
		Value   uint64        `json:"_value"`
	}

	// XpAdded carries the amount added, not the resulting total.
	XpAdded struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"_tokenId"`
		Value   uint64        `json:"_value"`
	}

	StaticImageSet struct {
		_        struct{}      `cbor:",toarray"`
		TokenID  types.TokenID `json:"_tokenId"`
		IpfsHash string        `json:"_ipfsHash"`
	}

	StaticImageCleared struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"_tokenId"`
	}

	Transfer struct {
		_       struct{}       `cbor:",toarray"`
		From    types.Identity `json:"_from"`
		To      types.Identity `json:"_to"`
		TokenID types.TokenID  `json:"_tokenId"`
	}
)

// Blind pack events.
type (
	PriceInWeiChanged struct {
		_   struct{}     `cbor:",toarray"`
		Old *uint256.Int `json:"_old"`
		New *uint256.Int `json:"_new"`
	}

	AttributesBaseChanged struct {
		_   struct{} `cbor:",toarray"`
		New uint64   `json:"_new"`
	}

	CreditAdded struct {
		_  struct{}       `cbor:",toarray"`
		To types.Identity `json:"_to"`
	}

	DefaultCardTypeChanged struct {
		_   struct{} `cbor:",toarray"`
		New uint64   `json:"_new"`
	}

	BlindPackPulled struct {
		_       struct{}       `cbor:",toarray"`
		TokenID types.TokenID  `json:"_tokenId"`
		To      types.Identity `json:"_to"`
	}
)

// Access control events.
type (
	OwnershipTransferred struct {
		_        struct{}       `cbor:",toarray"`
		Previous types.Identity `json:"_previous"`
		New      types.Identity `json:"_new"`
	}

	WhitelistedAdded struct {
		_       struct{}       `cbor:",toarray"`
		Account types.Identity `json:"_account"`
	}

	WhitelistedRemoved struct {
		_       struct{}       `cbor:",toarray"`
		Account types.Identity `json:"_account"`
	}
)

func (*CardMinted) Signature() string              { return "CardMinted(uint256,address)" }
func (*TokenBaseURIChanged) Signature() string     { return "TokenBaseURIChanged(string)" }
func (*TokenBaseIPFSURIChanged) Signature() string { return "TokenBaseIPFSURIChanged(string)" }
func (*AttributesChanged) Signature() string       { return "AttributesChanged(uint256,uint256,uint256,uint256,uint256)" }
func (*NameChanged) Signature() string             { return "NameChanged(uint256,uint256,uint256)" }
func (*SpecialSet) Signature() string              { return "SpecialSet(uint256,uint256)" }
func (*BadgeSet) Signature() string                { return "BadgeSet(uint256,uint256)" }
func (*SponsorSet) Signature() string              { return "SponsorSet(uint256,uint256)" }
func (*NumberSet) Signature() string               { return "NumberSet(uint256,uint256)" }
func (*BootsSet) Signature() string                { return "BootsSet(uint256,uint256)" }
func (*StarAdded) Signature() string               { return "StarAdded(uint256,uint256)" }
func (*XpAdded) Signature() string                 { return "XpAdded(uint256,uint256)" }
func (*StaticImageSet) Signature() string          { return "StaticImageSet(uint256,string)" }
func (*StaticImageCleared) Signature() string      { return "StaticImageCleared(uint256)" }
func (*Transfer) Signature() string                { return "Transfer(address,address,uint256)" }
func (*PriceInWeiChanged) Signature() string       { return "PriceInWeiChanged(uint256,uint256)" }
func (*AttributesBaseChanged) Signature() string   { return "AttributesBaseChanged(uint256)" }
func (*CreditAdded) Signature() string             { return "CreditAdded(address)" }
func (*DefaultCardTypeChanged) Signature() string  { return "DefaultCardTypeChanged(uint256)" }
func (*BlindPackPulled) Signature() string         { return "BlindPackPulled(uint256,address)" }
func (*OwnershipTransferred) Signature() string    { return "OwnershipTransferred(address,address)" }
func (*WhitelistedAdded) Signature() string        { return "WhitelistedAdded(address)" }
func (*WhitelistedRemoved) Signature() string      { return "WhitelistedRemoved(address)" }

func (e *CardMinted) Token() types.TokenID         { return e.TokenID }
func (e *AttributesChanged) Token() types.TokenID  { return e.TokenID }
func (e *NameChanged) Token() types.TokenID        { return e.TokenID }
func (e *SpecialSet) Token() types.TokenID         { return e.TokenID }
func (e *BadgeSet) Token() types.TokenID           { return e.TokenID }
func (e *SponsorSet) Token() types.TokenID         { return e.TokenID }
func (e *NumberSet) Token() types.TokenID          { return e.TokenID }
func (e *BootsSet) Token() types.TokenID           { return e.TokenID }
func (e *StarAdded) Token() types.TokenID          { return e.TokenID }
func (e *XpAdded) Token() types.TokenID            { return e.TokenID }
func (e *StaticImageSet) Token() types.TokenID     { return e.TokenID }
func (e *StaticImageCleared) Token() types.TokenID { return e.TokenID }
func (e *Transfer) Token() types.TokenID           { return e.TokenID }
func (e *BlindPackPulled) Token() types.TokenID    { return e.TokenID }

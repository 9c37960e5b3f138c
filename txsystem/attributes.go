/*
Package txsystem defines the transaction orders of the card ledger and
executes them against a ledger.Ledger.

A transaction order names its type and caller and carries type specific
attributes as CBOR. Every order is executed as one ledger operation, either
all of its effects are committed or none.
*/
package txsystem

import (
	"github.com/futballcards/futballcards-go/cards"
	"github.com/futballcards/futballcards-go/types"
)

const (
	TransactionTypeTransferOwnership   uint16 = 1
	TransactionTypeAddToWhitelist      uint16 = 2
	TransactionTypeRemoveFromWhitelist uint16 = 3

	TransactionTypeMintCard             uint16 = 10
	TransactionTypeSetAttributes        uint16 = 11
	TransactionTypeSetName              uint16 = 12
	TransactionTypeSetSpecial           uint16 = 13
	TransactionTypeSetBadge             uint16 = 14
	TransactionTypeSetSponsor           uint16 = 15
	TransactionTypeSetNumber            uint16 = 16
	TransactionTypeSetBoots             uint16 = 17
	TransactionTypeAddStar              uint16 = 18
	TransactionTypeAddXp                uint16 = 19
	TransactionTypeOverrideImage        uint16 = 20
	TransactionTypeClearImageOverride   uint16 = 21
	TransactionTypeUpdateBaseURI        uint16 = 22
	TransactionTypeUpdateBaseContentURI uint16 = 23
	TransactionTypeBurn                 uint16 = 24
	TransactionTypeTransfer             uint16 = 25

	TransactionTypePullBlindPack      uint16 = 30
	TransactionTypeSetPriceInWei      uint16 = 31
	TransactionTypeSetAttributesBase  uint16 = 32
	TransactionTypeSetCardTypeDefault uint16 = 33
	TransactionTypeAddCredit          uint16 = 34
)

type (
	TransferOwnershipAttributes struct {
		_        struct{}       `cbor:",toarray"`
		Scope    string         `json:"scope"` // "registry" or "engine"
		NewOwner types.Identity `json:"newOwner"`
	}

	// WhitelistAttributes are used by both add and remove.
	WhitelistAttributes struct {
		_       struct{}       `cbor:",toarray"`
		Scope   string         `json:"scope"`
		Account types.Identity `json:"account"`
	}

	MintCardAttributes struct {
		_          struct{}         `cbor:",toarray"`
		Attributes cards.Attributes `json:"attributes"`
		Special    uint64           `json:"special,string"`
		Name       cards.PlayerName `json:"name"`
		Profile    cards.Profile    `json:"profile"`
		To         types.Identity   `json:"to"`
	}

	SetAttributesAttributes struct {
		_            struct{}      `cbor:",toarray"`
		TokenID      types.TokenID `json:"tokenId,string"`
		Strength     uint64        `json:"strength,string"`
		Speed        uint64        `json:"speed,string"`
		Intelligence uint64        `json:"intelligence,string"`
		Skill        uint64        `json:"skill,string"`
	}

	SetNameAttributes struct {
		_         struct{}      `cbor:",toarray"`
		TokenID   types.TokenID `json:"tokenId,string"`
		FirstName uint64        `json:"firstName,string"`
		LastName  uint64        `json:"lastName,string"`
	}

	// SetValueAttributes are used by the single value setters (special,
	// badge, sponsor, number, boots).
	SetValueAttributes struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"tokenId,string"`
		Value   uint64        `json:"value,string"`
	}

	// TokenAttributes are used by operations which only name the token (add
	// star, clear image override, burn).
	TokenAttributes struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"tokenId,string"`
	}

	AddXpAttributes struct {
		_       struct{}      `cbor:",toarray"`
		TokenID types.TokenID `json:"tokenId,string"`
		Amount  uint64        `json:"amount,string"`
	}

	OverrideImageAttributes struct {
		_          struct{}      `cbor:",toarray"`
		TokenID    types.TokenID `json:"tokenId,string"`
		ContentRef string        `json:"contentRef"` // ie IPFS hash
	}

	URIAttributes struct {
		_     struct{} `cbor:",toarray"`
		Value string   `json:"value"`
	}

	TransferAttributes struct {
		_       struct{}       `cbor:",toarray"`
		TokenID types.TokenID  `json:"tokenId,string"`
		To      types.Identity `json:"to"`
	}

	// PullBlindPackAttributes is empty, the payment is the order's Value.
	PullBlindPackAttributes struct {
		_ struct{} `cbor:",toarray"`
	}

	SetPriceInWeiAttributes struct {
		_     struct{}   `cbor:",toarray"`
		Price *types.Wei `json:"price"`
	}

	SetUintAttributes struct {
		_     struct{} `cbor:",toarray"`
		Value uint64   `json:"value,string"`
	}

	AddCreditAttributes struct {
		_  struct{}       `cbor:",toarray"`
		To types.Identity `json:"to"`
	}
)

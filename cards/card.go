package cards

import (
	"strings"

	"github.com/futballcards/futballcards-go/types"
)

const (
	// Name and Symbol of the card collection, fixed.
	Name   = "FutballCard"
	Symbol = "FUT"

	// DefaultTokenBaseIpfsURI is the content base used until the owner changes it.
	DefaultTokenBaseIpfsURI = "https://ipfs.infura.io/ipfs/"
)

type (
	// Attributes are strength, speed, intelligence, skill and special-stat.
	Attributes [5]uint64

	// PlayerName holds first and last name indexes.
	PlayerName [2]uint64

	// Profile holds nationality, position, ethnicity, kit and colour.
	Profile [5]uint64

	Extras struct {
		_       struct{} `cbor:",toarray"`
		Badge   uint64   `json:"badge,string"`
		Sponsor uint64   `json:"sponsor,string"`
		Number  uint64   `json:"number,string"`
		Boots   uint64   `json:"boots,string"`
		Stars   uint64   `json:"stars,string"` // increment only
		Xp      uint64   `json:"xp,string"`    // increment only
	}

	Card struct {
		_           struct{}       `cbor:",toarray"`
		ID          types.TokenID  `json:"tokenId,string"`
		Attributes  Attributes     `json:"attributes"`
		Special     uint64         `json:"special,string"`
		Name        PlayerName     `json:"name"`
		Profile     Profile        `json:"profile"`
		Extras      Extras         `json:"extras"`
		StaticImage string         `json:"staticImage"` // content reference overriding the dynamic URI, empty when not set
		Owner       types.Identity `json:"owner"`       // null after burn
		Burned      bool           `json:"burned"`      // burned cards keep their record so that the id is never reused
		Acquired    uint64         `json:"acquired,string"` // registry-wide sequence of the last mint/transfer, orders owner's token list
	}

	// MintRequest is the initial content of a card, extras are always zero
	// and no static image is set.
	MintRequest struct {
		_          struct{}       `cbor:",toarray"`
		Attributes Attributes     `json:"attributes"`
		Special    uint64         `json:"special,string"`
		Name       PlayerName     `json:"name"`
		Profile    Profile        `json:"profile"`
		To         types.Identity `json:"to"`
	}

	// AttributesAndName is the flat view of attributes, special and name,
	// in the order strength, speed, intelligence, skill, special-stat, special,
	// first name, last name.
	AttributesAndName struct {
		Attributes Attributes
		Special    uint64
		Name       PlayerName
	}
)

func (a Attributes) Strength() uint64     { return a[0] }
func (a Attributes) Speed() uint64        { return a[1] }
func (a Attributes) Intelligence() uint64 { return a[2] }
func (a Attributes) Skill() uint64        { return a[3] }
func (a Attributes) SpecialStat() uint64  { return a[4] }

func (n PlayerName) First() uint64 { return n[0] }
func (n PlayerName) Last() uint64  { return n[1] }

func (p Profile) Nationality() uint64 { return p[0] }
func (p Profile) Position() uint64    { return p[1] }
func (p Profile) Ethnicity() uint64   { return p[2] }
func (p Profile) Kit() uint64         { return p[3] }
func (p Profile) Colour() uint64      { return p[4] }

func newCard(id types.TokenID, req MintRequest, acquired uint64) *Card {
	return &Card{
		ID:         id,
		Attributes: req.Attributes,
		Special:    req.Special,
		Name:       req.Name,
		Profile:    req.Profile,
		Owner:      req.To,
		Acquired:   acquired,
	}
}

func (c *Card) Copy() *Card {
	if c == nil {
		return nil
	}
	return &Card{
		ID:          c.ID,
		Attributes:  c.Attributes,
		Special:     c.Special,
		Name:        c.Name,
		Profile:     c.Profile,
		Extras:      c.Extras,
		StaticImage: strings.Clone(c.StaticImage),
		Owner:       c.Owner,
		Burned:      c.Burned,
		Acquired:    c.Acquired,
	}
}

// HasStaticImage returns true when the dynamic URI is overridden.
func (c *Card) HasStaticImage() bool {
	return c.StaticImage != ""
}

/*
Package cards implements the card registry: the ledger of per-token card
records with role gated write paths and URI resolution.

Minting and mutating records requires the caller to be whitelisted on the
registry's access control, changing the base URIs requires the owner. Static
image overrides may also be managed by the token's holder. Authorization is
always checked before existence: a caller without the required role gets
ErrUnauthorized whether the token exists or not; for holder-or-whitelist
operations a missing token can't be held by the caller so the result is the
same.

Registry is not safe for concurrent use.
*/
package cards

import (
	"fmt"
	"sort"

	"github.com/futballcards/futballcards-go/access"
	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/types"
	"github.com/futballcards/futballcards-go/util"
)

type (
	Registry struct {
		access         *access.Control
		cards          []*Card // index is the token ID, burned cards included
		owned          map[types.Identity][]types.TokenID
		baseURI        string
		contentBaseURI string
		acquisitions   uint64
		emit           events.Emitter
	}

	// State is the persisted registry metadata, cards are persisted separately.
	State struct {
		_              struct{} `cbor:",toarray"`
		BaseURI        string
		ContentBaseURI string
		Acquisitions   uint64
	}
)

/*
NewRegistry creates empty registry. The baseURI is the dynamic URI base
(token ID is appended to it), content base defaults to DefaultTokenBaseIpfsURI
when empty.
*/
func NewRegistry(ac *access.Control, baseURI, contentBaseURI string, emit events.Emitter) (*Registry, error) {
	if ac == nil {
		return nil, fmt.Errorf("access control is required")
	}
	if contentBaseURI == "" {
		contentBaseURI = DefaultTokenBaseIpfsURI
	}
	if emit == nil {
		emit = func(events.Event) {}
	}
	return &Registry{
		access:         ac,
		owned:          map[types.Identity][]types.TokenID{},
		baseURI:        baseURI,
		contentBaseURI: contentBaseURI,
		emit:           emit,
	}, nil
}

/*
Restore creates registry from persisted state. The cards must be the complete
list of records ever minted (burned included) ordered by ID.
*/
func Restore(ac *access.Control, st State, cards []*Card, emit events.Emitter) (*Registry, error) {
	r, err := NewRegistry(ac, st.BaseURI, st.ContentBaseURI, emit)
	if err != nil {
		return nil, err
	}
	r.acquisitions = st.Acquisitions
	for i, c := range cards {
		if c == nil || c.ID != types.TokenID(i) {
			return nil, fmt.Errorf("card list is not dense: expected token %d at position %d", i, i)
		}
		if c.Acquired > r.acquisitions {
			return nil, fmt.Errorf("token %d acquisition %d is ahead of the registry counter %d", c.ID, c.Acquired, r.acquisitions)
		}
		r.cards = append(r.cards, c.Copy())
	}

	active := make([]*Card, 0, len(r.cards))
	for _, c := range r.cards {
		if !c.Burned {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Acquired < active[j].Acquired })
	for _, c := range active {
		r.owned[c.Owner] = append(r.owned[c.Owner], c.ID)
	}
	return r, nil
}

func (r *Registry) State() State {
	return State{
		BaseURI:        r.baseURI,
		ContentBaseURI: r.contentBaseURI,
		Acquisitions:   r.acquisitions,
	}
}

// Access returns the access control the registry is gated by.
func (r *Registry) Access() *access.Control {
	return r.access
}

// CanMint returns true when caller is allowed to mint cards.
func (r *Registry) CanMint(caller types.Identity) bool {
	return r.access.IsWhitelisted(caller)
}

/*
Mint assigns the next token ID, stores the card for req.To and emits
CardMinted.
*/
func (r *Registry) Mint(caller types.Identity, req MintRequest) (types.TokenID, error) {
	if err := r.access.RequireWhitelisted(caller); err != nil {
		return 0, fmt.Errorf("mint: %w", err)
	}
	if types.IsNull(req.To) {
		return 0, fmt.Errorf("mint to null identity: %w", types.ErrInvalidArgument)
	}

	id := types.TokenID(len(r.cards))
	r.acquisitions++
	r.cards = append(r.cards, newCard(id, req, r.acquisitions))
	r.owned[req.To] = append(r.owned[req.To], id)
	r.emit(&events.CardMinted{TokenID: id, To: req.To})
	return id, nil
}

// SetAttributes overwrites strength, speed, intelligence and skill.
func (r *Registry) SetAttributes(caller types.Identity, id types.TokenID, strength, speed, intelligence, skill uint64) error {
	c, err := r.whitelisted(caller, id, "set attributes")
	if err != nil {
		return err
	}
	c.Attributes[0], c.Attributes[1], c.Attributes[2], c.Attributes[3] = strength, speed, intelligence, skill
	r.emit(&events.AttributesChanged{TokenID: id, Strength: strength, Speed: speed, Intelligence: intelligence, Skill: skill})
	return nil
}

func (r *Registry) SetName(caller types.Identity, id types.TokenID, firstName, lastName uint64) error {
	c, err := r.whitelisted(caller, id, "set name")
	if err != nil {
		return err
	}
	c.Name = PlayerName{firstName, lastName}
	r.emit(&events.NameChanged{TokenID: id, FirstName: firstName, LastName: lastName})
	return nil
}

func (r *Registry) SetSpecial(caller types.Identity, id types.TokenID, value uint64) error {
	c, err := r.whitelisted(caller, id, "set special")
	if err != nil {
		return err
	}
	c.Special = value
	r.emit(&events.SpecialSet{TokenID: id, Value: value})
	return nil
}

func (r *Registry) SetBadge(caller types.Identity, id types.TokenID, value uint64) error {
	c, err := r.whitelisted(caller, id, "set badge")
	if err != nil {
		return err
	}
	c.Extras.Badge = value
	r.emit(&events.BadgeSet{TokenID: id, Value: value})
	return nil
}

func (r *Registry) SetSponsor(caller types.Identity, id types.TokenID, value uint64) error {
	c, err := r.whitelisted(caller, id, "set sponsor")
	if err != nil {
		return err
	}
	c.Extras.Sponsor = value
	r.emit(&events.SponsorSet{TokenID: id, Value: value})
	return nil
}

func (r *Registry) SetNumber(caller types.Identity, id types.TokenID, value uint64) error {
	c, err := r.whitelisted(caller, id, "set number")
	if err != nil {
		return err
	}
	c.Extras.Number = value
	r.emit(&events.NumberSet{TokenID: id, Value: value})
	return nil
}

func (r *Registry) SetBoots(caller types.Identity, id types.TokenID, value uint64) error {
	c, err := r.whitelisted(caller, id, "set boots")
	if err != nil {
		return err
	}
	c.Extras.Boots = value
	r.emit(&events.BootsSet{TokenID: id, Value: value})
	return nil
}

// AddStar increments the star count by one, the event carries the new count.
func (r *Registry) AddStar(caller types.Identity, id types.TokenID) error {
	c, err := r.whitelisted(caller, id, "add star")
	if err != nil {
		return err
	}
	stars, ok := util.SafeAdd(c.Extras.Stars, 1)
	if !ok {
		return fmt.Errorf("star count of token %d overflows: %w", id, types.ErrInvalidArgument)
	}
	c.Extras.Stars = stars
	r.emit(&events.StarAdded{TokenID: id, Value: stars})
	return nil
}

// AddXp increases xp by amount, the event carries the amount added.
func (r *Registry) AddXp(caller types.Identity, id types.TokenID, amount uint64) error {
	c, err := r.whitelisted(caller, id, "add xp")
	if err != nil {
		return err
	}
	xp, ok := util.SafeAdd(c.Extras.Xp, amount)
	if !ok {
		return fmt.Errorf("xp of token %d overflows: %w", id, types.ErrInvalidArgument)
	}
	c.Extras.Xp = xp
	r.emit(&events.XpAdded{TokenID: id, Value: amount})
	return nil
}

/*
OverrideImageWithContentRef sets static content reference (ie IPFS hash)
which takes precedence over the dynamic URI. Allowed for the token holder
and whitelisted identities.
*/
func (r *Registry) OverrideImageWithContentRef(caller types.Identity, id types.TokenID, ref string) error {
	c, err := r.holderOrWhitelisted(caller, id, "override image")
	if err != nil {
		return err
	}
	if ref == "" {
		return fmt.Errorf("content reference of token %d is empty: %w", id, types.ErrInvalidArgument)
	}
	c.StaticImage = ref
	r.emit(&events.StaticImageSet{TokenID: id, IpfsHash: ref})
	return nil
}

// ClearImageOverride restores dynamic URI resolution of the token.
func (r *Registry) ClearImageOverride(caller types.Identity, id types.TokenID) error {
	c, err := r.holderOrWhitelisted(caller, id, "clear image override")
	if err != nil {
		return err
	}
	c.StaticImage = ""
	r.emit(&events.StaticImageCleared{TokenID: id})
	return nil
}

func (r *Registry) UpdateBaseURI(caller types.Identity, value string) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return fmt.Errorf("update base URI: %w", err)
	}
	if value == "" {
		return fmt.Errorf("base URI is empty: %w", types.ErrInvalidArgument)
	}
	r.baseURI = value
	r.emit(&events.TokenBaseURIChanged{New: value})
	return nil
}

func (r *Registry) UpdateBaseContentURI(caller types.Identity, value string) error {
	if err := r.access.RequireOwner(caller); err != nil {
		return fmt.Errorf("update base content URI: %w", err)
	}
	if value == "" {
		return fmt.Errorf("base content URI is empty: %w", types.ErrInvalidArgument)
	}
	r.contentBaseURI = value
	r.emit(&events.TokenBaseIPFSURIChanged{New: value})
	return nil
}

/*
Burn removes the token from the active set, only the holder may burn. The
record is kept (and the ID never reused) but it's not visible to queries
anymore.
*/
func (r *Registry) Burn(caller types.Identity, id types.TokenID) error {
	c, err := r.held(caller, id, "burn")
	if err != nil {
		return err
	}
	r.disown(c)
	c.Owner = types.NullIdentity
	c.Burned = true
	r.emit(&events.Transfer{From: caller, To: types.NullIdentity, TokenID: id})
	return nil
}

// Transfer moves the token from the holder (caller) to "to", the token is
// appended to the end of receiver's token list.
func (r *Registry) Transfer(caller, to types.Identity, id types.TokenID) error {
	c, err := r.held(caller, id, "transfer")
	if err != nil {
		return err
	}
	if types.IsNull(to) {
		return fmt.Errorf("transfer token %d to null identity: %w", id, types.ErrInvalidArgument)
	}
	r.disown(c)
	r.acquisitions++
	c.Owner = to
	c.Acquired = r.acquisitions
	r.owned[to] = append(r.owned[to], id)
	r.emit(&events.Transfer{From: caller, To: to, TokenID: id})
	return nil
}

// Card returns copy of the active card.
func (r *Registry) Card(id types.TokenID) (*Card, error) {
	c, err := r.active(id)
	if err != nil {
		return nil, err
	}
	return c.Copy(), nil
}

// Record returns copy of the card record whether burned or not, nil when
// the ID has never been assigned.
func (r *Registry) Record(id types.TokenID) *Card {
	if uint64(id) >= uint64(len(r.cards)) {
		return nil
	}
	return r.cards[id].Copy()
}

func (r *Registry) AttributesAndName(id types.TokenID) (AttributesAndName, error) {
	c, err := r.active(id)
	if err != nil {
		return AttributesAndName{}, err
	}
	return AttributesAndName{Attributes: c.Attributes, Special: c.Special, Name: c.Name}, nil
}

func (r *Registry) Extras(id types.TokenID) (Extras, error) {
	c, err := r.active(id)
	if err != nil {
		return Extras{}, err
	}
	return c.Extras, nil
}

func (r *Registry) OwnerOf(id types.TokenID) (types.Identity, error) {
	c, err := r.active(id)
	if err != nil {
		return types.NullIdentity, err
	}
	return c.Owner, nil
}

func (r *Registry) BalanceOf(owner types.Identity) uint64 {
	return uint64(len(r.owned[owner]))
}

// TokensOfOwner returns active tokens of the owner in the order acquired.
func (r *Registry) TokensOfOwner(owner types.Identity) []types.TokenID {
	return append([]types.TokenID{}, r.owned[owner]...)
}

// TotalCards is the number of token IDs ever assigned, burned included.
func (r *Registry) TotalCards() uint64 {
	return uint64(len(r.cards))
}

// TotalSupply is the number of active (not burned) cards.
func (r *Registry) TotalSupply() uint64 {
	var n uint64
	for _, ids := range r.owned {
		n += uint64(len(ids))
	}
	return n
}

func (r *Registry) Name() string {
	return Name
}

func (r *Registry) Symbol() string {
	return Symbol
}

func (r *Registry) TokenBaseURI() string {
	return r.baseURI
}

func (r *Registry) TokenBaseContentURI() string {
	return r.contentBaseURI
}

func (r *Registry) active(id types.TokenID) (*Card, error) {
	if uint64(id) >= uint64(len(r.cards)) || r.cards[id].Burned {
		return nil, fmt.Errorf("token %d: %w", id, types.ErrNotFound)
	}
	return r.cards[id], nil
}

func (r *Registry) whitelisted(caller types.Identity, id types.TokenID, op string) (*Card, error) {
	if err := r.access.RequireWhitelisted(caller); err != nil {
		return nil, fmt.Errorf("%s of token %d: %w", op, id, err)
	}
	c, err := r.active(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (r *Registry) holderOrWhitelisted(caller types.Identity, id types.TokenID, op string) (*Card, error) {
	if r.access.IsWhitelisted(caller) {
		c, err := r.active(id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return c, nil
	}
	return r.held(caller, id, op)
}

func (r *Registry) held(caller types.Identity, id types.TokenID, op string) (*Card, error) {
	c, err := r.active(id)
	if err != nil || types.IsNull(caller) || c.Owner != caller {
		return nil, fmt.Errorf("%s of token %d: %s is not the holder: %w", op, id, caller, types.ErrUnauthorized)
	}
	return c, nil
}

func (r *Registry) disown(c *Card) {
	ids, _ := util.RemoveFirst(r.owned[c.Owner], c.ID)
	if len(ids) == 0 {
		delete(r.owned, c.Owner)
		return
	}
	r.owned[c.Owner] = ids
}

/*
Package access implements the two-tier permission model of the card ledger:
a single owner holding the administrative capability and a whitelist of
identities holding the operational one (minting and mutating cards).

The owner is always considered whitelisted. Control is not safe for
concurrent use, the ledger serializes access to it.
*/
package access

import (
	"fmt"
	"sort"

	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/types"
)

type Control struct {
	owner     types.Identity
	whitelist map[types.Identity]struct{}
	emit      events.Emitter
}

// State is the persisted form of Control.
type State struct {
	_         struct{} `cbor:",toarray"`
	Owner     types.Identity
	Whitelist []types.Identity
}

func New(owner types.Identity, emit events.Emitter) (*Control, error) {
	if types.IsNull(owner) {
		return nil, fmt.Errorf("owner must not be null: %w", types.ErrInvalidArgument)
	}
	if emit == nil {
		emit = func(events.Event) {}
	}
	return &Control{
		owner:     owner,
		whitelist: map[types.Identity]struct{}{},
		emit:      emit,
	}, nil
}

// Restore creates Control from the state returned by Control.State.
func Restore(st State, emit events.Emitter) (*Control, error) {
	c, err := New(st.Owner, emit)
	if err != nil {
		return nil, err
	}
	for _, id := range st.Whitelist {
		c.whitelist[id] = struct{}{}
	}
	return c, nil
}

func (c *Control) State() State {
	st := State{Owner: c.owner, Whitelist: make([]types.Identity, 0, len(c.whitelist))}
	for id := range c.whitelist {
		st.Whitelist = append(st.Whitelist, id)
	}
	sort.Slice(st.Whitelist, func(i, j int) bool { return st.Whitelist[i].Cmp(st.Whitelist[j]) < 0 })
	return st
}

func (c *Control) Owner() types.Identity {
	return c.owner
}

func (c *Control) IsOwner(id types.Identity) bool {
	return !types.IsNull(id) && id == c.owner
}

// IsWhitelisted returns true for explicitly whitelisted identities and the owner.
func (c *Control) IsWhitelisted(id types.Identity) bool {
	if c.IsOwner(id) {
		return true
	}
	_, ok := c.whitelist[id]
	return ok
}

// RequireOwner returns ErrUnauthorized unless caller is the owner.
func (c *Control) RequireOwner(caller types.Identity) error {
	if !c.IsOwner(caller) {
		return fmt.Errorf("%s is not the owner: %w", caller, types.ErrUnauthorized)
	}
	return nil
}

// RequireWhitelisted returns ErrUnauthorized unless caller is whitelisted.
func (c *Control) RequireWhitelisted(caller types.Identity) error {
	if !c.IsWhitelisted(caller) {
		return fmt.Errorf("%s is not whitelisted: %w", caller, types.ErrUnauthorized)
	}
	return nil
}

/*
TransferOwnership makes newOwner the owner, the previous owner loses the
owner-only rights (and implicit whitelisting) immediately.
*/
func (c *Control) TransferOwnership(caller, newOwner types.Identity) error {
	if err := c.RequireOwner(caller); err != nil {
		return err
	}
	if types.IsNull(newOwner) {
		return fmt.Errorf("new owner must not be null: %w", types.ErrInvalidArgument)
	}
	prev := c.owner
	c.owner = newOwner
	c.emit(&events.OwnershipTransferred{Previous: prev, New: newOwner})
	return nil
}

// AddToWhitelist is idempotent, adding already present identity is no-op.
func (c *Control) AddToWhitelist(caller, id types.Identity) error {
	if err := c.RequireOwner(caller); err != nil {
		return err
	}
	if types.IsNull(id) {
		return fmt.Errorf("can't whitelist null identity: %w", types.ErrInvalidArgument)
	}
	if _, ok := c.whitelist[id]; ok {
		return nil
	}
	c.whitelist[id] = struct{}{}
	c.emit(&events.WhitelistedAdded{Account: id})
	return nil
}

// RemoveFromWhitelist is idempotent, removing absent identity is no-op.
// Removing the owner doesn't revoke its implicit whitelisting.
func (c *Control) RemoveFromWhitelist(caller, id types.Identity) error {
	if err := c.RequireOwner(caller); err != nil {
		return err
	}
	if _, ok := c.whitelist[id]; !ok {
		return nil
	}
	delete(c.whitelist, id)
	c.emit(&events.WhitelistedRemoved{Account: id})
	return nil
}

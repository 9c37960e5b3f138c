package ledger

import (
	"context"
	"fmt"

	"github.com/futballcards/futballcards-go/access"
	"github.com/futballcards/futballcards-go/blindpack"
	"github.com/futballcards/futballcards-go/cards"
	"github.com/futballcards/futballcards-go/types"
)

// Scope selects the component whose access control an operation targets,
// the registry and the engine have independent owners and whitelists.
type Scope string

const (
	ScopeRegistry Scope = "registry"
	ScopeEngine   Scope = "engine"
)

func (c Components) Access(scope Scope) (*access.Control, error) {
	switch scope {
	case ScopeRegistry:
		return c.Registry.Access(), nil
	case ScopeEngine:
		return c.Engine.Access(), nil
	}
	return nil, fmt.Errorf("unknown access scope %q: %w", scope, types.ErrInvalidArgument)
}

func (l *Ledger) do(ctx context.Context, op string, fn func(c Components) error) error {
	_, err := l.Do(ctx, op, fn)
	return err
}

// Access control.

func (l *Ledger) TransferOwnership(ctx context.Context, scope Scope, caller, newOwner types.Identity) error {
	return l.do(ctx, "transfer ownership", func(c Components) error {
		ac, err := c.Access(scope)
		if err != nil {
			return err
		}
		return ac.TransferOwnership(caller, newOwner)
	})
}

func (l *Ledger) AddToWhitelist(ctx context.Context, scope Scope, caller, id types.Identity) error {
	return l.do(ctx, "add to whitelist", func(c Components) error {
		ac, err := c.Access(scope)
		if err != nil {
			return err
		}
		return ac.AddToWhitelist(caller, id)
	})
}

func (l *Ledger) RemoveFromWhitelist(ctx context.Context, scope Scope, caller, id types.Identity) error {
	return l.do(ctx, "remove from whitelist", func(c Components) error {
		ac, err := c.Access(scope)
		if err != nil {
			return err
		}
		return ac.RemoveFromWhitelist(caller, id)
	})
}

func (l *Ledger) Owner(scope Scope) (types.Identity, error) {
	return view(l, func(c Components) (types.Identity, error) {
		ac, err := c.Access(scope)
		if err != nil {
			return types.NullIdentity, err
		}
		return ac.Owner(), nil
	})
}

func (l *Ledger) IsWhitelisted(scope Scope, id types.Identity) (bool, error) {
	return view(l, func(c Components) (bool, error) {
		ac, err := c.Access(scope)
		if err != nil {
			return false, err
		}
		return ac.IsWhitelisted(id), nil
	})
}

// Card registry.

func (l *Ledger) Mint(ctx context.Context, caller types.Identity, req cards.MintRequest) (id types.TokenID, err error) {
	err = l.do(ctx, "mint", func(c Components) error {
		id, err = c.Registry.Mint(caller, req)
		return err
	})
	return id, err
}

func (l *Ledger) SetAttributes(ctx context.Context, caller types.Identity, id types.TokenID, strength, speed, intelligence, skill uint64) error {
	return l.do(ctx, "set attributes", func(c Components) error {
		return c.Registry.SetAttributes(caller, id, strength, speed, intelligence, skill)
	})
}

func (l *Ledger) SetName(ctx context.Context, caller types.Identity, id types.TokenID, firstName, lastName uint64) error {
	return l.do(ctx, "set name", func(c Components) error {
		return c.Registry.SetName(caller, id, firstName, lastName)
	})
}

func (l *Ledger) SetSpecial(ctx context.Context, caller types.Identity, id types.TokenID, value uint64) error {
	return l.do(ctx, "set special", func(c Components) error {
		return c.Registry.SetSpecial(caller, id, value)
	})
}

func (l *Ledger) SetBadge(ctx context.Context, caller types.Identity, id types.TokenID, value uint64) error {
	return l.do(ctx, "set badge", func(c Components) error {
		return c.Registry.SetBadge(caller, id, value)
	})
}

func (l *Ledger) SetSponsor(ctx context.Context, caller types.Identity, id types.TokenID, value uint64) error {
	return l.do(ctx, "set sponsor", func(c Components) error {
		return c.Registry.SetSponsor(caller, id, value)
	})
}

func (l *Ledger) SetNumber(ctx context.Context, caller types.Identity, id types.TokenID, value uint64) error {
	return l.do(ctx, "set number", func(c Components) error {
		return c.Registry.SetNumber(caller, id, value)
	})
}

func (l *Ledger) SetBoots(ctx context.Context, caller types.Identity, id types.TokenID, value uint64) error {
	return l.do(ctx, "set boots", func(c Components) error {
		return c.Registry.SetBoots(caller, id, value)
	})
}

func (l *Ledger) AddStar(ctx context.Context, caller types.Identity, id types.TokenID) error {
	return l.do(ctx, "add star", func(c Components) error {
		return c.Registry.AddStar(caller, id)
	})
}

func (l *Ledger) AddXp(ctx context.Context, caller types.Identity, id types.TokenID, amount uint64) error {
	return l.do(ctx, "add xp", func(c Components) error {
		return c.Registry.AddXp(caller, id, amount)
	})
}

func (l *Ledger) OverrideImageWithContentRef(ctx context.Context, caller types.Identity, id types.TokenID, ref string) error {
	return l.do(ctx, "override image", func(c Components) error {
		return c.Registry.OverrideImageWithContentRef(caller, id, ref)
	})
}

func (l *Ledger) ClearImageOverride(ctx context.Context, caller types.Identity, id types.TokenID) error {
	return l.do(ctx, "clear image override", func(c Components) error {
		return c.Registry.ClearImageOverride(caller, id)
	})
}

func (l *Ledger) UpdateBaseURI(ctx context.Context, caller types.Identity, value string) error {
	return l.do(ctx, "update base URI", func(c Components) error {
		return c.Registry.UpdateBaseURI(caller, value)
	})
}

func (l *Ledger) UpdateBaseContentURI(ctx context.Context, caller types.Identity, value string) error {
	return l.do(ctx, "update base content URI", func(c Components) error {
		return c.Registry.UpdateBaseContentURI(caller, value)
	})
}

func (l *Ledger) Burn(ctx context.Context, caller types.Identity, id types.TokenID) error {
	return l.do(ctx, "burn", func(c Components) error {
		return c.Registry.Burn(caller, id)
	})
}

func (l *Ledger) Transfer(ctx context.Context, caller, to types.Identity, id types.TokenID) error {
	return l.do(ctx, "transfer", func(c Components) error {
		return c.Registry.Transfer(caller, to, id)
	})
}

func (l *Ledger) Card(id types.TokenID) (*cards.Card, error) {
	return view(l, func(c Components) (*cards.Card, error) { return c.Registry.Card(id) })
}

func (l *Ledger) AttributesAndName(id types.TokenID) (cards.AttributesAndName, error) {
	return view(l, func(c Components) (cards.AttributesAndName, error) { return c.Registry.AttributesAndName(id) })
}

func (l *Ledger) Extras(id types.TokenID) (cards.Extras, error) {
	return view(l, func(c Components) (cards.Extras, error) { return c.Registry.Extras(id) })
}

func (l *Ledger) OwnerOf(id types.TokenID) (types.Identity, error) {
	return view(l, func(c Components) (types.Identity, error) { return c.Registry.OwnerOf(id) })
}

func (l *Ledger) ResolveURI(id types.TokenID) (string, error) {
	return view(l, func(c Components) (string, error) { return c.Registry.ResolveURI(id) })
}

func (l *Ledger) BalanceOf(owner types.Identity) (uint64, error) {
	return view(l, func(c Components) (uint64, error) { return c.Registry.BalanceOf(owner), nil })
}

func (l *Ledger) TokensOfOwner(owner types.Identity) ([]types.TokenID, error) {
	return view(l, func(c Components) ([]types.TokenID, error) { return c.Registry.TokensOfOwner(owner), nil })
}

func (l *Ledger) TotalCards() (uint64, error) {
	return view(l, func(c Components) (uint64, error) { return c.Registry.TotalCards(), nil })
}

func (l *Ledger) TotalSupply() (uint64, error) {
	return view(l, func(c Components) (uint64, error) { return c.Registry.TotalSupply(), nil })
}

// RegistryInfo is the registry metadata.
type RegistryInfo struct {
	Name                string `json:"name"`
	Symbol              string `json:"symbol"`
	TokenBaseURI        string `json:"tokenBaseURI"`
	TokenBaseContentURI string `json:"tokenBaseIpfsURI"`
	TotalCards          uint64 `json:"totalCards,string"`
	TotalSupply         uint64 `json:"totalSupply,string"`
}

func (l *Ledger) RegistryInfo() (RegistryInfo, error) {
	return view(l, func(c Components) (RegistryInfo, error) {
		r := c.Registry
		return RegistryInfo{
			Name:                r.Name(),
			Symbol:              r.Symbol(),
			TokenBaseURI:        r.TokenBaseURI(),
			TokenBaseContentURI: r.TokenBaseContentURI(),
			TotalCards:          r.TotalCards(),
			TotalSupply:         r.TotalSupply(),
		}, nil
	})
}

// Blind pack engine.

// PullBlindPack mints a blind pack card to caller, see blindpack.Engine.Pull.
func (l *Ledger) PullBlindPack(ctx context.Context, caller types.Identity, payment *types.Wei) (r blindpack.Receipt, err error) {
	err = l.do(ctx, "pull blind pack", func(c Components) error {
		r, err = c.Engine.Pull(ctx, caller, payment)
		return err
	})
	return r, err
}

func (l *Ledger) SetPriceInWei(ctx context.Context, caller types.Identity, price *types.Wei) error {
	return l.do(ctx, "set price", func(c Components) error {
		return c.Engine.SetPriceInWei(caller, price)
	})
}

func (l *Ledger) SetAttributesBase(ctx context.Context, caller types.Identity, base uint64) error {
	return l.do(ctx, "set attributes base", func(c Components) error {
		return c.Engine.SetAttributesBase(caller, base)
	})
}

func (l *Ledger) SetCardTypeDefault(ctx context.Context, caller types.Identity, cardType uint64) error {
	return l.do(ctx, "set card type default", func(c Components) error {
		return c.Engine.SetCardTypeDefault(caller, cardType)
	})
}

func (l *Ledger) AddCredit(ctx context.Context, caller, to types.Identity) error {
	return l.do(ctx, "add credit", func(c Components) error {
		return c.Engine.AddCredit(caller, to)
	})
}

func (l *Ledger) Credits(id types.Identity) (uint64, error) {
	return view(l, func(c Components) (uint64, error) { return c.Engine.Credits(id), nil })
}

// EngineInfo is the blind pack engine configuration and counters.
type EngineInfo struct {
	Identity            types.Identity `json:"identity"`
	PriceInWei          *types.Wei     `json:"priceInWei"`
	AttributesBase      uint64         `json:"attributesBase,string"`
	CardTypeDefault     uint64         `json:"cardTypeDefault,string"`
	TotalPurchasesInWei *types.Wei     `json:"totalPurchasesInWei"`
	MintNonce           uint64         `json:"mintNonce,string"`
}

func (l *Ledger) EngineInfo() (EngineInfo, error) {
	return view(l, func(c Components) (EngineInfo, error) {
		e := c.Engine
		return EngineInfo{
			Identity:            e.Identity(),
			PriceInWei:          e.PriceInWei(),
			AttributesBase:      e.AttributesBase(),
			CardTypeDefault:     e.CardTypeDefault(),
			TotalPurchasesInWei: e.TotalPurchasesInWei(),
			MintNonce:           e.MintNonce(),
		}, nil
	})
}

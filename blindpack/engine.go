/*
Package blindpack implements the blind pack minting engine: a purchase flow
which mints a card with pseudo-random values into the card registry, paid
for either by a pre-granted credit or by a payment of at least the current
price.

A pull validates everything (payment or credit, purchase total overflow,
engine's permission to mint, entropy) before changing any state so a failed
pull has no effect. Engine is not safe for concurrent use.
*/
package blindpack

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/futballcards/futballcards-go/access"
	"github.com/futballcards/futballcards-go/cards"
	"github.com/futballcards/futballcards-go/entropy"
	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/generator"
	"github.com/futballcards/futballcards-go/types"
	"github.com/futballcards/futballcards-go/util"
)

const (
	DefaultPriceInWei     = 100
	DefaultAttributesBase = 100
)

var tracer = otel.Tracer("github.com/futballcards/futballcards-go/blindpack")

type (
	// Minter is the card registry as seen by the engine.
	Minter interface {
		CanMint(caller types.Identity) bool
		Mint(caller types.Identity, req cards.MintRequest) (types.TokenID, error)
	}

	Engine struct {
		access          *access.Control
		identity        types.Identity // the engine mints as this identity
		minter          Minter
		entropy         entropy.Source
		priceInWei      *types.Wei
		attributesBase  uint64
		cardTypeDefault uint64
		credits         map[types.Identity]uint64
		totalPurchases  *types.Wei
		mintNonce       uint64
		emit            events.Emitter
	}

	// State is the persisted engine configuration and counters, credits are
	// persisted separately.
	State struct {
		_                   struct{}       `cbor:",toarray"`
		Identity            types.Identity `json:"identity"`
		PriceInWei          *types.Wei     `json:"priceInWei"`
		AttributesBase      uint64         `json:"attributesBase,string"`
		CardTypeDefault     uint64         `json:"cardTypeDefault,string"`
		TotalPurchasesInWei *types.Wei     `json:"totalPurchasesInWei"`
		MintNonce           uint64         `json:"mintNonce,string"`
	}

	// Receipt describes the outcome of a successful pull for the custody layer.
	Receipt struct {
		TokenID        types.TokenID `json:"tokenId,string"`
		FundedByCredit bool          `json:"fundedByCredit"`
		Accepted       *types.Wei    `json:"accepted"` // payment added to the purchase total
		Refund         *types.Wei    `json:"refund"`   // payment not taken, non-zero only when a credit was used
	}

	Option func(*Engine)
)

func WithPriceInWei(price *types.Wei) Option {
	return func(e *Engine) {
		e.priceInWei = types.WeiOrZero(price)
	}
}

func WithAttributesBase(base uint64) Option {
	return func(e *Engine) {
		e.attributesBase = base
	}
}

func WithCardTypeDefault(cardType uint64) Option {
	return func(e *Engine) {
		e.cardTypeDefault = cardType
	}
}

/*
NewEngine creates engine which mints into minter as the given identity. The
identity must be whitelisted on the registry for pulls to succeed.
*/
func NewEngine(ac *access.Control, identity types.Identity, minter Minter, src entropy.Source, emit events.Emitter, opts ...Option) (*Engine, error) {
	if ac == nil {
		return nil, errors.New("access control is required")
	}
	if minter == nil {
		return nil, errors.New("minter is required")
	}
	if src == nil {
		return nil, errors.New("entropy source is required")
	}
	if types.IsNull(identity) {
		return nil, fmt.Errorf("engine identity must not be null: %w", types.ErrInvalidArgument)
	}
	if emit == nil {
		emit = func(events.Event) {}
	}
	e := &Engine{
		access:         ac,
		identity:       identity,
		minter:         minter,
		entropy:        src,
		priceInWei:     types.NewWei(DefaultPriceInWei),
		attributesBase: DefaultAttributesBase,
		credits:        map[types.Identity]uint64{},
		totalPurchases: new(types.Wei),
		emit:           emit,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.attributesBase == 0 {
		return nil, fmt.Errorf("attributes base must be positive: %w", types.ErrInvalidArgument)
	}
	return e, nil
}

// Restore creates engine from persisted state and credit balances.
func Restore(ac *access.Control, st State, credits map[types.Identity]uint64, minter Minter, src entropy.Source, emit events.Emitter) (*Engine, error) {
	e, err := NewEngine(ac, st.Identity, minter, src, emit,
		WithPriceInWei(st.PriceInWei),
		WithAttributesBase(st.AttributesBase),
		WithCardTypeDefault(st.CardTypeDefault))
	if err != nil {
		return nil, err
	}
	e.totalPurchases = types.WeiOrZero(st.TotalPurchasesInWei)
	e.mintNonce = st.MintNonce
	for id, n := range credits {
		if n > 0 {
			e.credits[id] = n
		}
	}
	return e, nil
}

func (e *Engine) State() State {
	return State{
		Identity:            e.identity,
		PriceInWei:          e.priceInWei.Clone(),
		AttributesBase:      e.attributesBase,
		CardTypeDefault:     e.cardTypeDefault,
		TotalPurchasesInWei: e.totalPurchases.Clone(),
		MintNonce:           e.mintNonce,
	}
}

/*
Pull mints a blind pack card to the caller.

When the caller holds a credit one credit is consumed and the payment is
returned in Receipt.Refund untouched, otherwise the payment must be at least
the current price and is accepted in full.
*/
func (e *Engine) Pull(ctx context.Context, caller types.Identity, payment *types.Wei) (_ Receipt, rErr error) {
	ctx, span := tracer.Start(ctx, "blindpack.Pull", trace.WithAttributes(attribute.String("caller", caller.Hex())))
	defer func() {
		if rErr != nil {
			span.RecordError(rErr)
			span.SetStatus(codes.Error, rErr.Error())
		}
		span.End()
	}()

	if types.IsNull(caller) {
		return Receipt{}, fmt.Errorf("pull by null identity: %w", types.ErrInvalidArgument)
	}
	payment = types.WeiOrZero(payment)
	receipt := Receipt{Accepted: new(types.Wei), Refund: new(types.Wei)}

	var total *types.Wei
	if e.credits[caller] > 0 {
		receipt.FundedByCredit = true
		receipt.Refund = payment
	} else {
		if payment.Lt(e.priceInWei) {
			return Receipt{}, fmt.Errorf("payment %s is less than price %s: %w", payment.Dec(), e.priceInWei.Dec(), types.ErrInsufficientPayment)
		}
		var ok bool
		if total, ok = types.SafeAddWei(e.totalPurchases, payment); !ok {
			return Receipt{}, fmt.Errorf("total purchases overflow: %w", types.ErrInvalidArgument)
		}
		receipt.Accepted = payment
	}

	nonce, ok := util.SafeAdd(e.mintNonce, 1)
	if !ok {
		return Receipt{}, errors.New("mint nonce overflow")
	}
	if !e.minter.CanMint(e.identity) {
		return Receipt{}, fmt.Errorf("engine %s is not allowed to mint: %w", e.identity, types.ErrUnauthorized)
	}
	seedEntropy, err := entropy.Read(ctx, e.entropy)
	if err != nil {
		return Receipt{}, fmt.Errorf("reading entropy: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	values := generator.Generate(generator.Seed{Caller: caller, Nonce: nonce, Entropy: seedEntropy}, e.attributesBase)
	id, err := e.minter.Mint(e.identity, cards.MintRequest{
		Attributes: values.Attributes,
		Special:    e.cardTypeDefault,
		Name:       values.Name,
		Profile:    values.Profile,
		To:         caller,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("minting blind pack card: %w", err)
	}

	e.mintNonce = nonce
	if receipt.FundedByCredit {
		if left, _ := util.SafeSub(e.credits[caller], 1); left > 0 {
			e.credits[caller] = left
		} else {
			delete(e.credits, caller)
		}
	} else {
		e.totalPurchases = total
	}
	e.emit(&events.BlindPackPulled{TokenID: id, To: caller})

	receipt.TokenID = id
	span.SetAttributes(attribute.Int64("token_id", int64(id)), attribute.Bool("credit", receipt.FundedByCredit))
	return receipt, nil
}

func (e *Engine) SetPriceInWei(caller types.Identity, price *types.Wei) error {
	if err := e.access.RequireOwner(caller); err != nil {
		return fmt.Errorf("set price: %w", err)
	}
	old := e.priceInWei
	e.priceInWei = types.WeiOrZero(price)
	e.emit(&events.PriceInWeiChanged{Old: old.Clone(), New: e.priceInWei.Clone()})
	return nil
}

func (e *Engine) SetAttributesBase(caller types.Identity, base uint64) error {
	if err := e.access.RequireOwner(caller); err != nil {
		return fmt.Errorf("set attributes base: %w", err)
	}
	if base == 0 {
		return fmt.Errorf("attributes base must be positive: %w", types.ErrInvalidArgument)
	}
	e.attributesBase = base
	e.emit(&events.AttributesBaseChanged{New: base})
	return nil
}

func (e *Engine) SetCardTypeDefault(caller types.Identity, cardType uint64) error {
	if err := e.access.RequireOwner(caller); err != nil {
		return fmt.Errorf("set card type default: %w", err)
	}
	e.cardTypeDefault = cardType
	e.emit(&events.DefaultCardTypeChanged{New: cardType})
	return nil
}

// AddCredit grants one free pull to the identity.
func (e *Engine) AddCredit(caller, to types.Identity) error {
	if err := e.access.RequireOwner(caller); err != nil {
		return fmt.Errorf("add credit: %w", err)
	}
	if types.IsNull(to) {
		return fmt.Errorf("credit to null identity: %w", types.ErrInvalidArgument)
	}
	n, ok := util.SafeAdd(e.credits[to], 1)
	if !ok {
		return fmt.Errorf("credits of %s overflow: %w", to, types.ErrInvalidArgument)
	}
	e.credits[to] = n
	e.emit(&events.CreditAdded{To: to})
	return nil
}

func (e *Engine) Access() *access.Control {
	return e.access
}

func (e *Engine) Identity() types.Identity {
	return e.identity
}

func (e *Engine) PriceInWei() *types.Wei {
	return e.priceInWei.Clone()
}

func (e *Engine) AttributesBase() uint64 {
	return e.attributesBase
}

func (e *Engine) CardTypeDefault() uint64 {
	return e.cardTypeDefault
}

func (e *Engine) Credits(id types.Identity) uint64 {
	return e.credits[id]
}

// CreditHolders returns identities with non-zero credit balance, sorted.
func (e *Engine) CreditHolders() []types.Identity {
	ids := make([]types.Identity, 0, len(e.credits))
	for id := range e.credits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	return ids
}

func (e *Engine) TotalPurchasesInWei() *types.Wei {
	return e.totalPurchases.Clone()
}

func (e *Engine) MintNonce() uint64 {
	return e.mintNonce
}

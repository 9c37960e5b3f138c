/*
Package ledger ties the card registry and the blind pack engine to durable
storage.

Ledger serializes every call with a single mutex. A mutating call runs in a
commit scope: the events emitted by the components are buffered, on success
the records the events name, all scalar state and the events themselves are
written to the store in one transaction, then the events are appended to the
in-memory log and handed to subscribers. A failed operation writes nothing.
If the store fails after the components have already changed, the in-memory
state can't be trusted anymore and the ledger refuses all further calls with
ErrLedgerBroken; reopening from the store recovers the last committed state.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/futballcards/futballcards-go/access"
	"github.com/futballcards/futballcards-go/blindpack"
	"github.com/futballcards/futballcards-go/cards"
	"github.com/futballcards/futballcards-go/entropy"
	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/storage"
	"github.com/futballcards/futballcards-go/types"
)

var ErrLedgerBroken = errors.New("ledger is broken")

var tracer = otel.Tracer("github.com/futballcards/futballcards-go/ledger")

type (
	// Config seeds the state of a new ledger, it's ignored when the store
	// already holds a ledger.
	Config struct {
		Owner            types.Identity // owner of both the registry and the engine
		EngineIdentity   types.Identity // identity the engine mints as
		TokenBaseURI     string
		TokenBaseIpfsURI string // defaults to cards.DefaultTokenBaseIpfsURI
		PriceInWei       *types.Wei
		AttributesBase   uint64
		CardTypeDefault  uint64
	}

	// Components gives operation functions passed to Ledger.Do access to
	// the state machines.
	Components struct {
		Registry *cards.Registry
		Engine   *blindpack.Engine
	}

	Ledger struct {
		mu          sync.Mutex
		store       storage.Store
		log         *slog.Logger
		buf         events.Buffer
		comp        Components
		eventLog    *events.Log
		loadedSeq   uint64 // events up to this sequence number are only in the store
		subscribers map[uint64]func(events.Record)
		nextSubID   uint64
		broken      error
	}

	Option func(*options)

	options struct {
		log     *slog.Logger
		entropy entropy.Source
	}
)

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithEntropy sets the entropy source of blind pack pulls, default is
// entropy.Random.
func WithEntropy(src entropy.Source) Option {
	return func(o *options) {
		o.entropy = src
	}
}

/*
Open loads the ledger from the store. When the store is empty a new ledger
is created from cfg: both components are owned by cfg.Owner and the engine
identity is whitelisted on the registry. The initial state is committed
before Open returns.
*/
func Open(ctx context.Context, store storage.Store, cfg Config, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	o := options{log: slog.Default(), entropy: entropy.Random{}}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Ledger{
		store:       store,
		log:         o.log,
		subscribers: map[uint64]func(events.Record){},
	}

	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrEmpty):
		if err := l.init(ctx, cfg, o.entropy); err != nil {
			return nil, fmt.Errorf("initializing ledger: %w", err)
		}
		l.log.InfoContext(ctx, "ledger initialized", "owner", cfg.Owner, "engine", cfg.EngineIdentity)
	case err != nil:
		return nil, fmt.Errorf("loading ledger: %w", err)
	default:
		if err := l.restore(snap, o.entropy); err != nil {
			return nil, fmt.Errorf("restoring ledger: %w", err)
		}
		l.log.InfoContext(ctx, "ledger loaded", "cards", len(snap.Cards), "last_seq", snap.LastSeq)
	}
	return l, nil
}

func (l *Ledger) init(ctx context.Context, cfg Config, src entropy.Source) error {
	regAC, err := access.New(cfg.Owner, l.buf.Emit)
	if err != nil {
		return fmt.Errorf("registry access control: %w", err)
	}
	engAC, err := access.New(cfg.Owner, l.buf.Emit)
	if err != nil {
		return fmt.Errorf("engine access control: %w", err)
	}
	reg, err := cards.NewRegistry(regAC, cfg.TokenBaseURI, cfg.TokenBaseIpfsURI, l.buf.Emit)
	if err != nil {
		return err
	}
	engOpts := []blindpack.Option{blindpack.WithCardTypeDefault(cfg.CardTypeDefault)}
	if cfg.PriceInWei != nil {
		engOpts = append(engOpts, blindpack.WithPriceInWei(cfg.PriceInWei))
	}
	if cfg.AttributesBase != 0 {
		engOpts = append(engOpts, blindpack.WithAttributesBase(cfg.AttributesBase))
	}
	eng, err := blindpack.NewEngine(engAC, cfg.EngineIdentity, reg, src, l.buf.Emit, engOpts...)
	if err != nil {
		return err
	}
	l.comp = Components{Registry: reg, Engine: eng}
	l.eventLog = events.NewLog(0)

	if err := regAC.AddToWhitelist(cfg.Owner, cfg.EngineIdentity); err != nil {
		return fmt.Errorf("whitelisting engine: %w", err)
	}
	_, err = l.commit(ctx, "init")
	return err
}

func (l *Ledger) restore(snap *storage.Snapshot, src entropy.Source) error {
	regAC, err := access.Restore(snap.Meta.RegistryAccess, l.buf.Emit)
	if err != nil {
		return fmt.Errorf("registry access control: %w", err)
	}
	engAC, err := access.Restore(snap.Meta.EngineAccess, l.buf.Emit)
	if err != nil {
		return fmt.Errorf("engine access control: %w", err)
	}
	reg, err := cards.Restore(regAC, snap.Meta.Registry, snap.Cards, l.buf.Emit)
	if err != nil {
		return err
	}
	eng, err := blindpack.Restore(engAC, snap.Meta.Engine, snap.Credits, reg, src, l.buf.Emit)
	if err != nil {
		return err
	}
	l.comp = Components{Registry: reg, Engine: eng}
	l.loadedSeq = snap.LastSeq
	l.eventLog = events.NewLog(snap.LastSeq)
	return nil
}

/*
Do runs fn in a commit scope and returns the committed events. fn must
validate everything before mutating components, an error returned after a
mutation leaves the ledger with uncommitted changes.
*/
func (l *Ledger) Do(ctx context.Context, op string, fn func(c Components) error) ([]events.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.broken != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerBroken, l.broken)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.buf.Reset()
	if err := fn(l.comp); err != nil {
		l.buf.Reset()
		l.log.DebugContext(ctx, "operation rejected", "op", op, "kind", types.ErrorKind(err), "error", err)
		return nil, err
	}
	return l.commit(ctx, op)
}

// commit persists the buffered events and the state they touched, called
// with l.mu held.
func (l *Ledger) commit(ctx context.Context, op string) (_ []events.Record, rErr error) {
	evs := l.buf.Events()
	l.buf.Reset()

	ctx, span := tracer.Start(ctx, "ledger.commit")
	span.SetAttributes(attribute.String("op", op), attribute.Int("events", len(evs)))
	defer func() {
		if rErr != nil {
			span.RecordError(rErr)
			span.SetStatus(codes.Error, rErr.Error())
		}
		span.End()
	}()

	c := &storage.Commit{
		Meta: storage.Meta{
			Registry:       l.comp.Registry.State(),
			RegistryAccess: l.comp.Registry.Access().State(),
			Engine:         l.comp.Engine.State(),
			EngineAccess:   l.comp.Engine.Access().State(),
		},
		Credits: map[types.Identity]uint64{},
	}
	touched := map[types.TokenID]struct{}{}
	next := l.eventLog.LastSeq() + 1
	for i, e := range evs {
		if te, ok := e.(events.TokenEvent); ok {
			if _, ok := touched[te.Token()]; !ok {
				touched[te.Token()] = struct{}{}
				if rec := l.comp.Registry.Record(te.Token()); rec != nil {
					c.Cards = append(c.Cards, rec)
				}
			}
		}
		switch e := e.(type) {
		case *events.CreditAdded:
			c.Credits[e.To] = l.comp.Engine.Credits(e.To)
		case *events.BlindPackPulled:
			c.Credits[e.To] = l.comp.Engine.Credits(e.To)
		}
		c.Events = append(c.Events, events.Record{Seq: next + uint64(i), Topic: events.Topic(e), Event: e})
	}

	// the components have changed already, cancelling now would only lose the change
	if err := l.store.Commit(context.WithoutCancel(ctx), c); err != nil {
		l.broken = err
		l.log.ErrorContext(ctx, "persisting ledger state failed, ledger is broken", "op", op, "error", err)
		return nil, fmt.Errorf("%w: persisting %s: %w", ErrLedgerBroken, op, err)
	}

	recs := l.eventLog.Append(evs...)
	for _, rec := range recs {
		for _, fn := range l.subscribers {
			fn(rec)
		}
	}
	l.log.DebugContext(ctx, "operation committed", "op", op, "events", len(recs), "last_seq", l.eventLog.LastSeq())
	return recs, nil
}

// view runs read-only fn under the ledger lock.
func view[T any](l *Ledger, fn func(c Components) (T, error)) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrLedgerBroken, l.broken)
	}
	return fn(l.comp)
}

/*
Events returns up to limit committed events with sequence number greater
than afterSeq (limit <= 0 means all). Events committed before the ledger was
opened are read from the store.
*/
func (l *Ledger) Events(ctx context.Context, afterSeq uint64, limit int) ([]events.Record, error) {
	l.mu.Lock()
	if l.broken != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrLedgerBroken, l.broken)
	}
	if afterSeq < l.loadedSeq {
		l.mu.Unlock()
		return l.store.Events(ctx, afterSeq, limit)
	}
	recs := l.eventLog.After(afterSeq)
	l.mu.Unlock()

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// LastSeq returns the sequence number of the last committed event.
func (l *Ledger) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eventLog.LastSeq()
}

/*
Subscribe registers fn to be called with every event committed from now on,
in commit order. fn is called with the ledger lock held so it must not call
back into the ledger. The returned function cancels the subscription.
*/
func (l *Ledger) Subscribe(fn func(events.Record)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

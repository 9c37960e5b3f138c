/*
Package storage defines the persistence contract of the card ledger.

A store holds the complete ledger state: card records (burned included),
credit balances, the scalar configuration of the registry and the engine
(including their access control) and the committed event log. Commits are
all-or-nothing.
*/
package storage

import (
	"context"
	"errors"

	"github.com/futballcards/futballcards-go/access"
	"github.com/futballcards/futballcards-go/blindpack"
	"github.com/futballcards/futballcards-go/cards"
	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/types"
)

// ErrEmpty is returned by Load when the store has never been committed to.
var ErrEmpty = errors.New("store is empty")

type (
	// Meta is the scalar state, it is written in full by every commit.
	Meta struct {
		_              struct{} `cbor:",toarray"`
		Registry       cards.State
		RegistryAccess access.State
		Engine         blindpack.State
		EngineAccess   access.State
	}

	Snapshot struct {
		Meta    Meta
		Cards   []*cards.Card // every card ever minted, ordered by ID
		Credits map[types.Identity]uint64
		LastSeq uint64 // sequence number of the last committed event
	}

	// Commit is the change set of a single ledger operation.
	Commit struct {
		Meta    Meta
		Cards   []*cards.Card             // records touched by the operation
		Credits map[types.Identity]uint64 // balances touched, zero removes the row
		Events  []events.Record
	}

	Store interface {
		// Load returns ErrEmpty when nothing has been committed yet.
		Load(ctx context.Context) (*Snapshot, error)
		Commit(ctx context.Context, c *Commit) error
		// Events returns up to limit committed events with sequence number
		// greater than afterSeq, limit <= 0 means no limit.
		Events(ctx context.Context, afterSeq uint64, limit int) ([]events.Record, error)
		Close() error
	}
)

/*
Package entropy provides the external randomness mixed into blind pack seeds.

The source must be unpredictable to the caller before the pull executes and
should be verifiable afterwards (ie recent block hash), the core treats the
returned value as opaque bytes.
*/
package entropy

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MinLength is the minimum number of bytes a source must return.
const MinLength = 16

type (
	Source interface {
		Entropy(ctx context.Context) ([]byte, error)
	}

	// SourceFunc adapts ordinary function to Source.
	SourceFunc func(ctx context.Context) ([]byte, error)

	// BlockInfo describes block the operation is included in.
	BlockInfo struct {
		Number    uint64
		Hash      common.Hash
		Timestamp uint64
	}

	// BlockProvider returns information about the current block.
	BlockProvider interface {
		CurrentBlock(ctx context.Context) (BlockInfo, error)
	}

	// Block derives entropy from the current block (hash, number and timestamp).
	Block struct {
		Provider BlockProvider
	}

	// Random reads entropy from crypto/rand, not verifiable after the fact.
	Random struct{}

	// Fixed always returns the same value, for tests and replays.
	Fixed []byte
)

var errShortEntropy = errors.New("entropy source returned too few bytes")

func (f SourceFunc) Entropy(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

func (b Block) Entropy(ctx context.Context) ([]byte, error) {
	if b.Provider == nil {
		return nil, errors.New("block provider is not assigned")
	}
	bi, err := b.Provider.CurrentBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading current block: %w", err)
	}
	return bi.Bytes(), nil
}

// Bytes returns hash || number || timestamp, numbers big-endian.
func (bi BlockInfo) Bytes() []byte {
	buf := make([]byte, 0, common.HashLength+16)
	buf = append(buf, bi.Hash.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, bi.Number)
	return binary.BigEndian.AppendUint64(buf, bi.Timestamp)
}

func (Random) Entropy(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return buf, nil
}

func (f Fixed) Entropy(ctx context.Context) ([]byte, error) {
	return append([]byte(nil), f...), nil
}

/*
Read queries the source and checks that the result is long enough to be
useful as seed material.
*/
func Read(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("entropy source is not assigned")
	}
	buf, err := src.Entropy(ctx)
	if err != nil {
		return nil, err
	}
	if len(buf) < MinLength {
		return nil, fmt.Errorf("%w: got %d, need at least %d", errShortEntropy, len(buf), MinLength)
	}
	return buf, nil
}

/*
Package cbor provides CBOR encoding/decoding functions.

It's a thin wrapper for github.com/fxamacker/cbor/v2, the reason for
having it is to make sure the ledger uses the same encoding options
everywhere: persisted records, event envelopes, hashed seeds and
transaction attributes must all encode deterministically.
*/
package cbor

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fxamacker/cbor/v2"
)

type (
	Tag = uint64

	RawCBOR []byte
)

var (
	encMode cbor.EncMode

	cborNil = []byte{0xf6}
)

func init() {
	// building encoder mode from the library's own options only fails on
	// programming error, there is nothing sensible to recover to
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(fmt.Errorf("initializing CBOR encoder mode: %w", err))
	}
}

/*
EncMode returns Core Deterministic Encoding mode. See <https://www.rfc-editor.org/rfc/rfc8949.html#name-deterministically-encoded-c>.
*/
func EncMode() cbor.EncMode {
	return encMode
}

func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// MarshalTaggedValue encodes v and wraps the result into CBOR tag.
func MarshalTaggedValue(tag Tag, v any) ([]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	return Marshal(cbor.RawTag{
		Number:  tag,
		Content: data,
	})
}

func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// UnmarshalTaggedValue decodes data created by MarshalTaggedValue, the
// tag must match the expected one.
func UnmarshalTaggedValue(tag Tag, data []byte, v any) error {
	var raw cbor.RawTag
	if err := Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Number != tag {
		return fmt.Errorf("unexpected tag: %d, expected: %d", raw.Number, tag)
	}
	return Unmarshal(raw.Content, v)
}

func Encode(w io.Writer, v any) error {
	return encMode.NewEncoder(w).Encode(v)
}

func Decode(r io.Reader, v any) error {
	return cbor.NewDecoder(r).Decode(v)
}

// MarshalCBOR returns r or CBOR nil if r is empty.
func (r RawCBOR) MarshalCBOR() ([]byte, error) {
	if len(r) == 0 {
		return cborNil, nil
	}
	return r, nil
}

// UnmarshalCBOR copies data into r unless it's CBOR "nil marker" - in that
// case r is set to empty slice.
func (r *RawCBOR) UnmarshalCBOR(data []byte) error {
	if r == nil {
		return errors.New("UnmarshalCBOR on nil pointer")
	}
	if bytes.Equal(data, cborNil) {
		*r = (*r)[0:0]
	} else {
		*r = append((*r)[0:0], data...)
	}
	return nil
}

func (r RawCBOR) MarshalText() ([]byte, error) {
	return []byte(hexutil.Encode(r)), nil
}

func (r *RawCBOR) UnmarshalText(src []byte) error {
	res, err := hexutil.Decode(string(src))
	if err == nil {
		*r = res
	}
	return err
}

package hash

import (
	"hash"

	"github.com/fxamacker/cbor/v2"

	fccbor "github.com/futballcards/futballcards-go/cbor"
)

// Hash feeds CBOR encoded values into the underlying hash function. The
// first encoding error is kept and reported by Sum.
type Hash struct {
	h   hash.Hash
	enc *cbor.Encoder
	err error
}

func New(h hash.Hash) *Hash {
	return &Hash{h: h, enc: fccbor.EncMode().NewEncoder(h)}
}

// Write encodes v as CBOR into the hash.
func (h *Hash) Write(v any) {
	if h.err == nil {
		h.err = h.enc.Encode(v)
	}
}

// WriteRaw writes d into the hash without encoding it.
func (h *Hash) WriteRaw(d []byte) {
	if h.err == nil {
		_, h.err = h.h.Write(d)
	}
}

func (h *Hash) Reset() {
	h.h.Reset()
	h.err = nil
	h.enc = fccbor.EncMode().NewEncoder(h.h)
}

func (h *Hash) Size() int { return h.h.Size() }

// Sum returns the digest and the first error of the writes, the digest is
// not valid when the error is not nil.
func (h *Hash) Sum() ([]byte, error) {
	return h.h.Sum(nil), h.err
}

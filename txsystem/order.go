package txsystem

import (
	"crypto"
	"errors"
	"fmt"

	"github.com/futballcards/futballcards-go/cbor"
	"github.com/futballcards/futballcards-go/hash"
	"github.com/futballcards/futballcards-go/types"
)

const Version1 uint32 = 1

var ErrTransactionOrderIsNil = errors.New("transaction order is nil")

type (
	TransactionOrder struct {
		_       struct{} `cbor:",toarray"`
		Version uint32
		Payload // the embedded Payload field is "flattened" in CBOR array
	}

	Payload struct {
		_              struct{}        `cbor:",toarray"`
		Type           uint16          `json:"type"`
		Caller         types.Identity  `json:"caller"`
		Value          *types.Wei      `json:"value"`      // payment attached to the order, only blind pack pulls read it
		Attributes     cbor.RawCBOR    `json:"attributes"` // transaction type specific attributes
		ClientMetadata *ClientMetadata `json:"clientMetadata,omitempty"`
	}

	ClientMetadata struct {
		_               struct{} `cbor:",toarray"`
		ReferenceNumber []byte   `json:"referenceNumber"` // opaque client reference, ie payment id of the custody layer
	}
)

// NewTransactionOrder returns order of given type with attributes set.
func NewTransactionOrder(txType uint16, caller types.Identity, attr any) (*TransactionOrder, error) {
	tx := &TransactionOrder{Version: Version1, Payload: Payload{Type: txType, Caller: caller}}
	if err := tx.SetAttributes(attr); err != nil {
		return nil, err
	}
	return tx, nil
}

/*
SetAttributes serializes "attr" and assigns the result to payload's Attributes field.
The "attr" is expected to be one of the transaction attribute structs but there is
no validation!
*/
func (t *TransactionOrder) SetAttributes(attr any) error {
	if t == nil {
		return ErrTransactionOrderIsNil
	}
	attrCBOR, err := cbor.Marshal(attr)
	if err != nil {
		return fmt.Errorf("marshaling %T as tx attributes: %w", attr, err)
	}
	t.Attributes = attrCBOR
	return nil
}

func (t *TransactionOrder) UnmarshalAttributes(v any) error {
	if t == nil {
		return ErrTransactionOrderIsNil
	}
	return cbor.Unmarshal(t.Attributes, v)
}

func (t *TransactionOrder) Hash(algorithm crypto.Hash) ([]byte, error) {
	if t == nil {
		return nil, ErrTransactionOrderIsNil
	}
	return hash.HashValues(algorithm, t)
}

func (t *TransactionOrder) MarshalCBOR() ([]byte, error) {
	type alias TransactionOrder
	if t.Version == 0 {
		cp := *t
		cp.Version = Version1
		return cbor.Marshal((*alias)(&cp))
	}
	return cbor.Marshal((*alias)(t))
}

func (t *TransactionOrder) UnmarshalCBOR(data []byte) error {
	type alias TransactionOrder
	if err := cbor.Unmarshal(data, (*alias)(t)); err != nil {
		return err
	}
	if t.Version != Version1 {
		return fmt.Errorf("unsupported transaction order version %d", t.Version)
	}
	return nil
}

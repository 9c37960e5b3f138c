package events

import (
	"fmt"

	"github.com/futballcards/futballcards-go/cbor"
)

// envelope is the persisted form of an event, the name selects the type
// the payload is decoded into.
type envelope struct {
	_    struct{} `cbor:",toarray"`
	Name string
	Data cbor.RawCBOR
}

var factories = map[string]func() Event{}

func register(f func() Event) {
	factories[Name(f())] = f
}

func init() {
	for _, f := range []func() Event{
		func() Event { return &CardMinted{} },
		func() Event { return &TokenBaseURIChanged{} },
		func() Event { return &TokenBaseIPFSURIChanged{} },
		func() Event { return &AttributesChanged{} },
		func() Event { return &NameChanged{} },
		func() Event { return &SpecialSet{} },
		func() Event { return &BadgeSet{} },
		func() Event { return &SponsorSet{} },
		func() Event { return &NumberSet{} },
		func() Event { return &BootsSet{} },
		func() Event { return &StarAdded{} },
		func() Event { return &XpAdded{} },
		func() Event { return &StaticImageSet{} },
		func() Event { return &StaticImageCleared{} },
		func() Event { return &Transfer{} },
		func() Event { return &PriceInWeiChanged{} },
		func() Event { return &AttributesBaseChanged{} },
		func() Event { return &CreditAdded{} },
		func() Event { return &DefaultCardTypeChanged{} },
		func() Event { return &BlindPackPulled{} },
		func() Event { return &OwnershipTransferred{} },
		func() Event { return &WhitelistedAdded{} },
		func() Event { return &WhitelistedRemoved{} },
	} {
		register(f)
	}
}

// Encode serializes event into CBOR envelope.
func Encode(e Event) ([]byte, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", Name(e), err)
	}
	return cbor.Marshal(envelope{Name: Name(e), Data: data})
}

// Decode restores event serialized by Encode.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	f, ok := factories[env.Name]
	if !ok {
		return nil, fmt.Errorf("unknown event %q", env.Name)
	}
	e := f()
	if err := cbor.Unmarshal(env.Data, e); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", env.Name, err)
	}
	return e, nil
}

package txsystem

import (
	"context"
	"crypto"
	"fmt"

	"github.com/futballcards/futballcards-go/blindpack"
	"github.com/futballcards/futballcards-go/cards"
	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/ledger"
	"github.com/futballcards/futballcards-go/types"
)

type (
	// Result of a successfully executed transaction order.
	Result struct {
		TxHash  []byte             `json:"txHash"`
		TokenID *types.TokenID     `json:"tokenId,omitempty"` // minted token, set by mint and pull
		Receipt *blindpack.Receipt `json:"receipt,omitempty"`
		Events  []events.Record    `json:"events"`
	}

	// operation is the decoded order ready to be run in a ledger commit scope.
	operation struct {
		name string
		run  func(c ledger.Components) error
	}
)

/*
Execute decodes the attributes of the order and runs it as a single ledger
operation. Unknown transaction types and undecodable attributes are
reported as types.ErrInvalidArgument.
*/
func Execute(ctx context.Context, l *ledger.Ledger, tx *TransactionOrder) (*Result, error) {
	if tx == nil {
		return nil, ErrTransactionOrderIsNil
	}
	txHash, err := tx.Hash(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("hashing transaction order: %w", err)
	}
	res := &Result{TxHash: txHash}

	op, err := decode(ctx, tx, res)
	if err != nil {
		return nil, err
	}
	recs, err := l.Do(ctx, op.name, op.run)
	if err != nil {
		return nil, err
	}
	res.Events = recs
	return res, nil
}

func unmarshal[T any](tx *TransactionOrder) (*T, error) {
	attr := new(T)
	if err := tx.UnmarshalAttributes(attr); err != nil {
		return nil, fmt.Errorf("decoding %T: %w: %w", attr, types.ErrInvalidArgument, err)
	}
	return attr, nil
}

func decode(ctx context.Context, tx *TransactionOrder, res *Result) (*operation, error) {
	caller := tx.Caller
	switch tx.Type {
	case TransactionTypeTransferOwnership:
		attr, err := unmarshal[TransferOwnershipAttributes](tx)
		if err != nil {
			return nil, err
		}
		return accessOp("transfer ownership", attr.Scope, func(c accessControl) error {
			return c.TransferOwnership(caller, attr.NewOwner)
		}), nil
	case TransactionTypeAddToWhitelist, TransactionTypeRemoveFromWhitelist:
		attr, err := unmarshal[WhitelistAttributes](tx)
		if err != nil {
			return nil, err
		}
		if tx.Type == TransactionTypeAddToWhitelist {
			return accessOp("add to whitelist", attr.Scope, func(c accessControl) error {
				return c.AddToWhitelist(caller, attr.Account)
			}), nil
		}
		return accessOp("remove from whitelist", attr.Scope, func(c accessControl) error {
			return c.RemoveFromWhitelist(caller, attr.Account)
		}), nil

	case TransactionTypeMintCard:
		attr, err := unmarshal[MintCardAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "mint", run: func(c ledger.Components) error {
			id, err := c.Registry.Mint(caller, cards.MintRequest{
				Attributes: attr.Attributes,
				Special:    attr.Special,
				Name:       attr.Name,
				Profile:    attr.Profile,
				To:         attr.To,
			})
			if err != nil {
				return err
			}
			res.TokenID = &id
			return nil
		}}, nil
	case TransactionTypeSetAttributes:
		attr, err := unmarshal[SetAttributesAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "set attributes", run: func(c ledger.Components) error {
			return c.Registry.SetAttributes(caller, attr.TokenID, attr.Strength, attr.Speed, attr.Intelligence, attr.Skill)
		}}, nil
	case TransactionTypeSetName:
		attr, err := unmarshal[SetNameAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "set name", run: func(c ledger.Components) error {
			return c.Registry.SetName(caller, attr.TokenID, attr.FirstName, attr.LastName)
		}}, nil
	case TransactionTypeSetSpecial, TransactionTypeSetBadge, TransactionTypeSetSponsor, TransactionTypeSetNumber, TransactionTypeSetBoots:
		attr, err := unmarshal[SetValueAttributes](tx)
		if err != nil {
			return nil, err
		}
		name, set := valueSetter(tx.Type)
		return &operation{name: name, run: func(c ledger.Components) error {
			return set(c.Registry, caller, attr.TokenID, attr.Value)
		}}, nil
	case TransactionTypeAddStar:
		attr, err := unmarshal[TokenAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "add star", run: func(c ledger.Components) error {
			return c.Registry.AddStar(caller, attr.TokenID)
		}}, nil
	case TransactionTypeAddXp:
		attr, err := unmarshal[AddXpAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "add xp", run: func(c ledger.Components) error {
			return c.Registry.AddXp(caller, attr.TokenID, attr.Amount)
		}}, nil
	case TransactionTypeOverrideImage:
		attr, err := unmarshal[OverrideImageAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "override image", run: func(c ledger.Components) error {
			return c.Registry.OverrideImageWithContentRef(caller, attr.TokenID, attr.ContentRef)
		}}, nil
	case TransactionTypeClearImageOverride:
		attr, err := unmarshal[TokenAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "clear image override", run: func(c ledger.Components) error {
			return c.Registry.ClearImageOverride(caller, attr.TokenID)
		}}, nil
	case TransactionTypeUpdateBaseURI:
		attr, err := unmarshal[URIAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "update base URI", run: func(c ledger.Components) error {
			return c.Registry.UpdateBaseURI(caller, attr.Value)
		}}, nil
	case TransactionTypeUpdateBaseContentURI:
		attr, err := unmarshal[URIAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "update base content URI", run: func(c ledger.Components) error {
			return c.Registry.UpdateBaseContentURI(caller, attr.Value)
		}}, nil
	case TransactionTypeBurn:
		attr, err := unmarshal[TokenAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "burn", run: func(c ledger.Components) error {
			return c.Registry.Burn(caller, attr.TokenID)
		}}, nil
	case TransactionTypeTransfer:
		attr, err := unmarshal[TransferAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "transfer", run: func(c ledger.Components) error {
			return c.Registry.Transfer(caller, attr.To, attr.TokenID)
		}}, nil

	case TransactionTypePullBlindPack:
		if _, err := unmarshal[PullBlindPackAttributes](tx); err != nil {
			return nil, err
		}
		return &operation{name: "pull blind pack", run: func(c ledger.Components) error {
			r, err := c.Engine.Pull(ctx, caller, tx.Value)
			if err != nil {
				return err
			}
			res.Receipt = &r
			res.TokenID = &r.TokenID
			return nil
		}}, nil
	case TransactionTypeSetPriceInWei:
		attr, err := unmarshal[SetPriceInWeiAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "set price", run: func(c ledger.Components) error {
			return c.Engine.SetPriceInWei(caller, attr.Price)
		}}, nil
	case TransactionTypeSetAttributesBase:
		attr, err := unmarshal[SetUintAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "set attributes base", run: func(c ledger.Components) error {
			return c.Engine.SetAttributesBase(caller, attr.Value)
		}}, nil
	case TransactionTypeSetCardTypeDefault:
		attr, err := unmarshal[SetUintAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "set card type default", run: func(c ledger.Components) error {
			return c.Engine.SetCardTypeDefault(caller, attr.Value)
		}}, nil
	case TransactionTypeAddCredit:
		attr, err := unmarshal[AddCreditAttributes](tx)
		if err != nil {
			return nil, err
		}
		return &operation{name: "add credit", run: func(c ledger.Components) error {
			return c.Engine.AddCredit(caller, attr.To)
		}}, nil
	}
	return nil, fmt.Errorf("unknown transaction type %d: %w", tx.Type, types.ErrInvalidArgument)
}

type accessControl interface {
	TransferOwnership(caller, newOwner types.Identity) error
	AddToWhitelist(caller, id types.Identity) error
	RemoveFromWhitelist(caller, id types.Identity) error
}

func accessOp(name, scope string, fn func(c accessControl) error) *operation {
	return &operation{name: name, run: func(c ledger.Components) error {
		ac, err := c.Access(ledger.Scope(scope))
		if err != nil {
			return err
		}
		return fn(ac)
	}}
}

func valueSetter(txType uint16) (string, func(r *cards.Registry, caller types.Identity, id types.TokenID, v uint64) error) {
	switch txType {
	case TransactionTypeSetSpecial:
		return "set special", (*cards.Registry).SetSpecial
	case TransactionTypeSetBadge:
		return "set badge", (*cards.Registry).SetBadge
	case TransactionTypeSetSponsor:
		return "set sponsor", (*cards.Registry).SetSponsor
	case TransactionTypeSetNumber:
		return "set number", (*cards.Registry).SetNumber
	default:
		return "set boots", (*cards.Registry).SetBoots
	}
}

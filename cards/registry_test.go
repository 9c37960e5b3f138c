package cards

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/futballcards/futballcards-go/access"
	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/types"
)

const baseURI = "http://futball-cards/"

var (
	creator    = types.HexToIdentity("0x00000000000000000000000000000000000000a1")
	tokenOwner = types.HexToIdentity("0x00000000000000000000000000000000000000b2")
	anyone     = types.HexToIdentity("0x00000000000000000000000000000000000000c3")
)

func newRegistry(t *testing.T) (*Registry, *events.Buffer) {
	t.Helper()
	buf := &events.Buffer{}
	ac, err := access.New(creator, buf.Emit)
	require.NoError(t, err)
	r, err := NewRegistry(ac, baseURI, "", buf.Emit)
	require.NoError(t, err)
	return r, buf
}

func mint(t *testing.T, r *Registry, to types.Identity) types.TokenID {
	t.Helper()
	id, err := r.Mint(creator, MintRequest{To: to})
	require.NoError(t, err)
	return id
}

func Test_NewRegistry(t *testing.T) {
	_, err := NewRegistry(nil, baseURI, "", nil)
	require.EqualError(t, err, `access control is required`)

	r, _ := newRegistry(t)
	require.Equal(t, "FutballCard", r.Name())
	require.Equal(t, "FUT", r.Symbol())
	require.Equal(t, baseURI, r.TokenBaseURI())
	require.Equal(t, DefaultTokenBaseIpfsURI, r.TokenBaseContentURI())
	require.Zero(t, r.TotalCards())
	require.True(t, r.CanMint(creator))
	require.False(t, r.CanMint(anyone))
}

func Test_Mint(t *testing.T) {
	t.Run("mints and emits event", func(t *testing.T) {
		r, buf := newRegistry(t)
		id, err := r.Mint(creator, MintRequest{To: tokenOwner})
		require.NoError(t, err)
		require.EqualValues(t, 0, id)
		require.Equal(t, []events.Event{&events.CardMinted{TokenID: 0, To: tokenOwner}}, buf.Events())
		require.EqualValues(t, 1, r.TotalCards())

		c, err := r.Card(id)
		require.NoError(t, err)
		require.Equal(t, Attributes{}, c.Attributes)
		require.Zero(t, c.Special)
		require.Equal(t, Extras{}, c.Extras)
		require.False(t, c.HasStaticImage())
		require.Equal(t, tokenOwner, c.Owner)
	})

	t.Run("stores all values", func(t *testing.T) {
		r, _ := newRegistry(t)
		req := MintRequest{
			Attributes: Attributes{1, 2, 3, 4, 5},
			Special:    6,
			Name:       PlayerName{7, 8},
			Profile:    Profile{9, 8, 7, 6, 5},
			To:         anyone,
		}
		id, err := r.Mint(creator, req)
		require.NoError(t, err)

		an, err := r.AttributesAndName(id)
		require.NoError(t, err)
		require.Equal(t, AttributesAndName{Attributes: req.Attributes, Special: 6, Name: req.Name}, an)
		require.EqualValues(t, 4, an.Attributes.Skill())
		require.EqualValues(t, 8, an.Name.Last())

		c, err := r.Card(id)
		require.NoError(t, err)
		require.Equal(t, req.Profile, c.Profile)
		require.EqualValues(t, 5, c.Profile.Colour())
	})

	t.Run("sequential IDs", func(t *testing.T) {
		r, _ := newRegistry(t)
		for i := 0; i < 5; i++ {
			require.EqualValues(t, i, mint(t, r, tokenOwner))
		}
		require.EqualValues(t, 5, r.TotalCards())
	})

	t.Run("must be whitelisted", func(t *testing.T) {
		r, buf := newRegistry(t)
		_, err := r.Mint(tokenOwner, MintRequest{To: tokenOwner})
		require.ErrorIs(t, err, types.ErrUnauthorized)
		require.Zero(t, r.TotalCards())
		require.Empty(t, buf.Events())

		require.NoError(t, r.Access().AddToWhitelist(creator, anyone))
		_, err = r.Mint(anyone, MintRequest{To: tokenOwner})
		require.NoError(t, err)
	})

	t.Run("null receiver", func(t *testing.T) {
		r, _ := newRegistry(t)
		_, err := r.Mint(creator, MintRequest{})
		require.ErrorIs(t, err, types.ErrInvalidArgument)
		require.Zero(t, r.TotalCards())
	})
}

func Test_Setters(t *testing.T) {
	tests := []struct {
		name  string
		call  func(r *Registry, caller types.Identity, id types.TokenID) error
		event events.Event
		check func(t *testing.T, c *Card)
	}{
		{
			name:  "set attributes",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.SetAttributes(caller, id, 1, 1, 1, 1) },
			event: &events.AttributesChanged{Strength: 1, Speed: 1, Intelligence: 1, Skill: 1},
			check: func(t *testing.T, c *Card) { require.Equal(t, Attributes{1, 1, 1, 1, 9}, c.Attributes) },
		},
		{
			name:  "set name",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.SetName(caller, id, 2, 2) },
			event: &events.NameChanged{FirstName: 2, LastName: 2},
			check: func(t *testing.T, c *Card) { require.Equal(t, PlayerName{2, 2}, c.Name) },
		},
		{
			name:  "set special",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.SetSpecial(caller, id, 3) },
			event: &events.SpecialSet{Value: 3},
			check: func(t *testing.T, c *Card) { require.EqualValues(t, 3, c.Special) },
		},
		{
			name:  "set badge",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.SetBadge(caller, id, 4) },
			event: &events.BadgeSet{Value: 4},
			check: func(t *testing.T, c *Card) { require.EqualValues(t, 4, c.Extras.Badge) },
		},
		{
			name:  "set sponsor",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.SetSponsor(caller, id, 5) },
			event: &events.SponsorSet{Value: 5},
			check: func(t *testing.T, c *Card) { require.EqualValues(t, 5, c.Extras.Sponsor) },
		},
		{
			name:  "set number",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.SetNumber(caller, id, 6) },
			event: &events.NumberSet{Value: 6},
			check: func(t *testing.T, c *Card) { require.EqualValues(t, 6, c.Extras.Number) },
		},
		{
			name:  "set boots",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.SetBoots(caller, id, 7) },
			event: &events.BootsSet{Value: 7},
			check: func(t *testing.T, c *Card) { require.EqualValues(t, 7, c.Extras.Boots) },
		},
		{
			name:  "add star",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.AddStar(caller, id) },
			event: &events.StarAdded{Value: 1},
			check: func(t *testing.T, c *Card) { require.EqualValues(t, 1, c.Extras.Stars) },
		},
		{
			name:  "add xp",
			call:  func(r *Registry, caller types.Identity, id types.TokenID) error { return r.AddXp(caller, id, 99) },
			event: &events.XpAdded{Value: 99},
			check: func(t *testing.T, c *Card) { require.EqualValues(t, 99, c.Extras.Xp) },
		},
	}

	// the second minted token is used so that the event must carry the right ID
	setup := func(t *testing.T) (*Registry, *events.Buffer) {
		r, buf := newRegistry(t)
		mint(t, r, tokenOwner)
		_, err := r.Mint(creator, MintRequest{Attributes: Attributes{0, 0, 0, 0, 9}, To: tokenOwner})
		require.NoError(t, err)
		buf.Reset()
		return r, buf
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Run("success", func(t *testing.T) {
				r, buf := setup(t)
				require.NoError(t, tc.call(r, creator, 1))
				require.Len(t, buf.Events(), 1)
				ev := buf.Events()[0]
				require.Equal(t, events.Name(tc.event), events.Name(ev))
				require.EqualValues(t, 1, ev.(events.TokenEvent).Token())

				c, err := r.Card(1)
				require.NoError(t, err)
				tc.check(t, c)
			})

			t.Run("must be whitelisted", func(t *testing.T) {
				r, buf := setup(t)
				before, err := r.Card(1)
				require.NoError(t, err)
				// not even the token holder may change values
				require.ErrorIs(t, tc.call(r, tokenOwner, 1), types.ErrUnauthorized)
				require.ErrorIs(t, tc.call(r, anyone, 1), types.ErrUnauthorized)
				require.Empty(t, buf.Events())
				after, err := r.Card(1)
				require.NoError(t, err)
				require.Equal(t, before, after)
			})

			t.Run("must have token", func(t *testing.T) {
				r, buf := setup(t)
				require.ErrorIs(t, tc.call(r, creator, 999), types.ErrNotFound)
				require.Empty(t, buf.Events())
			})

			t.Run("authorization is checked before existence", func(t *testing.T) {
				r, _ := setup(t)
				err := tc.call(r, anyone, 999)
				require.ErrorIs(t, err, types.ErrUnauthorized)
				require.NotErrorIs(t, err, types.ErrNotFound)
			})

			t.Run("burned token", func(t *testing.T) {
				r, _ := setup(t)
				require.NoError(t, r.Burn(tokenOwner, 1))
				require.ErrorIs(t, tc.call(r, creator, 1), types.ErrNotFound)
			})

			t.Run("whitelisted non-owner", func(t *testing.T) {
				r, _ := setup(t)
				require.NoError(t, r.Access().AddToWhitelist(creator, anyone))
				require.NoError(t, tc.call(r, anyone, 1))
			})
		})
	}
}

func Test_Counters(t *testing.T) {
	t.Run("stars", func(t *testing.T) {
		r, buf := newRegistry(t)
		id := mint(t, r, tokenOwner)
		buf.Reset()
		for i := 1; i <= 5; i++ {
			require.NoError(t, r.AddStar(creator, id))
			require.Equal(t, &events.StarAdded{TokenID: id, Value: uint64(i)}, buf.Events()[i-1])
		}
		ex, err := r.Extras(id)
		require.NoError(t, err)
		require.EqualValues(t, 5, ex.Stars)
	})

	t.Run("xp", func(t *testing.T) {
		r, buf := newRegistry(t)
		id := mint(t, r, tokenOwner)
		buf.Reset()
		amounts := []uint64{99, 1, 0, 1000}
		for _, a := range amounts {
			require.NoError(t, r.AddXp(creator, id, a))
		}
		ex, err := r.Extras(id)
		require.NoError(t, err)
		require.EqualValues(t, 1100, ex.Xp)
		require.Equal(t, &events.XpAdded{TokenID: id, Value: 1000}, buf.Events()[3])
	})

	t.Run("xp overflow", func(t *testing.T) {
		r, buf := newRegistry(t)
		id := mint(t, r, tokenOwner)
		require.NoError(t, r.AddXp(creator, id, math.MaxUint64))
		buf.Reset()
		require.ErrorIs(t, r.AddXp(creator, id, 1), types.ErrInvalidArgument)
		require.Empty(t, buf.Events())
		ex, err := r.Extras(id)
		require.NoError(t, err)
		require.EqualValues(t, uint64(math.MaxUint64), ex.Xp)
	})
}

func Test_StaticImage(t *testing.T) {
	const staticIpfsHash = "123-abc-456-def"

	setup := func(t *testing.T) (*Registry, *events.Buffer, types.TokenID) {
		r, buf := newRegistry(t)
		id := mint(t, r, tokenOwner)
		buf.Reset()
		return r, buf, id
	}

	t.Run("token owner can set and clear", func(t *testing.T) {
		r, buf, id := setup(t)
		require.NoError(t, r.OverrideImageWithContentRef(tokenOwner, id, staticIpfsHash))
		require.NoError(t, r.ClearImageOverride(tokenOwner, id))
		require.Equal(t, []events.Event{
			&events.StaticImageSet{TokenID: id, IpfsHash: staticIpfsHash},
			&events.StaticImageCleared{TokenID: id},
		}, buf.Events())
	})

	t.Run("whitelisted can set and clear", func(t *testing.T) {
		r, _, id := setup(t)
		require.NoError(t, r.Access().AddToWhitelist(creator, anyone))
		require.NoError(t, r.OverrideImageWithContentRef(anyone, id, staticIpfsHash))
		c, err := r.Card(id)
		require.NoError(t, err)
		require.Equal(t, staticIpfsHash, c.StaticImage)
		require.NoError(t, r.ClearImageOverride(anyone, id))
	})

	t.Run("cannot set empty reference", func(t *testing.T) {
		r, buf, id := setup(t)
		require.ErrorIs(t, r.OverrideImageWithContentRef(creator, id, ""), types.ErrInvalidArgument)
		require.ErrorIs(t, r.OverrideImageWithContentRef(tokenOwner, id, ""), types.ErrInvalidArgument)
		require.Empty(t, buf.Events())
	})

	t.Run("not whitelisted nor owner", func(t *testing.T) {
		r, buf, id := setup(t)
		require.ErrorIs(t, r.OverrideImageWithContentRef(anyone, id, staticIpfsHash), types.ErrUnauthorized)

		require.NoError(t, r.OverrideImageWithContentRef(tokenOwner, id, staticIpfsHash))
		buf.Reset()
		require.ErrorIs(t, r.ClearImageOverride(anyone, id), types.ErrUnauthorized)
		require.Empty(t, buf.Events())
		c, err := r.Card(id)
		require.NoError(t, err)
		require.Equal(t, staticIpfsHash, c.StaticImage)
	})

	t.Run("missing token", func(t *testing.T) {
		r, _, _ := setup(t)
		// whitelisted caller learns the token doesn't exist
		require.ErrorIs(t, r.OverrideImageWithContentRef(creator, 999, staticIpfsHash), types.ErrNotFound)
		// anybody else can't be the holder of a missing token
		require.ErrorIs(t, r.OverrideImageWithContentRef(anyone, 999, staticIpfsHash), types.ErrUnauthorized)
		require.ErrorIs(t, r.ClearImageOverride(anyone, 999), types.ErrUnauthorized)
	})

	t.Run("previous owner loses the right", func(t *testing.T) {
		r, _, id := setup(t)
		require.NoError(t, r.Transfer(tokenOwner, anyone, id))
		require.ErrorIs(t, r.OverrideImageWithContentRef(tokenOwner, id, staticIpfsHash), types.ErrUnauthorized)
		require.NoError(t, r.OverrideImageWithContentRef(anyone, id, staticIpfsHash))
	})
}

func Test_BaseURI(t *testing.T) {
	tests := []struct {
		name   string
		update func(r *Registry, caller types.Identity, v string) error
		get    func(r *Registry) string
		event  func(v string) events.Event
	}{
		{
			name:   "base URI",
			update: (*Registry).UpdateBaseURI,
			get:    (*Registry).TokenBaseURI,
			event:  func(v string) events.Event { return &events.TokenBaseURIChanged{New: v} },
		},
		{
			name:   "base content URI",
			update: (*Registry).UpdateBaseContentURI,
			get:    (*Registry).TokenBaseContentURI,
			event:  func(v string) events.Event { return &events.TokenBaseIPFSURIChanged{New: v} },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Run("should revert if empty", func(t *testing.T) {
				r, buf := newRegistry(t)
				before := tc.get(r)
				require.ErrorIs(t, tc.update(r, creator, ""), types.ErrInvalidArgument)
				require.Equal(t, before, tc.get(r))
				require.Empty(t, buf.Events())
			})

			t.Run("should revert if not owner", func(t *testing.T) {
				r, _ := newRegistry(t)
				require.ErrorIs(t, tc.update(r, tokenOwner, "fc.xyz"), types.ErrUnauthorized)

				// whitelisted is not enough
				require.NoError(t, r.Access().AddToWhitelist(creator, anyone))
				require.ErrorIs(t, tc.update(r, anyone, "fc.xyz"), types.ErrUnauthorized)
			})

			t.Run("should reset if owner", func(t *testing.T) {
				r, buf := newRegistry(t)
				require.NoError(t, tc.update(r, creator, "http://hello"))
				require.Equal(t, "http://hello", tc.get(r))
				require.Equal(t, []events.Event{tc.event("http://hello")}, buf.Events())
			})
		})
	}
}

func Test_BurnAndTransfer(t *testing.T) {
	t.Run("only card owner can burn", func(t *testing.T) {
		r, buf := newRegistry(t)
		id := mint(t, r, tokenOwner)
		buf.Reset()

		require.ErrorIs(t, r.Burn(anyone, id), types.ErrUnauthorized)
		// whitelist doesn't grant burning
		require.ErrorIs(t, r.Burn(creator, id), types.ErrUnauthorized)
		require.Empty(t, buf.Events())

		require.NoError(t, r.Burn(tokenOwner, id))
		require.Equal(t, []events.Event{&events.Transfer{From: tokenOwner, To: types.NullIdentity, TokenID: id}}, buf.Events())
		_, err := r.OwnerOf(id)
		require.ErrorIs(t, err, types.ErrNotFound)
		require.Empty(t, r.TokensOfOwner(tokenOwner))
		require.Zero(t, r.BalanceOf(tokenOwner))
		require.ErrorIs(t, r.Burn(tokenOwner, id), types.ErrUnauthorized)

		rec := r.Record(id)
		require.NotNil(t, rec)
		require.True(t, rec.Burned)
		require.Nil(t, r.Record(99))
	})

	t.Run("IDs are not reused", func(t *testing.T) {
		r, _ := newRegistry(t)
		mint(t, r, tokenOwner)
		id := mint(t, r, tokenOwner)
		require.NoError(t, r.Burn(tokenOwner, id))
		require.EqualValues(t, 2, mint(t, r, anyone))
		require.EqualValues(t, 3, r.TotalCards())
		require.EqualValues(t, 2, r.TotalSupply())
	})

	t.Run("tokens of owner in insertion order", func(t *testing.T) {
		r, buf := newRegistry(t)
		for i := 0; i < 4; i++ {
			mint(t, r, tokenOwner)
		}
		mint(t, r, anyone)
		require.Equal(t, []types.TokenID{0, 1, 2, 3}, r.TokensOfOwner(tokenOwner))

		require.NoError(t, r.Burn(tokenOwner, 1))
		require.Equal(t, []types.TokenID{0, 2, 3}, r.TokensOfOwner(tokenOwner))

		buf.Reset()
		require.NoError(t, r.Transfer(tokenOwner, anyone, 0))
		require.Equal(t, []events.Event{&events.Transfer{From: tokenOwner, To: anyone, TokenID: 0}}, buf.Events())
		require.Equal(t, []types.TokenID{2, 3}, r.TokensOfOwner(tokenOwner))
		require.Equal(t, []types.TokenID{4, 0}, r.TokensOfOwner(anyone))
		owner, err := r.OwnerOf(0)
		require.NoError(t, err)
		require.Equal(t, anyone, owner)
		require.EqualValues(t, 2, r.BalanceOf(anyone))
	})

	t.Run("transfer rules", func(t *testing.T) {
		r, _ := newRegistry(t)
		id := mint(t, r, tokenOwner)
		require.ErrorIs(t, r.Transfer(anyone, anyone, id), types.ErrUnauthorized)
		require.ErrorIs(t, r.Transfer(tokenOwner, types.NullIdentity, id), types.ErrInvalidArgument)
		require.ErrorIs(t, r.Transfer(tokenOwner, anyone, 5), types.ErrUnauthorized)
	})

	t.Run("returned card is a copy", func(t *testing.T) {
		r, _ := newRegistry(t)
		id := mint(t, r, tokenOwner)
		c, err := r.Card(id)
		require.NoError(t, err)
		c.Special = 77
		c2, err := r.Card(id)
		require.NoError(t, err)
		require.Zero(t, c2.Special)

		ids := r.TokensOfOwner(tokenOwner)
		ids[0] = 42
		require.Equal(t, []types.TokenID{id}, r.TokensOfOwner(tokenOwner))
	})
}

func Test_Restore(t *testing.T) {
	r, _ := newRegistry(t)
	for i := 0; i < 3; i++ {
		mint(t, r, tokenOwner)
	}
	mint(t, r, anyone)
	require.NoError(t, r.Transfer(tokenOwner, anyone, 0))
	require.NoError(t, r.Burn(tokenOwner, 1))
	require.NoError(t, r.OverrideImageWithContentRef(creator, 2, "abc123"))
	require.NoError(t, r.UpdateBaseURI(creator, "https://cards.example/"))

	recs := make([]*Card, 0, r.TotalCards())
	for id := types.TokenID(0); uint64(id) < r.TotalCards(); id++ {
		recs = append(recs, r.Record(id))
	}

	restored, err := Restore(r.Access(), r.State(), recs, nil)
	require.NoError(t, err)
	require.Equal(t, r.State(), restored.State())
	require.Equal(t, r.TotalCards(), restored.TotalCards())
	require.Equal(t, r.TokensOfOwner(tokenOwner), restored.TokensOfOwner(tokenOwner))
	require.Equal(t, r.TokensOfOwner(anyone), restored.TokensOfOwner(anyone))
	uri, err := restored.ResolveURI(2)
	require.NoError(t, err)
	require.Equal(t, DefaultTokenBaseIpfsURI+"abc123", uri)
	_, err = restored.Card(1)
	require.ErrorIs(t, err, types.ErrNotFound)
	require.EqualValues(t, 4, mint(t, restored, anyone))

	t.Run("gap in IDs", func(t *testing.T) {
		_, err := Restore(r.Access(), r.State(), []*Card{recs[0], recs[2]}, nil)
		require.EqualError(t, err, `card list is not dense: expected token 1 at position 1`)
	})

	t.Run("acquisition ahead of counter", func(t *testing.T) {
		_, err := Restore(r.Access(), State{}, recs, nil)
		require.ErrorContains(t, err, "is ahead of the registry counter")
	})
}

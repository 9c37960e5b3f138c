package access

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/types"
)

var (
	owner  = types.HexToIdentity("0x00000000000000000000000000000000000000a1")
	minter = types.HexToIdentity("0x00000000000000000000000000000000000000b2")
	anyone = types.HexToIdentity("0x00000000000000000000000000000000000000c3")
)

func newControl(t *testing.T) (*Control, *events.Buffer) {
	t.Helper()
	buf := &events.Buffer{}
	c, err := New(owner, buf.Emit)
	require.NoError(t, err)
	return c, buf
}

func Test_New(t *testing.T) {
	_, err := New(types.NullIdentity, nil)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	c, err := New(owner, nil)
	require.NoError(t, err)
	require.Equal(t, owner, c.Owner())
	require.True(t, c.IsOwner(owner))
	require.True(t, c.IsWhitelisted(owner), "owner is implicitly whitelisted")
	require.False(t, c.IsWhitelisted(anyone))
	require.False(t, c.IsWhitelisted(types.NullIdentity))
}

func Test_TransferOwnership(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		c, buf := newControl(t)
		require.ErrorIs(t, c.TransferOwnership(anyone, anyone), types.ErrUnauthorized)
		require.Equal(t, owner, c.Owner())
		require.Empty(t, buf.Events())
	})

	t.Run("null new owner", func(t *testing.T) {
		c, buf := newControl(t)
		require.ErrorIs(t, c.TransferOwnership(owner, types.NullIdentity), types.ErrInvalidArgument)
		require.Equal(t, owner, c.Owner())
		require.Empty(t, buf.Events())
	})

	t.Run("success", func(t *testing.T) {
		c, buf := newControl(t)
		require.NoError(t, c.TransferOwnership(owner, minter))
		require.Equal(t, minter, c.Owner())
		require.Equal(t, []events.Event{&events.OwnershipTransferred{Previous: owner, New: minter}}, buf.Events())

		// old owner loses rights immediately
		require.False(t, c.IsWhitelisted(owner))
		require.ErrorIs(t, c.AddToWhitelist(owner, anyone), types.ErrUnauthorized)
		require.NoError(t, c.AddToWhitelist(minter, anyone))
	})
}

func Test_Whitelist(t *testing.T) {
	t.Run("owner only", func(t *testing.T) {
		c, _ := newControl(t)
		require.NoError(t, c.AddToWhitelist(owner, minter))
		// whitelisted is not enough for managing the whitelist
		require.ErrorIs(t, c.AddToWhitelist(minter, anyone), types.ErrUnauthorized)
		require.ErrorIs(t, c.RemoveFromWhitelist(minter, minter), types.ErrUnauthorized)
		require.True(t, c.IsWhitelisted(minter))
	})

	t.Run("null identity", func(t *testing.T) {
		c, _ := newControl(t)
		require.ErrorIs(t, c.AddToWhitelist(owner, types.NullIdentity), types.ErrInvalidArgument)
	})

	t.Run("idempotent", func(t *testing.T) {
		c, buf := newControl(t)
		require.NoError(t, c.AddToWhitelist(owner, minter))
		require.NoError(t, c.AddToWhitelist(owner, minter))
		require.True(t, c.IsWhitelisted(minter))
		require.Len(t, buf.Events(), 1)

		require.NoError(t, c.RemoveFromWhitelist(owner, minter))
		require.NoError(t, c.RemoveFromWhitelist(owner, minter))
		require.NoError(t, c.RemoveFromWhitelist(owner, anyone))
		require.False(t, c.IsWhitelisted(minter))
		require.Equal(t, []events.Event{
			&events.WhitelistedAdded{Account: minter},
			&events.WhitelistedRemoved{Account: minter},
		}, buf.Events())
	})

	t.Run("owner stays whitelisted", func(t *testing.T) {
		c, _ := newControl(t)
		require.NoError(t, c.RemoveFromWhitelist(owner, owner))
		require.True(t, c.IsWhitelisted(owner))
	})
}

func Test_StateRestore(t *testing.T) {
	c, _ := newControl(t)
	require.NoError(t, c.AddToWhitelist(owner, anyone))
	require.NoError(t, c.AddToWhitelist(owner, minter))

	st := c.State()
	require.Equal(t, owner, st.Owner)
	require.Equal(t, []types.Identity{minter, anyone}, st.Whitelist, "whitelist is sorted")

	r, err := Restore(st, nil)
	require.NoError(t, err)
	require.Equal(t, st, r.State())
	require.True(t, r.IsWhitelisted(minter))
	require.True(t, r.IsWhitelisted(anyone))
}

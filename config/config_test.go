package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/futballcards/futballcards-go/cards"
	"github.com/futballcards/futballcards-go/types"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FUTBALL_DB_PATH", "")
	t.Setenv("FUTBALL_OWNER", "")
	t.Setenv("FUTBALL_PRICE_IN_WEI", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "futballcards.db", cfg.DBPath)
	require.Equal(t, types.NullIdentity, cfg.Owner)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.True(t, cfg.OtelEnabled)

	lc, err := cfg.LedgerConfig()
	require.NoError(t, err)
	require.EqualValues(t, 100, lc.PriceInWei.Uint64())
	require.EqualValues(t, 100, lc.AttributesBase)
	require.Equal(t, cards.DefaultTokenBaseIpfsURI, lc.TokenBaseIpfsURI)
	require.Equal(t, "http://futball-cards/", lc.TokenBaseURI)
}

func TestLoad(t *testing.T) {
	t.Setenv("FUTBALL_DB_PATH", "/var/lib/futball/ledger.db")
	t.Setenv("FUTBALL_OWNER", "0x00000000000000000000000000000000000000a1")
	t.Setenv("FUTBALL_ENGINE_ADDRESS", "0x00000000000000000000000000000000000000e4")
	t.Setenv("FUTBALL_TOKEN_BASE_IPFS_URI", "ipfs://")
	t.Setenv("FUTBALL_PRICE_IN_WEI", "250000000000000000000")
	t.Setenv("FUTBALL_ATTRIBUTES_BASE", "20")
	t.Setenv("FUTBALL_CARD_TYPE_DEFAULT", "2")
	t.Setenv("FUTBALL_LOG_LEVEL", "debug")
	t.Setenv("FUTBALL_OTEL_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/var/lib/futball/ledger.db", cfg.DBPath)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.False(t, cfg.OtelEnabled)

	lc, err := cfg.LedgerConfig()
	require.NoError(t, err)
	require.Equal(t, types.HexToIdentity("0x00000000000000000000000000000000000000a1"), lc.Owner)
	require.Equal(t, types.HexToIdentity("0x00000000000000000000000000000000000000e4"), lc.EngineIdentity)
	require.Equal(t, "ipfs://", lc.TokenBaseIpfsURI)
	require.Equal(t, "250000000000000000000", lc.PriceInWei.Dec())
	require.EqualValues(t, 20, lc.AttributesBase)
	require.EqualValues(t, 2, lc.CardTypeDefault)
}

func TestLoadErrors(t *testing.T) {
	t.Run("malformed number", func(t *testing.T) {
		t.Setenv("FUTBALL_ATTRIBUTES_BASE", "not-an-int")
		_, err := Load()
		require.ErrorContains(t, err, "parse env:")
	})

	t.Run("malformed address", func(t *testing.T) {
		t.Setenv("FUTBALL_OWNER", "alice")
		_, err := Load()
		require.ErrorContains(t, err, "parse env:")
	})

	t.Run("malformed price", func(t *testing.T) {
		t.Setenv("FUTBALL_PRICE_IN_WEI", "1e18")
		cfg, err := Load()
		require.NoError(t, err)
		_, err = cfg.LedgerConfig()
		require.ErrorContains(t, err, `parsing price in wei "1e18"`)
	})
}

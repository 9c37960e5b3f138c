// Package config loads the ledger host configuration from environment
// variables.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/holiman/uint256"

	"github.com/futballcards/futballcards-go/blindpack"
	"github.com/futballcards/futballcards-go/cards"
	"github.com/futballcards/futballcards-go/ledger"
	"github.com/futballcards/futballcards-go/types"
)

// Config of the ledger host. The ledger seed values (owner, engine, URIs,
// pricing) are only used when the database doesn't hold a ledger yet.
type Config struct {
	DBPath           string         `env:"FUTBALL_DB_PATH" envDefault:"futballcards.db"`
	Owner            types.Identity `env:"FUTBALL_OWNER"`
	EngineAddress    types.Identity `env:"FUTBALL_ENGINE_ADDRESS"`
	TokenBaseURI     string         `env:"FUTBALL_TOKEN_BASE_URI" envDefault:"http://futball-cards/"`
	TokenBaseIpfsURI string         `env:"FUTBALL_TOKEN_BASE_IPFS_URI"`
	PriceInWei       string         `env:"FUTBALL_PRICE_IN_WEI"` // decimal, defaults to blindpack.DefaultPriceInWei
	AttributesBase   uint64         `env:"FUTBALL_ATTRIBUTES_BASE"`
	CardTypeDefault  uint64         `env:"FUTBALL_CARD_TYPE_DEFAULT"`
	LogLevel         slog.Level     `env:"FUTBALL_LOG_LEVEL" envDefault:"INFO"`
	OtelEnabled      bool           `env:"FUTBALL_OTEL_ENABLED" envDefault:"true"`
	OtelEndpoint     string         `env:"FUTBALL_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration read from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LedgerConfig returns the seed of a new ledger, zero values are replaced
// with the defaults of the components.
func (c *Config) LedgerConfig() (ledger.Config, error) {
	price := types.NewWei(blindpack.DefaultPriceInWei)
	if c.PriceInWei != "" {
		var err error
		if price, err = uint256.FromDecimal(c.PriceInWei); err != nil {
			return ledger.Config{}, fmt.Errorf("parsing price in wei %q: %w", c.PriceInWei, err)
		}
	}
	attrBase := c.AttributesBase
	if attrBase == 0 {
		attrBase = blindpack.DefaultAttributesBase
	}
	ipfsURI := c.TokenBaseIpfsURI
	if ipfsURI == "" {
		ipfsURI = cards.DefaultTokenBaseIpfsURI
	}
	return ledger.Config{
		Owner:            c.Owner,
		EngineIdentity:   c.EngineAddress,
		TokenBaseURI:     c.TokenBaseURI,
		TokenBaseIpfsURI: ipfsURI,
		PriceInWei:       price,
		AttributesBase:   attrBase,
		CardTypeDefault:  c.CardTypeDefault,
	}, nil
}

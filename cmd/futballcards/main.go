// Command futballcards operates a card ledger stored in a local SQLite
// database: it executes transaction orders and answers queries, printing
// results as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/futballcards/futballcards-go/cbor"
	"github.com/futballcards/futballcards-go/config"
	"github.com/futballcards/futballcards-go/events"
	"github.com/futballcards/futballcards-go/ledger"
	"github.com/futballcards/futballcards-go/storage/sqlite"
	"github.com/futballcards/futballcards-go/telemetry"
	"github.com/futballcards/futballcards-go/txsystem"
	"github.com/futballcards/futballcards-go/types"
	"github.com/futballcards/futballcards-go/util"
)

const (
	serviceName             = "futballcards"
	otelShutdownTimeout     = 5 * time.Second
	defaultEventsPageLength = 100
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "futballcards: %v\n", err)
		if kind := types.ErrorKind(err); kind != "" {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: futballcards [-db path] <command> [flags]

transactions:
  exec <hex>                               execute CBOR encoded transaction order
  pull -from <addr> [-value <wei>]         pull a blind pack
  credit -from <addr> -to <addr>           grant a blind pack credit
  transfer -from <addr> -to <addr> -id <n> transfer a card
  burn -from <addr> -id <n>                burn a card
  whitelist -from <addr> -scope <s> -account <addr> [-remove]

queries:
  info                                     registry and engine information
  card <id>                                card record
  uri <id>                                 display URI of a card
  tokens <addr>                            cards held by the address
  credits <addr>                           blind pack credits of the address
  events [-after <seq>] [-limit <n>]       committed events

configuration is read from FUTBALL_* environment variables.
`)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the ledger database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return errors.New("command is required")
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OtelEndpoint, cfg.OtelEnabled)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("otel shutdown", "error", err)
		}
	}()

	seed, err := cfg.LedgerConfig()
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing ledger database", "error", err)
		}
	}()
	l, err := ledger.Open(ctx, store, seed, ledger.WithLogger(log))
	if err != nil {
		return err
	}

	cmd := &command{ctx: ctx, ledger: l, out: stdout, errOut: stderr}
	return cmd.run(fs.Arg(0), fs.Args()[1:])
}

type command struct {
	ctx    context.Context
	ledger *ledger.Ledger
	out    io.Writer
	errOut io.Writer
}

func (c *command) run(name string, args []string) error {
	switch name {
	case "exec":
		return c.exec(args)
	case "pull":
		return c.pull(args)
	case "credit":
		return c.credit(args)
	case "transfer":
		return c.transfer(args)
	case "burn":
		return c.burn(args)
	case "whitelist":
		return c.whitelist(args)
	case "info":
		return c.info()
	case "card":
		return c.card(args)
	case "uri":
		return c.uri(args)
	case "tokens":
		return c.tokens(args)
	case "credits":
		return c.credits(args)
	case "events":
		return c.events(args)
	}
	usage(c.errOut)
	return fmt.Errorf("unknown command %q", name)
}

func (c *command) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *command) exec(args []string) error {
	if len(args) != 1 {
		return errors.New("exec expects hex encoded transaction order")
	}
	data, err := hexutil.Decode(args[0])
	if err != nil {
		return fmt.Errorf("decoding transaction order hex: %w", err)
	}
	tx := &txsystem.TransactionOrder{}
	if err := cbor.Unmarshal(data, tx); err != nil {
		return fmt.Errorf("decoding transaction order: %w", err)
	}
	return c.execute(tx)
}

func (c *command) execute(tx *txsystem.TransactionOrder) error {
	res, err := txsystem.Execute(c.ctx, c.ledger, tx)
	if err != nil {
		return err
	}
	return c.print(struct {
		TxHash  hexutil.Bytes  `json:"txHash"`
		TokenID *types.TokenID `json:"tokenId,omitempty"`
		Receipt any            `json:"receipt,omitempty"`
		Events  []eventJSON    `json:"events"`
	}{
		TxHash:  res.TxHash,
		TokenID: res.TokenID,
		Receipt: res.Receipt,
		Events:  toEventJSON(res.Events),
	})
}

func (c *command) order(txType uint16, from string, attr any) (*txsystem.TransactionOrder, error) {
	caller, err := parseIdentity(from)
	if err != nil {
		return nil, fmt.Errorf("invalid -from: %w", err)
	}
	return txsystem.NewTransactionOrder(txType, caller, attr)
}

func (c *command) pull(args []string) error {
	fs := c.flags("pull")
	from := fs.String("from", "", "caller address")
	value := fs.String("value", "0", "payment in wei")
	if err := fs.Parse(args); err != nil {
		return err
	}
	payment, err := uint256.FromDecimal(*value)
	if err != nil {
		return fmt.Errorf("invalid -value %q: %w", *value, err)
	}
	tx, err := c.order(txsystem.TransactionTypePullBlindPack, *from, &txsystem.PullBlindPackAttributes{})
	if err != nil {
		return err
	}
	tx.Value = payment
	return c.execute(tx)
}

func (c *command) credit(args []string) error {
	fs := c.flags("credit")
	from := fs.String("from", "", "caller address")
	to := fs.String("to", "", "credited address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	recipient, err := parseIdentity(*to)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}
	tx, err := c.order(txsystem.TransactionTypeAddCredit, *from, &txsystem.AddCreditAttributes{To: recipient})
	if err != nil {
		return err
	}
	return c.execute(tx)
}

func (c *command) transfer(args []string) error {
	fs := c.flags("transfer")
	from := fs.String("from", "", "holder address")
	to := fs.String("to", "", "recipient address")
	id := fs.Uint64("id", 0, "token id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	recipient, err := parseIdentity(*to)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}
	tx, err := c.order(txsystem.TransactionTypeTransfer, *from, &txsystem.TransferAttributes{TokenID: types.TokenID(*id), To: recipient})
	if err != nil {
		return err
	}
	return c.execute(tx)
}

func (c *command) burn(args []string) error {
	fs := c.flags("burn")
	from := fs.String("from", "", "holder address")
	id := fs.Uint64("id", 0, "token id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tx, err := c.order(txsystem.TransactionTypeBurn, *from, &txsystem.TokenAttributes{TokenID: types.TokenID(*id)})
	if err != nil {
		return err
	}
	return c.execute(tx)
}

func (c *command) whitelist(args []string) error {
	fs := c.flags("whitelist")
	from := fs.String("from", "", "owner address")
	scope := fs.String("scope", string(ledger.ScopeRegistry), "registry or engine")
	account := fs.String("account", "", "address to add or remove")
	remove := fs.Bool("remove", false, "remove the account instead of adding it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	acc, err := parseIdentity(*account)
	if err != nil {
		return fmt.Errorf("invalid -account: %w", err)
	}
	txType := txsystem.TransactionTypeAddToWhitelist
	if *remove {
		txType = txsystem.TransactionTypeRemoveFromWhitelist
	}
	tx, err := c.order(txType, *from, &txsystem.WhitelistAttributes{Scope: *scope, Account: acc})
	if err != nil {
		return err
	}
	return c.execute(tx)
}

func (c *command) info() error {
	reg, err := c.ledger.RegistryInfo()
	if err != nil {
		return err
	}
	eng, err := c.ledger.EngineInfo()
	if err != nil {
		return err
	}
	return c.print(struct {
		Registry ledger.RegistryInfo `json:"registry"`
		Engine   ledger.EngineInfo   `json:"engine"`
		LastSeq  uint64              `json:"lastSeq,string"`
	}{reg, eng, c.ledger.LastSeq()})
}

func (c *command) card(args []string) error {
	id, err := tokenArg(args)
	if err != nil {
		return err
	}
	card, err := c.ledger.Card(id)
	if err != nil {
		return err
	}
	return c.print(card)
}

func (c *command) uri(args []string) error {
	id, err := tokenArg(args)
	if err != nil {
		return err
	}
	uri, err := c.ledger.ResolveURI(id)
	if err != nil {
		return err
	}
	return c.print(map[string]string{"uri": uri})
}

func (c *command) tokens(args []string) error {
	owner, err := identityArg(args)
	if err != nil {
		return err
	}
	ids, err := c.ledger.TokensOfOwner(owner)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []types.TokenID{}
	}
	return c.print(map[string]any{"owner": owner, "tokens": ids})
}

func (c *command) credits(args []string) error {
	holder, err := identityArg(args)
	if err != nil {
		return err
	}
	n, err := c.ledger.Credits(holder)
	if err != nil {
		return err
	}
	return c.print(map[string]any{"address": holder, "credits": n})
}

func (c *command) events(args []string) error {
	fs := c.flags("events")
	after := fs.Uint64("after", 0, "return events after this sequence number")
	limit := fs.Int("limit", defaultEventsPageLength, "maximum number of events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	recs, err := c.ledger.Events(c.ctx, *after, *limit)
	if err != nil {
		return err
	}
	return c.print(toEventJSON(recs))
}

func (c *command) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type eventJSON struct {
	Seq   uint64       `json:"seq,string"`
	Name  string       `json:"name"`
	Topic common.Hash  `json:"topic"`
	Event events.Event `json:"event"`
}

func toEventJSON(recs []events.Record) []eventJSON {
	return util.TransformSlice(recs, func(r events.Record) eventJSON {
		return eventJSON{Seq: r.Seq, Name: events.Name(r.Event), Topic: r.Topic, Event: r.Event}
	})
}

func parseIdentity(s string) (types.Identity, error) {
	if !common.IsHexAddress(s) {
		return types.NullIdentity, fmt.Errorf("%q is not a hex address", s)
	}
	return types.HexToIdentity(s), nil
}

func tokenArg(args []string) (types.TokenID, error) {
	if len(args) != 1 {
		return 0, errors.New("token id is required")
	}
	id, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token id %q: %w", args[0], err)
	}
	return types.TokenID(id), nil
}

func identityArg(args []string) (types.Identity, error) {
	if len(args) != 1 {
		return types.NullIdentity, errors.New("address is required")
	}
	return parseIdentity(args[0])
}

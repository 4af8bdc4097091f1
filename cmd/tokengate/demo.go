package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/tokengate-xyz/go-tokengate/config"
	"github.com/tokengate-xyz/go-tokengate/eventlog"
	"github.com/tokengate-xyz/go-tokengate/timelock"
	"github.com/tokengate-xyz/go-tokengate/token"
)

// Demo identities. The governor address holds the upgrader role, so code
// changes only land through the timelock.
var (
	demoAdmin    = common.HexToAddress("0xA000000000000000000000000000000000000001")
	demoBridge   = common.HexToAddress("0xB000000000000000000000000000000000000001")
	demoGovernor = common.HexToAddress("0xC000000000000000000000000000000000000001")
	demoTokenID  = common.HexToAddress("0xD000000000000000000000000000000000000001")
	demoAlice    = common.HexToAddress("0x0000000000000000000000000000000000000A11")
	demoBob      = common.HexToAddress("0x0000000000000000000000000000000000000B0B")
)

func demo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: tokengate demo

Run the full token lifecycle against a local instance: mint, gated
transfers, allowlisting, pause, and a timelocked upgrade to v2. The demo
drives a simulated clock, so the governance delay elapses instantly.
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer journal.Close()

	tok := token.New()
	if err := tok.Initialize(token.Config{
		Name:      "Gated USD",
		Symbol:    "gUSD",
		Decimals:  6,
		Admin:     demoAdmin,
		Bridge:    demoBridge,
		Upgraders: []common.Address{demoGovernor},
		Journal:   journal,
	}); err != nil {
		return err
	}
	log.Info("token initialized", "name", tok.Name(), "version", tok.ActiveVersion().Hex())

	// Simulated clock for the timelock.
	now := time.Now()
	clock := func() time.Time { return now }

	router := timelock.NewRouter()
	router.Register(demoTokenID, tok.GovernanceHandler(demoGovernor))
	governor, err := timelock.NewGovernor(timelock.Config{
		MinDelay:   cfg.MinDelay,
		Proposers:  []common.Address{demoAdmin},
		Executors:  []common.Address{demoAdmin},
		Cancellers: []common.Address{demoAdmin},
		Now:        clock,
		Journal:    journal,
	}, router)
	if err != nil {
		return err
	}

	// Bridge settles 1000 units to alice.
	amount := uint256.NewInt(1_000_000_000)
	if err := tok.Mint(demoBridge, demoAlice, amount); err != nil {
		return err
	}
	log.Info("minted", "to", demoAlice.Hex(), "amount", amount.Dec())

	// Allowlist enforcement on: alice cannot transfer until listed.
	if err := tok.SetAllowlistEnabled(demoAdmin, true); err != nil {
		return err
	}
	ten := uint256.NewInt(10_000_000)
	if err := tok.Transfer(demoAlice, demoBob, ten); err != nil {
		log.Info("transfer rejected as expected", "error", err)
	}
	if err := tok.SetAllowlisted(demoAdmin, demoAlice, true); err != nil {
		return err
	}
	if err := tok.Transfer(demoAlice, demoBob, ten); err != nil {
		return err
	}
	log.Info("transfer settled", "from", demoAlice.Hex(), "to", demoBob.Hex(),
		"alice", tok.BalanceOf(demoAlice).Dec(), "bob", tok.BalanceOf(demoBob).Dec())

	// Pause blocks even the bridge.
	if err := tok.Pause(demoAdmin); err != nil {
		return err
	}
	if err := tok.Mint(demoBridge, demoBob, ten); err != nil {
		log.Info("mint rejected while paused", "error", err)
	}
	if err := tok.Unpause(demoAdmin); err != nil {
		return err
	}

	// Timelocked upgrade to v2.
	initData, err := json.Marshal(token.V2InitData{EnableAllowlist: true})
	if err != nil {
		return err
	}
	payload, err := token.UpgradeCommand(token.VersionV2, initData)
	if err != nil {
		return err
	}
	call := timelock.Call{
		Target:  demoTokenID,
		Payload: payload,
		Salt:    common.HexToHash("0x01"),
	}
	id, err := governor.Schedule(demoAdmin, call, cfg.MinDelay)
	if err != nil {
		return err
	}
	log.Info("upgrade scheduled", "operation", id.Hex(), "delay", cfg.MinDelay.String())

	if err := governor.Execute(demoAdmin, call); err != nil {
		log.Info("execute rejected before eta", "error", err)
	}
	now = now.Add(cfg.MinDelay)
	if err := governor.Execute(demoAdmin, call); err != nil {
		return err
	}
	log.Info("upgrade executed", "version", tok.ActiveVersion().Hex())

	records, err := journal.Read(context.Background(), 0)
	if err != nil {
		return err
	}
	log.Info("journal written", "records", len(records), "backend", cfg.JournalBackend)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openJournal(cfg *config.Config) (eventlog.Journal, error) {
	switch cfg.JournalBackend {
	case config.JournalJSONL:
		return eventlog.NewJSONLJournal(cfg.JournalPath)
	case config.JournalSQLite:
		return eventlog.NewSQLiteJournal(cfg.JournalPath)
	case config.JournalPostgres:
		return eventlog.NewPostgresJournal(context.Background(), cfg.DatabaseURL)
	default:
		return eventlog.NewMemoryJournal(), nil
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"tokendrop/cmd/internal/node"
	"tokendrop/config"
	"tokendrop/crypto"
	"tokendrop/native/distribution"
)

const defaultConfig = "./config.toml"

const (
	usageImport    = "import <genesis.yaml>"
	usageClaim     = "claim <address> [amount]"
	usageRewards   = "rewards <address>"
	usageClaimed   = "claimed [address] [--start-after addr] [--limit n]"
	usageCampaign  = "campaign"
	usageAudit     = "audit"
	usageTopUp     = "topup <owner> <amount>"
	usageClose     = "close <owner>"
	usageReplace   = "replace <owner> <old> <new>"
	usageBlacklist = "blacklist <owner> <address> [--unblock]"
	usageKeygen    = "keygen"
)

type command struct {
	usage string
	run   func(e *env, args []string) error
	// offline commands never open the state database.
	offline bool
}

// env is what every subcommand runs against.
type env struct {
	node       *node.Node
	prefix     crypto.AddressPrefix
	now        int64
	out        io.Writer
	startAfter string
	limit      int
	unblock    bool
}

var commands = map[string]command{
	"import":    {usage: usageImport, run: runImport},
	"claim":     {usage: usageClaim, run: runClaim},
	"rewards":   {usage: usageRewards, run: runRewards},
	"claimed":   {usage: usageClaimed, run: runClaimed},
	"campaign":  {usage: usageCampaign, run: runCampaign},
	"audit":     {usage: usageAudit, run: runAudit},
	"topup":     {usage: usageTopUp, run: runTopUp},
	"close":     {usage: usageClose, run: runClose},
	"replace":   {usage: usageReplace, run: runReplace},
	"blacklist": {usage: usageBlacklist, run: runBlacklist},
	"keygen":    {usage: usageKeygen, run: runKeygen, offline: true},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(1)
	}
	if err := execute(cmd, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute(cmd command, name string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the configuration file")
	at := fs.String("at", "", "Evaluate at this time (RFC3339 or unix seconds) instead of now")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	startAfter := fs.String("start-after", "", "Resume listing after this address (claimed)")
	limit := fs.Int("limit", distribution.DefaultQueryLimit, "Page size (claimed)")
	unblock := fs.Bool("unblock", false, "Remove the address from the blacklist (blacklist)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	now, err := node.ParseTime(*at)
	if err != nil {
		return err
	}
	e := &env{
		prefix:     crypto.AddressPrefix(cfg.AddressPrefix),
		now:        now,
		out:        out,
		startAfter: *startAfter,
		limit:      *limit,
		unblock:    *unblock,
	}
	if !cmd.offline {
		n, err := node.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer n.Close()
		e.node = n
	}
	return cmd.run(e, fs.Args())
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: dropctl %s", usage)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: dropctl <command> [--config path] [--at time] [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, name := range []string{"import", "campaign", "rewards", "claim", "claimed", "audit", "topup", "close", "replace", "blacklist", "keygen"} {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

// ABOUTME: Entry point for the dealdesk CLI, MCP server, web dashboard, and TUI
// ABOUTME: Routes to subcommands based on arguments after global flags
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/dealdesk/auth"
	"github.com/harperreed/dealdesk/charm"
	"github.com/harperreed/dealdesk/cli"
	"github.com/harperreed/dealdesk/config"
	"github.com/harperreed/dealdesk/logging"
	"github.com/harperreed/dealdesk/pipeline"
	"go.uber.org/zap"
)

const version = "0.2.0"

var errUsage = errors.New("usage")

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/dealdesk/dealdesk.db)")
	storage := flag.String("storage", "", "Storage backend: sqlite, charm, or memory")
	seed := flag.Bool("seed", false, "Import the sample deals on startup")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("dealdesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db-path":
			cfg.DBPath = *dbPath
		case "storage":
			cfg.Storage = *storage
		case "seed":
			cfg.Seed = *seed
		case "debug":
			cfg.Log.Level = "debug"
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger, args[0], args[1:])
	stop()
	_ = logger.Sync()

	switch {
	case errors.Is(err, errUsage):
		printUsage()
		os.Exit(1)
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, command string, args []string) error {
	switch command {
	case "deals":
		if len(args) == 0 {
			fmt.Println("Error: deals requires a subcommand")
			return errUsage
		}
		return withStore(ctx, cfg, logger, func(store *pipeline.Store) error {
			return runDeals(store, args[0], args[1:])
		})

	case "stats":
		return withStore(ctx, cfg, logger, func(store *pipeline.Store) error {
			return cli.StatsCommand(os.Stdout, store, args)
		})

	case "viz":
		if len(args) == 0 {
			fmt.Println("Error: viz requires a subcommand")
			return errUsage
		}
		return withStore(ctx, cfg, logger, func(store *pipeline.Store) error {
			switch args[0] {
			case "dashboard":
				return cli.VizDashboardCommand(os.Stdout, store, args[1:])
			case "pipeline":
				return cli.VizPipelineCommand(ctx, os.Stdout, store, logger, args[1:])
			}
			fmt.Printf("Unknown viz command: %s\n\n", args[0])
			return errUsage
		})

	case "mcp":
		return withStore(ctx, cfg, logger, func(store *pipeline.Store) error {
			return cli.MCPCommand(ctx, store, logger, version)
		})

	case "web":
		return withStore(ctx, cfg, logger, func(store *pipeline.Store) error {
			return cli.WebCommand(ctx, store, logger, cfg.WebAddr, cfg.AgingCron, args)
		})

	case "tui":
		// Log lines would tear the alt screen.
		quiet := zap.NewNop()
		return withStore(ctx, cfg, quiet, func(store *pipeline.Store) error {
			return cli.TUICommand(ctx, store, quiet)
		})

	case "auth":
		if len(args) == 0 {
			fmt.Println("Error: auth requires a subcommand")
			return errUsage
		}
		return runAuth(ctx, cfg, logger, args[0], args[1:])

	case "sync":
		if len(args) == 0 {
			fmt.Println("Error: sync requires a subcommand")
			return errUsage
		}
		return runSync(logger, args[0], args[1:])
	}

	fmt.Printf("Unknown command: %s\n\n", command)
	return errUsage
}

// withStore opens the configured backend for the duration of fn.
func withStore(ctx context.Context, cfg config.Config, logger *zap.Logger, fn func(*pipeline.Store) error) error {
	backend, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()
	return fn(backend.Store)
}

func runDeals(store *pipeline.Store, sub string, args []string) error {
	w := os.Stdout
	switch sub {
	case "add":
		return cli.AddDealCommand(w, store, args)
	case "list":
		return cli.ListDealsCommand(w, store, args)
	case "show":
		return cli.ShowDealCommand(w, store, args)
	case "update":
		return cli.UpdateDealCommand(w, store, args)
	case "move":
		return cli.MoveDealCommand(w, store, args)
	case "delete":
		return cli.DeleteDealCommand(w, store, args)
	case "search":
		return cli.SearchDealsCommand(w, store, args)
	case "note":
		return cli.NoteDealCommand(w, store, args)
	case "tag":
		return cli.TagDealCommand(w, store, args)
	}
	fmt.Printf("Unknown deals command: %s\n\n", sub)
	return errUsage
}

func runAuth(ctx context.Context, cfg config.Config, logger *zap.Logger, sub string, args []string) error {
	tokenPath := auth.TokenPath()

	switch sub {
	case "login":
		return cli.AuthLoginCommand(os.Stdout, os.Stdin, tokenPath, args)
	case "forget":
		return cli.AuthForgetCommand(os.Stdout, tokenPath, args)
	case "activity", "logout":
	default:
		fmt.Printf("Unknown auth command: %s\n\n", sub)
		return errUsage
	}

	token, err := auth.ResolveToken(cfg.APIToken, tokenPath, os.Stdin, os.Stderr)
	if err != nil {
		return err
	}
	client := auth.NewStaticClient(ctx, cfg.APIBaseURL, token, logger.Named("auth"))

	if sub == "activity" {
		return cli.AuthActivityCommand(ctx, os.Stdout, client, cfg.ActivityMax, args)
	}
	return cli.AuthLogoutCommand(ctx, os.Stdout, client, args)
}

func runSync(logger *zap.Logger, sub string, args []string) error {
	open := func() (*charm.Client, error) {
		return charm.Open(nil, logger.Named("charm"))
	}

	w := os.Stdout
	switch sub {
	case "link":
		return cli.SyncLinkCommand(w, open, args)
	case "status":
		return cli.SyncStatusCommand(w, open, args)
	case "now":
		return cli.SyncNowCommand(w, open, args)
	case "auto":
		return cli.SyncAutoCommand(w, "", args)
	case "wipe":
		return cli.SyncWipeCommand(w, open, args)
	}
	fmt.Printf("Unknown sync command: %s\n\n", sub)
	return errUsage
}

func printUsage() {
	fmt.Printf(`dealdesk v%s - Real-estate deal pipeline

USAGE:
  dealdesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/dealdesk/dealdesk.db)
  --storage <backend>    sqlite (default), charm, or memory
  --seed                 Import the sample deals on startup
  --debug                Enable debug logging

COMMANDS:
  deals                  Deal management commands
  stats                  Per-stage counts and values
  viz                    Visualization commands
  mcp                    Start MCP server on stdio
  web                    Start the web dashboard
  tui                    Open the interactive deal board
  auth                   Login activity commands
  sync                   Charm KV sync commands

DEAL COMMANDS:
  dealdesk deals add           Add a new deal
    --address <addr>             Property address (required)
    --city, --state, --zip       Property location
    --type <type>                Property type
    --price <amount>             Asking price
    --contact <name>             Seller or agent name
    --contact-id <id>            Contact id (generated when omitted)
    --phone, --email             Contact details
    --stage <stage>              Stage (default: lead)
    --value <amount>             Deal value
    --priority <p>               low, medium (default), high
    --strategy <s>               wholesaling (default), flipping, rentals, subjectTo, brrrr, commercial
    --notes <text>               Notes
    --tags <a,b>                 Comma-separated tags

  dealdesk deals list          List deals
    --stage, --priority, --strategy   Filter by field
    --min <amount>, --max <amount>    Filter by value
    --contact <id>                    Filter by contact id

  dealdesk deals show <id>             Show a deal with its history
  dealdesk deals update <id> [flags]   Update deal fields
    --address, --price, --value, --priority, --strategy, --notes, --tags
  dealdesk deals move <id> <stage>     Move a deal to another stage
    --notes <text>                       Transition notes
    --actor <name>                       Who moved it
  dealdesk deals delete <id>           Delete a deal
  dealdesk deals search <query>        Search address, contact, and notes
  dealdesk deals note <id> <text>      Add a note
  dealdesk deals tag <id> <tag>        Add a tag
  Deal ids may be shortened to any unique prefix.

VIZ COMMANDS:
  dealdesk viz dashboard       Terminal pipeline dashboard
  dealdesk viz pipeline        Generate the pipeline graph
    --format <f>                 dot (default), svg, or png
    --output <file>              Output file (default: stdout; required for png)
    --stage <stage>              Only deals in this stage

WEB:
  dealdesk web                 Serve the dashboard (default :10666)
    --addr <addr>                Listen address
    --aging-cron <spec>          Aging refresh schedule (empty disables)

AUTH COMMANDS:
  dealdesk auth login          Save an API token
  dealdesk auth forget         Remove the saved token
  dealdesk auth activity       List recent login sessions
    --limit <n>                  Max sessions (default: 10)
  dealdesk auth logout <id>    End a session

SYNC COMMANDS:
  dealdesk sync link           Link this device to Charm
    --host <host>                Charm server to use
  dealdesk sync status         Show sync status
  dealdesk sync now            Sync immediately
  dealdesk sync auto --enable|--disable
  dealdesk sync wipe --confirm Delete all local deal data

ENVIRONMENT:
  DEALDESK_STORAGE, DEALDESK_DB_PATH, DEALDESK_SEED, DEALDESK_ACTOR,
  DEALDESK_WEB_ADDR, DEALDESK_AGING_CRON, DEALDESK_API_BASE, DEALDESK_API_TOKEN,
  DEALDESK_ACTIVITY_LIMIT, DEALDESK_LOG_LEVEL, DEALDESK_LOG_ENCODING, DEALDESK_LOG_DEV
  Values may also come from .env or ~/.config/dealdesk/env.

EXAMPLES:
  # Try it out with sample data in memory
  dealdesk --storage memory --seed tui

  # Add a deal and move it forward
  dealdesk deals add --address "123 Main St" --contact "John Smith" --value 185000
  dealdesk deals move 1a2b proposal --notes "LOI sent"

  # Render the pipeline to SVG
  dealdesk viz pipeline --format svg --output pipeline.svg

`, version)
}

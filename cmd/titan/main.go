// Command titan runs analytics processors from the command line and
// serves them to MCP clients.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/titanlabs/titan/pkg/config"
	"github.com/titanlabs/titan/pkg/engine"
	"github.com/titanlabs/titan/pkg/licensing"
	"github.com/titanlabs/titan/pkg/llm"
	titanmcp "github.com/titanlabs/titan/pkg/mcp"
	"github.com/titanlabs/titan/pkg/processor"
	"github.com/titanlabs/titan/pkg/telemetry"
	"github.com/titanlabs/titan/pkg/usage"
)

const version = "0.1.0"

type globalFlags struct {
	ConfigPath string
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load(global.ConfigPath)
	if err != nil {
		fatal(err)
	}
	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	app, err := buildApp(cfg)
	if err != nil {
		fatal(err)
	}
	defer app.close()

	switch args[0] {
	case "list":
		runList(app, global)
	case "process":
		runProcess(ctx, app, args[1:])
	case "stats":
		runStats(ctx, app, global, args[1:])
	case "license":
		runLicense(app, global, args[1:])
	case "mcp":
		runMCP(app)
	case "version":
		fmt.Println("titan " + version)
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

// app holds the wired core shared by every subcommand.
type app struct {
	router    *llm.Router
	registry  *processor.Registry
	engine    *engine.Engine
	store     *usage.SQLiteStore
	gate      *licensing.Gate
	tier      licensing.Tier
	telemetry telemetry.ShutdownFunc
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.telemetry(ctx)
	}
}

func buildApp(cfg *config.Config) (*app, error) {
	a := &app{}

	var recorders []llm.Recorder
	var engineOpts []engine.Option
	if cfg.Usage.Enabled {
		store, err := usage.Open(cfg.Usage.Path)
		if err != nil {
			return nil, fmt.Errorf("open usage store: %w", err)
		}
		a.store = store
		recorders = append(recorders, store)
	}
	if cfg.Telemetry.Exporter != "none" && cfg.Telemetry.Exporter != "" {
		shutdown, err := telemetry.InitWithConfig("titan", version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			return nil, err
		}
		a.telemetry = shutdown

		metrics, err := telemetry.NewMetrics()
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, telemetry.NewLLMRecorder(metrics))
		engineOpts = append(engineOpts, engine.WithObserver(metrics))
	}

	a.router = llm.FromConfig(cfg.LLM, llm.MultiRecorder(recorders...))

	registry, err := processor.NewDefaultRegistry(a.router, cfg.LLM.MaxPromptChars)
	if err != nil {
		return nil, err
	}
	a.registry = registry

	tier, err := licensing.ParseTier(cfg.License.Tier)
	if err != nil {
		return nil, err
	}
	gate := licensing.NewGate()
	if cfg.License.MatrixFile != "" {
		gate, err = licensing.LoadGate(cfg.License.MatrixFile)
		if err != nil {
			return nil, err
		}
	}

	a.gate = gate
	a.tier = tier
	a.engine = engine.New(registry, gate, tier, engineOpts...)
	return a, nil
}

func runList(a *app, global globalFlags) {
	metadata := a.registry.MetadataAll()
	if global.JSON {
		printJSON(metadata)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tLLM\tENTERPRISE\tDESCRIPTION")
	for _, md := range metadata {
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%s\n",
			md.Name, md.Category, md.RequiresLLM, md.IsEnterprise, md.Description)
	}
	w.Flush()
}

func runProcess(ctx context.Context, a *app, args []string) {
	fs := newFlagSet("process")
	blockType := fs.String("type", "", "block type to process (required)")
	dataArg := fs.String("data", "", "inline text to analyze")
	dataFile := fs.String("file", "", "file with text to analyze")
	model := fs.String("model", "", "provider id override")
	topic := fs.String("topic", "", "report topic for query substitution")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall processing timeout")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *blockType == "" {
		fatal(fmt.Errorf("process: --type is required"))
	}

	text := *dataArg
	if *dataFile != "" {
		raw, err := os.ReadFile(*dataFile)
		if err != nil {
			fatal(err)
		}
		text = string(raw)
	}
	if text == "" {
		fatal(fmt.Errorf("process: one of --data or --file is required"))
	}

	params := llm.Params{}
	if *model != "" {
		params["model"] = *model
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	result, err := a.engine.ProcessBlock(ctx, engine.TemplateBlock{
		Type:             *blockType,
		ProcessingParams: params,
	}, *topic, map[string]interface{}{"data": text})
	if err != nil {
		fatal(err)
	}
	printJSON(result)
}

func runStats(ctx context.Context, a *app, global globalFlags, args []string) {
	fs := newFlagSet("stats")
	recent := fs.Int("recent", 0, "show the N most recent calls instead of totals")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if a.store == nil {
		fatal(fmt.Errorf("stats: usage tracking is disabled (set usage.enabled)"))
	}

	if *recent > 0 {
		records, err := a.store.Recent(ctx, *recent)
		if err != nil {
			fatal(err)
		}
		if global.JSON {
			printJSON(records)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tPROVIDER\tMODEL\tTOKENS\tSTATUS\tERROR")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				r.CreatedAt.Format(time.RFC3339), r.Provider, r.Model,
				r.TotalTokens, r.Status, r.ErrorCode)
		}
		w.Flush()
		return
	}

	stats, err := a.store.Stats(ctx)
	if err != nil {
		fatal(err)
	}
	if global.JSON {
		printJSON(stats)
		return
	}

	fmt.Printf("calls: %d  errors: %d  tokens: %d\n",
		stats.TotalCalls, stats.TotalErrors, stats.TotalTokens)
	sort.Slice(stats.ByProvider, func(i, j int) bool {
		return stats.ByProvider[i].Calls > stats.ByProvider[j].Calls
	})
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tCALLS\tERRORS\tTOKENS")
	for _, p := range stats.ByProvider {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", p.Provider, p.Calls, p.Errors, p.TotalTokens)
	}
	w.Flush()
}

func runLicense(a *app, global globalFlags, args []string) {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "show":
		printJSON(currentLicense(a.tier, a.gate))

	case "generate":
		fs := newFlagSet("license generate")
		tierArg := fs.String("tier", "", "license tier (community, professional, enterprise)")
		org := fs.String("org", "", "organization name (required)")
		expires := fs.String("expires", "", "expiry date YYYY-MM-DD (omit for perpetual)")
		if err := fs.Parse(args); err != nil {
			fatal(err)
		}
		if *org == "" {
			fatal(fmt.Errorf("license generate: --org is required"))
		}
		tier, err := licensing.ParseTier(*tierArg)
		if err != nil {
			fatal(err)
		}
		expiry, err := parseExpiry(*expires)
		if err != nil {
			fatal(err)
		}
		fmt.Println(licensing.GenerateKey(tier, *org, expiry))

	case "validate":
		fs := newFlagSet("license validate")
		key := fs.String("key", "", "license key to validate (required)")
		org := fs.String("org", "", "organization the key was issued to")
		if err := fs.Parse(args); err != nil {
			fatal(err)
		}
		if *key == "" {
			fatal(fmt.Errorf("license validate: --key is required"))
		}
		info, err := licensing.ValidateKey(*key, *org, a.gate)
		if err != nil {
			fatal(err)
		}
		printJSON(info)

	default:
		fatal(fmt.Errorf("unknown license subcommand %q", sub))
	}
}

// currentLicense describes the license the deployment runs under. Installs
// without a key run as community.
func currentLicense(tier licensing.Tier, gate *licensing.Gate) *licensing.Info {
	if tier == licensing.TierCommunity {
		return licensing.CommunityLicense(gate)
	}
	return &licensing.Info{
		Tier:         tier,
		Organization: "Licensed Organization",
		IssuedDate:   time.Now(),
		MaxUsers:     gate.Limit(tier, licensing.LimitUsers),
		Features:     gate.Features(tier),
	}
}

func parseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date %q (want YYYY-MM-DD)", s)
	}
	return &t, nil
}

func runMCP(a *app) {
	s := titanmcp.NewServer("titan", version, a.engine, a.registry)
	if err := s.ServeStdio(); err != nil {
		fatal(err)
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func printJSON(v interface{}) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(encoded))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "titan:", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`titan - analytics processor runner

Usage:
  titan [--config path] [--json] <command> [args]

Commands:
  list                          List registered processors
  process --type T --data TEXT  Run one processor over inline text
          [--file path] [--model id] [--topic t] [--timeout d]
  stats [--recent N]            Show recorded LLM usage
  license [show]                Show the active license
  license generate --tier T --org NAME [--expires YYYY-MM-DD]
                                Issue a license key
  license validate --key K [--org NAME]
                                Validate a license key
  mcp                           Serve processors as MCP tools on stdio
  version                       Print version
  help                          Show this help
`)
}

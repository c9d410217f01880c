// Package cmd provides CLI command implementations for superpeer.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/Benny93/superpeer-go/internal/config"
	"github.com/Benny93/superpeer-go/internal/logging"
	"github.com/Benny93/superpeer-go/internal/overlay"
	"github.com/Benny93/superpeer-go/internal/playback"
	"github.com/Benny93/superpeer-go/internal/routing"
	"github.com/Benny93/superpeer-go/internal/topology"
	"github.com/Benny93/superpeer-go/internal/watch"
	"github.com/Benny93/superpeer-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals holds flags shared by every command.
type Globals struct {
	Config      string `short:"c" default:"superpeer.yaml" help:"Path to the YAML config file"`
	Verbose     bool   `short:"v" help:"Enable verbose output"`
	Quiet       bool   `short:"q" help:"Suppress non-essential output"`
	Seed        uint64 `help:"Seed for peer edge generation (0 = random)"`
	Store       string `help:"Graph store backend (memory, badger)"`
	MetricsFile string `help:"Write Prometheus metrics to this file on exit"`

	// out is replaced in tests.
	out io.Writer
}

// GenerateCmd builds a topology and prints its statistics.
type GenerateCmd struct {
	Regular int  `short:"r" help:"Number of regular nodes (default from config)"`
	Super   int  `short:"s" help:"Number of super nodes (default from config)"`
	JSON    bool `help:"Output as JSON"`
	Summary bool `help:"Include per-super-node summary and degree statistics"`
}

// Run executes the generate command.
func (c *GenerateCmd) Run(g *Globals) error {
	engine, err := g.newEngine()
	if err != nil {
		return err
	}
	defer g.closeEngine(engine)

	if !c.JSON && !g.Quiet {
		engine.SetProgress(g.progress)
	}

	stats, err := engine.GenerateTopology(c.Regular, c.Super)
	if err != nil {
		return err
	}
	g.endProgress(c.JSON)

	var summary *overlay.Summary
	if c.Summary {
		if summary, err = engine.Describe(); err != nil {
			return fmt.Errorf("describing topology: %w", err)
		}
	}

	if c.JSON {
		if summary != nil {
			return g.printJSON(summary)
		}
		return g.printJSON(stats)
	}

	printStats(g.writer(), stats)
	if summary != nil {
		printSummary(g.writer(), summary)
	}
	return nil
}

// PathCmd generates a topology and resolves a path between two nodes.
type PathCmd struct {
	Start   string `arg:"" help:"Start node (n7 or 7)"`
	End     string `arg:"" help:"End node (n7 or 7)"`
	Mode    string `short:"m" enum:"backbone,shortest" default:"backbone" help:"Routing strategy (backbone, shortest)"`
	Regular int    `short:"r" help:"Number of regular nodes (default from config)"`
	Super   int    `short:"s" help:"Number of super nodes (default from config)"`
	Animate bool   `short:"a" help:"Play the path step by step"`
	JSON    bool   `help:"Output as JSON"`
}

// Run executes the path command.
func (c *PathCmd) Run(g *Globals) error {
	engine, err := g.newEngine()
	if err != nil {
		return err
	}
	defer g.closeEngine(engine)

	if _, err := engine.GenerateTopology(c.Regular, c.Super); err != nil {
		return err
	}

	var path routing.Path
	switch c.Mode {
	case "shortest":
		path, err = engine.ShortestPath(c.Start, c.End)
	default:
		path, err = engine.PathThroughBackbone(c.Start, c.End)
	}
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if c.JSON {
		return g.printJSON(map[string]any{
			"mode":     c.Mode,
			"start":    overlay.NormalizeNodeID(c.Start),
			"end":      overlay.NormalizeNodeID(c.End),
			"ids":      path.IDs(),
			"hops":     path.Hops(),
			"complete": path.Complete(),
			"missing":  path.Missing(),
		})
	}

	out := g.writer()
	if len(path) == 0 {
		fmt.Fprintf(out, "No path between %s and %s\n", c.Start, c.End)
		return nil
	}
	if !path.Complete() {
		color.New(color.FgYellow).Fprintf(out, "Path is incomplete, missing: %s\n", strings.Join(path.Missing(), ", "))
		fmt.Fprintln(out, strings.Join(path.IDs(), " -> "))
		return nil
	}

	if c.Animate {
		return g.animate(engine.Config().Playback, path)
	}

	color.New(color.FgGreen).Fprintf(out, "%s path (%d hops)\n", c.Mode, path.Hops())
	fmt.Fprintln(out, strings.Join(path.IDs(), " -> "))
	return nil
}

// PartitionsCmd prints the regular node range owned by each super node.
type PartitionsCmd struct {
	Regular int  `short:"r" help:"Number of regular nodes (default from config)"`
	Super   int  `short:"s" help:"Number of super nodes (default from config)"`
	JSON    bool `help:"Output as JSON"`
}

// Run executes the partitions command.
func (c *PartitionsCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	regular, super := c.Regular, c.Super
	if regular == 0 {
		regular = cfg.RegularCount
	}
	if super == 0 {
		super = cfg.SuperCount
	}
	if regular < 1 || super < 1 {
		return fmt.Errorf("%w: regular=%d super=%d", topology.ErrInvalidCounts, regular, super)
	}

	partition := topology.NewPartition(regular, super)
	if c.JSON {
		return g.printJSON(map[string]any{
			"regular_count": partition.RegularCount,
			"super_count":   partition.SuperCount,
			"per_super":     partition.PerSuper,
			"remainder":     partition.Remainder(),
			"ranges":        partition.Ranges(),
		})
	}

	out := g.writer()
	fmt.Fprintf(out, "%d regular nodes over %d super nodes (%d each, remainder %d)\n\n",
		partition.RegularCount, partition.SuperCount, partition.PerSuper, partition.Remainder())
	for k, r := range partition.Ranges() {
		if r.Len() == 0 {
			fmt.Fprintf(out, "  s%-4d (none)\n", k)
			continue
		}
		fmt.Fprintf(out, "  s%-4d n%d..n%d (%d)\n", k, r.Start, r.End-1, r.Len())
	}
	return nil
}

// WatchCmd regenerates the topology whenever the config file changes.
type WatchCmd struct{}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	engine, err := g.newEngine()
	if err != nil {
		return err
	}
	defer func() { g.closeEngine(engine) }()

	stats, err := engine.GenerateTopology(0, 0)
	if err != nil {
		return err
	}
	out := g.writer()
	printStats(out, stats)

	w, err := watch.New(g.Config, watch.DefaultDebounce, g.logger(engine.Config()))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	fmt.Fprintln(out, "## Watch Mode")
	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n\n", w.Path())

	ctx, cancel := signalContext()
	defer cancel()

	err = w.Run(ctx, func(cfg config.Config) error {
		g.applyOverrides(&cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Store or peer settings may have changed, so rebuild the engine.
		next, err := overlay.New(cfg, g.logger(cfg))
		if err != nil {
			return err
		}
		stats, err := next.GenerateTopology(0, 0)
		if err != nil {
			_ = next.Close()
			return err
		}

		g.closeEngine(engine)
		engine = next
		color.New(color.FgGreen).Fprintln(out, "Config changed, topology regenerated")
		printStats(out, stats)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Fprintln(out, "Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server.
type MCPCmd struct {
	SDK bool `help:"Serve through the SDK stdio transport instead of the built-in loop"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	// Logs must stay off stdout, which carries JSON-RPC only.
	g.Quiet = true
	engine, err := g.newEngine()
	if err != nil {
		return err
	}
	defer g.closeEngine(engine)

	ctx, cancel := signalContext()
	defer cancel()

	server := mcp.NewServer(engine)
	if c.SDK {
		err = server.RunSDK(ctx)
	} else {
		err = server.Run(ctx, os.Stdin, os.Stdout)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ConfigCmd prints the effective configuration.
type ConfigCmd struct{}

// Run executes the config command.
func (c *ConfigCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	return cfg.Write(g.writer())
}

// Helper functions

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func (g *Globals) writer() io.Writer {
	if g.out != nil {
		return g.out
	}
	return color.Output
}

// loadConfig reads the config file and applies flag overrides.
func (g *Globals) loadConfig() (config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return config.Config{}, err
	}
	g.applyOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (g *Globals) applyOverrides(cfg *config.Config) {
	if g.Seed != 0 {
		cfg.Peers.Seed = g.Seed
	}
	if g.Store != "" {
		cfg.Store = g.Store
	}
	switch {
	case g.Verbose:
		cfg.LogLevel = "debug"
	case g.Quiet:
		cfg.LogLevel = "warn"
	}
}

func (g *Globals) logger(cfg config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(os.Stderr, level)
}

func (g *Globals) newEngine() (*overlay.Engine, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	engine, err := overlay.New(cfg, g.logger(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// closeEngine flushes metrics, if requested, and releases the engine.
func (g *Globals) closeEngine(engine *overlay.Engine) {
	if g.MetricsFile != "" {
		if err := engine.Metrics().WriteTextfile(g.MetricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	_ = engine.Close()
}

func (g *Globals) progress(phase string, pct float64) {
	fmt.Fprintf(os.Stderr, "\r\033[K%s (%.0f%%)", phase, pct*100)
}

func (g *Globals) endProgress(jsonOutput bool) {
	if !jsonOutput && !g.Quiet {
		fmt.Fprintln(os.Stderr) // Newline after progress
	}
}

// animate plays a complete path, highlighting each element as it is reached.
func (g *Globals) animate(cfg config.PlaybackConfig, path routing.Path) error {
	ctx, cancel := signalContext()
	defer cancel()

	out := g.writer()
	highlight := color.New(color.FgRed, color.Bold)
	player := playback.NewPlayer(cfg.StepInterval, nil)

	res := <-player.Play(ctx, path, func(_ context.Context, i int, e routing.Element) error {
		kind := "edge"
		if e.IsNode() {
			kind = string(e.Node.Kind) + " node"
		}
		fmt.Fprintf(out, "%2d. ", i+1)
		highlight.Fprintf(out, "%s", e.ID)
		fmt.Fprintf(out, " (%s)\n", kind)
		return nil
	})
	if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
		return fmt.Errorf("playing path: %w", res.Err)
	}

	color.New(color.FgGreen).Fprintf(out, "✓ Played %d of %d elements\n", res.Played, len(path))
	return nil
}

func (g *Globals) printJSON(v any) error {
	enc := json.NewEncoder(g.writer())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(out io.Writer, stats *topology.Stats) {
	color.New(color.FgGreen).Fprintln(out, "✓ Topology generated")
	fmt.Fprintf(out, "  Super nodes:     %d\n", stats.SuperCount)
	fmt.Fprintf(out, "  Regular nodes:   %d\n", stats.RegularCount)
	fmt.Fprintf(out, "  Backbone edges:  %d\n", stats.BackboneEdges)
	fmt.Fprintf(out, "  Spoke edges:     %d\n", stats.SpokeEdges)
	fmt.Fprintf(out, "  Peer edges:      %d (target %d per node)\n", stats.PeerEdges, stats.PeerTarget)
	if stats.PeerShortfall > 0 {
		fmt.Fprintf(out, "  Peer shortfall:  %d\n", stats.PeerShortfall)
	}
	fmt.Fprintf(out, "  Duration:        %.3fs\n", stats.Duration.Seconds())
}

func printSummary(out io.Writer, summary *overlay.Summary) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "## Super nodes")
	for _, s := range summary.Supers {
		fmt.Fprintf(out, "  %-5s spokes=%-4d degree=%-4d range=[%d,%d)\n",
			s.ID, s.Spokes, s.Degree, s.Range.Start, s.Range.End)
	}
	d := summary.RegularDegree
	fmt.Fprintf(out, "\nRegular degree: min=%d max=%d mean=%.2f\n", d.Min, d.Max, d.Mean)
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Globals `embed:""`

	// Commands
	Generate   GenerateCmd   `cmd:"" help:"Generate an overlay topology and print its statistics"`
	Path       PathCmd       `cmd:"" help:"Generate a topology and resolve a path between two nodes"`
	Partitions PartitionsCmd `cmd:"" help:"Show the regular node range owned by each super node"`
	Watch      WatchCmd      `cmd:"" help:"Regenerate the topology when the config file changes"`
	MCP        MCPCmd        `cmd:"" help:"Start MCP server (stdio transport)"`
	ConfigCmd  ConfigCmd     `cmd:"" name:"config" help:"Print the effective configuration"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("superpeer"),
		kong.Description("Two-tier super-peer overlay generator and router"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return kongCtx.Run(&c.Globals)
}

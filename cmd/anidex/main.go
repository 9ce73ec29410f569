package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mmcdole/anidex/internal/adapter"
	"github.com/mmcdole/anidex/internal/adapter/source"
	"github.com/mmcdole/anidex/internal/browse"
	"github.com/mmcdole/anidex/internal/catalog"
	"github.com/mmcdole/anidex/internal/connectivity"
	"github.com/mmcdole/anidex/internal/domain"
	"github.com/mmcdole/anidex/internal/store"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

const suggestionLimit = 5

// errReported marks failures already shown to the user
var errReported = errors.New("reported")

const usage = `Usage: anidex [flags] <command> [args]

Commands:
  top                  Show the top-ranked list (cached, refreshed when stale)
  show <id>            Show one entry, refreshed when online
  search <query>       Search cached titles
  page <n>             Fetch page n of the top list into the cache
  filter <name> [n]    Fetch a filtered list (airing, upcoming, bypopularity, favorite)
  watch                Print the cached list whenever it changes
  clear                Remove all cached entries
  init-config          Write the default config file

Flags:
`

type options struct {
	configFile string
	refresh    bool
	offline    bool
}

func main() {
	var (
		showVersion bool
		opts        options
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&opts.configFile, "config", "", "config file (default ~/.config/anidex/config.yaml)")
	flag.BoolVar(&opts.refresh, "refresh", false, "force a remote refresh")
	flag.BoolVar(&opts.offline, "offline", false, "never contact the API")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("anidex %s\n", Version)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, flag.Arg(0), flag.Args()[1:]); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds the wired components for one command
type app struct {
	catalog *catalog.Service
	monitor *connectivity.Monitor
	prober  *connectivity.Prober
	out     *renderer
	spinner bool
	logger  *slog.Logger
}

func run(ctx context.Context, opts options, cmd string, args []string) error {
	if cmd == "init-config" {
		path, err := adapter.SaveConfig(adapter.DefaultConfig(), opts.configFile)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s\n", path)
		return nil
	}

	// Load configuration
	cfg, err := adapter.LoadConfig(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting anidex", "version", Version, "command", cmd)

	client, err := source.NewClientFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	catalogStore, err := store.NewCatalogStore(cfg.Cache.Dir, client.BaseURL(), logger)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer catalogStore.Close()

	// Offline until the first probe proves otherwise
	monitor := connectivity.NewMonitor(false, logger)
	var prober *connectivity.Prober
	if !opts.offline {
		addr, err := source.ProbeAddress(client.BaseURL())
		if err != nil {
			return err
		}
		prober = connectivity.NewProber(monitor, addr, connectivity.ProberOptions{
			Interval:     cfg.Connectivity.ProbeInterval,
			Timeout:      cfg.Connectivity.ProbeTimeout,
			OfflineAfter: cfg.Connectivity.OfflineAfter,
		}, logger)
		prober.Probe(ctx)
	}

	svc := catalog.NewService(catalogStore, client, monitor, catalog.Options{
		StaleAfter: cfg.Sync.StaleAfter,
	}, logger)

	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))
	width := defaultWidth
	if stdoutTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	a := &app{
		catalog: svc,
		monitor: monitor,
		prober:  prober,
		out:     newRenderer(os.Stdout, stdoutTTY, width, cfg.Preferences.ShowImages),
		spinner: term.IsTerminal(int(os.Stderr.Fd())),
		logger:  logger,
	}

	switch cmd {
	case "top":
		return a.top(ctx, opts.refresh)
	case "show":
		id, err := intArg(args, 0, "id")
		if err != nil {
			return err
		}
		return a.show(ctx, id)
	case "search":
		if len(args) == 0 {
			return fmt.Errorf("search requires a query")
		}
		return a.search(strings.Join(args, " "))
	case "page":
		page, err := intArg(args, 0, "page")
		if err != nil {
			return err
		}
		return a.page(ctx, page)
	case "filter":
		if len(args) == 0 {
			return fmt.Errorf("filter requires one of: %s", strings.Join(domain.CatalogFilters, ", "))
		}
		page := 1
		if len(args) > 1 {
			if page, err = intArg(args, 1, "page"); err != nil {
				return err
			}
		}
		return a.filter(ctx, args[0], page)
	case "watch":
		return a.watch(ctx)
	case "clear":
		if err := svc.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("✓ Cache cleared")
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *app) top(ctx context.Context, refresh bool) error {
	lm := browse.NewListModel(a.catalog, a.logger)
	defer lm.Close()

	var done <-chan struct{}
	if refresh {
		done = lm.Refresh()
	} else {
		done = lm.Load(false)
	}
	if err := a.wait(ctx, done, "Syncing top anime..."); err != nil {
		return err
	}
	return a.result(a.out.List("Top Anime", lm.State(), ""))
}

func (a *app) show(ctx context.Context, id int) error {
	dm := browse.NewDetailModel(a.catalog, id, a.logger)
	defer dm.Close()

	if err := a.wait(ctx, dm.Load(), "Loading details..."); err != nil {
		return err
	}
	return a.result(a.out.Detail(dm.State()))
}

func (a *app) search(query string) error {
	items, err := a.catalog.Search(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(items) > 0 {
		a.out.List(fmt.Sprintf("Results for %q", query), browse.ListReady{Items: items}, query)
		return nil
	}

	a.out.Info(fmt.Sprintf("No cached titles contain %q", query))
	if !a.catalog.HasCachedData() {
		a.out.Info("The cache is empty; run `anidex top` first.")
		return nil
	}
	a.out.Suggestions(query, a.catalog.Suggest(query, suggestionLimit))
	return nil
}

func (a *app) page(ctx context.Context, page int) error {
	state, err := a.collect(ctx, a.catalog.LoadPage(ctx, page), fmt.Sprintf("Fetching page %d...", page))
	if err != nil {
		return err
	}
	return a.result(a.out.List(fmt.Sprintf("Top Anime · page %d", page), state, ""))
}

func (a *app) filter(ctx context.Context, name string, page int) error {
	state, err := a.collect(ctx, a.catalog.LoadFilter(ctx, name, page), fmt.Sprintf("Fetching %s...", name))
	if err != nil {
		return err
	}
	return a.result(a.out.List(fmt.Sprintf("%s · page %d", capitalize(name), page), state, ""))
}

// watch prints the cached list and connectivity changes until interrupted,
// resyncing the list whenever the connection comes back.
func (a *app) watch(ctx context.Context) error {
	if a.prober != nil {
		go a.prober.Run(ctx)
	}

	lists := a.catalog.ObserveList(ctx)
	conn := a.monitor.Subscribe(ctx)

	// Initial sync; later ones are triggered by reconnects
	go domain.Last[[]domain.Anime](a.catalog.SyncTopList(ctx, false))

	first := true
	for {
		select {
		case <-ctx.Done():
			return nil
		case items, ok := <-lists:
			if !ok {
				return nil
			}
			a.out.List(fmt.Sprintf("Top Anime · %s", time.Now().Format("15:04:05")), browse.ListReady{Items: items}, "")
		case online, ok := <-conn:
			if !ok {
				return nil
			}
			if online {
				a.out.Info("● online")
				if !first {
					go domain.Last[[]domain.Anime](a.catalog.SyncTopList(ctx, false))
				}
			} else {
				a.out.Notice("offline, showing cached data")
			}
			first = false
		}
	}
}

// collect reduces a one-shot list stream to its final state
func (a *app) collect(ctx context.Context, stream <-chan domain.Result[[]domain.Anime], label string) (browse.ListState, error) {
	var state browse.ListState = browse.ListLoading{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range stream {
			state = browse.ReduceList(r)
		}
	}()
	if err := a.wait(ctx, done, label); err != nil {
		return nil, err
	}
	return state, nil
}

// wait blocks until done closes, animating a spinner on stderr when it is a
// terminal.
func (a *app) wait(ctx context.Context, done <-chan struct{}, label string) error {
	if !a.spinner {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	frame := 0
	fmt.Fprintf(os.Stderr, "\r%s %s", SpinnerFrames[frame], label)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			fmt.Fprint(os.Stderr, clearSpinnerLine)
			return nil
		case <-ctx.Done():
			fmt.Fprint(os.Stderr, clearSpinnerLine)
			return ctx.Err()
		case <-ticker.C:
			frame++
			fmt.Fprintf(os.Stderr, "\r%s %s", SpinnerFrames[frame%len(SpinnerFrames)], label)
		}
	}
}

func (a *app) result(ok bool) error {
	if ok {
		return nil
	}
	return errReported
}

func intArg(args []string, i int, name string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: %q", name, args[i])
	}
	return n, nil
}

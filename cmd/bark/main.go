package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/modoterra/bark/internal/buildinfo"
	"github.com/modoterra/bark/pkg/config"
	"github.com/modoterra/bark/pkg/filter"
	"github.com/modoterra/bark/pkg/mux"
	"github.com/modoterra/bark/pkg/prefs"
	"github.com/modoterra/bark/pkg/session"
	tuimodel "github.com/modoterra/bark/pkg/tui/model"
)

var (
	configPath  string
	logFile     string
	logLevel    string
	filterFlag  string
	regexFlag   bool
	savedFlag   string
	debounce    time.Duration
	tailFlag    int
	noFollow    bool
	wrapFlag    bool
	srcFlags    sourceFlags
	prefsFlag   string
	exportDir   string
	shutdownMax = 3 * time.Second
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bark [FILE|GLOB|-]...",
	Short: "Live log viewer for the terminal",
	Long: "bark follows files, containers, pods, remote files, systemd units and commands,\n" +
		"merging them into one filterable, scrollable view.",
	SilenceUsage: true,
	RunE:         runView,
}

func init() {
	f := rootCmd.Flags()
	f.StringArrayVar(&srcFlags.docker, "docker", nil, "follow a container's logs (repeatable)")
	f.StringVar(&srcFlags.k8s, "k8s", "", "follow a pod's logs")
	f.StringVarP(&srcFlags.namespace, "namespace", "n", "", "pod namespace")
	f.StringVarP(&srcFlags.container, "container", "c", "", "pod container")
	f.StringVar(&srcFlags.ssh, "ssh", "", "follow the remote paths given as arguments on HOST")
	f.StringArrayVar(&srcFlags.journal, "journal", nil, "follow a systemd unit (repeatable)")
	f.StringArrayVar(&srcFlags.exec, "exec", nil, "follow a command's output (repeatable)")
	f.StringVar(&srcFlags.listen, "listen", "", "accept lines from \"bark send\" on this socket")
	f.StringVar(&configPath, "config", "", "path to bark.yaml (default ./bark.yaml when present)")
	f.StringVar(&filterFlag, "filter", "", "initial filter pattern")
	f.BoolVar(&regexFlag, "regex", false, "treat --filter as a regular expression")
	f.StringVar(&savedFlag, "saved", "", "activate a saved filter by name")
	f.DurationVar(&debounce, "debounce", 0, "delay before a filter edit is applied (default 150ms)")
	f.IntVar(&tailFlag, "tail", 0, "start files and containers from their last N lines")
	f.BoolVar(&noFollow, "no-follow", false, "start with follow mode off")
	f.BoolVar(&wrapFlag, "wrap", false, "wrap long lines")
	f.StringVar(&prefsFlag, "prefs", "", "preferences file (default "+prefs.DefaultPath()+")")
	f.StringVar(&exportDir, "export-dir", ".", "directory for exported lines")

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file, - for stderr (default $XDG_STATE_HOME/bark/bark.log)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(filtersCmd)
	rootCmd.AddCommand(versionCmd)
}

// --- Root: viewer ---

func runView(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := openLog(logFile, logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	envSettings, envErrs := config.FromEnv(os.Getenv)
	for _, e := range envErrs {
		logger.Warn("ignoring environment override", "err", e)
	}
	prefsPath := prefsLocation(cfg, envSettings)
	p := loadPrefs(prefsPath, logger)
	settings := resolveSettings(cfg, p, envSettings, flagSettings(cmd))

	b := &builder{settings: settings, logger: logger}
	defer b.Close()
	sources, err := b.build(cfg, args, srcFlags)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		_ = cmd.Usage()
		return errors.New("no sources: pass files, - for stdin, a source flag, or a bark.yaml")
	}

	saved := p.Filters
	if cfg != nil {
		saved = mergeFilters(cfg.Filters, p.Filters)
	}
	sess := session.New(session.Options{
		Debounce: settings.Debounce,
		Height:   1,
		Follow:   settings.Follow,
		Saved:    saved,
		Logger:   logger,
	})
	for _, s := range sources {
		sess.Register(s.Name())
	}
	if savedFlag != "" {
		if !sess.ActivateNamed(savedFlag) {
			return fmt.Errorf("no saved filter matches %q", savedFlag)
		}
	} else if filterFlag != "" {
		sess.ApplyFilter(filterFlag, regexFlag)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := mux.New(settings.QueueSize, logger, sources...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	app := tuimodel.New(tuimodel.Options{
		Session:   sess,
		Events:    m.Events(),
		Settings:  settings,
		Prefs:     p,
		PrefsPath: prefsPath,
		ExportDir: exportDir,
		Logger:    logger,
	})
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)}
	if b.usesStdin {
		opts = append(opts, tea.WithInputTTY())
	}

	logger.Info("starting bark", "version", buildinfo.Version, "sources", len(sources))
	_, err = tea.NewProgram(app, opts...).Run()
	cancel()

	select {
	case <-done:
	case <-time.After(shutdownMax):
		logger.Warn("sources did not stop in time")
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// loadConfig loads an explicit config, or ./bark.yaml when present.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		path = config.DefaultFile
		cfg, err = config.LoadOptional(path)
	}
	if err != nil || cfg == nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	if err := config.ExpandCompose(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadPrefs reads preferences, falling back to defaults when the file
// cannot be used.
func loadPrefs(path string, logger *slog.Logger) prefs.Prefs {
	p, err := prefs.Load(path)
	if err != nil {
		logger.Warn("ignoring preferences", "path", path, "err", err)
	}
	return p
}

func prefsLocation(cfg *config.Config, env config.Settings) string {
	switch {
	case prefsFlag != "":
		return prefsFlag
	case env.Prefs != "":
		return env.Prefs
	case cfg != nil && cfg.Settings.Prefs != "":
		return cfg.Settings.Prefs
	}
	return prefs.DefaultPath()
}

// flagSettings collects the settings given on the command line.
func flagSettings(cmd *cobra.Command) config.Settings {
	var s config.Settings
	f := cmd.Flags()
	if f.Changed("debounce") {
		s.Debounce = debounce
	}
	if f.Changed("tail") {
		s.Tail = tailFlag
	}
	if f.Changed("no-follow") {
		s.Follow = config.Bool(!noFollow)
	}
	if f.Changed("wrap") {
		s.Wrap = config.Bool(wrapFlag)
	}
	return s
}

// resolveSettings layers defaults, preferences, the config file, the
// environment and flags, later layers winning.
func resolveSettings(cfg *config.Config, p prefs.Prefs, env, flags config.Settings) config.Resolved {
	s := p.Settings()
	if cfg != nil {
		s = s.Merge(cfg.Settings)
	}
	return s.Merge(env).Merge(flags).Resolve()
}

// mergeFilters combines configured and stored filters; stored ones win
// on a name clash.
func mergeFilters(configured, stored []filter.SavedFilter) []filter.SavedFilter {
	out := append([]filter.SavedFilter(nil), configured...)
	for _, sf := range stored {
		out = filter.Upsert(out, sf)
	}
	return out
}

// openLog opens the log file. The terminal belongs to the viewer, so
// logs go to a file unless "-" selects stderr.
func openLog(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if path == "-" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
	}
	if path == "" {
		path = defaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { f.Close() }, nil
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bark %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

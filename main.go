// hanlift lifts Han-script literals out of frontend sources into i18n catalogs.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/hanlift/catalog"
	"github.com/minios-linux/hanlift/config"
	"github.com/minios-linux/hanlift/handoff"
	"github.com/minios-linux/hanlift/merge"
	"github.com/minios-linux/hanlift/pipeline"
	"github.com/minios-linux/hanlift/rewrite"
	"github.com/minios-linux/hanlift/scan"
	"github.com/minios-linux/hanlift/settings"
	"github.com/minios-linux/hanlift/translate"
	"github.com/minios-linux/hanlift/version"
)

// Version information (set via -ldflags during build)
var (
	buildVersion = "dev"
	commit       = "none"
	date         = "unknown"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// errLiteralsFound makes check exit non-zero without an extra message.
var errLiteralsFound = errors.New("literals found")

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	logLevel   string
	logFormat  string
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

// consoleWriter returns a zerolog console writer that only colours
// terminal output.
func consoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	return zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.TimeOnly}
}

// setupLogging installs the global logger and re-derives the package
// loggers from it.
func setupLogging(f *os.File, level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer
	switch format {
	case "", "console":
		out = consoleWriter(f)
	case "json":
		out = f
	default:
		return fmt.Errorf("invalid log format %q (valid: console, json)", format)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	scan.Logger = log.With().Str("sys", "scan").Logger()
	catalog.Logger = log.With().Str("sys", "catalog").Logger()
	merge.Logger = log.With().Str("sys", "merge").Logger()
	rewrite.Logger = log.With().Str("sys", "rewrite").Logger()
	translate.Logger = log.With().Str("sys", "translate").Logger()
	version.Logger = log.With().Str("sys", "version").Logger()
	pipeline.Logger = log.With().Str("sys", "pipeline").Logger()
	return nil
}

// loadProject reads the project configuration and applies its logging
// settings unless the flags set them.
func loadProject(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootDir, configPath)
	if err != nil {
		return nil, err
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		level = logLevel
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		format = logFormat
	}
	if err := setupLogging(os.Stderr, level, format); err != nil {
		return nil, err
	}

	log.Debug().
		Str("root", cfg.Root()).
		Str("output", cfg.OutputPath()).
		Str("source", cfg.SourceLocale).
		Str("target", cfg.TargetLocale).
		Msg("Loaded configuration")
	return cfg, nil
}

func openWorkspace(cfg *config.Config) (*pipeline.Workspace, error) {
	return pipeline.Open(cfg.OutputPath(), cfg.SourceLocale, cfg.TargetLocale)
}

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

type credentialFlags struct {
	appID  string
	secret string
}

func (c *credentialFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.appID, "app-id", "", "Translation app id (or "+settings.EnvAppID+")")
	fs.StringVar(&c.secret, "secret", "", "Translation secret key (or "+settings.EnvSecret+")")
}

// newTranslator builds the translation client. Missing credentials are not
// an error; the client then reports every call as not made.
func newTranslator(cfg *config.Config, flags credentialFlags) (*translate.Client, error) {
	appID, secret := settings.ResolveAPIKey(settings.Baidu, flags.appID, flags.secret)

	from, to := cfg.Translate.From, cfg.Translate.To
	var err error
	if from == "" {
		if from, err = translate.VendorCode(cfg.SourceLocale); err != nil {
			return nil, err
		}
	}
	if to == "" {
		if to, err = translate.VendorCode(cfg.TargetLocale); err != nil {
			return nil, err
		}
	}

	if appID == "" || secret == "" {
		log.Debug().Msg("No translation credentials configured")
	}

	return translate.NewClient(translate.Config{
		Endpoint:    cfg.Translate.Endpoint,
		From:        from,
		To:          to,
		Credentials: translate.Credentials{AppID: appID, Secret: secret},
		QPS:         cfg.Translate.QPS,
		Timeout:     cfg.Translate.Timeout,
		MaxRetries:  cfg.Translate.MaxRetries,
		Proxy:       cfg.Translate.Proxy,
	}), nil
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hanlift",
		Short: "Extract Han-script literals into i18n catalogs",
		Long: `hanlift lifts Chinese literals out of JS/TS/JSX/Vue sources.

For one source file it finds the Chinese text in strings and markup, stores it
in the source-locale catalog under keys derived from the file path, rewrites
the file to call the translation function, and fills the target-locale catalog
through the Baidu translation API. Every catalog change is archived as a
numbered version with a diff.

Commands:
  run         Full pipeline on one file
  extract     Seed the source catalog from one file (no rewrite)
  translate   Fill missing target values
  export      Export catalogs as CSV or PO for translators
  import      Import translations from a PO or CSV file
  status      Show catalog statistics
  history     List archived versions
  check       List files that still hold Chinese literals
  auth        Manage translation credentials`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(os.Stderr, logLevel, logFormat)
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <root>/"+config.FileName+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console, json")

	root.AddCommand(
		newRunCmd(),
		newExtractCmd(),
		newTranslateCmd(),
		newExportCmd(),
		newImportCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newCheckCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errLiteralsFound) {
			log.Error().Err(err).Msg("hanlift failed")
		}
		stop()
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hanlift version %s\n", buildVersion)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// run / extract (one source unit)
// ---------------------------------------------------------------------------

func newRunCmd() *cobra.Command {
	var (
		creds            credentialFlags
		noRewrite        bool
		noTranslate      bool
		dryRun           bool
		retranslateStale bool
	)

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Extract, rewrite and translate one source file",
		Long: `Run the full pipeline on one source file.

The file is scanned for Chinese text in string literals and markup text. Each
distinct text gets the key <namespace>.index_N, where the namespace follows
the file's directory from the "pages" segment on. New keys are added to the
source catalog, the file is rewritten to call t('<key>'), and missing target
values are translated. Existing catalog values are never overwritten.

Examples:
  hanlift run src/pages/user/list/index.tsx
  hanlift run --dry-run src/pages/home.tsx
  hanlift run --no-translate src/pages/home.tsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			tr, err := newTranslator(cfg, creds)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cfg)
			if err != nil {
				return err
			}

			rep, err := pipeline.Run(cmd.Context(), ws, args[0], pipeline.Options{
				Marker:           cfg.Namespace.Marker,
				Fallback:         cfg.Namespace.Fallback,
				Rewrite:          rewriteOptions(cfg),
				Translator:       tr,
				NoRewrite:        noRewrite,
				NoTranslate:      noTranslate,
				RetranslateStale: retranslateStale,
				DryRun:           dryRun,
			})
			if err != nil {
				return err
			}
			printRunReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}

	creds.register(cmd.Flags())
	cmd.Flags().BoolVar(&noRewrite, "no-rewrite", false, "Do not rewrite the source file")
	cmd.Flags().BoolVar(&noTranslate, "no-translate", false, "Do not fill the target catalog")
	cmd.Flags().BoolVar(&retranslateStale, "retranslate-stale", false, "Translate values whose source text changed again")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without writing")

	return cmd
}

func newExtractCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Seed the source catalog from one file",
		Long: `Seed the source catalog from one source file without rewriting it.

Every run of Chinese text outside comments is collected, whatever the
surrounding syntax. Texts contained in a longer text are dropped in favour of
the longer one. The target catalog is not touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cfg)
			if err != nil {
				return err
			}

			rep, err := pipeline.Run(cmd.Context(), ws, args[0], pipeline.Options{
				Loose:       true,
				Marker:      cfg.Namespace.Marker,
				Fallback:    cfg.Namespace.Fallback,
				NoRewrite:   true,
				NoTranslate: true,
				DryRun:      dryRun,
			})
			if err != nil {
				return err
			}
			printRunReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without writing")
	return cmd
}

func rewriteOptions(cfg *config.Config) rewrite.Options {
	return rewrite.Options{
		Func:   cfg.Rewrite.Func,
		Hook:   cfg.Rewrite.Hook,
		Module: cfg.Rewrite.Module,
	}
}

func printRunReport(w io.Writer, rep *pipeline.Report) {
	fmt.Fprintf(w, "%s %s\n", bold(rep.Path), faint("("+rep.Namespace+")"))
	fmt.Fprintf(w, "  literals:   %d found, %d distinct\n", rep.Found, rep.Unique)
	fmt.Fprintf(w, "  catalog:    %s added, %d kept", green(rep.Merge.Added), rep.Merge.Kept)
	if rep.Merge.Conflicts > 0 {
		fmt.Fprintf(w, ", %s", yellow(fmt.Sprintf("%d conflicts", rep.Merge.Conflicts)))
	}
	if rep.Merge.Blocked > 0 {
		fmt.Fprintf(w, ", %s", red(fmt.Sprintf("%d blocked", rep.Merge.Blocked)))
	}
	fmt.Fprintln(w)
	if rep.Rewrite.Changed() {
		fmt.Fprintf(w, "  rewrite:    %d replaced", rep.Rewrite.Replaced)
		if rep.Rewrite.ImportAdded {
			fmt.Fprint(w, ", import added")
		}
		if rep.Rewrite.DeclAdded {
			fmt.Fprint(w, ", accessor declared")
		}
		fmt.Fprintln(w)
	}
	printTranslateReport(w, rep.Translate)
	if rep.Version > 0 {
		fmt.Fprintf(w, "  version:    %s\n", blue(rep.Version))
	}
	if rep.DryRun {
		fmt.Fprintln(w, yellow("  dry run, nothing written"))
	}
}

func printTranslateReport(w io.Writer, rep translate.Report) {
	if rep.Calls == 0 && len(rep.Entries) == 0 {
		return
	}
	fmt.Fprintf(w, "  translate:  %s translated", green(rep.Translated))
	if rep.Fallbacks > 0 {
		fmt.Fprintf(w, ", %s", yellow(fmt.Sprintf("%d copied from source", rep.Fallbacks)))
	}
	fmt.Fprintf(w, " (%d API calls)\n", rep.Calls)
}

// ---------------------------------------------------------------------------
// translate (whole catalog backfill)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		creds            credentialFlags
		retranslateStale bool
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Fill missing target values from the source catalog",
		Long: `Translate every source catalog value that has no target value yet.

Texts are sent one at a time, rate limited by translate.qps. A failed call
stores the source text so the catalog stays complete; such values are not
recorded as translated and can be fixed by hand or by import.

Examples:
  hanlift translate
  hanlift translate --retranslate-stale
  HANLIFT_APP_ID=... HANLIFT_SECRET_KEY=... hanlift translate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			tr, err := newTranslator(cfg, creds)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cfg)
			if err != nil {
				return err
			}

			rep, err := ws.Backfill(cmd.Context(), tr, retranslateStale)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s → %s\n", bold("translate"), cfg.SourceLocale, cfg.TargetLocale)
			printTranslateReport(out, rep)
			if !rep.Changed() {
				fmt.Fprintln(out, green("  target catalog is complete"))
			}
			if dryRun {
				fmt.Fprintln(out, yellow("  dry run, nothing written"))
				return nil
			}

			snap, err := ws.Commit()
			if err != nil {
				return err
			}
			if snap != nil {
				fmt.Fprintf(out, "  version:    %s\n", blue(snap.Index))
			}
			return nil
		},
	}

	creds.register(cmd.Flags())
	cmd.Flags().BoolVar(&retranslateStale, "retranslate-stale", false, "Translate values whose source text changed again")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Translate but do not write")

	return cmd
}

// ---------------------------------------------------------------------------
// export / import (translator handoff)
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalogs for translators",
		Long: `Export every source catalog key with its source and target text.

csv writes a "|" delimited table headed key|<source locale>|<target locale>.
po writes a gettext PO file whose msgid is the dotted key.

The default output is <output_dir>/export.<target locale>.<format>; use
-o - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cfg)
			if err != nil {
				return err
			}

			rows := handoff.Rows(ws.Source, ws.Target)
			var buf bytes.Buffer
			switch format {
			case "csv":
				err = handoff.WriteCSV(&buf, rows, cfg.SourceLocale, cfg.TargetLocale)
			case "po":
				err = handoff.WritePO(&buf, rows)
			default:
				return fmt.Errorf("unknown format %q (valid: csv, po)", format)
			}
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if output == "" {
				output = filepath.Join(cfg.OutputPath(), "export."+cfg.TargetLocale+"."+format)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			if err := atomic.WriteFile(output, &buf); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			log.Info().Str("file", output).Int("keys", len(rows)).Msg("Exported catalog")
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv, po")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (- for stdout)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv\tpipe-delimited table", "po\tgettext PO file"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.po|file.csv>",
		Short: "Import translations edited outside hanlift",
		Long: `Import target texts from a PO file or a table written by export.

Only keys present in the source catalog are applied. Imported values replace
the current target values and count as translated from the current source.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cfg)
			if err != nil {
				return err
			}

			translations, err := readTranslations(args[0], ws.Source)
			if err != nil {
				return err
			}
			rep, err := ws.Import(translations)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", bold("import"), args[0])
			fmt.Fprintf(out, "  updated:    %s\n", green(len(rep.Updated)))
			fmt.Fprintf(out, "  unchanged:  %d\n", rep.Unchanged)
			if rep.Unknown > 0 {
				fmt.Fprintf(out, "  unknown:    %s\n", yellow(rep.Unknown))
			}
			if dryRun {
				fmt.Fprintln(out, yellow("  dry run, nothing written"))
				return nil
			}

			snap, err := ws.Commit()
			if err != nil {
				return err
			}
			if snap != nil {
				fmt.Fprintf(out, "  version:    %s\n", blue(snap.Index))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without writing")
	return cmd
}

// readTranslations reads a PO or CSV file into key -> text.
func readTranslations(path string, src *catalog.Catalog) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".po":
		leaves := src.Leaves()
		keys := make([]string, len(leaves))
		for i, l := range leaves {
			keys[i] = l.Key()
		}
		return handoff.ReadPO(data, keys), nil
	case ".csv":
		m, err := handoff.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported import file %s (want .po or .csv)", path)
}

// ---------------------------------------------------------------------------
// status (read-only)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog statistics",
		Long: `Show the number of values per locale, the source keys without a target
value, the target values translated from an older source text, the target
values not recorded as translated, and the number of archived versions.
Does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cfg)
			if err != nil {
				return err
			}
			st, err := ws.Status()
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), cfg, st, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List missing, stale and untracked keys")
	return cmd
}

func printStatus(w io.Writer, cfg *config.Config, st pipeline.Status, verbose bool) {
	fmt.Fprintf(w, "%s\n", blue("Catalog Status"))
	fmt.Fprintln(w, strings.Repeat("─", 52))
	fmt.Fprintf(w, "  %-12s %s\n", "Output:", cfg.OutputPath())
	fmt.Fprintf(w, "  %-12s %d\n", "Versions:", st.Versions)
	fmt.Fprintf(w, "  %-12s %s (%s)\n", "Lock:", st.Lock, st.LockPath)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-10s %-8s %-10s %-8s %-10s %s\n", "Locale", "Values", "Missing", "Stale", "Untracked", "Progress")
	fmt.Fprintln(w, strings.Repeat("─", 63))
	fmt.Fprintf(w, "%-10s %-8d %-10s %-8s %-10s %s\n", st.SourceLocale, st.SourceLeaves, "-", "-", "-", "source")

	percent := 100
	if st.SourceLeaves > 0 {
		percent = (st.SourceLeaves - len(st.Missing)) * 100 / st.SourceLeaves
	}
	fmt.Fprintf(w, "%-10s %-8d %-10d %-8d %-10d %s\n",
		st.TargetLocale, st.TargetLeaves, len(st.Missing), len(st.Stale), len(st.Untracked), progressBar(percent, 20))
	fmt.Fprintln(w)

	if !verbose {
		return
	}
	for _, k := range st.Missing {
		fmt.Fprintf(w, "  %s %s\n", red("missing"), k)
	}
	for _, k := range st.Stale {
		fmt.Fprintf(w, "  %s %s\n", yellow("stale  "), k)
	}
	for _, k := range st.Untracked {
		fmt.Fprintf(w, "  %s %s\n", "untracked", k)
	}
}

// progressBar renders a percentage bar coloured by completeness.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	paint := red
	switch {
	case percent >= 100:
		paint = green
	case percent >= 50:
		paint = yellow
	}
	return fmt.Sprintf("%s %3d%%", paint(bar), percent)
}

// ---------------------------------------------------------------------------
// history
// ---------------------------------------------------------------------------

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [N]",
		Short: "List archived versions",
		Long: `List the archived catalog versions with the number of changed values per
locale. With N, print the diff of version N.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			store := version.NewStore(cfg.OutputPath())
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid version %q", args[0])
				}
				snap, err := store.Load(n)
				if err != nil {
					return err
				}
				printSnapshotDiff(out, snap)
				return nil
			}

			snaps, err := store.List()
			if err != nil {
				return err
			}
			printHistory(out, snaps)
			return nil
		},
	}
	return cmd
}

func printHistory(w io.Writer, snaps []*version.Snapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No versions archived yet")
		return
	}
	fmt.Fprintf(w, "%-8s %s\n", "Version", "Changes")
	fmt.Fprintln(w, strings.Repeat("─", 52))
	for _, s := range snaps {
		parts := make([]string, 0, len(s.Locales))
		for _, loc := range s.Locales {
			parts = append(parts, fmt.Sprintf("%s %s", loc, green(s.Changes(loc))))
		}
		fmt.Fprintf(w, "%-8s %s\n", blue(s.Index), strings.Join(parts, ", "))
	}
}

func printSnapshotDiff(w io.Writer, snap *version.Snapshot) {
	fmt.Fprintf(w, "%s %d %s\n", bold("version"), snap.Index, faint(snap.Dir))
	for _, loc := range snap.Locales {
		diff, ok := snap.Diff[loc]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d changes)\n", blue(loc), catalog.Changes(diff))
		w.Write(diff.Marshal())
	}
}

// ---------------------------------------------------------------------------
// check (CI gate)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "check [dir...]",
		Short: "List files that still hold Chinese literals",
		Long: `Scan JS/TS/JSX/Vue files below the given directories (default: the project
root) and list every Chinese literal still in the source. Exits with status 1
when any is found, so it can gate CI.

node_modules, .git, dist, build, vendor, the output directory and the
configured excludes are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			dirs := args
			if len(dirs) == 0 {
				dirs = []string{cfg.Root()}
			}

			files, err := scan.FindSources(dirs, cfg.ExcludePaths()...)
			if err != nil {
				return err
			}
			results, err := scan.ScanFiles(cmd.Context(), files, workers)
			if err != nil {
				return err
			}

			if printCheck(cmd.OutOrStdout(), results) > 0 {
				return errLiteralsFound
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "jobs", "j", runtime.NumCPU(), "Files scanned in parallel")
	return cmd
}

// printCheck lists the literals per file and returns the number of files
// holding any.
func printCheck(w io.Writer, results []scan.FileResult) int {
	dirty, total := 0, 0
	for _, r := range results {
		if len(r.Literals) == 0 {
			continue
		}
		dirty++
		total += len(r.Literals)
		fmt.Fprintf(w, "%s\n", bold(r.Path))
		for _, l := range r.Literals {
			line, col := scan.LineCol(r.Source, l.Pos)
			fmt.Fprintf(w, "  %s %s %s\n", faint(fmt.Sprintf("%d:%d", line, col)), l.Text, faint(l.Context.String()))
		}
	}

	if dirty == 0 {
		fmt.Fprintf(w, "%s %d files clean\n", green("ok"), len(results))
		return 0
	}
	fmt.Fprintf(w, "%s %d literals in %d of %d files\n", red("fail"), total, dirty, len(results))
	return dirty
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage translation credentials",
		Long: `Manage the Baidu translation app id and secret key.

Credentials are stored in ` + "$XDG_DATA_HOME/hanlift/auth.json" + ` with 0600
permissions. The --app-id/--secret flags and the ` + settings.EnvAppID + ` /
` + settings.EnvSecret + ` variables take precedence over the stored values.

Examples:
  hanlift auth set --app-id 2015063000000001 --secret 12345678
  hanlift auth show
  hanlift auth remove`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthShowCmd(),
		newAuthRemoveCmd(),
	)
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the app id and secret key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.appID == "" || creds.secret == "" {
				return errors.New("both --app-id and --secret are required")
			}
			if err := settings.SetAPIKey(settings.Baidu, creds.appID, creds.secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s credentials saved to %s\n", green("ok"), settings.FilePath())
			return nil
		},
	}

	creds.register(cmd.Flags())
	return cmd
}

func newAuthShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"list", "ls"},
		Short:   "Show the credentials in effect",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", blue("Translation Credentials"))
			fmt.Fprintln(out, strings.Repeat("─", 52))

			appID, secret := settings.GetAPIKey(settings.Baidu)
			if appID != "" {
				fmt.Fprintf(out, "  %-10s %s (app id: %s, key: %s)\n",
					settings.Baidu, green("configured"), appID, settings.MaskKey(secret))
			} else {
				fmt.Fprintf(out, "  %-10s %s\n", settings.Baidu, red("not configured"))
			}
			fmt.Fprintf(out, "  %-10s %s\n", "file", faint(settings.FilePath()))

			fmt.Fprintln(out)
			for _, env := range []string{settings.EnvAppID, settings.EnvSecret} {
				if v := os.Getenv(env); v != "" {
					fmt.Fprintf(out, "  %s: %s (overrides stored value)\n", env, green(settings.MaskKey(v)))
				} else {
					fmt.Fprintf(out, "  %s: %s\n", env, faint("not set"))
				}
			}
		},
	}
}

func newAuthRemoveCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"logout"},
		Short:   "Remove stored credentials",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if all {
				err = settings.RemoveAll()
			} else {
				err = settings.Remove(settings.Baidu)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s credentials removed\n", green("ok"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove the whole credential file")
	return cmd
}


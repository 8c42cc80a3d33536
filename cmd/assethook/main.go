package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jward/assethook"
	"github.com/jward/assethook/internal/bootstrap"
	"github.com/jward/assethook/internal/config"
	"github.com/jward/assethook/scripts"
)

var (
	flagConfig     string
	flagDB         string
	flagFormat     string
	flagScriptsDir string
	flagSearchRoot string
	flagGating     string
	flagVerbose    bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "assethook",
	Short:         "Post-process Cubism asset changes for a host project",
	Long:          "Assethook routes imported and deleted Cubism assets to Risor handler scripts, bootstraps the builtin render resources and patches generated C# project files.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: "+config.DefaultFile+" if present)")
	pf.StringVar(&flagDB, "db", "", "ledger database path (overrides config)")
	pf.StringVar(&flagFormat, "format", "json", "output format: json|text")
	pf.StringVar(&flagScriptsDir, "scripts-dir", "", "load handler scripts from disk path instead of embedded")
	pf.StringVar(&flagSearchRoot, "search-root", "", "directory searched for the install root (overrides config)")
	pf.StringVar(&flagGating, "gating", "", "preset gating: directory|file (overrides config)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log diagnostics to stderr")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(patchProjectsCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.LoadIfExists(config.DefaultFile)
	}
	if err != nil {
		return nil, err
	}

	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagScriptsDir != "" {
		cfg.ScriptsDir = flagScriptsDir
	}
	if flagSearchRoot != "" {
		cfg.SearchRoot = flagSearchRoot
	}
	if flagGating != "" {
		g, err := bootstrap.ParseGating(flagGating)
		if err != nil {
			return nil, err
		}
		cfg.Gating = g
	}
	return cfg, nil
}

// newLogger returns the diagnostic logger handed to the hook. Output goes
// to out when verbose and is discarded otherwise.
func newLogger(verbose bool, out io.Writer) *log.Logger {
	level := hclog.Error
	output := io.Discard
	if verbose {
		level = hclog.Debug
		output = out
	}
	l := hclog.New(&hclog.LoggerOptions{
		Name:   "assethook",
		Level:  level,
		Output: output,
	})
	return l.StandardLogger(&hclog.StandardLoggerOptions{})
}

// hookOptions translates cfg into Hook options.
func hookOptions(cfg *config.Config) []assethook.Option {
	opts := []assethook.Option{
		assethook.WithLogger(newLogger(flagVerbose, os.Stderr)),
		assethook.WithSniffing(cfg.Sniff),
		assethook.WithGating(cfg.Gating),
		assethook.WithProjectRule(cfg.Rule),
	}
	if cfg.SearchRoot != "" {
		opts = append(opts, assethook.WithBootstrap(cfg.SearchRoot, cfg.Marker))
	}
	// Script source: --scripts-dir or the config overrides embedded FS.
	if cfg.ScriptsDir == "" {
		opts = append(opts, assethook.WithScriptsFS(scripts.FS))
	}
	return opts
}

// openHook creates the ledger directory if needed and opens a Hook.
func openHook(cfg *config.Config) (*assethook.Hook, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	h, err := assethook.New(cfg.DBPath, cfg.ScriptsDir, hookOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating hook: %w", err)
	}
	return h, nil
}

var (
	flagImported  []string
	flagDeleted   []string
	flagMovedTo   []string
	flagMovedFrom []string
	flagChanges   string
	flagForce     bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process one change cycle",
	Long: "Bootstraps the builtin resources, then runs the import handler of every imported path and the delete handler of every deleted path. " +
		"Paths come from flags or from a JSON change set (--changes, - for stdin).",
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	addChangeFlags(processCmd, &flagImported, &flagDeleted, &flagMovedTo, &flagMovedFrom)
	f := processCmd.Flags()
	f.StringVar(&flagChanges, "changes", "", "read a JSON change set from file, - for stdin")
	f.BoolVar(&flagForce, "force", false, "delete the ledger before processing")
}

// addChangeFlags registers the change set path flags on cmd. Each flag takes
// one path per occurrence, so paths may contain commas.
func addChangeFlags(cmd *cobra.Command, imported, deleted, movedTo, movedFrom *[]string) {
	f := cmd.Flags()
	f.StringArrayVar(imported, "imported", nil, "imported asset path (repeatable)")
	f.StringArrayVar(deleted, "deleted", nil, "deleted asset path (repeatable)")
	f.StringArrayVar(movedTo, "moved-to", nil, "move destination, ignored (repeatable)")
	f.StringArrayVar(movedFrom, "moved-from", nil, "move source, ignored (repeatable)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return outputError("process", err)
	}

	cs := assethook.ChangeSet{
		Imported:  flagImported,
		Deleted:   flagDeleted,
		MovedTo:   flagMovedTo,
		MovedFrom: flagMovedFrom,
	}
	if flagChanges != "" {
		fromFile, err := readChangeSet(cmd.InOrStdin(), flagChanges)
		if err != nil {
			return outputError("process", err)
		}
		cs = mergeChangeSets(cs, fromFile)
	}

	// Handle --force: delete the DB file entirely.
	if flagForce {
		if err := os.Remove(cfg.DBPath); err != nil && !os.IsNotExist(err) {
			return outputError("process", fmt.Errorf("removing ledger for --force: %w", err))
		}
		fmt.Fprintf(os.Stderr, "Cleared ledger: %s\n", cfg.DBPath)
	}

	h, err := openHook(cfg)
	if err != nil {
		return outputError("process", err)
	}
	defer h.Close()

	if !flagForce && h.ScriptsChanged() {
		if all, err := h.Assets(""); err == nil && len(all) > 0 {
			fmt.Fprintln(os.Stderr, "Handler scripts changed since the last cycle; rerun with --force to rebuild the ledger")
		}
	}

	report, procErr := h.ProcessChangeSet(context.Background(), cs)
	if err := outputResult(CLIResult{Command: "process", Results: toCLIProcessReport(report)}); err != nil {
		return err
	}
	if procErr != nil {
		// The report already carries every failure.
		errorHandled = true
		printErr(procErr)
		return procErr
	}
	return nil
}

// readChangeSet decodes a CLIChangeSet from path, or from stdin for "-".
func readChangeSet(stdin io.Reader, path string) (assethook.ChangeSet, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return assethook.ChangeSet{}, fmt.Errorf("opening change set: %w", err)
		}
		defer f.Close()
		r = f
	}
	var in CLIChangeSet
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return assethook.ChangeSet{}, fmt.Errorf("decoding change set: %w", err)
	}
	return assethook.ChangeSet{
		Imported:  in.Imported,
		Deleted:   in.Deleted,
		MovedTo:   in.MovedTo,
		MovedFrom: in.MovedFrom,
	}, nil
}

// mergeChangeSets appends b's paths after a's, keeping host order within each.
func mergeChangeSets(a, b assethook.ChangeSet) assethook.ChangeSet {
	return assethook.ChangeSet{
		Imported:  append(append([]string{}, a.Imported...), b.Imported...),
		Deleted:   append(append([]string{}, a.Deleted...), b.Deleted...),
		MovedTo:   append(append([]string{}, a.MovedTo...), b.MovedTo...),
		MovedFrom: append(append([]string{}, a.MovedFrom...), b.MovedFrom...),
	}
}

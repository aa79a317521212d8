package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/tch-dev/sourcify/internal/ingest"
	"github.com/tch-dev/sourcify/internal/verification/domain"
)

func createValidateCmd() *cobra.Command {
	var output string
	var allSources bool
	var showUnused bool
	var ignoreUnreadable bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Check source files against compiler metadata",
		Long: `Check that the given files are the true inputs recorded in compiler metadata.

Paths may be individual files, directories (traversed recursively), or
archives (zip, tar, gzip - detected by content, expanded transparently).

EXAMPLES:
  # Validate a directory holding metadata and sources
  sourcify validate ./contracts

  # Validate an uploaded bundle, emit JSON
  sourcify validate bundle.zip --output json

  # List input files no metadata document referenced
  sourcify validate ./contracts --show-unused
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runValidate(args, output, allSources, showUnused, ignoreUnreadable, verbose)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: table, json, or yaml (default: table on a terminal, json otherwise)")
	cmd.Flags().BoolVar(&allSources, "all-sources", false, "widen each result with the complete uploaded file tree")
	cmd.Flags().BoolVar(&showUnused, "show-unused", false, "report input files not referenced by any metadata document")
	cmd.Flags().BoolVar(&ignoreUnreadable, "ignore-unreadable", false, "skip unreadable paths instead of failing")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

// contractReport is the per-contract shape for json/yaml output.
type contractReport struct {
	Name            string                          `json:"name" yaml:"name"`
	CompiledPath    string                          `json:"compiledPath" yaml:"compiledPath"`
	CompilerVersion string                          `json:"compilerVersion,omitempty" yaml:"compilerVersion,omitempty"`
	Valid           bool                            `json:"valid" yaml:"valid"`
	Sources         []string                        `json:"sources" yaml:"sources"`
	Missing         map[string]domain.MissingSource `json:"missing,omitempty" yaml:"missing,omitempty"`
	Invalid         map[string]domain.InvalidSource `json:"invalid,omitempty" yaml:"invalid,omitempty"`
	PathMap         map[string]string               `json:"pathMap,omitempty" yaml:"pathMap,omitempty"`
}

type validateReport struct {
	Contracts    []contractReport `json:"contracts" yaml:"contracts"`
	UnusedFiles  []string         `json:"unusedFiles,omitempty" yaml:"unusedFiles,omitempty"`
	IgnoredPaths []string         `json:"ignoredPaths,omitempty" yaml:"ignoredPaths,omitempty"`
}

func runValidate(paths []string, output string, allSources, showUnused, ignoreUnreadable, verbose bool) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		paths = cfg.Paths
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input paths given (pass paths or set them in %s)", projectConfigFiles[0])
	}
	if output == "" {
		output = cfg.Output
	}
	allSources = allSources || cfg.AllSources
	showUnused = showUnused || cfg.ShowUnused

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	svc := domain.NewService(logger)

	var ignored []string
	var ignoredPtr *[]string
	if ignoreUnreadable {
		ignoredPtr = &ignored
	}
	files, err := ingest.ReadPaths(paths, ignoredPtr)
	if err != nil {
		return err
	}

	contracts, unused, err := svc.CheckFilesWithUnused(files)
	if err != nil {
		return err
	}
	if allSources {
		for i, c := range contracts {
			contracts[i] = c.WithAllSources(files)
		}
	}

	report := validateReport{
		Contracts:    make([]contractReport, 0, len(contracts)),
		IgnoredPaths: ignored,
	}
	if showUnused {
		report.UnusedFiles = unused
	}
	for _, c := range contracts {
		report.Contracts = append(report.Contracts, toReport(c))
	}

	if err := render(report, output); err != nil {
		return err
	}

	invalid := 0
	for _, c := range contracts {
		if !c.IsValid() {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d contracts have missing or invalid sources", invalid, len(contracts))
	}
	return nil
}

func toReport(c *domain.CheckedContract) contractReport {
	sources := make([]string, 0, len(c.Sources))
	for p := range c.Sources {
		sources = append(sources, p)
	}
	sort.Strings(sources)
	r := contractReport{
		Name:         c.Name,
		CompiledPath: c.CompiledPath,
		Valid:        c.IsValid(),
		Sources:      sources,
		Missing:      c.Missing,
		Invalid:      c.Invalid,
		PathMap:      c.PathMap,
	}
	if c.Metadata != nil {
		r.CompilerVersion = c.Metadata.Compiler.Version
	}
	return r
}

func render(report validateReport, output string) error {
	if output == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			output = "table"
		} else {
			output = "json"
		}
	}

	switch output {
	case "table":
		return renderTable(report)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(report)
	default:
		return fmt.Errorf("unknown output format %q (want table, json, or yaml)", output)
	}
}

func renderTable(report validateReport) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTRACT\tTARGET\tCOMPILER\tSTATUS\tFOUND\tMISSING\tINVALID")
	for _, c := range report.Contracts {
		status := "ok"
		if !c.Valid {
			status = "incomplete"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			c.Name, c.CompiledPath, c.CompilerVersion, status,
			len(c.Sources), len(c.Missing), len(c.Invalid))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, p := range report.UnusedFiles {
		fmt.Printf("unused: %s\n", p)
	}
	for _, p := range report.IgnoredPaths {
		fmt.Printf("ignored: %s\n", p)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-convert CLI. It converts a
// tabletop-RPG rulebook PDF into structured Markdown through a resumable
// eleven-phase pipeline, keeping durable state in the output directory so
// interrupted conversions continue where they stopped.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rulebook-engine/internal/phase"
	"github.com/pdiddy/rulebook-engine/internal/pipeline"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	flagResume      bool
	flagPhase       int
	flagFromStep    string
	flagStatus      bool
	flagOutput      string
	flagYes         bool
	flagDiagnostics bool
	flagVerbose     bool
	flagGMKeywords  []string
	flagCalloutFile string
)

// rootCmd is the base command for the pdf-convert CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf-convert <pdf>",
	Short: "Convert rulebook PDFs to structured Markdown",
	Long: `pdf-convert transforms a tabletop-RPG rulebook PDF into structured
Markdown. The pipeline runs eleven phases: pre-flight, image extraction,
font census, outline extraction, marker-annotated text extraction, text
cleanup, callout boundary detection, label detection, structural assembly,
marker resolution, and lint/report.

State is persisted to .state.json in the output directory after every
phase, so an interrupted conversion resumes with --resume, a single phase
re-runs with --phase N, and --status shows per-phase progress.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-convert.yaml or ~/.config/pdf-convert/config.yaml)")

	rootCmd.Flags().BoolVar(&flagResume, "resume", false, "resume an interrupted conversion")
	rootCmd.Flags().IntVar(&flagPhase, "phase", -1, "re-run exactly one phase (0-10)")
	rootCmd.Flags().StringVar(&flagFromStep, "from-step", "", "re-run the pipeline starting at step \"phase.step\"")
	rootCmd.Flags().BoolVar(&flagStatus, "status", false, "show per-phase conversion status")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output directory (default: PDF path without extension)")
	rootCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "answer yes to confirmation prompts")
	rootCmd.Flags().BoolVar(&flagDiagnostics, "diagnostics", false, "write a diagnostic bundle after the final phase")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose status output (includes the run journal)")
	rootCmd.Flags().StringArrayVar(&flagGMKeywords, "gm-keyword", nil, "additional GM callout keyword (repeatable)")
	rootCmd.Flags().StringVar(&flagCalloutFile, "gm-callout-config-file", "", "callout definition file (JSON or YAML)")

	rootCmd.MarkFlagsMutuallyExclusive("resume", "phase", "from-step", "status")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf-convert")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf-convert"))
		}
	}

	viper.SetEnvPrefix("PDF_CONVERT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file and environment over the documented
// defaults.
func loadConfig() (types.ConvertConfig, error) {
	cfg := types.DefaultConvertConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, types.NewError(types.ErrFile, err, "invalid configuration in %s", viper.ConfigFileUsed())
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	orch := pipeline.New(phase.DefaultRegistry(), cfg, os.Stdout, os.Stdin, nil)
	opts := pipeline.Options{
		Output:            flagOutput,
		Yes:               flagYes,
		Diagnostics:       flagDiagnostics,
		GMKeywords:        flagGMKeywords,
		CalloutConfigFile: flagCalloutFile,
		Args:              os.Args[1:],
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The resume/phase/status modes take an output directory, not a PDF.
	// With no argument they fall back to the active-conversion pointer.
	dir := flagOutput
	if len(args) == 1 {
		dir = args[0]
	}

	switch {
	case flagStatus:
		return orch.Status(ctx, dir, flagVerbose)
	case flagResume:
		return orch.Resume(ctx, dir, opts)
	case cmd.Flags().Changed("phase"):
		return orch.RunSinglePhase(ctx, dir, flagPhase, opts)
	case flagFromStep != "":
		return orch.RunFromStep(ctx, dir, flagFromStep, opts)
	}

	if len(args) != 1 {
		return types.NewError(types.ErrFile, nil, "a source PDF is required").
			WithRemediation("usage: pdf-convert <pdf> [--output DIR]")
	}
	return orch.RunNew(ctx, args[0], opts)
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if ce, ok := err.(*types.ConvertError); ok && ce.Remediation != "" {
		fmt.Fprintf(os.Stderr, "try: %s\n", ce.Remediation)
	}
	os.Exit(types.ExitCodeOf(err))
}

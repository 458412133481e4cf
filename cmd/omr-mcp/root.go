package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ironsheep/omr-grader-mcp/internal/bubbles"
	"github.com/ironsheep/omr-grader-mcp/internal/config"
	"github.com/ironsheep/omr-grader-mcp/internal/grader"
	"github.com/ironsheep/omr-grader-mcp/internal/ocr"
	"github.com/ironsheep/omr-grader-mcp/internal/server"
)

// globalFlags override the environment configuration.
type globalFlags struct {
	layoutFile string
	multiMark  string
	debug      bool
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "omr-mcp",
		Short: "Grade photographed OMR answer sheets",
		Long: `omr-mcp grades photographed multiple-choice answer sheets.

Without a subcommand it runs as an MCP server on stdin/stdout, for use from
an MCP client. The grade subcommand grades one sheet from the command line.

Environment variables (also read from a .env file):
  OMR_MCP_LOG_LEVEL=debug      Enable debug logging
  OMR_LAYOUT_FILE              YAML bubble layout
  OMR_CANONICAL_WIDTH/HEIGHT   Normalized sheet size (600x800)
  OMR_DETECT_MAX_DIM           Longest side used for sheet detection (1000)
  OMR_GRAY_MODE                luma or lab
  OMR_MULTI_MARK               reject or multi
  OMR_FILL_THRESHOLD           Fill ratio above which a bubble is marked (0.4)
  OMR_OCR_LANGUAGE             Tesseract language for the header (eng)
  OMR_TESSDATA_PREFIX          Tesseract data directory`,
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(&flags)
		},
	}
	cmd.SetVersionTemplate(versionText())

	cmd.PersistentFlags().StringVar(&flags.layoutFile, "layout", "", "YAML bubble layout file (overrides OMR_LAYOUT_FILE)")
	cmd.PersistentFlags().StringVar(&flags.multiMark, "multi-mark", "", "Policy for rows with several marks: reject or multi")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCommand(&flags))
	cmd.AddCommand(newGradeCommand(&flags))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flags.layoutFile != "" {
		layout, err := config.LoadLayout(flags.layoutFile)
		if err != nil {
			return nil, err
		}
		cfg.LayoutFile = flags.layoutFile
		cfg.Layout = layout
		cfg.Header.Fraction = layout.HeaderFraction
	}
	if flags.multiMark != "" {
		mm, err := bubbles.ParseMultiMark(flags.multiMark)
		if err != nil {
			return nil, err
		}
		cfg.Bubbles.MultiMark = mm
	}
	if flags.debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newGrader(flags *globalFlags) (*config.Config, *grader.Grader, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	g, err := grader.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, g, nil
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}
}

func runServe(flags *globalFlags) error {
	cfg, g, err := newGrader(flags)
	if err != nil {
		return err
	}

	if cfg.Debug() {
		log.Printf("OMR MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		if cfg.LayoutFile != "" {
			log.Printf("Using layout %s", cfg.LayoutFile)
		}
	}

	if err := server.New(g, Version).Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionText())
		},
	}
}

func versionText() string {
	tess := ocr.Version()
	if tess == "" {
		tess = "not built in"
	}
	return fmt.Sprintf("omr-grader-mcp %s\n  Build time: %s\n  Git commit: %s\n  Tesseract: %s\n",
		Version, BuildTime, GitCommit, tess)
}

// Package main provides the hggcard binary entry point.
// hggcard writes the combine datacard of the H→γγ parametric-model fit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/hggcard/config"
	"github.com/c360studio/hggcard/export"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "hggcard"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var (
		g     globalFlags
		flags cardFlags
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Write the H→γγ parametric-model datacard",
		Long: `hggcard writes the combine datacard for the H→γγ parametric-model fit.

It reads the per-category signal templates (a ROOT file, or a YAML/JSON
yield map), picks the systematic uncertainties that apply to the chosen
era and categorisation, and writes the card as text. The same card can be
written as an xlsx workbook or JSON for review.

Without a subcommand it runs generate.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, g, &flags)
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.register(cmd)

	cmd.AddCommand(
		generateCmd(&g),
		watchCmd(&g),
		yieldsCmd(&g),
		systematicsCmd(&g),
		configCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func generateCmd(g *globalFlags) *cobra.Command {
	var flags cardFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the datacard once",
		Long: fmt.Sprintf(`Write the datacard once. The output format follows the file extension
(%s); xlsx and metrics files are written alongside when configured.`, strings.Join(export.Formats(), ", ")),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, *g, &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func watchCmd(g *globalFlags) *cobra.Command {
	var (
		flags cardFlags
		extra []string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the datacard whenever its inputs change",
		Long: `Write the datacard, then watch the config files, the yield file and the
systematics file and regenerate on every change until interrupted.
Extra paths may be doublestar globs.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, cmd, *g, &flags, extra)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&extra, "watch", nil, "Additional files or glob patterns to watch")
	return cmd
}

func yieldsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "yields <file>",
		Short: "Print the nominal signal yields per process and category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(g.logLevel)
			return printYields(cmd.OutOrStdout(), args[0], logger)
		},
	}
}

func systematicsCmd(g *globalFlags) *cobra.Command {
	var flags cardFlags
	cmd := &cobra.Command{
		Use:   "systematics",
		Short: "Print the systematic tables selected for the configured analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, *g, &flags, false)
			if err != nil {
				return err
			}
			return printSystematics(cmd.OutOrStdout(), cfg.Config, logger)
		},
	}
	flags.register(cmd)
	return cmd
}

func configCmd(g *globalFlags) *cobra.Command {
	var (
		flags cardFlags
		save  string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, or save it as a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, *g, &flags, false)
			if err != nil {
				return err
			}
			if save != "" {
				if err := cfg.SaveToFile(save); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", save)
				return nil
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg.Config); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&save, "save", "", "Write the effective configuration to this file")
	return cmd
}

func runGenerate(cmd *cobra.Command, g globalFlags, flags *cardFlags) error {
	cfg, logger, err := loadConfig(cmd, g, flags, true)
	if err != nil {
		return err
	}
	app := NewApp(cfg.Config, logger)
	_, err = app.Generate(cmd.Context())
	return err
}

func runWatch(ctx context.Context, cmd *cobra.Command, g globalFlags, flags *cardFlags, extra []string) error {
	cfg, logger, err := loadConfig(cmd, g, flags, true)
	if err != nil {
		return err
	}
	app := NewApp(cfg.Config, logger)
	return app.Watch(ctx, append(cfg.files, extra...), func() (*config.Config, error) {
		next, _, err := loadConfig(cmd, g, flags, true)
		if err != nil {
			return nil, err
		}
		return next.Config, nil
	})
}

// newLogger builds the stderr text logger.
func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

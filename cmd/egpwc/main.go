// Command egpwc runs the ground proximity warning engine against live
// cockpit discretes and bus data, and replays recorded flight scenarios.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sweeney/egpwc/internal/config"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "egpwc",
		Short:         "Enhanced ground proximity warning computer",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "TOML config file (defaults are built in)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&g.logFile, "log-file", "", "log file, rotated (overrides config)")

	root.AddCommand(
		newRunCmd(g),
		newReplayCmd(g),
		newVerifyCmd(),
		newPrintStateCmd(g),
	)
	return root
}

// load reads the config and applies the flag overrides.
func (g *globalFlags) load() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFile != "" {
		cfg.Log.File = g.logFile
	}
	return cfg, nil
}

// newLogger builds the daemon logger. The returned closer releases the log
// file, if any.
func newLogger(c config.Log, stderr io.Writer) (*log.Logger, io.Closer, error) {
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	w, closer := stderr, io.Closer(nopCloser{})
	if c.File != "" {
		lj := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
		}
		w, closer = lj, lj
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "egpwc",
	})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "egpwc: %v\n", err)
		os.Exit(1)
	}
}

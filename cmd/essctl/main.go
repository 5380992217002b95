// Command essctl talks to an ESS home battery on the local network.
//
// The appliance is found over mDNS by its name (or autodetected when no name
// is given), or addressed directly with --address. Settings come from
// essctl.yaml (in . or ~/.essctl), ESS_* environment variables and flags.
//
// Usage:
//
//	essctl [command] [flags]
//
// Examples:
//
//	# List every appliance on the network
//	essctl discover
//
//	# Show live power flow
//	essctl state home --name ABC1234567 --password secret
//
//	# Monthly PV graph as YAML
//	essctl graph pv month 2026-03-01 -o yaml
//
//	# Read the password while connected to the appliance Wi-Fi
//	essctl password
//
//	# Export Prometheus metrics for the appliance
//	essctl monitor --listen :9100 --interval 30s
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lgess-community/ess-go/pkg/config"
	"github.com/lgess-community/ess-go/pkg/log"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile      string
	outputFormat string

	v        = config.New()
	cfg      *config.Config
	logger   *slog.Logger
	protoLog log.Logger = log.NoopLogger{}

	closeProtoLog = func() error { return nil }
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "essctl",
	Short: "Control an ESS home battery over its local API",
	Long: `essctl is a command-line client for ESS home batteries.

It discovers appliances over mDNS, logs in with the appliance password and
reads state, graph data and switches battery operation. Expired sessions are
renewed transparently.

The appliance presents a self-signed certificate, so TLS verification is
disabled by default (--insecure=true).`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeProtoLog()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./essctl.yaml or ~/.essctl/essctl.yaml)")
	pf.StringVarP(&outputFormat, "output", "o", "json", "Output format: json or yaml")
	pf.String("name", "", "Appliance name (the part after LGE_ESS- in the mDNS instance)")
	pf.String("address", "", "Appliance address (host or host:port); skips discovery")
	pf.String("password", "", "Appliance password")
	pf.Bool("insecure", true, "Skip TLS certificate verification (the appliance certificate is self-signed)")
	pf.Duration("timeout", 0, "Per-request timeout (default 10s)")
	pf.String("interface", "", "Network interface for mDNS")
	pf.String("log-level", "", "Log level: debug, info, warn, error (default info)")
	pf.String("protocol-log", "", "Write protocol events to this file (CBOR)")

	for key, flag := range map[string]string{
		"name":                 "name",
		"address":              "address",
		"password":             "password",
		"insecure_skip_verify": "insecure",
		"timeout":              "timeout",
		"discovery.interface":  "interface",
		"log.level":            "log-level",
		"log.protocol_file":    "protocol-log",
	} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and builds the loggers.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if outputFormat != "json" && outputFormat != "yaml" {
		return fmt.Errorf("unknown output format %q (use json or yaml)", outputFormat)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if cfg.Log.ProtocolFile == "" {
		return nil
	}
	fl, err := log.NewFileLogger(cfg.Log.ProtocolFile)
	if err != nil {
		return fmt.Errorf("open protocol log: %w", err)
	}
	closeProtoLog = func() error {
		logger.Debug("protocol log closed", "path", fl.Path(), "events", fl.Written(), "dropped", fl.Dropped())
		return fl.Close()
	}
	if level <= slog.LevelDebug {
		protoLog = log.NewMultiLogger(fl, log.NewSlogAdapter(logger))
	} else {
		protoLog = fl
	}
	return nil
}

var errPasswordRequired = errors.New("password required (--password, ESS_PASSWORD or essctl.yaml)")

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "essctl", version)
	},
}

// Command ess-sim runs a simulated ESS appliance on the local network.
//
// It serves the appliance HTTPS API with a self-signed certificate and
// announces itself over mDNS as LGE_ESS-<name>, so essctl and other clients
// can be exercised without real hardware.
//
// Usage:
//
//	ess-sim [flags]
//
// Flags:
//
//	-name string          Appliance name (default "SIM0000001")
//	-password string      Login password (default "ess-sim-password")
//	-listen string        HTTPS listen address (default ":8443")
//	-hw-revision string   Hardware revision announced in TXT records (default "1.5")
//	-interface string     Network interface for mDNS (default all)
//	-advertise            Announce over mDNS (default true)
//	-expire-every dur     Invalidate all tokens periodically (default off)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start a simulator and query it
//	ess-sim -name ABC1234567 -password secret
//	essctl state home --name ABC1234567 --password secret
//
//	# Force re-login every 30 seconds
//	ess-sim -expire-every 30s -log-level debug
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lgess-community/ess-go/pkg/config"
	"github.com/lgess-community/ess-go/pkg/discovery"
	"github.com/lgess-community/ess-go/pkg/simulator"
)

// Config holds the simulator command configuration.
type Config struct {
	Name        string
	Password    string
	ListenAddr  string
	HWRevision  string
	Interface   string
	Advertise   bool
	ExpireEvery time.Duration
	LogLevel    string
	Shutdown    time.Duration
}

var cfg Config

func init() {
	flag.StringVar(&cfg.Name, "name", simulator.DefaultName, "Appliance name")
	flag.StringVar(&cfg.Password, "password", simulator.DefaultPassword, "Login password")
	flag.StringVar(&cfg.ListenAddr, "listen", ":8443", "HTTPS listen address")
	flag.StringVar(&cfg.HWRevision, "hw-revision", simulator.DefaultHWRevision, "Hardware revision announced in TXT records")
	flag.StringVar(&cfg.Interface, "interface", "", "Network interface for mDNS (default all)")
	flag.BoolVar(&cfg.Advertise, "advertise", true, "Announce over mDNS")
	flag.DurationVar(&cfg.ExpireEvery, "expire-every", 0, "Invalidate all tokens periodically (0 disables)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.DurationVar(&cfg.Shutdown, "graceful-shutdown", 5*time.Second, "Graceful shutdown timeout")
}

func main() {
	flag.Parse()

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := discovery.ValidateName(discovery.DeviceName(cfg.Name)); err != nil {
		logger.Error("Invalid configuration", "err", err)
		os.Exit(2)
	}

	if err := run(logger); err != nil {
		logger.Error("Simulator failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	sim := simulator.New(simulator.Config{
		Name:       cfg.Name,
		Password:   cfg.Password,
		HWRevision: cfg.HWRevision,
		Log:        logger,
	})

	hostname, _ := os.Hostname()
	srv, err := sim.Listen(simulator.ServerConfig{
		ListenAddr:               cfg.ListenAddr,
		Hosts:                    []string{hostname, "localhost", "127.0.0.1"},
		ReadTimeout:              10 * time.Second,
		WriteTimeout:             10 * time.Second,
		GracefulShutdownDuration: cfg.Shutdown,
	})
	if err != nil {
		return err
	}
	srv.RunInBackground()
	defer srv.Shutdown()

	logger.Info("ESS simulator",
		"name", cfg.Name,
		"instance", discovery.InstanceName(discovery.DeviceName(cfg.Name)),
		"port", srv.Port(),
	)

	if cfg.Advertise {
		adv, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{Interface: cfg.Interface})
		if err != nil {
			return err
		}
		err = adv.Advertise(&discovery.ApplianceInfo{
			Name:       discovery.DeviceName(cfg.Name),
			Port:       srv.Port(),
			HWRevision: cfg.HWRevision,
		})
		if err != nil {
			return err
		}
		defer adv.Stop()
		logger.Info("Advertising over mDNS", "service", discovery.ServiceType)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ExpireEvery > 0 {
		go expireTokens(ctx, sim, cfg.ExpireEvery, logger)
	}

	<-ctx.Done()
	logger.Info("Shutting down...")
	return nil
}

// expireTokens invalidates every session token each interval until ctx ends.
func expireTokens(ctx context.Context, sim *simulator.Simulator, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sim.ExpireTokens()
			logger.Debug("expired session tokens")
		}
	}
}

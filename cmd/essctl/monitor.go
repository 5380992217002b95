package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lgess-community/ess-go/pkg/api"
	"github.com/lgess-community/ess-go/pkg/discovery"
	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/metrics"
)

var (
	monitorListen     string
	monitorInterval   time.Duration
	monitorCategories []string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll appliance state and serve Prometheus metrics",
	Long: `Monitor logs in once, then polls the selected state categories on an
interval and exports every numeric value as ess_appliance_value. Session,
retry and discovery counters are exported as well.

When a poll fails on the transport or on authentication and the device name
is known, the appliance is resolved again and the session follows it to its
new address.

Metrics are served on http://<listen>/metrics.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorListen, "listen", ":9100", "Address to serve /metrics on")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 30*time.Second, "Polling interval")
	monitorCmd.Flags().StringSliceVar(&monitorCategories, "categories", []string{"home", "common"}, "State categories to poll")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorInterval <= 0 {
		return errors.New("interval must be positive")
	}
	categories := make([]api.Category, 0, len(monitorCategories))
	for _, s := range monitorCategories {
		c, err := api.ParseCategory(s)
		if err != nil {
			return err
		}
		categories = append(categories, c)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sessionMetrics = metrics.NewSession(reg)
	discoveryMetrics = metrics.NewDiscovery(reg)
	appliance := metrics.NewAppliance(reg)

	ctx := cmd.Context()
	client, err := connect(ctx)
	if err != nil {
		return err
	}
	logger.Info("monitoring appliance", "name", client.Name(), "session", describeSession(client))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              monitorListen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()
	logger.Info("serving metrics", "listen", monitorListen)

	browse := func() (discovery.Browser, error) { return newBrowser() }
	poll := func() {
		relocated := false
		for _, c := range categories {
			doc, err := client.GetState(ctx, c)
			appliance.RecordPoll(string(c), err)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("poll failed", "category", c, "err", err)
				}
				if !relocated {
					relocated = relocate(ctx, client, err, browse)
				}
				continue
			}
			n := appliance.SetValues(string(c), doc)
			logger.Debug("polled", "category", c, "values", n)
		}
	}

	poll()
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case <-ticker.C:
			poll()
		}
	}
}

// relocate re-resolves the appliance by name after a poll failed on the
// transport or on authentication, so a monitor follows an appliance that
// moved to a new address. It reports whether resolution succeeded.
func relocate(ctx context.Context, client *api.Client, pollErr error, browse func() (discovery.Browser, error)) bool {
	if ctx.Err() != nil || client.Name() == "" {
		return false
	}
	if !errors.Is(pollErr, esserr.ErrTransport) && !errors.Is(pollErr, esserr.ErrAuth) {
		return false
	}

	browser, err := browse()
	if err != nil {
		logger.Warn("re-resolve failed", "name", client.Name(), "err", err)
		return false
	}
	before := client.Session()
	if err := client.UpdateAddress(ctx, browser); err != nil {
		logger.Warn("re-resolve failed", "name", client.Name(), "err", err)
		return false
	}
	if client.Session() != before {
		logger.Info("appliance moved", "name", client.Name(), "session", describeSession(client))
	} else {
		logger.Debug("appliance address unchanged", "name", client.Name())
	}
	return true
}

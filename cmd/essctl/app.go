package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lgess-community/ess-go/pkg/api"
	"github.com/lgess-community/ess-go/pkg/discovery"
	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/metrics"
	"github.com/lgess-community/ess-go/pkg/session"
)

// Collectors, set by the monitor command. Nil collectors record nothing.
var (
	sessionMetrics   *metrics.Session
	discoveryMetrics *metrics.Discovery
)

func newBrowser() (*discovery.MDNSBrowser, error) {
	bc := cfg.BrowserConfig()
	bc.Logger = logger
	bc.ProtocolLogger = protoLog
	bc.Metrics = discoveryMetrics
	return discovery.NewMDNSBrowser(bc)
}

func sessionOptions() []session.Option {
	return append(cfg.SessionOptions(),
		session.WithLogger(logger),
		session.WithProtocolLogger(protoLog),
		session.WithMetrics(sessionMetrics),
	)
}

// connect logs in to the configured appliance. With an address, discovery is
// skipped; without a name, the first appliance found is used.
func connect(ctx context.Context) (*api.Client, error) {
	if cfg.Password == "" {
		return nil, esserr.InvalidArgument("connect", errPasswordRequired)
	}

	if cfg.Address != "" {
		c, err := api.ConnectAddress(ctx, cfg.Address, cfg.Password, sessionOptions()...)
		if err != nil {
			return nil, err
		}
		if cfg.Name != "" {
			if err := c.SetName(discovery.DeviceName(cfg.Name)); err != nil {
				return nil, err
			}
		}
		return c, nil
	}

	browser, err := newBrowser()
	if err != nil {
		return nil, err
	}

	name := discovery.DeviceName(cfg.Name)
	if name == "" {
		adv, err := api.Autodetect(ctx, browser)
		if err != nil {
			return nil, err
		}
		name = adv.Name
		logger.Info("autodetected appliance", "name", name, "address", adv.Address)
	}
	return api.Connect(ctx, browser, name, cfg.Password, sessionOptions()...)
}

// advertisementView is the rendered form of a discovery result.
type advertisementView struct {
	Name       string   `json:"name" yaml:"name"`
	Instance   string   `json:"instance" yaml:"instance"`
	Address    string   `json:"address" yaml:"address"`
	Port       uint16   `json:"port" yaml:"port"`
	Host       string   `json:"host,omitempty" yaml:"host,omitempty"`
	Addresses  []string `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	Device     string   `json:"device,omitempty" yaml:"device,omitempty"`
	HWRevision string   `json:"hw_revision,omitempty" yaml:"hw_revision,omitempty"`
}

func newAdvertisementView(adv *discovery.ServiceAdvertisement) advertisementView {
	view := advertisementView{
		Name:       adv.Name.String(),
		Instance:   adv.ServiceName,
		Port:       adv.Port,
		Host:       adv.Host,
		Device:     adv.Device,
		HWRevision: adv.HWRevision,
	}
	if adv.Address != nil {
		view.Address = adv.Address.String()
	}
	for _, ip := range adv.Addresses {
		view.Addresses = append(view.Addresses, ip.String())
	}
	return view
}

// render writes v to w in the selected output format.
func render(w io.Writer, v any) error {
	switch outputFormat {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// hostOnly strips a port from addr for display.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

func describeSession(c *api.Client) string {
	s := c.Session()
	tok := string(s.Token())
	if len(tok) > 8 {
		tok = tok[:8] + "..."
	}
	return fmt.Sprintf("address=%s state=%s token=%s", hostOnly(s.Address()), s.State(), tok)
}

package discovery

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/lgess-community/ess-go/pkg/log"
	"github.com/lgess-community/ess-go/pkg/metrics"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type announced by the appliance.
	ServiceType = "_pmsctrl._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// InstancePrefix precedes the device name in every instance label.
	InstancePrefix = "LGE_ESS-"

	// DefaultPort is the HTTPS port of the appliance API.
	DefaultPort = 443

	// MaxInstanceNameLen is the DNS label limit for the instance label.
	MaxInstanceNameLen = 63
)

// TXT record keys and values announced by the appliance.
const (
	TXTKeyDevice     = "Device"
	TXTKeyHWRevision = "HWRevison" // sic, as sent by the firmware

	// DeviceTypeESS is the Device value of a genuine appliance.
	DeviceTypeESS = "LGEESS"
)

// Timing constants.
const (
	// ResolveTimeout bounds a single-instance lookup.
	ResolveTimeout = 5 * time.Second

	// ListenWindow is how long DiscoverAll collects answers.
	ListenWindow = 3 * time.Second
)

// Operation names used in metrics and protocol events.
const (
	OpResolve = "resolve"
	OpBrowse  = "browse"
)

// DeviceName is the identity of one appliance, without the instance prefix.
type DeviceName string

func (n DeviceName) String() string { return string(n) }

// ServiceAdvertisement is the resolved record of one appliance.
// A fresh value is built on every resolution.
type ServiceAdvertisement struct {
	// Address is the first IPv4 address of the appliance, nil if it only
	// answered over IPv6.
	Address net.IP

	// ServiceName is the fully qualified instance name.
	ServiceName string

	// Name is the device identity extracted from the instance name.
	Name DeviceName

	// Host is the mDNS host name (e.g. "LGE_ESS-xyz.local.").
	Host string

	// Port is the advertised service port.
	Port uint16

	// Addresses holds every address seen for the instance, IPv4 first.
	Addresses []net.IP

	// Device and HWRevision are decoded from the TXT records.
	Device     string
	HWRevision string
}

// Browser resolves appliances by name and enumerates all of them.
type Browser interface {
	// Resolve looks up the appliance called name and returns its
	// advertisement. Fails with a NotFound error when nothing answers within
	// ResolveTimeout or the context deadline, whichever is earlier.
	Resolve(ctx context.Context, name DeviceName) (*ServiceAdvertisement, error)

	// DiscoverAll listens for ListenWindow and returns every appliance seen,
	// sorted by name. Fails with a NotFound error when the set is empty.
	DiscoverAll(ctx context.Context) ([]*ServiceAdvertisement, error)
}

// Entry is one mDNS answer as consumed by the browser.
type Entry struct {
	Instance string
	HostName string
	Port     int
	Text     []string
	AddrIPv4 []net.IP
	AddrIPv6 []net.IP

	// Removed is set when the answer announces the instance going away
	// (TTL 0) on one interface.
	Removed bool
}

// BrowseFunc streams answers for service in domain into found until ctx is
// done. It must not send on found after returning.
type BrowseFunc func(ctx context.Context, service, domain string, found chan<- *Entry) error

// LookupFunc streams answers for one instance of service in domain into
// found until ctx is done. It must not send on found after returning.
type LookupFunc func(ctx context.Context, instance, service, domain string, found chan<- *Entry) error

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// ResolveTimeout overrides the default ResolveTimeout.
	ResolveTimeout time.Duration

	// ListenWindow overrides the default ListenWindow.
	ListenWindow time.Duration

	// Browse replaces the zeroconf service browse used by DiscoverAll.
	// Set this in tests to inject canned answers.
	Browse BrowseFunc

	// Lookup replaces the zeroconf instance query used by Resolve.
	Lookup LookupFunc

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// ProtocolLogger receives discovery events. Default: none.
	ProtocolLogger log.Logger

	// Metrics records query outcomes. Optional.
	Metrics *metrics.Discovery
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		ResolveTimeout: ResolveTimeout,
		ListenWindow:   ListenWindow,
	}
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface restricts advertising to one interface. Empty means all.
	Interface string

	// TTL is the record TTL. Zero uses the zeroconf default.
	TTL time.Duration
}

// ApplianceInfo is the data an advertiser announces for one appliance.
type ApplianceInfo struct {
	Name       DeviceName
	Port       uint16
	HWRevision string
}

package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/log"
)

// MDNSBrowser implements the Browser interface using zeroconf.
// It holds no multicast state between calls and is safe for concurrent use.
type MDNSBrowser struct {
	config BrowserConfig
	logger *slog.Logger
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) (*MDNSBrowser, error) {
	if config.Interface != "" {
		if _, err := net.InterfaceByName(config.Interface); err != nil {
			return nil, esserr.InvalidArgument("new browser", fmt.Errorf("interface %q: %w", config.Interface, err))
		}
	}
	if config.ResolveTimeout <= 0 {
		config.ResolveTimeout = ResolveTimeout
	}
	if config.ListenWindow <= 0 {
		config.ListenWindow = ListenWindow
	}
	if config.Browse == nil {
		config.Browse = zeroconfBrowse(config.Interface)
	}
	if config.Lookup == nil {
		config.Lookup = zeroconfLookup(config.Interface)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MDNSBrowser{config: config, logger: logger}, nil
}

// Resolve queries the instance LGE_ESS-<name> directly. Responders match the
// instance name exactly, so name must use the appliance's own spelling.
func (b *MDNSBrowser) Resolve(ctx context.Context, name DeviceName) (adv *ServiceAdvertisement, err error) {
	const op = "resolve"

	if err := ValidateName(name); err != nil {
		return nil, esserr.InvalidArgument(op, err)
	}
	defer func() { b.config.Metrics.RecordQuery(OpResolve, err) }()

	want := InstanceName(name)
	sess := b.openSession(ctx, b.config.ResolveTimeout, func(qctx context.Context, found chan<- *Entry) error {
		return b.config.Lookup(qctx, want, ServiceType, Domain, found)
	})
	defer sess.Close()

	for entry := range sess.entries {
		if entry.Removed || !strings.EqualFold(entry.Instance, want) || len(entry.AddrIPv4) == 0 {
			continue
		}
		adv := b.toAdvertisement(entry, name)
		b.logger.Debug("resolved appliance", "name", name, "address", adv.Address)
		b.logDiscovery(OpResolve, want, adv.Addresses, 1)
		return adv, nil
	}

	if err := sess.failure(ctx); err != nil {
		return nil, err
	}
	b.logDiscovery(OpResolve, want, nil, 0)
	return nil, esserr.NotFound(op, fmt.Errorf("no answer for %s within %s", FullInstanceName(name), b.config.ResolveTimeout))
}

// DiscoverAll collects every appliance answering within the listen window.
// Answers from several interfaces for the same instance are merged.
func (b *MDNSBrowser) DiscoverAll(ctx context.Context) (result []*ServiceAdvertisement, err error) {
	const op = "discover"

	defer func() {
		b.config.Metrics.RecordQuery(OpBrowse, err)
		b.config.Metrics.SetDiscovered(len(result))
	}()

	sess := b.openSession(ctx, b.config.ListenWindow, func(qctx context.Context, found chan<- *Entry) error {
		return b.config.Browse(qctx, ServiceType, Domain, found)
	})
	defer sess.Close()

	// Track services by instance name, aggregating addresses
	services := make(map[string]*ServiceAdvertisement)

	for entry := range sess.entries {
		if entry.Removed {
			if existing, found := services[entry.Instance]; found {
				existing.Addresses = removeAddresses(existing.Addresses, entry)
				if len(existing.Addresses) == 0 {
					delete(services, entry.Instance)
				}
				existing.Address = firstIPv4(existing.Addresses)
			}
			continue
		}

		name, err := ExtractName(entry.Instance)
		if err != nil {
			b.logger.Warn("malformed appliance instance", "instance", entry.Instance, "error", err)
			return nil, err
		}

		svc := b.toAdvertisement(entry, name)
		if existing, found := services[entry.Instance]; found {
			existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
			existing.Address = firstIPv4(existing.Addresses)
			continue
		}
		services[entry.Instance] = svc
	}

	if err := sess.failure(ctx); err != nil {
		return nil, err
	}

	result = make([]*ServiceAdvertisement, 0, len(services))
	for _, svc := range services {
		result = append(result, svc)
	}
	slices.SortFunc(result, func(a, b *ServiceAdvertisement) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})

	b.logger.Debug("browse finished", "count", len(result))
	b.logDiscovery(OpBrowse, "", nil, len(result))

	if len(result) == 0 {
		return nil, esserr.NotFound(op, fmt.Errorf("no %s instance answered within %s", ServiceType, b.config.ListenWindow))
	}
	return result, nil
}

// toAdvertisement converts an answer into a ServiceAdvertisement.
func (b *MDNSBrowser) toAdvertisement(entry *Entry, name DeviceName) *ServiceAdvertisement {
	device, rev := DecodeApplianceTXT(StringsToTXTRecords(entry.Text))

	addrs := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	addrs = append(addrs, entry.AddrIPv4...)
	addrs = append(addrs, entry.AddrIPv6...)

	return &ServiceAdvertisement{
		Address:     firstIPv4(addrs),
		ServiceName: FullInstanceName(name),
		Name:        name,
		Host:        entry.HostName,
		Port:        uint16(entry.Port),
		Addresses:   addrs,
		Device:      device,
		HWRevision:  rev,
	}
}

func (b *MDNSBrowser) logDiscovery(operation, instance string, addrs []net.IP, count int) {
	if b.config.ProtocolLogger == nil {
		return
	}
	strs := make([]string, 0, len(addrs))
	for _, ip := range addrs {
		strs = append(strs, ip.String())
	}
	b.config.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerDiscovery,
		Category:  log.CategoryDiscovery,
		Discovery: &log.DiscoveryEvent{
			Operation: operation,
			Instance:  instance,
			Addresses: strs,
			Count:     count,
		},
	})
}

// discoverySession is one bounded mDNS query. Entries is closed once the
// query has stopped.
type discoverySession struct {
	entries <-chan *Entry
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// query runs one mDNS query, sending answers to found until ctx ends.
type query func(ctx context.Context, found chan<- *Entry) error

// openSession starts q bounded by window and ctx.
func (b *MDNSBrowser) openSession(ctx context.Context, window time.Duration, q query) *discoverySession {
	qctx, cancel := context.WithTimeout(ctx, window)
	entries := make(chan *Entry)
	s := &discoverySession{
		entries: entries,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(entries)
		err := q(qctx, entries)
		if err != nil && qctx.Err() == nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()

	return s
}

// Close stops the query and waits for it to release its sockets.
func (s *discoverySession) Close() {
	s.cancel()
	// Drain so a sender blocked mid-answer can observe cancellation.
	for range s.entries {
	}
	<-s.done
}

// failure reports why the session ended early, if it did.
func (s *discoverySession) failure(parent context.Context) error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return esserr.Transport("mdns query", err)
	}
	if errors.Is(parent.Err(), context.Canceled) {
		return parent.Err()
	}
	return nil
}

// zeroconfBrowse returns a BrowseFunc backed by zeroconf.Browse.
func zeroconfBrowse(ifaceName string) BrowseFunc {
	return func(ctx context.Context, service, domain string, found chan<- *Entry) error {
		entries := make(chan *zeroconf.ServiceEntry)
		removed := make(chan *zeroconf.ServiceEntry)
		done := make(chan error, 1)
		go func() {
			done <- zeroconf.Browse(ctx, service, domain, entries, removed, clientOptions(ifaceName)...)
		}()
		return forwardEntries(ctx, entries, removed, done, found)
	}
}

// zeroconfLookup returns a LookupFunc backed by zeroconf.Lookup.
func zeroconfLookup(ifaceName string) LookupFunc {
	return func(ctx context.Context, instance, service, domain string, found chan<- *Entry) error {
		entries := make(chan *zeroconf.ServiceEntry)
		done := make(chan error, 1)
		go func() {
			done <- zeroconf.Lookup(ctx, instance, service, domain, entries, clientOptions(ifaceName)...)
		}()
		return forwardEntries(ctx, entries, nil, done, found)
	}
}

func clientOptions(ifaceName string) []zeroconf.ClientOption {
	if ifaceName == "" {
		return nil
	}
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil
	}
	return []zeroconf.ClientOption{zeroconf.SelectIfaces([]net.Interface{*iface})}
}

// forwardEntries converts zeroconf answers until the query returns. A nil
// removed channel is never selected.
func forwardEntries(ctx context.Context, entries, removed <-chan *zeroconf.ServiceEntry, done <-chan error, found chan<- *Entry) error {
	forward := func(e *Entry) {
		select {
		case found <- e:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			forward(fromZeroconf(entry, false))
		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			forward(fromZeroconf(entry, true))
		case err := <-done:
			return err
		}
	}
}

func fromZeroconf(entry *zeroconf.ServiceEntry, removed bool) *Entry {
	return &Entry{
		Instance: entry.Instance,
		HostName: entry.HostName,
		Port:     entry.Port,
		Text:     entry.Text,
		AddrIPv4: entry.AddrIPv4,
		AddrIPv6: entry.AddrIPv6,
		Removed:  removed,
	}
}

func firstIPv4(addrs []net.IP) net.IP {
	for _, ip := range addrs {
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
// IPv4 addresses stay ahead of IPv6 ones.
func mergeAddresses(existing, add []net.IP) []net.IP {
	seen := make(map[string]bool, len(existing))
	for _, ip := range existing {
		seen[ip.String()] = true
	}

	for _, ip := range add {
		if !seen[ip.String()] {
			existing = append(existing, ip)
			seen[ip.String()] = true
		}
	}
	slices.SortStableFunc(existing, func(a, b net.IP) int {
		return boolRank(a.To4() == nil) - boolRank(b.To4() == nil)
	})
	return existing
}

// removeAddresses removes the addresses of entry from the list.
func removeAddresses(addresses []net.IP, entry *Entry) []net.IP {
	toRemove := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		toRemove[ip.String()] = true
	}

	result := make([]net.IP, 0, len(addresses))
	for _, ip := range addresses {
		if !toRemove[ip.String()] {
			result = append(result, ip)
		}
	}
	return result
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure MDNSBrowser implements Browser interface.
var _ Browser = (*MDNSBrowser)(nil)

package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"

	"github.com/lgess-community/ess-go/pkg/esserr"
)

// MDNSAdvertiser announces a single appliance instance using zeroconf.
// It is used by the simulator to stand in for a real appliance.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
	name   DeviceName
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) (*MDNSAdvertiser, error) {
	if config.Interface != "" {
		if _, err := net.InterfaceByName(config.Interface); err != nil {
			return nil, esserr.InvalidArgument("new advertiser", fmt.Errorf("interface %q: %w", config.Interface, err))
		}
	}
	return &MDNSAdvertiser{config: config}, nil
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts announcing info. A previous announcement is replaced.
func (a *MDNSAdvertiser) Advertise(info *ApplianceInfo) error {
	const op = "advertise"

	if err := ValidateName(info.Name); err != nil {
		return esserr.InvalidArgument(op, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Stop existing if any
	a.stopLocked()

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		InstanceName(info.Name),
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeApplianceTXT(info)),
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return esserr.Transport(op, fmt.Errorf("failed to register %s: %w", InstanceName(info.Name), err))
	}

	a.server = server
	a.name = info.Name
	return nil
}

// Advertised returns the currently announced name, empty if none.
func (a *MDNSAdvertiser) Advertised() DeviceName {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// Stop withdraws the announcement. Calling Stop without an active
// announcement is a no-op.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *MDNSAdvertiser) stopLocked() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.name = ""
	}
}

// Package discovery finds ESS appliances on the local network via mDNS/DNS-SD.
//
// Appliances announce themselves under a single service type:
//
// # Service (_pmsctrl._tcp)
//
// Instance name format: LGE_ESS-<name>, where <name> is the device identity
// printed on the appliance (usually its serial). The fully qualified form is
// LGE_ESS-<name>._pmsctrl._tcp.local.
//
// TXT records include: Device (always "LGEESS") and HWRevison (hardware
// revision; the key is misspelled by the firmware and must be kept as is).
//
// # Resolution
//
// Resolve sends a point query for one instance name and returns its first
// IPv4 address.
// DiscoverAll listens for a fixed window and returns every appliance that
// answered. Each call opens its own short-lived mDNS session and closes it
// before returning, so no multicast state survives between calls.
package discovery

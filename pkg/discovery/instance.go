package discovery

import (
	"fmt"
	"slices"
	"strings"

	"github.com/miekg/dns"

	"github.com/lgess-community/ess-go/pkg/esserr"
)

// serviceLabels are the labels following the instance label in a fully
// qualified instance name.
var serviceLabels = append(dns.SplitDomainName(ServiceType), Domain)

// InstanceName returns the instance label for name: "LGE_ESS-<name>".
func InstanceName(name DeviceName) string {
	return InstancePrefix + string(name)
}

// FullInstanceName returns the fully qualified instance name:
// "LGE_ESS-<name>._pmsctrl._tcp.local.".
func FullInstanceName(name DeviceName) string {
	return dns.Fqdn(InstanceName(name) + "." + ServiceType + "." + Domain)
}

// ValidateName checks that name can be used as an instance label.
func ValidateName(name DeviceName) error {
	s := string(name)
	if s == "" {
		return fmt.Errorf("empty device name")
	}
	if strings.ContainsAny(s, ". \t\r\n") {
		return fmt.Errorf("device name %q is not a single DNS label", s)
	}
	if labels, ok := dns.IsDomainName(s); !ok || labels != 1 {
		return fmt.Errorf("device name %q is not a valid DNS label", s)
	}
	if len(InstanceName(name)) > MaxInstanceNameLen {
		return fmt.Errorf("instance name for %q exceeds %d octets", s, MaxInstanceNameLen)
	}
	return nil
}

// ExtractName recovers the device name from an instance name.
//
// It accepts the fully qualified form "LGE_ESS-<name>._pmsctrl._tcp.local."
// and the bare instance label "LGE_ESS-<name>" that mDNS libraries report.
// Anything else is a Protocol error.
func ExtractName(raw string) (DeviceName, error) {
	const op = "extract name"

	label := raw
	if strings.Contains(raw, ".") {
		labels := dns.SplitDomainName(raw)
		if !dns.IsFqdn(raw) || len(labels) != len(serviceLabels)+1 || !slices.Equal(labels[1:], serviceLabels) {
			return "", esserr.Protocol(op, fmt.Errorf("unexpected instance name %q", raw))
		}
		label = labels[0]
	}

	name, ok := strings.CutPrefix(label, InstancePrefix)
	if !ok {
		return "", esserr.Protocol(op, fmt.Errorf("instance %q lacks prefix %q", raw, InstancePrefix))
	}
	if err := ValidateName(DeviceName(name)); err != nil {
		return "", esserr.Protocol(op, err)
	}
	return DeviceName(name), nil
}

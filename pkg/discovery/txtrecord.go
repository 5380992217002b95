package discovery

import (
	"fmt"
	"slices"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeApplianceTXT creates the TXT records an appliance announces.
func EncodeApplianceTXT(info *ApplianceInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyDevice: DeviceTypeESS,
	}
	if info.HWRevision != "" {
		txt[TXTKeyHWRevision] = info.HWRevision
	}
	return txt
}

// DecodeApplianceTXT extracts the device type and hardware revision.
// Missing keys decode as empty strings; appliances are identified by their
// instance name, not by TXT content.
func DecodeApplianceTXT(txt TXTRecordMap) (device, hwRevision string) {
	return txt[TXTKeyDevice], txt[TXTKeyHWRevision]
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings,
// sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

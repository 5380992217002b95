package discovery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lgess-community/ess-go/pkg/discovery"
)

func TestApplianceTXT(t *testing.T) {
	txt := discovery.EncodeApplianceTXT(&discovery.ApplianceInfo{Name: "garage", HWRevision: "1.5"})

	assert.Equal(t, []string{"Device=LGEESS", "HWRevison=1.5"}, discovery.TXTRecordsToStrings(txt))

	device, rev := discovery.DecodeApplianceTXT(discovery.StringsToTXTRecords([]string{"Device=LGEESS", "HWRevison=1.5"}))
	assert.Equal(t, discovery.DeviceTypeESS, device)
	assert.Equal(t, "1.5", rev)
}

func TestApplianceTXTMissingKeys(t *testing.T) {
	device, rev := discovery.DecodeApplianceTXT(discovery.StringsToTXTRecords(nil))
	assert.Empty(t, device)
	assert.Empty(t, rev)
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := discovery.StringsToTXTRecords([]string{"a=1", "flag", "b=x=y", ""})

	assert.Equal(t, discovery.TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

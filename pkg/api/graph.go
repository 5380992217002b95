package api

import (
	"context"
	"fmt"
	"time"

	"github.com/lgess-community/ess-go/pkg/esserr"
)

// GraphDevice is the energy flow a graph is drawn for.
type GraphDevice string

// Graph devices.
const (
	GraphBatt GraphDevice = "batt"
	GraphLoad GraphDevice = "load"
	GraphPV   GraphDevice = "pv"
)

// Timespan is the resolution of a graph.
type Timespan string

// Graph timespans.
const (
	TimespanDay   Timespan = "day"
	TimespanWeek  Timespan = "week"
	TimespanMonth Timespan = "month"
	TimespanYear  Timespan = "year"
)

type graphParam struct {
	key    string
	layout string
}

var graphParams = map[Timespan]graphParam{
	TimespanDay:   {key: "year_month_day", layout: "20060102"},
	TimespanWeek:  {key: "year_month_day", layout: "20060102"},
	TimespanMonth: {key: "year_month", layout: "200601"},
	TimespanYear:  {key: "year", layout: "2006"},
}

// ParseGraphDevice validates s as a graph device.
func ParseGraphDevice(s string) (GraphDevice, error) {
	switch d := GraphDevice(s); d {
	case GraphBatt, GraphLoad, GraphPV:
		return d, nil
	default:
		return "", esserr.InvalidArgument("parse graph device", fmt.Errorf("unknown graph device %q", s))
	}
}

// ParseTimespan validates s as a graph timespan.
func ParseTimespan(s string) (Timespan, error) {
	t := Timespan(s)
	if _, ok := graphParams[t]; !ok {
		return "", esserr.InvalidArgument("parse timespan", fmt.Errorf("unknown timespan %q", s))
	}
	return t, nil
}

// GraphPath returns the endpoint for device and timespan.
func GraphPath(device GraphDevice, timespan Timespan) string {
	return fmt.Sprintf("/v1/user/graph/%s/%s", device, timespan)
}

// GraphPayload returns the extra request fields selecting date.
func GraphPayload(timespan Timespan, date time.Time) (map[string]any, error) {
	p, ok := graphParams[timespan]
	if !ok {
		return nil, esserr.InvalidArgument("graph payload", fmt.Errorf("unknown timespan %q", timespan))
	}
	return map[string]any{p.key: date.Format(p.layout)}, nil
}

// GetGraph fetches graph data for device over timespan around date.
func (c *Client) GetGraph(ctx context.Context, device GraphDevice, timespan Timespan, date time.Time) (Document, error) {
	if _, err := ParseGraphDevice(string(device)); err != nil {
		return nil, err
	}
	extra, err := GraphPayload(timespan, date)
	if err != nil {
		return nil, err
	}

	resp, err := c.Session().AuthenticatedRequest(ctx, GraphPath(device, timespan), extra)
	if err != nil {
		return nil, err
	}
	return decodeDocument(resp)
}

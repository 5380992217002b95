package api

import (
	"context"
	"fmt"

	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/session"
)

// Document is a decoded JSON answer. The appliance reports every value as a
// string.
type Document map[string]any

// Category selects a state document.
type Category string

// State categories.
const (
	CategoryNetwork    Category = "network"
	CategorySystemInfo Category = "systeminfo"
	CategoryBatt       Category = "batt"
	CategoryHome       Category = "home"
	CategoryCommon     Category = "common"
)

var statePaths = map[Category]string{
	CategoryNetwork:    "/v1/user/setting/network",
	CategorySystemInfo: "/v1/user/setting/systeminfo",
	CategoryBatt:       "/v1/user/setting/batt",
	CategoryHome:       "/v1/user/essinfo/home",
	CategoryCommon:     "/v1/user/essinfo/common",
}

// Categories returns all state categories in display order.
func Categories() []Category {
	return []Category{CategoryNetwork, CategorySystemInfo, CategoryBatt, CategoryHome, CategoryCommon}
}

// ParseCategory validates s as a state category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := statePaths[c]; !ok {
		return "", esserr.InvalidArgument("parse category", fmt.Errorf("unknown state category %q", s))
	}
	return c, nil
}

// StatePath returns the endpoint of category c.
func StatePath(c Category) (string, error) {
	p, ok := statePaths[c]
	if !ok {
		return "", esserr.InvalidArgument("state path", fmt.Errorf("unknown state category %q", c))
	}
	return p, nil
}

// GetState fetches the state document of category c.
func (c *Client) GetState(ctx context.Context, category Category) (Document, error) {
	path, err := StatePath(category)
	if err != nil {
		return nil, err
	}
	resp, err := c.Session().AuthenticatedRequest(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeDocument(resp)
}

// GetNetwork returns the network settings.
func (c *Client) GetNetwork(ctx context.Context) (Document, error) {
	return c.GetState(ctx, CategoryNetwork)
}

// GetSystemInfo returns the system information.
func (c *Client) GetSystemInfo(ctx context.Context) (Document, error) {
	return c.GetState(ctx, CategorySystemInfo)
}

// GetBatt returns the battery settings.
func (c *Client) GetBatt(ctx context.Context) (Document, error) {
	return c.GetState(ctx, CategoryBatt)
}

// GetHome returns the live home power flow.
func (c *Client) GetHome(ctx context.Context) (Document, error) {
	return c.GetState(ctx, CategoryHome)
}

// GetCommon returns the common operating values.
func (c *Client) GetCommon(ctx context.Context) (Document, error) {
	return c.GetState(ctx, CategoryCommon)
}

func decodeDocument(resp *session.Response) (Document, error) {
	m, err := resp.Map()
	if err != nil {
		return nil, err
	}
	return Document(m), nil
}

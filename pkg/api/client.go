package api

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/lgess-community/ess-go/pkg/discovery"
	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/session"
)

// Client talks to one appliance.
//
// The address is fixed between calls to UpdateAddress; requests never
// trigger re-resolution.
type Client struct {
	mu   sync.RWMutex
	sess *session.Session
	adv  *discovery.ServiceAdvertisement

	name     discovery.DeviceName
	password string
	opts     []session.Option
}

// Connect resolves name with browser, then logs in with password.
func Connect(ctx context.Context, browser discovery.Browser, name discovery.DeviceName, password string, opts ...session.Option) (*Client, error) {
	adv, err := browser.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	c := &Client{name: name, password: password, opts: opts}
	if err := c.attach(ctx, name, adv); err != nil {
		return nil, err
	}
	return c, nil
}

// ConnectAddress logs in to the appliance at address (host or host:port)
// without discovery. UpdateAddress is not available on such a client unless
// it is given a name with SetName.
func ConnectAddress(ctx context.Context, address, password string, opts ...session.Option) (*Client, error) {
	sess, err := session.New(address, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Login(ctx, password); err != nil {
		return nil, err
	}
	return &Client{sess: sess, password: password, opts: opts}, nil
}

// Autodetect browses for appliances and returns the first one by name.
func Autodetect(ctx context.Context, browser discovery.Browser) (*discovery.ServiceAdvertisement, error) {
	all, err := browser.DiscoverAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, esserr.NotFound("autodetect", fmt.Errorf("no %s instance answered", discovery.ServiceType))
	}
	return all[0], nil
}

// UpdateAddress re-resolves the appliance and, when the address changed,
// replaces the session with a freshly logged-in one. The old session is kept
// if anything fails.
func (c *Client) UpdateAddress(ctx context.Context, browser discovery.Browser) error {
	c.mu.RLock()
	name := c.name
	current := c.sess.Address()
	c.mu.RUnlock()

	if name == "" {
		return esserr.InvalidArgument("update address", fmt.Errorf("client has no device name"))
	}

	adv, err := browser.Resolve(ctx, name)
	if err != nil {
		return err
	}
	if addressOf(adv) == current {
		c.mu.Lock()
		c.adv = adv
		c.mu.Unlock()
		return nil
	}
	return c.attach(ctx, name, adv)
}

// SetName records the device name used by UpdateAddress.
func (c *Client) SetName(name discovery.DeviceName) error {
	if err := discovery.ValidateName(name); err != nil {
		return err
	}
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
	return nil
}

// attach builds a session for adv, resolved for name, and logs in before
// swapping it in.
func (c *Client) attach(ctx context.Context, name discovery.DeviceName, adv *discovery.ServiceAdvertisement) error {
	if adv == nil || adv.Address == nil {
		return esserr.NotFound("connect", fmt.Errorf("advertisement for %q has no IPv4 address", name))
	}

	opts := append([]session.Option{session.WithDeviceName(string(adv.Name))}, c.opts...)
	sess, err := session.New(addressOf(adv), opts...)
	if err != nil {
		return err
	}
	if _, err := sess.Login(ctx, c.password); err != nil {
		return err
	}

	c.mu.Lock()
	c.sess = sess
	c.adv = adv
	c.mu.Unlock()
	return nil
}

// Session returns the current session.
func (c *Client) Session() *session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// Advertisement returns the advertisement the session was built from, nil
// for clients created with ConnectAddress.
func (c *Client) Advertisement() *discovery.ServiceAdvertisement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adv
}

// Name returns the device name, empty if unknown.
func (c *Client) Name() discovery.DeviceName {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// addressOf returns host or host:port for adv. The default port is implied.
func addressOf(adv *discovery.ServiceAdvertisement) string {
	host := adv.Address.String()
	if adv.Port == 0 || adv.Port == discovery.DefaultPort {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(int(adv.Port)))
}

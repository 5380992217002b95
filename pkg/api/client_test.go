package api_test

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lgess-community/ess-go/pkg/api"
	"github.com/lgess-community/ess-go/pkg/discovery"
	"github.com/lgess-community/ess-go/pkg/discovery/mocks"
	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/session"
	"github.com/lgess-community/ess-go/pkg/simulator"
)

const (
	testName     = discovery.DeviceName("SIM0000001")
	testPassword = "secret"
)

type appliance struct {
	sim *simulator.Simulator
	srv *httptest.Server
	adv *discovery.ServiceAdvertisement
}

func newAppliance(t *testing.T) *appliance {
	t.Helper()

	sim := simulator.New(simulator.Config{Name: string(testName), Password: testPassword})
	srv := httptest.NewTLSServer(sim.Handler())
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	ip := net.ParseIP(u.Hostname())

	return &appliance{
		sim: sim,
		srv: srv,
		adv: &discovery.ServiceAdvertisement{
			Address:     ip,
			ServiceName: discovery.FullInstanceName(testName),
			Name:        testName,
			Port:        uint16(port),
			Addresses:   []net.IP{ip},
			Device:      discovery.DeviceTypeESS,
		},
	}
}

func connect(t *testing.T, a *appliance) *api.Client {
	t.Helper()

	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, testName).Return(a.adv, nil).Once()

	c, err := api.Connect(context.Background(), browser, testName, testPassword, session.WithHTTPClient(a.srv.Client()))
	require.NoError(t, err)
	return c
}

func TestConnect(t *testing.T) {
	a := newAppliance(t)

	c := connect(t, a)

	assert.Equal(t, session.StateAuthenticated, c.Session().State())
	assert.Equal(t, net.JoinHostPort(a.adv.Address.String(), strconv.Itoa(int(a.adv.Port))), c.Session().Address())
	assert.Same(t, a.adv, c.Advertisement())
	assert.Equal(t, testName, c.Name())
	assert.Equal(t, 1, a.sim.Logins())
}

func TestConnectResolveFailure(t *testing.T) {
	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, testName).
		Return(nil, esserr.NotFound("resolve", errors.New("timeout"))).Once()

	_, err := api.Connect(context.Background(), browser, testName, testPassword)
	assert.True(t, errors.Is(err, esserr.ErrNotFound), "got %v", err)
}

func TestConnectWithoutIPv4(t *testing.T) {
	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, testName).
		Return(&discovery.ServiceAdvertisement{Name: testName}, nil).Once()

	_, err := api.Connect(context.Background(), browser, testName, testPassword)
	assert.True(t, errors.Is(err, esserr.ErrNotFound), "got %v", err)
}

func TestConnectWrongPassword(t *testing.T) {
	a := newAppliance(t)
	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, testName).Return(a.adv, nil).Once()

	_, err := api.Connect(context.Background(), browser, testName, "wrong", session.WithHTTPClient(a.srv.Client()))
	assert.True(t, errors.Is(err, esserr.ErrAuth), "got %v", err)
}

func TestConnectAddress(t *testing.T) {
	a := newAppliance(t)

	c, err := api.ConnectAddress(context.Background(), a.srv.Listener.Addr().String(), testPassword,
		session.WithHTTPClient(a.srv.Client()))
	require.NoError(t, err)

	assert.Nil(t, c.Advertisement())
	assert.Empty(t, c.Name())

	err = c.UpdateAddress(context.Background(), mocks.NewMockBrowser(t))
	assert.True(t, errors.Is(err, esserr.ErrInvalidArgument), "got %v", err)
}

func TestAutodetect(t *testing.T) {
	first := &discovery.ServiceAdvertisement{Name: "AAA0000001", Address: net.IPv4(192, 168, 1, 24)}
	second := &discovery.ServiceAdvertisement{Name: "BBB0000002", Address: net.IPv4(192, 168, 1, 25)}

	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().DiscoverAll(mock.Anything).
		Return([]*discovery.ServiceAdvertisement{first, second}, nil).Once()

	got, err := api.Autodetect(context.Background(), browser)
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestAutodetectNothingFound(t *testing.T) {
	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().DiscoverAll(mock.Anything).
		Return(nil, esserr.NotFound("browse", errors.New("no appliances"))).Once()

	_, err := api.Autodetect(context.Background(), browser)
	assert.True(t, errors.Is(err, esserr.ErrNotFound))

	empty := mocks.NewMockBrowser(t)
	empty.EXPECT().DiscoverAll(mock.Anything).Return([]*discovery.ServiceAdvertisement{}, nil).Once()

	_, err = api.Autodetect(context.Background(), empty)
	assert.True(t, errors.Is(err, esserr.ErrNotFound))
}

func TestUpdateAddressUnchanged(t *testing.T) {
	a := newAppliance(t)
	c := connect(t, a)
	before := c.Session()

	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, testName).Return(a.adv, nil).Once()

	require.NoError(t, c.UpdateAddress(context.Background(), browser))
	assert.Same(t, before, c.Session())
	assert.Equal(t, 1, a.sim.Logins())
}

func TestUpdateAddressMoved(t *testing.T) {
	a := newAppliance(t)
	c := connect(t, a)
	before := c.Session()

	moved := newAppliance(t)
	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, testName).Return(moved.adv, nil).Once()

	require.NoError(t, c.UpdateAddress(context.Background(), browser))
	assert.NotSame(t, before, c.Session())
	assert.Same(t, moved.adv, c.Advertisement())
	assert.Equal(t, 1, moved.sim.Logins())

	_, err := c.GetHome(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, moved.sim.Requests())
	assert.Equal(t, 0, a.sim.Requests())
}

func TestUpdateAddressFailureKeepsSession(t *testing.T) {
	a := newAppliance(t)
	c := connect(t, a)
	before := c.Session()

	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, testName).
		Return(nil, esserr.NotFound("resolve", errors.New("timeout"))).Once()

	err := c.UpdateAddress(context.Background(), browser)
	assert.True(t, errors.Is(err, esserr.ErrNotFound))
	assert.Same(t, before, c.Session())
}

func TestSetName(t *testing.T) {
	a := newAppliance(t)
	c, err := api.ConnectAddress(context.Background(), a.srv.Listener.Addr().String(), testPassword,
		session.WithHTTPClient(a.srv.Client()))
	require.NoError(t, err)

	assert.Error(t, c.SetName("bad.name"))
	require.NoError(t, c.SetName(testName))

	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, testName).Return(a.adv, nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.UpdateAddress(ctx, browser))
	assert.Equal(t, testName, c.Name())
}

func TestUpdateAddressConcurrentWithSetName(t *testing.T) {
	a := newAppliance(t)
	c := connect(t, a)
	before := c.Session()

	// An answer without IPv4 makes every update fail after resolution, on
	// the path that reports the queried name.
	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Resolve(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, name discovery.DeviceName) (*discovery.ServiceAdvertisement, error) {
			return &discovery.ServiceAdvertisement{Name: name}, nil
		})

	const rounds = 50
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			_ = c.SetName(discovery.DeviceName("SIM" + strconv.Itoa(i)))
		}
	}()

	for i := 0; i < rounds; i++ {
		err := c.UpdateAddress(context.Background(), browser)
		require.Error(t, err)
		assert.True(t, errors.Is(err, esserr.ErrNotFound), "got %v", err)
		assert.Contains(t, err.Error(), `"SIM`)
	}
	<-done

	assert.Same(t, before, c.Session())
}

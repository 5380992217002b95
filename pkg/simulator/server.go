package simulator

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ServerConfig configures Serve.
type ServerConfig struct {
	// ListenAddr is the HTTPS listen address, e.g. ":443".
	ListenAddr string

	// Hosts are added to the generated certificate.
	Hosts []string

	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
	GracefulShutdownDuration time.Duration
}

// Server is a running HTTPS simulator.
type Server struct {
	cfg  ServerConfig
	sim  *Simulator
	srv  *http.Server
	ln   net.Listener
	cert tls.Certificate
}

// Listen binds cfg.ListenAddr with a fresh self-signed certificate.
func (s *Simulator) Listen(cfg ServerConfig) (*Server, error) {
	if cfg.GracefulShutdownDuration == 0 {
		cfg.GracefulShutdownDuration = 5 * time.Second
	}

	cert, err := generateSelfSignedCert(s.cfg.Name, cfg.Hosts)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		TLSConfig: &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		},
	}

	return &Server{cfg: cfg, sim: s, srv: srv, ln: ln, cert: cert}, nil
}

// Addr returns the bound address.
func (srv *Server) Addr() net.Addr { return srv.ln.Addr() }

// Port returns the bound TCP port.
func (srv *Server) Port() uint16 {
	if a, ok := srv.ln.Addr().(*net.TCPAddr); ok {
		return uint16(a.Port)
	}
	return 0
}

// Certificate returns the PEM-encoded server certificate.
func (srv *Server) Certificate() []byte { return EncodeCertPEM(srv.cert) }

// RunInBackground serves until Shutdown.
func (srv *Server) RunInBackground() {
	go func() {
		srv.sim.log.Info("Starting HTTPS simulator", "listenAddress", srv.ln.Addr().String())
		if err := srv.srv.ServeTLS(srv.ln, "", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.sim.log.Error("HTTPS simulator failed", "err", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (srv *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.sim.log.Error("Graceful simulator shutdown failed", "err", err)
	} else {
		srv.sim.log.Info("HTTPS simulator gracefully stopped")
	}
}

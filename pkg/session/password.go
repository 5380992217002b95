package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lgess-community/ess-go/pkg/esserr"
)

// Factory password bootstrap constants.
const (
	// FactoryAddress is the appliance address on its own provisioning Wi-Fi.
	FactoryAddress = "192.168.23.1"

	// FactoryKey unlocks the password read endpoint.
	FactoryKey = "lgepmsuser!@#"

	// FactoryTimeout bounds the password read.
	FactoryTimeout = time.Second
)

// ReadFactoryPassword asks the appliance at addr for its login password.
// This only works while connected to the Wi-Fi network the appliance itself
// provides. A nil client uses an insecure client with FactoryTimeout; an
// empty addr uses FactoryAddress.
func ReadFactoryPassword(ctx context.Context, client *http.Client, addr string) (string, error) {
	const op = "read factory password"

	if addr == "" {
		addr = FactoryAddress
	}
	if client == nil {
		client = newHTTPClient(true, FactoryTimeout)
	}
	base, err := baseURL(addr)
	if err != nil {
		return "", esserr.InvalidArgument(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, FactoryTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"key": FactoryKey})
	if err != nil {
		return "", esserr.InvalidArgument(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.JoinPath(FactoryPasswordPath).String(), bytes.NewReader(body))
	if err != nil {
		return "", esserr.InvalidArgument(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Charset", "UTF-8")

	resp, err := client.Do(req)
	if err != nil {
		return "", esserr.Transport(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", esserr.Transport(op, err)
	}

	var result struct {
		Status   string `json:"status"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", esserr.Protocol(op, fmt.Errorf("invalid JSON body: %w", err))
	}
	if result.Status != StatusSuccess || result.Password == "" {
		return "", esserr.Auth(op, fmt.Errorf("appliance refused password read (status %q)", result.Status))
	}
	return result.Password, nil
}

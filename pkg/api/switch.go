package api

import (
	"context"
	"fmt"

	"github.com/lgess-community/ess-go/pkg/esserr"
	"github.com/lgess-community/ess-go/pkg/session"
)

// SwitchPath is the operation endpoint.
const SwitchPath = "/v1/user/operation/status"

// Operation values accepted by SwitchPath.
const (
	OperationStart = "start"
	OperationStop  = "stop"
)

// SwitchOn starts battery operation.
func (c *Client) SwitchOn(ctx context.Context) error {
	return c.switchOperation(ctx, OperationStart)
}

// SwitchOff stops battery operation.
func (c *Client) SwitchOff(ctx context.Context) error {
	return c.switchOperation(ctx, OperationStop)
}

func (c *Client) switchOperation(ctx context.Context, operation string) error {
	op := "switch " + operation

	resp, err := c.Session().Put(ctx, SwitchPath, map[string]any{"operation": operation})
	if err != nil {
		return err
	}
	var result struct {
		Status string `json:"status"`
	}
	if err := resp.Decode(&result); err != nil {
		return err
	}
	if result.Status != session.StatusSuccess {
		return esserr.Protocol(op, fmt.Errorf("appliance answered status %q", result.Status))
	}
	return nil
}

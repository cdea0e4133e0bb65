package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	cperrors "github.com/clawops/fleetctl/infrastructure/errors"
)

// Command is one signed RPC call sent to an on-host agent.
type Command struct {
	RequestID string          `json:"request_id"`
	Name      string          `json:"command"`
	Params    json.RawMessage `json:"params"`
	Signature string          `json:"signature"`
}

// Result is the structured response every agent command returns.
type Result struct {
	RequestID string          `json:"request_id"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Client wraps a persistent coder/websocket connection to one agent's
// control channel.
type Client struct {
	conn    *websocket.Conn
	secret  []byte
	timeout time.Duration
}

// Dial opens a persistent control channel to the agent at url.
func Dial(ctx context.Context, url string, secret []byte) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, cperrors.UpstreamTransient("agent_dial", err)
	}
	return &Client{conn: conn, secret: secret, timeout: 8 * time.Second}, nil
}

// Close terminates the control channel cleanly.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "client closing")
}

// Call signs and sends command, gated by the prefix allowlist, and waits
// for the matching Result. Agent RPC default timeout is 8s.
func (c *Client) Call(ctx context.Context, command string, params any) (Result, error) {
	if err := CheckAllowlist(command); err != nil {
		return Result{}, cperrors.InvalidInput("command", err.Error())
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return Result{}, cperrors.InvalidInput("params", err.Error())
	}

	requestID := uuid.New().String()
	sig := SignCommand(c.secret, requestID, command, string(paramsJSON))
	cmd := Command{RequestID: requestID, Name: command, Params: paramsJSON, Signature: sig}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := wsjson.Write(cctx, c.conn, cmd); err != nil {
		return Result{}, cperrors.UpstreamTransient("agent_write", err)
	}

	var res Result
	if err := wsjson.Read(cctx, c.conn, &res); err != nil {
		return Result{}, cperrors.UpstreamTransient("agent_read", err)
	}
	if res.RequestID != requestID {
		return Result{}, cperrors.InvariantViolation(fmt.Sprintf("agent returned mismatched request_id: want %s got %s", requestID, res.RequestID))
	}
	return res, nil
}

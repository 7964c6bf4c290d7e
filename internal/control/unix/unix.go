// Package unix reaches the daemon directly over its control socket,
// speaking HTTP+JSON without involving the client utility.
package unix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/nasbsd/etchook/internal/control"
)

func init() {
	control.Register(control.KindUnix, open)
}

// Client implements control.ControlPlane over HTTP+JSON on a unix socket.
type Client struct {
	socketPath string
	httpClient *http.Client
}

var _ control.ControlPlane = (*Client)(nil)

func open(ctx context.Context, cfg control.Config) (control.ControlPlane, error) {
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("control socket path is empty")
	}
	return &Client{
		socketPath: cfg.SocketPath,
		httpClient: newUnixHTTPClient(cfg.SocketPath),
	}, nil
}

func newUnixHTTPClient(socketPath string) *http.Client {
	tr := &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		DisableKeepAlives: false,
	}
	return &http.Client{Transport: tr}
}

// callRequest is the JSON body of a method call.
type callRequest struct {
	Method string `json:"method"`
}

// callResponse is the JSON body of a method reply. Error is empty on success.
type callResponse struct {
	Error string `json:"error,omitempty"`
}

// Call implements control.ControlPlane.Call.
func (c *Client) Call(ctx context.Context, method control.Method) error {
	body, err := json.Marshal(callRequest{Method: method.String()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://unix/_call", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var reply callResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil || reply.Error == "" {
		return fmt.Errorf("%s: daemon returned %s", method, resp.Status)
	}
	return fmt.Errorf("%s: %s", method, reply.Error)
}

// Ping implements control.ControlPlane.Ping.
func (c *Client) Ping(ctx context.Context) error {
	return c.Call(ctx, control.MethodPing)
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

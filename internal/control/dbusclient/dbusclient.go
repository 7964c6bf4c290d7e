// Package dbusclient reaches the daemon through its system-bus interface.
//
// This transport is never auto-detected; it is selected explicitly on
// installs where the daemon claims a bus name instead of (or in addition
// to) its control socket.
package dbusclient

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/nasbsd/etchook/internal/control"
)

const (
	busName    = "org.nasbsd.Middleware1"
	objectPath = "/org/nasbsd/Middleware1"
	callIface  = "org.nasbsd.Middleware1"
)

func init() {
	control.Register(control.KindDBus, open)
}

// Client implements control.ControlPlane over the system bus.
type Client struct {
	conn *dbus.Conn
}

var _ control.ControlPlane = (*Client)(nil)

func open(ctx context.Context, cfg control.Config) (control.ControlPlane, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Call implements control.ControlPlane.Call.
func (c *Client) Call(ctx context.Context, method control.Method) error {
	obj := c.conn.Object(busName, objectPath)
	call := obj.CallWithContext(ctx, callIface+".Call", 0, method.String())
	if call.Err != nil {
		return fmt.Errorf("%s: %w", method, call.Err)
	}
	return nil
}

// Ping implements control.ControlPlane.Ping.
func (c *Client) Ping(ctx context.Context) error {
	var owner string
	err := c.conn.Object("org.freedesktop.DBus", "/org/freedesktop/DBus").
		CallWithContext(ctx, "org.freedesktop.DBus.GetNameOwner", 0, busName).
		Store(&owner)
	return checkOwner(owner, err)
}

// checkOwner maps a GetNameOwner reply to a ping result.
func checkOwner(owner string, err error) error {
	if err != nil {
		return fmt.Errorf("daemon not present on system bus: %w", err)
	}
	if owner == "" {
		return fmt.Errorf("daemon not present on system bus")
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

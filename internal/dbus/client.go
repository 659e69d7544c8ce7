package dbus

import (
	"github.com/godbus/dbus/v5"
	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/curves"
)

// Client calls the methods of a running daemon
type Client struct {
	conn  *dbus.Conn
	obj   dbus.BusObject
	iface string
}

func NewClient(config configuration.DBusConfig) (*Client, error) {
	busName := config.BusName
	if len(busName) <= 0 {
		busName = configuration.DefaultBusName
	}
	objectPath := config.ObjectPath
	if len(objectPath) <= 0 {
		objectPath = configuration.DefaultObjectPath
	}

	conn, err := connect(config.System)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:  conn,
		obj:   conn.Object(busName, dbus.ObjectPath(objectPath)),
		iface: busName,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(method string, args ...interface{}) *dbus.Call {
	return c.obj.Call(c.iface+"."+method, 0, args...)
}

func (c *Client) GetFanCurve() ([]curves.Pair, error) {
	var points []Point
	if err := c.call("GetFanCurve").Store(&points); err != nil {
		return nil, err
	}
	return toPairs(points), nil
}

func (c *Client) SetFanCurve(pairs []curves.Pair) error {
	return c.call("SetFanCurve", toPoints(pairs)).Err
}

func (c *Client) SetFanCurvePersistent(name string, pairs []curves.Pair) error {
	return c.call("SetFanCurvePersistent", name, toPoints(pairs)).Err
}

func (c *Client) LoadAllFanCurves() ([]NamedCurve, error) {
	var result []NamedCurve
	err := c.call("LoadAllFanCurves").Store(&result)
	return result, err
}

func (c *Client) AddFanCurvePoint(temp int, duty int) error {
	return c.call("AddFanCurvePoint", int32(temp), int32(duty)).Err
}

func (c *Client) RemoveFanCurvePoint() error {
	return c.call("RemoveFanCurvePoint").Err
}

func (c *Client) GetFanCurves() ([]string, error) {
	var result []string
	err := c.call("GetFanCurves").Store(&result)
	return result, err
}

func (c *Client) SelectFanCurve(name string) error {
	return c.call("SelectFanCurve", name).Err
}

func (c *Client) SetDefaultFanCurve(index int) error {
	return c.call("SetDefaultFanCurve", int32(index)).Err
}

func (c *Client) SetAutomatic() error {
	return c.call("SetAutomatic").Err
}

func (c *Client) GetStatus() (Status, error) {
	var result Status
	err := c.call("GetStatus").Store(&result)
	return result, err
}

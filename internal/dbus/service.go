package dbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/controller"
	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/ui"
)

const (
	SignalFanCurveChanged = "FanCurveChanged"

	callTimeout = 30 * time.Second
)

// Controller is the part of the controller exposed on the bus
type Controller interface {
	GetFanCurve() []curves.Pair
	SetFanCurve(pairs []curves.Pair) error
	SetFanCurvePersistent(ctx context.Context, name string, pairs []curves.Pair) error
	LoadAllFanCurves() ([]persistence.NamedCurve, error)
	AddFanCurvePoint(ctx context.Context, temp int, duty int) error
	RemoveFanCurvePoint(ctx context.Context) error
	GetFanCurves() []string
	SelectCurveByName(ctx context.Context, name string) error
	SetDefaultCurve(ctx context.Context, index int) error
	SetAutomatic(ctx context.Context) error
	Status() controller.Status
	Subscribe() (<-chan controller.Event, func())
}

// Service exports a Controller on the system (or session) bus
type Service struct {
	controller Controller
	config     configuration.DBusConfig
}

func NewService(controller Controller, config configuration.DBusConfig) *Service {
	if len(config.BusName) <= 0 {
		config.BusName = configuration.DefaultBusName
	}
	if len(config.ObjectPath) <= 0 {
		config.ObjectPath = configuration.DefaultObjectPath
	}
	return &Service{
		controller: controller,
		config:     config,
	}
}

// Run serves requests and emits change signals until ctx is cancelled
func (s *Service) Run(ctx context.Context) error {
	conn, err := connect(s.config.System)
	if err != nil {
		return fmt.Errorf("unable to connect to bus: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	path := dbus.ObjectPath(s.config.ObjectPath)
	iface := s.config.BusName
	obj := &object{
		controller:  s.controller,
		resolveUid:  busUidResolver(conn),
		allowedUids: s.config.AllowedUids,
	}

	if err := conn.Export(obj, path, iface); err != nil {
		return err
	}
	node := &introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    iface,
				Methods: introspect.Methods(obj),
				Signals: []introspect.Signal{
					{
						Name: SignalFanCurveChanged,
						Args: []introspect.Arg{{Name: "curve", Type: "s"}},
					},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return err
	}

	reply, err := conn.RequestName(iface, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", iface)
	}
	ui.Info("Serving %s on %s", iface, path)

	events, unsubscribe := s.controller.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			_, _ = conn.ReleaseName(iface)
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := conn.Emit(path, iface+"."+SignalFanCurveChanged, event.Curve); err != nil {
				ui.Warning("Unable to emit %s: %v", SignalFanCurveChanged, err)
			}
		}
	}
}

func connect(system bool) (*dbus.Conn, error) {
	if system {
		return dbus.ConnectSystemBus()
	}
	return dbus.ConnectSessionBus()
}

// object holds the exported methods. Mutating methods take the sender for authorization.
type object struct {
	controller  Controller
	resolveUid  UidResolver
	allowedUids []int
}

func (o *object) authorize(sender dbus.Sender, method string) *dbus.Error {
	err := authorize(o.resolveUid, o.allowedUids, sender, method)
	if err == nil {
		return nil
	}
	ui.Warning("Rejected %s: %v", method, err)
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return dbus.NewError(ErrNameNotAuthorized, []interface{}{err.Error()})
	}
	return dbus.MakeFailedError(err)
}

func toDbusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.MakeFailedError(err)
}

func (o *object) GetFanCurve() ([]Point, *dbus.Error) {
	return toPoints(o.controller.GetFanCurve()), nil
}

func (o *object) SetFanCurve(sender dbus.Sender, points []Point) *dbus.Error {
	if err := o.authorize(sender, "SetFanCurve"); err != nil {
		return err
	}
	return toDbusError(o.controller.SetFanCurve(toPairs(points)))
}

func (o *object) SetFanCurvePersistent(sender dbus.Sender, name string, points []Point) *dbus.Error {
	if err := o.authorize(sender, "SetFanCurvePersistent"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return toDbusError(o.controller.SetFanCurvePersistent(ctx, name, toPairs(points)))
}

func (o *object) LoadAllFanCurves() ([]NamedCurve, *dbus.Error) {
	named, err := o.controller.LoadAllFanCurves()
	if err != nil {
		return nil, toDbusError(err)
	}
	return toNamedCurves(named), nil
}

func (o *object) AddFanCurvePoint(sender dbus.Sender, temp int32, duty int32) *dbus.Error {
	if err := o.authorize(sender, "AddFanCurvePoint"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return toDbusError(o.controller.AddFanCurvePoint(ctx, int(temp), int(duty)))
}

func (o *object) RemoveFanCurvePoint(sender dbus.Sender) *dbus.Error {
	if err := o.authorize(sender, "RemoveFanCurvePoint"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return toDbusError(o.controller.RemoveFanCurvePoint(ctx))
}

func (o *object) GetFanCurves() ([]string, *dbus.Error) {
	return o.controller.GetFanCurves(), nil
}

func (o *object) SelectFanCurve(sender dbus.Sender, name string) *dbus.Error {
	if err := o.authorize(sender, "SelectFanCurve"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return toDbusError(o.controller.SelectCurveByName(ctx, name))
}

func (o *object) SetDefaultFanCurve(sender dbus.Sender, index int32) *dbus.Error {
	if err := o.authorize(sender, "SetDefaultFanCurve"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return toDbusError(o.controller.SetDefaultCurve(ctx, int(index)))
}

func (o *object) SetAutomatic(sender dbus.Sender) *dbus.Error {
	if err := o.authorize(sender, "SetAutomatic"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return toDbusError(o.controller.SetAutomatic(ctx))
}

func (o *object) GetStatus() (Status, *dbus.Error) {
	return toStatus(o.controller.Status()), nil
}

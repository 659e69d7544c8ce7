package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const ErrNameNotAuthorized = "com.system76.PowerDaemon.Error.NotAuthorized"

// AuthorizationError is returned when the caller of a mutating method is not allowed to call it
type AuthorizationError struct {
	Sender string
	Uid    uint32
	Method string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("uid %d (%s) is not allowed to call %s", e.Uid, e.Sender, e.Method)
}

// UidResolver returns the unix uid of the process owning a bus connection
type UidResolver func(sender string) (uint32, error)

// busUidResolver asks the bus daemon for the uid of the sender
func busUidResolver(conn *dbus.Conn) UidResolver {
	return func(sender string) (uint32, error) {
		var uid uint32
		err := conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixUser", 0, sender).Store(&uid)
		return uid, err
	}
}

// isAllowed reports whether uid may call mutating methods, root is always allowed
func isAllowed(uid uint32, allowedUids []int) bool {
	if uid == 0 {
		return true
	}
	for _, allowed := range allowedUids {
		if allowed >= 0 && uint32(allowed) == uid {
			return true
		}
	}
	return false
}

func authorize(resolve UidResolver, allowedUids []int, sender dbus.Sender, method string) error {
	uid, err := resolve(string(sender))
	if err != nil {
		return fmt.Errorf("unable to determine uid of %s: %w", sender, err)
	}
	if !isAllowed(uid, allowedUids) {
		return &AuthorizationError{Sender: string(sender), Uid: uid, Method: method}
	}
	return nil
}

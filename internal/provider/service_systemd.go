package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/edgeprobe/internal/output"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	systemdDest      = "org.freedesktop.systemd1"
	systemdPath      = dbus.ObjectPath("/org/freedesktop/systemd1")
	systemdManager   = "org.freedesktop.systemd1.Manager"
	systemdUnit      = "org.freedesktop.systemd1.Unit"
	systemdNoSuchErr = "org.freedesktop.systemd1.NoSuchUnit"
)

// Systemd is the inline service strategy. It talks to the local systemd
// manager over the system bus.
type Systemd struct {
	// Connect opens the bus connection; defaults to dbus.ConnectSystemBus.
	Connect func() (*dbus.Conn, error)
}

// unitFileChange mirrors the a(sss) reply of Enable/DisableUnitFiles.
type unitFileChange struct {
	Type        string
	Filename    string
	Destination string
}

func (s Systemd) Run(op Operation) (output.Output, error) {
	switch op.Name {
	case ServiceIsRunning, ServiceIsEnabled, ServiceEnable, ServiceDisable:
	default:
		return output.Output{}, notDefined(op, "systemd inline")
	}

	conn, err := s.connector()()
	if err != nil {
		return output.Output{}, fmt.Errorf("%s: system bus: %w", op.Name, err)
	}
	defer conn.Close()

	unit := unitName(op.Target)
	mgr := conn.Object(systemdDest, systemdPath)
	log.Debug().Str("op", string(op.Name)).Str("unit", unit).Msg("systemd call")

	switch op.Name {
	case ServiceIsRunning:
		var path dbus.ObjectPath
		if err := mgr.Call(systemdManager+".LoadUnit", 0, unit).Store(&path); err != nil {
			return output.Output{}, systemdError(op, unit, err)
		}
		prop, err := conn.Object(systemdDest, path).GetProperty(systemdUnit + ".ActiveState")
		if err != nil {
			return output.Output{}, systemdError(op, unit, err)
		}
		state, _ := prop.Value().(string)
		return output.Bool(state == "active"), nil
	case ServiceIsEnabled:
		var state string
		err := mgr.Call(systemdManager+".GetUnitFileState", 0, unit).Store(&state)
		if isNoSuchUnit(err) {
			return output.Bool(false), nil
		}
		if err != nil {
			return output.Output{}, systemdError(op, unit, err)
		}
		return output.Bool(unitFileEnabled(state)), nil
	case ServiceEnable:
		var carriesInstallInfo bool
		var changes []unitFileChange
		err := mgr.Call(systemdManager+".EnableUnitFiles", 0, []string{unit}, false, false).
			Store(&carriesInstallInfo, &changes)
		if err != nil {
			return output.Output{}, systemdError(op, unit, err)
		}
		return reloadManager(mgr, op, unit)
	default:
		var changes []unitFileChange
		err := mgr.Call(systemdManager+".DisableUnitFiles", 0, []string{unit}, false).Store(&changes)
		if err != nil {
			return output.Output{}, systemdError(op, unit, err)
		}
		return reloadManager(mgr, op, unit)
	}
}

func (s Systemd) connector() func() (*dbus.Conn, error) {
	if s.Connect != nil {
		return s.Connect
	}
	return func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }
}

// unitFileEnabled reports whether a unit file state counts as enabled. Both
// service strategies read states through it.
func unitFileEnabled(state string) bool {
	switch strings.TrimSpace(state) {
	case "enabled", "enabled-runtime":
		return true
	default:
		return false
	}
}

func reloadManager(mgr dbus.BusObject, op Operation, unit string) (output.Output, error) {
	if err := mgr.Call(systemdManager+".Reload", 0).Err; err != nil {
		return output.Output{}, systemdError(op, unit, fmt.Errorf("reload: %w", err))
	}
	return output.Bool(true), nil
}

// systemdError wraps failed manager calls in ErrCommand, as a failed
// systemctl run would be.
func systemdError(op Operation, unit string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrCommand, op.Name, unit, err)
}

func isNoSuchUnit(err error) bool {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name == systemdNoSuchErr
	}
	var dbusErrPtr *dbus.Error
	return errors.As(err, &dbusErrPtr) && dbusErrPtr.Name == systemdNoSuchErr
}

var unitSuffixes = []string{
	".service", ".socket", ".target", ".timer", ".mount", ".automount",
	".path", ".slice", ".scope", ".device", ".swap",
}

// unitName appends ".service" to names without a unit suffix.
func unitName(name string) string {
	name = strings.TrimSpace(name)
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(name, suffix) {
			return name
		}
	}
	return name + ".service"
}

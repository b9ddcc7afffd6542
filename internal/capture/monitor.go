package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"facestage/internal/logging"
)

// DeviceEvent reports a webcam appearing or disappearing.
type DeviceEvent struct {
	Device  string
	Present bool
}

// DeviceMonitor listens for udev netlink events on the video4linux subsystem
// and reports hotplug changes for the configured webcam node.
type DeviceMonitor struct {
	logger  *slog.Logger
	device  string
	handler func(DeviceEvent)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewDeviceMonitor returns nil when no device is configured.
func NewDeviceMonitor(device string, logger *slog.Logger, handler func(DeviceEvent)) *DeviceMonitor {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	return &DeviceMonitor{
		logger:  logging.NewComponentLogger(logger, "device-monitor"),
		device:  device,
		handler: handler,
	}
}

// Start begins listening for udev netlink events. Connection failures are
// logged and tolerated; capture sources keep working without hotplug notices.
func (m *DeviceMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; webcam hotplug will not be reported",
			"netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the kiosk user may open netlink sockets"),
			logging.String(logging.FieldImpact, "webcam unplug goes unnoticed until capture stalls"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("device monitor started",
		logging.String(logging.FieldEventType, "device_monitor_started"),
		logging.String("device", m.device),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *DeviceMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("device monitor stopped",
		logging.String(logging.FieldEventType, "device_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *DeviceMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *DeviceMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "webcam hotplug may be missed"),
			)
		}
	}
}

// buildMatcher matches SUBSYSTEM=video4linux with ACTION=add|remove.
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (m *DeviceMonitor) handleEvent(uevent netlink.UEvent) {
	evt, ok := m.translate(uevent)
	if !ok {
		return
	}
	level := slog.LevelInfo
	if !evt.Present {
		level = slog.LevelWarn
	}
	m.logger.Log(context.Background(), level, "webcam hotplug",
		logging.String(logging.FieldEventType, "webcam_hotplug"),
		logging.String("device", evt.Device),
		logging.Bool("present", evt.Present),
	)
	if m.handler != nil {
		m.handler(evt)
	}
}

func (m *DeviceMonitor) translate(uevent netlink.UEvent) (DeviceEvent, bool) {
	devname := extractDeviceName(uevent)
	if devname == "" || devname != m.device {
		m.logger.Debug("ignoring video4linux event",
			logging.String("device", devname),
			logging.String("configured_device", m.device),
		)
		return DeviceEvent{}, false
	}
	switch uevent.Action {
	case netlink.ADD:
		return DeviceEvent{Device: devname, Present: true}, true
	case netlink.REMOVE:
		return DeviceEvent{Device: devname, Present: false}, true
	default:
		return DeviceEvent{}, false
	}
}

// extractDeviceName gets the device path from a uevent.
func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			return "/dev/" + devname
		}
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}

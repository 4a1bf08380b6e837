package monitor

import (
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"physica/internal/logging"
)

// netlinkWatcher kicks the scan loop when the kernel reports block device
// changes. It removes the latency between plugging a cartridge in and the
// next periodic scan; detection itself still goes through the scan probe.
type netlinkWatcher struct {
	logger *slog.Logger
	conn   *netlink.UEventConn
	kick   func()

	mu   sync.Mutex
	quit chan struct{}
}

// startNetlinkWatcher connects to the udev netlink socket and begins
// listening. A nil return means netlink is unavailable; the monitor then
// relies on periodic scans alone.
func startNetlinkWatcher(logger *slog.Logger, kick func()) *netlinkWatcher {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logger.Warn("netlink unavailable, cartridge detection falls back to periodic scans",
			logging.Error(err),
		)
		return nil
	}

	w := &netlinkWatcher{
		logger: logging.NewComponentLogger(logger, "netlink"),
		conn:   conn,
		kick:   kick,
		quit:   make(chan struct{}),
	}
	go w.loop()
	w.logger.Info("netlink block device watch started")
	return w
}

// Stop shuts the watcher down. Safe on nil.
func (w *netlinkWatcher) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	w.mu.Unlock()
	_ = w.conn.Close()
}

func (w *netlinkWatcher) loop() {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	// Any add/remove/change on a block device may be a cartridge (un)mount.
	action := "add|remove|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
		},
	})

	w.mu.Lock()
	quit := w.quit
	w.mu.Unlock()
	if quit == nil {
		return
	}

	monitorQuit := w.conn.Monitor(queue, errs, rules)
	for {
		select {
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.logger.Debug("block device event",
				logging.String("action", string(uevent.Action)),
				logging.String("kobj", uevent.KObj),
			)
			w.kick()
		case err := <-errs:
			w.logger.Warn("netlink watch error", logging.Error(err))
		}
	}
}

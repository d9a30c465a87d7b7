// Command pbtnd runs the default actions of the system push button and
// publishes button events to MQTT and an HTTP status page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/pushbutton/internal/action"
	"github.com/sweeney/pushbutton/internal/button"
	"github.com/sweeney/pushbutton/internal/config"
	"github.com/sweeney/pushbutton/internal/logging"
	"github.com/sweeney/pushbutton/internal/logic"
	"github.com/sweeney/pushbutton/internal/mqtt"
	"github.com/sweeney/pushbutton/internal/status"
	"github.com/sweeney/pushbutton/internal/web"
)

// shutdownTimeout bounds how long shutdown waits for monitors to exit.
const shutdownTimeout = 5 * time.Second

// refreshInterval is how often the status page picks up connection state.
const refreshInterval = 10 * time.Second

func main() {
	settingsPath := flag.String("config", "", "Daemon settings file (.yaml or .toml)")
	buttonConfig := flag.String("button-config", "", "Button configuration file (overrides settings)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides settings)")
	printLayout := flag.Bool("print-layout", false, "Print the button id to device mapping and exit")

	flag.Parse()

	s, err := config.LoadSettings(*settingsPath)
	if err != nil {
		logrus.WithError(err).WithField("path", *settingsPath).Fatal("load settings")
	}
	if *buttonConfig != "" {
		s.ButtonConfig = *buttonConfig
	}
	if *httpAddr != "" {
		s.HTTP.Addr = *httpAddr
	}
	if err := s.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid settings")
	}

	if err := run(s, *printLayout); err != nil {
		logrus.WithError(err).Fatal("pbtnd stopped")
	}
}

func run(s *config.Settings, printLayout bool) error {
	logger := logging.New(s.Logging)

	bcfg, err := config.Load(s.ButtonConfig)
	if err != nil {
		return fmt.Errorf("load button config: %w", err)
	}
	actions, err := bcfg.DefaultActions()
	if err != nil {
		return fmt.Errorf("load default actions: %w", err)
	}
	btype, err := config.ParseButtonType(s.Button.Type)
	if err != nil {
		return err
	}

	if printLayout {
		return writeLayout(os.Stdout, bcfg)
	}

	reg, err := button.New(bcfg, button.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		ButtonConfig: s.ButtonConfig,
		Broker:       brokerLabel(s.MQTT),
		TopicPrefix:  s.MQTT.TopicPrefix,
		HTTPAddr:     s.HTTP.Addr,
	}, reg.Len())

	d := &daemon{
		reg:     reg,
		policy:  action.NewPolicy(actions, action.NewCommandController(s.LED.Command), action.NewExecRunner(s.Shell), logger),
		tracker: tracker,
		log:     logger,
		now:     time.Now,
	}

	var mqttStatus mqtt.ConnectionStatus
	if s.MQTT.Enabled {
		pub, err := mqtt.NewRealPublisher(mqtt.Config{
			Broker:      s.MQTT.Broker,
			ClientID:    s.MQTT.ClientID,
			TopicPrefix: s.MQTT.TopicPrefix,
			BufferSize:  s.MQTT.BufferSize,
		}, logger)
		if err != nil {
			logger.WithError(err).WithField("broker", s.MQTT.Broker).Error("mqtt disabled")
		} else {
			defer pub.Close()
			d.publisher = pub
			mqttStatus = pub
		}
	}

	if s.HTTP.Addr != "" {
		srv := web.New(s.HTTP.Addr, tracker, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		d.web = srv
		logger.WithField("addr", s.HTTP.Addr).Info("http status server listening")
	}

	if _, err := d.start(btype, s.Button.Index); err != nil {
		return err
	}
	d.publishSystem(mqtt.SystemStartup, "", mqttStatus)

	logger.WithFields(logrus.Fields{
		"type":  btype,
		"index": s.Button.Index,
		"mqtt":  d.publisher != nil,
	}).Info("started")

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, mqttStatus, ticker.C, sigCh)
}

// broadcaster streams events to live status page clients.
type broadcaster interface {
	Broadcast(ev logic.Event)
}

// daemon fans every button callback out to the action policy, the status
// tracker, MQTT and the status page. publisher and web are optional.
type daemon struct {
	reg       *button.Registry
	policy    *action.Policy
	tracker   *status.Tracker
	publisher mqtt.Publisher
	web       broadcaster
	log       logrus.FieldLogger
	now       func() time.Time
}

// start opens a button and registers the daemon callbacks on it. Hold
// callbacks fire every second so the policy can match each threshold.
func (d *daemon) start(t button.Type, index int) (int, error) {
	id, err := d.reg.Open(t, index)
	if err != nil {
		return -1, fmt.Errorf("open %s button %d: %w", t, index, err)
	}
	st, err := d.reg.Status(id)
	if err != nil {
		return -1, err
	}
	d.tracker.SetButton(id, st.Path, st.Opened)

	if err := d.reg.OnPressed(id, d.callback(id, logic.EventPressed, d.policy.Pressed)); err != nil {
		return -1, err
	}
	if err := d.reg.OnReleased(id, d.callback(id, logic.EventReleased, d.policy.Released)); err != nil {
		return -1, err
	}
	if err := d.reg.OnHold(id, d.callback(id, logic.EventHold, d.policy.Hold), button.HoldEverySecond); err != nil {
		return -1, err
	}

	d.log.WithFields(logrus.Fields{"button": id, "path": st.Path}).Info("button opened")
	return id, nil
}

func (d *daemon) callback(id int, t logic.EventType, act button.Callback) button.Callback {
	return func(sec int) {
		ev := logic.Event{Timestamp: d.now(), Button: id, Type: t, Seconds: sec}
		d.log.WithFields(logrus.Fields{"button": id, "event": t, "seconds": sec}).Debug("event")

		if act != nil {
			act(sec)
		}
		d.tracker.Record(ev)
		if d.publisher != nil {
			if err := d.publisher.Publish(ev); err != nil {
				d.log.WithError(err).Warn("publish error")
			}
		}
		if d.web != nil {
			d.web.Broadcast(ev)
		}
	}
}

// refresh copies connection and slot state into the tracker.
func (d *daemon) refresh(mqttStatus mqtt.ConnectionStatus) {
	if mqttStatus != nil {
		d.tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	for id := 0; id < d.reg.Len(); id++ {
		if st, err := d.reg.Status(id); err == nil {
			d.tracker.SetButton(id, st.Path, st.Opened)
		}
	}
}

func (d *daemon) publishSystem(event, reason string, mqttStatus mqtt.ConnectionStatus) {
	if d.publisher == nil {
		return
	}
	d.refresh(mqttStatus)
	snap := d.tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  d.now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := d.publisher.PublishSystem(ev); err != nil {
		d.log.WithError(err).WithField("event", event).Warn("failed to publish system event")
		return
	}
	d.log.WithField("event", event).Info("published system event")
}

// runLoop blocks until a signal arrives or every button monitor has
// stopped, then closes the buttons and publishes SHUTDOWN.
func runLoop(d *daemon, mqttStatus mqtt.ConnectionStatus, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan error, 1)
	go func() { stopped <- d.reg.Wait(ctx) }()

	var reason string
	var loopErr error
loop:
	for {
		select {
		case s := <-sig:
			d.log.WithField("signal", s).Info("shutting down")
			reason = signalName(s)
			break loop

		case err := <-stopped:
			if err == nil {
				err = errors.New("all button monitors stopped")
			}
			d.log.WithError(err).Error("shutting down")
			reason = "MONITOR_EXIT"
			loopErr = err
			break loop

		case <-tick:
			d.refresh(mqttStatus)
		}
	}

	if err := d.reg.CloseAll(); err != nil {
		d.log.WithError(err).Warn("close buttons")
	}
	waitCtx, waitCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer waitCancel()
	if err := d.reg.Wait(waitCtx); err != nil {
		d.log.WithError(err).Warn("button monitors did not stop")
	}

	d.publishSystem(mqtt.SystemShutdown, reason, mqttStatus)
	return loopErr
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func brokerLabel(m config.MQTTSettings) string {
	if !m.Enabled {
		return ""
	}
	return m.Broker
}

// writeLayout prints one line per configured button: global id, type,
// 1-based index and device path.
func writeLayout(w io.Writer, cfg *config.ButtonConfig) error {
	sys := cfg.SystemCount()
	for id := 0; id < cfg.ButtonCount(); id++ {
		t, index := config.TypeSystem, id+1
		if id >= sys {
			t, index = config.TypeUser, id-sys+1
		}
		path, err := cfg.DevicePath(t, index)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", id, t, index, path)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sweeney/egpwc/internal/config"
	"github.com/sweeney/egpwc/internal/egpws"
	"github.com/sweeney/egpwc/internal/events"
	"github.com/sweeney/egpwc/internal/gpio"
	"github.com/sweeney/egpwc/internal/mqtt"
	"github.com/sweeney/egpwc/internal/serialbus"
	"github.com/sweeney/egpwc/internal/status"
	"github.com/sweeney/egpwc/internal/web"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the computer against live discretes and bus data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			logger, closer, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()
			return run(cfg, logger)
		},
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	tick := cfg.Computer.Tick.Duration

	// Discretes and lamps
	var reader gpio.Reader
	var lamps gpio.Lamps
	if cfg.GPIO.Enabled {
		r, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.Inputs(), cfg.GPIO.ActiveLow)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer r.Close()
		l, err := gpio.NewRealLamps(cfg.GPIO.Chip, cfg.GPIO.Outputs(), cfg.GPIO.ActiveLow)
		if err != nil {
			return fmt.Errorf("init lamps: %w", err)
		}
		defer l.Close()
		reader, lamps = r, l
	}

	// Bus data. Without a port every source reads failure warning and the
	// computer reports itself inop.
	receiver := serialbus.NewReceiver(cfg.Serial.Stale.Duration)
	receiver.SetLogger(logger.WithPrefix("serial"))
	var busOut io.Writer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Serial.Enabled {
		port, err := serialbus.Open(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return err
		}
		defer func() {
			cancel()
			port.Close()
		}()
		busOut = port
		go func() {
			if err := receiver.Run(ctx, port, time.Now); err != nil && ctx.Err() == nil {
				logger.Error("serial receive stopped", "err", err)
			}
		}()
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		Buffer:      cfg.MQTT.Buffer,
	}, logger.WithPrefix("mqtt"))
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	sc := status.Config{
		TickMs:      tick.Milliseconds(),
		SelfTestMs:  cfg.Computer.SelfTest.Milliseconds(),
		HeartbeatMs: cfg.Computer.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Pins:        cfg.Pins,
	}
	if cfg.Serial.Enabled {
		sc.SerialPort = cfg.Serial.Port
	}
	if cfg.GPIO.Enabled {
		sc.GPIOChip = cfg.GPIO.Chip
	}
	tracker := status.NewTracker(time.Now(), sc)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.Warn("failed to publish startup event", "err", err)
	} else {
		logger.Info("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	computer := egpws.NewComputer(cfg.Engine(), cfg.Computer.PowerHoldover.Duration, false, true)
	computer.SetLogger(logger.WithPrefix("engine"))
	computer.SetPowered(true)

	logger.Info("started", "tick", tick, "self_test", cfg.Computer.SelfTest.Duration,
		"broker", cfg.MQTT.Broker, "heartbeat", cfg.Computer.Heartbeat.Duration)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		computer:   computer,
		reader:     reader,
		lamps:      lamps,
		bus:        receiver,
		busOut:     busOut,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		tick:       tick,
		heartbeat:  cfg.Computer.Heartbeat.Duration,
		logger:     logger,
	}
	return l.run(time.Now, ticker.C, sigCh)
}

// loop is the per-tick wiring between the edges and the computer. Optional
// edges are nil: no reader leaves every discrete false, no lamps and no
// busOut leave the outputs undriven.
type loop struct {
	computer   *egpws.Computer
	reader     gpio.Reader
	lamps      gpio.Lamps
	bus        *serialbus.Receiver
	busOut     io.Writer
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	tick       time.Duration
	heartbeat  time.Duration
	logger     *log.Logger
}

func (l *loop) run(now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	detector := events.NewDetector(startTime)

	var (
		last      time.Time
		discretes egpws.DiscreteInputs
		sample    events.Sample
		lampState gpio.LampState
		lampsSet  bool
	)

	for {
		select {
		case s := <-sig:
			l.logger.Info("shutting down", "signal", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if l.tracker != nil {
				l.refreshMQTT()
				event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				l.logger.Warn("failed to publish shutdown event", "err", err)
			} else {
				l.logger.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			dt := l.tick
			if !last.IsZero() {
				dt = t.Sub(last)
			}
			last = t

			// A failed read keeps the last good discretes so the computer
			// keeps running on time.
			if l.reader != nil {
				d, err := l.reader.Read()
				if err != nil {
					l.logger.Warn("gpio read error", "err", err)
				} else {
					discretes = d
				}
			}
			in := egpws.Inputs{Discretes: discretes}
			if l.bus != nil {
				l.bus.Inputs(t, &in)
			}

			l.computer.Update(dt, &in)
			d, b := l.computer.Outputs()

			if l.lamps != nil {
				want := gpio.LampState{Alert: d.AlertLamp, Warning: d.WarningLamp, Audio: d.AudioOn}
				if !lampsSet || want != lampState {
					if err := l.lamps.Set(want.Alert, want.Warning, want.Audio); err != nil {
						l.logger.Warn("lamp write error", "err", err)
					} else {
						lampState, lampsSet = want, true
					}
				}
			}
			if l.busOut != nil {
				if err := serialbus.WriteOutputs(l.busOut, b); err != nil {
					l.logger.Warn("bus write error", "err", err)
				}
			}

			sample = events.SampleOf(t, l.computer, sample)
			for _, event := range detector.Process(sample) {
				l.logger.Info("event", "type", event.Type, "aural", event.Aural, "phase", event.State.Phase)
				if err := l.publisher.Publish(event); err != nil {
					// Don't stop the computer on publish failure
					l.logger.Warn("publish error", "err", err)
				}
			}

			l.updateTracker(detector, sample)

			if hb := detector.CheckHeartbeat(t, l.heartbeat); hb != nil {
				l.logger.Info("heartbeat", "uptime", hb.Uptime, "events", hb.Counts)
				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if l.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						l.tracker.SetNetwork(net)
					}
					hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil {
					l.logger.Warn("heartbeat publish error", "err", err)
				}
			}
		}
	}
}

// updateTracker refreshes the status consumers after a tick.
func (l *loop) updateTracker(detector *events.Detector, sample events.Sample) {
	if l.tracker == nil {
		return
	}
	var engine *egpws.Snapshot
	if r := l.computer.Runtime(); r != nil {
		s := r.Snapshot()
		engine = &s
	}
	l.tracker.Update(sample, engine, detector.IsBaselined(), detector.CountsSnapshot())
	if l.bus != nil {
		bs := l.bus.Stats()
		l.tracker.SetBus(status.BusStats{
			Accepted:      bs.Accepted,
			ParityErrors:  bs.ParityErrors,
			UnknownLabels: bs.UnknownLabels,
		})
	}
	l.refreshMQTT()
}

func (l *loop) refreshMQTT() {
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

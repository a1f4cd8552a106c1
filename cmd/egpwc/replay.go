package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sweeney/egpwc/internal/events"
	"github.com/sweeney/egpwc/internal/mqtt"
	"github.com/sweeney/egpwc/internal/scenario"
	"github.com/sweeney/egpwc/internal/trace"
)

var errExpectations = errors.New("expectations not met")

func newReplayCmd(g *globalFlags) *cobra.Command {
	var tracePath string
	var publish bool
	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a flight scenario through the computer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			logger, closer, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			s, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}

			var pub mqtt.Publisher
			if publish {
				p, err := mqtt.NewRealPublisher(mqtt.Options{
					Broker:      cfg.MQTT.Broker,
					ClientID:    cfg.MQTT.ClientID + "-replay",
					TopicPrefix: cfg.MQTT.TopicPrefix,
					Buffer:      cfg.MQTT.Buffer,
				}, logger.WithPrefix("mqtt"))
				if err != nil {
					return fmt.Errorf("init mqtt: %w", err)
				}
				defer p.Close()
				pub = p
			}

			var out io.Writer
			if tracePath != "" {
				f, err := os.Create(tracePath)
				if err != nil {
					return fmt.Errorf("create trace: %w", err)
				}
				defer f.Close()
				out = f
			}
			return replay(s, time.Now(), cmd.OutOrStdout(), out, pub, logger)
		},
	}
	cmd.Flags().StringVarP(&tracePath, "trace", "t", "", "write a trace of every tick to this file")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish events to the configured MQTT broker")
	return cmd
}

// replay runs s, printing every event to w. With traceOut set, every tick is
// recorded; with pub set, events are also published.
func replay(s *scenario.Scenario, start time.Time, w, traceOut io.Writer, pub mqtt.Publisher, logger *log.Logger) error {
	var tw *trace.Writer
	if traceOut != nil {
		var err error
		tw, err = trace.NewWriter(traceOut, trace.Header{
			Version:  trace.Version,
			Scenario: s.Name,
			Tick:     s.Tick,
			Created:  start.UTC(),
			Pins:     s.Pins,
		})
		if err != nil {
			return err
		}
	}

	detector := events.NewDetector(start)
	var sample events.Sample
	obs := scenario.ObserverFunc(func(t scenario.Tick) error {
		sample = sampleOfTick(start.Add(t.Elapsed), t, sample)
		for _, e := range detector.Process(sample) {
			if _, err := fmt.Fprintf(w, "%8v  %-16s %s\n", t.Elapsed, e.Type, e.Aural); err != nil {
				return err
			}
			if pub != nil {
				if err := pub.Publish(e); err != nil {
					logger.Warn("publish error", "err", err)
				}
			}
		}
		if tw != nil {
			return tw.Observe(t)
		}
		return nil
	})

	res, err := scenario.Run(s, obs)
	if err != nil {
		if tw != nil {
			// keep the ticks recorded so far
			err = errors.Join(err, tw.Close())
		}
		return err
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return fmt.Errorf("close trace: %w", err)
		}
	}

	fmt.Fprintf(w, "%s: %d ticks, %v\n", s.Name, res.Ticks, res.Elapsed)
	for _, f := range res.Failures {
		fmt.Fprintf(w, "FAIL %s\n", f)
	}
	if !res.OK() {
		return fmt.Errorf("%s: %d %w", s.Name, len(res.Failures), errExpectations)
	}
	return nil
}

// sampleOfTick is events.SampleOf for a recorded tick.
func sampleOfTick(now time.Time, t scenario.Tick, prev events.Sample) events.Sample {
	s := events.Sample{
		Time:        now,
		Aural:       t.Aural,
		WarningLamp: t.Discrete.WarningLamp,
		AlertLamp:   t.Discrete.AlertLamp,
		GPWSInop:    t.Discrete.GPWSInop,
		OnGround:    prev.OnGround,
		Phase:       prev.Phase,
	}
	if t.Running {
		s.Initialized = t.Snapshot.Initialized
		s.OnGround = t.Snapshot.OnGround
		s.Phase = t.Snapshot.Phase
	}
	return s
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <a.trace> <b.trace>",
		Short: "Compare two traces tick by tick",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return verify(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func verify(w io.Writer, pathA, pathB string) error {
	a, err := openTrace(pathA)
	if err != nil {
		return err
	}
	defer a.Close()
	b, err := openTrace(pathB)
	if err != nil {
		return err
	}
	defer b.Close()

	n, err := trace.Compare(a.r, b.r)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "identical: %d ticks\n", n)
	return nil
}

type openedTrace struct {
	f *os.File
	r *trace.Reader
}

func openTrace(path string) (*openedTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	r, err := trace.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &openedTrace{f: f, r: r}, nil
}

func (o *openedTrace) Close() {
	o.r.Close()
	o.f.Close()
}

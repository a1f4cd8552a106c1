package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sweeney/egpwc/internal/egpws"
	"github.com/sweeney/egpwc/internal/gpio"
	"github.com/sweeney/egpwc/internal/serialbus"
)

func newPrintStateCmd(g *globalFlags) *cobra.Command {
	var ports bool
	cmd := &cobra.Command{
		Use:   "print-state",
		Short: "Print the current cockpit discretes and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if ports {
				if err := printPorts(w); err != nil {
					return err
				}
			}

			reader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.Inputs(), cfg.GPIO.ActiveLow)
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer reader.Close()
			return printState(w, reader)
		},
	}
	cmd.Flags().BoolVar(&ports, "ports", false, "also list the serial ports present")
	return cmd
}

func printState(w io.Writer, r gpio.Reader) error {
	d, err := r.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	printDiscretes(w, d)
	return nil
}

func printDiscretes(w io.Writer, d egpws.DiscreteInputs) {
	for _, l := range []struct {
		name string
		on   bool
	}{
		{"gpws_inhibit", d.GPWSInhibit},
		{"audio_inhibit", d.AudioInhibit},
		{"landing_flaps", d.LandingFlaps},
		{"landing_gear_downlocked", d.LandingGearDownlocked},
		{"glideslope_inhibit", d.GlideslopeInhibit},
		{"gs_cancel", d.GSCancel},
		{"sim_reposition_active", d.SimRepositionActive},
	} {
		fmt.Fprintf(w, "%-24s %s\n", l.name, stateString(l.on))
	}
}

func printPorts(w io.Writer) error {
	ports, err := serialbus.Ports()
	if err != nil {
		return err
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Fprintf(w, "%s  usb %s:%s %s\n", p.Name, p.VID, p.PID, p.SerialNumber)
		} else {
			fmt.Fprintf(w, "%s\n", p.Name)
		}
	}
	return nil
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

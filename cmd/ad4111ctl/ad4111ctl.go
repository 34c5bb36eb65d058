// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// A utility to control an AD4111 ADC on a bit bashed SPI bus.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-ad4111"
	"github.com/warthog618/go-ad4111/device/rpi"
	"github.com/warthog618/go-ad4111/spi"
	"github.com/warthog618/go-gpiocdev"
)

var rootCmd = &cobra.Command{
	Use:   "ad4111ctl",
	Short: "ad4111ctl is a utility to control an AD4111 ADC",
	Long:  "ad4111ctl is a utility to control an AD4111 ADC wired to GPIO lines",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var rootOpts = struct {
	Chip  string
	Sclk  string
	Cs    string
	Mosi  string
	Miso  string
	Tclk  time.Duration
	Trace bool
}{}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootOpts.Chip, "chip", "c", "gpiochip0", "GPIO character device")
	pf.StringVar(&rootOpts.Sclk, "sclk", "J8p23", "serial clock pin")
	pf.StringVar(&rootOpts.Cs, "cs", "J8p24", "chip select pin")
	pf.StringVar(&rootOpts.Mosi, "mosi", "J8p19", "data out pin")
	pf.StringVar(&rootOpts.Miso, "miso", "J8p21", "data in pin")
	pf.DurationVar(&rootOpts.Tclk, "tclk", 2*time.Microsecond, "clock half-cycle period")
	pf.BoolVar(&rootOpts.Trace, "trace", false, "trace bus transactions to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "ad4111ctl %s: %s\n", cmd.Name(), err)
}

// openADC opens the ADC on the configured bus lines.
//
// An identity mismatch is reported as a warning, not an error - raw
// register access may still be useful on an unverified device.
func openADC(cmd *cobra.Command) (*ad4111.ADC, error) {
	var pins [4]int
	for i, name := range []string{rootOpts.Sclk, rootOpts.Cs, rootOpts.Mosi, rootOpts.Miso} {
		v, err := rpi.Pin(name)
		if err != nil {
			return nil, fmt.Errorf("pin %s: %w", name, err)
		}
		pins[i] = v
	}
	c, err := gpiocdev.NewChip(rootOpts.Chip, gpiocdev.WithConsumer("ad4111ctl"))
	if err != nil {
		return nil, err
	}
	// requested lines outlive the chip handle
	defer c.Close()
	s, err := spi.New(c, pins[0], pins[1], pins[2], pins[3],
		spi.WithTclk(rootOpts.Tclk))
	if err != nil {
		return nil, err
	}
	var opts []ad4111.Option
	if rootOpts.Trace {
		opts = append(opts, ad4111.WithTrace(traceToStderr))
	}
	adc, err := ad4111.New(s, opts...)
	if err == ad4111.ErrBadDeviceID {
		fmt.Fprintf(os.Stderr, "ad4111ctl %s: warning: %s\n", cmd.Name(), err)
		err = nil
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return adc, nil
}

func traceToStderr(op string, reg ad4111.Register, data []byte) {
	if data == nil {
		fmt.Fprintf(os.Stderr, "%s\n", op)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %#02x % 02x\n", op, uint8(reg), data)
}

func parseMode(s string) (ad4111.Mode, error) {
	switch s {
	case "continuous":
		return ad4111.ContinuousConversion, nil
	case "single":
		return ad4111.SingleConversion, nil
	case "continuous-read":
		return ad4111.ContinuousRead, nil
	}
	return 0, fmt.Errorf("unknown mode '%s'", s)
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// A utility to read a channel of an AD4111 ADC.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/keys"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/go-ad4111"
	"github.com/warthog618/go-ad4111/device/rpi"
	"github.com/warthog618/go-ad4111/spi"
	"github.com/warthog618/go-gpiocdev"
)

var version = "undefined"

func main() {
	cfg, flags := loadConfig()
	slot := parseSlot(flags.Args()[0])
	adc := openADC(cfg)
	defer adc.Close()
	if err := adc.SetChannel(ad4111.Channel(slot), true); err != nil {
		die("error enabling channel:" + err.Error())
	}
	if err := adc.SetMode(ad4111.ContinuousConversion); err != nil {
		die("error setting mode:" + err.Error())
	}
	count := int(cfg.MustGet("count").Int())
	timeout := cfg.MustGet("timeout").Duration()
	coarse := cfg.MustGet("coarse").Bool()
	for i := 0; i < count; i++ {
		if err := waitReady(adc, timeout); err != nil {
			die(err.Error())
		}
		s, err := adc.ReadSample()
		if err != nil {
			die("error reading sample:" + err.Error())
		}
		if coarse {
			fmt.Println(s.Coarse())
		} else {
			fmt.Println(s.Int32())
		}
	}
}

func openADC(cfg *config.Config) *ad4111.ADC {
	pin := func(key string) int {
		v, err := rpi.Pin(cfg.MustGet(key).String())
		if err != nil {
			die(fmt.Sprintf("can't parse %s pin", key))
		}
		return v
	}
	sclk, cs, mosi, miso := pin("sclk"), pin("cs"), pin("mosi"), pin("miso")
	c, err := gpiocdev.NewChip(cfg.MustGet("chip").String(),
		gpiocdev.WithConsumer("ad4111get"))
	if err != nil {
		die(err.Error())
	}
	defer c.Close()
	s, err := spi.New(c, sclk, cs, mosi, miso,
		spi.WithTclk(cfg.MustGet("tclk").Duration()))
	if err != nil {
		die("error requesting bus lines:" + err.Error())
	}
	adc, err := ad4111.New(s)
	if err == ad4111.ErrBadDeviceID {
		fmt.Fprintln(os.Stderr, "ad4111get: warning: device ID mismatch")
		err = nil
	}
	if err != nil {
		die("error opening ADC:" + err.Error())
	}
	return adc
}

func waitReady(adc *ad4111.ADC, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ready, err := adc.Ready()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for data ready")
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func parseSlot(arg string) int {
	slot := 0
	if _, err := fmt.Sscanf(arg, "%d", &slot); err != nil || slot < 0 || slot > 15 {
		die(fmt.Sprintf("can't parse channel slot '%s'", arg))
	}
	return slot
}

func loadConfig() (*config.Config, *pflag.Getter) {
	ff := []pflag.Flag{
		{Short: 'h', Name: "help", Options: pflag.IsBool},
		{Short: 'v', Name: "version", Options: pflag.IsBool},
		{Short: 'c', Name: "chip"},
		{Short: 'n', Name: "count"},
		{Short: 'x', Name: "coarse", Options: pflag.IsBool},
		{Name: "sclk"},
		{Name: "cs"},
		{Name: "mosi"},
		{Name: "miso"},
		{Name: "tclk"},
		{Name: "timeout"},
	}
	defaults := dict.New(dict.WithMap(
		map[string]interface{}{
			"help":    false,
			"version": false,
			"chip":    "gpiochip0",
			"sclk":    "J8p23",
			"cs":      "J8p24",
			"mosi":    "J8p19",
			"miso":    "J8p21",
			"tclk":    "2us",
			"count":   1,
			"timeout": "1s",
			"coarse":  false,
		}))
	flags := pflag.New(pflag.WithFlags(ff),
		pflag.WithKeyReplacer(keys.NullReplacer()),
	)
	cfg := config.New(flags, config.WithDefault(defaults))
	if cfg.MustGet("help").Bool() {
		printHelp()
		os.Exit(0)
	}
	if cfg.MustGet("version").Bool() {
		printVersion()
		os.Exit(0)
	}
	if flags.NArg() == 0 {
		die("channel slot must be specified")
	}
	return cfg, flags
}

func die(reason string) {
	fmt.Fprintln(os.Stderr, "ad4111get: "+reason)
	os.Exit(1)
}

func printHelp() {
	fmt.Printf("Usage: %s [OPTIONS] <slot>\n", os.Args[0])
	fmt.Println("Read sample(s) from a channel slot of an AD4111 ADC.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help:\t\tdisplay this message and exit")
	fmt.Println("  -v, --version:\tdisplay the version and exit")
	fmt.Println("  -c, --chip:\t\tGPIO character device (default gpiochip0)")
	fmt.Println("  -n, --count:\t\tnumber of samples to read (default 1)")
	fmt.Println("  -x, --coarse:\t\tprint the reduced precision 10-bit value")
	fmt.Println("  --sclk, --cs, --mosi, --miso:\tbus pins (default SPI0 on J8)")
	fmt.Println("  --tclk:\t\tclock half-cycle period (default 2us)")
	fmt.Println("  --timeout:\t\ttime to wait for each sample (default 1s)")
}

func printVersion() {
	fmt.Printf("%s (ad4111) %s\n", os.Args[0], version)
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// ad4111d periodically samples an AD4111 ADC and publishes the readings
// to Redis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/librescoot/librefsm"
	"github.com/warthog618/go-ad4111"
	"github.com/warthog618/go-ad4111/device/rpi"
	"github.com/warthog618/go-ad4111/spi"
	"github.com/warthog618/go-gpiocdev"
)

type daemon struct {
	logger    *Logger
	adc       *ad4111.ADC
	publisher *Publisher
	machine   *librefsm.Machine

	slots    []int
	rate     ad4111.DataRate
	interval time.Duration
	timeout  time.Duration

	configured bool
	next       int

	mu       sync.Mutex
	curState librefsm.StateID
}

func (d *daemon) state() librefsm.StateID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.curState
}

func main() {
	var (
		logLevel  int
		redisHost string
		redisPort int
		chip      string
		sclk      string
		cs        string
		mosi      string
		miso      string
		tclk      time.Duration
		channels  string
		rate      uint
		interval  time.Duration
		timeout   time.Duration
	)
	flag.IntVar(&logLevel, "log", 3, "log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flag.StringVar(&redisHost, "redis-host", "127.0.0.1", "Redis host")
	flag.IntVar(&redisPort, "redis-port", 6379, "Redis port")
	flag.StringVar(&chip, "chip", "gpiochip0", "GPIO character device")
	flag.StringVar(&sclk, "sclk", "J8p23", "serial clock pin")
	flag.StringVar(&cs, "cs", "J8p24", "chip select pin")
	flag.StringVar(&mosi, "mosi", "J8p19", "data out pin")
	flag.StringVar(&miso, "miso", "J8p21", "data in pin")
	flag.DurationVar(&tclk, "tclk", 2*time.Microsecond, "clock half-cycle period")
	flag.StringVar(&channels, "channels", "0", "comma separated channel slots to sample")
	flag.UintVar(&rate, "rate", uint(ad4111.Rate1007), "output rate code")
	flag.DurationVar(&interval, "interval", time.Second, "delay between samples (0 to free run)")
	flag.DurationVar(&timeout, "timeout", time.Second, "time to wait for each sample")
	flag.Parse()

	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// running under systemd, which supplies its own timestamps
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}
	l := NewLogger(stdLogger, LogLevel(logLevel))

	slots, err := parseSlots(channels)
	if err != nil {
		l.Fatalf("%v", err)
	}

	l.Infof("Starting ad4111d...")
	adc, err := openADC(chip, sclk, cs, mosi, miso, tclk, l)
	if err != nil {
		l.Fatalf("Failed to open ADC: %v", err)
	}
	defer adc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewPublisher(redisHost, redisPort, l)
	if err = publisher.Connect(ctx); err != nil {
		l.Fatalf("%v", err)
	}
	defer publisher.Close()

	d := daemon{
		logger:    l,
		adc:       adc,
		publisher: publisher,
		slots:     slots,
		rate:      ad4111.DataRate(rate),
		interval:  interval,
		timeout:   timeout,
		curState:  StateConfiguring,
	}
	machine, err := d.newMachine()
	if err != nil {
		l.Fatalf("Failed to build state machine: %v", err)
	}
	d.machine = machine
	machine.OnStateChange(func(from, to librefsm.StateID) {
		d.mu.Lock()
		d.curState = to
		d.mu.Unlock()
		l.Infof("State transition: %s -> %s", from, to)
		if err := publisher.PublishState(ctx, string(to)); err != nil {
			l.Warnf("Failed to publish state: %v", err)
		}
	})
	if err = machine.Start(ctx); err != nil {
		l.Fatalf("Failed to start state machine: %v", err)
	}

	go d.run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	l.Infof("Received signal %v, shutting down...", sig)
	cancel()
}

func openADC(chip, sclk, cs, mosi, miso string, tclk time.Duration, l *Logger) (*ad4111.ADC, error) {
	var pins [4]int
	for i, name := range []string{sclk, cs, mosi, miso} {
		v, err := rpi.Pin(name)
		if err != nil {
			return nil, fmt.Errorf("pin %s: %w", name, err)
		}
		pins[i] = v
	}
	c, err := gpiocdev.NewChip(chip, gpiocdev.WithConsumer("ad4111d"))
	if err != nil {
		return nil, err
	}
	defer c.Close()
	s, err := spi.New(c, pins[0], pins[1], pins[2], pins[3], spi.WithTclk(tclk))
	if err != nil {
		return nil, err
	}
	adc, err := ad4111.New(s, ad4111.WithTrace(
		func(op string, reg ad4111.Register, data []byte) {
			l.Debugf("bus %s %#02x % 02x", op, uint8(reg), data)
		}))
	if err == ad4111.ErrBadDeviceID {
		l.Warnf("Device ID mismatch - proceeding with unverified device")
		err = nil
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return adc, nil
}

func parseSlots(arg string) ([]int, error) {
	var slots []int
	for _, f := range strings.Split(arg, ",") {
		slot, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || slot < 0 || slot > 15 {
			return nil, fmt.Errorf("can't parse channel slot '%s'", f)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

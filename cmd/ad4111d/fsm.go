// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/librescoot/librefsm"
	"github.com/warthog618/go-ad4111"
)

// Acquisition states
const (
	StateConfiguring librefsm.StateID = "configuring"
	StateSampling    librefsm.StateID = "sampling"
	StateFault       librefsm.StateID = "fault"
)

// Acquisition events
const (
	EvConfigured   librefsm.EventID = "configured"
	EvFault        librefsm.EventID = "fault"
	EvRetryTimeout librefsm.EventID = "retry-timeout"
)

// RetryInterval is how long a fault holds before reconfiguring the device.
const RetryInterval = 5 * time.Second

// newMachine builds the acquisition state machine.
//
// The device is (re)configured on entry to configuring; any bus or device
// fault parks the machine in fault, which times out back into
// configuring. The sampling loop itself runs outside the machine and
// feeds it events.
func (d *daemon) newMachine() (*librefsm.Machine, error) {
	return librefsm.NewDefinition().
		State(StateConfiguring,
			librefsm.WithOnEnter(d.enterConfiguring),
		).
		State(StateSampling,
			librefsm.WithOnEnter(d.enterSampling),
		).
		State(StateFault,
			librefsm.WithOnEnter(d.enterFault),
			librefsm.WithTimeout(RetryInterval, EvRetryTimeout),
		).
		Transition(StateConfiguring, EvConfigured, StateSampling).
		Transition(StateConfiguring, EvFault, StateFault).
		Transition(StateSampling, EvFault, StateFault).
		Transition(StateFault, EvRetryTimeout, StateConfiguring).
		Initial(StateConfiguring).
		Build()
}

func (d *daemon) sendEvent(event librefsm.EventID) {
	if err := d.machine.SendSync(librefsm.Event{ID: event}); err != nil {
		d.logger.Errorf("Failed to send %s event: %v", event, err)
	}
}

// enterConfiguring applies the full device configuration from scratch.
func (d *daemon) enterConfiguring(c *librefsm.Context) error {
	d.configured = false
	if err := d.configure(); err != nil {
		d.logger.Errorf("Device configuration failed: %v", err)
		return nil
	}
	d.configured = true
	return nil
}

func (d *daemon) enterSampling(c *librefsm.Context) error {
	d.logger.Infof("Sampling %d channel(s) at rate code %#02x", len(d.slots), uint16(d.rate))
	return nil
}

func (d *daemon) enterFault(c *librefsm.Context) error {
	d.logger.Warnf("Acquisition fault, retrying in %s", RetryInterval)
	return nil
}

// configure resets the device and applies channel, rate and mode settings.
// Reset drops the device to power-on defaults, so everything is reapplied.
func (d *daemon) configure() error {
	if err := d.adc.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	for _, slot := range d.slots {
		if err := d.adc.SetChannel(ad4111.Channel(slot), true); err != nil {
			return fmt.Errorf("channel %d: %w", slot, err)
		}
	}
	if err := d.adc.SetDataRate(d.rate); err != nil {
		return fmt.Errorf("data rate: %w", err)
	}
	if err := d.adc.SetMode(ad4111.ContinuousConversion); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	return nil
}

// run drives the machine from outside - entry actions must not send
// events into the machine from within their own transition.
func (d *daemon) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		switch d.state() {
		case StateConfiguring:
			if d.configured {
				d.sendEvent(EvConfigured)
			} else {
				d.sendEvent(EvFault)
			}
		case StateSampling:
			if err := d.sampleOnce(ctx); err != nil {
				d.logger.Errorf("Sampling failed: %v", err)
				d.sendEvent(EvFault)
			}
		case StateFault:
			// the fault state timeout drives recovery
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func (d *daemon) sampleOnce(ctx context.Context) error {
	deadline := time.Now().Add(d.timeout)
	for {
		ready, err := d.adc.Ready()
		if err != nil {
			return err
		}
		if ready {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for data ready")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Microsecond):
		}
	}
	s, err := d.adc.ReadSample()
	if err != nil {
		return err
	}
	// with multiple slots enabled the device cycles through them in
	// order, so track which slot this result belongs to
	slot := d.slots[d.next]
	d.next = (d.next + 1) % len(d.slots)
	d.logger.Debugf("ch%d = %d", slot, s.Int32())
	if err := d.publisher.Publish(ctx, slot, s.Int32()); err != nil {
		d.logger.Warnf("Failed to publish sample: %v", err)
	}
	if d.interval > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.interval):
		}
	}
	return nil
}

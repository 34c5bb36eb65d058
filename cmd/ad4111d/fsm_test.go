// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/librescoot/librefsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-ad4111"
)

// fakeBus is a minimal transport that answers the identity read at open
// and sinks all other traffic. Setting fail makes every exchange error.
type fakeBus struct {
	rd   []byte
	cmd  bool
	fail bool
}

func (b *fakeBus) Transfer(w byte) (byte, error) {
	if b.fail {
		return 0, errors.New("bus fault")
	}
	if len(b.rd) > 0 {
		v := b.rd[0]
		b.rd = b.rd[1:]
		return v, nil
	}
	if b.cmd {
		b.cmd = false
		if w == byte(ad4111.ID)|0x40 {
			b.rd = []byte{0x30, 0xd5}
		}
		return 0, nil
	}
	if w == byte(ad4111.Comms) {
		b.cmd = true
	}
	return 0, nil
}

func (b *fakeBus) Assert() error { return nil }

func (b *fakeBus) Deassert() error {
	b.cmd = false
	b.rd = nil
	return nil
}

func (b *fakeBus) Close() error { return nil }

func newTestDaemon(t *testing.T, bus *fakeBus) *daemon {
	t.Helper()
	adc, err := ad4111.New(bus)
	require.Nil(t, err)
	require.NotNil(t, adc)
	return &daemon{
		logger:   NewLogger(log.New(io.Discard, "", 0), LogLevelNone),
		adc:      adc,
		slots:    []int{0, 1},
		rate:     ad4111.Rate1007,
		timeout:  time.Second,
		curState: StateConfiguring,
	}
}

func TestNewMachine(t *testing.T) {
	d := newTestDaemon(t, &fakeBus{})
	m, err := d.newMachine()
	require.Nil(t, err)
	require.NotNil(t, m)
}

func TestMachineStartConfigures(t *testing.T) {
	d := newTestDaemon(t, &fakeBus{})
	m, err := d.newMachine()
	require.Nil(t, err)
	d.machine = m
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.Nil(t, m.Start(ctx))
	assert.Equal(t, StateConfiguring, m.CurrentState())
	// entry action applies the device configuration
	assert.Eventually(t, func() bool { return d.configured },
		time.Second, time.Millisecond)
}

func TestMachineTransitions(t *testing.T) {
	d := newTestDaemon(t, &fakeBus{})
	m, err := d.newMachine()
	require.Nil(t, err)
	d.machine = m
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.Nil(t, m.Start(ctx))
	var mu sync.Mutex
	var seen []librefsm.StateID
	m.OnStateChange(func(from, to librefsm.StateID) {
		mu.Lock()
		seen = append(seen, to)
		mu.Unlock()
	})
	require.Nil(t, m.SendSync(librefsm.Event{ID: EvConfigured}))
	assert.Equal(t, StateSampling, m.CurrentState())
	require.Nil(t, m.SendSync(librefsm.Event{ID: EvFault}))
	assert.Equal(t, StateFault, m.CurrentState())
	require.Nil(t, m.SendSync(librefsm.Event{ID: EvRetryTimeout}))
	assert.Equal(t, StateConfiguring, m.CurrentState())
	mu.Lock()
	assert.Equal(t, []librefsm.StateID{StateSampling, StateFault, StateConfiguring}, seen)
	mu.Unlock()
}

func TestMachineConfigureFault(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDaemon(t, bus)
	m, err := d.newMachine()
	require.Nil(t, err)
	d.machine = m
	bus.fail = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.Nil(t, m.Start(ctx))
	assert.False(t, d.configured)
	require.Nil(t, m.SendSync(librefsm.Event{ID: EvFault}))
	assert.Equal(t, StateFault, m.CurrentState())
	// device recovers before the retry fires
	bus.fail = false
	require.Nil(t, m.SendSync(librefsm.Event{ID: EvRetryTimeout}))
	assert.Equal(t, StateConfiguring, m.CurrentState())
	assert.Eventually(t, func() bool { return d.configured },
		time.Second, time.Millisecond)
}

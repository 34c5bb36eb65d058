// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package spi provides a bit bashed SPI transport for the AD4111 using
// GPIO lines.
//
// This is not related to the SPI device drivers provided by Linux - the
// bus is clocked directly through the GPIO character device, so it is slow
// but works on any exposed header pins.
package spi

import (
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// SPI implements the synchronous full-duplex byte exchange consumed by the
// ad4111 driver.
//
// The default framing is SPI mode 3 - clock idle high, data sampled on the
// trailing edge - as the AD4111 requires. Chip select is active low.
type SPI struct {
	// time between clock edges (i.e. half the cycle time)
	Tclk time.Duration
	Sclk *gpiocdev.Line
	Ssz  *gpiocdev.Line
	Mosi *gpiocdev.Line
	Miso *gpiocdev.Line
	cpol int
	cpha int
}

// New creates a SPI transport from four GPIO lines on the chip.
func New(c *gpiocdev.Chip, sclk, ssz, mosi, miso int, options ...Option) (*SPI, error) {
	s := SPI{cpol: 1, cpha: 1}
	for _, option := range options {
		option(&s)
	}
	if s.Tclk == 0 {
		// default to 1MHz full cycle.
		s.Tclk = 500 * time.Nanosecond
	}
	var err error
	var l *gpiocdev.Line
	defer func() {
		if err != nil {
			s.Close()
		}
	}()
	// hold the device deselected until needed...
	l, err = c.RequestLine(ssz, gpiocdev.AsOutput(1))
	if err != nil {
		return nil, err
	}
	s.Ssz = l
	l, err = c.RequestLine(sclk, gpiocdev.AsOutput(s.cpol))
	if err != nil {
		return nil, err
	}
	s.Sclk = l
	l, err = c.RequestLine(miso, gpiocdev.AsInput)
	if err != nil {
		return nil, err
	}
	s.Miso = l
	l, err = c.RequestLine(mosi, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	s.Mosi = l
	return &s, nil
}

// Close releases the GPIO lines allocated to the transport.
func (s *SPI) Close() error {
	if s.Sclk != nil {
		s.Sclk.Close()
	}
	if s.Miso != nil {
		s.Miso.Close()
	}
	if s.Mosi != nil {
		s.Mosi.Close()
	}
	if s.Ssz != nil {
		s.Ssz.Close()
	}
	return nil
}

// Assert drives the chip select active.
func (s *SPI) Assert() error {
	return s.Ssz.SetValue(0)
}

// Deassert drives the chip select inactive.
//
// The line is held inactive for a clock period, so a Deassert/Assert pair
// provides the gap required to abort a partially framed transaction.
func (s *SPI) Deassert() error {
	if err := s.Ssz.SetValue(1); err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	return nil
}

// Transfer exchanges one byte with the device, MSB first.
func (s *SPI) Transfer(out byte) (byte, error) {
	var in byte
	for i := 7; i >= 0; i-- {
		v, err := s.transferBit(int(out>>uint(i)) & 0x01)
		if err != nil {
			return 0, err
		}
		in = in<<1 | byte(v)
	}
	return in, nil
}

// Ready returns true when the device signals a conversion result is
// available.
//
// The AD4111 multiplexes data ready onto Miso, driven low while the device
// is selected and a result is pending.
func (s *SPI) Ready() (bool, error) {
	v, err := s.Miso.Value()
	if err != nil {
		return false, err
	}
	return v == 0, nil
}

// transferBit clocks one bit out on Mosi and in from Miso.
//
// Starts and ends with the clock idle. With CPHA=1 the output is driven on
// the leading edge and the input sampled on the trailing edge. With CPHA=0
// the output is driven while idle and the input sampled on the leading
// edge.
func (s *SPI) transferBit(out int) (in int, err error) {
	active := 1 - s.cpol
	if s.cpha == 0 {
		if err = s.Mosi.SetValue(out); err != nil {
			return
		}
		time.Sleep(s.Tclk)
		if err = s.Sclk.SetValue(active); err != nil {
			return
		}
		if in, err = s.Miso.Value(); err != nil {
			return
		}
		time.Sleep(s.Tclk)
		err = s.Sclk.SetValue(s.cpol)
		return
	}
	if err = s.Sclk.SetValue(active); err != nil {
		return
	}
	if err = s.Mosi.SetValue(out); err != nil {
		return
	}
	time.Sleep(s.Tclk)
	if err = s.Sclk.SetValue(s.cpol); err != nil {
		return
	}
	if in, err = s.Miso.Value(); err != nil {
		return
	}
	time.Sleep(s.Tclk)
	return
}

// Option specifies a construction option for the SPI.
type Option func(*SPI)

// WithCPOL sets the clock polarity for the SPI.
func WithCPOL(cpol int) Option {
	return func(s *SPI) {
		s.cpol = cpol
	}
}

// WithCPHA sets the clock phase for the SPI.
func WithCPHA(cpha int) Option {
	return func(s *SPI) {
		s.cpha = cpha
	}
}

// WithTclk sets the clock period for the SPI.
//
// Note that this is the half-cycle period.
func WithTclk(tclk time.Duration) Option {
	return func(s *SPI) {
		s.Tclk = tclk
	}
}

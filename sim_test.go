// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package ad4111_test

import (
	"github.com/warthog618/go-ad4111"
)

// sim is an in-memory model of the device's serial interface, standing in
// for real hardware in the driver tests.
//
// It implements the comms register framing - a zero framing byte, a
// command byte, then the register payload - against a register file with
// per-register widths, and mimics the streaming behaviour of continuous
// read mode and the all-ones reset pattern.
type sim struct {
	regs map[ad4111.Register][]byte

	// mosi is a log of every byte clocked out by the driver.
	mosi []byte

	xfers     int
	asserted  bool
	deasserts int
	resets    int
	closed    bool

	// frame parser state
	cmdPending bool   // framing byte seen, command byte next
	rd         []byte // remaining bytes of a read frame
	wr         []byte // accumulated bytes of a write frame
	wrReg      ad4111.Register
	wrLen      int

	streaming bool
	stream    []byte

	ones int
}

// regWidths lists the registers that are not the default 2 bytes wide.
var regWidths = map[ad4111.Register]int{
	ad4111.RegCheck: 3,
	ad4111.Data:     3,
}

func newSim() *sim {
	s := sim{regs: map[ad4111.Register][]byte{}}
	s.powerOn()
	return &s
}

func (s *sim) powerOn() {
	s.regs[ad4111.ID] = []byte{0x30, 0xd5}
	s.regs[ad4111.ADCMode] = []byte{0x00, 0x00}
	s.regs[ad4111.IfMode] = []byte{0x00, 0x00}
	s.regs[ad4111.Data] = []byte{0x00, 0x00, 0x00}
	s.streaming = false
	s.abortFrame()
}

func (s *sim) width(reg ad4111.Register) int {
	if w, ok := regWidths[reg]; ok {
		return w
	}
	if reg >= 0x30 { // offset and gain blocks
		return 3
	}
	return 2
}

func (s *sim) reg(reg ad4111.Register) []byte {
	v, ok := s.regs[reg]
	if !ok {
		v = make([]byte, s.width(reg))
		s.regs[reg] = v
	}
	return v
}

func (s *sim) abortFrame() {
	s.cmdPending = false
	s.rd = nil
	s.wr = nil
	s.stream = nil
}

func (s *sim) Assert() error {
	s.asserted = true
	return nil
}

func (s *sim) Deassert() error {
	s.asserted = false
	s.deasserts++
	// chip select toggling realigns the interface
	s.abortFrame()
	s.streaming = false
	return nil
}

func (s *sim) Close() error {
	s.closed = true
	return nil
}

func (s *sim) Transfer(out byte) (byte, error) {
	s.xfers++
	s.mosi = append(s.mosi, out)

	// the reset pattern applies in any interface state
	if out == 0xff {
		s.ones++
		if s.ones >= 16 {
			s.resets++
			s.ones = 0
			s.powerOn()
			return 0xff, nil
		}
	} else {
		s.ones = 0
	}

	if s.streaming {
		if len(s.stream) == 0 {
			s.stream = append([]byte(nil), s.reg(ad4111.Data)...)
		}
		v := s.stream[0]
		s.stream = s.stream[1:]
		return v, nil
	}

	switch {
	case len(s.rd) > 0:
		v := s.rd[0]
		s.rd = s.rd[1:]
		return v, nil
	case s.wr != nil:
		s.wr = append(s.wr, out)
		if len(s.wr) == s.wrLen {
			s.regs[s.wrReg] = s.wr
			if s.wrReg == ad4111.IfMode && s.wr[1]&0x08 != 0 {
				s.streaming = true
			}
			s.wr = nil
		}
		return 0xff, nil
	case s.cmdPending:
		s.cmdPending = false
		reg := ad4111.Register(out & 0x3f)
		if out&0x40 != 0 {
			s.rd = append([]byte(nil), s.reg(reg)...)
		} else {
			s.wrReg = reg
			s.wrLen = s.width(reg)
			s.wr = []byte{}
		}
		return 0xff, nil
	case out == 0x00:
		s.cmdPending = true
		return 0xff, nil
	}
	// unfriendly input with no frame in progress - ignored, as the real
	// device ignores anything until the comms register is addressed
	return 0xff, nil
}

// Ready implements ad4111.Readier.
func (s *sim) Ready() (bool, error) {
	return true, nil
}

// mosiSince returns the bytes clocked out after mark.
func (s *sim) mosiSince(mark int) []byte {
	return s.mosi[mark:]
}

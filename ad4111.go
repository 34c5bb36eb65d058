// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package ad4111 provides a driver for the AD4111 family of multi-channel
// sigma-delta ADCs.
//
// The driver implements the register transaction protocol and conversion
// mode handling, and is agnostic to the underlying SPI bus - any Transport
// providing a synchronous full-duplex byte exchange will do. A bit bashed
// implementation over GPIO lines is provided in the spi subpackage.
//
// Example of use:
//
//	adc, err := ad4111.New(t)
//	if err != nil {
//		panic(err)
//	}
//	adc.SetChannel(ad4111.Channel(0), true)
//	adc.SetMode(ad4111.SingleConversion)
//	for {
//		ready, _ := adc.Ready()
//		if !ready {
//			continue
//		}
//		s, err := adc.ReadSample()
//		if err != nil {
//			panic(err)
//		}
//		fmt.Println(s.Int32())
//	}
package ad4111

import (
	"errors"
	"sync"
)

// Transport is the synchronous byte exchange primitive the driver drives.
//
// The transport owns the chip select line and the bus timing. It must
// provide SPI mode 3 framing - clock idle high with data sampled on the
// trailing edge. A Deassert followed by an Assert must leave at least one
// clock period between the two edges so the pair aborts any partially
// framed transaction in the device.
type Transport interface {
	// Transfer exchanges one byte with the device.
	Transfer(out byte) (byte, error)

	// Assert drives the chip select active.
	Assert() error

	// Deassert drives the chip select inactive.
	Deassert() error

	// Close releases the resources held by the transport.
	Close() error
}

// Readier is implemented by transports that can observe the data ready
// line, which the device drives active low.
type Readier interface {
	Ready() (bool, error)
}

// Mode selects how conversion results are addressed and fetched.
type Mode int

const (
	// ContinuousConversion leaves the ADC free-running, with each sample
	// read explicitly addressing the data register.
	//
	// This is the device power-on default.
	ContinuousConversion Mode = iota

	// SingleConversion performs one conversion then powers down.
	SingleConversion

	// ContinuousRead streams samples with no addressing overhead - the
	// data register is implicitly selected after the mode is set.
	ContinuousRead
)

func (m Mode) String() string {
	switch m {
	case ContinuousConversion:
		return "continuous"
	case SingleConversion:
		return "single"
	case ContinuousRead:
		return "continuous-read"
	}
	return "unknown"
}

var (
	// ErrClosed indicates the ADC is closed.
	ErrClosed = errors.New("closed")

	// ErrOutOfRange indicates a register or channel address outside its
	// valid interval. The bus is not touched in this case.
	ErrOutOfRange = errors.New("address out of range")

	// ErrInvalidMode indicates an unrecognized conversion mode. The bus
	// is not touched in this case.
	ErrInvalidMode = errors.New("invalid conversion mode")

	// ErrBadDeviceID indicates the identity register does not match the
	// AD4111 pattern. New returns this together with a usable handle, so
	// the caller decides whether to proceed with an unverified device.
	ErrBadDeviceID = errors.New("device ID mismatch")

	// ErrNoReadyLine indicates the transport provides no data ready
	// indication.
	ErrNoReadyLine = errors.New("transport provides no ready line")
)

// TraceHandler is called after each completed bus operation.
//
// The op is one of "read", "write", "sample", "reset" or "resync", and data
// is the payload transferred, if any. The handler is purely observational
// and must not call back into the ADC.
type TraceHandler func(op string, reg Register, data []byte)

// Option specifies a construction option for the ADC.
type Option func(*ADC)

// WithTrace attaches a trace handler to the ADC.
func WithTrace(h TraceHandler) Option {
	return func(adc *ADC) {
		adc.trace = h
	}
}

// ADC is a handle to an AD4111 device.
//
// The handle owns the bus for the duration of each operation. Operations
// are serialized, so a single handle is safe for concurrent use, but the
// mode state machine assumes it is the only writer to the device.
type ADC struct {
	mu    sync.Mutex
	t     Transport
	mode  Mode
	trace TraceHandler
}

// New creates a handle to the device on the given transport.
//
// The interface is resynchronized and the device identity verified. An
// identity mismatch is reported as ErrBadDeviceID alongside a usable
// handle; any other error means the device is unreachable.
//
// The device is assumed to be in its power-on conversion mode. Call
// SetMode before relying on mode-dependent reads.
func New(t Transport, options ...Option) (*ADC, error) {
	adc := ADC{t: t, mode: ContinuousConversion}
	for _, option := range options {
		option(&adc)
	}
	if err := adc.Resync(); err != nil {
		return nil, err
	}
	var id [2]byte
	if err := adc.ReadRegister(ID, id[:]); err != nil {
		return nil, err
	}
	if id[0] != idByte0 || id[1]&idByte1Msk != idByte1 {
		return &adc, ErrBadDeviceID
	}
	return &adc, nil
}

// Close releases the transport.
func (adc *ADC) Close() error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return ErrClosed
	}
	err := adc.t.Close()
	adc.t = nil
	return err
}

// ReadRegister reads the register into data.
//
// The caller provides the register width through len(data), most
// significant byte first.
func (adc *ADC) ReadRegister(reg Register, data []byte) error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return ErrClosed
	}
	if reg > regMax {
		return ErrOutOfRange
	}
	return adc.readReg(reg, data)
}

// WriteRegister writes data to the register.
//
// The caller provides the register width through len(data), most
// significant byte first.
func (adc *ADC) WriteRegister(reg Register, data []byte) error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return ErrClosed
	}
	if reg > regMax {
		return ErrOutOfRange
	}
	return adc.writeReg(reg, data)
}

// SetChannel enables or disables a channel slot.
//
// The slot's input pair is regenerated from the slot index - positive
// input index, negative input index+1 - discarding any custom mapping
// previously written to the register. The other bits of the first byte
// are preserved.
func (adc *ADC) SetChannel(ch Register, enabled bool) error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return ErrClosed
	}
	if ch < chanMin || ch > chanMax {
		return ErrOutOfRange
	}
	var v [2]byte
	if err := adc.readReg(ch, v[:]); err != nil {
		return err
	}
	v[0] &^= chEnable
	if enabled {
		v[0] |= chEnable
	}
	idx := byte(ch) & 0x0f
	v[1] = idx<<5 | (idx + 1)
	return adc.writeReg(ch, v[:])
}

// SetMode selects the conversion mode.
//
// The transition sequence is fixed regardless of the current mode:
// continuous read framing is always exited first, then the conversion mode
// field is written, then continuous read framing is re-entered if that is
// the target. So ContinuousRead is layered on top of a free-running
// conversion, and repeated calls are idempotent.
func (adc *ADC) SetMode(m Mode) error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return ErrClosed
	}
	switch m {
	case ContinuousConversion, SingleConversion, ContinuousRead:
	default:
		return ErrInvalidMode
	}
	var ifm [2]byte
	if err := adc.readReg(IfMode, ifm[:]); err != nil {
		return err
	}
	ifm[1] &^= ifModeContRead
	if err := adc.writeReg(IfMode, ifm[:]); err != nil {
		return err
	}
	var am [2]byte
	if err := adc.readReg(ADCMode, am[:]); err != nil {
		return err
	}
	am[1] &^= adcModeMask
	if m == SingleConversion {
		am[1] |= adcModeSingle
	}
	if err := adc.writeReg(ADCMode, am[:]); err != nil {
		return err
	}
	if m == ContinuousRead {
		ifm[1] |= ifModeContRead
		if err := adc.writeReg(IfMode, ifm[:]); err != nil {
			return err
		}
	}
	adc.mode = m
	return nil
}

// Mode returns the conversion mode most recently applied to the device.
func (adc *ADC) Mode() Mode {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	return adc.mode
}

// SetDataRate selects the conversion output rate for the primary filter
// configuration, preserving its filter selection bits.
func (adc *ADC) SetDataRate(rate DataRate) error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return ErrClosed
	}
	var v [2]byte
	if err := adc.readReg(FiltCon(0), v[:]); err != nil {
		return err
	}
	f := uint16(v[0])<<8 | uint16(v[1])
	f = f&^rateMask | uint16(rate)&rateMask
	v[0] = byte(f >> 8)
	v[1] = byte(f)
	return adc.writeReg(FiltCon(0), v[:])
}

// ReadSample fetches one raw conversion result.
//
// In ContinuousRead mode the data register is implicitly selected and only
// the sample bytes are clocked. In the other modes the data register is
// explicitly addressed first.
//
// The sample is only meaningful once the device has signalled data ready -
// readiness is not checked here. Poll Ready before calling.
func (adc *ADC) ReadSample() (Sample, error) {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	var s Sample
	if adc.t == nil {
		return s, ErrClosed
	}
	if adc.mode != ContinuousRead {
		if _, err := adc.t.Transfer(byte(Comms)); err != nil {
			return s, err
		}
		if _, err := adc.t.Transfer(byte(Data) | cmdRead); err != nil {
			return s, err
		}
	}
	for i := range s {
		v, err := adc.t.Transfer(filler)
		if err != nil {
			return s, err
		}
		s[i] = v
	}
	adc.traceOp("sample", Data, s[:])
	return s, nil
}

// Ready returns true when the device signals a conversion result is
// available, or ErrNoReadyLine if the transport cannot observe it.
func (adc *ADC) Ready() (bool, error) {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return false, ErrClosed
	}
	r, ok := adc.t.(Readier)
	if !ok {
		return false, ErrNoReadyLine
	}
	return r.Ready()
}

// Reset returns the device to its power-on state.
//
// The vendor specified pattern of 16 all-ones bytes is clocked out with no
// framing, so the reset takes effect regardless of any prior partial
// frame. All device configuration is lost, including the conversion mode,
// which reverts to the power-on default.
func (adc *ADC) Reset() error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return ErrClosed
	}
	for i := 0; i < resetLen; i++ {
		if _, err := adc.t.Transfer(0xff); err != nil {
			return err
		}
	}
	adc.mode = ContinuousConversion
	adc.traceOp("reset", 0, nil)
	return nil
}

// Resync realigns the transaction framing by toggling the chip select.
//
// This aborts any partially framed transaction without altering register
// contents. It is performed once during New, before any register access,
// and may be called whenever a desynchronization is suspected.
func (adc *ADC) Resync() error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.t == nil {
		return ErrClosed
	}
	if err := adc.t.Deassert(); err != nil {
		return err
	}
	if err := adc.t.Assert(); err != nil {
		return err
	}
	adc.traceOp("resync", 0, nil)
	return nil
}

// readReg performs a framed register read.
// Assumes the caller holds mu and has validated reg.
func (adc *ADC) readReg(reg Register, data []byte) error {
	if _, err := adc.t.Transfer(byte(Comms)); err != nil {
		return err
	}
	if _, err := adc.t.Transfer(byte(reg) | cmdRead); err != nil {
		return err
	}
	for i := range data {
		v, err := adc.t.Transfer(filler)
		if err != nil {
			return err
		}
		data[i] = v
	}
	adc.traceOp("read", reg, data)
	return nil
}

// writeReg performs a framed register write.
// Assumes the caller holds mu and has validated reg.
func (adc *ADC) writeReg(reg Register, data []byte) error {
	if _, err := adc.t.Transfer(byte(Comms)); err != nil {
		return err
	}
	if _, err := adc.t.Transfer(byte(reg) &^ cmdRead); err != nil {
		return err
	}
	for _, b := range data {
		if _, err := adc.t.Transfer(b); err != nil {
			return err
		}
	}
	adc.traceOp("write", reg, data)
	return nil
}

func (adc *ADC) traceOp(op string, reg Register, data []byte) {
	if adc.trace != nil {
		adc.trace(op, reg, data)
	}
}

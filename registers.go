// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package ad4111

// Register identifies one of the on-chip configuration or data registers.
//
// All registers live in the 6-bit address space 0x00 to 0x3f.
// Registers are 2 bytes wide unless noted otherwise.
type Register uint8

const (
	// Comms is the write-only communications register that frames every
	// transaction.
	Comms Register = 0x00

	// Status shares the communications register address for reads.
	Status Register = 0x00

	// ADCMode holds the conversion mode field and clock selection.
	ADCMode Register = 0x01

	// IfMode controls the serial interface, including continuous read.
	IfMode Register = 0x02

	// RegCheck is the register map checksum (3 bytes).
	RegCheck Register = 0x03

	// Data is the conversion result register (3 bytes).
	Data Register = 0x04

	// GPIOCon controls the general purpose outputs.
	GPIOCon Register = 0x06

	// ID is the product identity register.
	ID Register = 0x07

	// regMax is the highest valid register address.
	regMax Register = 0x3f

	// channel register block
	chanMin Register = 0x10
	chanMax Register = 0x1f
)

// Channel returns the channel register for slot ch.
//
// There are 16 channel slots, so ch is taken modulo 16.
func Channel(ch int) Register {
	return chanMin + Register(ch&0x0f)
}

// SetupCon returns the setup configuration register for setup n (0-7).
func SetupCon(n int) Register {
	return Register(0x20 + n&0x07)
}

// FiltCon returns the filter configuration register for setup n (0-7).
func FiltCon(n int) Register {
	return Register(0x28 + n&0x07)
}

// Offset returns the offset calibration register for setup n (0-7).
// Offset registers are 3 bytes wide.
func Offset(n int) Register {
	return Register(0x30 + n&0x07)
}

// Gain returns the gain calibration register for setup n (0-7).
// Gain registers are 3 bytes wide.
func Gain(n int) Register {
	return Register(0x38 + n&0x07)
}

const (
	// cmdRead is the read/write selector in the command byte.
	cmdRead = 0x40

	// chEnable is the channel enable bit in channel register byte 0.
	chEnable = 0x80

	// ifModeContRead is the continuous read enable bit in IfMode byte 1.
	ifModeContRead = 0x08

	// adcModeMask covers the conversion mode field in ADCMode byte 1.
	adcModeMask = 0x70

	// adcModeSingle is the single conversion encoding of the mode field.
	adcModeSingle = 0x10

	// filler is clocked out while reading from the device.
	filler = 0x00

	// resetLen is the number of 0xff bytes that resets the device.
	resetLen = 16

	// identity register match pattern
	idByte0    = 0x30
	idByte1    = 0xd0
	idByte1Msk = 0xf0
)

// DataRate selects the conversion output rate.
//
// The codes correspond to the sinc5+sinc1 output rates of the ODR field,
// from 31.25kSPS down to 1.25SPS.
type DataRate uint16

const (
	Rate31250 DataRate = 0x00
	Rate15625 DataRate = 0x06
	Rate10417 DataRate = 0x07
	Rate5208  DataRate = 0x08
	Rate2597  DataRate = 0x09
	Rate1007  DataRate = 0x0a
	Rate503   DataRate = 0x0b
	Rate381   DataRate = 0x0c
	Rate200   DataRate = 0x0d
	Rate100   DataRate = 0x0e
	Rate59    DataRate = 0x0f
	Rate49    DataRate = 0x10
	Rate20    DataRate = 0x11
	Rate16    DataRate = 0x12
	Rate10    DataRate = 0x13
	Rate5     DataRate = 0x14
	Rate2p5   DataRate = 0x15
	Rate1p25  DataRate = 0x16

	// rateMask covers the rate bits of the 16-bit filter configuration,
	// leaving the top 3 bits untouched.
	rateMask = 0x1fff
)

// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package ad4111

// Sample is the raw 24-bit result of one conversion read, most significant
// byte first.
type Sample [3]byte

// Raw returns the sample as an unsigned 24-bit count.
func (s Sample) Raw() uint32 {
	return uint32(s[0])<<16 | uint32(s[1])<<8 | uint32(s[2])
}

// Int32 returns the full resolution signed value of the sample.
//
// Bipolar conversions are offset binary coded, with zero scale at 0x800000.
func (s Sample) Int32() int32 {
	return int32(s.Raw()) - 0x800000
}

// Coarse returns a reduced precision signed value of the sample.
//
// Only the top 10 bits of the sample are used, offset so mid-scale reads as
// zero, and with a step size of 2 counts. The bottom 14 bits are discarded.
// This is a lossy fixed-point convention, not a general decode - use Int32
// for the full resolution value.
func (s Sample) Coarse() int {
	raw := int(s[0])<<2 | int(s[1])&0x03
	return (raw - 512) * 2
}

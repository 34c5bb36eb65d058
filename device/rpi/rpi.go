// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package rpi maps Raspberry Pi J8 header pin names to GPIO line offsets,
// so bus lines can be specified by the pin they are physically wired to.
package rpi

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalid indicates the pin name cannot be mapped to a GPIO line.
var ErrInvalid = errors.New("invalid pin name")

// j8 maps header pin number to BCM GPIO offset, or -1 for power and
// ground pins.
var j8 = [40]int{
	-1, -1, // 3v3, 5v
	2, -1, // sda, 5v
	3, -1, // scl, gnd
	4, 14, // gpclk0, txd
	-1, 15, // gnd, rxd
	17, 18,
	27, -1, // gnd
	22, 23,
	-1, 24, // 3v3
	10, -1, // mosi, gnd
	9, 25, // miso
	11, 8, // sclk, ce0
	-1, 7, // gnd, ce1
	0, 1, // id_sd, id_sc
	5, -1, // gnd
	6, 12,
	13, -1, // gnd
	19, 16,
	26, 20,
	-1, 21, // gnd
}

// Pin maps a pin name to a GPIO line offset.
//
// Pin names are case insensitive and may be of the form J8pX, GPIOX, or a
// raw offset.
func Pin(s string) (int, error) {
	name := strings.ToLower(s)
	switch {
	case strings.HasPrefix(name, "j8p"):
		p, err := strconv.Atoi(name[3:])
		if err != nil || p < 1 || p > len(j8) || j8[p-1] < 0 {
			return 0, ErrInvalid
		}
		return j8[p-1], nil
	case strings.HasPrefix(name, "gpio"):
		name = name[4:]
	}
	o, err := strconv.Atoi(name)
	if err != nil || o < 0 || o > 27 {
		return 0, ErrInvalid
	}
	return o, nil
}

// MustPin maps a pin name to a GPIO line offset, or panics if it cannot.
func MustPin(s string) int {
	o, err := Pin(s)
	if err != nil {
		panic(err)
	}
	return o
}

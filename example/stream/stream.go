// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// An example that streams samples using continuous read mode, where the
// data register is implicitly addressed.
package main

import (
	"fmt"
	"time"

	"github.com/warthog618/go-ad4111"
	"github.com/warthog618/go-ad4111/device/rpi"
	"github.com/warthog618/go-ad4111/spi"
	"github.com/warthog618/go-gpiocdev"
)

func main() {
	c, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		panic(err)
	}
	s, err := spi.New(c,
		rpi.MustPin("J8p23"), // SCLK
		rpi.MustPin("J8p24"), // CS
		rpi.MustPin("J8p19"), // MOSI
		rpi.MustPin("J8p21"), // MISO
		spi.WithTclk(2*time.Microsecond))
	c.Close()
	if err != nil {
		panic(err)
	}
	adc, err := ad4111.New(s)
	if err != nil {
		panic(err)
	}
	defer adc.Close()
	if err = adc.SetChannel(ad4111.Channel(0), true); err != nil {
		panic(err)
	}
	if err = adc.SetDataRate(ad4111.Rate1007); err != nil {
		panic(err)
	}
	if err = adc.SetMode(ad4111.ContinuousRead); err != nil {
		panic(err)
	}
	for i := 0; i < 1000; i++ {
		ready, err := adc.Ready()
		if err != nil {
			panic(err)
		}
		if !ready {
			time.Sleep(10 * time.Microsecond)
			continue
		}
		sample, err := adc.ReadSample()
		if err != nil {
			panic(err)
		}
		fmt.Println(sample.Int32())
	}
	// leave the device addressable for whoever comes next
	adc.SetMode(ad4111.ContinuousConversion)
}

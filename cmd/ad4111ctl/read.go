// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-ad4111"
)

func init() {
	readCmd.Flags().StringVarP(&readOpts.Mode, "mode", "m", "continuous", "conversion mode (continuous, single, continuous-read)")
	readCmd.Flags().UintVarP(&readOpts.Count, "count", "n", 1, "number of samples to read")
	readCmd.Flags().IntVar(&readOpts.Channel, "channel", 0, "channel slot to enable")
	readCmd.Flags().DurationVar(&readOpts.Timeout, "timeout", time.Second, "time to wait for each sample")
	readCmd.Flags().BoolVar(&readOpts.Raw, "raw", false, "print the raw sample bytes")
	readCmd.Flags().BoolVar(&readOpts.Coarse, "coarse", false, "print the reduced precision 10-bit value")
	rootCmd.AddCommand(readCmd)
}

var (
	readCmd = &cobra.Command{
		Use:   "read",
		Short: "Read samples from the ADC",
		Args:  cobra.NoArgs,
		RunE:  read,
	}
	readOpts = struct {
		Mode    string
		Count   uint
		Channel int
		Timeout time.Duration
		Raw     bool
		Coarse  bool
	}{}
)

func read(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(readOpts.Mode)
	if err != nil {
		return err
	}
	adc, err := openADC(cmd)
	if err != nil {
		return err
	}
	defer adc.Close()
	if err = adc.SetChannel(ad4111.Channel(readOpts.Channel), true); err != nil {
		return fmt.Errorf("error enabling channel: %w", err)
	}
	if err = adc.SetMode(mode); err != nil {
		return fmt.Errorf("error setting mode: %w", err)
	}
	for i := uint(0); i < readOpts.Count; i++ {
		// single conversions power down after each result, so rearm
		if mode == ad4111.SingleConversion && i != 0 {
			if err = adc.SetMode(mode); err != nil {
				return fmt.Errorf("error rearming conversion: %w", err)
			}
		}
		if err = waitReady(adc, readOpts.Timeout); err != nil {
			return err
		}
		s, err := adc.ReadSample()
		if err != nil {
			return fmt.Errorf("error reading sample: %w", err)
		}
		switch {
		case readOpts.Raw:
			fmt.Printf("% 02x\n", s[:])
		case readOpts.Coarse:
			fmt.Println(s.Coarse())
		default:
			fmt.Println(s.Int32())
		}
	}
	return nil
}

// waitReady polls the data ready line until it asserts or the timeout
// expires. The driver itself imposes no deadline - that policy lives here.
func waitReady(adc *ad4111.ADC, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ready, err := adc.Ready()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for data ready")
		}
		time.Sleep(100 * time.Microsecond)
	}
}

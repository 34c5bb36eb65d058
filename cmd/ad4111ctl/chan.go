// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-ad4111"
)

func init() {
	rootCmd.AddCommand(chanCmd)
}

var chanCmd = &cobra.Command{
	Use:   "chan <slot> <on|off>",
	Short: "Enable or disable a channel slot",
	Long: `Enable or disable one of the 16 channel slots.

Enabling a slot selects the differential input pair for its index -
positive input VINx, negative input VINx+1.`,
	Args: cobra.ExactArgs(2),
	RunE: channel,
}

func channel(cmd *cobra.Command, args []string) error {
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 0 || slot > 15 {
		return fmt.Errorf("can't parse channel slot '%s'", args[0])
	}
	var enabled bool
	switch args[1] {
	case "on":
		enabled = true
	case "off":
	default:
		return fmt.Errorf("can't parse state '%s'", args[1])
	}
	adc, err := openADC(cmd)
	if err != nil {
		return err
	}
	defer adc.Close()
	return adc.SetChannel(ad4111.Channel(slot), enabled)
}

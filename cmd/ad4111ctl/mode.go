// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modeCmd)
}

var modeCmd = &cobra.Command{
	Use:   "mode <continuous|single|continuous-read>",
	Short: "Set the conversion mode",
	Args:  cobra.ExactArgs(1),
	RunE:  mode,
}

func mode(cmd *cobra.Command, args []string) error {
	m, err := parseMode(args[0])
	if err != nil {
		return err
	}
	adc, err := openADC(cmd)
	if err != nil {
		return err
	}
	defer adc.Close()
	return adc.SetMode(m)
}

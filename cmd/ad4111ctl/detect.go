// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-ad4111"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the ADC and report its identity",
	Args:  cobra.NoArgs,
	RunE:  detect,
}

func detect(cmd *cobra.Command, args []string) error {
	adc, err := openADC(cmd)
	if err != nil {
		return err
	}
	defer adc.Close()
	id := make([]byte, 2)
	if err = adc.ReadRegister(ad4111.ID, id); err != nil {
		return fmt.Errorf("error reading identity: %w", err)
	}
	ok := id[0] == 0x30 && id[1]&0xf0 == 0xd0
	fmt.Printf("ID %02x%02x (AD4111: %t)\n", id[0], id[1], ok)
	return nil
}

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
	regReadCmd.Flags().UintVarP(&regReadOpts.Len, "len", "n", 2, "register width in bytes")
	regCmd.AddCommand(regReadCmd)
	regCmd.AddCommand(regWriteCmd)
	rootCmd.AddCommand(regCmd)
}

var regCmd = &cobra.Command{
	Use:   "reg",
	Short: "Raw register access",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var (
	regReadCmd = &cobra.Command{
		Use:   "read <addr>",
		Short: "Read a register",
		Args:  cobra.ExactArgs(1),
		RunE:  regRead,
	}
	regReadOpts = struct {
		Len uint
	}{}
	regWriteCmd = &cobra.Command{
		Use:   "write <addr> <byte>...",
		Short: "Write a register",
		Args:  cobra.MinimumNArgs(2),
		RunE:  regWrite,
	}
)

func parseReg(arg string) (ad4111.Register, error) {
	v, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("can't parse register address '%s'", arg)
	}
	return ad4111.Register(v), nil
}

func regRead(cmd *cobra.Command, args []string) error {
	reg, err := parseReg(args[0])
	if err != nil {
		return err
	}
	adc, err := openADC(cmd)
	if err != nil {
		return err
	}
	defer adc.Close()
	v := make([]byte, regReadOpts.Len)
	if err = adc.ReadRegister(reg, v); err != nil {
		return err
	}
	fmt.Printf("% 02x\n", v)
	return nil
}

func regWrite(cmd *cobra.Command, args []string) error {
	reg, err := parseReg(args[0])
	if err != nil {
		return err
	}
	v := make([]byte, 0, len(args)-1)
	for _, arg := range args[1:] {
		b, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return fmt.Errorf("can't parse byte '%s'", arg)
		}
		v = append(v, byte(b))
	}
	adc, err := openADC(cmd)
	if err != nil {
		return err
	}
	defer adc.Close()
	return adc.WriteRegister(reg, v)
}

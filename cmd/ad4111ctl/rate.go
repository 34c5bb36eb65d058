// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-ad4111"
)

func init() {
	rootCmd.AddCommand(rateCmd)
}

var rateCmd = &cobra.Command{
	Use:   "rate <sps>",
	Short: "Set the conversion output rate",
	Long:  "Set the conversion output rate, in samples per second, for the primary filter configuration.",
	Args:  cobra.ExactArgs(1),
	RunE:  rate,
}

var rates = map[string]ad4111.DataRate{
	"31250": ad4111.Rate31250,
	"15625": ad4111.Rate15625,
	"10417": ad4111.Rate10417,
	"5208":  ad4111.Rate5208,
	"2597":  ad4111.Rate2597,
	"1007":  ad4111.Rate1007,
	"503":   ad4111.Rate503,
	"381":   ad4111.Rate381,
	"200":   ad4111.Rate200,
	"100":   ad4111.Rate100,
	"59":    ad4111.Rate59,
	"49":    ad4111.Rate49,
	"20":    ad4111.Rate20,
	"16":    ad4111.Rate16,
	"10":    ad4111.Rate10,
	"5":     ad4111.Rate5,
	"2.5":   ad4111.Rate2p5,
	"1.25":  ad4111.Rate1p25,
}

func rate(cmd *cobra.Command, args []string) error {
	r, ok := rates[args[0]]
	if !ok {
		rr := make([]string, 0, len(rates))
		for k := range rates {
			rr = append(rr, k)
		}
		sort.Strings(rr)
		return fmt.Errorf("unknown rate '%s' - pick from %s", args[0], strings.Join(rr, ", "))
	}
	adc, err := openADC(cmd)
	if err != nil {
		return err
	}
	defer adc.Close()
	return adc.SetDataRate(r)
}

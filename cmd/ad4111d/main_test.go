// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSlots(t *testing.T) {
	patterns := []struct {
		name  string
		arg   string
		slots []int
	}{
		{"one", "0", []int{0}},
		{"several", "0,3,15", []int{0, 3, 15}},
		{"spaced", " 1, 2 ", []int{1, 2}},
		{"empty", "", nil},
		{"negative", "-1", nil},
		{"high", "16", nil},
		{"junk", "0,x", nil},
	}
	for _, p := range patterns {
		t.Run(p.name, func(t *testing.T) {
			slots, err := parseSlots(p.arg)
			if p.slots == nil {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, p.slots, slots)
		})
	}
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package ata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeChecksummedSector(fill func([]byte)) []byte {
	sector := make([]byte, 512)
	fill(sector)
	var sum byte
	for _, b := range sector[:511] {
		sum += b
	}
	sector[511] = byte(256 - int(sum)%256)
	if sum == 0 {
		sector[511] = 0
	}
	return sector
}

func TestVerifyChecksum(t *testing.T) {
	assert := assert.New(t)

	sector := makeChecksummedSector(func(s []byte) {
		s[0] = 0x0a
		s[10] = 0x42
	})
	assert.True(VerifyChecksum(sector))

	sector[5] ^= 0xff // corrupt a byte without touching the checksum
	assert.False(VerifyChecksum(sector))

	assert.False(VerifyChecksum(make([]byte, 10))) // wrong length
}

func TestWordSwapString(t *testing.T) {
	assert := assert.New(t)

	// Byte-swapping is its own inverse: swapping a word-swapped model string recovers the
	// original, matching spec.md §8.4 scenario 1 ("ST0000DM001-....").
	want := "ST0000DM001-    "
	onWire := []byte(want)
	for i := 0; i+1 < len(onWire); i += 2 {
		onWire[i], onWire[i+1] = onWire[i+1], onWire[i]
	}
	assert.Equal("ST0000DM001-", wordSwapString(onWire))
}

func TestParseAttributeMisalignedFlags(t *testing.T) {
	assert := assert.New(t)

	b := []byte{0x05, 0x33, 0x00, 100, 90, 1, 2, 3, 4, 5, 6, 0}
	a := parseAttribute(b)

	assert.Equal(uint8(5), a.ID)
	assert.Equal(uint16(0x0033), a.Flags)
	assert.True(a.PreFailure())
	assert.True(a.Online())
	assert.Equal(uint8(100), a.Current)
	assert.Equal(uint8(90), a.Worst)
}

func TestPairAttributesFailingNow(t *testing.T) {
	assert := assert.New(t)

	var values ValuesPage
	values.Attributes[0] = Attribute{ID: 5, Flags: 0x01, Current: 10, Worst: 10}
	values.Attributes[1] = Attribute{ID: 9, Flags: 0x00, Current: 50, Worst: 50}

	var thresholds ThresholdsPage
	thresholds.Thresholds[0].ID = 5
	thresholds.Thresholds[0].Threshold = 20
	thresholds.Thresholds[1].ID = 9
	thresholds.Thresholds[1].Threshold = 90

	paired := PairAttributes(&values, &thresholds)
	assert.Len(paired, 2)

	byID := map[uint8]PairedAttribute{}
	for _, p := range paired {
		byID[p.ID] = p
	}

	// Attribute 5: prefailure flag set, current(10) <= threshold(20) => failing now.
	assert.True(byID[5].FailedNow)
	// Attribute 9: no prefailure flag, so never "failing now" regardless of current vs threshold.
	assert.False(byID[9].FailedNow)
}

func TestSelfTestSubcommandCaptiveBit(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(byte(0x01), TestShort.subcommand())
	assert.Equal(byte(0x81), TestShortCaptive.subcommand())
	assert.Equal(byte(0x82), TestExtendedCaptive.subcommand())
	assert.NotEqual(byte(0), TestShortCaptive.subcommand()&0x80)
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package smart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdsentry/smart/ata"
	"github.com/hdsentry/smart/hostio"
)

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0.00 B", formatBytes(0))
	assert.Equal(t, "500 B", formatBytes(500))
	assert.Equal(t, "1.00 KB", formatBytes(1000))
	assert.Equal(t, "2.50 MB", formatBytes(2_500_000))
}

// identifyFixture builds a 512-byte IDENTIFY DEVICE sector with a word-swapped model string at
// the word 27-46 offset, mirroring spec.md §8.4 scenario 1.
func identifyFixture(model string) []byte {
	buf := make([]byte, 512)
	raw := make([]byte, 40)
	copy(raw, model)
	for i := 0; i+1 < len(raw); i += 2 {
		raw[i], raw[i+1] = raw[i+1], raw[i]
	}
	copy(buf[54:94], raw)
	return buf
}

func TestReportATA(t *testing.T) {
	tp := hostio.NewMockTransport()
	tp.QueueATA(hostio.ATAResult{}, identifyFixture("ST1000DM001-9YN1"), nil) // Identify
	tp.QueueATA(hostio.ATAResult{}, make([]byte, 512), nil)                   // SMARTReadValues
	tp.QueueATA(hostio.ATAResult{Regs: hostio.ATARegisters{LBAMid: 0x4f, LBAHigh: 0xc2}}, nil, nil) // SMARTReturnStatus

	d := &Device{name: "/dev/sda", kind: KindATA, cfg: Config{}, log: (Config{}).entry(), tp: tp}
	d.ata = ata.NewDevice(tp, d.log)

	r, err := d.Report("ata")
	require.NoError(t, err)
	assert.Equal(t, "ST1000DM001-9YN1", r.Model)
	assert.True(t, r.HealthPassed)
}

func TestReportATASanitizesSerial(t *testing.T) {
	tp := hostio.NewMockTransport()
	idBuf := identifyFixture("MODELX")
	raw := []byte("ABC123XYZ           ")
	for i := 0; i+1 < len(raw); i += 2 {
		raw[i], raw[i+1] = raw[i+1], raw[i]
	}
	copy(idBuf[20:40], raw)

	tp.QueueATA(hostio.ATAResult{}, idBuf, nil)
	tp.QueueATA(hostio.ATAResult{}, make([]byte, 512), nil)
	tp.QueueATA(hostio.ATAResult{Regs: hostio.ATARegisters{LBAMid: 0x4f, LBAHigh: 0xc2}}, nil, nil)

	cfg := Config{SanitizeIdentifiers: true}
	d := &Device{name: "/dev/sda", kind: KindATA, cfg: cfg, log: cfg.entry(), tp: tp}
	d.ata = ata.NewDevice(tp, d.log)

	r, err := d.Report("ata")
	require.NoError(t, err)
	assert.NotContains(t, r.Serial, "ABC123XYZ")
}

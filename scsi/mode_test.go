// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package scsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdsentry/smart/errtax"
	"github.com/hdsentry/smart/hostio"
)

func mkIECPage6(ewasc, dexcpt bool, mrie byte) []byte {
	buf := make([]byte, 16)
	buf[3] = 0 // no block descriptor
	off := 4
	buf[off] = 0x1c // page code, PS=0
	buf[off+1] = 10 // page length
	if ewasc {
		buf[off+2] |= 0x10
	}
	if dexcpt {
		buf[off+2] |= 0x08
	}
	buf[off+3] = mrie
	return buf
}

func TestModeSenseFallsBackTo10OnBadOpcode(t *testing.T) {
	tp := hostio.NewMockTransport()
	sense := mkSense(byte(errtax.SenseIllegalRequest), 0x20, 0x00)
	tp.QueueSCSI(hostio.SCSIResult{Status: 0x02, Sense: sense}, nil, nil)

	page10 := make([]byte, 20)
	page10[7] = 12
	tp.QueueSCSI(hostio.SCSIResult{Status: 0, DataLen: 20}, page10, nil)

	d := NewDevice(tp, nil)
	_, form, err := d.ModeSense(PCCurrent, ModePageIEC, 0)
	require.NoError(t, err)
	assert.Equal(t, form10, form)
}

func TestSetIECRoundTrip(t *testing.T) {
	tp := hostio.NewMockTransport()

	current := mkIECPage6(false, true, 0)
	changeable := mkIECPage6(true, true, 0xff)

	tp.QueueSCSI(hostio.SCSIResult{Status: 0, DataLen: len(current)}, current, nil)
	tp.QueueSCSI(hostio.SCSIResult{Status: 0, DataLen: len(changeable)}, changeable, nil)
	tp.QueueSCSI(hostio.SCSIResult{Status: 0}, nil, nil) // MODE SELECT write

	d := NewDevice(tp, nil)
	err := d.SetIEC(true)
	require.NoError(t, err)
	require.Len(t, tp.SCSICalls, 3)

	written := tp.SCSICalls[2].Buf
	off := 4
	assert.NotZero(t, written[off+2]&0x10, "EWASC should be set")
	assert.EqualValues(t, 6, written[off+3], "MRIE should be forced to 6")
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package scsi

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdsentry/smart/errtax"
	"github.com/hdsentry/smart/hostio"
)

func mkSense(key, asc, ascq byte) []byte {
	sense := make([]byte, 18)
	sense[0] = 0x70
	sense[2] = key
	sense[12] = asc
	sense[13] = ascq
	return sense
}

func TestLogSenseDoubleFetch(t *testing.T) {
	tp := hostio.NewMockTransport()

	header := make([]byte, 4)
	header[2], header[3] = 0, 6 // page length = 6

	full := make([]byte, 10)
	full[2], full[3] = 0, 6
	copy(full[4:], []byte{1, 2, 3, 4, 5, 6})

	tp.QueueSCSI(hostio.SCSIResult{Status: 0, DataLen: len(header)}, header, nil)
	tp.QueueSCSI(hostio.SCSIResult{Status: 0, DataLen: len(full)}, full, nil)

	d := NewDevice(tp, nil)
	got, err := d.LogSense(0x05, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, full, got)
	assert.Len(t, tp.SCSICalls, 2, "expected a 4-byte probe followed by a full-length fetch")
}

func TestLogSenseTapeAlertSkipsDoubleFetch(t *testing.T) {
	tp := hostio.NewMockTransport()
	full := make([]byte, 10)
	full[2], full[3] = 0, 6
	tp.QueueSCSI(hostio.SCSIResult{Status: 0, DataLen: len(full)}, full, nil)

	d := NewDevice(tp, nil)
	_, err := d.LogSense(LogPageTapeAlert, 0, 10)
	require.NoError(t, err)
	assert.Len(t, tp.SCSICalls, 1, "TapeAlert must not be double-fetched, it clears state on read")
}

func TestClampToPageLength(t *testing.T) {
	buf := make([]byte, 20)
	binary.BigEndian.PutUint16(buf[2:4], 100) // declares far more than the buffer holds
	got := clampToPageLength(buf)
	assert.Len(t, got, 20, "clamp must never exceed the actual buffer length")

	buf2 := make([]byte, 20)
	binary.BigEndian.PutUint16(buf2[2:4], 4)
	got2 := clampToPageLength(buf2)
	assert.Len(t, got2, 8)
}

func TestTestUnitReadyRetriesOnUnitAttention(t *testing.T) {
	tp := hostio.NewMockTransport()
	tp.QueueSCSI(hostio.SCSIResult{Status: 0x02, Sense: mkSense(byte(errtax.SenseUnitAttention), 0x29, 0x00)}, nil, nil)
	tp.QueueSCSI(hostio.SCSIResult{Status: 0x00}, nil, nil)

	d := NewDevice(tp, nil)
	res, err := d.TestUnitReady()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), res.Status)
	assert.Len(t, tp.SCSICalls, 2)
}

func TestReadCapacity16FallsBackTo10(t *testing.T) {
	tp := hostio.NewMockTransport()
	// READ CAPACITY(16) returns illegal request (unsupported service action).
	tp.QueueSCSI(hostio.SCSIResult{Status: 0x02, Sense: mkSense(byte(errtax.SenseIllegalRequest), 0x20, 0x00)}, nil, nil)

	buf10 := make([]byte, 8)
	binary.BigEndian.PutUint32(buf10[0:4], 1000)
	binary.BigEndian.PutUint32(buf10[4:8], 512)
	tp.QueueSCSI(hostio.SCSIResult{Status: 0, DataLen: 8}, buf10, nil)

	d := NewDevice(tp, nil)
	blocks, blockSize, err := d.ReadCapacity16()
	require.NoError(t, err)
	assert.EqualValues(t, 1000, blocks)
	assert.EqualValues(t, 512, blockSize)
}

func TestWalkFARMParams(t *testing.T) {
	page := []byte{0x3d, 0x03, 0, 10}
	page = append(page, 0x00, 0x01, 0, 2, 0xaa, 0xbb) // paramID=1, len=2
	page = append(page, 0x00, 0x02, 0, 2, 0xcc, 0xdd) // paramID=2, len=2

	var got []FARMParam
	err := WalkFARMParams(page, func(p FARMParam) error {
		got = append(got, p)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.EqualValues(t, 1, got[0].ParamID)
	assert.Equal(t, []byte{0xaa, 0xbb}, got[0].Data)
	assert.EqualValues(t, 2, got[1].ParamID)
}

func TestWalkFARMParamsStopsAtTruncatedParam(t *testing.T) {
	page := []byte{0x3d, 0x03, 0, 10}
	page = append(page, 0x00, 0x01, 0, 99, 0xaa) // declares 99 bytes, only 1 present

	var calls int
	err := WalkFARMParams(page, func(p FARMParam) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls, "truncated parameter must not be yielded")
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package jmicron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdsentry/smart/hostio"
)

func TestJMBCRCVectors(t *testing.T) {
	cmd := []byte{1, 2, 3, 4, 5, 6, 7}

	cases := []struct {
		version uint8
		crc     uint32
	}{
		{0, 0xb1f765d7},
		{1, 0x388b2759},
		{2, 0xde10952b},
	}
	for _, c := range cases {
		data := setRequestSector(c.version, 42, cmd)
		assert.EqualValues(t, c.crc, getCRC(&data))
		assert.True(t, checkCRC(&data))
	}
}

func TestWakeupSectorsCRC(t *testing.T) {
	for id := 0; id < 4; id++ {
		data := setWakeupSector(id)
		assert.True(t, checkCRC(&data))
		assert.Equal(t, 1, getSectorType(data))
	}
}

func TestXORIsInvolution(t *testing.T) {
	data := setWakeupSector(2)
	jmbXOR(&data)
	assert.EqualValues(t, 0x053ed64b, jmbCRC(&data))
	jmbXOR(&data)
	assert.True(t, checkCRC(&data))
}

func TestGetSectorTypeForObfuscatedRequest(t *testing.T) {
	data := setRequestSector(0, 42, []byte{1, 2, 3, 4, 5, 6, 7})
	jmbXOR(&data)
	assert.Equal(t, 2, getSectorType(data))
}

// obfuscatedIdentifyResponse builds the wire-level (XOR-obfuscated) bytes a bridge would return
// for the JMB identify-port command issued by Open, with the device-model-string probe byte set
// to a printable character so Open accepts it.
func obfuscatedIdentifyResponse(version uint8, cmdID uint32) [512]byte {
	resp := setRequestSector(version, cmdID, []byte{1, 2, 3, 4})
	resp[16] = 'x'
	putCRC(&resp, jmbCRC(&resp))
	jmbXOR(&resp)
	return resp
}

func TestOpenCloseRoundTripOnZeroFilledSector(t *testing.T) {
	tp := hostio.NewMockTransport()

	tp.QueueATA(hostio.ATAResult{}, nil, nil) // read original sector: zero filled
	for i := 0; i < 4; i++ {
		tp.QueueATA(hostio.ATAResult{}, nil, nil) // 4 wakeup writes
	}
	tp.QueueATA(hostio.ATAResult{}, nil, nil) // identify request write
	resp := obfuscatedIdentifyResponse(0, 1)
	tp.QueueATA(hostio.ATAResult{}, resp[:], nil) // identify response read

	d := NewATADevice(tp, Options{Version: 0, Port: 2}, nil)
	require.NoError(t, d.Open())
	assert.False(t, d.blocked)
	assert.EqualValues(t, 2, d.cmdID)

	tp.QueueATA(hostio.ATAResult{}, nil, nil) // restore-original-sector write
	require.NoError(t, d.Close())
	assert.False(t, d.origWriteBack)

	restoreCall := tp.ATACalls[len(tp.ATACalls)-1]
	assert.True(t, isZeroFilled(restoreCall.Buf), "close must restore the exact original (zero-filled) sector")
}

func TestOpenRefusesDirtyNonZeroSector(t *testing.T) {
	tp := hostio.NewMockTransport()

	dirty := make([]byte, 512)
	dirty[0] = 0xaa // not zero, not a valid wakeup or request/response sector
	tp.QueueATA(hostio.ATAResult{}, dirty, nil)

	d := NewATADevice(tp, Options{Version: 0, Port: 0}, nil)
	err := d.Open()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not zero filled")
	assert.Len(t, tp.ATACalls, 1, "must not write any wakeup sectors once the original sector looks occupied")
}

func TestOpenForcePreservesForeignDataForRestore(t *testing.T) {
	tp := hostio.NewMockTransport()

	dirty := make([]byte, 512)
	dirty[0] = 0xaa
	tp.QueueATA(hostio.ATAResult{}, dirty, nil)
	for i := 0; i < 4; i++ {
		tp.QueueATA(hostio.ATAResult{}, nil, nil)
	}
	tp.QueueATA(hostio.ATAResult{}, nil, nil)
	resp := obfuscatedIdentifyResponse(0, 1)
	tp.QueueATA(hostio.ATAResult{}, resp[:], nil)

	d := NewATADevice(tp, Options{Version: 0, Port: 0, Force: true}, nil)
	require.NoError(t, d.Open())
	// Foreign (non-JMB) data is never synthetically zero-filled: only a stale wake-up or
	// protocol sector is reset, since that reflects JMB's own state rather than user data.
	assert.EqualValues(t, dirty, d.origData[:], "unrelated foreign data under force must be preserved for restore")
}

func TestOpenForceZeroFillsStaleWakeupSector(t *testing.T) {
	tp := hostio.NewMockTransport()

	stale := setWakeupSector(1)
	tp.QueueATA(hostio.ATAResult{}, stale[:], nil)
	for i := 0; i < 4; i++ {
		tp.QueueATA(hostio.ATAResult{}, nil, nil)
	}
	tp.QueueATA(hostio.ATAResult{}, nil, nil)
	resp := obfuscatedIdentifyResponse(0, 1)
	tp.QueueATA(hostio.ATAResult{}, resp[:], nil)

	d := NewATADevice(tp, Options{Version: 0, Port: 0, Force: true}, nil)
	require.NoError(t, d.Open())
	assert.True(t, isZeroFilled(d.origData[:]), "a stale wake-up sector reflects JMB state, not user data, and is reset on restore")
}

func TestATAPassThroughDecodesIdentifyBody(t *testing.T) {
	tp := hostio.NewMockTransport()

	tp.QueueATA(hostio.ATAResult{}, nil, nil)
	for i := 0; i < 4; i++ {
		tp.QueueATA(hostio.ATAResult{}, nil, nil)
	}
	tp.QueueATA(hostio.ATAResult{}, nil, nil)
	resp := obfuscatedIdentifyResponse(0, 1)
	tp.QueueATA(hostio.ATAResult{}, resp[:], nil)

	d := NewATADevice(tp, Options{Version: 0, Port: 0}, nil)
	require.NoError(t, d.Open())

	tp.QueueATA(hostio.ATAResult{}, nil, nil) // pass-through request write
	passResp := setRequestSector(0, d.cmdID, []byte{1, 2, 3, 4})
	passResp[31] = 0x40 // DRDY, !BSY, !ERR
	putCRC(&passResp, jmbCRC(&passResp))
	jmbXOR(&passResp)
	tp.QueueATA(hostio.ATAResult{}, passResp[:], nil)

	buf := make([]byte, 512)
	res, err := d.ATAPassThrough(hostio.ATACommand{
		Regs: hostio.ATARegisters{Command: 0xec}, // IDENTIFY DEVICE
		Dir:  hostio.DataIn,
		Buf:  buf,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0x40, res.Regs.Status)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("jmb39x,2,s40,force")
	require.NoError(t, err)
	assert.EqualValues(t, 0, opts.Version)
	assert.EqualValues(t, 2, opts.Port)
	assert.EqualValues(t, 40, opts.LBA)
	assert.True(t, opts.Force)

	_, err = ParseOptions("jms56x,9")
	assert.Error(t, err, "port out of range must be rejected")

	opts, err = ParseOptions("jmb39x-q,1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, opts.Version)
	assert.EqualValues(t, defaultLBA, opts.LBA)
}

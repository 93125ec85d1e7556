// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package nvme

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/hdsentry/smart/hostio"
)

func TestParseSMARTLogScenario(t *testing.T) {
	buf := make([]byte, 512)
	buf[0] = 0x02 // critical_warning
	binary.LittleEndian.PutUint16(buf[1:3], 0x0140)

	log := ParseSMARTLog(buf)
	assert.EqualValues(t, 0x02, log.CriticalWarning)
	assert.Equal(t, 47, log.TemperatureC)
}

func TestHealthFailsOnCriticalWarning(t *testing.T) {
	tp := hostio.NewMockTransport()
	buf := make([]byte, 512)
	buf[0] = 0x02
	binary.LittleEndian.PutUint16(buf[1:3], 0x0140)
	tp.QueueNVMe(hostio.NVMeResult{Valid: true}, buf, nil)

	d := NewDevice(tp, nil)
	passed, log, err := d.Health(1, true)
	require.NoError(t, err)
	assert.False(t, passed)
	assert.Equal(t, 47, log.TemperatureC)
}

func TestGetLogPageSingleChunkExact4Bytes(t *testing.T) {
	tp := hostio.NewMockTransport()
	tp.QueueNVMe(hostio.NVMeResult{Valid: true}, []byte{1, 2, 3, 4}, nil)

	d := NewDevice(tp, nil)
	buf, err := d.GetLogPage(LogIDSMART, 1, 4, true)
	require.NoError(t, err)
	assert.Len(t, buf, 4)
	assert.Len(t, tp.NVMeCalls, 1, "a 4-byte request must never chunk")
}

func TestGetLogPageRefusesChunkingWithoutLPO(t *testing.T) {
	tp := hostio.NewMockTransport()
	chunk := make([]byte, pageSize)
	for i := range chunk {
		chunk[i] = 0xaa
	}
	tp.QueueNVMe(hostio.NVMeResult{Valid: true}, chunk, nil)

	d := NewDevice(tp, nil)
	buf, err := d.GetLogPage(LogIDError, 1, 4100, false)
	assert.ErrorIs(t, err, unix.ENOSYS)
	assert.Len(t, buf, pageSize)
	assert.Len(t, tp.NVMeCalls, 1, "must not attempt a second transfer without LPO support")
}

func TestGetLogPageChunksWithLPO(t *testing.T) {
	tp := hostio.NewMockTransport()
	chunk1 := make([]byte, pageSize)
	chunk2 := make([]byte, 4)
	tp.QueueNVMe(hostio.NVMeResult{Valid: true}, chunk1, nil)
	tp.QueueNVMe(hostio.NVMeResult{Valid: true}, chunk2, nil)

	d := NewDevice(tp, nil)
	buf, err := d.GetLogPage(LogIDError, 1, pageSize+4, true)
	require.NoError(t, err)
	assert.Len(t, buf, pageSize+4)
	require.Len(t, tp.NVMeCalls, 2)

	second := tp.NVMeCalls[1]
	assert.EqualValues(t, pageSize, second.CDW12, "second chunk's LPO must be the first chunk's length in bytes")
}

func TestParseControllerIdentitySupportsLPO(t *testing.T) {
	buf := make([]byte, 4096)
	buf[261] = 0x04 // Lpa bit 2

	ci := ParseControllerIdentity(buf)
	assert.True(t, ci.SupportsLPO())
}

func TestParseSelfTestLog(t *testing.T) {
	buf := make([]byte, selfTestLogSize)
	buf[0] = 1
	buf[1] = 50
	off := 4
	buf[off] = 0x01 // result=1, code=0
	binary.LittleEndian.PutUint64(buf[off+4:off+12], 1234)

	log := parseSelfTestLog(buf)
	assert.EqualValues(t, 1, log.CurrentOpInProgress)
	assert.EqualValues(t, 1, log.Results[0].Result)
	assert.EqualValues(t, 1234, log.Results[0].PowerOnHours)
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package tunnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdsentry/smart/hostio"
)

func TestPS3StorPadsCDBAndWidensSense(t *testing.T) {
	tp := hostio.NewMockTransport()
	tp.QueueSCSI(hostio.SCSIResult{Status: 0}, nil, nil)

	a := NewPS3Stor(tp, PS3StorTarget{Host: 0, Enclosure: 1, Slot: 2})
	_, err := a.SCSIPassThrough(hostio.SCSICommand{CDB: []byte{0x12, 0x00, 0x00, 0x00, 0x24, 0x00}})
	require.NoError(t, err)

	require.Len(t, tp.SCSICalls, 1)
	call := tp.SCSICalls[0]
	assert.Len(t, call.CDB, ps3storCDBLen)
	assert.EqualValues(t, 0x12, call.CDB[0])
	assert.EqualValues(t, ps3storSenseLen, call.SenseLen)
	assert.Equal(t, "host 0 encl 1 slot 2", a.Target())
}

func TestPS3StorRejectsOversizeCDB(t *testing.T) {
	tp := hostio.NewMockTransport()
	a := NewPS3Stor(tp, PS3StorTarget{})
	_, err := a.SCSIPassThrough(hostio.SCSICommand{CDB: make([]byte, ps3storCDBLen+1)})
	assert.Error(t, err)
}

func TestThreeWareForwardsCDBUnchanged(t *testing.T) {
	tp := hostio.NewMockTransport()
	tp.QueueSCSI(hostio.SCSIResult{Status: 0}, nil, nil)

	a := NewThreeWare(tp, 3)
	cdb := []byte{0xa1, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xec}
	_, err := a.SCSIPassThrough(hostio.SCSICommand{CDB: cdb})
	require.NoError(t, err)

	require.Len(t, tp.SCSICalls, 1)
	assert.Equal(t, cdb, tp.SCSICalls[0].CDB)
	assert.Equal(t, "3ware port 3", a.Target())
}

func TestCCISSTarget(t *testing.T) {
	tp := hostio.NewMockTransport()
	a := NewCCISS(tp, 5)
	assert.Equal(t, "cciss disk 5", a.Target())
}

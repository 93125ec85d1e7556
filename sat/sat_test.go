// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package sat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdsentry/smart/hostio"
)

func TestBuildCDB12ForNon48Bit(t *testing.T) {
	regs := hostio.ATARegisters{
		Command:     0xec, // IDENTIFY DEVICE
		LBAMid:      0x00,
	}
	cdb := buildCDB(regs, hostio.DataIn, 1)
	require.Len(t, cdb, 12)
	assert.EqualValues(t, opATAPassThru12, cdb[0])
	assert.EqualValues(t, protoPIODataIn<<1, cdb[1])
	assert.NotZero(t, cdb[2]&0x08, "T_DIR must be set for data-in")
	assert.EqualValues(t, 0xec, cdb[9])
}

func TestBuildCDB16For48Bit(t *testing.T) {
	regs := hostio.ATARegisters{
		Command: 0x24, // READ SECTORS EXT
		Is48Bit: true,
	}
	cdb := buildCDB(regs, hostio.DataIn, 1)
	require.Len(t, cdb, 16)
	assert.EqualValues(t, opATAPassThru16, cdb[0])
	assert.NotZero(t, cdb[1]&0x01, "EXTEND bit must be set")
	assert.EqualValues(t, 0x24, cdb[14])
}

func mkATAStatusSense(status, errReg byte) []byte {
	sense := make([]byte, 22)
	sense[0] = 0x72 // descriptor-format, current errors
	sense[2] = 0x00 // sense key: NO SENSE
	sense[7] = 14   // additional sense length (2-byte descriptor header + 12-byte payload)
	desc := sense[8:22]
	desc[0] = descATAStatusReturn
	desc[1] = 12
	desc[3] = errReg
	desc[13] = status
	return sense
}

func TestATAPassThroughDecodesStatusReturn(t *testing.T) {
	tp := hostio.NewMockTransport()
	sense := mkATAStatusSense(0x50, 0x00) // DRDY|DSC, no error
	tp.QueueSCSI(hostio.SCSIResult{Status: 0x02, Sense: sense}, nil, nil)

	d := NewDevice(tp)
	res, err := d.ATAPassThrough(hostio.ATACommand{
		Regs: hostio.ATARegisters{Command: 0xb0, Features: 0xd0},
		Dir:  hostio.NoData,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0x50, res.Regs.Status)
}

func TestFindATAStatusDescriptorIgnoresFixedFormatSense(t *testing.T) {
	fixed := make([]byte, 18)
	fixed[0] = 0x70
	assert.Nil(t, findATAStatusDescriptor(fixed))
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package errtax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySCSI(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(NoMedium, ClassifySCSI(SCSISense{SenseKey: SenseNotReady, ASC: 0x3a, Valid: true}))
	assert.Equal(BecomingReady, ClassifySCSI(SCSISense{SenseKey: SenseNotReady, ASC: 0x04, ASCQ: 0x01, Valid: true}))
	assert.Equal(BadOpcode, ClassifySCSI(SCSISense{SenseKey: SenseIllegalRequest, ASC: 0x20, Valid: true}))
	assert.Equal(BadField, ClassifySCSI(SCSISense{SenseKey: SenseIllegalRequest, ASC: 0x24, Valid: true}))
	assert.Equal(BadParam, ClassifySCSI(SCSISense{SenseKey: SenseIllegalRequest, ASC: 0x26, Valid: true}))
	assert.Equal(TryAgain, ClassifySCSI(SCSISense{SenseKey: SenseUnitAttention, Valid: true}))
	assert.Equal(MediumHardware, ClassifySCSI(SCSISense{SenseKey: SenseMediumError, Valid: true}))
	assert.Equal(MediumHardware, ClassifySCSI(SCSISense{SenseKey: SenseHardwareError, Valid: true}))
	assert.Equal(AbortedCommand, ClassifySCSI(SCSISense{SenseKey: SenseAbortedCommand, Valid: true}))
}

func TestDecodeSenseShortBuffer(t *testing.T) {
	assert := assert.New(t)

	s := DecodeSense([]byte{0x70, 0x00, 0x05})
	assert.False(s.Valid)

	s = DecodeSense(make([]byte, 8))
	assert.True(s.Valid)

	// ASC/ASCQ only populated when buffer reaches offset 13.
	short := make([]byte, 10)
	short[2] = 0x05
	s = DecodeSense(short)
	assert.True(s.Valid)
	assert.Equal(byte(0), s.ASC)
}

// TestNVMeStatusIdempotence is the property from spec.md §8.1: status_to_errno(s) is always in
// {0, EINVAL, EIO}, and is 0 iff the status string is "Successful Completion".
func TestNVMeStatusIdempotence(t *testing.T) {
	assert := assert.New(t)

	for sct := uint8(0); sct < 8; sct++ {
		for sc := 0; sc < 256; sc++ {
			errno := StatusToErrno(sct, uint8(sc))
			assert.Contains([]int{0, EINVAL, EIO}, errno)

			isSuccess := StatusToString(sct, uint8(sc)) == "Successful Completion"
			assert.Equal(isSuccess, errno == 0)
		}
	}
}

func TestDescribeATAError(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", DescribeATAError(0))
	assert.Equal("UNC", DescribeATAError(ATAErrUNC))
	assert.Equal("ICRC|UNC", DescribeATAError(ATAErrICRC|ATAErrUNC))
}

func TestSplitNVMeStatus(t *testing.T) {
	assert := assert.New(t)

	// SCT=0, SC=0x02 ("Invalid Field in Command") with phase tag 1.
	raw := uint16(0x02<<1) | 1 | (0 << 9)
	sct, sc := SplitNVMeStatus(raw)
	assert.Equal(uint8(0), sct)
	assert.Equal(uint8(0x02), sc)
}

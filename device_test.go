// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package smart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdsentry/smart/hostio"
)

func newTestDevice(name string) *Device {
	cfg := Config{}
	return &Device{name: name, cfg: cfg, log: cfg.entry()}
}

func TestBindExplicitTypeHints(t *testing.T) {
	d := newTestDevice("/dev/sdz")
	tp := hostio.NewMockTransport()
	require.NoError(t, d.bind(tp, "/dev/sdz", "", "ata"))
	assert.Equal(t, KindATA, d.Kind())
	assert.NotNil(t, d.ATA())

	d = newTestDevice("/dev/sdz")
	require.NoError(t, d.bind(tp, "/dev/sdz", "", "scsi"))
	assert.Equal(t, KindSCSI, d.Kind())
	assert.NotNil(t, d.SCSI())

	d = newTestDevice("/dev/nvme0n1")
	require.NoError(t, d.bind(tp, "/dev/nvme0n1", "", "nvme"))
	assert.Equal(t, KindNVMe, d.Kind())
	nv, nsid := d.NVMe()
	assert.NotNil(t, nv)
	assert.EqualValues(t, 1, nsid)
}

func TestAutoDetectATAPrefix(t *testing.T) {
	d := newTestDevice("/dev/hda")
	tp := hostio.NewMockTransport()
	require.NoError(t, d.bind(tp, "/dev/hda", "", ""))
	assert.Equal(t, KindATA, d.Kind())
}

func TestAutoDetectNVMePrefixParsesNamespace(t *testing.T) {
	d := newTestDevice("/dev/nvme1n3")
	tp := hostio.NewMockTransport()
	require.NoError(t, d.bind(tp, "/dev/nvme1n3", "", ""))
	assert.Equal(t, KindNVMe, d.Kind())
	_, nsid := d.NVMe()
	assert.EqualValues(t, 3, nsid)
}

func TestAutoDetectSCSIPrefixNativeWhenVendorIsNotATA(t *testing.T) {
	d := newTestDevice("/dev/sda")
	tp := hostio.NewMockTransport()
	inq := make([]byte, 36)
	copy(inq[8:16], "SEAGATE ")
	tp.QueueSCSI(hostio.SCSIResult{}, inq, nil)

	require.NoError(t, d.bind(tp, "/dev/sda", "", ""))
	assert.Equal(t, KindSCSI, d.Kind())
}

func TestAutoDetectSCSIPrefixDetectsSATTunnel(t *testing.T) {
	d := newTestDevice("/dev/sda")
	tp := hostio.NewMockTransport()
	inq := make([]byte, 36)
	copy(inq[8:16], "ATA     ")
	tp.QueueSCSI(hostio.SCSIResult{}, inq, nil)
	// SAT ATA PASS-THROUGH(16) IDENTIFY probe succeeds.
	tp.QueueSCSI(hostio.SCSIResult{Status: 0}, nil, nil)

	require.NoError(t, d.bind(tp, "/dev/sda", "", ""))
	assert.Equal(t, KindATA, d.Kind())
}

func TestAutoDetectUnrecognisedPrefixFails(t *testing.T) {
	d := newTestDevice("/dev/mapper/foo")
	tp := hostio.NewMockTransport()
	err := d.bind(tp, "/dev/mapper/foo", "", "")
	assert.Error(t, err)
}

func TestBindRejectsUnknownAdapterSpec(t *testing.T) {
	d := newTestDevice("/dev/sdb")
	tp := hostio.NewMockTransport()
	err := d.bind(tp, "/dev/sdb", "bogus,1", "")
	assert.Error(t, err)
}

func TestBindThreeWareRoutesATAThroughSAT(t *testing.T) {
	d := newTestDevice("/dev/twa0")
	tp := hostio.NewMockTransport()
	require.NoError(t, d.bind(tp, "/dev/twa0", "3ware,2", ""))
	assert.Equal(t, KindATA, d.Kind())
}

func TestSplitAdapterSpec(t *testing.T) {
	parent, spec := splitAdapterSpec("/dev/sdb+jmb39x,0")
	assert.Equal(t, "/dev/sdb", parent)
	assert.Equal(t, "jmb39x,0", spec)

	parent, spec = splitAdapterSpec("/dev/sda")
	assert.Equal(t, "/dev/sda", parent)
	assert.Equal(t, "", spec)
}

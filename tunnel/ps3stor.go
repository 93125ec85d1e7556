// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package tunnel

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hdsentry/smart/hostio"
)

const (
	// ps3storCDBLen is PS3STOR_SCSI_CDB_LEN: the controller's fixed CDB slot, always sent in
	// full regardless of the CDB's actual opcode length.
	ps3storCDBLen = 32
	// ps3storSenseLen is PS3STOR_SCSI_SENSE_BUFFER_LEN.
	ps3storSenseLen = 96

	cmdDirNone     = 0
	cmdDirFromHost = 1 // write (host -> drive)
	cmdDirToHost   = 2 // read (drive -> host)
)

// PS3StorTarget addresses one physical drive behind a ps3stor-class controller by its enclosure
// and slot position, the addressing scheme ps3stor_id_group's PD_POSITION variant uses.
type PS3StorTarget struct {
	Host      uint
	Enclosure uint8
	Slot      uint16
}

type ps3storAdapter struct {
	tp     hostio.SCSITransport
	target PS3StorTarget
}

// NewPS3Stor wraps tp, the controller's already-opened control channel, as an Adapter addressing
// a single drive by enclosure/slot position (spec.md §4.4.3).
func NewPS3Stor(tp hostio.SCSITransport, target PS3StorTarget) Adapter {
	return &ps3storAdapter{tp: tp, target: target}
}

func (a *ps3storAdapter) Target() string {
	return fmt.Sprintf("host %d encl %d slot %d", a.target.Host, a.target.Enclosure, a.target.Slot)
}

func cmdDirFor(dir hostio.Direction) uint8 {
	switch dir {
	case hostio.DataOut:
		return cmdDirFromHost
	case hostio.DataIn:
		return cmdDirToHost
	default:
		return cmdDirNone
	}
}

// SCSIPassThrough pads the CDB out to the controller's fixed 32-byte slot and, when the request
// leaves SenseLen at zero, sets the sense buffer to the controller's 96-byte response, matching
// ps3stor_scsi_req_t/ps3stor_scsi_rsp_entry. It does not build the request's TLV envelope, split
// transfers above 4KB into multiple SGEs, or encode the enclosure/slot target; the padded CDB is
// handed to the wrapped transport as a plain SCSI command.
func (a *ps3storAdapter) SCSIPassThrough(cmd hostio.SCSICommand) (hostio.SCSIResult, error) {
	if len(cmd.CDB) > ps3storCDBLen {
		return hostio.SCSIResult{}, errors.Errorf("tunnel: ps3stor CDB exceeds %d bytes", ps3storCDBLen)
	}
	padded := make([]byte, ps3storCDBLen)
	copy(padded, cmd.CDB)

	senseLen := cmd.SenseLen
	if senseLen == 0 {
		senseLen = ps3storSenseLen
	}

	// cmdDirFor mirrors the direction byte the controller's scsi request wrapper carries
	// alongside the CDB; the transport below still takes direction from cmd.Dir itself.
	_ = cmdDirFor(cmd.Dir)

	return a.tp.SCSIPassThrough(hostio.SCSICommand{
		CDB:      padded,
		Buf:      cmd.Buf,
		Dir:      cmd.Dir,
		SenseLen: senseLen,
		Timeout:  cmd.Timeout,
	})
}

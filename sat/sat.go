// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package sat implements the SCSI/ATA Translation tunnel (T10 SAT-4, spec.md §4.4.1): it
// serialises an ATA taskfile into an ATA PASS-THROUGH CDB and decodes the ATA status return
// sense descriptor back into register values, presenting an hostio.ATATransport over an
// hostio.SCSITransport. It is grounded on the teacher's vendored SATDevice (identify/readSMARTLog
// CDB field layout), generalized from one hardcoded IDENTIFY/SMART READ LOG call into a full
// taskfile encoder.
package sat

import (
	"github.com/pkg/errors"

	"github.com/hdsentry/smart/hostio"
)

const (
	opATAPassThru12 = 0xa1
	opATAPassThru16 = 0x85

	protoNonData  = 3
	protoPIODataIn = 4
	protoPIODataOut = 5
	protoDMA      = 6

	// ATA status return sense descriptor type, carried in the sense data when CK_COND is set
	// (spec.md §4.4.1).
	descATAStatusReturn = 0x09
)

// Device wraps an hostio.SCSITransport and implements hostio.ATATransport by tunnelling ATA
// taskfiles through ATA PASS-THROUGH CDBs.
type Device struct {
	tp hostio.SCSITransport
}

func NewDevice(tp hostio.SCSITransport) *Device {
	return &Device{tp: tp}
}

func protocolFor(dir hostio.Direction) uint8 {
	switch dir {
	case hostio.DataIn:
		return protoPIODataIn
	case hostio.DataOut:
		return protoPIODataOut
	default:
		return protoNonData
	}
}

// buildCDB serialises an ATA taskfile into a 0xa1 (12-byte, 28-bit addressing) or 0x85 (16-byte,
// 48-bit addressing) CDB, per spec.md §4.4.1.
func buildCDB(regs hostio.ATARegisters, dir hostio.Direction, blocks uint16) []byte {
	proto := protocolFor(dir)

	// byte 2: off_line(0)|ck_cond(1)|rsvd(0)|t_dir|byt_blok(1)|t_length(2, "count in sector count")
	byte2 := byte(0x20) // CK_COND=1
	byte2 |= 0x04        // BYT_BLOK=1 (count field is in blocks)
	if dir == hostio.DataIn {
		byte2 |= 0x08 // T_DIR=1 (from device)
	}
	if dir != hostio.NoData {
		byte2 |= 0x02 // T_LENGTH=2 (transfer length in the sector count field)
	}

	if !regs.Is48Bit {
		cdb := make([]byte, 12)
		cdb[0] = opATAPassThru12
		cdb[1] = proto << 1
		cdb[2] = byte2
		cdb[3] = regs.Features
		cdb[4] = regs.SectorCount
		cdb[5] = regs.LBALow
		cdb[6] = regs.LBAMid
		cdb[7] = regs.LBAHigh
		cdb[8] = regs.Device
		cdb[9] = regs.Command
		return cdb
	}

	cdb := make([]byte, 16)
	cdb[0] = opATAPassThru16
	cdb[1] = (proto << 1) | 0x01 // EXTEND=1
	cdb[2] = byte2
	cdb[3] = regs.FeaturesExt
	cdb[4] = regs.Features
	cdb[5] = regs.CountExt
	cdb[6] = regs.SectorCount
	cdb[7] = regs.LBALowExt
	cdb[8] = regs.LBALow
	cdb[9] = regs.LBAMidExt
	cdb[10] = regs.LBAMid
	cdb[11] = regs.LBAHighExt
	cdb[12] = regs.LBAHigh
	cdb[13] = regs.Device
	cdb[14] = regs.Command
	return cdb
}

// decodeATAStatusReturn extracts the ATA output registers from a type-0x09 sense descriptor, per
// spec.md §4.4.1. Descriptor format (SAT-4 table 148): byte0=0x09, byte1=0x0c, byte2 bit0=EXTEND,
// byte3=error, byte4/5=sector count (ext/cur), byte6/7=LBA low (ext/cur), byte8/9=LBA mid
// (ext/cur), byte10/11=LBA high (ext/cur), byte12=device, byte13=status.
func decodeATAStatusReturn(desc []byte) (hostio.ATARegisters, bool) {
	if len(desc) < 14 || desc[0] != descATAStatusReturn {
		return hostio.ATARegisters{}, false
	}
	extend := desc[2]&0x01 != 0
	regs := hostio.ATARegisters{
		Error:       desc[3],
		CountExt:    desc[4],
		SectorCount: desc[5],
		LBALowExt:   desc[6],
		LBALow:      desc[7],
		LBAMidExt:   desc[8],
		LBAMid:      desc[9],
		LBAHighExt:  desc[10],
		LBAHigh:     desc[11],
		Device:      desc[12],
		Status:      desc[13],
		Is48Bit:     extend,
	}
	return regs, true
}

// findATAStatusDescriptor walks a descriptor-format sense buffer's descriptors looking for the
// ATA status return type (0x09). Fixed-format sense (response code 0x70/0x71) has no descriptors.
func findATAStatusDescriptor(sense []byte) []byte {
	if len(sense) < 8 {
		return nil
	}
	respCode := sense[0] & 0x7f
	if respCode != 0x72 && respCode != 0x73 {
		return nil
	}
	additionalLen := int(sense[7])
	descs := sense[8:]
	if additionalLen < len(descs) {
		descs = descs[:additionalLen]
	}
	for len(descs) >= 2 {
		descType := descs[0]
		descLen := int(descs[1])
		end := 2 + descLen
		if end > len(descs) {
			break
		}
		if descType == descATAStatusReturn {
			return descs[:end]
		}
		descs = descs[end:]
	}
	return nil
}

// ATAPassThrough implements hostio.ATATransport by translating the request into an ATA
// PASS-THROUGH CDB and, when the device reports CK_COND, decoding the returned registers from the
// sense data back into an ATAResult.
func (d *Device) ATAPassThrough(cmd hostio.ATACommand) (hostio.ATAResult, error) {
	blocks := uint16(len(cmd.Buf) / 512)
	cdb := buildCDB(cmd.Regs, cmd.Dir, blocks)

	res, err := d.tp.SCSIPassThrough(hostio.SCSICommand{
		CDB: cdb,
		Buf: cmd.Buf,
		Dir: cmd.Dir,
	})
	if err != nil {
		return hostio.ATAResult{}, errors.Wrap(err, "sat: scsi pass-through")
	}

	const checkCondition = 0x02
	if res.Status != checkCondition {
		return hostio.ATAResult{Regs: hostio.ATARegisters{Status: 0, Command: cmd.Regs.Command}}, nil
	}

	desc := findATAStatusDescriptor(res.Sense)
	if desc == nil {
		return hostio.ATAResult{}, errors.New("sat: CHECK CONDITION without ATA status return descriptor")
	}
	regs, ok := decodeATAStatusReturn(desc)
	if !ok {
		return hostio.ATAResult{}, errors.New("sat: malformed ATA status return descriptor")
	}
	return hostio.ATAResult{Regs: regs}, nil
}

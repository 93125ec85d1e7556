// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package ata

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hdsentry/smart/errtax"
	"github.com/hdsentry/smart/hostio"
)

// Device is an ATA codec bound to a single ATA pass-through transport. It owns no OS handle
// itself; it composes hostio.ATATransport calls into the semantic operations of spec.md §4.2.1
// and §4.3.
type Device struct {
	tp  hostio.ATATransport
	log *logrus.Entry
}

// NewDevice wraps an ATA pass-through transport with the ATA codec.
func NewDevice(tp hostio.ATATransport, log *logrus.Entry) *Device {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Device{tp: tp, log: log}
}

// smartRegs builds the taskfile for a SMART sub-command, writing the magic signature into
// LBA mid/high as spec.md §4.2.1 requires for every SMART command.
func smartRegs(feature, sectorCount, lbaLow byte) hostio.ATARegisters {
	return hostio.ATARegisters{
		Command:     CmdSMART,
		Features:    feature,
		SectorCount: sectorCount,
		LBALow:      lbaLow,
		LBAMid:      smartMagicLBAMid,
		LBAHigh:     smartMagicLBAHigh,
	}
}

func (d *Device) passThrough(regs hostio.ATARegisters, dir hostio.Direction, buf []byte) (hostio.ATAResult, error) {
	if dir != hostio.NoData && (len(buf) == 0 || len(buf)%sectorSize != 0) {
		return hostio.ATAResult{}, errors.New("ata: data command requires non-zero multiple of 512 bytes")
	}
	if dir == hostio.NoData && len(buf) != 0 {
		return hostio.ATAResult{}, errors.New("ata: non-data command must have zero-length buffer")
	}

	d.log.WithFields(logrus.Fields{
		"cmd": regs.Command, "features": regs.Features, "sector_count": regs.SectorCount,
	}).Debug("ata pass-through")

	res, err := d.tp.ATAPassThrough(hostio.ATACommand{Regs: regs, Dir: dir, Buf: buf})
	if err != nil {
		return hostio.ATAResult{}, errors.Wrap(err, "ata: pass-through")
	}
	return res, nil
}

// Identify issues IDENTIFY DEVICE (0xec) and parses the 512-byte response.
func (d *Device) Identify() (*IdentifyDeviceData, error) {
	buf := make([]byte, sectorSize)
	if _, err := d.passThrough(hostio.ATARegisters{Command: CmdIdentifyDevice}, hostio.DataIn, buf); err != nil {
		return nil, err
	}
	return parseIdentify(buf), nil
}

// IdentifyPacket issues IDENTIFY PACKET DEVICE (0xa1). Callers, not the codec, decide whether a
// device warrants the packet variant (spec.md §4.1.3).
func (d *Device) IdentifyPacket() (*IdentifyDeviceData, error) {
	buf := make([]byte, sectorSize)
	if _, err := d.passThrough(hostio.ATARegisters{Command: CmdIdentifyPacketDevice}, hostio.DataIn, buf); err != nil {
		return nil, err
	}
	return parseIdentify(buf), nil
}

// SMARTEnable issues SMART ENABLE OPERATIONS (0xd8).
func (d *Device) SMARTEnable() error {
	_, err := d.passThrough(smartRegs(SMARTEnable, 0, 0), hostio.NoData, nil)
	return err
}

// SMARTDisable issues SMART DISABLE OPERATIONS (0xd9).
func (d *Device) SMARTDisable() error {
	_, err := d.passThrough(smartRegs(SMARTDisable, 0, 0), hostio.NoData, nil)
	return err
}

// SMARTReadValues issues SMART READ DATA (0xd0) and returns the parsed values page. The checksum
// bool is false when the XOR checksum invariant (spec.md §3.5, §8.1) fails; a failing checksum
// is a warning, not an error, and the data is still returned.
func (d *Device) SMARTReadValues() (*ValuesPage, bool, error) {
	buf := make([]byte, sectorSize)
	if _, err := d.passThrough(smartRegs(SMARTReadData, 1, 0), hostio.DataIn, buf); err != nil {
		return nil, false, err
	}
	page := parseValuesPage(buf)
	return page, VerifyChecksum(buf), nil
}

// SMARTReadThresholds issues SMART READ THRESHOLDS (0xd1) (the thresholds page shares
// the same wire layout as the values page, but is semantically distinct, per spec.md §3.5).
func (d *Device) SMARTReadThresholds() (*ThresholdsPage, bool, error) {
	buf := make([]byte, sectorSize)
	if _, err := d.passThrough(smartRegs(SMARTReadThresholds, 1, 0), hostio.DataIn, buf); err != nil {
		return nil, false, err
	}
	page := parseThresholdsPage(buf)
	return page, VerifyChecksum(buf), nil
}

// SMARTReadLogSector issues SMART READ LOG with LBA low set to the requested page, for count
// sectors.
func (d *Device) SMARTReadLogSector(page byte, count int) ([]byte, error) {
	buf := make([]byte, sectorSize*count)
	if _, err := d.passThrough(smartRegs(SMARTReadLog, byte(count), page), hostio.DataIn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// SMARTWriteLogSector issues SMART WRITE LOG. data must be a multiple of 512 bytes.
func (d *Device) SMARTWriteLogSector(page byte, data []byte) error {
	if len(data) == 0 || len(data)%sectorSize != 0 {
		return errors.New("ata: SMART WRITE LOG requires a non-zero multiple of 512 bytes")
	}
	count := len(data) / sectorSize
	_, err := d.passThrough(smartRegs(SMARTWriteLog, byte(count), page), hostio.DataOut, data)
	return err
}

// SMARTReturnStatus issues SMART RETURN STATUS (0xda) and reports whether the post-command
// LBA mid/high pair carries the FAILING magic (spec.md §4.2.1). It requires
// hostio.CapATARegistersVerbatim; callers without that capability should fall back to the
// pseudo-check in Health() (spec.md §9 Open Question).
func (d *Device) SMARTReturnStatus() (failing bool, err error) {
	res, err := d.passThrough(smartRegs(SMARTReturnStatus, 0, 0), hostio.NoData, nil)
	if err != nil {
		return false, err
	}
	return res.Regs.LBAMid == smartFailingLBAMid && res.Regs.LBAHigh == smartFailingLBAHigh, nil
}

// SMARTExecuteOffline launches a self-test of the given type (spec.md §4.3). It returns no
// completion-time estimate itself; callers read that from the TimeToComplete field of the page
// SMARTReadValues returns.
func (d *Device) SMARTExecuteOffline(t SelfTestType) error {
	_, err := d.passThrough(smartRegs(SMARTExecOffline, 0, t.subcommand()), hostio.NoData, nil)
	return err
}

// errorRegisterDiagnostic renders the per-command ATA error register diagnostic (spec.md §4.5).
func errorRegisterDiagnostic(errReg uint8) string {
	return errtax.DescribeATAError(errReg)
}

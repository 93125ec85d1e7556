// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package jmicron implements the JMicron JMB39x/JMS56x USB-SATA and PCIe-SATA bridge tunnel
// (spec.md §4.4.2): a port-addressed, XOR-obfuscated, CRC-32-checked sector protocol carried over
// ordinary READ/WRITE commands to a single fixed LBA, used by these bridges to forward ATA
// taskfiles to the drive attached to one of their ports. It is grounded on the original
// dev_jmb39x_raid.cpp tunnelled_device, generalized from its C++ class fields into a Device that
// implements hostio.ATATransport over either an hostio.ATATransport or hostio.SCSITransport
// carrier, selected by which constructor is used.
package jmicron

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/hdsentry/smart/hostio"
)

// Options configures a bridge port.
type Options struct {
	// Version selects the bridge's scrambled command dialect: 0 = JMB39x, 1 = JMB39x as found on
	// the QNAP TR-004 NAS, 2 = JMS562.
	Version uint8
	// Port is the bridge port to address, 0..4.
	Port uint8
	// LBA is the fixed sector address used for the protocol handshake, 33..62. Defaults to 33,
	// which on an MBR disk falls in the usually-unused area after the boot code and on a GPT disk
	// falls among usually-unused secondary GPT entries.
	LBA uint8
	// Force permits opening a port whose handshake LBA is non-zero-filled, overwriting whatever
	// was there (after zero-filling it first if it already holds wake-up or protocol data).
	Force bool
}

const defaultLBA = 33

// rawIO is the minimal sector-at-a-fixed-LBA primitive the bridge protocol is carried over.
type rawIO interface {
	rawRead() ([512]byte, error)
	rawWrite(data [512]byte) error
}

type ataRawIO struct {
	tp  hostio.ATATransport
	lba uint8
}

func (r *ataRawIO) rawRead() ([512]byte, error) {
	var data [512]byte
	buf := make([]byte, 512)
	_, err := r.tp.ATAPassThrough(hostio.ATACommand{
		Regs: hostio.ATARegisters{
			Command: 0x20, // READ SECTORS, 28-bit PIO
			LBALow:  r.lba,
			Device:  0x40, // LBA mode, LBA bits 24-27 = 0
		},
		Dir: hostio.DataIn,
		Buf: buf,
	})
	if err != nil {
		return data, errors.Wrapf(err, "jmicron: ATA read LBA %d", r.lba)
	}
	copy(data[:], buf)
	return data, nil
}

func (r *ataRawIO) rawWrite(data [512]byte) error {
	_, err := r.tp.ATAPassThrough(hostio.ATACommand{
		Regs: hostio.ATARegisters{
			Command: 0x30, // WRITE SECTORS, 28-bit PIO
			LBALow:  r.lba,
			Device:  0x40,
		},
		Dir: hostio.DataOut,
		Buf: append([]byte(nil), data[:]...),
	})
	if err != nil {
		return errors.Wrapf(err, "jmicron: ATA write LBA %d", r.lba)
	}
	return nil
}

type scsiRawIO struct {
	tp  hostio.SCSITransport
	lba uint8
}

func (r *scsiRawIO) rawRead() ([512]byte, error) {
	var data [512]byte
	buf := make([]byte, 512)
	cdb := []byte{0x28, 0x00, 0x00, 0x00, 0x00, r.lba, 0x00, 0x00, 0x01, 0x00} // READ(10)
	res, err := r.tp.SCSIPassThrough(hostio.SCSICommand{CDB: cdb, Buf: buf, Dir: hostio.DataIn})
	if err != nil {
		return data, errors.Wrapf(err, "jmicron: SCSI read LBA %d", r.lba)
	}
	if res.Status != 0 {
		return data, errors.Errorf("jmicron: SCSI read LBA %d: status %#02x", r.lba, res.Status)
	}
	copy(data[:], buf)
	return data, nil
}

func (r *scsiRawIO) rawWrite(data [512]byte) error {
	cdb := []byte{0x2a, 0x00, 0x00, 0x00, 0x00, r.lba, 0x00, 0x00, 0x01, 0x00} // WRITE(10)
	res, err := r.tp.SCSIPassThrough(hostio.SCSICommand{
		CDB: cdb,
		Buf: append([]byte(nil), data[:]...),
		Dir: hostio.DataOut,
	})
	if err != nil {
		return errors.Wrapf(err, "jmicron: SCSI write LBA %d", r.lba)
	}
	if res.Status != 0 {
		return errors.Errorf("jmicron: SCSI write LBA %d: status %#02x", r.lba, res.Status)
	}
	return nil
}

// Device is a single JMicron bridge port, presenting itself as an hostio.ATATransport to the
// drive attached behind it.
type Device struct {
	raw  rawIO
	opts Options
	log  *logrus.Entry

	blocked       bool
	origWriteBack bool
	cmdID         uint32
	origData      [512]byte
}

func newDevice(raw rawIO, opts Options, log *logrus.Entry) *Device {
	if opts.LBA == 0 {
		opts.LBA = defaultLBA
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Device{raw: raw, opts: opts, log: log}
}

// NewATADevice opens a bridge port whose handshake sector is reached over an ATA carrier (the
// bridge itself answers READ/WRITE SECTORS commands).
func NewATADevice(tp hostio.ATATransport, opts Options, log *logrus.Entry) *Device {
	return newDevice(&ataRawIO{tp: tp, lba: opts.LBA}, opts, log)
}

// NewSCSIDevice opens a bridge port whose handshake sector is reached over a SCSI carrier (the
// bridge itself answers READ(10)/WRITE(10) commands).
func NewSCSIDevice(tp hostio.SCSITransport, opts Options, log *logrus.Entry) *Device {
	return newDevice(&scsiRawIO{tp: tp, lba: opts.LBA}, opts, log)
}

func (d *Device) reportOrigDataLost() {
	d.log.WithField("lba", d.opts.LBA).WithField("zero_filled", isZeroFilled(d.origData[:])).
		Warn("jmicron: original sector lost")
}

func (d *Device) restoreOrigData() error {
	d.log.WithField("lba", d.opts.LBA).Debug("jmicron: restoring original sector")
	if err := d.raw.rawWrite(d.origData); err != nil {
		d.reportOrigDataLost()
		d.blocked = true
		return err
	}
	return nil
}

// Open performs the bridge handshake: it reads and preserves the sector at the port's fixed LBA,
// writes the four wake-up sectors in sequence, then issues a JMB identify-port command to confirm
// a drive is attached.
func (d *Device) Open() error {
	d.origWriteBack = false
	if d.blocked {
		return errors.New("jmicron: device blocked due to previous errors")
	}

	orig, err := d.raw.rawRead()
	if err != nil {
		return err
	}
	d.origData = orig

	if !isZeroFilled(orig[:]) {
		st := getSectorType(orig)
		if !d.opts.Force {
			d.blocked = true
			switch st {
			case 1:
				return errors.Errorf("jmicron: original sector at LBA %d contains JMB39x wakeup data", d.opts.LBA)
			case 2:
				return errors.Errorf("jmicron: original sector at LBA %d contains JMB39x protocol data", d.opts.LBA)
			default:
				return errors.Errorf("jmicron: original sector at LBA %d is not zero filled", d.opts.LBA)
			}
		}
		if st != 0 {
			d.origData = [512]byte{}
		}
	}

	for id := 0; id < 4; id++ {
		if err := d.raw.rawWrite(setWakeupSector(id)); err != nil {
			if id > 0 {
				d.reportOrigDataLost()
			}
			d.blocked = true
			return errors.Wrapf(err, "jmicron: write wake-up sector #%d", id+1)
		}
	}
	d.origWriteBack = true
	d.cmdID = 1

	b := byte(0x02)
	if d.opts.Version == 1 {
		b = 0x01
	}
	cmd := [24]byte{
		0x00,
		b, b,
		0xff,
		d.opts.Port,
		0x00, 0x00, 0x00,
		d.opts.Port,
	}

	response, err := d.runCommand(cmd[:])
	if err != nil {
		d.Close()
		return err
	}
	if response[16] < ' ' {
		d.Close()
		return errors.Errorf("jmicron: no device connected to port %d", d.opts.Port)
	}
	return nil
}

// Close restores the port's fixed LBA to the sector it held before Open.
func (d *Device) Close() error {
	var err error
	if d.origWriteBack {
		err = d.restoreOrigData()
		d.origWriteBack = false
	}
	return err
}

// runCommand wraps cmd (4..24 bytes) in a request sector, writes it obfuscated, reads back the
// obfuscated response and validates it, per spec.md §4.4.2.
func (d *Device) runCommand(cmd []byte) ([512]byte, error) {
	if len(cmd) < 4 || len(cmd) > 24 {
		return [512]byte{}, errors.New("jmicron: command body must be 4..24 bytes")
	}

	request := setRequestSector(d.opts.Version, d.cmdID, cmd)

	jmbXOR(&request)
	if err := d.raw.rawWrite(request); err != nil {
		d.blocked = true
		return [512]byte{}, err
	}
	jmbXOR(&request)

	response, err := d.raw.rawRead()
	if err != nil {
		d.blocked = true
		return [512]byte{}, err
	}
	jmbXOR(&response)

	if request == response {
		d.blocked = true
		return [512]byte{}, errors.New("jmicron: no JMB39x response detected")
	}
	if !checkCRC(&response) {
		d.blocked = true
		jmbXOR(&response)
		if !checkCRC(&response) {
			return [512]byte{}, errors.New("jmicron: CRC error in JMB39x response")
		}
		return [512]byte{}, errors.New("jmicron: JMB39x response contains a wakeup sector")
	}
	if !bytes.Equal(request[:8], response[:8]) {
		d.blocked = true
		return [512]byte{}, errors.New("jmicron: invalid header in JMB39x response")
	}

	d.cmdID++
	return response, nil
}

// supportLevel reports how completely the bridge's fixed ATA-over-JMB command body can carry an
// ATA register set: 0 = not at all, 1 = fully, 2 = fully and with an LBA-sector checksum byte
// that needs recomputing after extraction (spec.md §4.4.2).
func supportLevel(regs hostio.ATARegisters) int {
	const (
		ataIdentifyDevice   = 0xec
		ataSMARTCmd         = 0xb0
		ataSMARTReadValues  = 0xd0
		ataSMARTReadThresh  = 0xd1
		ataSMARTReadLogSect = 0xd5
	)
	switch regs.Command {
	case ataIdentifyDevice:
		return 1
	case ataSMARTCmd:
		switch regs.Features {
		case ataSMARTReadValues, ataSMARTReadThresh:
			return 2
		case ataSMARTReadLogSect:
			switch regs.LBALow {
			case 0x00, 0xe0:
				return 1
			case 0x01:
				return 2
			}
		}
	}
	return 0
}

func checksum(buf []byte) byte {
	var sum byte
	for _, b := range buf {
		sum += b
	}
	return sum
}

// ATAPassThrough implements hostio.ATATransport by tunnelling the taskfile through the bridge's
// fixed ATA-over-JMB command body (spec.md §4.4.2). Only data-in commands whose full response fits
// the single sector the bridge returns are supported.
func (d *Device) ATAPassThrough(cmd hostio.ATACommand) (hostio.ATAResult, error) {
	if d.blocked {
		return hostio.ATAResult{}, errors.New("jmicron: device blocked due to previous errors")
	}
	if cmd.Dir == hostio.NoData {
		return hostio.ATAResult{}, unix.ENOSYS
	}
	supported := supportLevel(cmd.Regs)
	if supported == 0 {
		return hostio.ATAResult{}, unix.ENOSYS
	}
	if len(cmd.Buf) != 512 {
		return hostio.ATAResult{}, errors.New("jmicron: buffer must be exactly one 512-byte sector")
	}

	body := [24]byte{
		0x00, 0x02, 0x03, 0xff,
		d.opts.Port,
		0x02, 0x00, 0xe0, 0x00, 0x00,
		cmd.Regs.Features, 0x00,
		cmd.Regs.SectorCount, 0x00,
		cmd.Regs.LBALow, 0x00,
		cmd.Regs.LBAMid, 0x00,
		cmd.Regs.LBAHigh, 0x00,
		0xa0, 0x00,
		cmd.Regs.Command, 0x00,
	}

	response, err := d.runCommand(body[:])
	if err != nil {
		return hostio.ATAResult{}, err
	}

	status := response[31]
	if status == 0x00 {
		d.blocked = true
		return hostio.ATAResult{}, errors.Errorf("jmicron: no device connected to port %d", d.opts.Port)
	}
	const bsyDrdyErr = 0xc1
	const drdyOnly = 0x40
	if status&bsyDrdyErr != drdyOnly {
		return hostio.ATAResult{}, errors.Errorf("jmicron: ATA command failed (status=%#02x)", status)
	}

	for i := range cmd.Buf {
		cmd.Buf[i] = 0
	}
	copy(cmd.Buf, response[32:496])

	if supported > 1 {
		cmd.Buf[511] -= checksum(cmd.Buf)
	}

	return hostio.ATAResult{Regs: hostio.ATARegisters{Status: status, Command: cmd.Regs.Command}}, nil
}

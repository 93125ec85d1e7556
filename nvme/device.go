// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package nvme

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/hdsentry/smart/hostio"
)

// Device is an NVMe codec bound to a single NVMe admin pass-through transport.
type Device struct {
	tp  hostio.NVMeTransport
	log *logrus.Entry
}

func NewDevice(tp hostio.NVMeTransport, log *logrus.Entry) *Device {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Device{tp: tp, log: log}
}

// IdentifyController issues Identify with CNS=0x01.
func (d *Device) IdentifyController() (ControllerIdentity, error) {
	buf := make([]byte, pageSize)
	_, err := d.identify(CNSController, 0, buf)
	if err != nil {
		return ControllerIdentity{}, err
	}
	return ParseControllerIdentity(buf), nil
}

// IdentifyNamespace issues Identify with CNS=0x00 for the given namespace ID.
func (d *Device) IdentifyNamespace(nsid uint32) (NamespaceIdentity, error) {
	buf := make([]byte, pageSize)
	_, err := d.identify(CNSNamespace, nsid, buf)
	if err != nil {
		return NamespaceIdentity{}, err
	}
	return ParseNamespaceIdentity(buf), nil
}

func (d *Device) identify(cns byte, nsid uint32, buf []byte) (hostio.NVMeResult, error) {
	d.log.WithField("cns", cns).Debug("nvme identify")
	return d.tp.NVMePassThrough(hostio.NVMeCommand{
		Opcode: OpIdentify,
		NSID:   nsid,
		Dir:    hostio.DataIn,
		Buf:    buf,
		CDW10:  uint32(cns),
	})
}

// ReadSMARTLog fetches the 512-byte SMART/Health log page for the given namespace (0xffffffff
// for the controller-wide log). lpoSupported is forwarded to GetLogPage; the SMART/Health log
// is only ever one 4KB page so it never actually needs chunking, but a caller that already knows
// its controller misreports LPA is free to pass false here too.
func (d *Device) ReadSMARTLog(nsid uint32, lpoSupported bool) (SMARTLog, error) {
	buf, err := d.GetLogPage(LogIDSMART, nsid, 512, lpoSupported)
	if err != nil {
		return SMARTLog{}, err
	}
	return ParseSMARTLog(buf), nil
}

// GetLogPage fetches size bytes of the given log page, chunking in 4KB controller-page units
// when size exceeds one page (spec.md §4.2.3). lpoSupported gates whether chunking beyond the
// first 4KB is attempted; when it is false, only the first chunk is read and unix.ENOSYS is
// returned alongside the (truncated) data, matching the boundary behaviour of spec.md §8.3.
func (d *Device) GetLogPage(logID byte, nsid uint32, size int, lpoSupported bool) ([]byte, error) {
	if size <= 0 || size%4 != 0 {
		return nil, errors.New("nvme: log page size must be a positive multiple of 4")
	}

	out := make([]byte, size)
	chunk := size
	if chunk > pageSize {
		chunk = pageSize
	}

	n, err := d.getLogPageChunk(logID, nsid, out[:chunk], 0)
	if err != nil {
		return nil, err
	}

	if size <= pageSize {
		return out[:n], nil
	}
	if !lpoSupported {
		return out[:n], unix.ENOSYS
	}

	offset := int64(chunk)
	for offset < int64(size) {
		remaining := size - int(offset)
		next := remaining
		if next > pageSize {
			next = pageSize
		}
		m, err := d.getLogPageChunk(logID, nsid, out[offset:offset+int64(next)], offset)
		if err != nil {
			return out[:offset], err
		}
		offset += int64(m)
	}
	return out[:offset], nil
}

// getLogPageChunk issues a single Get Log Page transfer of at most one controller page, using
// CDW10 NUMDL|LID and CDW12/CDW13 for the Log Page Offset in bytes.
func (d *Device) getLogPageChunk(logID byte, nsid uint32, buf []byte, byteOffset int64) (int, error) {
	numDwords := uint32(len(buf)) / 4
	if numDwords == 0 {
		return 0, errors.New("nvme: log page chunk must be at least 4 bytes")
	}

	_, err := d.tp.NVMePassThrough(hostio.NVMeCommand{
		Opcode: OpGetLogPage,
		NSID:   nsid,
		Dir:    hostio.DataIn,
		Buf:    buf,
		CDW10:  uint32(logID) | ((numDwords - 1) << 16),
		CDW12:  uint32(byteOffset),
		CDW13:  uint32(byteOffset >> 32),
	})
	if err != nil {
		return 0, err
	}
	return len(buf), nil
}

// SelfTest issues Device Self-test (opcode 0x14) with the given STC.
func (d *Device) SelfTest(nsid uint32, stc uint8) error {
	switch stc {
	case STCShort, STCExtended, STCVendorSpecific, STCAbort:
	default:
		return errors.Errorf("nvme: unknown self-test code %#02x", stc)
	}
	_, err := d.tp.NVMePassThrough(hostio.NVMeCommand{
		Opcode: OpSelfTest,
		NSID:   nsid,
		Dir:    hostio.NoData,
		CDW10:  uint32(stc),
	})
	return err
}

// Health implements the NVMe overall health assessment of spec.md §4.3: read the SMART/Health
// log and declare failure when the critical_warning byte is non-zero. lpoSupported gates Get Log
// Page offset chunking, per GetLogPage.
func (d *Device) Health(nsid uint32, lpoSupported bool) (passed bool, log SMARTLog, err error) {
	log, err = d.ReadSMARTLog(nsid, lpoSupported)
	if err != nil {
		return false, SMARTLog{}, err
	}
	return log.CriticalWarning == 0, log, nil
}

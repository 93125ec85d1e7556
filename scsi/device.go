// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package scsi

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hdsentry/smart/errtax"
	"github.com/hdsentry/smart/hostio"
)

// Device is a SCSI codec bound to a single SCSI generic pass-through transport.
type Device struct {
	tp  hostio.SCSITransport
	log *logrus.Entry
}

func NewDevice(tp hostio.SCSITransport, log *logrus.Entry) *Device {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Device{tp: tp, log: log}
}

// Result bundles a completed command's status/sense with its decoded sense tuple, mirroring
// spec.md §3.3's "(response_code, sense_key, asc, ascq, progress?)".
type Result struct {
	Status uint8
	Sense  errtax.SCSISense
	Data   []byte
}

// execute issues a CDB and, on CHECK CONDITION, decodes sense. A non-zero status is never
// returned as a Go error here (spec.md §4.1): only transport-level failures are.
func (d *Device) execute(cdb []byte, buf []byte, dir hostio.Direction, timeout time.Duration) (Result, error) {
	d.log.WithField("opcode", cdb[0]).Debug("scsi pass-through")

	res, err := d.tp.SCSIPassThrough(hostio.SCSICommand{
		CDB:     cdb,
		Buf:     buf,
		Dir:     dir,
		Timeout: timeout,
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "scsi: pass-through")
	}

	out := Result{Status: res.Status, Data: buf[:res.DataLen]}
	const checkCondition = 0x02
	if res.Status == checkCondition {
		out.Sense = errtax.DecodeSense(res.Sense)
	}
	return out, nil
}

// StandardInquiry issues STANDARD INQUIRY with the requested allocation length (36 or 64 bytes,
// spec.md §4.2.2).
func (d *Device) StandardInquiry(length int) (Inquiry, error) {
	if length != 36 && length != 64 {
		return Inquiry{}, errors.New("scsi: standard inquiry length must be 36 or 64")
	}
	buf := make([]byte, length)
	res, err := d.execute(BuildInquiry(uint8(length)), buf, hostio.DataIn, 0)
	if err != nil {
		return Inquiry{}, err
	}
	return ParseInquiry(res.Data), nil
}

// InquiryVPD issues INQUIRY with EVPD set and validates that the returned page code matches the
// request, guarding against devices that ignore EVPD (spec.md §4.2.2).
func (d *Device) InquiryVPD(page byte, length int) ([]byte, error) {
	buf := make([]byte, length)
	res, err := d.execute(BuildInquiryVPD(page, uint8(length)), buf, hostio.DataIn, 0)
	if err != nil {
		return nil, err
	}
	if len(res.Data) < 2 || res.Data[1] != page {
		return nil, errors.Errorf("scsi: VPD page mismatch: requested %#02x, got %#02x", page, res.Data[1])
	}
	return res.Data, nil
}

// TestUnitReady issues TEST UNIT READY. A UNIT ATTENTION on the first call is retried once
// (spec.md §4.2.2).
func (d *Device) TestUnitReady() (Result, error) {
	res, err := d.execute(BuildTestUnitReady(), nil, hostio.NoData, 0)
	if err != nil {
		return Result{}, err
	}
	if res.Sense.Valid && res.Sense.SenseKey == errtax.SenseUnitAttention {
		return d.execute(BuildTestUnitReady(), nil, hostio.NoData, 0)
	}
	return res, nil
}

// RequestSense issues REQUEST SENSE, used as the IE log page fallback (spec.md §4.3).
func (d *Device) RequestSense() (errtax.SCSISense, error) {
	buf := make([]byte, 252)
	res, err := d.execute(BuildRequestSense(252), buf, hostio.DataIn, 0)
	if err != nil {
		return errtax.SCSISense{}, err
	}
	return errtax.DecodeSense(res.Data), nil
}

// LogSense fetches a Log Sense page. If knownRespLen is zero, it first issues a 4-byte fetch to
// read the page length field, then re-issues with the full length — this double-fetch is
// skipped for the TapeAlert page, which clears its state on each read (spec.md §4.2.2).
func (d *Device) LogSense(page, subpage byte, knownRespLen uint16) ([]byte, error) {
	respLen := knownRespLen

	if respLen == 0 && page != LogPageTapeAlert {
		head := make([]byte, 4)
		res, err := d.execute(BuildLogSense(page, subpage, 4), head, hostio.DataIn, 0)
		if err != nil {
			return nil, err
		}
		if len(res.Data) < 4 {
			return nil, errors.New("scsi: log sense header short read")
		}
		pageLen := binary.BigEndian.Uint16(res.Data[2:4])
		if pageLen == 0 {
			return nil, errtax.New(errtax.EIO, "scsi: log sense page %#02x reports zero length", page)
		}
		respLen = 4 + pageLen
	}
	if respLen == 0 {
		respLen = 252
	}

	buf := make([]byte, respLen)
	res, err := d.execute(BuildLogSense(page, subpage, respLen), buf, hostio.DataIn, 0)
	if err != nil {
		return nil, err
	}

	return clampToPageLength(res.Data), nil
}

// clampToPageLength enforces the SCSI log/mode page length invariant of spec.md §3.5/§8.1: the
// parser must not read past min(declared page length, buffer length).
func clampToPageLength(buf []byte) []byte {
	if len(buf) < 4 {
		return buf
	}
	declared := int(binary.BigEndian.Uint16(buf[2:4]))
	end := 4 + declared
	if end > len(buf) {
		end = len(buf)
	}
	return buf[:end]
}

// ReadCapacity10 issues READ CAPACITY (10).
func (d *Device) ReadCapacity10() (blocks uint32, blockSize uint32, err error) {
	buf := make([]byte, 8)
	res, err := d.execute(BuildReadCapacity10(), buf, hostio.DataIn, 0)
	if err != nil {
		return 0, 0, err
	}
	if len(res.Data) < 8 {
		return 0, 0, errors.New("scsi: read capacity 10 short read")
	}
	return binary.BigEndian.Uint32(res.Data[0:4]), binary.BigEndian.Uint32(res.Data[4:8]), nil
}

// ReadCapacity16 issues READ CAPACITY (16), falling back to ReadCapacity10 if the 16-byte form
// is unsupported or blocked by the device (spec.md §4.2.2).
func (d *Device) ReadCapacity16() (blocks uint64, blockSize uint32, err error) {
	buf := make([]byte, 32)
	res, err := d.execute(BuildReadCapacity16(32), buf, hostio.DataIn, 0)
	if err == nil && (!res.Sense.Valid || res.Status == 0) && len(res.Data) >= 12 {
		return binary.BigEndian.Uint64(res.Data[0:8]), binary.BigEndian.Uint32(res.Data[8:12]), nil
	}

	b, bs, fbErr := d.ReadCapacity10()
	if fbErr != nil {
		if err != nil {
			return 0, 0, err
		}
		return 0, 0, fbErr
	}
	return uint64(b), bs, nil
}

// ReadDefect10 issues READ DEFECT DATA(10) and returns the grown defect list length in bytes.
func (d *Device) ReadDefect10(listFormat byte) (int, error) {
	buf := make([]byte, 4)
	res, err := d.execute(BuildReadDefect10(listFormat, 4), buf, hostio.DataIn, 0)
	if err != nil {
		return 0, err
	}
	if len(res.Data) < 4 {
		return 0, errors.New("scsi: read defect 10 short read")
	}
	return int(binary.BigEndian.Uint16(res.Data[2:4])), nil
}

// ReadDefect12 issues READ DEFECT DATA(12) and returns the grown defect list length in bytes.
func (d *Device) ReadDefect12(listFormat byte) (int, error) {
	buf := make([]byte, 8)
	res, err := d.execute(BuildReadDefect12(listFormat, 8), buf, hostio.DataIn, 0)
	if err != nil {
		return 0, err
	}
	if len(res.Data) < 8 {
		return 0, errors.New("scsi: read defect 12 short read")
	}
	return int(binary.BigEndian.Uint32(res.Data[4:8])), nil
}

// SendDiagnostic issues SEND DIAGNOSTIC for the given self-test function code, using the timeout
// spec.md §4.2.2 mandates: 60s for the non-self-test forms, 5h (18000s) for foreground extended
// self-tests.
func (d *Device) SendDiagnostic(functionCode byte, extendedSelfTest bool) error {
	timeout := time.Duration(timeoutDefault) * time.Second
	if extendedSelfTest {
		timeout = time.Duration(timeoutSelfTestExtended) * time.Second
	}
	_, err := d.execute(BuildSendDiagnostic(functionCode), nil, hostio.NoData, timeout)
	return err
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package scsi

import (
	"github.com/pkg/errors"

	"github.com/hdsentry/smart/errtax"
	"github.com/hdsentry/smart/hostio"
)

// modeSenseForm records which CDB variant answered a MODE SENSE request, so MODE SELECT can be
// issued with a matching length (spec.md §4.2.2 "remember which worked").
type modeSenseForm int

const (
	formUnknown modeSenseForm = iota
	form6
	form10
)

// ModeSense issues MODE SENSE 6, falling back to MODE SENSE 10 on "bad opcode" (spec.md §4.2.2).
// It returns the raw mode page bytes (header included) and which form answered.
func (d *Device) ModeSense(pc int, page, subpage byte) ([]byte, modeSenseForm, error) {
	buf := make([]byte, 255)
	res, err := d.execute(BuildModeSense6(pc, page, subpage, 255), buf, hostio.DataIn, 0)
	if err != nil {
		return nil, formUnknown, err
	}
	if !res.Sense.Valid || res.Sense.SenseKey != errtax.SenseIllegalRequest || res.Sense.ASC != 0x20 {
		return res.Data, form6, nil
	}

	buf10 := make([]byte, 4096)
	res, err = d.execute(BuildModeSense10(pc, page, subpage, 4096), buf10, hostio.DataIn, 0)
	if err != nil {
		return nil, formUnknown, err
	}
	return res.Data, form10, nil
}

// ModeSelect writes back a mode page using the CDB form ModeSense determined, preserving the SP
// bit from the original PS bit (spec.md §4.2.2 point 4).
func (d *Device) ModeSelect(form modeSenseForm, sp bool, page []byte) error {
	switch form {
	case form6:
		_, err := d.execute(BuildModeSelect6(sp, uint8(len(page))), page, hostio.DataOut, 0)
		return err
	case form10:
		_, err := d.execute(BuildModeSelect10(sp, uint16(len(page))), page, hostio.DataOut, 0)
		return err
	default:
		return errors.New("scsi: mode select requires a known mode sense form")
	}
}

// iecOffsets locates the IEC (Informational Exceptions Control, page 0x1c) mode parameter bytes
// within a MODE SENSE response, skipping the 4-byte (form6) or 8-byte (form10) header plus any
// block descriptor.
func iecOffsets(form modeSenseForm, buf []byte) (headerLen, blockDescLen int) {
	if form == form10 {
		headerLen = 8
		if len(buf) >= 8 {
			blockDescLen = int(buf[6])<<8 | int(buf[7])
		}
		return
	}
	headerLen = 4
	if len(buf) >= 4 {
		blockDescLen = int(buf[3])
	}
	return
}

// SetIEC enables or disables the Informational Exceptions Control mode page per spec.md §4.2.2:
// fetch current and changeable values, mutate the requested bits masked by the changeable
// bitmap, and write back via MODE SELECT preserving the PS bit as the SP bit.
func (d *Device) SetIEC(enable bool) error {
	current, form, err := d.ModeSense(PCCurrent, ModePageIEC, 0)
	if err != nil {
		return err
	}
	changeable, _, err := d.ModeSense(PCChangeable, ModePageIEC, 0)
	if err != nil {
		return err
	}

	headerLen, blockDescLen := iecOffsets(form, current)
	off := headerLen + blockDescLen
	if len(current) < off+12 || len(changeable) < off+4 {
		return errors.New("scsi: IEC mode page response too short")
	}

	ps := current[off]&0x80 != 0

	page := append([]byte(nil), current...)
	mask := changeable[off+2]

	if enable {
		page[off+2] = (page[off+2] &^ mask) | (0x10 & mask) // EWASC
		page[off+3] = 6                                     // MRIE = report on unrequested REQUEST SENSE
		page[off+4] = 0
		page[off+5] = 0
		page[off+6] = 0
		page[off+7] = 0
		page[off+11] = 1 // report count = 1
	} else {
		page[off+2] &^= 0x10 // clear EWASC
		page[off+2] |= 0x08  // set DEXCPT
	}

	// MODE SELECT must not echo the mode data length / block descriptor length header fields
	// back verbatim in all cases, but for this narrow write we pass the page through unmodified
	// aside from the bytes above, matching smartmontools' scsiSetExceptionControlAndWarning.
	return d.ModeSelect(form, ps, page)
}

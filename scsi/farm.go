// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package scsi

import "encoding/binary"

// Seagate FARM (Field Accessible Reliability Metrics) log page, fetched via LOG SENSE page 0x3d
// subpage 0x03. Its payload is a sequence of vendor-defined TLV parameters; spec.md §D.3 (see
// SPEC_FULL.md) scopes this package to a generic walker that yields (paramID, paramData) pairs
// without interpreting vendor semantics — that belongs to a consumer, not the codec.
const (
	LogPageFARM    = 0x3d
	LogSubpageFARM = 0x03

	farmParamHeaderLen = 4
)

// FARMParam is one (paramID, paramData) pair extracted from a FARM log page, mirroring the
// generic log-parameter framing every SCSI log page uses (spec.md §4.2.2: 2-byte parameter code,
// 1 control byte, 1 length byte, followed by that many data bytes).
type FARMParam struct {
	ParamID uint16
	Data    []byte
}

// ReadFARM fetches the FARM log page and returns its raw parameter list unwalked.
func (d *Device) ReadFARM() ([]byte, error) {
	return d.LogSense(LogPageFARM, LogSubpageFARM, 0)
}

// WalkFARMParams iterates the parameter list of a FARM (or any standard-framed) log page buffer
// as returned by LogSense, calling fn for each well-formed parameter. It stops at the first
// truncated parameter header or body rather than panicking, per the page-length clamp invariant
// of spec.md §3.5/§8.1.
func WalkFARMParams(page []byte, fn func(FARMParam) error) error {
	if len(page) < 4 {
		return nil
	}
	body := page[4:]

	for len(body) >= farmParamHeaderLen {
		paramID := binary.BigEndian.Uint16(body[0:2])
		paramLen := int(body[3])
		end := farmParamHeaderLen + paramLen
		if end > len(body) {
			break
		}
		if err := fn(FARMParam{ParamID: paramID, Data: body[farmParamHeaderLen:end]}); err != nil {
			return err
		}
		body = body[end:]
	}
	return nil
}

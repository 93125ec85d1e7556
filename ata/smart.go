// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package ata

const numAttributes = 30

// Attribute is one 12-byte SMART attribute record (spec.md §3.5, §6.1): id(1) | flags(2,
// misaligned) | current(1) | worst(1) | raw(6) | reserved(1). The prefailure bit is the low bit
// of flags, the online bit is bit 1.
type Attribute struct {
	ID       uint8
	Flags    uint16
	Current  uint8
	Worst    uint8
	Raw      [6]byte
}

func (a Attribute) PreFailure() bool { return a.Flags&0x0001 != 0 }
func (a Attribute) Online() bool     { return a.Flags&0x0002 != 0 }

// parseAttribute reads a single 12-byte attribute record at a byte-offset boundary. Because
// flags is declared as a misaligned 16-bit field, it is read explicitly byte-by-byte rather than
// through a native struct cast (SPEC_FULL.md / spec.md §9 design note).
func parseAttribute(b []byte) Attribute {
	return Attribute{
		ID:      b[0],
		Flags:   uint16(b[1]) | uint16(b[2])<<8,
		Current: b[3],
		Worst:   b[4],
		Raw:     [6]byte{b[5], b[6], b[7], b[8], b[9], b[10]},
	}
}

// ValuesPage is the parsed SMART READ DATA response (spec.md §3.5, §6.1): revnumber(2) |
// 30×attribute(12) | offline-status(1) | self-test-status(1) | ttc-offline(2) | ... |
// checksum(1), 512 bytes total.
type ValuesPage struct {
	Revision         uint16
	Attributes       [numAttributes]Attribute
	OfflineStatus    uint8
	SelfTestStatus   uint8
	TimeToComplete   uint16
	Raw              [512]byte
}

func parseValuesPage(sector []byte) *ValuesPage {
	var p ValuesPage
	copy(p.Raw[:], sector)

	p.Revision = uint16(sector[0]) | uint16(sector[1])<<8
	for i := 0; i < numAttributes; i++ {
		off := 2 + i*12
		p.Attributes[i] = parseAttribute(sector[off : off+12])
	}
	const attrTableEnd = 2 + numAttributes*12
	p.OfflineStatus = sector[attrTableEnd]
	p.SelfTestStatus = sector[attrTableEnd+1]
	p.TimeToComplete = uint16(sector[attrTableEnd+2]) | uint16(sector[attrTableEnd+3])<<8

	return &p
}

// ThresholdsPage is the parsed SMART READ THRESHOLDS response. It shares the 30 × 12-byte record
// layout of ValuesPage, but each record holds only an id byte followed by a threshold byte.
type ThresholdsPage struct {
	Revision   uint16
	Thresholds [numAttributes]struct {
		ID        uint8
		Threshold uint8
	}
	Raw [512]byte
}

func parseThresholdsPage(sector []byte) *ThresholdsPage {
	var p ThresholdsPage
	copy(p.Raw[:], sector)

	p.Revision = uint16(sector[0]) | uint16(sector[1])<<8
	for i := 0; i < numAttributes; i++ {
		off := 2 + i*12
		p.Thresholds[i].ID = sector[off]
		p.Thresholds[i].Threshold = sector[off+1]
	}
	return &p
}

// VerifyChecksum implements the invariant of spec.md §3.5/§8.1: the byte-wise sum of a 512-byte
// SMART sector, modulo 256, must be zero. A mismatch is a warning, never a hard error — callers
// still use the parsed data.
func VerifyChecksum(sector []byte) bool {
	if len(sector) != 512 {
		return false
	}
	var sum byte
	for _, b := range sector {
		sum += b
	}
	return sum == 0
}

// PairedAttribute is the result of matching a values-page attribute against its threshold by id
// (spec.md §4.3 "Attribute dump").
type PairedAttribute struct {
	ID            uint8
	Flags         uint16
	Current       uint8
	Worst         uint8
	Threshold     uint8
	UpdatedPolicy string // "online" or "offline", per the Online() flag
	FailedNow     bool
	FailedEver    bool
	Raw           [6]byte
}

// PairAttributes matches each of the 30 attribute records against its threshold record by id,
// producing the tuple spec.md §4.3 names. Unpopulated slots (id == 0 in both tables) are skipped.
func PairAttributes(values *ValuesPage, thresholds *ThresholdsPage) []PairedAttribute {
	thrByID := make(map[uint8]uint8, numAttributes)
	for _, th := range thresholds.Thresholds {
		if th.ID != 0 {
			thrByID[th.ID] = th.Threshold
		}
	}

	out := make([]PairedAttribute, 0, numAttributes)
	for _, a := range values.Attributes {
		if a.ID == 0 {
			continue
		}
		th, ok := thrByID[a.ID]
		if !ok {
			continue
		}

		policy := "offline"
		if a.Online() {
			policy = "online"
		}

		// "Failing now" iff current <= threshold and the prefailure flag is set (spec.md §4.3).
		failingNow := a.Current <= th && a.PreFailure()
		// "Failed ever" additionally considers worst, the historical low-water mark.
		failedEver := failingNow || (a.Worst <= th && a.PreFailure())

		out = append(out, PairedAttribute{
			ID:            a.ID,
			Flags:         a.Flags,
			Current:       a.Current,
			Worst:         a.Worst,
			Threshold:     th,
			UpdatedPolicy: policy,
			FailedNow:     failingNow,
			FailedEver:    failedEver,
			Raw:           a.Raw,
		})
	}
	return out
}

// AttributeDump reads both the values and thresholds pages and pairs them (spec.md §4.3).
func (d *Device) AttributeDump() ([]PairedAttribute, bool, error) {
	values, okV, err := d.SMARTReadValues()
	if err != nil {
		return nil, false, err
	}
	thresholds, okT, err := d.SMARTReadThresholds()
	if err != nil {
		return nil, false, err
	}
	return PairAttributes(values, thresholds), okV && okT, nil
}

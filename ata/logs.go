// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package ata

import "encoding/binary"

const (
	logPageSummaryError   = 0x01
	logPageSelfTest       = 0x06
	logPageExtCompError   = 0x03
	logPageExtSelfTest    = 0x07
	logPageSCTCommand     = 0xe0
	logPageSCTStatus      = 0xe0 // SCT status is read back from the SCT command log page
	logPageSCTData        = 0xe2

	selfTestEntrySize    = 24
	numSelfTestEntries   = 21
	extSelfTestEntrySize = 26
	numExtSelfTestEntries = 19
	extErrorEntrySize    = 124
	numExtErrorEntries   = 4
)

// SelfTestLogEntry is one entry of the legacy 21-entry circular self-test log (spec.md §3.5).
type SelfTestLogEntry struct {
	LBA44               uint8 // self-test number / LBA[31:24]
	StatusByte          uint8
	LifetimeHours       uint16
	ChecksumByte        uint8
	Raw                 [selfTestEntrySize]byte
}

// SelfTestLog is the parsed legacy 512-byte SMART self-test log (21 circular entries of 24
// bytes, spec.md §3.5).
type SelfTestLog struct {
	Revision       uint16
	Entries        [numSelfTestEntries]SelfTestLogEntry
	MostRecentTest int // index of the newest entry, -1 if the log is empty
	Raw            [512]byte
}

// ReadSelfTestLog reads and parses the legacy self-test log (SMART READ LOG page 0x06).
func (d *Device) ReadSelfTestLog() (*SelfTestLog, error) {
	buf, err := d.SMARTReadLogSector(logPageSelfTest, 1)
	if err != nil {
		return nil, err
	}
	return parseSelfTestLog(buf), nil
}

func parseSelfTestLog(sector []byte) *SelfTestLog {
	var l SelfTestLog
	copy(l.Raw[:], sector)

	l.Revision = binary.LittleEndian.Uint16(sector[0:2])
	l.MostRecentTest = -1

	for i := 0; i < numSelfTestEntries; i++ {
		off := 2 + i*selfTestEntrySize
		e := sector[off : off+selfTestEntrySize]
		entry := SelfTestLogEntry{
			LBA44:         e[0],
			StatusByte:    e[1],
			LifetimeHours: binary.LittleEndian.Uint16(e[2:4]),
		}
		copy(entry.Raw[:], e)
		l.Entries[i] = entry
	}

	// Byte 508 holds the self-test index pointer in real ATA8-ACS layout (the 21 entries occupy
	// offsets 2..505, followed by two vendor-specific bytes at 506..507); we read it defensively
	// since some drives leave it zero when unused.
	if len(sector) > 508 {
		idx := int(sector[508])
		if idx > 0 && idx <= numSelfTestEntries {
			l.MostRecentTest = idx - 1
		}
	}

	return &l
}

// EntryAt returns the self-test log entry `back` positions before the most recent one, walking
// the circular buffer backwards modulo its size (spec.md §4.3 "Self-test log read").
func (l *SelfTestLog) EntryAt(back int) (SelfTestLogEntry, bool) {
	if l.MostRecentTest < 0 {
		return SelfTestLogEntry{}, false
	}
	idx := ((l.MostRecentTest-back)%numSelfTestEntries + numSelfTestEntries) % numSelfTestEntries
	return l.Entries[idx], true
}

// ExtSelfTestLog is the 48-bit-LBA extended self-test log: 19 entries of 26 bytes (spec.md §3.5,
// SPEC_FULL.md §D.2).
type ExtSelfTestLog struct {
	Revision uint16
	Entries  [numExtSelfTestEntries][extSelfTestEntrySize]byte
}

func (d *Device) ReadExtSelfTestLog() (*ExtSelfTestLog, error) {
	buf, err := d.SMARTReadLogSector(logPageExtSelfTest, 1)
	if err != nil {
		return nil, err
	}
	var l ExtSelfTestLog
	l.Revision = binary.LittleEndian.Uint16(buf[0:2])
	for i := 0; i < numExtSelfTestEntries; i++ {
		off := 2 + i*extSelfTestEntrySize
		copy(l.Entries[i][:], buf[off:off+extSelfTestEntrySize])
	}
	return &l, nil
}

// SummaryErrorLog is the legacy 512-byte summary error log: 5 circular entries plus a pointer
// (spec.md §3.5).
type SummaryErrorLog struct {
	Revision    uint16
	EntryCount  uint8
	MostRecent  uint8
	Raw         [512]byte
}

func (d *Device) ReadSummaryErrorLog() (*SummaryErrorLog, error) {
	buf, err := d.SMARTReadLogSector(logPageSummaryError, 1)
	if err != nil {
		return nil, err
	}
	var l SummaryErrorLog
	copy(l.Raw[:], buf)
	l.Revision = binary.LittleEndian.Uint16(buf[0:2])
	l.EntryCount = buf[452] // device error count, per T13 layout
	l.MostRecent = buf[2]
	return &l, nil
}

// ExtComprehensiveErrorLog is the 48-bit extended comprehensive error log: 4 entries of 124
// bytes each (spec.md §3.5, SPEC_FULL.md §D.2).
type ExtComprehensiveErrorLog struct {
	Revision uint16
	Entries  [numExtErrorEntries][extErrorEntrySize]byte
}

func (d *Device) ReadExtComprehensiveErrorLog() (*ExtComprehensiveErrorLog, error) {
	buf, err := d.SMARTReadLogSector(logPageExtCompError, 1)
	if err != nil {
		return nil, err
	}
	var l ExtComprehensiveErrorLog
	l.Revision = binary.LittleEndian.Uint16(buf[0:2])
	for i := 0; i < numExtErrorEntries; i++ {
		off := 2 + i*extErrorEntrySize
		copy(l.Entries[i][:], buf[off:off+extErrorEntrySize])
	}
	return &l, nil
}

// SCTStatus is the parsed SCT status response (spec.md §3.5; two on-wire format versions, 2 and
// 3, distinguished by FormatVersion).
type SCTStatus struct {
	FormatVersion     uint16
	SCTVersion        uint16
	SCTContentVersion uint16
	DeviceState       uint8
	TemperatureCelsius int16
	LifetimeHours     uint32
	Raw               [512]byte
}

// ReadSCTStatus reads the SCT status log via SMART READ LOG page 0xe0 (SPEC_FULL.md §D.1).
func (d *Device) ReadSCTStatus() (*SCTStatus, error) {
	buf, err := d.SMARTReadLogSector(logPageSCTStatus, 1)
	if err != nil {
		return nil, err
	}
	var s SCTStatus
	copy(s.Raw[:], buf)
	s.FormatVersion = binary.LittleEndian.Uint16(buf[0:2])
	s.SCTVersion = binary.LittleEndian.Uint16(buf[2:4])
	s.SCTContentVersion = binary.LittleEndian.Uint16(buf[4:6])
	s.DeviceState = buf[6]
	s.TemperatureCelsius = int16(binary.LittleEndian.Uint16(buf[200:202]))
	s.LifetimeHours = binary.LittleEndian.Uint32(buf[8:12])
	return &s, nil
}

// SCTTempHistory is the SCT temperature history circular buffer: 128..478 entries of one signed
// byte (degrees Celsius) each (spec.md §3.5).
type SCTTempHistory struct {
	SamplingPeriodMinutes uint16
	WriteIndex            uint16
	Samples               []int8
}

// ReadSCTTempHistory reads the SCT temperature history table via SMART READ LOG page 0xe2
// (SPEC_FULL.md §D.1).
func (d *Device) ReadSCTTempHistory() (*SCTTempHistory, error) {
	buf, err := d.SMARTReadLogSector(logPageSCTData, 1)
	if err != nil {
		return nil, err
	}

	h := SCTTempHistory{
		SamplingPeriodMinutes: binary.LittleEndian.Uint16(buf[34:36]),
		WriteIndex:            binary.LittleEndian.Uint16(buf[36:38]),
	}

	// Entries occupy offsets 38 onward; the table's declared size (spec.md: 128..478 entries)
	// is bounded by the remainder of the 512-byte sector.
	n := len(buf) - 38
	if n > 478 {
		n = 478
	}
	h.Samples = make([]int8, n)
	for i := 0; i < n; i++ {
		h.Samples[i] = int8(buf[38+i])
	}
	return &h, nil
}

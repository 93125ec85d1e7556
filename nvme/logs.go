// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package nvme

import "encoding/binary"

const (
	errorLogEntrySize = 64
	selfTestLogSize   = 564
	selfTestNumEntries = 20
)

// ErrorLogEntry is one 64-byte entry of the Error Information log (log ID 0x01).
type ErrorLogEntry struct {
	ErrorCount uint64
	SQID       uint16
	CmdID      uint16
	StatusField uint16
	ParamErrorLocation uint16
}

func parseErrorLogEntry(b []byte) ErrorLogEntry {
	return ErrorLogEntry{
		ErrorCount:         binary.LittleEndian.Uint64(b[0:8]),
		SQID:               binary.LittleEndian.Uint16(b[8:10]),
		CmdID:              binary.LittleEndian.Uint16(b[10:12]),
		StatusField:        binary.LittleEndian.Uint16(b[12:14]),
		ParamErrorLocation: binary.LittleEndian.Uint16(b[14:16]),
	}
}

// ReadErrorLog fetches the Error Information log for up to n entries (64 bytes each, spec.md
// §4.2.3 / §3.5), chunking through GetLogPage when it exceeds one controller page.
func (d *Device) ReadErrorLog(nsid uint32, n int, lpoSupported bool) ([]ErrorLogEntry, error) {
	size := n * errorLogEntrySize
	buf, err := d.GetLogPage(LogIDError, nsid, size, lpoSupported)
	entries := make([]ErrorLogEntry, 0, len(buf)/errorLogEntrySize)
	for off := 0; off+errorLogEntrySize <= len(buf); off += errorLogEntrySize {
		entries = append(entries, parseErrorLogEntry(buf[off:off+errorLogEntrySize]))
	}
	return entries, err
}

// SelfTestLog is the 564-byte Self-test log (log ID 0x06): a header byte naming the
// currently-running test's progress, followed by 20 circular result entries.
type SelfTestLog struct {
	CurrentOpInProgress uint8
	CurrentCompletion   uint8
	Results             [selfTestNumEntries]SelfTestLogEntry
}

// SelfTestLogEntry is one circular-buffer entry of the self-test log.
type SelfTestLogEntry struct {
	Result      uint8
	SelfTestCode uint8
	PowerOnHours uint64
}

// ReadSelfTestLog fetches and parses the 564-byte self-test log.
func (d *Device) ReadSelfTestLog(nsid uint32) (SelfTestLog, error) {
	buf, err := d.GetLogPage(LogIDSelfTest, nsid, selfTestLogSize, true)
	if err != nil {
		return SelfTestLog{}, err
	}
	return parseSelfTestLog(buf), nil
}

func parseSelfTestLog(buf []byte) SelfTestLog {
	var l SelfTestLog
	if len(buf) < 4 {
		return l
	}
	l.CurrentOpInProgress = buf[0]
	l.CurrentCompletion = buf[1]

	for i := 0; i < selfTestNumEntries; i++ {
		off := 4 + i*28
		if off+28 > len(buf) {
			break
		}
		l.Results[i] = SelfTestLogEntry{
			Result:       buf[off] & 0x0f,
			SelfTestCode: (buf[off] >> 4) & 0x0f,
			PowerOnHours: binary.LittleEndian.Uint64(buf[off+4 : off+12]),
		}
	}
	return l
}

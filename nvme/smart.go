// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package nvme

import "encoding/binary"

// Critical warning bits of the SMART/Health log (NVMe base spec §5.14.1.2).
const (
	CritWarnAvailSpare  = 1 << 0
	CritWarnTemperature = 1 << 1
	CritWarnDegraded    = 1 << 2
	CritWarnReadOnly    = 1 << 3
	CritWarnVolatileMem = 1 << 4
)

// SMARTLog is the subset of the 512-byte SMART/Health log (spec.md §4.2.3, §8.4 scenario 3)
// consumed by the codec. The 128-bit wire counters are reduced to their low 64 bits, which loses
// information only past values no real drive will ever report.
type SMARTLog struct {
	CriticalWarning uint8
	TemperatureC    int
	AvailSparePct   uint8
	SpareThreshPct  uint8
	PercentUsed     uint8
	DataUnitsRead   uint64
	DataUnitsWritten uint64
	PowerCycles     uint64
	PowerOnHours    uint64
	UnsafeShutdowns uint64
	MediaErrors     uint64
	NumErrLogEntries uint64
}

// le128Low64 reduces a little-endian 128-bit wire counter to its low 64 bits.
func le128Low64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b[:8])
}

// ParseSMARTLog parses a 512-byte SMART/Health log page buffer.
func ParseSMARTLog(buf []byte) SMARTLog {
	var s SMARTLog
	if len(buf) < 192 {
		return s
	}
	s.CriticalWarning = buf[0]
	tempK := binary.LittleEndian.Uint16(buf[1:3])
	s.TemperatureC = int(tempK) - 273
	s.AvailSparePct = buf[3]
	s.SpareThreshPct = buf[4]
	s.PercentUsed = buf[5]
	s.DataUnitsRead = le128Low64(buf[32:48])
	s.DataUnitsWritten = le128Low64(buf[48:64])
	s.PowerCycles = le128Low64(buf[112:128])
	s.PowerOnHours = le128Low64(buf[128:144])
	s.UnsafeShutdowns = le128Low64(buf[144:160])
	s.MediaErrors = le128Low64(buf[160:176])
	s.NumErrLogEntries = le128Low64(buf[176:192])
	return s
}

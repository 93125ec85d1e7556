// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package scsi implements the SCSI/SAS command codec (spec.md §4.2.2): CDB construction for the
// T10 commands the core needs, sense decoding, and the semantic health operations built on them.
package scsi

const (
	OpTestUnitReady  = 0x00
	OpRequestSense   = 0x03
	OpInquiry        = 0x12
	OpModeSelect6    = 0x15
	OpModeSense6     = 0x1a
	OpSendDiagnostic = 0x1d
	OpReadCapacity10 = 0x25
	OpReadDefect10   = 0x37
	OpLogSense       = 0x4d
	OpModeSelect10   = 0x55
	OpModeSense10    = 0x5a
	OpReadDefect12   = 0xb7
	OpReadCapacity16 = 0x9e // service action 0x10
	OpATAPassThru12  = 0xa1
	OpATAPassThru16  = 0x85

	saiReadCapacity16 = 0x10

	// Minimum length of a standard INQUIRY response.
	InquiryReplyLenMin = 36
	InquiryReplyLenVPD = 64

	// Informational Exceptions Control mode page.
	ModePageIEC = 0x1c

	// TapeAlert log page — must skip the Log Sense double-fetch since it clears on read
	// (spec.md §4.2.2).
	LogPageTapeAlert = 0x2e
	LogPageIE        = 0x2f

	// Mode page control (PC) field values.
	PCCurrent    = 0
	PCChangeable = 1
	PCDefault    = 2
	PCSaved      = 3

	timeoutDefault          = 60
	timeoutSelfTestExtended = 18000
)

// BuildInquiry constructs a 6-byte STANDARD INQUIRY CDB for the given allocation length
// (spec.md §4.2.2: 36 or 64 bytes).
func BuildInquiry(allocLen uint8) []byte {
	return []byte{OpInquiry, 0, 0, 0, allocLen, 0}
}

// BuildInquiryVPD constructs an INQUIRY CDB with EVPD set, requesting the given VPD page.
func BuildInquiryVPD(page byte, allocLen uint8) []byte {
	return []byte{OpInquiry, 0x01, page, 0, allocLen, 0}
}

// BuildTestUnitReady constructs the 6-byte TEST UNIT READY CDB.
func BuildTestUnitReady() []byte {
	return []byte{OpTestUnitReady, 0, 0, 0, 0, 0}
}

// BuildRequestSense constructs the 6-byte REQUEST SENSE CDB.
func BuildRequestSense(allocLen uint8) []byte {
	return []byte{OpRequestSense, 0, 0, 0, allocLen, 0}
}

// BuildLogSense constructs the 10-byte LOG SENSE CDB for the given page/subpage and allocation
// length, with PC fixed at "current cumulative values" (the only value spec.md's operations use).
func BuildLogSense(page, subpage byte, allocLen uint16) []byte {
	cdb := make([]byte, 10)
	cdb[0] = OpLogSense
	cdb[2] = 0x40 | (page & 0x3f) // PC=1 (current cumulative) in upper 2 bits, page in lower 6
	cdb[3] = subpage
	cdb[7] = byte(allocLen >> 8)
	cdb[8] = byte(allocLen)
	return cdb
}

// BuildModeSense6 constructs the 6-byte MODE SENSE CDB.
func BuildModeSense6(pc int, page, subpage byte, allocLen uint8) []byte {
	return []byte{OpModeSense6, 0, byte(pc<<6) | (page & 0x3f), subpage, allocLen, 0}
}

// BuildModeSense10 constructs the 10-byte MODE SENSE CDB.
func BuildModeSense10(pc int, page, subpage byte, allocLen uint16) []byte {
	cdb := make([]byte, 10)
	cdb[0] = OpModeSense10
	cdb[2] = byte(pc<<6) | (page & 0x3f)
	cdb[3] = subpage
	cdb[7] = byte(allocLen >> 8)
	cdb[8] = byte(allocLen)
	return cdb
}

// BuildModeSelect6 constructs the 6-byte MODE SELECT CDB. sp carries the "save pages" bit.
func BuildModeSelect6(sp bool, paramLen uint8) []byte {
	b := byte(0x10) // PF=1 (pages conform to current standard)
	if sp {
		b |= 0x01
	}
	return []byte{OpModeSelect6, b, 0, 0, paramLen, 0}
}

// BuildModeSelect10 constructs the 10-byte MODE SELECT CDB.
func BuildModeSelect10(sp bool, paramLen uint16) []byte {
	b := byte(0x10)
	if sp {
		b |= 0x01
	}
	cdb := make([]byte, 10)
	cdb[0] = OpModeSelect10
	cdb[1] = b
	cdb[7] = byte(paramLen >> 8)
	cdb[8] = byte(paramLen)
	return cdb
}

// BuildSendDiagnostic constructs the 6-byte SEND DIAGNOSTIC CDB for the given self-test function
// code (spec.md §4.2.2).
func BuildSendDiagnostic(functionCode byte) []byte {
	return []byte{OpSendDiagnostic, functionCode << 5, 0, 0, 0, 0}
}

// BuildReadCapacity10 constructs the 10-byte READ CAPACITY (10) CDB.
func BuildReadCapacity10() []byte {
	return []byte{OpReadCapacity10, 0, 0, 0, 0, 0, 0, 0, 0, 0}
}

// BuildReadCapacity16 constructs the 16-byte SERVICE ACTION IN(16) READ CAPACITY (16) CDB.
func BuildReadCapacity16(allocLen uint32) []byte {
	cdb := make([]byte, 16)
	cdb[0] = OpReadCapacity16
	cdb[1] = saiReadCapacity16
	cdb[10] = byte(allocLen >> 24)
	cdb[11] = byte(allocLen >> 16)
	cdb[12] = byte(allocLen >> 8)
	cdb[13] = byte(allocLen)
	return cdb
}

// BuildReadDefect10 constructs the 10-byte READ DEFECT DATA(10) CDB.
func BuildReadDefect10(listFormat byte, allocLen uint16) []byte {
	cdb := make([]byte, 10)
	cdb[0] = OpReadDefect10
	cdb[2] = 0x08 | (listFormat & 0x07) // REQ_GLIST bit + format
	cdb[7] = byte(allocLen >> 8)
	cdb[8] = byte(allocLen)
	return cdb
}

// BuildReadDefect12 constructs the 12-byte READ DEFECT DATA(12) CDB.
func BuildReadDefect12(listFormat byte, allocLen uint32) []byte {
	cdb := make([]byte, 12)
	cdb[0] = OpReadDefect12
	cdb[1] = 0x08 | (listFormat & 0x07) // REQ_GLIST bit + format
	cdb[8] = byte(allocLen >> 24)
	cdb[9] = byte(allocLen >> 16)
	cdb[10] = byte(allocLen >> 8)
	cdb[11] = byte(allocLen)
	return cdb
}

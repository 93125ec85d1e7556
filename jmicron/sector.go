// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package jmicron

import "encoding/binary"

// wakeupCmd is the fixed tag written into byte 0-3 of every wake-up sector.
const wakeupCmd = 0x197b0325

// wakeupTrailer is the fixed tag written into byte 504-507 of every wake-up sector.
const wakeupTrailer = 0x10eca1db

// wakeupCode and wakeupCRC give the per-id payload and CRC of the four wake-up sectors a
// JMB39x/JMS56x bridge expects, in order, before it will accept request sectors.
var (
	wakeupCode = [4]uint32{0x3c75a80b, 0x0388e337, 0x689705f3, 0xe00c523a}
	wakeupCRC  = [4]uint32{0x706d10d9, 0x6958511e, 0xfe234b07, 0x5be57adb}
)

// requestCmdCode selects the scrambled command tag written into byte 0-3 of a request sector,
// keyed by bridge version (0 = JMB39x, 1 = JMB39x on the QNAP TR-004 NAS, 2 = JMS562).
var requestCmdCode = [3]uint32{0x197b0322, 0x197b0393, 0x197b0562}

func getCRC(data *[512]byte) uint32 {
	return binary.LittleEndian.Uint32(data[508:512])
}

func putCRC(data *[512]byte, crc uint32) {
	binary.LittleEndian.PutUint32(data[508:512], crc)
}

func checkCRC(data *[512]byte) bool {
	return getCRC(data) == jmbCRC(data)
}

// setWakeupSector builds the id'th (0..3) of the four fixed wake-up sectors that must be written,
// in sequence, to bring a JMB39x/JMS56x bridge port out of its idle state.
func setWakeupSector(id int) [512]byte {
	var data [512]byte
	binary.LittleEndian.PutUint32(data[0:4], wakeupCmd)
	binary.LittleEndian.PutUint32(data[4:8], wakeupCode[id])
	for i := 16; i < 504; i++ {
		data[i] = byte(i)
	}
	binary.LittleEndian.PutUint32(data[504:508], wakeupTrailer)
	putCRC(&data, wakeupCRC[id])
	return data
}

// setRequestSector builds a request sector carrying cmd (4..24 bytes) tagged with the given
// bridge version and monotonic command ID, CRC-stamped over the assembled sector.
func setRequestSector(version uint8, cmdID uint32, cmd []byte) [512]byte {
	var data [512]byte
	code := requestCmdCode[0]
	if int(version) < len(requestCmdCode) {
		code = requestCmdCode[version]
	}
	binary.LittleEndian.PutUint32(data[0:4], code)
	binary.LittleEndian.PutUint32(data[4:8], cmdID)
	copy(data[8:8+len(cmd)], cmd)
	putCRC(&data, jmbCRC(&data))
	return data
}

// getSectorType classifies a sector read back from the bridge's fixed LBA: 1 if it CRC-checks as
// plain (wake-up) data, 2 if it only CRC-checks after XOR de-obfuscation (request/response
// framing), 0 otherwise (foreign, non-JMicron data).
func getSectorType(data [512]byte) int {
	if checkCRC(&data) {
		return 1
	}
	jmbXOR(&data)
	if checkCRC(&data) {
		return 2
	}
	return 0
}

func isZeroFilled(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package ata

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// IdentifyDeviceData is the parsed subset of the 512-byte ATA IDENTIFY DEVICE / IDENTIFY PACKET
// DEVICE response (spec.md §3.5). Word-swapped ASCII string fields have already been byte-swapped
// and trimmed by the time they land here (spec.md §4.2.1 "string formatting").
type IdentifyDeviceData struct {
	GeneralConfiguration uint16
	SerialNumber         string
	FirmwareRevision     string
	ModelNumber          string
	Capabilities         uint32
	MajorVersion         uint16
	MinorVersion         uint16
	Raw                  [512]byte
}

// wordSwapString reverses each pair of bytes in a raw IDENTIFY string field, ends the string at
// the first NUL byte, then trims whitespace, implementing the "string formatting" rule of
// spec.md §4.2.1.
func wordSwapString(raw []byte) string {
	b := make([]byte, len(raw))
	copy(b, raw)
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// parseIdentify reads a raw 512-byte IDENTIFY sector into IdentifyDeviceData. Offsets follow the
// ATA8-ACS word layout: word 0 (general config), words 10-19 (serial, 20 bytes), words 23-26
// (firmware, 8 bytes), words 27-46 (model, 40 bytes), words 49-50 (capabilities), words 80-81
// (major/minor version).
func parseIdentify(sector []byte) *IdentifyDeviceData {
	var d IdentifyDeviceData
	copy(d.Raw[:], sector)

	d.GeneralConfiguration = binary.LittleEndian.Uint16(sector[0:2])
	d.SerialNumber = wordSwapString(sector[20:40])
	d.FirmwareRevision = wordSwapString(sector[46:54])
	d.ModelNumber = wordSwapString(sector[54:94])
	d.Capabilities = uint32(binary.LittleEndian.Uint16(sector[98:100])) |
		uint32(binary.LittleEndian.Uint16(sector[100:102]))<<16
	d.MajorVersion = binary.LittleEndian.Uint16(sector[160:162])
	d.MinorVersion = binary.LittleEndian.Uint16(sector[162:164])

	return &d
}

// IsATAPIDevice reports whether GeneralConfiguration's bits identify an ATAPI (packet) device.
func (d *IdentifyDeviceData) IsATAPIDevice() bool {
	return d.GeneralConfiguration&0xc000 == 0x8000
}

// Sanitize overwrites the serial number with X's per spec.md §6.2 sanitize_identifiers.
func (d *IdentifyDeviceData) Sanitize() {
	d.SerialNumber = strings.Repeat("X", len(d.SerialNumber))
}

// MinorVersionString looks up the ATA minor version string table (spec.md "ATA / SATA" glossary
// entry); unknown codes return an empty string.
func (d *IdentifyDeviceData) MinorVersionString() string {
	return ataMinorVersions[d.MinorVersion]
}

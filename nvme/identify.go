// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package nvme

import (
	"bytes"
	"encoding/binary"
)

// ControllerIdentity is the subset of the 4096-byte Identify Controller structure (NVMe base
// spec §5.15.2.2) consumed by the codec. Byte offsets are grounded on the teacher's
// nvmeIdentController struct layout.
type ControllerIdentity struct {
	VendorID     uint16
	SerialNumber string
	ModelNumber  string
	Firmware     string
	IEEEOUI      uint32
	MaxDataXfer  uint8 // Mdts, expressed as 2^n controller pages
	LogPageAttrs uint8 // Lpa
	WarnTempK    uint16
	CritTempK    uint16
}

// SupportsLPO reports whether the controller advertises Log Page Offset support for Get Log
// Page (spec.md §4.2.3: Identify Controller `lpa & 0x04`).
func (c ControllerIdentity) SupportsLPO() bool {
	return c.LogPageAttrs&0x04 != 0
}

func trimASCII(b []byte) string {
	return string(bytes.TrimRight(bytes.TrimSpace(b), "\x00"))
}

// ParseControllerIdentity parses a 4096-byte Identify Controller buffer.
func ParseControllerIdentity(buf []byte) ControllerIdentity {
	var c ControllerIdentity
	if len(buf) < 4096 {
		return c
	}
	c.VendorID = binary.LittleEndian.Uint16(buf[0:2])
	c.SerialNumber = trimASCII(buf[4:24])
	c.ModelNumber = trimASCII(buf[24:64])
	c.Firmware = trimASCII(buf[64:72])
	c.IEEEOUI = uint32(buf[73]) | uint32(buf[74])<<8 | uint32(buf[75])<<16
	c.MaxDataXfer = buf[77]
	c.LogPageAttrs = buf[261]
	c.WarnTempK = binary.LittleEndian.Uint16(buf[266:268])
	c.CritTempK = binary.LittleEndian.Uint16(buf[268:270])
	return c
}

// NamespaceIdentity is the subset of the 4096-byte Identify Namespace structure consumed by the
// codec: size, capacity, and utilization in logical blocks.
type NamespaceIdentity struct {
	Size        uint64 // Nsze
	Capacity    uint64 // Ncap
	Utilization uint64 // Nuse
}

// ParseNamespaceIdentity parses a 4096-byte Identify Namespace buffer.
func ParseNamespaceIdentity(buf []byte) NamespaceIdentity {
	var n NamespaceIdentity
	if len(buf) < 24 {
		return n
	}
	n.Size = binary.LittleEndian.Uint64(buf[0:8])
	n.Capacity = binary.LittleEndian.Uint64(buf[8:16])
	n.Utilization = binary.LittleEndian.Uint64(buf[16:24])
	return n
}

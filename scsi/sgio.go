// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// SCSI status errors and standard INQUIRY response parsing.

package scsi

import (
	"fmt"
	"strings"
)

// StatusError wraps a non-zero SCSI status byte returned from a pass-through call that was not
// a CHECK CONDITION (which carries richer sense data and is handled separately, spec.md §4.1).
type StatusError struct {
	Status uint8
}

func (e StatusError) Error() string {
	return fmt.Sprintf("SCSI status: %#02x", e.Status)
}

// Inquiry is the parsed subset of a STANDARD INQUIRY response (spec.md §4.2.2): peripheral type
// (low 5 bits of byte 0) and vendor/product/revision (bytes 8..35).
type Inquiry struct {
	PeripheralType uint8
	VendorID       string
	ProductID      string
	ProductRev     string
	Raw            []byte
}

// ParseInquiry parses a STANDARD INQUIRY response buffer of at least InquiryReplyLenMin bytes.
func ParseInquiry(buf []byte) Inquiry {
	inq := Inquiry{Raw: append([]byte(nil), buf...)}
	if len(buf) == 0 {
		return inq
	}
	inq.PeripheralType = buf[0] & 0x1f
	if len(buf) >= 16 {
		inq.VendorID = strings.TrimRight(string(buf[8:16]), " ")
	}
	if len(buf) >= 32 {
		inq.ProductID = strings.TrimRight(string(buf[16:32]), " ")
	}
	if len(buf) >= 36 {
		inq.ProductRev = strings.TrimRight(string(buf[32:36]), " ")
	}
	return inq
}

// IsATAVendorString reports whether the INQUIRY vendor field is the 8-character space-padded
// "ATA     " string that signals a SAT-tunnelled ATA device (spec.md §4.1.2).
func IsATAVendorString(buf []byte) bool {
	return len(buf) >= 16 && string(buf[8:16]) == "ATA     "
}

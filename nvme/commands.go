// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package nvme implements the NVMe admin command codec (spec.md §4.2.3): Identify Controller,
// Identify Namespace, Get Log Page with chunked transfers, and Device Self-test.
package nvme

const (
	OpGetLogPage  = 0x02
	OpIdentify    = 0x06
	OpSelfTest    = 0x14

	CNSNamespace  = 0x00
	CNSController = 0x01

	LogIDError    = 0x01
	LogIDSMART    = 0x02
	LogIDSelfTest = 0x06

	// STC (Self-test Code) values for Device Self-test.
	STCShort           = 1
	STCExtended        = 2
	STCVendorSpecific  = 0xe
	STCAbort           = 0xf

	pageSize = 4096
)

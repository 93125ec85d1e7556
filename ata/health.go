// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package ata

import "github.com/hdsentry/smart/hostio"

// Health is a pure composition of SMART RETURN STATUS (spec.md §4.3 "Overall health
// assessment"). When the transport cannot guarantee verbatim ATA registers (spec.md §9 Open
// Question), it falls back to the pseudo-check: compare every attribute against its threshold,
// declaring failure if any prefailure attribute is at or below threshold.
func (d *Device) Health(tp hostio.Transport) (passed bool, err error) {
	if tp.HasCapability(hostio.CapATARegistersVerbatim) {
		failing, err := d.SMARTReturnStatus()
		if err != nil {
			return false, err
		}
		return !failing, nil
	}

	attrs, _, err := d.AttributeDump()
	if err != nil {
		return false, err
	}
	for _, a := range attrs {
		if a.FailedNow {
			return false, nil
		}
	}
	return true, nil
}

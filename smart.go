// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package smart is a pure Go storage device health monitoring toolkit: ATA/SATA, SCSI/SAS and
// NVMe command codecs behind a single Device abstraction, with SAT and vendor-bridge tunnels for
// drives that sit behind a RAID controller or a USB/port-multiplier bridge chip.
package smart

import "path/filepath"

// ScanDevices lists candidate SCSI/SATA disk device nodes (/dev/sdX, excluding partitions), the
// conventional starting point before calling Open on each.
func ScanDevices() ([]string, error) {
	files, err := filepath.Glob("/dev/sd*[^1-9]")
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package tunnel implements the generic RAID-controller pass-through contract (spec.md §4.4.3):
// a controller is opened once as an hostio.SCSITransport (its control device), and each physical
// drive behind it is named by a controller-specific target identifier. Every adapter here funnels
// through a single SCSIPassThrough call, mirroring the single dispatch point scsicmds.cpp's
// do_scsi_cmnd_io gives every CDB builder in the teacher's SCSI codec. No adapter encodes its
// target identifier into the CDB or a command wrapper: the identifier is only reported by
// Target(), and commands reach the control device as sent (ps3stor only pads the CDB).
package tunnel

import (
	"github.com/hdsentry/smart/hostio"
)

// Adapter presents one physical drive behind a RAID controller as an hostio.SCSITransport. The
// controller's own control device is wrapped once; an Adapter does not rewrite an incoming CDB to
// address its target drive, and the target it was built for is only reported by Target().
type Adapter interface {
	hostio.SCSITransport
	// Target returns the controller-specific addressing string this adapter was built for
	// (e.g. "port 3", "channel 0 id 5", "enclosure 1 slot 2"), for diagnostics and logging.
	Target() string
}

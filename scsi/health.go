// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package scsi

import "github.com/hdsentry/smart/errtax"

// IECheck implements the SCSI "IE check" semantic operation of spec.md §4.3: prefer the
// Informational Exceptions log page (0x2f); if present and well-formed, extract ASC/ASCQ and
// temperature. Falling back to REQUEST SENSE when the log page is absent, treating asc==0x5d
// ("impending failure") or asc==0x0b ("warning") as the threshold-exceeded condition.
type IEResult struct {
	ThresholdExceeded bool
	ASC, ASCQ         byte
	TemperatureC      int
}

func (d *Device) IECheck() (IEResult, error) {
	page, err := d.LogSense(LogPageIE, 0, 0)
	if err == nil && len(page) >= 11 {
		asc, ascq := page[8], page[9]
		temp := int(page[10])
		return IEResult{
			ThresholdExceeded: asc != 0,
			ASC:               asc,
			ASCQ:              ascq,
			TemperatureC:      temp,
		}, nil
	}

	sense, rsErr := d.RequestSense()
	if rsErr != nil {
		if err != nil {
			return IEResult{}, err
		}
		return IEResult{}, rsErr
	}

	exceeded := sense.ASC == 0x5d || sense.ASC == 0x0b
	return IEResult{
		ThresholdExceeded: exceeded,
		ASC:               sense.ASC,
		ASCQ:              sense.ASCQ,
	}, nil
}

// Health is the SCSI "overall health assessment" of spec.md §4.3: call the IE-check subroutine
// and declare failure when its threshold-exceeded flag is set.
func (d *Device) Health() (passed bool, err error) {
	res, err := d.IECheck()
	if err != nil {
		return false, err
	}
	return !res.ThresholdExceeded, nil
}

// ensure errtax is referenced — ClassifySCSI is the companion mapping used by callers that need
// the SimpleError taxonomy rather than the raw IEResult.
var _ = errtax.ClassifySCSI

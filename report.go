// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package smart

import (
	"fmt"
	"strings"
)

// formatBytes renders a byte count as a human-readable quantity with 3 significant digits,
// adapted from the teacher's bitops.go helper of the same name.
func formatBytes(v uint64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	f := float64(v)
	i := 0
	for f >= 1000 && i < len(units)-1 {
		f /= 1000
		i++
	}
	switch {
	case f >= 100:
		return fmt.Sprintf("%.0f %s", f, units[i])
	case f >= 10:
		return fmt.Sprintf("%.1f %s", f, units[i])
	default:
		return fmt.Sprintf("%.2f %s", f, units[i])
	}
}

// Report is the typed tree of spec.md §6.2, ready for an external JSON or YAML serialiser. It
// carries only what the core itself computed — drive-model heuristics and formatting policy are
// the external formatter's job (spec.md §1 Non-goals).
type Report struct {
	Name          string `json:"name" yaml:"name"`
	RequestedType string `json:"requested_type" yaml:"requested_type"`
	EffectiveType string `json:"effective_type" yaml:"effective_type"`

	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	Serial   string `json:"serial,omitempty" yaml:"serial,omitempty"`
	Firmware string `json:"firmware,omitempty" yaml:"firmware,omitempty"`

	CapacityBytes uint64 `json:"capacity_bytes,omitempty" yaml:"capacity_bytes,omitempty"`
	CapacityHuman string `json:"capacity_human,omitempty" yaml:"capacity_human,omitempty"`

	HealthPassed bool `json:"health_passed" yaml:"health_passed"`

	AttributesChecksumOK bool `json:"attributes_checksum_ok,omitempty" yaml:"attributes_checksum_ok,omitempty"`
}

// Report builds the Report tree for an already-open device, issuing the identify and health
// operations of spec.md §4.2/§4.3. SanitizeIdentifiers (spec.md §6.2) is applied before the
// serial number is copied into the tree.
func (d *Device) Report(requestedType string) (Report, error) {
	r := Report{
		Name:          d.name,
		RequestedType: requestedType,
		EffectiveType: d.kind.String(),
	}

	switch d.kind {
	case KindATA:
		if err := d.reportATA(&r); err != nil {
			return Report{}, err
		}
	case KindSCSI:
		if err := d.reportSCSI(&r); err != nil {
			return Report{}, err
		}
	case KindNVMe:
		if err := d.reportNVMe(&r); err != nil {
			return Report{}, err
		}
	}

	passed, err := d.Health()
	if err != nil {
		return Report{}, err
	}
	r.HealthPassed = passed
	return r, nil
}

func (d *Device) reportATA(r *Report) error {
	id, err := d.ata.Identify()
	if err != nil {
		return err
	}
	if d.cfg.SanitizeIdentifiers {
		id.Sanitize()
	}
	r.Model = id.ModelNumber
	r.Serial = id.SerialNumber
	r.Firmware = id.FirmwareRevision

	_, checksumOK, err := d.ata.SMARTReadValues()
	if err == nil {
		r.AttributesChecksumOK = checksumOK
	}
	return nil
}

func (d *Device) reportSCSI(r *Report) error {
	inq, err := d.scsi.StandardInquiry(36)
	if err != nil {
		return err
	}
	r.Model = inq.ProductID
	r.Firmware = inq.ProductRev

	blocks, blockSize, err := d.scsi.ReadCapacity16()
	if err == nil {
		r.CapacityBytes = blocks * uint64(blockSize)
		r.CapacityHuman = formatBytes(r.CapacityBytes)
	}
	return nil
}

func (d *Device) reportNVMe(r *Report) error {
	ctrl, err := d.nvme.IdentifyController()
	if err != nil {
		return err
	}
	r.Model = ctrl.ModelNumber
	r.Serial = ctrl.SerialNumber
	if d.cfg.SanitizeIdentifiers {
		r.Serial = strings.Repeat("X", len(r.Serial))
	}
	r.Firmware = ctrl.Firmware

	if d.nsid != 0xffffffff {
		ns, err := d.nvme.IdentifyNamespace(d.nsid)
		if err == nil {
			// The LBA format table (and its actual block size) is not parsed by
			// IdentifyNamespace; 512 bytes is NVMe's near-universal default format.
			const defaultLBASize = 512
			r.CapacityBytes = ns.Size * defaultLBASize
			r.CapacityHuman = formatBytes(r.CapacityBytes)
		}
	}

	if log, err := d.nvme.ReadSMARTLog(d.nsid, d.lpoSupported()); err == nil {
		r.AttributesChecksumOK = log.CriticalWarning == 0
	}
	return nil
}

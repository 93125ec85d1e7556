// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package smart

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hdsentry/smart/ata"
	"github.com/hdsentry/smart/errtax"
	"github.com/hdsentry/smart/hostio"
	"github.com/hdsentry/smart/jmicron"
	"github.com/hdsentry/smart/nvme"
	"github.com/hdsentry/smart/sat"
	"github.com/hdsentry/smart/scsi"
	"github.com/hdsentry/smart/tunnel"
)

// Kind names which protocol codec a Device presents to callers, per spec.md §4.1.
type Kind int

const (
	KindUnknown Kind = iota
	KindATA
	KindSCSI
	KindNVMe
)

func (k Kind) String() string {
	switch k {
	case KindATA:
		return "ata"
	case KindSCSI:
		return "scsi"
	case KindNVMe:
		return "nvme"
	default:
		return "unknown"
	}
}

// Device is the uniform open/close/pass-through/type-probe handle of spec.md §4.1. Exactly one
// of ata/scsi/nvme is non-nil, selected by Kind; ATA may itself be tunnelled through sat or
// jmicron, which is invisible above this layer (spec.md §9 "composition chain").
type Device struct {
	name string
	kind Kind
	cfg  Config
	log  *logrus.Entry

	tp hostio.Transport // owns the OS handle; Close releases it

	ata  *ata.Device
	scsi *scsi.Device
	nvme *nvme.Device
	nsid uint32

	closer func() error // tunnel-specific teardown run before tp.Close (e.g. jmicron restore)
}

var (
	reATADiskPrefix = regexp.MustCompile(`^/dev/(hd[a-z]+|twa\d+|twe\d+)$`)
	reSCSIDiskPrefix = regexp.MustCompile(`^/dev/(sd|wd)[a-z]+\d*$`)
	reNVMePrefix     = regexp.MustCompile(`^/dev/nvme(\d+)n(\d+)$`)
)

// Open implements spec.md §4.1's `open(name, requested_type)`. When typeHint is empty, the
// transport and protocol are auto-detected per §4.1.2/§6.3. name may carry a synthetic
// "parent+adapter,args" suffix (e.g. "/dev/sdb+jmb39x,0") addressing a tunnelled drive directly,
// independent of typeHint.
func Open(name string, typeHint string, cfg Config) (*Device, error) {
	log := cfg.entry()

	parent, adapterSpec := splitAdapterSpec(name)
	if adapterSpec == "" {
		switch typeHint {
		case "", "ata", "scsi", "nvme":
		default:
			adapterSpec = typeHint
		}
	}

	raw, err := hostio.OpenLinux(parent)
	if err != nil {
		return nil, err
	}

	d := &Device{name: name, cfg: cfg, log: log, tp: raw}

	if err := d.bind(raw, parent, adapterSpec, typeHint); err != nil {
		raw.Close()
		return nil, err
	}
	return d, nil
}

// splitAdapterSpec separates the synthetic "parent+adapter,args" naming form of spec.md §6.3.
func splitAdapterSpec(name string) (parent, spec string) {
	if i := strings.IndexByte(name, '+'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// bind resolves the device's Kind and protocol codec, given an already-open raw OS transport.
func (d *Device) bind(raw hostio.Transport, parent, adapterSpec, typeHint string) error {
	switch {
	case adapterSpec != "":
		return d.bindAdapter(raw, parent, adapterSpec)
	case typeHint == "ata":
		d.kind = KindATA
		d.ata = ata.NewDevice(raw, d.log)
		return nil
	case typeHint == "scsi":
		d.kind = KindSCSI
		d.scsi = scsi.NewDevice(raw, d.log)
		return nil
	case typeHint == "nvme":
		d.kind = KindNVMe
		d.nvme = nvme.NewDevice(raw, d.log)
		d.nsid = nsidFromName(d.name)
		return nil
	default:
		return d.autoDetect(raw)
	}
}

// bindAdapter dispatches the synthetic adapter spec (jmb39x/jms56x bridges, or a thin RAID
// tunnel) named in spec.md §6.3 onto the opened parent transport.
func (d *Device) bindAdapter(raw hostio.Transport, parent, spec string) error {
	switch {
	case strings.HasPrefix(spec, "jmb39x") || strings.HasPrefix(spec, "jms56x"):
		opts, err := jmicron.ParseOptions(spec)
		if err != nil {
			return err
		}
		// jmicron bridges speak either ATA or SCSI to the host depending on the parent
		// device class; the host prefix already told us which (spec.md §4.4.2).
		var jd *jmicron.Device
		if reATADiskPrefix.MatchString(parent) {
			jd = jmicron.NewATADevice(raw, opts, d.log)
		} else {
			jd = jmicron.NewSCSIDevice(raw, opts, d.log)
		}
		if err := jd.Open(); err != nil {
			return err
		}
		d.closer = jd.Close
		d.kind = KindATA
		d.ata = ata.NewDevice(jd, d.log)
		return nil
	case strings.HasPrefix(spec, "3ware"):
		port, err := parseUintArg(spec, "3ware")
		if err != nil {
			return err
		}
		adapter := tunnel.NewThreeWare(raw, uint8(port))
		return d.bindTunnelAsATA(adapter)
	case strings.HasPrefix(spec, "cciss"):
		target, err := parseUintArg(spec, "cciss")
		if err != nil {
			return err
		}
		adapter := tunnel.NewCCISS(raw, uint8(target))
		return d.bindTunnelAsATA(adapter)
	case spec == "marvell":
		return d.bindTunnelAsATA(tunnel.NewMarvell(raw))
	case spec == "sat":
		d.kind = KindATA
		d.ata = ata.NewDevice(sat.NewDevice(raw), d.log)
		return nil
	default:
		return errtax.New(errtax.EINVAL, "smart: unrecognised adapter spec %q", spec)
	}
}

// bindTunnelAsATA routes a thin RAID tunnel adapter's SCSI pass-through through the SAT codec,
// since 3ware/HighPoint/Marvell/CCISS controllers expose the tunnelled drive as a SCSI target
// (spec.md §8.4 scenario 6's "ATA semantics are routed through CDB").
func (d *Device) bindTunnelAsATA(adapter tunnel.Adapter) error {
	d.kind = KindATA
	d.ata = ata.NewDevice(sat.NewDevice(adapter), d.log)
	return nil
}

func parseUintArg(spec, prefix string) (uint64, error) {
	rest := strings.TrimPrefix(spec, prefix)
	rest = strings.TrimPrefix(rest, ",")
	v, err := strconv.ParseUint(rest, 10, 8)
	if err != nil {
		return 0, errtax.New(errtax.EINVAL, "smart: invalid adapter argument %q", spec)
	}
	return v, nil
}

// autoDetect implements spec.md §4.1.2 when no requested_type was given.
func (d *Device) autoDetect(raw hostio.Transport) error {
	switch {
	case reATADiskPrefix.MatchString(d.name):
		d.kind = KindATA
		d.ata = ata.NewDevice(raw, d.log)
		return nil

	case reSCSIDiskPrefix.MatchString(d.name):
		scsiDev := scsi.NewDevice(raw, d.log)
		inq, err := scsiDev.StandardInquiry(36)
		if err != nil {
			return err
		}
		if scsi.IsATAVendorString(inq.Raw) {
			ataTP := sat.NewDevice(raw)
			if _, err := ataTP.ATAPassThrough(hostio.ATACommand{
				Regs: hostio.ATARegisters{Command: 0xec},
				Dir:  hostio.DataIn,
				Buf:  make([]byte, 512),
			}); err == nil {
				d.kind = KindATA
				d.ata = ata.NewDevice(ataTP, d.log)
				return nil
			}
		}
		d.kind = KindSCSI
		d.scsi = scsiDev
		return nil

	case reNVMePrefix.MatchString(d.name):
		d.kind = KindNVMe
		d.nvme = nvme.NewDevice(raw, d.log)
		d.nsid = nsidFromName(d.name)
		return nil

	default:
		return errtax.New(errtax.ENOENT, "smart: %s does not match a recognised device prefix", d.name)
	}
}

// nsidFromName extracts the namespace ID from a /dev/nvmeNnM path, defaulting to the
// broadcast namespace (0xffffffff) when absent or unparsable.
func nsidFromName(name string) uint32 {
	m := reNVMePrefix.FindStringSubmatch(name)
	if m == nil {
		return 0xffffffff
	}
	n, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return 0xffffffff
	}
	return uint32(n)
}

// Kind reports which protocol codec this Device presents.
func (d *Device) Kind() Kind { return d.kind }

// Name returns the device name Open was called with.
func (d *Device) Name() string { return d.name }

// ATA returns the ATA codec, or nil if Kind() != KindATA.
func (d *Device) ATA() *ata.Device { return d.ata }

// SCSI returns the SCSI codec, or nil if Kind() != KindSCSI.
func (d *Device) SCSI() *scsi.Device { return d.scsi }

// NVMe returns the NVMe codec and the namespace ID Open resolved, or (nil, 0) if Kind() != KindNVMe.
func (d *Device) NVMe() (*nvme.Device, uint32) { return d.nvme, d.nsid }

// lpoSupported reports whether Get Log Page offset chunking should be attempted: either the
// transport advertises it natively, or the caller's nvme_force_lpo config knob overrides a
// controller that misreports its own LPA support.
func (d *Device) lpoSupported() bool {
	return d.cfg.NVMeForceLPO || d.tp.HasCapability(hostio.CapNVMeLogPageOffset)
}

// Health implements the Kind-dispatched "overall health assessment" of spec.md §4.3.
func (d *Device) Health() (passed bool, err error) {
	switch d.kind {
	case KindATA:
		return d.ata.Health(d.tp)
	case KindSCSI:
		return d.scsi.Health()
	case KindNVMe:
		passed, _, err := d.nvme.Health(d.nsid, d.lpoSupported())
		return passed, err
	default:
		return false, errors.New("smart: device not open")
	}
}

// Close implements spec.md §4.1's `close()`: idempotent, releases any tunnel-owned transient
// state (bridge wake-up restoration) before releasing the OS handle.
func (d *Device) Close() error {
	if d.closer != nil {
		closer := d.closer
		d.closer = nil
		if err := closer(); err != nil {
			return err
		}
	}
	if d.tp == nil {
		return nil
	}
	tp := d.tp
	d.tp = nil
	return tp.Close()
}

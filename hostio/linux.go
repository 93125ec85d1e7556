//go:build linux

// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package hostio

import (
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	sgDxferNone      = -1
	sgDxferToDev     = -2
	sgDxferFromDev   = -3
	sgIO             = 0x2285
	defaultSgTimeout = 20 * time.Second
	nvmeAdminCmdIOW  = 0xc0484e41 // _IOWR('N', 0x41, sizeof(nvme_passthru_cmd)), precomputed for amd64
)

// sgIOHdr mirrors <scsi/sg.h> struct sg_io_hdr.
type sgIOHdr struct {
	interfaceID   int32
	dxferDir      int32
	cmdLen        uint8
	mxSbLen       uint8
	iovecCount    uint16
	dxferLen      uint32
	dxferp        uintptr
	cmdp          uintptr
	sbp           uintptr
	timeout       uint32
	flags         uint32
	packID        int32
	usrPtr        uintptr
	status        uint8
	maskedStatus  uint8
	msgStatus     uint8
	sbLenWr       uint8
	hostStatus    uint16
	driverStatus  uint16
	resid         int32
	duration      uint32
	info          uint32
}

// nvmePassthruCmd mirrors <linux/nvme_ioctl.h> struct nvme_passthru_cmd.
type nvmePassthruCmd struct {
	opcode      uint8
	flags       uint8
	rsvd1       uint16
	nsid        uint32
	cdw2        uint32
	cdw3        uint32
	metadata    uint64
	addr        uint64
	metadataLen uint32
	dataLen     uint32
	cdw10       uint32
	cdw11       uint32
	cdw12       uint32
	cdw13       uint32
	cdw14       uint32
	cdw15       uint32
	timeoutMs   uint32
	result      uint32
}

// LinuxTransport implements Transport over a Linux file descriptor using SG_IO and the NVMe
// admin-command ioctl. One LinuxTransport backs exactly one device variant at a time; which
// pass-through method is actually invoked is the caller's choice (the core's device abstraction),
// not this shim's.
type LinuxTransport struct {
	fd   int
	caps map[Capability]bool
}

// OpenLinux opens device path with O_RDWR and returns a Transport. It does not itself issue any
// data-modifying command; callers perform verification (e.g. INQUIRY, IDENTIFY) afterwards.
func OpenLinux(path string) (*LinuxTransport, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "hostio: open %s", path)
	}

	return &LinuxTransport{
		fd: fd,
		caps: map[Capability]bool{
			CapATA48Bit:              true,
			CapATARegistersVerbatim:  true,
			CapNVMeLogPageOffset:     true,
		},
	}, nil
}

func (t *LinuxTransport) Close() error {
	if t.fd < 0 {
		return nil
	}
	fd := t.fd
	t.fd = -1
	return unix.Close(fd)
}

func (t *LinuxTransport) HasCapability(c Capability) bool {
	return t.caps[c]
}

// SetCapability allows a caller (or test harness) to override an auto-detected capability, e.g.
// when the host kernel is known to mask ATA registers.
func (t *LinuxTransport) SetCapability(c Capability, v bool) {
	t.caps[c] = v
}

func dirToSG(d Direction) int32 {
	switch d {
	case DataIn:
		return sgDxferFromDev
	case DataOut:
		return sgDxferToDev
	default:
		return sgDxferNone
	}
}

// SCSIPassThrough issues a raw SG_IO request. A non-zero SCSI status is NOT treated as an error
// here: the caller inspects SCSIResult.Status and Sense (spec.md §4.1 failure semantics).
func (t *LinuxTransport) SCSIPassThrough(cmd SCSICommand) (SCSIResult, error) {
	senseLen := cmd.SenseLen
	if senseLen == 0 {
		senseLen = 64
	}
	sense := make([]byte, senseLen)

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = defaultSgTimeout
	}

	hdr := sgIOHdr{
		interfaceID: int32('S'),
		dxferDir:    dirToSG(cmd.Dir),
		cmdLen:      uint8(len(cmd.CDB)),
		mxSbLen:     senseLen,
		dxferLen:    uint32(len(cmd.Buf)),
		timeout:     uint32(timeout.Milliseconds()),
		sbp:         uintptr(unsafe.Pointer(&sense[0])),
		cmdp:        uintptr(unsafe.Pointer(&cmd.CDB[0])),
	}
	if len(cmd.Buf) > 0 {
		hdr.dxferp = uintptr(unsafe.Pointer(&cmd.Buf[0]))
	}

	if err := ioctl(uintptr(t.fd), sgIO, uintptr(unsafe.Pointer(&hdr))); err != nil {
		return SCSIResult{}, errors.Wrap(err, "hostio: SG_IO")
	}

	return SCSIResult{
		Status:  hdr.status,
		Resid:   int(hdr.resid),
		Sense:   sense[:hdr.sbLenWr],
		DataLen: len(cmd.Buf) - int(hdr.resid),
	}, nil
}

// ATAPassThrough is not implemented directly by the Linux generic SCSI shim: a bare SG device
// has no native ATA taskfile ioctl. Callers wanting ATA semantics over a LinuxTransport compose
// it with the sat package's Device, which implements the SAT (T10 SAT-4) translation described in
// SPEC_FULL.md §4.4.1 using nothing but this transport's SCSIPassThrough.
func (t *LinuxTransport) ATAPassThrough(cmd ATACommand) (ATAResult, error) {
	if cmd.Dir != NoData && (len(cmd.Buf) == 0 || len(cmd.Buf)%512 != 0) {
		return ATAResult{}, errors.New("hostio: ATA data command requires a non-zero multiple of 512 bytes")
	}
	if cmd.Dir == NoData && len(cmd.Buf) != 0 {
		return ATAResult{}, errors.New("hostio: ATA non-data command must have zero-length buffer")
	}
	return ATAResult{}, unix.ENOSYS
}

// NVMePassThrough issues the Linux NVMe admin-command ioctl directly against the char device.
func (t *LinuxTransport) NVMePassThrough(cmd NVMeCommand) (NVMeResult, error) {
	var addr uint64
	if len(cmd.Buf) > 0 {
		addr = uint64(uintptr(unsafe.Pointer(&cmd.Buf[0])))
	}

	nc := nvmePassthruCmd{
		opcode:   cmd.Opcode,
		nsid:     cmd.NSID,
		addr:     addr,
		dataLen:  uint32(len(cmd.Buf)),
		cdw10:    cmd.CDW10,
		cdw11:    cmd.CDW11,
		cdw12:    cmd.CDW12,
		cdw13:    cmd.CDW13,
		cdw14:    cmd.CDW14,
		cdw15:    cmd.CDW15,
	}

	// A completed NVMe command with non-zero status is reported as success at the pass-through
	// boundary (spec.md §4.1): the ioctl only errors on transport-level failure, and its positive
	// return value is the command's NVMe status, carried in NVMeResult.Status.
	status, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(t.fd), nvmeAdminCmdIOW, uintptr(unsafe.Pointer(&nc)))
	if errno != 0 {
		return NVMeResult{}, errors.Wrap(errno, "hostio: NVMe admin ioctl")
	}

	return NVMeResult{
		Status: uint16(status),
		Result: nc.result,
		Valid:  true,
	}, nil
}

// ioctl executes an ioctl command on the specified file descriptor.
func ioctl(fd, cmd, ptr uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, cmd, ptr)
	if errno != 0 {
		return errno
	}
	return nil
}

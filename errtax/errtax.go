// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package errtax implements the status and error taxonomy of spec.md §4.5 / §7: the uniform
// (code, message) error pair, the SCSI sense and NVMe (SCT, SC) mappings, and the orthogonal
// SimpleError semantic classification.
package errtax

import "fmt"

// SimpleError is the semantic classification all protocol-level failures fold into.
type SimpleError int

const (
	NoError SimpleError = iota
	NotReady
	BadOpcode
	BadField
	BadParam
	BadResp
	NoMedium
	BecomingReady
	TryAgain
	MediumHardware
	AbortedCommand
	UnknownError
)

func (e SimpleError) String() string {
	switch e {
	case NoError:
		return "no error"
	case NotReady:
		return "not ready"
	case BadOpcode:
		return "bad opcode"
	case BadField:
		return "bad field in CDB"
	case BadParam:
		return "bad parameter"
	case BadResp:
		return "bad response"
	case NoMedium:
		return "no medium"
	case BecomingReady:
		return "becoming ready"
	case TryAgain:
		return "try again"
	case MediumHardware:
		return "medium or hardware error"
	case AbortedCommand:
		return "aborted command"
	default:
		return "unknown error"
	}
}

// Error is the uniform (code, message) pair of spec.md §3.6. Code is 0 on success, a positive
// errno-style value, or a negative transport-level negated errno.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func New(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Standard errno-class codes used throughout the core (spec.md §3.6, §7.1).
const (
	ENOENT    = 2
	EIO       = 5
	EBUSY     = 16
	EINVAL    = 22
	ENOSYS    = 38
	ETIMEDOUT = 110
	EACCES    = 13
)

// SCSI sense keys (T10 SPC).
const (
	SenseNoSense        = 0x00
	SenseRecoveredError = 0x01
	SenseNotReady       = 0x02
	SenseMediumError    = 0x03
	SenseHardwareError  = 0x04
	SenseIllegalRequest = 0x05
	SenseUnitAttention  = 0x06
	SenseDataProtect    = 0x07
	SenseAbortedCommand = 0x0b
)

// SCSISense decomposes a CHECK CONDITION sense buffer into the tuple spec.md §3.3 requires.
type SCSISense struct {
	ResponseCode byte
	SenseKey     byte
	ASC          byte
	ASCQ         byte
	Valid        bool // true once SenseKey (and, if len>=14, ASC/ASCQ) were decoded
}

// DecodeSense extracts (response_code, sense_key, asc, ascq) from a fixed-format sense buffer
// per spec.md §4.2.2. Buffers shorter than 8 bytes yield a zero-value, Valid=false result.
func DecodeSense(sense []byte) SCSISense {
	if len(sense) < 8 {
		return SCSISense{}
	}
	s := SCSISense{
		ResponseCode: sense[0],
		SenseKey:     sense[2] & 0x0f,
		Valid:        true,
	}
	if len(sense) >= 14 {
		s.ASC = sense[12]
		s.ASCQ = sense[13]
	}
	return s
}

// ClassifySCSI maps a decoded sense tuple to the SimpleError taxonomy (spec.md §4.5).
func ClassifySCSI(s SCSISense) SimpleError {
	switch s.SenseKey {
	case SenseNotReady:
		if s.ASC == 0x3a {
			return NoMedium
		}
		if s.ASC == 0x04 && s.ASCQ == 0x01 {
			return BecomingReady
		}
		return NotReady
	case SenseIllegalRequest:
		switch {
		case s.ASC == 0x20:
			return BadOpcode
		case s.ASC == 0x24:
			return BadField
		case s.ASC == 0x26:
			return BadParam
		default:
			return UnknownError
		}
	case SenseUnitAttention:
		return TryAgain
	case SenseMediumError, SenseHardwareError:
		return MediumHardware
	case SenseAbortedCommand:
		return AbortedCommand
	default:
		return UnknownError
	}
}

// nvmeStatusEntry is one row of the (SCT, SC) lookup table.
type nvmeStatusEntry struct {
	str      string
	isInval  bool // true => status_to_errno yields EINVAL rather than EIO
	simple   SimpleError
}

// nvmeStatusTable covers a subset of the Generic Command Status (SCT=0) entries plus a few Command
// Specific (SCT=1) and Media and Data Integrity (SCT=2) entries; unknown (SCT, SC) pairs fall
// through to the "Unknown Status" format.
var nvmeStatusTable = map[[2]uint8]nvmeStatusEntry{
	{0x00, 0x00}: {"Successful Completion", false, NoError},
	{0x00, 0x01}: {"Invalid Command Opcode", true, BadOpcode},
	{0x00, 0x02}: {"Invalid Field in Command", true, BadField},
	{0x00, 0x03}: {"Command ID Conflict", true, UnknownError},
	{0x00, 0x04}: {"Data Transfer Error", false, UnknownError},
	{0x00, 0x05}: {"Commands Aborted due to Power Loss Notification", false, AbortedCommand},
	{0x00, 0x06}: {"Internal Error", false, UnknownError},
	{0x00, 0x07}: {"Command Abort Requested", false, AbortedCommand},
	{0x00, 0x0a}: {"Command Sequence Error", true, BadField},
	{0x00, 0x0e}: {"Invalid Number of Namespaces", true, BadField},
	{0x00, 0x15}: {"Namespace Not Ready", false, NotReady},
	{0x01, 0x02}: {"Invalid Log Page", true, BadField},
	{0x01, 0x0a}: {"Feature Identifier Not Saveable", true, BadField},
	{0x02, 0x80}: {"Conflicting Attributes", true, BadField},
	{0x02, 0x81}: {"Invalid Protection Information", true, BadField},
}

// StatusToString renders the canonical human-readable string for an (SCT, SC) pair, or the
// "Unknown Status 0x.../0x..." fallback form required by spec.md §4.2.3.
func StatusToString(sct, sc uint8) string {
	if e, ok := nvmeStatusTable[[2]uint8{sct, sc}]; ok {
		return e.str
	}
	return fmt.Sprintf("Unknown Status 0x%02x/0x%02x", sct, sc)
}

// StatusToErrno maps NVMe status into a two-value errno per spec.md §4.2.3: EINVAL for
// command-formation errors, EIO for everything else, 0 for success.
func StatusToErrno(sct, sc uint8) int {
	if e, ok := nvmeStatusTable[[2]uint8{sct, sc}]; ok {
		if e.simple == NoError {
			return 0
		}
		if e.isInval {
			return EINVAL
		}
		return EIO
	}
	if sct == 0 && sc == 0 {
		return 0
	}
	return EIO
}

// ClassifyNVMe folds an (SCT, SC) pair into the SimpleError taxonomy (spec.md §4.5).
func ClassifyNVMe(sct, sc uint8) SimpleError {
	if e, ok := nvmeStatusTable[[2]uint8{sct, sc}]; ok {
		return e.simple
	}
	return UnknownError
}

// SplitNVMeStatus decomposes the raw 16-bit NVMe completion status field into (SCT, SC),
// discarding the DNR/More bits not modelled by spec.md §3.4.
func SplitNVMeStatus(status uint16) (sct, sc uint8) {
	// Status Code occupies bits 1..8, Status Code Type occupies bits 9..11 of the raw
	// completion-queue status field; bit 0 (phase tag) and bits 12+ (DNR/More) are ignored here.
	sc = uint8((status >> 1) & 0xff)
	sct = uint8((status >> 9) & 0x07)
	return sct, sc
}

// ATA error-register diagnostic bits (spec.md §4.5).
const (
	ATAErrAMNF  = 1 << 0 // address mark not found
	ATAErrTKZNF = 1 << 1 // track zero not found (obsolete alias of NM on some commands)
	ATAErrABRT  = 1 << 2 // command aborted
	ATAErrMCR   = 1 << 3 // media change requested
	ATAErrIDNF  = 1 << 4 // ID not found
	ATAErrMC    = 1 << 5 // media changed
	ATAErrUNC   = 1 << 6 // uncorrectable data error
	ATAErrICRC  = 1 << 7 // interface CRC error (overlaps WP on some commands)
)

// DescribeATAError renders a short diagnostic string from the ATA error register against the
// per-command bit names. The core does not define a uniform SimpleError mapping for ATA
// (spec.md §4.5): this is advisory text only.
func DescribeATAError(errReg uint8) string {
	if errReg == 0 {
		return ""
	}
	names := []struct {
		bit  uint8
		name string
	}{
		{ATAErrICRC, "ICRC"},
		{ATAErrUNC, "UNC"},
		{ATAErrMC, "MC"},
		{ATAErrIDNF, "IDNF"},
		{ATAErrMCR, "MCR"},
		{ATAErrABRT, "ABRT"},
		{ATAErrTKZNF, "TKZNF"},
		{ATAErrAMNF, "AMNF"},
	}
	out := ""
	for _, n := range names {
		if errReg&n.bit != 0 {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	return out
}

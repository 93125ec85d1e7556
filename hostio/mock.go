// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package hostio

// MockTransport is a scriptable Transport used by black-box device tests (spec.md §8.4). Each
// call pops the next queued response for its kind; calls beyond what was queued return
// errMockEmpty.
type MockTransport struct {
	ATAResponses  []mockATAResponse
	SCSIResponses []mockSCSIResponse
	NVMeResponses []mockNVMeResponse

	ATACalls  []ATACommand
	SCSICalls []SCSICommand
	NVMeCalls []NVMeCommand

	Caps   map[Capability]bool
	Closed bool
}

type mockATAResponse struct {
	Result ATAResult
	Data   []byte
	Err    error
}

type mockSCSIResponse struct {
	Result SCSIResult
	Data   []byte
	Err    error
}

type mockNVMeResponse struct {
	Result NVMeResult
	Data   []byte
	Err    error
}

// NewMockTransport returns an empty MockTransport with every capability enabled by default.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Caps: map[Capability]bool{
			CapATA48Bit:             true,
			CapATARegistersVerbatim: true,
			CapNVMeLogPageOffset:    true,
		},
	}
}

// QueueATA schedules a response. data, if non-nil, is copied into the caller's data buffer (the
// same reasoning as QueueSCSI applies: real ATA pass-through ioctls write through the caller's
// buffer, never through a return value).
func (m *MockTransport) QueueATA(res ATAResult, data []byte, err error) {
	m.ATAResponses = append(m.ATAResponses, mockATAResponse{res, data, err})
}

// QueueSCSI schedules a response. data, if non-nil, is copied into the caller's buffer when the
// matching SCSIPassThrough call arrives — real pass-through ioctls write the kernel's response
// directly into that buffer, so the mock must reproduce that rather than returning its own copy.
func (m *MockTransport) QueueSCSI(res SCSIResult, data []byte, err error) {
	m.SCSIResponses = append(m.SCSIResponses, mockSCSIResponse{res, data, err})
}

// QueueNVMe schedules a response. data, if non-nil, is copied into the caller's data buffer.
func (m *MockTransport) QueueNVMe(res NVMeResult, data []byte, err error) {
	m.NVMeResponses = append(m.NVMeResponses, mockNVMeResponse{res, data, err})
}

var errMockEmpty = &mockError{"hostio: mock transport has no queued response"}

type mockError struct{ msg string }

func (e *mockError) Error() string { return e.msg }

func (m *MockTransport) ATAPassThrough(cmd ATACommand) (ATAResult, error) {
	m.ATACalls = append(m.ATACalls, cmd)
	if len(m.ATAResponses) == 0 {
		return ATAResult{}, errMockEmpty
	}
	r := m.ATAResponses[0]
	m.ATAResponses = m.ATAResponses[1:]
	if r.Data != nil {
		copy(cmd.Buf, r.Data)
	}
	return r.Result, r.Err
}

func (m *MockTransport) SCSIPassThrough(cmd SCSICommand) (SCSIResult, error) {
	m.SCSICalls = append(m.SCSICalls, cmd)
	if len(m.SCSIResponses) == 0 {
		return SCSIResult{}, errMockEmpty
	}
	r := m.SCSIResponses[0]
	m.SCSIResponses = m.SCSIResponses[1:]
	if r.Data != nil {
		n := copy(cmd.Buf, r.Data)
		if r.Result.DataLen == 0 {
			r.Result.DataLen = n
		}
	}
	return r.Result, r.Err
}

func (m *MockTransport) NVMePassThrough(cmd NVMeCommand) (NVMeResult, error) {
	m.NVMeCalls = append(m.NVMeCalls, cmd)
	if len(m.NVMeResponses) == 0 {
		return NVMeResult{}, errMockEmpty
	}
	r := m.NVMeResponses[0]
	m.NVMeResponses = m.NVMeResponses[1:]
	if r.Data != nil {
		copy(cmd.Buf, r.Data)
	}
	return r.Result, r.Err
}

func (m *MockTransport) HasCapability(c Capability) bool {
	return m.Caps[c]
}

func (m *MockTransport) Close() error {
	m.Closed = true
	return nil
}

package flow_test

import (
	"context"
	"sync"

	"github.com/huddlehq/twofa/internal/twofa/flow"
)

// fakeProvisioner lets each test script the external credential service and
// count how often it was reached.
type fakeProvisioner struct {
	mu    sync.Mutex
	calls map[string]int

	beginFn    func(subject string) (flow.EnrollmentMaterial, error)
	completeFn func(subject, code string) (bool, error)
	issueFn    func(subject string) ([]string, error)
	loginFn    func(subject, code string) (bool, error)
	stepUpFn   func(sessionID, code string) (bool, error)
	redeemFn   func(subject, code string) (bool, error)
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{calls: make(map[string]int)}
}

func (f *fakeProvisioner) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeProvisioner) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeProvisioner) BeginEnrollment(_ context.Context, subject string) (flow.EnrollmentMaterial, error) {
	f.record("begin")
	if f.beginFn != nil {
		return f.beginFn(subject)
	}
	return flow.EnrollmentMaterial{
		Secret:          "JBSWY3DPEHPK3PXP",
		ProvisioningURI: "otpauth://totp/huddle:" + subject + "?secret=JBSWY3DPEHPK3PXP",
	}, nil
}

func (f *fakeProvisioner) CompleteEnrollment(_ context.Context, subject, code string) (bool, error) {
	f.record("complete")
	if f.completeFn != nil {
		return f.completeFn(subject, code)
	}
	return true, nil
}

func (f *fakeProvisioner) IssueBackupCodes(_ context.Context, subject string) ([]string, error) {
	f.record("issue")
	if f.issueFn != nil {
		return f.issueFn(subject)
	}
	return []string{
		"11111111", "22222222", "33333333", "44444444",
		"55555555", "66666666", "77777777", "88888888",
	}, nil
}

func (f *fakeProvisioner) VerifyLogin(_ context.Context, subject, code string) (bool, error) {
	f.record("login")
	if f.loginFn != nil {
		return f.loginFn(subject, code)
	}
	return true, nil
}

func (f *fakeProvisioner) VerifyStepUp(_ context.Context, sessionID, code string) (bool, error) {
	f.record("stepup")
	if f.stepUpFn != nil {
		return f.stepUpFn(sessionID, code)
	}
	return true, nil
}

func (f *fakeProvisioner) RedeemBackupCode(_ context.Context, subject, code string) (bool, error) {
	f.record("redeem")
	if f.redeemFn != nil {
		return f.redeemFn(subject, code)
	}
	return true, nil
}

func (f *fakeProvisioner) CreateStepUpSession(_ context.Context, subject string) (string, error) {
	f.record("session")
	return "01ARZ3NDEKTSV4RRFFQ69G5FAV", nil
}

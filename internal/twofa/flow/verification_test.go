package flow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/stretchr/testify/require"
)

func newLoginChallenge(t *testing.T, p *fakeProvisioner) *flow.Verification {
	t.Helper()
	v, err := flow.NewVerification(p, flow.VerificationConfig{
		Mode:    flow.ModeLogin,
		Context: flow.ChallengeContext{Subject: "user1"},
	})
	require.NoError(t, err)
	return v
}

func TestVerificationRequiresContext(t *testing.T) {
	p := newFakeProvisioner()

	_, err := flow.NewVerification(p, flow.VerificationConfig{Mode: flow.ModeLogin})
	require.ErrorIs(t, err, flow.ErrMissingContext)

	_, err = flow.NewVerification(p, flow.VerificationConfig{
		Mode:    flow.ModeStepUp,
		Context: flow.ChallengeContext{Subject: "user1"},
	})
	require.ErrorIs(t, err, flow.ErrMissingContext)
}

func TestVerificationRejectsMalformedCodesLocally(t *testing.T) {
	p := newFakeProvisioner()
	v := newLoginChallenge(t, p)

	for _, code := range []string{"", "12345", "1234567", "abcdef"} {
		require.ErrorIs(t, v.Submit(context.Background(), code), flow.ErrCodeFormat)
	}

	require.NoError(t, v.SwitchPath(flow.PathBackup))
	for _, code := range []string{"1234567", "123456789", "abcdefgh", "123456"} {
		require.ErrorIs(t, v.Submit(context.Background(), code), flow.ErrCodeFormat)
	}

	require.Equal(t, 3, v.AttemptsRemaining())
	require.Equal(t, 0, p.count("login"))
	require.Equal(t, 0, p.count("redeem"))
}

func TestVerificationLockoutAfterThreeFailures(t *testing.T) {
	p := newFakeProvisioner()
	p.loginFn = func(_, _ string) (bool, error) { return false, nil }
	v := newLoginChallenge(t, p)

	require.ErrorIs(t, v.Submit(context.Background(), "000000"), flow.ErrInvalidCode)
	require.Equal(t, 2, v.AttemptsRemaining())

	require.ErrorIs(t, v.Submit(context.Background(), "000000"), flow.ErrInvalidCode)
	require.Equal(t, 1, v.AttemptsRemaining())

	require.ErrorIs(t, v.Submit(context.Background(), "000000"), flow.ErrTooManyAttempts)
	require.True(t, v.Closed())

	// A fourth submission is rejected without reaching the verifier, even if
	// the code would have been correct.
	p.loginFn = nil
	require.ErrorIs(t, v.Submit(context.Background(), "123456"), flow.ErrTooManyAttempts)
	require.Equal(t, 3, p.count("login"))
}

func TestVerificationTransportErrorBurnsAttempt(t *testing.T) {
	p := newFakeProvisioner()
	p.loginFn = func(_, _ string) (bool, error) { return false, errors.New("verifier unreachable") }
	v := newLoginChallenge(t, p)

	err := v.Submit(context.Background(), "123456")
	require.Error(t, err)
	require.NotErrorIs(t, err, flow.ErrInvalidCode)
	require.Equal(t, 2, v.AttemptsRemaining())

	_ = v.Submit(context.Background(), "123456")
	require.ErrorIs(t, v.Submit(context.Background(), "123456"), flow.ErrTooManyAttempts)
}

func TestVerificationBackupFailuresNeverBurnAttempts(t *testing.T) {
	p := newFakeProvisioner()
	p.redeemFn = func(_, _ string) (bool, error) { return false, nil }
	v := newLoginChallenge(t, p)

	require.NoError(t, v.SwitchPath(flow.PathBackup))
	for i := 0; i < 5; i++ {
		require.ErrorIs(t, v.Submit(context.Background(), "11111111"), flow.ErrBackupCodeInvalid)
	}
	require.Equal(t, 3, v.AttemptsRemaining())
	require.False(t, v.Closed())
}

func TestVerificationBackupEscapeHatch(t *testing.T) {
	p := newFakeProvisioner()
	p.loginFn = func(_, code string) (bool, error) { return code == "654321", nil }
	p.redeemFn = func(_, _ string) (bool, error) { return false, nil }
	v := newLoginChallenge(t, p)

	// One TOTP miss, then a redeemed backup code, then back to TOTP.
	require.ErrorIs(t, v.Submit(context.Background(), "000000"), flow.ErrInvalidCode)
	require.Equal(t, 2, v.AttemptsRemaining())

	require.NoError(t, v.SwitchPath(flow.PathBackup))
	require.ErrorIs(t, v.Submit(context.Background(), "11111111"), flow.ErrBackupCodeInvalid)
	require.Equal(t, 2, v.AttemptsRemaining())

	require.NoError(t, v.SwitchPath(flow.PathTOTP))
	require.NoError(t, v.Submit(context.Background(), "654321"))
	require.True(t, v.Closed())
}

func TestVerificationPathSwitchClearsInput(t *testing.T) {
	p := newFakeProvisioner()
	v := newLoginChallenge(t, p)

	v.UpdateInput("123")
	require.Equal(t, "123", v.Input())

	require.NoError(t, v.SwitchPath(flow.PathBackup))
	require.Equal(t, "", v.Input())
	require.Equal(t, flow.PathBackup, v.Path())

	// Switching to the path already active keeps the buffer.
	v.UpdateInput("5555")
	require.NoError(t, v.SwitchPath(flow.PathBackup))
	require.Equal(t, "5555", v.Input())
}

func TestVerificationStepUpExpiresExactlyOnce(t *testing.T) {
	p := newFakeProvisioner()
	var resolves atomic.Int32
	resolved := make(chan error, 4)

	v, err := flow.NewVerification(p, flow.VerificationConfig{
		Mode:          flow.ModeStepUp,
		Context:       flow.ChallengeContext{Subject: "user1", StepUpSessionID: "sess1"},
		WindowSeconds: 300,
		TickInterval:  time.Millisecond,
		OnResolve: func(err error) {
			resolves.Add(1)
			resolved <- err
		},
	})
	require.NoError(t, err)

	select {
	case err := <-resolved:
		require.ErrorIs(t, err, flow.ErrSessionExpired)
	case <-time.After(5 * time.Second):
		t.Fatal("step-up window never expired")
	}

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), resolves.Load())

	require.ErrorIs(t, v.Submit(context.Background(), "123456"), flow.ErrSessionExpired)
	require.Equal(t, 0, p.count("stepup"))
}

func TestVerificationStepUpSuccessStopsClock(t *testing.T) {
	p := newFakeProvisioner()
	resolved := make(chan error, 1)

	v, err := flow.NewVerification(p, flow.VerificationConfig{
		Mode:          flow.ModeStepUp,
		Context:       flow.ChallengeContext{Subject: "user1", StepUpSessionID: "sess1"},
		WindowSeconds: 300,
		TickInterval:  time.Millisecond,
		OnResolve:     func(err error) { resolved <- err },
	})
	require.NoError(t, err)

	require.NoError(t, v.Submit(context.Background(), "123456"))
	require.NoError(t, <-resolved)

	// The countdown is gone; no late expiry may arrive.
	time.Sleep(350 * time.Millisecond)
	select {
	case err := <-resolved:
		t.Fatalf("unexpected second resolution: %v", err)
	default:
	}
}

func TestVerificationRejectsConcurrentSubmission(t *testing.T) {
	p := newFakeProvisioner()
	release := make(chan struct{})
	entered := make(chan struct{})
	p.loginFn = func(_, _ string) (bool, error) {
		close(entered)
		<-release
		return true, nil
	}
	v := newLoginChallenge(t, p)

	firstDone := make(chan error, 1)
	go func() { firstDone <- v.Submit(context.Background(), "123456") }()
	<-entered

	require.ErrorIs(t, v.Submit(context.Background(), "654321"), flow.ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-firstDone)
}

func TestVerificationCancelDiscardsLateResult(t *testing.T) {
	p := newFakeProvisioner()
	release := make(chan struct{})
	entered := make(chan struct{})
	p.loginFn = func(_, _ string) (bool, error) {
		close(entered)
		<-release
		return true, nil
	}
	v := newLoginChallenge(t, p)

	result := make(chan error, 1)
	go func() { result <- v.Submit(context.Background(), "123456") }()
	<-entered

	v.Cancel()
	close(release)

	// The verifier said yes, but the challenge was already torn down.
	require.ErrorIs(t, <-result, flow.ErrFlowClosed)
	require.Equal(t, 3, v.AttemptsRemaining())
}

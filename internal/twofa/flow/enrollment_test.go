package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentHappyPath(t *testing.T) {
	p := newFakeProvisioner()
	done := false
	e := flow.NewEnrollment(p, "a@x.com", 0, func() { done = true })

	require.Equal(t, flow.StageInitializing, e.Stage())

	material, err := e.Start(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, material.Secret)
	require.NotEmpty(t, material.ProvisioningURI)
	require.Equal(t, flow.StageAwaitingVerification, e.Stage())

	codes, err := e.SubmitCode(context.Background(), "123456")
	require.NoError(t, err)
	require.Len(t, codes, 8)
	require.Equal(t, flow.StageAwaitingBackupAck, e.Stage())
	require.Equal(t, codes, e.BackupCodes())

	require.NoError(t, e.Acknowledge())
	require.Equal(t, flow.StageComplete, e.Stage())
	require.True(t, done)

	require.Equal(t, 1, p.count("complete"))
	require.Equal(t, 1, p.count("issue"))
}

func TestEnrollmentSetupFailureIsFatal(t *testing.T) {
	p := newFakeProvisioner()
	p.beginFn = func(string) (flow.EnrollmentMaterial, error) {
		return flow.EnrollmentMaterial{}, errors.New("provisioning down")
	}
	e := flow.NewEnrollment(p, "a@x.com", 0, nil)

	_, err := e.Start(context.Background())
	require.ErrorIs(t, err, flow.ErrSetupFailed)

	// The flow is dead, a new one must be created.
	_, err = e.SubmitCode(context.Background(), "123456")
	require.ErrorIs(t, err, flow.ErrFlowClosed)
}

func TestEnrollmentRejectsMalformedCodesLocally(t *testing.T) {
	p := newFakeProvisioner()
	e := flow.NewEnrollment(p, "a@x.com", 0, nil)

	_, err := e.Start(context.Background())
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "12345a", "abcdef", "12 456"} {
		_, err := e.SubmitCode(context.Background(), code)
		require.ErrorIs(t, err, flow.ErrCodeFormat, "code %q", code)
	}
	require.Equal(t, 0, p.count("complete"))
}

func TestEnrollmentWrongCodeHasNoCeiling(t *testing.T) {
	p := newFakeProvisioner()
	p.completeFn = func(_, _ string) (bool, error) { return false, nil }
	e := flow.NewEnrollment(p, "a@x.com", 0, nil)

	_, err := e.Start(context.Background())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := e.SubmitCode(context.Background(), "000000")
		require.ErrorIs(t, err, flow.ErrInvalidCode)
	}
	require.Equal(t, flow.StageAwaitingVerification, e.Stage())
	require.Equal(t, 0, p.count("issue"))

	// A correct code still gets through after any number of misses.
	p.completeFn = nil
	codes, err := e.SubmitCode(context.Background(), "123456")
	require.NoError(t, err)
	require.Len(t, codes, 8)
}

func TestEnrollmentAckRequiresBackupStage(t *testing.T) {
	p := newFakeProvisioner()
	e := flow.NewEnrollment(p, "a@x.com", 0, nil)

	require.Error(t, e.Acknowledge())

	_, err := e.Start(context.Background())
	require.NoError(t, err)
	require.Error(t, e.Acknowledge())
}

func TestEnrollmentCancelDiscardsFlow(t *testing.T) {
	p := newFakeProvisioner()
	e := flow.NewEnrollment(p, "a@x.com", 0, nil)

	_, err := e.Start(context.Background())
	require.NoError(t, err)

	e.Cancel()

	_, err = e.SubmitCode(context.Background(), "123456")
	require.ErrorIs(t, err, flow.ErrFlowClosed)
	require.Nil(t, e.BackupCodes())
}

func TestEnrollmentCompletionSignalFiresOnce(t *testing.T) {
	p := newFakeProvisioner()
	fired := 0
	e := flow.NewEnrollment(p, "a@x.com", 0, func() { fired++ })

	_, err := e.Start(context.Background())
	require.NoError(t, err)
	_, err = e.SubmitCode(context.Background(), "123456")
	require.NoError(t, err)

	require.NoError(t, e.Acknowledge())
	require.Error(t, e.Acknowledge())
	require.Equal(t, 1, fired)
}

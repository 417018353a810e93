package service_test

import (
	"context"
	"testing"

	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/huddlehq/twofa/internal/twofa/service"
	"github.com/stretchr/testify/require"
)

func TestRegistryReplacingEnrollmentCancelsPrior(t *testing.T) {
	p := newTestProvisioning(t)
	reg := service.NewChallengeRegistry()

	first := flow.NewEnrollment(p, "a@x.com", 0, nil)
	reg.PutEnrollment("a@x.com", first)

	second := flow.NewEnrollment(p, "a@x.com", 0, nil)
	reg.PutEnrollment("a@x.com", second)

	// The replaced flow is dead.
	_, err := first.Start(context.Background())
	require.ErrorIs(t, err, flow.ErrFlowClosed)

	got, ok := reg.GetEnrollment("a@x.com")
	require.True(t, ok)
	require.Same(t, second, got)

	reg.RemoveEnrollment("a@x.com")
	_, ok = reg.GetEnrollment("a@x.com")
	require.False(t, ok)
}

func TestRegistryChallengeLifecycle(t *testing.T) {
	p := newTestProvisioning(t)
	reg := service.NewChallengeRegistry()

	v, err := flow.NewVerification(p, flow.VerificationConfig{
		Mode:    flow.ModeLogin,
		Context: flow.ChallengeContext{Subject: "user1"},
	})
	require.NoError(t, err)

	c := reg.NewChallenge("user1", "", v)
	require.NotEmpty(t, c.ID)

	got, err := reg.GetChallenge(c.ID)
	require.NoError(t, err)
	require.Same(t, v, got.Flow)

	_, err = reg.GetChallenge("01UNKNOWNCHALLENGEID000000")
	require.ErrorIs(t, err, service.ErrChallengeNotFound)

	reg.RemoveChallenge(c.ID)
	_, err = reg.GetChallenge(c.ID)
	require.ErrorIs(t, err, service.ErrChallengeNotFound)
}

func TestRegistrySweepRemovesOnlyClosedChallenges(t *testing.T) {
	p := newTestProvisioning(t)
	reg := service.NewChallengeRegistry()

	open, err := flow.NewVerification(p, flow.VerificationConfig{
		Mode:    flow.ModeLogin,
		Context: flow.ChallengeContext{Subject: "user1"},
	})
	require.NoError(t, err)
	reg.NewChallenge("user1", "", open)

	closed, err := flow.NewVerification(p, flow.VerificationConfig{
		Mode:    flow.ModeLogin,
		Context: flow.ChallengeContext{Subject: "user2"},
	})
	require.NoError(t, err)
	done := reg.NewChallenge("user2", "", closed)
	closed.Cancel()

	require.Equal(t, 1, reg.SweepClosed())
	require.Equal(t, 1, reg.Len())

	_, err = reg.GetChallenge(done.ID)
	require.ErrorIs(t, err, service.ErrChallengeNotFound)
}

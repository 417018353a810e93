package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/huddlehq/twofa/internal/twofa/service"
	"github.com/huddlehq/twofa/pkg/httpx"
	"github.com/huddlehq/twofa/pkg/slogx"
	"github.com/huddlehq/twofa/pkg/twofasdk"
)

// ChallengeHandler handles the verification challenge endpoints.
type ChallengeHandler struct {
	Provisioning *service.ProvisioningService
	Grants       *service.GrantService
	Registry     *service.ChallengeRegistry
	TickInterval time.Duration
}

// HandleStart handles POST /v1/2fa/challenges
//
//	@Summary		Open a verification challenge
//	@Description	Opens a login or step-up challenge for the authenticated subject. Step-up challenges are
//	@Description	time-boxed to a 300 second window and self-terminate on expiry.
//	@Tags			Challenges
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		twofasdk.StartChallengeRequest	true	"challenge mode"
//	@Success		200		{object}	twofasdk.StartChallengeResponse
//	@Failure		409		{object}	twofasdk.Error	"Two-factor not enabled"
//	@Router			/v1/2fa/challenges [post].
func (h *ChallengeHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subject := httpx.SubjectFromCtx(ctx)
	if subject == "" {
		twofasdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req twofasdk.StartChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twofasdk.ErrInvalidRequest.WriteError(w)
		return
	}

	var mode flow.Mode
	switch req.Mode {
	case twofasdk.ModeLogin:
		mode = flow.ModeLogin
	case twofasdk.ModeStepUp:
		mode = flow.ModeStepUp
	default:
		twofasdk.NewError(http.StatusBadRequest, twofasdk.ErrorCodeInvalidRequest,
			`mode must be "login" or "step_up"`).WriteError(w)
		return
	}

	// A challenge against a subject with no enabled credential is pointless;
	// reject it up front rather than burning attempts on hard errors.
	if cred, err := h.Provisioning.GetCredential(ctx, subject); err != nil || !cred.Enabled() {
		twofasdk.ErrNotEnrolled.WriteError(w)
		return
	}

	cctx := flow.ChallengeContext{Subject: subject}
	expiresIn := 0
	if mode == flow.ModeStepUp {
		sessionID, err := h.Provisioning.CreateStepUpSession(ctx, subject)
		if err != nil {
			log.Error("step-up session creation failed", "subject", subject, "err", err)
			twofasdk.ErrServerError.WriteError(w)
			return
		}
		cctx.StepUpSessionID = sessionID
		expiresIn = flow.StepUpWindowSeconds
	}

	sessionID := cctx.StepUpSessionID
	onResolve := func(error) {
		if sessionID == "" {
			return
		}
		// The window is done one way or another, drop the session row.
		if err := h.Provisioning.CloseStepUpSession(context.Background(), sessionID); err != nil {
			log.Warn("failed to close step-up session", "session_id", sessionID, "err", err)
		}
	}

	verification, err := flow.NewVerification(h.Provisioning, flow.VerificationConfig{
		Mode:         mode,
		Context:      cctx,
		TickInterval: h.TickInterval,
		OnResolve:    onResolve,
	})
	if err != nil {
		if errors.Is(err, flow.ErrMissingContext) {
			twofasdk.ErrMissingContext.WriteError(w)
			return
		}
		log.Error("challenge creation failed", "subject", subject, "err", err)
		twofasdk.ErrServerError.WriteError(w)
		return
	}

	c := h.Registry.NewChallenge(subject, cctx.StepUpSessionID, verification)

	httpx.WriteJSON(w, http.StatusOK, twofasdk.StartChallengeResponse{
		ChallengeID:       c.ID,
		Path:              verification.Path().String(),
		ExpiresInSeconds:  expiresIn,
		AttemptsRemaining: verification.AttemptsRemaining(),
	})
}

// HandleSubmit handles POST /v1/2fa/challenges/{id}/verify
//
//	@Summary		Submit a code
//	@Description	Submits a code on the challenge's active path. TOTP failures and transport errors burn an
//	@Description	attempt; backup code failures never do. The third failed attempt locks the challenge out.
//	@Description	A successful step-up verification returns a short-lived signed grant.
//	@Tags			Challenges
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"challenge id"
//	@Param			request	body		twofasdk.SubmitCodeRequest	true	"code for the active path"
//	@Success		200		{object}	twofasdk.SubmitCodeResponse
//	@Failure		404		{object}	twofasdk.Error	"Unknown challenge"
//	@Failure		410		{object}	twofasdk.Error	"Step-up window expired"
//	@Failure		422		{object}	twofasdk.Error	"Code rejected"
//	@Failure		429		{object}	twofasdk.Error	"Attempt ceiling reached"
//	@Router			/v1/2fa/challenges/{id}/verify [post].
func (h *ChallengeHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	c, ok := h.challengeForRequest(w, r)
	if !ok {
		return
	}

	var req twofasdk.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twofasdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := c.Flow.Submit(ctx, req.Code); err != nil {
		h.writeSubmitError(w, log, c, err)
		return
	}

	resp := twofasdk.SubmitCodeResponse{Verified: true}
	if c.StepUpSessionID != "" {
		grant, expiresIn, err := h.Grants.MintStepUpGrant(c.SubjectID, c.StepUpSessionID)
		if err != nil {
			log.Error("grant minting failed", "subject", c.SubjectID, "err", err)
			twofasdk.ErrServerError.WriteError(w)
			return
		}
		resp.Grant = grant
		resp.GrantExpiresIn = expiresIn
	}

	h.Registry.RemoveChallenge(c.ID)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) writeSubmitError(w http.ResponseWriter, log *slog.Logger, c *service.Challenge, err error) {
	remaining := c.Flow.AttemptsRemaining()

	switch {
	case errors.Is(err, flow.ErrCodeFormat):
		twofasdk.ErrCodeFormat.WriteError(w)
	case errors.Is(err, flow.ErrInvalidCode):
		twofasdk.ErrInvalidCode.WithAttempts(remaining).WriteError(w)
	case errors.Is(err, flow.ErrBackupCodeInvalid):
		twofasdk.ErrBackupCodeInvalid.WithAttempts(remaining).WriteError(w)
	case errors.Is(err, flow.ErrTooManyAttempts):
		twofasdk.ErrTooManyAttempts.WriteError(w)
	case errors.Is(err, flow.ErrSessionExpired):
		twofasdk.ErrSessionExpired.WriteError(w)
	case errors.Is(err, flow.ErrSubmissionInFlight):
		twofasdk.ErrSubmissionInFlight.WriteError(w)
	case errors.Is(err, flow.ErrFlowClosed):
		twofasdk.ErrChallengeNotFound.WriteError(w)
	case errors.Is(err, service.ErrNoStepUpSession):
		twofasdk.ErrMissingContext.WriteError(w)
	case errors.Is(err, service.ErrNotEnrolled):
		twofasdk.ErrNotEnrolled.WriteError(w)
	default:
		log.Error("verification failed", "challenge_id", c.ID, "err", err)
		twofasdk.ErrServerError.WithAttempts(remaining).WriteError(w)
	}
}

// HandleSwitchPath handles POST /v1/2fa/challenges/{id}/path
//
//	@Summary		Switch input path
//	@Description	Toggles the challenge between TOTP and backup code entry. Switching clears partial input
//	@Description	and never changes the remaining attempt count.
//	@Tags			Challenges
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"challenge id"
//	@Param			request	body		twofasdk.SwitchPathRequest	true	"target path"
//	@Success		200		{object}	twofasdk.SwitchPathResponse
//	@Failure		404		{object}	twofasdk.Error	"Unknown challenge"
//	@Router			/v1/2fa/challenges/{id}/path [post].
func (h *ChallengeHandler) HandleSwitchPath(w http.ResponseWriter, r *http.Request) {
	c, ok := h.challengeForRequest(w, r)
	if !ok {
		return
	}

	var req twofasdk.SwitchPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twofasdk.ErrInvalidRequest.WriteError(w)
		return
	}

	var path flow.Path
	switch req.Path {
	case twofasdk.PathTOTP:
		path = flow.PathTOTP
	case twofasdk.PathBackup:
		path = flow.PathBackup
	default:
		twofasdk.NewError(http.StatusBadRequest, twofasdk.ErrorCodeInvalidRequest,
			`path must be "totp" or "backup"`).WriteError(w)
		return
	}

	if err := c.Flow.SwitchPath(path); err != nil {
		switch {
		case errors.Is(err, flow.ErrTooManyAttempts):
			twofasdk.ErrTooManyAttempts.WriteError(w)
		case errors.Is(err, flow.ErrSessionExpired):
			twofasdk.ErrSessionExpired.WriteError(w)
		default:
			twofasdk.ErrChallengeNotFound.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, twofasdk.SwitchPathResponse{
		ChallengeID: c.ID,
		Path:        c.Flow.Path().String(),
	})
}

// HandleCancel handles DELETE /v1/2fa/challenges/{id}
//
//	@Summary		Cancel a challenge
//	@Description	Abandons an open challenge. Any in-flight verification result is discarded.
//	@Tags			Challenges
//	@Security		BearerAuth
//	@Param			id	path	string	true	"challenge id"
//	@Success		204	"Challenge cancelled"
//	@Failure		404	{object}	twofasdk.Error	"Unknown challenge"
//	@Router			/v1/2fa/challenges/{id} [delete].
func (h *ChallengeHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	c, ok := h.challengeForRequest(w, r)
	if !ok {
		return
	}

	c.Flow.Cancel()
	h.Registry.RemoveChallenge(c.ID)
	w.WriteHeader(http.StatusNoContent)
}

// challengeForRequest loads the challenge in the path and checks it belongs
// to the authenticated subject. Foreign challenges read as not-found to
// avoid leaking their existence.
func (h *ChallengeHandler) challengeForRequest(w http.ResponseWriter, r *http.Request) (*service.Challenge, bool) {
	subject := httpx.SubjectFromCtx(r.Context())
	if subject == "" {
		twofasdk.ErrInvalidToken.WriteError(w)
		return nil, false
	}

	c, err := h.Registry.GetChallenge(r.PathValue("id"))
	if err != nil || c.SubjectID != subject {
		twofasdk.ErrChallengeNotFound.WriteError(w)
		return nil, false
	}
	return c, true
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/huddlehq/twofa/internal/twofa/service"
	"github.com/huddlehq/twofa/pkg/httpx"
	"github.com/huddlehq/twofa/pkg/slogx"
	"github.com/huddlehq/twofa/pkg/twofasdk"
)

// EnrollmentHandler handles the enrollment endpoints.
type EnrollmentHandler struct {
	Provisioning *service.ProvisioningService
	Registry     *service.ChallengeRegistry
	SettleDelay  time.Duration
}

// HandleStart handles POST /v1/2fa/enroll
//
//	@Summary		Start two-factor enrollment
//	@Description	Provisions a fresh TOTP secret for the authenticated subject and returns it with a QR code.
//	@Description	Any prior unfinished enrollment is discarded and restarted from scratch.
//	@Tags			Enrollment
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	twofasdk.StartEnrollmentResponse	"secret, provisioning URI and QR code"
//	@Failure		401	{object}	twofasdk.Error						"Invalid or missing access token"
//	@Failure		409	{object}	twofasdk.Error						"Two-factor already enabled"
//	@Failure		502	{object}	twofasdk.Error						"Provisioning failed"
//	@Router			/v1/2fa/enroll [post].
func (h *EnrollmentHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subject := httpx.SubjectFromCtx(ctx)
	if subject == "" {
		twofasdk.ErrInvalidToken.WriteError(w)
		return
	}

	// Starting over an enabled credential is a conflict, not a restart.
	if cred, err := h.Provisioning.GetCredential(ctx, subject); err == nil && cred.Enabled() {
		twofasdk.ErrAlreadyEnrolled.WriteError(w)
		return
	}

	enrollment := flow.NewEnrollment(h.Provisioning, subject, h.SettleDelay, func() {
		h.Registry.RemoveEnrollment(subject)
	})
	h.Registry.PutEnrollment(subject, enrollment)

	material, err := enrollment.Start(ctx)
	if err != nil {
		h.Registry.RemoveEnrollment(subject)
		log.Error("enrollment provisioning failed", "subject", subject, "err", err)
		twofasdk.ErrSetupFailed.WriteError(w)
		return
	}

	qr, err := service.RenderQRDataURL(material.ProvisioningURI)
	if err != nil {
		h.Registry.RemoveEnrollment(subject)
		log.Error("QR render failed", "subject", subject, "err", err)
		twofasdk.ErrSetupFailed.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, twofasdk.StartEnrollmentResponse{
		Stage:           enrollment.Stage().String(),
		Secret:          material.Secret,
		ProvisioningURI: material.ProvisioningURI,
		QRCode:          qr,
	})
}

// HandleVerify handles POST /v1/2fa/enroll/verify
//
//	@Summary		Verify the first authenticator code
//	@Description	Checks the submitted code against the freshly provisioned secret. On success the credential
//	@Description	is enabled and the one-time backup codes are returned; they are never shown again.
//	@Tags			Enrollment
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		twofasdk.VerifyEnrollmentRequest	true	"6-digit authenticator code"
//	@Success		200		{object}	twofasdk.VerifyEnrollmentResponse	"stage and backup codes"
//	@Failure		400		{object}	twofasdk.Error						"Malformed code or no active enrollment"
//	@Failure		422		{object}	twofasdk.Error						"Code rejected by the verifier"
//	@Router			/v1/2fa/enroll/verify [post].
func (h *EnrollmentHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subject := httpx.SubjectFromCtx(ctx)
	if subject == "" {
		twofasdk.ErrInvalidToken.WriteError(w)
		return
	}

	enrollment, ok := h.Registry.GetEnrollment(subject)
	if !ok {
		twofasdk.NewError(http.StatusBadRequest, twofasdk.ErrorCodeInvalidRequest,
			"no enrollment in progress, start one first").WriteError(w)
		return
	}

	var req twofasdk.VerifyEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twofasdk.ErrInvalidRequest.WriteError(w)
		return
	}

	codes, err := enrollment.SubmitCode(ctx, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, flow.ErrCodeFormat):
			twofasdk.ErrCodeFormat.WriteError(w)
		case errors.Is(err, flow.ErrInvalidCode):
			// Enrollment has no attempt ceiling, so no remaining count here.
			twofasdk.ErrInvalidCode.WriteError(w)
		case errors.Is(err, flow.ErrSubmissionInFlight):
			twofasdk.ErrSubmissionInFlight.WriteError(w)
		case errors.Is(err, flow.ErrFlowClosed):
			twofasdk.NewError(http.StatusBadRequest, twofasdk.ErrorCodeInvalidRequest,
				"enrollment is not awaiting verification").WriteError(w)
		default:
			log.Error("enrollment verify failed", "subject", subject, "err", err)
			twofasdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, twofasdk.VerifyEnrollmentResponse{
		Stage:       enrollment.Stage().String(),
		BackupCodes: codes,
	})
}

// HandleAck handles POST /v1/2fa/enroll/ack
//
//	@Summary		Acknowledge backup codes
//	@Description	Confirms the subject has saved their backup codes, completing enrollment. Completion is
//	@Description	gated on this acknowledgment because the codes are the sole recovery path.
//	@Tags			Enrollment
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	twofasdk.AckEnrollmentResponse	"stage and enable timestamp"
//	@Failure		400	{object}	twofasdk.Error					"No enrollment awaiting acknowledgment"
//	@Router			/v1/2fa/enroll/ack [post].
func (h *EnrollmentHandler) HandleAck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subject := httpx.SubjectFromCtx(ctx)
	if subject == "" {
		twofasdk.ErrInvalidToken.WriteError(w)
		return
	}

	enrollment, ok := h.Registry.GetEnrollment(subject)
	if !ok {
		twofasdk.NewError(http.StatusBadRequest, twofasdk.ErrorCodeInvalidRequest,
			"no enrollment in progress").WriteError(w)
		return
	}

	if err := enrollment.Acknowledge(); err != nil {
		twofasdk.NewError(http.StatusBadRequest, twofasdk.ErrorCodeInvalidRequest,
			"enrollment is not awaiting acknowledgment").WriteError(w)
		return
	}

	resp := twofasdk.AckEnrollmentResponse{Stage: enrollment.Stage().String()}
	if cred, err := h.Provisioning.GetCredential(ctx, subject); err == nil && cred.EnabledAt != nil {
		resp.EnabledAt = cred.EnabledAt.UTC().Format(time.RFC3339)
	} else if err != nil {
		log.Warn("failed to load credential after ack", "subject", subject, "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleStatus handles GET /v1/2fa/enroll
//
//	@Summary		Enrollment status
//	@Description	Reports whether the authenticated subject has two-factor enabled.
//	@Tags			Enrollment
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	twofasdk.EnrollmentStatusResponse
//	@Router			/v1/2fa/enroll [get].
func (h *EnrollmentHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject := httpx.SubjectFromCtx(ctx)
	if subject == "" {
		twofasdk.ErrInvalidToken.WriteError(w)
		return
	}

	cred, err := h.Provisioning.GetCredential(ctx, subject)
	if err != nil || !cred.Enabled() {
		httpx.WriteJSON(w, http.StatusOK, twofasdk.EnrollmentStatusResponse{Enabled: false})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, twofasdk.EnrollmentStatusResponse{
		Enabled:   true,
		EnabledAt: cred.EnabledAt.UTC().Format(time.RFC3339),
	})
}

// HandleDisable handles DELETE /v1/2fa/enroll
//
//	@Summary		Disable two-factor
//	@Description	Removes the subject's credential and all backup codes. A pending enrollment is cancelled
//	@Description	and discarded. Requires the 2fa:manage scope.
//	@Tags			Enrollment
//	@Security		BearerAuth
//	@Success		204	"Two-factor disabled"
//	@Failure		409	{object}	twofasdk.Error	"Two-factor not enabled"
//	@Router			/v1/2fa/enroll [delete].
func (h *EnrollmentHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subject := httpx.SubjectFromCtx(ctx)
	if subject == "" {
		twofasdk.ErrInvalidToken.WriteError(w)
		return
	}

	if enrollment, ok := h.Registry.GetEnrollment(subject); ok {
		enrollment.Cancel()
		h.Registry.RemoveEnrollment(subject)
	}

	if err := h.Provisioning.Disable(ctx, subject); err != nil {
		if errors.Is(err, service.ErrNotEnrolled) {
			twofasdk.ErrNotEnrolled.WriteError(w)
			return
		}
		log.Error("disable failed", "subject", subject, "err", err)
		twofasdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRegenerateBackupCodes handles POST /v1/2fa/backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Mints a fresh set of backup codes, invalidating every previously issued code.
//	@Description	Requires the 2fa:manage scope.
//	@Tags			Enrollment
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	twofasdk.RegenerateBackupCodesResponse
//	@Failure		409	{object}	twofasdk.Error	"Two-factor not enabled"
//	@Router			/v1/2fa/backup-codes [post].
func (h *EnrollmentHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subject := httpx.SubjectFromCtx(ctx)
	if subject == "" {
		twofasdk.ErrInvalidToken.WriteError(w)
		return
	}

	cred, err := h.Provisioning.GetCredential(ctx, subject)
	if err != nil || !cred.Enabled() {
		twofasdk.ErrNotEnrolled.WriteError(w)
		return
	}

	codes, err := h.Provisioning.IssueBackupCodes(ctx, subject)
	if err != nil {
		log.Error("backup code regeneration failed", "subject", subject, "err", err)
		twofasdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, twofasdk.RegenerateBackupCodesResponse{
		BackupCodes: codes,
	})
}

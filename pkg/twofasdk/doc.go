/*
Package twofasdk provides a client SDK for the Huddle two-factor service.

# Overview

The SDK wraps the service's HTTP API: enrollment, backup code management and
verification challenges. Callers bring their own identity bearer token; the
SDK does not authenticate users itself.

	client := twofasdk.NewClient("https://twofa.example.com", token)

	// Enroll
	start, err := client.StartEnrollment(ctx)
	// show start.QRCode / start.Secret to the user ...
	verify, err := client.VerifyEnrollment(ctx, "123456")
	// show verify.BackupCodes exactly once ...
	_, err = client.AckEnrollment(ctx)

	// Step-up verification
	ch, err := client.StartChallenge(ctx, twofasdk.ModeStepUp)
	res, err := client.SubmitCode(ctx, ch.ChallengeID, "123456")
	// res.Grant is a short-lived signed proof of the step-up

# Error Handling

Non-2xx responses are returned as *twofasdk.Error with the service's error
code and, for recoverable code failures, the remaining attempt count:

	res, err := client.SubmitCode(ctx, id, code)
	if err != nil {
		var apiErr *twofasdk.Error
		if errors.As(err, &apiErr) && apiErr.Code == twofasdk.ErrorCodeInvalidCode {
			fmt.Println("attempts left:", *apiErr.AttemptsRemaining)
		}
	}
*/
package twofasdk

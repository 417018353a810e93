package http

import (
	"net/http"

	"github.com/huddlehq/twofa/pkg/httpx"
	"github.com/huddlehq/twofa/pkg/jwtx"
)

// JWKSHandler exposes the public keys other services use to verify step-up
// grants.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify step-up grants.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	jwtx.JWKS	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}

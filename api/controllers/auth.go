package controllers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/yutosugimura/saltbreeze-backend/api/responses"
	"github.com/yutosugimura/saltbreeze-backend/api/validators"
	pkgAuth "github.com/yutosugimura/saltbreeze-backend/pkg/auth"
	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/security"
)

// StaffLogin exchanges the configured back-office credential pair for a JWT.
func StaffLogin(jwtCfg config.JWTConfig, staffCfg config.StaffConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload staffLoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if subtle.ConstantTimeCompare([]byte(payload.Username), []byte(staffCfg.Username)) != 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
			return
		}

		ok, err := security.VerifyPassword(payload.Password, staffCfg.PasswordHash)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify credentials"))
			return
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
			return
		}

		token, err := pkgAuth.MintStaffToken(jwtCfg, time.Now().UTC(), payload.Username)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccess(w, staffLoginResponse{
			Token:     token,
			ExpiresIn: jwtCfg.ExpirationMinutes * 60,
		})
	}
}

type staffLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type staffLoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

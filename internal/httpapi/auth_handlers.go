package httpapi

import (
	"errors"
	"net/http"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/middleware"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (a *API) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.engine.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *API) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.engine.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, r, err)
		return
	}
	pair, err := a.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// SignOut always answers 200 for unknown or absent tokens. A bearer token,
// when valid, restricts revocation to sessions its identity owns.
func (a *API) SignOut(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, r, err)
		return
	}

	var identityID string
	if token, ok := middleware.BearerToken(r.Header.Get("Authorization")); ok {
		if res, err := a.engine.VerifyAccessToken(r.Context(), token); err == nil {
			identityID = res.IdentityID
		}
	}

	if err := a.engine.SignOut(r.Context(), identityID, req.RefreshToken); err != nil {
		if errors.Is(err, subAuth.ErrStoreUnavailable) {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) SignOutAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		writeError(w, r, subAuth.ErrUnauthenticated)
		return
	}
	if _, err := a.engine.SignOutAll(r.Context(), actor.IdentityID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

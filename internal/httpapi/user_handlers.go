package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/middleware"
	"github.com/MrEthical07/subAuth/role"
	"github.com/gorilla/mux"
)

type profileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type statusRequest struct {
	Active *bool `json:"active"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

// actor returns the authenticated caller. Routes using it sit behind
// middleware.Authenticate.
func actor(r *http.Request) (subAuth.AuthResult, error) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		return subAuth.AuthResult{}, subAuth.ErrUnauthenticated
	}
	return *res, nil
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ident, err := a.engine.GetIdentity(r.Context(), act, act.IdentityID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ident, err := a.engine.GetIdentity(r.Context(), act, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := a.engine.ListIdentities(r.Context(), act, subAuth.Page{Limit: page.limit, Offset: page.offset})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []subAuth.Identity{}
	}
	writeJSON(w, http.StatusOK, listResponse[subAuth.Identity]{Items: items})
}

// UpdateUser changes name and email only. Role and active flags in the body
// are ignored.
func (a *API) UpdateUser(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ident, err := a.engine.UpdateProfile(r.Context(), act, mux.Vars(r)["id"], subAuth.Profile{Name: req.Name, Email: req.Email})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

func (a *API) ChangeRole(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	next, err := role.Parse(req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ident, err := a.engine.ChangeRole(r.Context(), act, mux.Vars(r)["id"], next)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": ident.ID, "role": ident.Role})
}

func (a *API) ChangePassword(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.engine.ChangePassword(r.Context(), act, mux.Vars(r)["id"], req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) SetStatus(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Active == nil {
		writeError(w, r, fmt.Errorf("%w: active is required", subAuth.ErrValidation))
		return
	}
	ident, err := a.engine.SetActive(r.Context(), act, mux.Vars(r)["id"], *req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": ident.ID, "active": ident.Active})
}

func (a *API) DeleteUser(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.engine.DeleteIdentity(r.Context(), act, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

type pageParams struct {
	limit  int
	offset int
}

func pageFromQuery(r *http.Request) (pageParams, error) {
	var p pageParams
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, fmt.Errorf("%w: limit must be a non-negative integer", subAuth.ErrValidation)
		}
		p.limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, fmt.Errorf("%w: offset must be a non-negative integer", subAuth.ErrValidation)
		}
		p.offset = n
	}
	return p, nil
}

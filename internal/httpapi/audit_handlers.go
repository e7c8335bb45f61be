package httpapi

import (
	"net/http"
	"strings"

	subAuth "github.com/MrEthical07/subAuth"
	"github.com/MrEthical07/subAuth/audit"
	"github.com/gorilla/mux"
)

// AuditLog filters by actorId, action or targetType/targetId, in that order
// of precedence, newest first.
func (a *API) AuditLog(w http.ResponseWriter, r *http.Request) {
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

	q := r.URL.Query()
	items, err := a.engine.AuditLog(r.Context(), act, subAuth.AuditQuery{
		ActorID:    q.Get("actorId"),
		Action:     audit.Action(strings.ToUpper(q.Get("action"))),
		TargetType: audit.TargetType(strings.ToUpper(q.Get("targetType"))),
		TargetID:   q.Get("targetId"),
		Page:       audit.Page{Limit: page.limit, Offset: page.offset},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, listResponse[audit.Entry]{Items: items})
}

func (a *API) AuditEntry(w http.ResponseWriter, r *http.Request) {
	act, err := actor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := a.engine.AuditEntry(r.Context(), act, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

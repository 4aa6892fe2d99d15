package api

import "net/http"

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	a.Response(w, http.StatusOK, "OK")
}

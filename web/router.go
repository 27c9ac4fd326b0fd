package web

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jimiolaniyan/agencyauth/auth"
)

type Deps struct {
	Service        auth.Service
	Tokens         auth.Tokens
	Cookies        auth.CookieConfig
	Health         *HealthChecker
	Registry       *prometheus.Registry
	Log            logrus.FieldLogger
	FrontendOrigin string
}

// NewRouter wires the account routes and the operational endpoints.
func NewRouter(d Deps) http.Handler {
	m := NewMetrics(d.Registry)
	protect := func(h http.Handler) http.Handler {
		return auth.RequireSession(d.Tokens, d.Cookies, h)
	}

	router := httprouter.New()
	handle := func(method, path string, h http.Handler) {
		router.Handler(method, path, m.Instrument(path, h))
	}

	handle(http.MethodPost, "/signup", auth.SignupHandler(d.Service, d.Cookies))
	handle(http.MethodPost, "/login", auth.LoginHandler(d.Service, d.Cookies))
	handle(http.MethodPost, "/logout", auth.LogoutHandler(d.Cookies))
	handle(http.MethodGet, "/auth", protect(auth.SessionHandler()))
	handle(http.MethodPut, "/user/update", protect(auth.UpdateAccountHandler(d.Service, d.Cookies)))
	handle(http.MethodDelete, "/user/delete", protect(auth.DeleteAccountHandler(d.Service, d.Cookies)))

	if d.Health != nil {
		router.Handler(http.MethodGet, "/health", d.Health)
	}
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		d.Log.WithFields(logrus.Fields{
			"panic":      v,
			"path":       r.URL.Path,
			"request_id": RequestIDFrom(r.Context()),
		}).Error("handler panicked")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	return RequestID(AccessLog(d.Log, CORS(d.FrontendOrigin, router)))
}

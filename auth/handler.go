package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

type response struct {
	Success bool             `json:"success"`
	Msg     string           `json:"msg,omitempty"`
	User    interface{}      `json:"user,omitempty"`
	Field   string           `json:"field,omitempty"`
	Errors  ValidationErrors `json:"errors,omitempty"`
}

func SignupHandler(svc Service, cookies CookieConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := SignupRequest{}
		if err := decodeRequest(r.Body, &req); err != nil {
			encodeBadRequest(w)
			return
		}

		res := svc.Signup(r.Context(), req)
		if res.Success {
			cookies.set(w, res.Token)
		}
		encodeResult(w, res, http.StatusCreated)
	})
}

func LoginHandler(svc Service, cookies CookieConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := LoginRequest{}
		if err := decodeRequest(r.Body, &req); err != nil {
			encodeBadRequest(w)
			return
		}

		res := svc.Login(r.Context(), req)
		if res.Success {
			cookies.set(w, res.Token)
		}
		encodeResult(w, res, http.StatusOK)
	})
}

// SessionHandler reports the claims of the current session. It must sit
// behind RequireSession.
func SessionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			encodeResult(w, fail(ErrAuthentication, msgUnauthorized), http.StatusOK)
			return
		}
		encodeJSON(w, http.StatusOK, response{Success: true, Msg: msgAuthenticated, User: claims})
	})
}

func UpdateAccountHandler(svc Service, cookies CookieConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			encodeResult(w, fail(ErrAuthentication, msgUnauthorized), http.StatusOK)
			return
		}

		req := UpdateRequest{}
		if err := decodeRequest(r.Body, &req); err != nil {
			encodeBadRequest(w)
			return
		}

		res := svc.UpdateAccount(r.Context(), *claims, req)
		if res.Success {
			cookies.set(w, res.Token)
		}
		encodeResult(w, res, http.StatusOK)
	})
}

func DeleteAccountHandler(svc Service, cookies CookieConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			encodeResult(w, fail(ErrAuthentication, msgUnauthorized), http.StatusOK)
			return
		}

		res := svc.DeleteAccount(r.Context(), *claims)
		if res.Success || errors.Is(res.Err, ErrNotFound) {
			cookies.clear(w)
		}
		res.User = nil
		encodeResult(w, res, http.StatusOK)
	})
}

// LogoutHandler always succeeds. The token itself stays valid until it
// expires; the client is only told to drop it.
func LogoutHandler(cookies CookieConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookies.clear(w)
		encodeJSON(w, http.StatusOK, response{Success: true, Msg: msgLogoutOK})
	})
}

func encodeResult(w http.ResponseWriter, res Result, successCode int) {
	if res.Success {
		body := response{Success: true, Msg: res.Message}
		if res.User != nil {
			body.User = res.User
		}
		encodeJSON(w, successCode, body)
		return
	}

	var code int
	switch {
	case errors.Is(res.Err, ErrValidation):
		code = http.StatusUnprocessableEntity
	case errors.Is(res.Err, ErrConflict):
		code = http.StatusConflict
	case errors.Is(res.Err, ErrAuthentication):
		code = http.StatusUnauthorized
	case errors.Is(res.Err, ErrNotFound):
		code = http.StatusNotFound
	default:
		code = http.StatusInternalServerError
	}
	encodeJSON(w, code, response{Msg: res.Message, Field: res.Field, Errors: res.FieldErrors})
}

func encodeBadRequest(w http.ResponseWriter) {
	encodeJSON(w, http.StatusBadRequest, response{Msg: msgBadRequest})
}

func encodeJSON(w http.ResponseWriter, code int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeRequest reads a JSON object into v. An empty body leaves v at its
// zero value so missing fields are reported by the service.
func decodeRequest(body io.ReadCloser, v interface{}) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

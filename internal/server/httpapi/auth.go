package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/server/auth"
	"github.com/dmitrijs2005/incidentportal/internal/server/validation"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid token."
	msgTokenExpired = "Token expired."
	msgAuthRequired = "Authentication required."

	msgRegistered      = "User registered successfully"
	msgLoggedIn        = "Login successful"
	msgProfileReturned = "Profile retrieved successfully"
)

type ctxKey string

const identityKey ctxKey = "identity"

// IdentityFrom returns the identity attached by Authenticate.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// authenticate verifies the bearer token and attaches its identity to the
// request context.
func (a *api) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeader), common.BearerPrefix)
		if !ok {
			a.writeError(w, r, common.NewError(common.ErrorUnauthenticated, msgNoToken))
			return
		}

		id, err := auth.ParseToken(token, a.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				a.writeError(w, r, common.NewError(common.ErrTokenExpired, msgTokenExpired))
				return
			}
			a.writeError(w, r, common.NewError(common.ErrInvalidToken, msgInvalidToken))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// requireAuth rejects requests that reach it without an identity.
func (a *api) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			a.writeError(w, r, common.NewError(common.ErrorUnauthenticated, msgAuthRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var in validation.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	res, err := a.users.Register(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, res, msgRegistered)
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	res, err := a.users.Login(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, res, msgLoggedIn)
}

func (a *api) profile(w http.ResponseWriter, r *http.Request) {
	res, err := a.users.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, res, msgProfileReturned)
}

package api

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

const (
	authScheme = "basicAuth"
	authRealm  = `Basic realm="switchlight"`
)

var errBadCredentials = errors.New("malformed basic credentials")

type credentials struct {
	user, pass []byte
}

func (c credentials) match(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), c.user) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), c.pass) == 1
	return userOK && passOK
}

// presented returns the base64 credentials of a request. EventSource cannot
// set headers, so the auth query parameter is accepted in their place.
func presented(ctx huma.Context) (string, error) {
	header := ctx.Header("Authorization")
	if header == "" {
		return ctx.Query("auth"), nil
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Basic") {
		return "", errors.New("unsupported authorization scheme")
	}
	return strings.TrimSpace(token), nil
}

func decodeBasic(token string) (user, pass string, err error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", errBadCredentials
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", errBadCredentials
	}
	return user, pass, nil
}

// requireAuth guards every operation that declares a security requirement.
func requireAuth(api huma.API, want credentials) func(huma.Context, func(huma.Context)) {
	deny := func(ctx huma.Context, msg string) {
		ctx.SetHeader("WWW-Authenticate", authRealm)
		_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msg)
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		token, err := presented(ctx)
		switch {
		case err != nil:
			deny(ctx, err.Error())
			return
		case token == "":
			deny(ctx, "Authentication required")
			return
		}

		user, pass, err := decodeBasic(token)
		if err != nil {
			deny(ctx, err.Error())
			return
		}
		if !want.match(user, pass) {
			deny(ctx, "Invalid credentials")
			return
		}
		next(ctx)
	}
}

// withAuth marks an operation as requiring basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{{authScheme: {}}}
}

func public() []map[string][]string {
	return []map[string][]string{}
}

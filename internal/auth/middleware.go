package auth

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

type contextKey struct{}

// ErrorWriter renders an auth failure. The API layer supplies its JSON writer.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// legacyHeaders are the per-role token headers the web clients send.
var legacyHeaders = []struct {
	name string
	role Role
}{
	{"aToken", RoleAdmin},
	{"dToken", RoleDoctor},
	{"token", RolePatient},
}

// FromRequest authenticates r. A token found in a legacy header must carry
// the role that header stands for.
func (i *Issuer) FromRequest(r *http.Request) (Principal, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return Principal{}, fmt.Errorf("%w: authorization header must be a bearer token", apperr.ErrUnauthorized)
		}
		return i.Verify(strings.TrimSpace(raw))
	}

	for _, lh := range legacyHeaders {
		raw := r.Header.Get(lh.name)
		if raw == "" {
			continue
		}
		p, err := i.Verify(raw)
		if err != nil {
			return Principal{}, err
		}
		if p.Role != lh.role {
			return Principal{}, fmt.Errorf("%w: %s header carries a %s token", apperr.ErrUnauthorized, lh.name, p.Role)
		}
		return p, nil
	}
	return Principal{}, ErrMissingToken
}

// Require authenticates the request and rejects principals outside roles.
func (i *Issuer) Require(fail ErrorWriter, roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := i.FromRequest(r)
			if err != nil {
				fail(w, r, err)
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, p.Role) {
				fail(w, r, fmt.Errorf("%w: %s tokens cannot use this endpoint", apperr.ErrForbidden, p.Role))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom returns the principal stored by Require.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-scheduling/internal/apperr"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	id := uuid.New()

	raw, expires, err := iss.Issue(id, RoleDoctor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	p, err := iss.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: id, Role: RoleDoctor}, p)
}

func TestVerifyRejects(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	id := uuid.New()

	good, _, err := iss.Issue(id, RolePatient)
	require.NoError(t, err)

	_, err = NewIssuer("other-secret", time.Hour).Verify(good)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	expired := NewIssuer("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(id, RolePatient)
	require.NoError(t, err)
	_, err = iss.Verify(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = iss.Issue(id, Role("root"))
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	doctorID := uuid.New()
	doctorToken, _, err := iss.Issue(doctorID, RoleDoctor)
	require.NoError(t, err)
	patientToken, _, err := iss.Issue(uuid.New(), RolePatient)
	require.NoError(t, err)

	var failed error
	fail := func(w http.ResponseWriter, _ *http.Request, err error) {
		failed = err
		w.WriteHeader(http.StatusTeapot)
	}
	var seen Principal
	h := iss.Require(fail, RoleDoctor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		value  string
		status int
		kind   error
	}{
		{"bearer", "Authorization", "Bearer " + doctorToken, http.StatusNoContent, nil},
		{"legacy doctor header", "dToken", doctorToken, http.StatusNoContent, nil},
		{"missing", "", "", http.StatusTeapot, apperr.ErrUnauthorized},
		{"basic auth", "Authorization", "Basic Zm9vOmJhcg==", http.StatusTeapot, apperr.ErrUnauthorized},
		{"wrong header for role", "aToken", doctorToken, http.StatusTeapot, apperr.ErrUnauthorized},
		{"patient on doctor route", "token", patientToken, http.StatusTeapot, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed, seen = nil, Principal{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.kind == nil {
				assert.NoError(t, failed)
				assert.Equal(t, doctorID, seen.ID)
				return
			}
			assert.True(t, errors.Is(failed, tt.kind), "got %v", failed)
		})
	}
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

func newTestService(t *testing.T) (*Service, models.Admin) {
	t.Helper()
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	st := store.NewMemory()
	admin := st.AddAdmin(models.Admin{Email: "Owner@Shop.example", PasswordHash: hash, Name: "Owner"})
	return NewService(st, NewIssuer("test-secret", time.Hour)), admin
}

func TestLogin(t *testing.T) {
	svc, admin := newTestService(t)

	res, err := svc.Login(context.Background(), "owner@shop.example", "hunter22")
	if err != nil {
		t.Fatalf("Login(): %v", err)
	}
	if res.Token == "" {
		t.Fatal("empty token")
	}
	claims, err := svc.issuer.Parse(res.Token)
	if err != nil {
		t.Fatalf("Parse(): %v", err)
	}
	if id, _ := claims.AdminID(); id != admin.ID {
		t.Errorf("subject = %s, want %s", id, admin.ID)
	}
	if claims.Email != admin.Email {
		t.Errorf("email = %q, want %q", claims.Email, admin.Email)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct{ email, password string }{
		{"owner@shop.example", "wrong"},
		{"nobody@shop.example", "hunter22"},
		{"", "hunter22"},
		{"owner@shop.example", ""},
	}
	for _, tt := range tests {
		if _, err := svc.Login(context.Background(), tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%q, %q) error = %v, want ErrInvalidCredentials", tt.email, tt.password, err)
		}
	}
}

func TestIssuerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewIssuer("secret-a", time.Minute)
	admin := models.Admin{ID: uuid.New(), Email: "a@b.c"}

	token, _, err := issuer.Issue(admin)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}

	other := NewIssuer("secret-b", time.Minute)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: error = %v, want ErrInvalidToken", err)
	}

	later := NewIssuer("secret-a", time.Minute)
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := later.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: error = %v, want ErrInvalidToken", err)
	}
}

func TestMiddleware(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	adminID := uuid.New()
	valid, _, _ := issuer.Issue(models.Admin{ID: adminID, Email: "a@b.c"})

	var seen uuid.UUID
	handler := NewMiddleware(issuer).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AdminIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusForbidden, "No token provided"},
		{"not bearer", "Basic abc", http.StatusForbidden, "No token provided"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"valid", "Bearer " + valid, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.message == "" {
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["status"] != "error" || body["message"] != tt.message {
				t.Errorf("body = %v, want error %q", body, tt.message)
			}
		})
	}

	if seen != adminID {
		t.Errorf("admin in context = %s, want %s", seen, adminID)
	}
}

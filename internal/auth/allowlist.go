// Package auth gates the API behind an e-mail allow list. Identity comes from
// a trusted proxy header.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/skuboard/skuboard/internal/platform/httpx"
)

// DefaultEmailHeader is the header set by Google's Identity-Aware Proxy.
const DefaultEmailHeader = "X-Goog-Authenticated-User-Email"

// AllowList holds the lower-cased e-mail addresses allowed in.
type AllowList struct {
	emails map[string]struct{}
}

// ParseAllowList splits a comma separated list. Blank entries are dropped.
func ParseAllowList(raw string) AllowList {
	emails := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email == "" {
			continue
		}
		emails[email] = struct{}{}
	}
	return AllowList{emails: emails}
}

// Len reports the number of allowed addresses.
func (a AllowList) Len() int { return len(a.emails) }

// Allows reports whether the e-mail is on the list. An empty list allows no
// one.
func (a AllowList) Allows(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	_, ok := a.emails[email]
	return ok
}

type emailContextKey struct{}

// ContextWithEmail stores the authenticated e-mail in context.
func ContextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailContextKey{}, email)
}

// EmailFromContext returns the authenticated e-mail, if any.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(emailContextKey{}).(string)
	return email
}

// Gate rejects requests whose identity header is missing or not allowed.
type Gate struct {
	allow  AllowList
	header string
	logger *slog.Logger
}

// NewGate constructs a Gate. An empty header name falls back to
// DefaultEmailHeader.
func NewGate(allow AllowList, header string, logger *slog.Logger) *Gate {
	header = strings.TrimSpace(header)
	if header == "" {
		header = DefaultEmailHeader
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{allow: allow, header: header, logger: logger}
}

// Middleware answers 401 for anyone not on the allow list.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := identity(r.Header.Get(g.header))
		if !g.allow.Allows(email) {
			g.logger.Debug("request denied", slog.String("path", r.URL.Path), slog.Bool("has_identity", email != ""))
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithEmail(r.Context(), strings.ToLower(email))))
	})
}

// identity strips the "accounts.google.com:" style namespace prefix.
func identity(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.LastIndexByte(value, ':'); i >= 0 {
		value = value[i+1:]
	}
	return strings.TrimSpace(value)
}

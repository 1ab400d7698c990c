package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/fornihq/forni-backend/api/responses"
	pkgerrors "github.com/fornihq/forni-backend/pkg/errors"
	"github.com/fornihq/forni-backend/pkg/logger"
	pkgredis "github.com/fornihq/forni-backend/pkg/redis"
)

const (
	replayTTLDefault = 24 * time.Hour
	replayTTLOrder   = 7 * 24 * time.Hour
)

// replayRule marks a route pattern as idempotency-protected. A pattern
// matches when it equals exact, or carries both prefix and suffix.
type replayRule struct {
	method string
	exact  string
	prefix string
	suffix string
	ttl    time.Duration
}

func (rr replayRule) matches(method, pattern string) bool {
	if rr.method != method {
		return false
	}
	if rr.exact != "" {
		return pattern == rr.exact
	}
	if rr.prefix != "" && !strings.HasPrefix(pattern, rr.prefix) {
		return false
	}
	if rr.suffix != "" && !strings.HasSuffix(pattern, rr.suffix) {
		return false
	}
	return rr.prefix != "" || rr.suffix != ""
}

// Order routes keep records for a week because money moves on them;
// everything else gets a day.
var replayRules = []replayRule{
	{method: http.MethodPost, exact: "/register", ttl: replayTTLDefault},
	{method: http.MethodPost, exact: "/review", ttl: replayTTLDefault},
	{method: http.MethodPost, exact: "/bakery", ttl: replayTTLDefault},
	{method: http.MethodPost, exact: "/product", ttl: replayTTLDefault},
	{method: http.MethodPost, exact: "/surplus_bag", ttl: replayTTLDefault},
	{method: http.MethodPost, exact: "/order", ttl: replayTTLOrder},
	{method: http.MethodPost, prefix: "/order/", suffix: "/confirm-pickup", ttl: replayTTLOrder},
	{method: http.MethodPut, prefix: "/order/", ttl: replayTTLOrder},
}

type replayRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency stores the first response seen for an Idempotency-Key and
// replays it on retries. Reusing a key with a different request body is
// rejected so a retry can never silently submit different data.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ttl, protected := replayTTL(r.Method, routePattern(r))
			if store == nil || !protected {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			bodySum := sha256.Sum256(body)
			requestHash := base64.StdEncoding.EncodeToString(bodySum[:])

			scope := UserIDFromContext(ctx) + "|" + r.Method + "|" + r.URL.Path
			key := store.IdempotencyKey(scope, clientKey)

			stored, err := store.Get(ctx, key)
			switch {
			case err != nil && !errors.Is(err, redis.Nil):
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			case stored != "":
				var record replayRecord
				if err := json.Unmarshal([]byte(stored), &record); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
					return
				}
				if record.RequestHash != requestHash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				replayStored(w, record)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			record := replayRecord{
				Status:      capture.statusOr(http.StatusOK),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				RequestHash: requestHash,
			}
			if ct := capture.Header().Get("Content-Type"); ct != "" {
				record.Headers = map[string]string{"Content-Type": ct}
			}

			payload, err := json.Marshal(record)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "marshal idempotency record", err)
				}
				return
			}
			if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func replayTTL(method, pattern string) (time.Duration, bool) {
	if pattern == "" {
		return 0, false
	}
	for _, rule := range replayRules {
		if rule.matches(method, pattern) {
			return rule.ttl, true
		}
	}
	return 0, false
}

func replayStored(w http.ResponseWriter, record replayRecord) {
	if ct := record.Headers["Content-Type"]; ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

// routePattern resolves the matched chi pattern so rules key on route
// shapes rather than raw paths with embedded ids.
func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOr(fallback int) int {
	if c.status == 0 {
		return fallback
	}
	return c.status
}

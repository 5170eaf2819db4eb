package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	inFlightTTL       = 30 * time.Second
	inFlightMarker    = "in-flight"
)

// IdempotencyStore is the key-value surface the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, error) // ErrCacheMiss when absent
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// ErrCacheMiss is returned by IdempotencyStore.Get for an unknown key.
var ErrCacheMiss = errors.New("cache miss")

// RedisIdempotencyStore adapts a go-redis client to IdempotencyStore.
type RedisIdempotencyStore struct {
	client *redis.Client
}

// NewRedisIdempotencyStore creates a new RedisIdempotencyStore.
func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (s *RedisIdempotencyStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisIdempotencyStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// mutating requests. Keys are scoped to the caller and the route. A repeat that
// arrives while the first request is still running gets 409.
// Store failures degrade to normal processing.
func Idempotency(store IdempotencyStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to mutating methods.
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyKey(c, key)

		data, err := store.Get(ctx, cacheKey)
		switch {
		case err == nil && string(data) == inFlightMarker:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
			return
		case err == nil:
			var cached cachedResponse
			if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
				for k, v := range cached.Headers {
					for _, val := range v {
						c.Header(k, val)
					}
				}
				c.Header("Idempotent-Replayed", "true")
				c.Data(cached.StatusCode, "application/json", cached.Body)
				c.Abort()
				return
			}
			logger.WarnContext(ctx, "discarding unreadable idempotency record", "key", cacheKey)
			if err := store.Del(ctx, cacheKey); err != nil {
				logger.WarnContext(ctx, "idempotency store release failed", "error", err)
			}
		case !errors.Is(err, ErrCacheMiss):
			logger.WarnContext(ctx, "idempotency store read failed", "error", err)
			c.Next()
			return
		}

		reserved, err := store.SetNX(ctx, cacheKey, []byte(inFlightMarker), inFlightTTL)
		if err != nil {
			logger.WarnContext(ctx, "idempotency store reserve failed", "error", err)
			c.Next()
			return
		}
		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are not replayed; the client may retry with the same key.
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Del(ctx, cacheKey); err != nil {
				logger.WarnContext(ctx, "idempotency store release failed", "error", err)
			}
			return
		}

		body := w.body.Bytes()
		if len(body) == 0 {
			body = []byte("null")
		}
		payload, err := json.Marshal(cachedResponse{
			StatusCode: status,
			Body:       body,
			Headers:    extractResponseHeaders(c),
		})
		if err == nil {
			err = store.Set(ctx, cacheKey, payload, idempotencyTTL)
		}
		if err != nil {
			logger.WarnContext(ctx, "idempotency store write failed", "error", err)
		}
	}
}

func idempotencyKey(c *gin.Context, key string) string {
	subject := "anonymous"
	if caller, ok := CallerFromContext(c); ok {
		subject = caller.ID
	}
	return "idempotency:" + subject + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	// Only cache Content-Type header.
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}

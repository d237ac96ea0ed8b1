package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks idempotency keys in redis with a TTL. A key is claimed with
// SetNX, so concurrent requests carrying the same key race for a single claim.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) key(userID, raw string) string {
	return fmt.Sprintf("idem:%s:%s", userID, raw)
}

// Seen claims the key and reports whether it had already been claimed.
func (s *Store) Seen(ctx context.Context, userID, raw string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.key(userID, raw), "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Middleware rejects a request whose Idempotency-Key header was already seen
// for the same caller. Requests without the header pass through untouched.
// userFrom extracts the caller identity from the request context.
func Middleware(store *Store, userFrom func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if store == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			seen, err := store.Seen(r.Context(), userFrom(r), key)
			if err != nil {
				// redis being down must not block checkout
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]string{"error": "duplicate request"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

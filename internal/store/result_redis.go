package store

import (
    "context"
    "encoding/hex"
    "fmt"
    "strconv"
    "strings"
    "time"

    redis "github.com/redis/go-redis/v9"
    "golang.org/x/crypto/blake2b"
)

// ResultStore caches formatted extraction output. Parsed PDF structure is
// never cached; only the final text for a (document, selection, format) key.
type ResultStore struct {
    client *redis.Client
    ttl    time.Duration
}

func NewResultStore(redisURL string, ttl time.Duration) (*ResultStore, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    return &ResultStore{client: c, ttl: ttl}, nil
}

func (s *ResultStore) Close() error { return s.client.Close() }

// Digest identifies document bytes.
func Digest(data []byte) string {
    sum := blake2b.Sum256(data)
    return hex.EncodeToString(sum[:])
}

// ResultKey builds the cache key for a document digest, a 0-based page
// selection, the page-spec parts that were skipped and an output format.
// Skipped parts are part of the key because they show up in the report.
func ResultKey(digest string, pages []int, skipped []string, format string) string {
    parts := make([]string, len(pages))
    for i, p := range pages {
        parts[i] = strconv.Itoa(p + 1)
    }
    sel := strings.Join(parts, ",")
    if len(skipped) > 0 {
        sel += "!" + strings.Join(skipped, ",")
    }
    if len(sel) > 128 {
        sum := blake2b.Sum256([]byte(sel))
        sel = "h" + hex.EncodeToString(sum[:8])
    }
    return fmt.Sprintf("extract:%s:%s:%s", digest, format, sel)
}

// Get returns the cached value and whether it was present.
func (s *ResultStore) Get(ctx context.Context, key string) (string, bool, error) {
    res, err := s.client.Get(ctx, key).Result()
    if err == redis.Nil { return "", false, nil }
    if err != nil { return "", false, err }
    return res, true, nil
}

func (s *ResultStore) Set(ctx context.Context, key, value string) error {
    return s.client.Set(ctx, key, value, s.ttl).Err()
}

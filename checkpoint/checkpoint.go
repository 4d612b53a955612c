// Package checkpoint persists and retrieves reentrancy cursors keyed by an
// arbitrary job ID, so a long WXR ingest can resume across process
// restarts without the caller hand-rolling storage. It follows the
// teacher's redigo pool-and-Do idiom (registry/storage/cache/redis.go)
// rather than the current teacher go-redis client, since this module's
// go.mod carries gomodule/redigo.
package checkpoint

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/opencontainers/go-digest"

	wxrcore "github.com/wxrmigrate/wxrcore"
)

// ErrNotFound is returned by Load when no cursor is stored for a job ID.
var ErrNotFound = errors.New("checkpoint: not found")

// Store persists reentrancy cursors in Redis, content-addressed with
// go-digest so a corrupted or stale record is detected before resume.
type Store struct {
	pool *redis.Pool
}

// NewStore builds a Store around a new redigo connection pool, configured
// per the Redis section of configuration.Configuration.
func NewStore(cfg RedisConfig) *Store {
	return &Store{pool: createPool(cfg)}
}

// RedisConfig mirrors configuration.Redis; it's declared locally so this
// package doesn't import configuration (avoiding an import cycle with any
// future configuration-level checkpoint wiring).
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxIdle      int
	MaxActive    int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func createPool(cfg RedisConfig) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     cfg.MaxIdle,
		MaxActive:   cfg.MaxActive,
		IdleTimeout: cfg.IdleTimeout,
		Dial: func() (redis.Conn, error) {
			opts := []redis.DialOption{
				redis.DialConnectTimeout(cfg.DialTimeout),
				redis.DialReadTimeout(cfg.ReadTimeout),
				redis.DialWriteTimeout(cfg.WriteTimeout),
			}
			if cfg.Password != "" {
				opts = append(opts, redis.DialPassword(cfg.Password))
			}
			if cfg.DB != 0 {
				opts = append(opts, redis.DialDatabase(cfg.DB))
			}
			return redis.Dial("tcp", cfg.Addr, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}
}

// record is the value stored per job: the opaque cursor string plus the
// digest computed over it at save time, so Load can detect corruption
// (e.g. a truncated write or manual edit) before handing a bad cursor back
// to a resuming wxr.Reader.
type record struct {
	Cursor string `json:"cursor"`
	Digest string `json:"digest"`
}

// Save persists cursor under jobID, overwriting any prior value.
func (s *Store) Save(jobID, cursor string) error {
	conn := s.pool.Get()
	defer conn.Close()

	dgst := digest.FromString(cursor)
	_, err := conn.Do("HMSET", checkpointKey(jobID), "cursor", cursor, "digest", dgst.String())
	if err != nil {
		return err
	}
	return nil
}

// Load retrieves the cursor stored under jobID, returning ErrNotFound if
// none exists and a *wxrcore.FatalError if the stored digest no longer
// matches the stored cursor.
func (s *Store) Load(jobID string) (string, error) {
	conn := s.pool.Get()
	defer conn.Close()

	reply, err := redis.Values(conn.Do("HMGET", checkpointKey(jobID), "cursor", "digest"))
	if err != nil {
		return "", err
	}
	if len(reply) < 2 || reply[0] == nil || reply[1] == nil {
		return "", ErrNotFound
	}

	var rec record
	if _, err := redis.Scan(reply, &rec.Cursor, &rec.Digest); err != nil {
		return "", err
	}

	want, err := digest.Parse(rec.Digest)
	if err != nil {
		return "", &wxrcore.FatalError{Component: "checkpoint", Reason: "corrupt-digest", Err: err}
	}
	if digest.FromString(rec.Cursor) != want {
		return "", &wxrcore.FatalError{Component: "checkpoint", Reason: "cursor-digest-mismatch"}
	}

	return rec.Cursor, nil
}

// Clear removes any cursor stored under jobID. It is not an error to clear
// a job that has no stored cursor.
func (s *Store) Clear(jobID string) error {
	conn := s.pool.Get()
	defer conn.Close()

	_, err := conn.Do("DEL", checkpointKey(jobID))
	return err
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

func checkpointKey(jobID string) string {
	return "wxrmigrate::checkpoint::" + jobID
}

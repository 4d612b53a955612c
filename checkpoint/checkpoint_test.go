package checkpoint

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var redisAddr string

func init() {
	flag.StringVar(&redisAddr, "test.checkpoint.redis.addr", "", "configure the address of a test instance of redis")
}

func testStore(t *testing.T) *Store {
	if redisAddr == "" {
		redisAddr = os.Getenv("TEST_CHECKPOINT_REDIS_ADDR")
	}
	if redisAddr == "" {
		t.Skip("please set -test.checkpoint.redis.addr to test checkpoint against redis")
	}

	return NewStore(RedisConfig{
		Addr:        redisAddr,
		MaxIdle:     2,
		MaxActive:   4,
		DialTimeout: 5 * time.Second,
	})
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := testStore(t)
	defer s.Close()

	require.NoError(t, s.Clear("job-1"))
	require.NoError(t, s.Save("job-1", "opaque-cursor-bytes"))

	got, err := s.Load("job-1")
	require.NoError(t, err)
	require.Equal(t, "opaque-cursor-bytes", got)
}

func TestLoadMissingJobReturnsNotFound(t *testing.T) {
	s := testStore(t)
	defer s.Close()

	require.NoError(t, s.Clear("job-missing"))
	_, err := s.Load("job-missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClearRemovesCursor(t *testing.T) {
	s := testStore(t)
	defer s.Close()

	require.NoError(t, s.Save("job-2", "cursor"))
	require.NoError(t, s.Clear("job-2"))

	_, err := s.Load("job-2")
	require.ErrorIs(t, err, ErrNotFound)
}

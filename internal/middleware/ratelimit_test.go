package middleware

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// scriptedRedis answers commands in-process so the limiter can be driven
// without a server.
type scriptedRedis struct {
	mu        sync.Mutex
	count     int64
	expireErr error
	calls     []string
}

func (s *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled")
	}
}

func (s *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, cmd.Name())
		switch c := cmd.(type) {
		case *redis.IntCmd:
			if cmd.Name() == "incr" {
				s.count++
				c.SetVal(s.count)
			} else {
				c.SetVal(1)
			}
		case *redis.BoolCmd:
			if s.expireErr != nil {
				c.SetErr(s.expireErr)
				return s.expireErr
			}
			c.SetVal(true)
		}
		return nil
	}
}

func (s *scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (s *scriptedRedis) called(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == name {
			return true
		}
	}
	return false
}

func newLimitedApp(t *testing.T, script *scriptedRedis, limit int) *fiber.App {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(script)
	t.Cleanup(func() { rdb.Close() })

	app := fiber.New()
	app.Use(RateLimitMiddleware(rdb, limit, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func TestRateLimitMiddleware_ExpireFailureDropsWindow(t *testing.T) {
	script := &scriptedRedis{expireErr: errors.New("READONLY")}
	app := newLimitedApp(t, script, 1)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !script.called("del") {
		t.Errorf("expected key without TTL to be deleted, calls = %v", script.calls)
	}
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	script := &scriptedRedis{}
	app := newLimitedApp(t, script, 1)

	statuses := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		statuses = append(statuses, resp.StatusCode)
	}
	if statuses[0] != fiber.StatusNoContent || statuses[1] != fiber.StatusTooManyRequests {
		t.Errorf("statuses = %v", statuses)
	}
	if script.called("del") {
		t.Error("healthy window should not be deleted")
	}
}

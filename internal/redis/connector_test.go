package redis

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/MrSnakeDoc/readbot/internal/logger"
)

func testOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
		WarnThreshold:  1,
	}
}

// closedAddr returns an address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestNew_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), testOptions(mr.Addr()), logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Errorf("Set() error = %v", err)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
		{"missing address", func(o *ConnectOptions) { o.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("127.0.0.1:6379")
			tt.mutate(&opts)
			if _, err := New(context.Background(), opts, logger.NewNop()); err == nil {
				t.Error("New() should reject the options")
			}
		})
	}
}

func TestNew_TimesOut(t *testing.T) {
	_, err := New(context.Background(), testOptions(closedAddr(t)), logger.NewNop())
	if err == nil {
		t.Fatal("New() should fail when redis is unreachable")
	}
}

func TestNew_AbortsWhenContextCancelled(t *testing.T) {
	opts := testOptions(closedAddr(t))
	opts.ConnectTimeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := New(ctx, opts, logger.NewNop())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("New() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("New() kept retrying after cancellation")
	}
}

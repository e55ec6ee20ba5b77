package verification

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store/memstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type captureSender struct {
	mu   sync.Mutex
	sent []string
	to   []string
	err  error
}

func (s *captureSender) ProviderID() string { return "capture" }

func (s *captureSender) Send(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.to = append(s.to, to)
	s.sent = append(s.sent, body)
	return nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newGate(t *testing.T) (*Gate, *memstore.Store, *clock, *captureSender) {
	t.Helper()
	st := memstore.New()
	sender := &captureSender{}
	clk := &clock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	g := NewGate(st, sender, nil, Config{DevEcho: true, HashCost: bcrypt.MinCost, Brand: "Glow"}, nil, nil).WithClock(clk.Now)
	return g, st, clk, sender
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
	_, err := GenerateCode(2)
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+16465551234":     "+16465551234",
		"(646) 555-1234":   "+16465551234",
		"1-646-555-1234":   "+16465551234",
		"+44 20 7946 0958": "+442079460958",
	}
	for raw, want := range cases {
		got, err := NormalizePhone(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, bad := range []string{"", "555-1234", "+0123456789", "646555123x", "26465551234"} {
		_, err := NormalizePhone(bad)
		assert.ErrorIs(t, err, ErrInvalidPhone, bad)
	}
}

func TestRequestThenValidate(t *testing.T) {
	g, st, _, sender := newGate(t)
	ctx := context.Background()

	res, err := g.Request(ctx, "6465551234")
	require.NoError(t, err)
	assert.Equal(t, "+16465551234", res.Phone)
	require.Len(t, res.Code, 6)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+16465551234", sender.to[0])
	assert.Equal(t, "Your Glow verification code is "+res.Code+". It is valid for 5 minutes.", sender.sent[0])

	phone, err := g.Validate(ctx, "+16465551234", res.Code)
	require.NoError(t, err)
	assert.Equal(t, "+16465551234", phone)

	known, err := st.CustomerExists(ctx, phone)
	require.NoError(t, err)
	assert.True(t, known)
}

func TestValidateIsSingleUse(t *testing.T) {
	g, _, _, _ := newGate(t)
	ctx := context.Background()

	res, err := g.Request(ctx, "+16465551234")
	require.NoError(t, err)
	_, err = g.Validate(ctx, "+16465551234", res.Code)
	require.NoError(t, err)

	_, err = g.Validate(ctx, "+16465551234", res.Code)
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredCode)
}

func TestValidateConcurrentSingleWinner(t *testing.T) {
	g, _, _, _ := newGate(t)
	ctx := context.Background()
	res, err := g.Request(ctx, "+16465551234")
	require.NoError(t, err)

	const n = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Validate(ctx, "+16465551234", res.Code); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestValidateExpiry(t *testing.T) {
	g, _, clk, _ := newGate(t)
	ctx := context.Background()

	res, err := g.Request(ctx, "+16465551234")
	require.NoError(t, err)

	clk.Advance(5*time.Minute + time.Second)
	_, err = g.Validate(ctx, "+16465551234", res.Code)
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredCode)
}

func TestValidateAtTTLBoundary(t *testing.T) {
	g, _, clk, _ := newGate(t)
	ctx := context.Background()

	res, err := g.Request(ctx, "+16465551234")
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	_, err = g.Validate(ctx, "+16465551234", res.Code)
	assert.NoError(t, err)
}

func TestValidateUsesNewestCode(t *testing.T) {
	g, _, clk, _ := newGate(t)
	ctx := context.Background()

	first, err := g.Request(ctx, "+16465551234")
	require.NoError(t, err)
	clk.Advance(time.Minute)
	second, err := g.Request(ctx, "+16465551234")
	require.NoError(t, err)

	if first.Code != second.Code {
		_, err = g.Validate(ctx, "+16465551234", first.Code)
		assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredCode)
	}
	_, err = g.Validate(ctx, "+16465551234", second.Code)
	assert.NoError(t, err)
}

func TestValidateRejectsWithoutRequest(t *testing.T) {
	g, _, _, _ := newGate(t)
	ctx := context.Background()

	_, err := g.Validate(ctx, "+16465551234", "123456")
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredCode)

	_, err = g.Validate(ctx, "+16465551234", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredCode)

	_, err = g.Validate(ctx, "nope", "123456")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRequestSendFailure(t *testing.T) {
	st := memstore.New()
	sender := &captureSender{err: errors.New("provider down")}
	g := NewGate(st, sender, NewMemoryCooldown(), Config{ResendCooldown: time.Minute, HashCost: bcrypt.MinCost, DevEcho: true}, nil, nil)
	ctx := context.Background()

	_, err := g.Request(ctx, "+16465551234")
	assert.ErrorIs(t, err, apperr.ErrServiceUnavailable)

	_, err = st.LatestPendingVerification(ctx, "+16465551234", time.Time{})
	assert.ErrorIs(t, err, store.ErrNotFound, "no code should survive a failed send")

	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()
	res, err := g.Request(ctx, "+16465551234")
	require.NoError(t, err, "cooldown must not block a retry after a failed send")
	require.Len(t, sender.sent, 1)

	_, err = g.Validate(ctx, "+16465551234", res.Code)
	assert.NoError(t, err)
}

func TestRequestHonoursCooldown(t *testing.T) {
	st := memstore.New()
	cd := NewMemoryCooldown()
	clk := &clock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	cd.now = clk.Now
	g := NewGate(st, &captureSender{}, cd, Config{ResendCooldown: time.Minute, HashCost: bcrypt.MinCost}, nil, nil).WithClock(clk.Now)
	ctx := context.Background()

	_, err := g.Request(ctx, "+16465551234")
	require.NoError(t, err)
	_, err = g.Request(ctx, "+16465551234")
	assert.ErrorIs(t, err, apperr.ErrRateLimited)

	_, err = g.Request(ctx, "+16465550000")
	assert.NoError(t, err)

	clk.Advance(time.Minute)
	_, err = g.Request(ctx, "+16465551234")
	assert.NoError(t, err)
}

func TestRedisCooldown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cd := NewRedisCooldown(rdb, "")
	ctx := context.Background()

	ok, err := cd.Acquire(ctx, "+16465551234", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cd.Acquire(ctx, "+16465551234", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)
	ok, err = cd.Acquire(ctx, "+16465551234", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cd.Release(ctx, "+16465551234"))
	ok, err = cd.Acquire(ctx, "+16465551234", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

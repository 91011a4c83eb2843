package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/hoodie-drop/internal/adapter/storage"
	"github.com/rl1809/hoodie-drop/internal/core/domain"
	"github.com/rl1809/hoodie-drop/internal/core/service"
	"github.com/rl1809/hoodie-drop/internal/port"
)

// countingGateway stands in for the intake form and counts dispatches.
type countingGateway struct {
	sent    atomic.Int32
	latency time.Duration
}

func (g *countingGateway) Send(ctx context.Context, draft domain.OrderDraft) (port.Sent, error) {
	time.Sleep(g.latency)
	g.sent.Add(1)
	return port.Sent{Endpoint: "stress://intake", DispatchedAt: time.Now(), FieldCount: 9}, nil
}

func main() {
	store := flag.String("store", "memory", "draft store: memory, redis or miniredis")
	redisAddr := flag.String("redis", "localhost:6379", "redis address for -store=redis")
	checkouts := flag.Int("checkouts", 20, "number of checkouts")
	clicks := flag.Int("clicks", 25, "concurrent submits per checkout")
	latency := flag.Duration("latency", 20*time.Millisecond, "simulated intake latency")
	flag.Parse()

	ctx := context.Background()

	drafts, cleanup := openStore(ctx, *store, *redisAddr)
	defer cleanup()

	gateway := &countingGateway{latency: *latency}
	checkoutService := service.NewCheckoutService(drafts, gateway)

	ids := make([]string, 0, *checkouts)
	for i := 0; i < *checkouts; i++ {
		checkout, err := checkoutService.StartDraft(ctx)
		if err != nil {
			log.Fatalf("failed to start checkout: %v", err)
		}
		fill(ctx, checkoutService, checkout.ID)
		ids = append(ids, checkout.ID)
	}

	// Counters
	var submitted, busy, already, failed atomic.Int32

	// Spawn concurrent submits, several per checkout
	var wg sync.WaitGroup
	start := time.Now()

	for _, id := range ids {
		for c := 0; c < *clicks; c++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()

				_, err := checkoutService.Submit(ctx, id)
				switch {
				case err == nil:
					submitted.Add(1)
				case errors.Is(err, service.ErrCheckoutBusy):
					busy.Add(1)
				case errors.Is(err, service.ErrAlreadySubmitted):
					already.Add(1)
				default:
					failed.Add(1)
					log.Printf("unexpected error for %s: %v", id, err)
				}
			}(id)
		}
	}

	wg.Wait()
	elapsed := time.Since(start)
	total := *checkouts * *clicks

	log.Printf("=== stress test results (%s store) ===", *store)
	log.Printf("checkouts:          %d", *checkouts)
	log.Printf("submits:            %d", total)
	log.Printf("submitted:          %d", submitted.Load())
	log.Printf("rejected busy:      %d", busy.Load())
	log.Printf("rejected submitted: %d", already.Load())
	log.Printf("failed:             %d", failed.Load())
	log.Printf("intake dispatches:  %d", gateway.sent.Load())
	log.Printf("elapsed:            %v", elapsed)

	if int(gateway.sent.Load()) != *checkouts || int(submitted.Load()) != *checkouts {
		log.Fatalf("FAIL: expected exactly one dispatch per checkout")
	}
	log.Println("PASS: every checkout was dispatched exactly once")
}

func openStore(ctx context.Context, kind, addr string) (port.DraftRepository, func()) {
	switch kind {
	case "memory":
		return storage.NewMemoryAdapter(time.Hour), func() {}
	case "miniredis":
		mr, err := miniredis.Run()
		if err != nil {
			log.Fatalf("failed to start miniredis: %v", err)
		}
		addr = mr.Addr()
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		return storage.NewRedisAdapter(rdb, time.Hour), func() {
			rdb.Close()
			mr.Close()
		}
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: addr, PoolSize: 200})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		return storage.NewRedisAdapter(rdb, time.Hour), func() { rdb.Close() }
	}
	log.Fatalf("unknown store %q", kind)
	return nil, nil
}

func fill(ctx context.Context, svc *service.CheckoutService, id string) {
	fields := []struct {
		name  domain.Field
		value string
	}{
		{domain.FieldSize, "M"},
		{domain.FieldPaymentMethod, "Cash On Delivery"},
		{domain.FieldPhone, "0612345678"},
		{domain.FieldAgreedToAdvance, "true"},
		{domain.FieldName, "Stress Tester"},
		{domain.FieldEmail, "stress@example.com"},
		{domain.FieldYear, "INE1"},
		{domain.FieldMajor, "ASEDS"},
	}
	for _, f := range fields {
		if _, err := svc.SetField(ctx, id, f.name, f.value); err != nil {
			log.Fatalf("failed to set %s on %s: %v", f.name, id, err)
		}
	}
}

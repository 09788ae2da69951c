package credentials

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configuredTenant(id string, env domain.Environment) *domain.Tenant {
	return &domain.Tenant{
		ID: id,
		Payment: domain.PaymentConfig{
			Environment:        env,
			TestSecretKey:      "sk_test_1",
			TestPublishableKey: "pk_test_1",
			LiveSecretKey:      "sk_live_1",
			LivePublishableKey: "pk_live_1",
			TestWebhookSecret:  "whsec_test",
			LiveWebhookSecret:  "whsec_live",
			IsConfigured:       true,
		},
	}
}

func newResolver(store TenantStore) *Resolver {
	return NewResolver(store, NewMemoryCache(time.Minute), logger.Nop())
}

func TestResolve_TestEnvironment(t *testing.T) {
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{"t1": configuredTenant("t1", domain.EnvironmentTest)}}

	creds, ok := newResolver(store).Resolve(context.Background(), "t1")
	require.True(t, ok)
	assert.Equal(t, domain.Credentials{
		SecretKey:      "sk_test_1",
		PublishableKey: "pk_test_1",
		WebhookSecret:  "whsec_test",
		IsTestMode:     true,
	}, creds)
}

func TestResolve_LiveEnvironment(t *testing.T) {
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{"t1": configuredTenant("t1", domain.EnvironmentLive)}}

	creds, ok := newResolver(store).Resolve(context.Background(), "t1")
	require.True(t, ok)
	assert.Equal(t, "sk_live_1", creds.SecretKey)
	assert.Equal(t, "whsec_live", creds.WebhookSecret)
	assert.False(t, creds.IsTestMode)
}

func TestResolve_LegacyWebhookSecretFallback(t *testing.T) {
	tenant := configuredTenant("t1", domain.EnvironmentLive)
	tenant.Payment.LiveWebhookSecret = ""
	tenant.Payment.WebhookSecret = "whsec_legacy"
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{"t1": tenant}}

	creds, ok := newResolver(store).Resolve(context.Background(), "t1")
	require.True(t, ok)
	assert.Equal(t, "whsec_legacy", creds.WebhookSecret)
}

func TestResolve_NotConfigured(t *testing.T) {
	tenant := configuredTenant("t1", domain.EnvironmentTest)
	tenant.Payment.IsConfigured = false
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{"t1": tenant}}

	creds, ok := newResolver(store).Resolve(context.Background(), "t1")
	assert.False(t, ok)
	assert.Equal(t, domain.Credentials{}, creds)
}

func TestResolve_MissingSecretKeyIsEmpty(t *testing.T) {
	tenant := configuredTenant("t1", domain.EnvironmentLive)
	tenant.Payment.LiveSecretKey = ""
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{"t1": tenant}}

	_, ok := newResolver(store).Resolve(context.Background(), "t1")
	assert.False(t, ok)
}

func TestResolve_UnknownTenant(t *testing.T) {
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{}}

	_, ok := newResolver(store).Resolve(context.Background(), "missing")
	assert.False(t, ok)
}

func TestResolve_EmptyTenantID(t *testing.T) {
	store := &MockTenantStore{}

	_, ok := newResolver(store).Resolve(context.Background(), "")
	assert.False(t, ok)
	assert.Equal(t, int32(0), store.calls.Load())
}

func TestResolve_StoreFailureCollapsesToEmpty(t *testing.T) {
	store := &MockTenantStore{err: errors.New("connection refused")}

	_, ok := newResolver(store).Resolve(context.Background(), "t1")
	assert.False(t, ok)
}

func TestResolve_CacheFailuresFallThroughToStore(t *testing.T) {
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{"t1": configuredTenant("t1", domain.EnvironmentTest)}}
	cache := &MockCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	r := NewResolver(store, cache, logger.Nop())

	_, ok := r.Resolve(context.Background(), "t1")
	assert.True(t, ok)
}

func TestResolve_UsesCache(t *testing.T) {
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{"t1": configuredTenant("t1", domain.EnvironmentTest)}}
	r := newResolver(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, ok := r.Resolve(ctx, "t1")
		require.True(t, ok)
	}
	assert.Equal(t, int32(1), store.calls.Load())
}

func TestInvalidate_ForcesReload(t *testing.T) {
	tenant := configuredTenant("t1", domain.EnvironmentTest)
	store := &MockTenantStore{tenants: map[string]*domain.Tenant{"t1": tenant}}
	r := newResolver(store)
	ctx := context.Background()

	_, ok := r.Resolve(ctx, "t1")
	require.True(t, ok)

	tenant.Payment.Environment = domain.EnvironmentLive
	require.NoError(t, r.Invalidate(ctx, "t1"))

	creds, ok := r.Resolve(ctx, "t1")
	require.True(t, ok)
	assert.Equal(t, "sk_live_1", creds.SecretKey)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestResolve_ConcurrentMissesShareOneLookup(t *testing.T) {
	store := &MockTenantStore{
		tenants: map[string]*domain.Tenant{"t1": configuredTenant("t1", domain.EnvironmentTest)},
		block:   make(chan struct{}),
	}
	r := newResolver(store)

	const n = 10
	var started, done sync.WaitGroup
	started.Add(n)
	done.Add(n)
	results := make([]bool, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			_, results[i] = r.Resolve(context.Background(), "t1")
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(store.block)
	done.Wait()

	assert.Equal(t, int32(1), store.calls.Load())
	for _, ok := range results {
		assert.True(t, ok)
	}
}

func TestResolve_CancelledLeaderDoesNotFailWaiters(t *testing.T) {
	store := &MockTenantStore{
		tenants: map[string]*domain.Tenant{"t1": configuredTenant("t1", domain.EnvironmentTest)},
		block:   make(chan struct{}),
	}
	r := newResolver(store)
	ctx, cancel := context.WithCancel(context.Background())

	var done sync.WaitGroup
	done.Add(2)
	var leaderOK, waiterOK bool
	go func() {
		defer done.Done()
		_, leaderOK = r.Resolve(ctx, "t1")
	}()
	require.Eventually(t, func() bool { return store.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	go func() {
		defer done.Done()
		_, waiterOK = r.Resolve(context.Background(), "t1")
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(store.block)
	done.Wait()

	assert.True(t, leaderOK)
	assert.True(t, waiterOK)
	assert.Equal(t, int32(1), store.calls.Load())
}

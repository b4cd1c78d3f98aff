package rate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/domain"
)

type mockRepo struct {
	regimes   map[time.Time]Regime
	nextID    int64
	listCalls int
	listErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{regimes: make(map[time.Time]Regime)}
}

func (m *mockRepo) Upsert(_ context.Context, date time.Time, payload json.RawMessage) (Regime, error) {
	rates, err := DecodePayload(payload)
	if err != nil {
		return Regime{}, err
	}
	day := Day(date)
	reg, ok := m.regimes[day]
	if !ok {
		m.nextID++
		reg.ID = m.nextID
	}
	reg.EffectiveDate = day
	reg.Base = domain.BaseCurrency
	reg.Rates = rates
	reg.UpdatedAt = time.Now()
	m.regimes[day] = reg
	return reg, nil
}

func (m *mockRepo) List(_ context.Context) ([]Regime, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Regime, 0, len(m.regimes))
	for _, reg := range m.regimes {
		out = append(out, reg)
	}
	return out, nil
}

// blockingRepo holds its first List open until release is closed, returning
// the regimes it saw before blocking.
type blockingRepo struct {
	*mockRepo
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingRepo) List(ctx context.Context) ([]Regime, error) {
	first := false
	b.once.Do(func() { first = true })
	if !first {
		return b.mockRepo.List(ctx)
	}
	regimes, err := b.mockRepo.List(ctx)
	close(b.started)
	<-b.release
	return regimes, err
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func usd(v string) domain.RateMap {
	return domain.RateMap{"USD": decimal.RequireFromString(v)}
}

func TestRateAsOfPicksEffectiveRegime(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(newMockRepo())

	if _, err := h.Set(ctx, day(10), usd("0.2")); err != nil {
		t.Fatalf("Set day 10: %v", err)
	}
	if _, err := h.Set(ctx, day(1), usd("0.1")); err != nil {
		t.Fatalf("Set day 1: %v", err)
	}

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"between regimes", day(5), "0.1"},
		{"after last regime", day(15), "0.2"},
		{"on effective day", day(10), "0.2"},
		{"later same day", day(10).Add(13 * time.Hour), "0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates, err := h.RateAsOf(ctx, tt.at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !rates["USD"].Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("USD = %s, want %s", rates["USD"], tt.want)
			}
		})
	}
}

func TestRateAsOfBeforeAllRegimesUsesBootstrap(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(newMockRepo())
	if _, err := h.Set(ctx, day(10), usd("0.2")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rates, err := h.RateAsOf(ctx, day(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rates["USD"].Equal(Bootstrap.Rates["USD"]) {
		t.Errorf("USD = %s, want bootstrap %s", rates["USD"], Bootstrap.Rates["USD"])
	}
}

func TestRateAsOfEmptyStore(t *testing.T) {
	h := NewHistory(newMockRepo())
	rates, err := h.RateAsOf(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rates) != len(Bootstrap.Rates) {
		t.Errorf("got %d rates, want bootstrap (%d)", len(rates), len(Bootstrap.Rates))
	}
}

func TestRateAsOfStorageErrorFallsBackToBootstrap(t *testing.T) {
	repo := newMockRepo()
	repo.listErr = errors.New("db down")
	h := NewHistory(repo)

	rates, err := h.RateAsOf(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected storage error to be reported")
	}
	if !rates.Has("USD") {
		t.Error("expected bootstrap rates alongside the error")
	}
}

func TestSetSameDateReplacesRegime(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	h := NewHistory(repo)

	first, err := h.Set(ctx, day(1), usd("0.1"))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	second, err := h.Set(ctx, day(1).Add(5*time.Hour), usd("0.3"))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("second Set created regime %d, want update of %d", second.ID, first.ID)
	}
	regimes, err := h.Regimes(ctx)
	if err != nil {
		t.Fatalf("Regimes: %v", err)
	}
	if len(regimes) != 1 {
		t.Fatalf("got %d regimes, want 1", len(regimes))
	}
	if !regimes[0].Rates["USD"].Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("USD = %s, want 0.3", regimes[0].Rates["USD"])
	}
}

func TestCacheReloadsOnlyAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	h := NewHistory(repo)

	for range 3 {
		if _, err := h.Latest(ctx); err != nil {
			t.Fatalf("Latest: %v", err)
		}
	}
	if repo.listCalls != 1 {
		t.Errorf("List called %d times, want 1", repo.listCalls)
	}

	if _, err := h.Set(ctx, day(1), usd("0.1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := h.Latest(ctx); err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("List called %d times after Set, want 2", repo.listCalls)
	}
}

func TestInvalidateDuringLoadDiscardsStaleRegimes(t *testing.T) {
	ctx := context.Background()
	repo := &blockingRepo{
		mockRepo: newMockRepo(),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	h := NewHistory(repo)

	type result struct {
		rates domain.RateMap
		err   error
	}
	done := make(chan result, 1)
	go func() {
		rates, err := h.RateAsOf(ctx, day(15))
		done <- result{rates, err}
	}()

	<-repo.started
	if _, err := h.Set(ctx, day(1), usd("0.2")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	close(repo.release)

	res := <-done
	if res.err != nil {
		t.Fatalf("RateAsOf: %v", res.err)
	}
	want := decimal.RequireFromString("0.2")
	if !res.rates["USD"].Equal(want) {
		t.Errorf("in-flight load USD = %s, want %s", res.rates["USD"], want)
	}

	got, err := h.RateAsOf(ctx, day(15))
	if err != nil {
		t.Fatalf("RateAsOf: %v", err)
	}
	if !got["USD"].Equal(want) {
		t.Errorf("cached USD = %s, want %s", got["USD"], want)
	}
	if repo.listCalls != 2 {
		t.Errorf("List called %d times, want 2", repo.listCalls)
	}
}

func TestSetRejectsEmptyRates(t *testing.T) {
	h := NewHistory(newMockRepo())
	_, err := h.Set(context.Background(), day(1), domain.RateMap{"USD": decimal.Zero})
	if !errors.Is(err, ErrEmptyRates) {
		t.Errorf("err = %v, want ErrEmptyRates", err)
	}
}

func TestOnDate(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(newMockRepo())
	if _, err := h.Set(ctx, day(4), usd("0.1")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := h.OnDate(ctx, day(4)); err != nil {
		t.Errorf("OnDate(day 4): %v", err)
	}
	if _, err := h.OnDate(ctx, day(5)); !errors.Is(err, ErrNotFound) {
		t.Errorf("OnDate(day 5) err = %v, want ErrNotFound", err)
	}
}

func TestInvert(t *testing.T) {
	got := Invert(map[string]decimal.Decimal{
		"usd": decimal.RequireFromString("8"),
		"BAD": decimal.Zero,
	})
	if !got["USD"].Equal(decimal.RequireFromString("0.125")) {
		t.Errorf("USD = %s, want 0.125", got["USD"])
	}
	if _, ok := got["BAD"]; ok {
		t.Error("zero input should be dropped")
	}
}

func TestPayloadRoundTripKeepsBase(t *testing.T) {
	data, err := EncodePayload(usd("0.1368"))
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if p.Base != domain.BaseCurrency {
		t.Errorf("base = %q, want %q", p.Base, domain.BaseCurrency)
	}

	rates, err := DecodePayload(data)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if !rates["USD"].Equal(decimal.RequireFromString("0.1368")) {
		t.Errorf("USD = %s, want 0.1368", rates["USD"])
	}
	if !rates[domain.BaseCurrency].Equal(decimal.NewFromInt(1)) {
		t.Errorf("base rate = %s, want 1", rates[domain.BaseCurrency])
	}
}

func TestPayloadStoresFloatPrecision(t *testing.T) {
	precise := decimal.RequireFromString("0.123456789012345678901234")
	data, err := EncodePayload(domain.RateMap{"USD": precise})
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	rates, err := DecodePayload(data)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}

	f, _ := precise.Float64()
	if !rates["USD"].Equal(decimal.NewFromFloat(f)) {
		t.Errorf("USD = %s, want float-rounded %s", rates["USD"], decimal.NewFromFloat(f))
	}
	if rates["USD"].Equal(precise) {
		t.Error("expected rate beyond float64 precision to be rounded")
	}
	if diff := rates["USD"].Sub(precise).Abs(); diff.GreaterThan(decimal.New(1, -15)) {
		t.Errorf("rounding error %s too large", diff)
	}
}

func TestDecodePayloadMalformed(t *testing.T) {
	if _, err := DecodePayload([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

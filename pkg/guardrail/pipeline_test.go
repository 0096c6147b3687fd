package guardrail_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(name string, v guardrail.Verdict, err error) guardrail.Filter {
	return guardrail.FilterFunc{
		FilterName: name,
		Fn: func(context.Context, string, domain.Record) (guardrail.Verdict, error) {
			return v, err
		},
	}
}

func TestPipeline_OrderAndOutcomes(t *testing.T) {
	clock := time.UnixMilli(1700000000000)
	p := guardrail.NewPipeline(guardrail.WithClock(func() time.Time { return clock }))

	outcomes := p.Run(context.Background(),
		[]string{guardrail.RelevanceName, guardrail.JailbreakName},
		"drop table users;", domain.NewRecord())

	require.Len(t, outcomes, 2)
	assert.Equal(t, guardrail.RelevanceName, outcomes[0].Name)
	assert.Equal(t, guardrail.JailbreakName, outcomes[1].Name)
	assert.False(t, outcomes[1].Passed)
	assert.Equal(t, "drop table users;", outcomes[1].Input)
	assert.Equal(t, int64(1700000000000), outcomes[1].Timestamp)
	assert.NotEqual(t, outcomes[0].ID, outcomes[1].ID)
}

func TestPipeline_FailuresAreNeverPassed(t *testing.T) {
	p := guardrail.NewPipeline(
		guardrail.WithTimeout(50*time.Millisecond),
		guardrail.WithFilter(fixed("erroring", guardrail.Verdict{}, errors.New("classifier unreachable"))),
		guardrail.WithFilter(guardrail.FilterFunc{FilterName: "panicking", Fn: func(context.Context, string, domain.Record) (guardrail.Verdict, error) {
			panic("boom")
		}}),
		guardrail.WithFilter(guardrail.FilterFunc{FilterName: "slow", Fn: func(ctx context.Context, _ string, _ domain.Record) (guardrail.Verdict, error) {
			<-ctx.Done()
			return guardrail.Verdict{}, ctx.Err()
		}}),
	)

	outcomes := p.Run(context.Background(), []string{"erroring", "panicking", "slow", "missing"}, "hi", nil)
	require.Len(t, outcomes, 4)
	for _, o := range outcomes {
		assert.False(t, o.Passed, o.Name)
		assert.NotEmpty(t, o.Rationale, o.Name)
	}
	assert.Contains(t, outcomes[0].Rationale, "classifier unreachable")
	assert.Contains(t, outcomes[3].Rationale, "not available")
}

func TestPipeline_RunsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := func(name string) guardrail.Filter {
		return guardrail.FilterFunc{FilterName: name, Fn: func(ctx context.Context, _ string, _ domain.Record) (guardrail.Verdict, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			inFlight.Add(-1)
			return guardrail.Pass(""), nil
		}}
	}
	p := guardrail.NewPipeline(guardrail.WithFilter(slow("a")), guardrail.WithFilter(slow("b")))

	outcomes := p.Run(context.Background(), []string{"a", "b"}, "hi", nil)
	assert.True(t, domain.AllPassed(outcomes))
	assert.Equal(t, int32(2), peak.Load())
}

func TestPipeline_FiltersSeeACopy(t *testing.T) {
	mutator := guardrail.FilterFunc{FilterName: "mutator", Fn: func(_ context.Context, _ string, rec domain.Record) (guardrail.Verdict, error) {
		rec.Set(domain.FieldSeatNumber, "1A")
		return guardrail.Pass(""), nil
	}}
	p := guardrail.NewPipeline(guardrail.WithFilter(mutator))
	rec := domain.NewRecord()

	p.Run(context.Background(), []string{"mutator"}, "hi", rec)
	assert.False(t, rec.Has(domain.FieldSeatNumber))
}

func TestPipeline_NoFilters(t *testing.T) {
	assert.Empty(t, guardrail.NewPipeline().Run(context.Background(), nil, "anything", nil))
}

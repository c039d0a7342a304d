package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/provider"
)

func TestServiceLatestBar(t *testing.T) {
	latest := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	sync := newTestSynchronizer(t, &fakeProvider{name: "fake"})
	sync.track("AAPL")
	sync.series["fake"] = map[string]provider.BarSeries{
		"AAPL": seriesAround(latest, 5*time.Minute, 3),
	}

	svc := NewService(sync)

	bar, err := svc.LatestBar("fake", "AAPL")
	require.NoError(t, err)
	assert.True(t, bar.Timestamp.Equal(latest))

	price, err := svc.LatestPrice("fake", "AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(bar.Close))
}

func TestServiceNotFound(t *testing.T) {
	svc := NewService(newTestSynchronizer(t, &fakeProvider{name: "fake"}))

	_, err := svc.LatestBar("fake", "AAPL")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RealTimePrice(context.Background(), "ghost", "AAPL")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceBetween(t *testing.T) {
	latest := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	sync := newTestSynchronizer(t, &fakeProvider{name: "fake"})
	sync.track("AAPL")
	sync.series["fake"] = map[string]provider.BarSeries{
		"AAPL": seriesAround(latest, 5*time.Minute, 4),
	}
	svc := NewService(sync)

	window, err := svc.Between("fake", "AAPL", latest.Add(-10*time.Minute), latest.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, window.Len())
}

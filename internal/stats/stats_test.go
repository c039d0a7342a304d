package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/strategy"
)

func TestGathererCounts(t *testing.T) {
	g := NewGatherer()

	g.RecordSignal("AAPL", strategy.Buy)
	g.RecordSignal("AAPL", strategy.Buy)
	g.RecordSignal("AAPL", strategy.Hold)
	g.RecordStopLoss("MSFT")
	g.RecordTakeProfit("AAPL")
	g.RecordOrder("AAPL")

	rows := g.Snapshot()
	require.Len(t, rows, 5)

	byKey := make(map[string]int)
	for _, row := range rows {
		byKey[row.Ticker+"/"+row.Event] = row.Count
	}
	assert.Equal(t, 2, byKey["AAPL/signal:BUY"])
	assert.Equal(t, 1, byKey["AAPL/signal:HOLD"])
	assert.Equal(t, 1, byKey["AAPL/take_profit"])
	assert.Equal(t, 1, byKey["AAPL/order"])
	assert.Equal(t, 1, byKey["MSFT/stop_loss"])
}

func TestSnapshotIsSorted(t *testing.T) {
	g := NewGatherer()
	g.RecordStopLoss("MSFT")
	g.RecordStopLoss("AAPL")
	g.RecordSignal("AAPL", strategy.Buy)

	rows := g.Snapshot()
	require.Len(t, rows, 3)
	assert.Equal(t, "AAPL", rows[0].Ticker)
	assert.Equal(t, "MSFT", rows[2].Ticker)
	assert.True(t, rows[0].Event < rows[1].Event)
}

func TestWriteCSV(t *testing.T) {
	g := NewGatherer()
	g.RecordSignal("AAPL", strategy.Sell)

	var buf bytes.Buffer
	require.NoError(t, g.WriteCSV(&buf))
	assert.Equal(t, "ticker,event,count\nAAPL,signal:SELL,1\n", buf.String())
}

func TestRenderEmpty(t *testing.T) {
	g := NewGatherer()
	out := g.Render()
	assert.Contains(t, out, "no events recorded")
}

func TestRenderTable(t *testing.T) {
	g := NewGatherer()
	g.RecordSignal("AAPL", strategy.Buy)

	out := g.Render()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "signal:BUY")
}

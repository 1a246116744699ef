package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

// Measurement names.
const (
	MeasurementReconcile = "hologram_reconcile"
	MeasurementDispatch  = "hologram_dispatch"
	MeasurementTemporary = "hologram_temporary"
)

var _ hologram.Metrics = (*Client)(nil)

// ObserveTick records one reconciliation pass.
func (c *Client) ObserveTick(stats hologram.TickStats) {
	c.WritePoint(MeasurementReconcile, nil, map[string]any{
		"tick":        int64(stats.Tick), // #nosec G115 -- tick counter will not reach 2^63
		"displays":    int64(stats.Displays),
		"observers":   int64(stats.Observers),
		"evaluated":   int64(stats.Evaluated),
		"shown":       int64(stats.Shown),
		"hidden":      int64(stats.Hidden),
		"failed":      int64(stats.Failed),
		"duration_ms": float64(stats.Duration) / float64(time.Millisecond),
	})
}

// ObserveDispatch records one interaction event. Debounced events are
// tagged rather than dropped so click rates stay visible.
func (c *Client) ObserveDispatch(res hologram.DispatchResult) {
	tags := map[string]string{
		"click":   string(res.Kind),
		"outcome": dispatchOutcome(res),
	}
	if res.Display != "" {
		tags["display"] = res.Display
	}
	c.WritePoint(MeasurementDispatch, tags, map[string]any{
		"handled":        res.Handled,
		"claim_failures": int64(res.Failed),
	})
}

// ObserveTemporary records the number of live temporary lines.
func (c *Client) ObserveTemporary(active int) {
	c.WritePoint(MeasurementTemporary, nil, map[string]any{"active": int64(active)})
}

// WritePoint writes a point stamped now, adding the site tag. It is a no-op
// when disconnected.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, c.now())
}

// WritePointWithTime is WritePoint with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	all := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		all[k] = v
	}
	if c.site != "" {
		all["site"] = c.site
	}

	c.writer.WritePoint(write.NewPoint(measurement, all, fields, ts))
}

func dispatchOutcome(res hologram.DispatchResult) string {
	switch {
	case res.Debounced:
		return "debounced"
	case res.Handled:
		return "handled"
	default:
		return "unclaimed"
	}
}

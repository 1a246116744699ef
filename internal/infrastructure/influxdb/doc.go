// Package influxdb records holocore telemetry in InfluxDB v2.
//
// Client implements hologram.Metrics, writing one point per reconciliation
// pass (hologram_reconcile), per interaction event (hologram_dispatch) and
// per change in live temporary lines (hologram_temporary). Writes are
// batched and non-blocking so the primary loop never waits on the network.
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { logger.Warn("influx write failed", "error", err) })
package influxdb

// Package mqtt connects holocore to the broker that links it with render
// clients.
//
// Outbound, the presentation backend publishes show and hide instructions
// per observer. Inbound, clients report presence and clicks:
//
//	holocore/render/{observer}/show      display page for one observer
//	holocore/render/{observer}/hide      remove a display for one observer
//	holocore/render/{observer}/action    forwarded click action
//	holocore/render/all/hide             remove a display for everyone
//	holocore/observer/{id}/presence      online/offline, position, permissions
//	holocore/observer/{id}/interact      click on a line entity
//	holocore/system/status               retained online/offline (LWT)
//
// The client reconnects automatically and restores its subscriptions. A
// retained offline status is left by the broker if holocore dies without
// closing the connection.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package mqtt

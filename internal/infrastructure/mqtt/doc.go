// Package mqtt provides MQTT client connectivity for the haptics daemon.
//
// The haptic bridge receives actuation commands and publishes
// acknowledgements and health over the Gray Logic bus:
//
//	Gray Logic Core ↔ MQTT Broker ↔ haptic bridge (this daemon)
//
// The client adds to paho.mqtt.golang:
//   - A retained online/offline status on graylogic/system/status/{client_id}
//   - A Last Will so an unclean disconnect still reports "offline"
//   - Subscription restore after auto-reconnect
//   - Handler panic recovery
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.AllBridgeCommands(mqtt.ProtocolHaptic)
//	err = client.Subscribe(topic, 1, func(topic string, payload []byte) error {
//	    return nil
//	})
package mqtt

// Package client provides a Go SDK for the pyqs admin API.
//
// It covers worker introspection (via the registry heartbeat),
// internal queue depth, the poison-message log, and a WebSocket
// client for the worker lifecycle event stream.
//
// # Basic Usage
//
//	c, err := client.New("http://localhost:8081")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	workers, err := c.ListWorkers(ctx)
//
// # WebSocket Events
//
//	err := c.ConnectWebSocket(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.CloseWebSocket()
//
//	for event := range c.Events() {
//	    fmt.Printf("Event: %s\n", event.Type)
//	}
//
// # Configuration
//
// The client supports functional options for configuration:
//
//	c, err := client.New("http://localhost:8081",
//	    client.WithAPIKey("your-api-key"),
//	    client.WithTimeout(30 * time.Second),
//	)
package client

// Package interpreter subscribes to the interpreter API's websocket
// feed and hands each decoded reading to the caller. Retry policy
// lives here, outside the parsing core: a dropped connection is
// re-dialed with exponential backoff.
package interpreter

import (
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meterhub/p1meter/pkg/types"
)

const (
	maxRetries     = 10
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 60 * time.Second
	readTimeout    = 10 * time.Second
	pingInterval   = 30 * time.Second
)

// StartListener blocks, feeding readings to funcToCall until the
// process is interrupted or the retry budget runs out.
func StartListener(host string, tls bool, funcToCall func(reading *types.MeterReading)) {
	scheme := "ws"
	if tls {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: host, Path: "/ws"}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	retryCount := 0
	for {
		select {
		case <-interrupt:
			log.Println("Interrupt received, shutting down...")
			return
		default:
		}

		if retryCount > 0 {
			retryDelay := time.Duration(1<<retryCount) * baseRetryDelay
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
			log.Printf("Retrying connection in %v... (attempt %d/%d)", retryDelay, retryCount+1, maxRetries)
			select {
			case <-time.After(retryDelay):
			case <-interrupt:
				log.Println("Interrupt received during retry wait, shutting down...")
				return
			}
		}

		log.Printf("Connecting to %s", u.String())
		dialer := websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.Dial(u.String(), nil)
		if err != nil {
			log.Printf("Connection failed: %v", err)
			retryCount++
			if retryCount >= maxRetries {
				log.Printf("Max retries (%d) reached. Giving up.", maxRetries)
				return
			}
			continue
		}

		log.Println("Connected! Accepting meter readings.")
		retryCount = 0

		if clean := handleConnection(c, interrupt, funcToCall); clean {
			c.Close()
			return
		}
		c.Close()
		log.Println("Connection lost, will retry...")
	}
}

// handleConnection pumps readings until the connection breaks or an
// interrupt arrives. Returns true on a clean, requested shutdown.
func handleConnection(
	c *websocket.Conn,
	interrupt chan os.Signal,
	funcToCall func(reading *types.MeterReading),
) bool {
	done := make(chan struct{})

	// Readings arrive every second; a quiet connection is a dead one.
	c.SetReadDeadline(time.Now().Add(readTimeout))

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				} else {
					log.Printf("Connection closed: %v", err)
				}
				return
			}
			c.SetReadDeadline(time.Now().Add(readTimeout))

			if messageType != websocket.TextMessage {
				log.Printf("Received unexpected message type: %d", messageType)
				continue
			}
			if reading := types.MeterReadingFromJsonBytes(message); reading != nil {
				funcToCall(reading)
			} else {
				log.Printf("Failed to parse meter reading: %s", string(message))
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
					log.Printf("Failed to send ping: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	select {
	case <-done:
		return false
	case <-interrupt:
		log.Println("Interrupt received, closing connection...")
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("Error sending close message:", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return true
	}
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/thedevsaddam/gojsonq"

	"github.com/avegrv/mattermost-redux/model"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 90 * time.Second
	socketPingPeriod = 30 * time.Second

	// eventBufferSize bounds the delivery channel; the reader blocks once
	// the consumer falls this far behind rather than dropping events.
	eventBufferSize = 256
)

// Socket is the websocket event source. It authenticates with the session
// token, then delivers every decoded event envelope on Events until the
// connection drops or Close is called.
type Socket struct {
	conn   *websocket.Conn
	events chan *model.WebsocketEvent
	done   chan struct{}
}

// Dial connects the websocket endpoint and authenticates. The returned
// socket is already reading; consume Events promptly.
func Dial(ctx context.Context, wsURL, token string) (*Socket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial websocket %s", wsURL)
	}

	auth := map[string]interface{}{
		"seq":    1,
		"action": "authentication_challenge",
		"data":   map[string]string{"token": token},
	}
	conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	if err = conn.WriteJSON(auth); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "websocket authentication failed")
	}

	s := &Socket{
		conn:   conn,
		events: make(chan *model.WebsocketEvent, eventBufferSize),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

// Events is the stream of inbound event envelopes. The channel closes when
// the connection ends.
func (s *Socket) Events() <-chan *model.WebsocketEvent {
	return s.events
}

// Close tears the connection down. Pending reads drain and the event
// channel closes.
func (s *Socket) Close() error {
	close(s.done)
	return s.conn.Close()
}

func (s *Socket) readLoop() {
	defer close(s.events)

	s.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					jww.ERROR.Printf("[WS] Read failed: %+v", err)
				}
			}
			return
		}

		// Responses to our own frames (acks, hello) have no event name;
		// peek before paying for a full envelope decode.
		name := gojsonq.New().FromString(string(raw)).Find("event")
		eventName, ok := name.(string)
		if !ok || eventName == "" {
			continue
		}

		var event model.WebsocketEvent
		if err = json.Unmarshal(raw, &event); err != nil {
			jww.ERROR.Printf(
				"[WS] Failed to unmarshal %q envelope: %+v", eventName, err)
			continue
		}
		jww.TRACE.Printf("[WS] Received %q (seq %d)", event.Event, event.Seq)
		s.events <- &event
	}
}

func (s *Socket) pingLoop() {
	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := s.conn.WriteMessage(
				websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

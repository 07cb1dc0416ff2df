// Package websocket provides live updates for warehouse sessions.
//
// The package uses a hub-and-spoke model: a central Hub owns every client
// connection and all bookkeeping runs on the Hub's Run goroutine. Each client
// has a read pump that only watches for disconnects and a write pump that
// forwards queued frames and keeps the connection alive with pings.
//
// Message Protocol:
//
// Frames are JSON Message values. Every message carries a UUIDv7 id, the
// session id, a timestamp and an event name such as "state_update", "push"
// or "bulk_push", plus either a game_state snapshot or event data.
//
// Clients attach to a session with the session query parameter
// (/ws?session=abc1) and only receive that session's messages.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//	hub.BroadcastToSession(sessionID, state)
package websocket

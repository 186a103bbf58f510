package handlers

import (
	"encoding/json"
	"fleet-route-optimizer/internal/api/dto"
	"fleet-route-optimizer/internal/domain"
	"fleet-route-optimizer/internal/platform/obs"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// OptimizeStream serves one optimization over a websocket: the client sends an
// input document, the server acknowledges it and later sends the result or an
// error, then closes the connection.
func (h *OptimizeHandler) OptimizeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return
	}
	defer func() { _ = conn.Close() }()

	ctx := r.Context()
	reqID := obs.RequestID(ctx)

	conn.SetReadLimit(maxJSONBody)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	doc, err := readDocument(conn)
	if err != nil {
		_ = conn.WriteJSON(dto.StreamMessage{Type: dto.StreamError, Status: http.StatusBadRequest, Error: err.Error()})
		closeNormal(conn)
		return
	}

	if err := conn.WriteJSON(dto.StreamMessage{Type: dto.StreamAccepted}); err != nil {
		log.Printf("req_id=%s op=optimize_ws err=%v", reqID, err)
		return
	}

	res, err := h.Optimizer.Optimize(ctx, doc)
	if err != nil {
		status, body := errorStatus(err)
		log.Printf("req_id=%s op=optimize_ws status=%d err=%v", reqID, status, err)
		_ = conn.WriteJSON(dto.StreamMessage{Type: dto.StreamError, Status: status, Error: body.Error, Details: body.Details})
		closeNormal(conn)
		return
	}

	if err := conn.WriteJSON(dto.StreamMessage{Type: dto.StreamResult, Payload: res}); err != nil {
		log.Printf("req_id=%s op=optimize_ws err=%v", reqID, err)
		return
	}
	closeNormal(conn)
}

func readDocument(conn *websocket.Conn) (domain.InputDocument, error) {
	var doc domain.InputDocument

	_, rd, err := conn.NextReader()
	if err != nil {
		return doc, fmt.Errorf("read message: %w", err)
	}
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return doc, fmt.Errorf("invalid json message: %w", err)
	}
	return doc, nil
}

func closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub é o gerenciador explícito de assinaturas de apostas por conexão.
// Subscribe/Unsubscribe são idempotentes; o estado vive todo dentro do Hub,
// nunca em handles soltos fora do ciclo de vida do serviço.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// betID -> set of connections
	subs map[string]map[*websocket.Conn]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Subscribe inscreve a conexão nas atualizações de uma aposta (idempotente)
func (h *Hub) Subscribe(betID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[betID]; !ok {
		h.subs[betID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[betID][conn] = struct{}{}
}

// Unsubscribe remove a inscrição; chamada repetida é no-op
func (h *Hub) Unsubscribe(betID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[betID]; ok {
		delete(m, conn)
		if len(m) == 0 {
			delete(h.subs, betID)
		}
	}
}

// Subscribers conta as conexões inscritas em uma aposta
func (h *Hub) Subscribers(betID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[betID])
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe em apostas e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.Subscribe(msg.BetID, conn)
		case "unsubscribe":
			h.Unsubscribe(msg.BetID, conn)
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	h.drop(conn)
}

// drop remove a conexão de todas as assinaturas ao desconectar
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for betID, set := range h.subs {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subs, betID)
		}
	}
}

// Broadcast envia uma atualização para todos os clientes inscritos na aposta
func (h *Hub) Broadcast(update BetUpdate) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[update.BetID]))
	for c := range h.subs[update.BetID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(update)
	for _, c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// BetID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type  string `json:"type"`   // subscribe | unsubscribe | ping
	BetID string `json:"bet_id"` // requerido em subscribe/unsubscribe
}

// BetUpdate representa uma atualização de aposta enviada para clientes WebSocket
type BetUpdate struct {
	BetID   string      `json:"bet_id"`
	Payload interface{} `json:"payload"`
}

package ws

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestHubSubscriptions(t *testing.T) {
	t.Run("subscribe e idempotente por conexao", func(t *testing.T) {
		h := NewHub(nil)
		conn := &websocket.Conn{}

		h.Subscribe("b1", conn)
		h.Subscribe("b1", conn)
		h.Subscribe("b1", conn)

		assert.Equal(t, 1, h.Subscribers("b1"))
	})

	t.Run("unsubscribe repetido e no-op", func(t *testing.T) {
		h := NewHub(nil)
		conn := &websocket.Conn{}

		h.Subscribe("b1", conn)
		h.Unsubscribe("b1", conn)
		h.Unsubscribe("b1", conn)

		assert.Zero(t, h.Subscribers("b1"))
	})

	t.Run("unsubscribe de aposta desconhecida nao quebra", func(t *testing.T) {
		h := NewHub(nil)
		h.Unsubscribe("nunca-vista", &websocket.Conn{})
		assert.Zero(t, h.Subscribers("nunca-vista"))
	})

	t.Run("assinaturas sao independentes por aposta", func(t *testing.T) {
		h := NewHub(nil)
		c1, c2 := &websocket.Conn{}, &websocket.Conn{}

		h.Subscribe("b1", c1)
		h.Subscribe("b1", c2)
		h.Subscribe("b2", c1)

		assert.Equal(t, 2, h.Subscribers("b1"))
		assert.Equal(t, 1, h.Subscribers("b2"))

		h.Unsubscribe("b1", c1)
		assert.Equal(t, 1, h.Subscribers("b1"))
		assert.Equal(t, 1, h.Subscribers("b2"), "b2 nao e afetada")
	})

	t.Run("drop limpa a conexao de todas as apostas", func(t *testing.T) {
		h := NewHub(nil)
		c1, c2 := &websocket.Conn{}, &websocket.Conn{}

		h.Subscribe("b1", c1)
		h.Subscribe("b2", c1)
		h.Subscribe("b1", c2)

		h.drop(c1)

		assert.Equal(t, 1, h.Subscribers("b1"))
		assert.Zero(t, h.Subscribers("b2"))
	})
}

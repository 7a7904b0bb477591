// websocket/types.go
package websocket

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/smartflow-dq/smartflow/utils"
)

// Подписчик живой ленты
type Client struct {
	Socket *websocket.Conn
	Send   chan []byte
}

// Manager ведет реестр подписчиков ленты и рассылает им терминальные
// исходы конвейера. Реестром владеет единственная горутина Run:
// регистрация, отключение и рассылка сериализуются через каналы
type Manager struct {
	Clients    map[*Client]bool
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client

	done        chan struct{}
	clientCount atomic.Int32
	logger      *utils.PipelineLogger
}

// Конфигурация апгрейда соединения
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Дашборд работает на другом порту
	},
}

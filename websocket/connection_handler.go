// websocket/connection_handler.go
package websocket

import (
	"net/http"
)

// HandleFeed обрабатывает подключение подписчика к живой ленте:
// апгрейд до WebSocket, регистрация в менеджере и запуск насосов.
// Лента анонимная и односторонняя, аутентификации не требуется
func (manager *Manager) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		manager.logger.Error("Ошибка при установке WebSocket-соединения: %v", err)
		return
	}

	client := &Client{
		Socket: conn,
		Send:   make(chan []byte, sendBufferSize),
	}

	select {
	case manager.Register <- client:
	case <-manager.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(manager)
}

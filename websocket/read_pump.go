// websocket/read_pump.go
package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// readPump вычитывает входящий поток подписчика. Лента односторонняя:
// клиент ничего не присылает, насос обслуживает pong-кадры и замечает
// разрыв соединения
func (c *Client) readPump(manager *Manager) {
	defer func() {
		select {
		case manager.Unregister <- c:
		case <-manager.done:
		}
		c.Socket.Close()
	}()

	// Устанавливаем параметры подключения
	c.Socket.SetReadLimit(maxMessageSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				manager.logger.Debug("Подписчик ленты отключился с ошибкой: %v", err)
			}
			break
		}
	}
}

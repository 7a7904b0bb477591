// websocket/write_pump.go
package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// writePump отправляет события подписчику и поддерживает соединение
// пинг-кадрами. Завершается при закрытии канала Send или ошибке записи
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрыт менеджером
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Отправляем каждое событие отдельным кадром, без склейки:
			// клиенту не приходится разрезать поток JSON-объектов
			if err := c.Socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Досылаем накопившиеся события
			n := len(c.Send)
			for i := 0; i < n; i++ {
				message = <-c.Send
				if err := c.Socket.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

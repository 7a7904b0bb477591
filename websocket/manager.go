// websocket/manager.go
package websocket

import (
	"context"
	"encoding/json"

	"github.com/smartflow-dq/smartflow/models"
	"github.com/smartflow-dq/smartflow/utils"
)

// Создание нового менеджера ленты
func NewManager(logger *utils.PipelineLogger) *Manager {
	return &Manager{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run запускает цикл менеджера. При отмене контекста все подписчики
// отключаются и менеджер завершает работу
func (manager *Manager) Run(ctx context.Context) {
	defer close(manager.done)

	for {
		select {
		case client := <-manager.Register:
			manager.Clients[client] = true
			manager.clientCount.Store(int32(len(manager.Clients)))
			manager.logger.Info("👤 Подписчик ленты подключился (всего: %d)", len(manager.Clients))

		case client := <-manager.Unregister:
			if _, ok := manager.Clients[client]; ok {
				delete(manager.Clients, client)
				close(client.Send)
				manager.clientCount.Store(int32(len(manager.Clients)))
				manager.logger.Info("👋 Подписчик ленты отключился (всего: %d)", len(manager.Clients))
			}

		case message := <-manager.Broadcast:
			manager.broadcast(message)

		case <-ctx.Done():
			for client := range manager.Clients {
				close(client.Send)
				client.Socket.Close()
				delete(manager.Clients, client)
			}
			manager.clientCount.Store(0)
			manager.logger.Info("Лента событий остановлена")
			return
		}
	}
}

// broadcast отправляет сообщение всем подписчикам. Подписчик с
// переполненной очередью отключается, чтобы не задерживать ленту
func (manager *Manager) broadcast(message []byte) {
	for client := range manager.Clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(manager.Clients, client)
			manager.clientCount.Store(int32(len(manager.Clients)))
			manager.logger.Info("⚠️ Подписчик ленты отключен: очередь переполнена")
		}
	}
}

// BroadcastEvent сериализует событие конвейера и рассылает его
// подписчикам. После остановки менеджера событие молча отбрасывается
func (manager *Manager) BroadcastEvent(event models.FeedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		manager.logger.Error("Ошибка сериализации события ленты: %v", err)
		return
	}

	select {
	case manager.Broadcast <- data:
	case <-manager.done:
	}
}

// ClientCount возвращает текущее число подписчиков ленты
func (manager *Manager) ClientCount() int {
	return int(manager.clientCount.Load())
}

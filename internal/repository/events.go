package repository

import (
	"sync"
)

// changeBufferSize ёмкость канала каждого подписчика
const changeBufferSize = 128

// changeBroadcaster рассылает события об изменении расписания всем
// подписчикам. Отправка не блокирует: подписчику, чей буфер полон,
// событие не доставляется — он прочитает актуальное состояние из базы
// при следующем пробуждении.
type changeBroadcaster struct {
	mu   sync.RWMutex
	subs []chan ChangeEvent
}

func newChangeBroadcaster() *changeBroadcaster {
	return &changeBroadcaster{}
}

// Subscribe создаёт нового подписчика. Отписки нет: подписчики живут
// столько же, сколько и процесс.
func (b *changeBroadcaster) Subscribe() <-chan ChangeEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ChangeEvent, changeBufferSize)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish рассылает событие. Вызывается после фиксации транзакции.
func (b *changeBroadcaster) Publish(event ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

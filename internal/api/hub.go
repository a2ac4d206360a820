package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// chatKey пользователь в конкретном чате
type chatKey struct {
	chatID int64
	userID int64
}

func keyOf(msg *tgbotapi.Message) chatKey {
	return chatKey{chatID: msg.Chat.ID, userID: msg.From.ID}
}

// replyHub передаёт следующее сообщение пользователя тому, кто ждёт ответа на запрос.
type replyHub struct {
	mu      sync.Mutex
	waiters map[chatKey]chan *tgbotapi.Message
}

func newReplyHub() *replyHub {
	return &replyHub{waiters: make(map[chatKey]chan *tgbotapi.Message)}
}

// await ждёт следующее сообщение пользователя в чате. Новый вызов для того же ключа вытесняет прежний.
func (h *replyHub) await(ctx context.Context, key chatKey) (*tgbotapi.Message, error) {
	ch := make(chan *tgbotapi.Message, 1)

	h.mu.Lock()
	h.waiters[key] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if h.waiters[key] == ch {
			delete(h.waiters, key)
		}
		h.mu.Unlock()
	}()

	select {
	case msg := <-ch:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// deliver отдаёт сообщение ожидающему. false, если никто не ждёт.
func (h *replyHub) deliver(msg *tgbotapi.Message) bool {
	key := keyOf(msg)

	h.mu.Lock()
	ch, ok := h.waiters[key]
	if ok {
		delete(h.waiters, key)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	ch <- msg
	return true
}

func (h *replyHub) waiting(key chatKey) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.waiters[key]
	return ok
}

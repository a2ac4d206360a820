package telegram

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	testUserID = int64(7)
	testChatID = int64(70)
)

var testKey = chatKey{chatID: testChatID, userID: testUserID}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 'J', 'F', 'I', 'F', 0xFF, 0xD9}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (m *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if mc, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, mc)
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *fakeMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, mc := range m.sent {
		out = append(out, mc.Text)
	}
	return out
}

func (m *fakeMessenger) hasText(substr string) bool {
	for _, text := range m.texts() {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

type fakeFiles struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeFiles) Download(ctx context.Context, fileID, dst string) error {
	f.mu.Lock()
	f.ids = append(f.ids, fileID)
	f.mu.Unlock()
	return os.WriteFile(dst, jpegBytes, 0o600)
}

func (f *fakeFiles) downloaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func textMsg(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUserID},
		Chat: &tgbotapi.Chat{ID: testChatID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	return msg
}

func photoMsg() *tgbotapi.Message {
	msg := textMsg("")
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
	return msg
}

func locationMsg(lat, lon float64) *tgbotapi.Message {
	msg := textMsg("")
	msg.Location = &tgbotapi.Location{Latitude: lat, Longitude: lon}
	return msg
}

// waitForPrompt ждёт, пока устройство начнёт ждать ответа в чате
func waitForPrompt(hub *replyHub) {
	for !hub.waiting(testKey) {
		time.Sleep(time.Millisecond)
	}
}

// replyWhenWaiting по очереди отвечает на запросы устройства
func replyWhenWaiting(hub *replyHub, msgs ...*tgbotapi.Message) {
	go func() {
		for _, msg := range msgs {
			waitForPrompt(hub)
			hub.deliver(msg)
		}
	}()
}

func countText(m *fakeMessenger, text string) int {
	n := 0
	for _, t := range m.texts() {
		if t == text {
			n++
		}
	}
	return n
}

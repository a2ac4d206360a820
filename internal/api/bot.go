package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "rescue-bot/internal/application"
	"rescue-bot/internal/container"
	"rescue-bot/internal/domain/entity"
)

const (
	msgStart = `🐾 Hi! I help report injured animals.

Send me a photo of the animal and your location, and I will ask the AI vet for an analysis and first-aid steps.

📋 Commands:
/camera: take a photo
/gallery: choose a photo
/analyze: analyze the selected photo
/reset: clear the photo and the report
/help: help`

	msgHelp = `ℹ️ How it works:

1️⃣ Send a photo of the animal (/camera or /gallery)
2️⃣ Send /analyze and share your location when asked
3️⃣ Get the report: animal, injury, severity and first-aid steps

💡 Tips:
• Take the photo in good light
• Keep a safe distance from the animal

📋 Commands:
/revoke: forget the location permission
/cancel: cancel the current prompt`

	msgAskLocationPermission = "📍 Location permission is required to tag the image location. Share your location?"
	msgSendLocation          = "📍 Please share your current location."
	msgPickCamera            = "📷 Take a photo of the animal and send it to me."
	msgPickGallery           = "🖼 Choose a photo of the animal and send it to me."
	msgPhotoAccepted         = "✅ Photo received. Send /analyze to start the analysis."
	msgResolving             = "📍 Getting your location..."
	msgUploading             = "⏳ Analyzing the photo..."
	msgFallbackLocation      = "⚠️ Unable to get current location. Using default coordinates."
	msgPermissionDenied      = "🚫 Permission denied. Location permission is required to tag the image location."
	msgMissingImage          = "📸 Please select a photo first: /camera or /gallery."
	msgInFlight              = "⏳ The analysis is already running, please wait."
	msgReset                 = "🔄 Cleared. Send a new photo when ready."
	msgRevoked               = "🔒 Location permission forgotten. I will ask again next time."
	msgLocationSaved         = "📍 Location saved for the next analysis."
	msgCancelled             = "❌ Cancelled."
	msgNothingToCancel       = "Nothing to cancel."
	msgSendPhoto             = "📸 Please send a photo of the injured animal."
	msgUnknownCommand        = "❓ Unknown command. Use /help."
	msgProcessingError       = "⚠️ Something went wrong. Please try again."
	msgRetryHint             = "Send /analyze to try again or /reset to start over."
)

// session устройство и конвейер одного чата
type session struct {
	device   *chatDevice
	pipeline *app.Pipeline
}

// Bot представляет Telegram-бота
type Bot struct {
	api           messenger
	updates       func() tgbotapi.UpdatesChannel
	stop          func()
	files         fileFetcher
	app           *container.Container
	hub           *replyHub
	promptTimeout time.Duration
	tmpDir        string

	mu       sync.Mutex
	sessions map[chatKey]*session
	wg       sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, promptTimeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	slog.Info("authorized on account", "username", api.Self.UserName)

	tmpDir, err := os.MkdirTemp("", "rescue-bot-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	b := newBot(api, &telegramFiles{api: api, http: resty.New()}, c, promptTimeout, tmpDir)
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	b.stop = api.StopReceivingUpdates
	return b, nil
}

func newBot(api messenger, files fileFetcher, c *container.Container, promptTimeout time.Duration, tmpDir string) *Bot {
	return &Bot{
		api:           api,
		files:         files,
		app:           c,
		hub:           newReplyHub(),
		promptTimeout: promptTimeout,
		tmpDir:        tmpDir,
		sessions:      make(map[chatKey]*session),
	}
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	updates := b.updates()

	defer func() {
		b.wg.Wait()
		os.RemoveAll(b.tmpDir)
	}()

	for {
		select {
		case <-ctx.Done():
			if b.stop != nil {
				b.stop()
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Ответ на запрос устройства (разрешение, фото, геопозиция).
	// Команды, кроме /cancel, идут в обработчик даже во время запроса.
	if (!msg.IsCommand() || isCancel(msg)) && b.hub.deliver(msg) {
		return
	}

	s := b.session(msg.From.ID, msg.Chat.ID)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, s)
		return
	}

	// Фото без запроса считаем выбором из галереи
	if photoFileID(msg) != "" {
		s.device.offerPhoto(msg)
		b.spawn(func() { b.acquire(ctx, msg.Chat.ID, s, entity.SourceGallery) })
		return
	}

	if msg.Location != nil {
		s.device.rememberLocation(msg.Location)
		b.sendMessage(msg.Chat.ID, msgLocationSaved)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, s *session) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		if _, err := b.app.UserService.SetState(ctx, msg.From.ID, chatID, entity.StateMainMenu); err != nil {
			slog.Error("set user state", "chat_id", chatID, "error", err)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "camera":
		b.spawn(func() { b.acquire(ctx, chatID, s, entity.SourceCamera) })

	case "gallery":
		b.spawn(func() { b.acquire(ctx, chatID, s, entity.SourceGallery) })

	case "analyze":
		b.spawn(func() { b.analyze(ctx, chatID, s) })

	case "reset":
		if _, err := s.pipeline.Reset(ctx); errors.Is(err, app.ErrAttemptInFlight) {
			b.sendMessage(chatID, msgInFlight)
			return
		}
		b.sendMessage(chatID, msgReset)

	case "revoke":
		if _, err := b.app.UserService.Revoke(ctx, msg.From.ID, chatID); err != nil {
			slog.Error("revoke permissions", "chat_id", chatID, "error", err)
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, msgRevoked)

	case "cancel":
		if _, err := b.app.UserService.Cancel(ctx, msg.From.ID, chatID); err != nil {
			slog.Error("cancel", "chat_id", chatID, "error", err)
		}
		b.sendMessage(chatID, msgNothingToCancel)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// acquire выбирает фото для следующей попытки
func (b *Bot) acquire(ctx context.Context, chatID int64, s *session, source entity.ImageSource) {
	if _, err := b.app.UserService.SetState(ctx, s.device.userID, chatID, entity.StateAwaitingPhoto); err != nil {
		slog.Warn("set user state", "chat_id", chatID, "error", err)
	}

	_, err := s.pipeline.Acquire(ctx, source)

	if _, err := b.app.UserService.SetState(ctx, s.device.userID, chatID, entity.StateMainMenu); err != nil {
		slog.Warn("set user state", "chat_id", chatID, "error", err)
	}

	switch {
	case err == nil:
	case errors.Is(err, app.ErrAttemptInFlight):
		b.sendMessage(chatID, msgInFlight)
	case errors.Is(err, entity.ErrPermissionDenied):
		b.sendMessage(chatID, msgPermissionDenied)
	default:
		slog.Error("acquire image", "chat_id", chatID, "source", source, "error", err)
		b.sendMessage(chatID, msgProcessingError)
	}
}

// analyze запускает попытку анализа. Итог попытки показывает слушатель состояния.
func (b *Bot) analyze(ctx context.Context, chatID int64, s *session) {
	_, err := s.pipeline.Submit(ctx)
	switch {
	case errors.Is(err, app.ErrAttemptInFlight):
		b.sendMessage(chatID, msgInFlight)
	case errors.Is(err, app.ErrNoImage):
		b.sendMessage(chatID, msgMissingImage)
	case errors.Is(err, entity.ErrPermissionDenied):
		b.sendMessage(chatID, msgPermissionDenied)
	}
}

// session возвращает сессию пользователя в чате, создавая её при первом сообщении.
// В групповом чате у каждого участника своя попытка и свои разрешения.
func (b *Bot) session(userID, chatID int64) *session {
	key := chatKey{chatID: chatID, userID: userID}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sessions[key]; ok {
		return s
	}

	device := newChatDevice(b.api, b.files, b.app.UserService, b.hub, userID, chatID, b.promptTimeout, b.tmpDir)
	s := &session{
		device:   device,
		pipeline: b.app.NewPipeline(device),
	}
	b.sessions[key] = s
	return s
}

// spawn запускает долгую операцию, чтобы цикл обновлений продолжал доставлять ответы
func (b *Bot) spawn(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("send message", "chat_id", chatID, "error", err)
	}
}

// telegramFiles скачивает файлы через Bot API
type telegramFiles struct {
	api  *tgbotapi.BotAPI
	http *resty.Client
}

// Download скачивает файл из Telegram в dst
func (f *telegramFiles) Download(ctx context.Context, fileID, dst string) error {
	file, err := f.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}

	res, err := f.http.R().
		SetContext(ctx).
		SetOutput(dst).
		Get(file.Link(f.api.Token))
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("download file: status %d", res.StatusCode())
	}

	return nil
}

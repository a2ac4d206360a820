package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "rescue-bot/internal/application"
	"rescue-bot/internal/domain/entity"
	"rescue-bot/internal/domain/port"
)

const (
	btnShareLocation = "📍 Share location"
	btnDenyLocation  = "🚫 Don't allow"
	btnCancel        = "❌ Cancel"

	// sharedLocationTTL сколько присланная геопозиция считается текущей
	sharedLocationTTL = time.Minute
)

var errLocationNotShared = errors.New("user did not share location")

// messenger часть BotAPI, которая нужна устройству
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// fileFetcher скачивает файл Telegram по его ID
type fileFetcher interface {
	Download(ctx context.Context, fileID, dst string) error
}

// chatDevice представляет чат как устройство пользователя. Запросы разрешений
// идут через клавиатуру ответа, а фото и геопозиция приходят обычными сообщениями.
type chatDevice struct {
	api           messenger
	files         fileFetcher
	users         *app.UserService
	hub           *replyHub
	userID        int64
	chatID        int64
	promptTimeout time.Duration
	tmpDir        string
	now           func() time.Time

	mu       sync.Mutex
	offered  *tgbotapi.Message // фото, присланное без запроса
	shared   *entity.Coordinates
	sharedAt time.Time
}

func newChatDevice(api messenger, files fileFetcher, users *app.UserService, hub *replyHub, userID, chatID int64, promptTimeout time.Duration, tmpDir string) *chatDevice {
	return &chatDevice{
		api:           api,
		files:         files,
		users:         users,
		hub:           hub,
		userID:        userID,
		chatID:        chatID,
		promptTimeout: promptTimeout,
		tmpDir:        tmpDir,
		now:           time.Now,
	}
}

// Request запрашивает разрешение. Камера и галерея в Telegram не требуют отдельного
// согласия: пользователь сам присылает фото.
func (d *chatDevice) Request(ctx context.Context, p entity.Permission) (bool, error) {
	if p != entity.PermissionLocation {
		return true, nil
	}

	user, err := d.users.Get(ctx, d.userID, d.chatID)
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	if user.Granted(p) {
		return true, nil
	}

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(btnShareLocation)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnDenyLocation)),
	)
	keyboard.OneTimeKeyboard = true
	if err := d.send(msgAskLocationPermission, keyboard); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.promptTimeout)
	defer cancel()

	// Отказом считается только кнопка отказа или /cancel, на остальное переспрашиваем
	for {
		reply, err := d.hub.await(ctx, d.key())
		if err != nil {
			return false, fmt.Errorf("await permission: %w", err)
		}
		if reply.Location != nil {
			d.rememberLocation(reply.Location)
			if _, err := d.users.Grant(ctx, d.userID, d.chatID, p); err != nil {
				slog.WarnContext(ctx, "save permission grant failed", "chat_id", d.chatID, "error", err)
			}
			return true, nil
		}
		if isRefusal(reply) {
			return false, nil
		}
		if err := d.send(msgAskLocationPermission, keyboard); err != nil {
			return false, err
		}
	}
}

// CurrentPosition возвращает недавно присланную точку или просит прислать новую.
func (d *chatDevice) CurrentPosition(ctx context.Context) (entity.Coordinates, error) {
	if coords, ok := d.takeSharedLocation(); ok {
		return coords, nil
	}

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(btnShareLocation)),
	)
	keyboard.OneTimeKeyboard = true
	if err := d.send(msgSendLocation, keyboard); err != nil {
		return entity.Coordinates{}, err
	}

	for {
		reply, err := d.hub.await(ctx, d.key())
		if err != nil {
			return entity.Coordinates{}, err
		}
		if reply.Location != nil {
			return entity.Coordinates{Latitude: reply.Location.Latitude, Longitude: reply.Location.Longitude}, nil
		}
		if isRefusal(reply) {
			return entity.Coordinates{}, errLocationNotShared
		}
		if err := d.send(msgSendLocation, keyboard); err != nil {
			return entity.Coordinates{}, err
		}
	}
}

// Pick ждёт фото от пользователя. Отмена или тайм-аут считаются отменой выбора.
func (d *chatDevice) Pick(ctx context.Context, source entity.ImageSource) (entity.ImageDescriptor, bool, error) {
	if msg := d.takeOffered(); msg != nil {
		return d.download(ctx, msg)
	}

	prompt := msgPickGallery
	if source == entity.SourceCamera {
		prompt = msgPickCamera
	}
	keyboard := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)))
	keyboard.OneTimeKeyboard = true
	if err := d.send(prompt, keyboard); err != nil {
		return entity.ImageDescriptor{}, false, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.promptTimeout)
	defer cancel()

	for {
		reply, err := d.hub.await(ctx, d.key())
		if err != nil {
			slog.InfoContext(ctx, "photo prompt expired", "chat_id", d.chatID)
			return entity.ImageDescriptor{}, false, nil
		}
		if isCancel(reply) {
			_ = d.send(msgCancelled, tgbotapi.NewRemoveKeyboard(true))
			return entity.ImageDescriptor{}, false, nil
		}
		if photoFileID(reply) != "" {
			return d.download(ctx, reply)
		}
		if err := d.send(prompt, nil); err != nil {
			return entity.ImageDescriptor{}, false, err
		}
	}
}

// Release удаляет скачанный временный файл.
func (d *chatDevice) Release(ctx context.Context, img entity.ImageDescriptor) error {
	path := img.Path()
	if filepath.Dir(path) != filepath.Clean(d.tmpDir) {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// ImageAccepted подтверждает получение фото
func (d *chatDevice) ImageAccepted(ctx context.Context, img entity.ImageDescriptor) error {
	return d.send(msgPhotoAccepted, tgbotapi.NewRemoveKeyboard(true))
}

// StateChanged показывает пользователю ход попытки
func (d *chatDevice) StateChanged(ctx context.Context, state entity.AttemptState) {
	var (
		text      string
		userState entity.UserState
	)
	switch state.Phase {
	case entity.PhaseResolving:
		text, userState = msgResolving, entity.StateAwaitingLocation
	case entity.PhaseUploading:
		text, userState = msgUploading, entity.StateAnalyzing
		if state.Location != nil && state.Location.Fallback {
			text = msgFallbackLocation + "\n" + msgUploading
		}
	case entity.PhaseComplete:
		text, userState = renderReport(state.Result), entity.StateMainMenu
	case entity.PhaseFailed:
		text, userState = renderFailure(state.Err), entity.StateMainMenu
	default:
		return
	}

	if _, err := d.users.SetState(ctx, d.userID, d.chatID, userState); err != nil {
		slog.WarnContext(ctx, "update user state failed", "chat_id", d.chatID, "error", err)
	}
	if text == "" {
		return
	}
	if err := d.send(text, tgbotapi.NewRemoveKeyboard(true)); err != nil {
		slog.WarnContext(ctx, "send state message failed", "chat_id", d.chatID, "phase", state.Phase, "error", err)
	}
}

// offerPhoto запоминает фото, присланное без запроса, для следующего Pick
func (d *chatDevice) offerPhoto(msg *tgbotapi.Message) {
	d.mu.Lock()
	d.offered = msg
	d.mu.Unlock()
}

// rememberLocation запоминает присланную точку как текущую геопозицию
func (d *chatDevice) rememberLocation(loc *tgbotapi.Location) {
	d.mu.Lock()
	d.shared = &entity.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}
	d.sharedAt = d.now()
	d.mu.Unlock()
}

func (d *chatDevice) takeSharedLocation() (entity.Coordinates, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.shared == nil || d.now().Sub(d.sharedAt) > sharedLocationTTL {
		return entity.Coordinates{}, false
	}
	coords := *d.shared
	d.shared = nil
	return coords, true
}

func (d *chatDevice) takeOffered() *tgbotapi.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	msg := d.offered
	d.offered = nil
	return msg
}

func (d *chatDevice) key() chatKey {
	return chatKey{chatID: d.chatID, userID: d.userID}
}

// download сохраняет фото во временный файл
func (d *chatDevice) download(ctx context.Context, msg *tgbotapi.Message) (entity.ImageDescriptor, bool, error) {
	file, err := os.CreateTemp(d.tmpDir, "rescue-*.jpg")
	if err != nil {
		return entity.ImageDescriptor{}, false, fmt.Errorf("create temp file: %w", err)
	}
	path := file.Name()
	file.Close()

	if err := d.files.Download(ctx, photoFileID(msg), path); err != nil {
		os.Remove(path)
		return entity.ImageDescriptor{}, false, fmt.Errorf("download photo: %w", err)
	}

	img := entity.ImageDescriptor{
		URI:      "file://" + path,
		MimeType: entity.DefaultImageMimeType,
		FileName: filepath.Base(path),
	}
	if msg.Document != nil {
		img.MimeType = msg.Document.MimeType
		if msg.Document.FileName != "" {
			img.FileName = msg.Document.FileName
		}
	}
	return img, true, nil
}

func (d *chatDevice) send(text string, markup interface{}) error {
	out := tgbotapi.NewMessage(d.chatID, text)
	if markup != nil {
		out.ReplyMarkup = markup
	}
	if _, err := d.api.Send(out); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// photoFileID возвращает ID файла фото наибольшего размера или изображения-документа
func photoFileID(msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID
	}
	return ""
}

func isCancel(msg *tgbotapi.Message) bool {
	return msg.Text == btnCancel || (msg.IsCommand() && msg.Command() == "cancel")
}

// isRefusal отказ поделиться геопозицией
func isRefusal(msg *tgbotapi.Message) bool {
	return msg.Text == btnDenyLocation || isCancel(msg)
}

// Проверка реализации интерфейсов
var (
	_ port.PermissionGate = (*chatDevice)(nil)
	_ port.Locator        = (*chatDevice)(nil)
	_ port.ImagePicker    = (*chatDevice)(nil)
	_ port.Acknowledger   = (*chatDevice)(nil)
	_ port.StateListener  = (*chatDevice)(nil)
)

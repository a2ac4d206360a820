package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"rescue-bot/internal/domain/entity"
	"rescue-bot/internal/domain/port"
)

const (
	// DefaultTimeout ограничивает запрос целиком: зависший запрос блокирует все следующие попытки
	DefaultTimeout = 60 * time.Second

	imageField    = "image"
	imageFileName = "animal_image.jpg"
	imageMimeType = "image/jpeg"
	locationField = "location"

	genericFailure = "Analysis failed. Please try again later."
)

// Client отправляет фото и координаты в сервис анализа.
type Client struct {
	client *resty.Client
	url    string
}

// NewClient создаёт клиента для url сервиса анализа. Повторы запроса отключены.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
		url: url,
	}
}

type successResponse struct {
	Report *struct {
		ReportData *string  `json:"report_data"`
		ReportID   *string  `json:"report_id"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
	} `json:"report"`
	Message any `json:"message"`
}

type errorResponse struct {
	Error   any `json:"error"`
	Message any `json:"message"`
}

// Submit выполняет ровно один multipart-запрос.
func (c *Client) Submit(ctx context.Context, image entity.ImageDescriptor, coords entity.Coordinates) (*entity.RawReport, error) {
	file, err := os.Open(image.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageUnreadable, err)
	}
	defer file.Close()

	location, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("encode location: %w", err)
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetMultipartField(imageField, imageFileName, imageMimeType, file).
		SetMultipartFormData(map[string]string{locationField: string(location)}).
		Post(c.url)
	if err != nil {
		slog.ErrorContext(ctx, "analysis request failed", "url", c.url, "error", err)
		return nil, &entity.NetworkError{Err: err}
	}

	if !res.IsSuccess() {
		slog.ErrorContext(ctx, "analysis service returned error", "status_code", res.StatusCode(), "body", res.String())
		return nil, &entity.ServerError{
			Status:  res.StatusCode(),
			Body:    res.String(),
			Message: failureMessage(res.Body()),
		}
	}

	report, ok := decodeReport(res.Body())
	if !ok {
		slog.ErrorContext(ctx, "unexpected analysis response", "status_code", res.StatusCode(), "body", res.String())
		return nil, &entity.ServerError{
			Status:  res.StatusCode(),
			Body:    res.String(),
			Message: genericFailure,
		}
	}

	return report, nil
}

// decodeReport проверяет форму успешного ответа до того, как доверять полям.
func decodeReport(body []byte) (*entity.RawReport, bool) {
	var parsed successResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false
	}

	r := parsed.Report
	if r == nil || r.ReportData == nil || r.ReportID == nil || r.Latitude == nil || r.Longitude == nil {
		return nil, false
	}

	return &entity.RawReport{
		ReportData: *r.ReportData,
		ReportID:   *r.ReportID,
		Latitude:   *r.Latitude,
		Longitude:  *r.Longitude,
		Message:    stringOrEmpty(parsed.Message),
	}, true
}

func stringOrEmpty(v any) string {
	s, _ := v.(string)
	return s
}

// failureMessage берёт error или message из тела ответа, иначе общее сообщение.
func failureMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return genericFailure
	}
	if msg := stringOrEmpty(parsed.Error); msg != "" {
		return msg
	}
	if msg := stringOrEmpty(parsed.Message); msg != "" {
		return msg
	}
	return genericFailure
}

// Проверка реализации интерфейса
var _ port.AnalysisSubmitter = (*Client)(nil)

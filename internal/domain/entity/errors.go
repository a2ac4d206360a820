package entity

import (
	"errors"
	"fmt"
)

// ErrorKind категория ошибки попытки анализа
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindPermissionDenied    ErrorKind = "permission_denied"
	KindLocationUnavailable ErrorKind = "location_unavailable"
	KindNetwork             ErrorKind = "network"
	KindServer              ErrorKind = "server"
	KindParse               ErrorKind = "parse"
	KindImage               ErrorKind = "image"
	KindUnknown             ErrorKind = "unknown"
)

var (
	// ErrPermissionDenied пользователь отказал в разрешении
	ErrPermissionDenied = errors.New("permission denied")
	// ErrLocationUnavailable не удалось получить координаты устройства
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrImageUnreadable не удалось прочитать локальный файл изображения
	ErrImageUnreadable = errors.New("image unreadable")
	// ErrEmptyImageURI пикер вернул дескриптор без ссылки на файл
	ErrEmptyImageURI = errors.New("image descriptor: empty uri")
)

// NetworkError сбой транспорта: ответ от сервера не получен.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError ответ сервера с неуспешным статусом или с неожиданным телом.
type ServerError struct {
	Status  int    // HTTP-статус ответа
	Body    string // тело ответа как есть
	Message string // сообщение для пользователя
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status %d: %s", e.Status, e.Message)
}

// ParseError отчёт ИИ не удалось разобрать. Raw хранит исходный текст для диагностики.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse report: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// KindOf определяет категорию ошибки.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		netErr   *NetworkError
		srvErr   *ServerError
		parseErr *ParseError
	)
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &srvErr):
		return KindServer
	case errors.Is(err, ErrImageUnreadable):
		return KindImage
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.Is(err, ErrLocationUnavailable):
		return KindLocationUnavailable
	default:
		return KindUnknown
	}
}

package entity

// Phase этап попытки анализа
type Phase string

const (
	PhaseIdle      Phase = "idle"      // Нет выбранного изображения
	PhaseReady     Phase = "ready"     // Изображение выбрано
	PhaseResolving Phase = "resolving" // Определение местоположения
	PhaseUploading Phase = "uploading" // Отправка на анализ
	PhaseParsing   Phase = "parsing"   // Разбор отчёта
	PhaseComplete  Phase = "complete"  // Отчёт готов
	PhaseFailed    Phase = "failed"    // Попытка завершилась ошибкой
)

// InFlight сообщает, выполняется ли сейчас попытка
func (p Phase) InFlight() bool {
	return p == PhaseResolving || p == PhaseUploading || p == PhaseParsing
}

// AttemptState состояние конвейера. Какие поля заполнены, зависит от Phase:
// Image есть начиная с ready, Location появляется после resolving,
// Result бывает только в complete, Err только в failed.
type AttemptState struct {
	ID       string
	Phase    Phase
	Image    *ImageDescriptor
	Location *LocationFix
	Result   *AnalysisResult
	Err      error
}

// IdleState начальное состояние
func IdleState() AttemptState {
	return AttemptState{Phase: PhaseIdle}
}

// ErrKind категория ошибки для состояния failed
func (s AttemptState) ErrKind() ErrorKind {
	return KindOf(s.Err)
}

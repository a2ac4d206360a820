package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"rescue-bot/internal/domain/entity"
	"rescue-bot/internal/domain/port"
)

var (
	// ErrAttemptInFlight попытка уже выполняется, новый вызов проигнорирован
	ErrAttemptInFlight = errors.New("analysis attempt already in flight")
	// ErrNoImage нечего отправлять: изображение не выбрано
	ErrNoImage = errors.New("no image selected")
)

// Pipeline ведёт одну попытку анализа: выбор фото, координаты, отправка, разбор отчёта.
// Состоянием владеет только Pipeline, наружу отдаются копии.
type Pipeline struct {
	images    *ImageAcquirer
	locations *LocationResolver
	submitter port.AnalysisSubmitter
	parser    *ReportParser
	listener  port.StateListener

	mu    sync.Mutex
	state entity.AttemptState
}

// NewPipeline создаёт конвейер в состоянии idle. listener может быть nil.
func NewPipeline(
	images *ImageAcquirer,
	locations *LocationResolver,
	submitter port.AnalysisSubmitter,
	parser *ReportParser,
	listener port.StateListener,
) *Pipeline {
	return &Pipeline{
		images:    images,
		locations: locations,
		submitter: submitter,
		parser:    parser,
		listener:  listener,
		state:     entity.IdleState(),
	}
}

// State возвращает текущее состояние попытки.
func (p *Pipeline) State() entity.AttemptState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Acquire выбирает изображение и переводит конвейер в ready.
// Отмена выбора оставляет состояние без изменений.
func (p *Pipeline) Acquire(ctx context.Context, source entity.ImageSource) (entity.AttemptState, error) {
	if state := p.State(); state.Phase.InFlight() {
		return state, ErrAttemptInFlight
	}

	img, ok, err := p.images.Acquire(ctx, source)
	if err != nil {
		return p.State(), err
	}
	if !ok {
		return p.State(), nil
	}

	p.mu.Lock()
	// Пока пользователь выбирал фото, могла начаться отправка предыдущего
	if p.state.Phase.InFlight() {
		state := p.state
		p.mu.Unlock()
		p.images.Release(ctx, img)
		return state, ErrAttemptInFlight
	}
	var previous *entity.ImageDescriptor
	if p.state.Phase != entity.PhaseComplete {
		previous = p.state.Image
	}
	p.state = entity.AttemptState{
		ID:    uuid.NewString(),
		Phase: entity.PhaseReady,
		Image: &img,
	}
	state := p.state
	p.mu.Unlock()

	if previous != nil && previous.URI != img.URI {
		p.images.Release(ctx, *previous)
	}
	p.notify(ctx, state)

	return state, nil
}

// Submit запускает попытку анализа выбранного изображения.
// Повторный вызов во время попытки ничего не делает и возвращает ErrAttemptInFlight.
// Ошибки попытки возвращаются вместе с итоговым состоянием.
func (p *Pipeline) Submit(ctx context.Context) (entity.AttemptState, error) {
	p.mu.Lock()
	switch {
	case p.state.Phase.InFlight():
		state := p.state
		p.mu.Unlock()
		slog.DebugContext(ctx, "submit ignored, attempt in flight", "attempt_id", state.ID, "phase", state.Phase)
		return state, ErrAttemptInFlight
	case p.state.Phase != entity.PhaseReady && p.state.Phase != entity.PhaseFailed:
		state := p.state
		p.mu.Unlock()
		return state, ErrNoImage
	}
	img := *p.state.Image
	attempt := entity.AttemptState{
		ID:    uuid.NewString(),
		Phase: entity.PhaseResolving,
		Image: &img,
	}
	p.state = attempt
	p.mu.Unlock()

	// Попытка не отменяется: после старта она доходит до результата или ошибки.
	ctx = context.WithoutCancel(ctx)
	log := slog.With("attempt_id", attempt.ID)
	p.notify(ctx, attempt)

	fix, err := p.locations.Resolve(ctx)
	if errors.Is(err, entity.ErrPermissionDenied) {
		log.InfoContext(ctx, "location permission denied, attempt abandoned")
		p.images.Release(ctx, img)
		return p.transition(ctx, entity.IdleState()), err
	}
	if err != nil {
		return p.fail(ctx, log, attempt, err)
	}
	attempt.Location = &fix
	if fix.Fallback {
		log.WarnContext(ctx, "submitting with fallback coordinates")
	}

	attempt.Phase = entity.PhaseUploading
	p.transition(ctx, attempt)

	raw, err := p.submitter.Submit(ctx, img, fix.Coordinates)
	if err != nil {
		return p.fail(ctx, log, attempt, err)
	}

	attempt.Phase = entity.PhaseParsing
	p.transition(ctx, attempt)

	result, err := p.parser.Build(*raw)
	if err != nil {
		return p.fail(ctx, log, attempt, err)
	}

	p.images.Release(ctx, img)
	attempt.Phase = entity.PhaseComplete
	attempt.Result = result
	log.InfoContext(ctx, "analysis complete",
		"report_id", result.ReportID,
		"animal_type", result.AnimalType,
		"severity", result.Severity,
	)

	return p.transition(ctx, attempt), nil
}

// Reset очищает изображение и результат и возвращает конвейер в idle.
func (p *Pipeline) Reset(ctx context.Context) (entity.AttemptState, error) {
	p.mu.Lock()
	if p.state.Phase.InFlight() {
		state := p.state
		p.mu.Unlock()
		return state, ErrAttemptInFlight
	}
	img := p.state.Image
	// В complete файл уже освобождён после отправки
	released := p.state.Phase == entity.PhaseComplete
	p.state = entity.IdleState()
	state := p.state
	p.mu.Unlock()

	if img != nil && !released {
		p.images.Release(ctx, *img)
	}
	p.notify(ctx, state)

	return state, nil
}

// fail переводит попытку в failed. Изображение и координаты остаются для ручного повтора.
func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, attempt entity.AttemptState, err error) (entity.AttemptState, error) {
	log.ErrorContext(ctx, "analysis attempt failed",
		"phase", attempt.Phase,
		"kind", entity.KindOf(err),
		"error", err,
	)
	attempt.Phase = entity.PhaseFailed
	attempt.Err = err
	return p.transition(ctx, attempt), err
}

func (p *Pipeline) transition(ctx context.Context, state entity.AttemptState) entity.AttemptState {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	p.notify(ctx, state)
	return state
}

func (p *Pipeline) notify(ctx context.Context, state entity.AttemptState) {
	if p.listener != nil {
		p.listener.StateChanged(ctx, state)
	}
}

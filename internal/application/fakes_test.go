package app

import (
	"context"
	"sync"
	"sync/atomic"

	"rescue-bot/internal/domain/entity"
	"rescue-bot/internal/domain/port"
)

type fakeGate struct {
	mu      sync.Mutex
	denied  map[entity.Permission]bool
	err     error
	request []entity.Permission
}

func (g *fakeGate) Request(ctx context.Context, p entity.Permission) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.request = append(g.request, p)
	if g.err != nil {
		return false, g.err
	}
	return !g.denied[p], nil
}

func (g *fakeGate) requested() []entity.Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]entity.Permission(nil), g.request...)
}

type fakeLocator struct {
	coords entity.Coordinates
	err    error
	block  bool
}

func (l *fakeLocator) CurrentPosition(ctx context.Context) (entity.Coordinates, error) {
	if l.block {
		// Имитирует локатор, который не следит за контекстом
		select {}
	}
	return l.coords, l.err
}

type fakePicker struct {
	mu       sync.Mutex
	img      entity.ImageDescriptor
	cancel   bool
	err      error
	released []entity.ImageDescriptor
}

func (p *fakePicker) Pick(ctx context.Context, source entity.ImageSource) (entity.ImageDescriptor, bool, error) {
	if p.err != nil {
		return entity.ImageDescriptor{}, false, p.err
	}
	if p.cancel {
		return entity.ImageDescriptor{}, false, nil
	}
	return p.img, true, nil
}

func (p *fakePicker) Release(ctx context.Context, img entity.ImageDescriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = append(p.released, img)
	return nil
}

func (p *fakePicker) releasedImages() []entity.ImageDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.ImageDescriptor(nil), p.released...)
}

type fakeAck struct {
	calls atomic.Int32
	err   error
}

func (a *fakeAck) ImageAccepted(ctx context.Context, img entity.ImageDescriptor) error {
	a.calls.Add(1)
	return a.err
}

type fakeSubmitter struct {
	raw   *entity.RawReport
	err   error
	calls atomic.Int32

	// started закрывается при первом вызове, release держит вызов до закрытия
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu     sync.Mutex
	coords []entity.Coordinates
}

func (s *fakeSubmitter) Submit(ctx context.Context, img entity.ImageDescriptor, coords entity.Coordinates) (*entity.RawReport, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.coords = append(s.coords, coords)
	s.mu.Unlock()

	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.release != nil {
		<-s.release
	}
	return s.raw, s.err
}

func (s *fakeSubmitter) lastCoords() entity.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coords[len(s.coords)-1]
}

type recordingListener struct {
	mu     sync.Mutex
	phases []entity.Phase
}

func (l *recordingListener) StateChanged(ctx context.Context, state entity.AttemptState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phases = append(l.phases, state.Phase)
}

func (l *recordingListener) seen() []entity.Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]entity.Phase(nil), l.phases...)
}

var (
	_ port.PermissionGate    = (*fakeGate)(nil)
	_ port.Locator           = (*fakeLocator)(nil)
	_ port.ImagePicker       = (*fakePicker)(nil)
	_ port.Acknowledger      = (*fakeAck)(nil)
	_ port.AnalysisSubmitter = (*fakeSubmitter)(nil)
	_ port.StateListener     = (*recordingListener)(nil)
)

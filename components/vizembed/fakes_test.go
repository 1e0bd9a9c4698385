package vizembed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	testSelectionMode UpdateMode = "selection-replace"
	testFilterMode    UpdateMode = "filter-replace"
)

type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeContainer struct {
	mu     sync.Mutex
	width  int
	height int
}

func (c *fakeContainer) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

func (c *fakeContainer) SetHeight(px int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = px
}

type fakeSheet struct {
	name      string
	log       *callLog
	failNames map[string]bool
}

func (s *fakeSheet) Name() string { return s.name }

func (s *fakeSheet) ApplyFilter(_ context.Context, name string, values []string, mode UpdateMode) error {
	s.log.add("filter:%s:%s:%s:%s", s.name, name, strings.Join(values, "|"), mode)
	if s.failNames[name] {
		return errors.New("filter rejected")
	}
	return nil
}

func (s *fakeSheet) SelectMarks(_ context.Context, name string, values []string, mode UpdateMode) error {
	s.log.add("select:%s:%s:%s:%s", s.name, name, strings.Join(values, "|"), mode)
	if s.failNames[name] {
		return errors.New("selection rejected")
	}
	return nil
}

type fakeWorkbook struct {
	mu          sync.Mutex
	log         *callLog
	sheets      map[string]*fakeSheet
	active      *fakeSheet
	activateErr error
}

func newFakeWorkbook(log *callLog, active string, others ...string) *fakeWorkbook {
	wb := &fakeWorkbook{log: log, sheets: map[string]*fakeSheet{}}
	for _, name := range append([]string{active}, others...) {
		wb.sheets[name] = &fakeSheet{name: name, log: log, failNames: map[string]bool{}}
	}
	wb.active = wb.sheets[active]
	return wb
}

func (w *fakeWorkbook) ActiveSheet() Sheet {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return nil
	}
	return w.active
}

func (w *fakeWorkbook) ActivateSheet(_ context.Context, name string) error {
	w.log.add("activate:%s", name)
	if w.activateErr != nil {
		return w.activateErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	sheet, ok := w.sheets[name]
	if !ok {
		sheet = &fakeSheet{name: name, log: w.log, failNames: map[string]bool{}}
		w.sheets[name] = sheet
	}
	w.active = sheet
	return nil
}

type fakeWidget struct {
	workbook *fakeWorkbook
	url      string
	options  WidgetOptions
	disposed atomic.Bool
}

func (w *fakeWidget) Workbook() Workbook { return w.workbook }

func (w *fakeWidget) Dispose() { w.disposed.Store(true) }

func (w *fakeWidget) fireFirstInteractive() {
	if w.options.OnFirstInteractive != nil {
		w.options.OnFirstInteractive()
	}
}

type fakeLibrary struct {
	mu        sync.Mutex
	log       *callLog
	widgets   []*fakeWidget
	err       error
	panicWith any
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{log: &callLog{}}
}

func (l *fakeLibrary) ConstructWidget(_ Container, url string, opts WidgetOptions) (Widget, error) {
	if l.panicWith != nil {
		panic(l.panicWith)
	}
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	widget := &fakeWidget{
		workbook: newFakeWorkbook(l.log, "Overview"),
		url:      url,
		options:  opts,
	}
	l.widgets = append(l.widgets, widget)
	return widget, nil
}

func (l *fakeLibrary) SelectionReplaceMode() UpdateMode { return testSelectionMode }

func (l *fakeLibrary) FilterReplaceMode() UpdateMode { return testFilterMode }

func (l *fakeLibrary) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.widgets)
}

func (l *fakeLibrary) widget(idx int) *fakeWidget {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx < 0 {
		idx = len(l.widgets) + idx
	}
	return l.widgets[idx]
}

type recordingHook struct {
	mu     sync.Mutex
	events []StateEvent
}

func (h *recordingHook) StateChanged(_ context.Context, event StateEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) phases() []Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	var phases []Phase
	for _, ev := range h.events {
		if n := len(phases); n > 0 && phases[n-1] == ev.State.Phase {
			continue
		}
		phases = append(phases, ev.State.Phase)
	}
	return phases
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func staticResolver(res FilterResolution) FilterResolver {
	return FilterResolverFunc(func(context.Context, FilterRequest) (FilterResolution, error) {
		return res, nil
	})
}

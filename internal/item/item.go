// Package item holds one image in a batch together with its conversion
// parameters and where its last conversion stands.
package item

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/AnyUserName/imgconv/internal/export"
	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/AnyUserName/imgconv/internal/notify"
	"go.uber.org/zap"
)

// ErrAlreadyInProgress is returned by Trigger while a conversion of the
// same item is still running.
var ErrAlreadyInProgress = errors.New("conversion already in progress")

// Status of an item's most recent conversion.
type Status int

const (
	Idle Status = iota
	Processing
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether s ends a conversion.
func (s Status) Terminal() bool { return s == Succeeded || s == Failed }

// Converter runs the conversion pipeline. *engine.Engine implements it.
type Converter interface {
	Convert(ctx context.Context, src engine.ImageBlob, p engine.Parameters) (*engine.OutputBlob, error)
}

// Patch is a partial parameter update; nil fields are left alone.
type Patch struct {
	Format  *format.Code
	Quality *int
	Width   *int
	Height  *int
}

// Deps are the collaborators an item reports to.
type Deps struct {
	Converter Converter
	Sink      export.Sink
	Notifier  notify.Notifier
	Logger    *zap.Logger
	// BusyAdvisory emits a Warning when Trigger is refused.
	BusyAdvisory bool
	// OnChange is called after every status or parameter change, outside
	// the item's lock.
	OnChange func(*Item)
}

// Item is safe for concurrent use.
type Item struct {
	id     string
	source engine.ImageBlob
	deps   Deps

	mu       sync.Mutex
	params   engine.Parameters
	status   Status
	lastErr  error
	detached bool
}

// New creates an idle item. params is normalized.
func New(id string, source engine.ImageBlob, params engine.Parameters, deps Deps) *Item {
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Item{
		id:     id,
		source: source,
		deps:   deps,
		params: params.Normalize(),
	}
}

func (it *Item) ID() string               { return it.id }
func (it *Item) Source() engine.ImageBlob { return it.source }

// Parameters returns a snapshot of the current parameters.
func (it *Item) Parameters() engine.Parameters {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.params
}

// Status returns the current status.
func (it *Item) Status() Status {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.status
}

// Err returns the error of the last failed conversion, if the item is Failed.
func (it *Item) Err() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.lastErr
}

// SetParameters merges p into the parameters. Quality is clamped to 1-100
// and non-positive dimensions mean "use the source size". A terminal status
// drops back to Idle. Choosing a best-effort format emits a Warning right
// away. An unknown format rejects the whole patch.
func (it *Item) SetParameters(p Patch) error {
	var advisory string
	if p.Format != nil {
		desc, err := format.Lookup(*p.Format)
		if err != nil {
			return err
		}
		if desc.Reliability == format.BestEffort {
			advisory = fmt.Sprintf("%s may not be supported in this environment", desc.Label)
		}
	}

	it.mu.Lock()
	if p.Format != nil {
		it.params.Format = *p.Format
	}
	if p.Quality != nil {
		it.params.Quality = engine.ClampQuality(*p.Quality)
	}
	if p.Width != nil {
		it.params.Width = engine.NormalizeDimension(*p.Width)
	}
	if p.Height != nil {
		it.params.Height = engine.NormalizeDimension(*p.Height)
	}
	if it.status.Terminal() {
		it.status = Idle
		it.lastErr = nil
	}
	it.mu.Unlock()

	if advisory != "" {
		it.deps.Notifier.Notify(notify.Event{Message: advisory, Severity: notify.Warning, ItemID: it.id})
	}
	it.changed()
	return nil
}

// Trigger runs one conversion with the current parameters and blocks until
// it ends. While one is running, further calls return ErrAlreadyInProgress
// without starting anything. Conversion failures are reported to the
// notifier and reflected in the returned status, never as an error.
func (it *Item) Trigger(ctx context.Context) (Status, error) {
	it.mu.Lock()
	if it.status == Processing {
		it.mu.Unlock()
		if it.deps.BusyAdvisory {
			it.deps.Notifier.Notify(notify.Event{
				Message:  "This image is already being converted",
				Severity: notify.Warning,
				ItemID:   it.id,
			})
		}
		return Processing, ErrAlreadyInProgress
	}
	it.status = Processing
	it.lastErr = nil
	params := it.params
	it.mu.Unlock()
	it.changed()

	log := it.deps.Logger.With(zap.String("item", it.id), zap.String("format", string(params.Format)))
	log.Debug("conversion started")

	err := it.run(ctx, params)

	it.mu.Lock()
	detached := it.detached
	if err != nil {
		it.status = Failed
		it.lastErr = err
	} else {
		it.status = Succeeded
	}
	status := it.status
	it.mu.Unlock()

	if detached {
		log.Debug("item removed during conversion, result discarded", zap.Error(err))
		return status, nil
	}

	if err != nil {
		log.Warn("conversion failed", zap.Error(err))
		it.deps.Notifier.Notify(notify.Event{Message: failureMessage(params.Format, err), Severity: notify.Error, ItemID: it.id})
	} else {
		log.Debug("conversion succeeded")
		it.deps.Notifier.Notify(notify.Event{Message: successMessage(params.Format), Severity: notify.Success, ItemID: it.id})
	}
	it.changed()
	return status, nil
}

// run converts and exports; a panic anywhere in between becomes an error.
func (it *Item) run(ctx context.Context, params engine.Parameters) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conversion panicked: %v", r)
		}
	}()

	if it.deps.Converter == nil {
		return errors.New("no converter configured")
	}
	out, err := it.deps.Converter.Convert(ctx, it.source, params)
	if err != nil {
		return err
	}
	if it.isDetached() || it.deps.Sink == nil {
		return nil
	}
	return it.deps.Sink.Export(ctx, *out)
}

// Detach marks the item as removed from its batch. A conversion in flight
// still finishes but its output is neither exported nor announced.
func (it *Item) Detach() {
	it.mu.Lock()
	it.detached = true
	it.mu.Unlock()
}

func (it *Item) isDetached() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.detached
}

func (it *Item) changed() {
	if it.deps.OnChange != nil && !it.isDetached() {
		it.deps.OnChange(it)
	}
}

func successMessage(code format.Code) string {
	label := string(code)
	if d, err := format.Lookup(code); err == nil {
		label = d.Label
	}
	return fmt.Sprintf("Image converted to %s successfully", label)
}

func failureMessage(code format.Code, err error) string {
	label := string(code)
	if d, lerr := format.Lookup(code); lerr == nil {
		label = d.Label
	}
	switch {
	case errors.Is(err, engine.ErrDecode):
		return "Could not read the source image"
	case errors.Is(err, engine.ErrSvgEncode):
		return "Error converting to SVG"
	case errors.Is(err, engine.ErrEncode):
		return fmt.Sprintf("Could not encode %s in this environment", label)
	default:
		return fmt.Sprintf("Error processing image: %v", err)
	}
}

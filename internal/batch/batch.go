// Package batch owns the ordered list of items the user is working on.
// Every mutation is announced on the event bus so views can redraw on
// their own schedule.
package batch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/AnyUserName/imgconv/internal/export"
	"github.com/AnyUserName/imgconv/internal/hasher"
	"github.com/AnyUserName/imgconv/internal/item"
	"github.com/AnyUserName/imgconv/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrIngestionRejected means none of the offered files was an image.
	ErrIngestionRejected = errors.New("no image files in selection")
	// ErrIndexOutOfRange is returned by RemoveAt and At for a bad position.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrItemNotFound is returned by RemoveByID for an unknown id.
	ErrItemNotFound = errors.New("item not found")
)

// ChangeKind says what happened to the batch.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Reset
	Updated
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Reset:
		return "reset"
	case Updated:
		return "updated"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is published on notify.TopicBatch after every mutation.
// Position is -1 when it does not apply.
type Change struct {
	Kind     ChangeKind
	ItemID   string
	Position int
	Len      int
}

// Config wires a batch to its collaborators.
type Config struct {
	Converter item.Converter
	Sink      export.Sink
	Bus       *notify.Bus
	Logger    *zap.Logger
	// Defaults for newly ingested items; zero value means
	// engine.DefaultParameters().
	Defaults     engine.Parameters
	BusyAdvisory bool
}

// Batch is safe for concurrent use.
type Batch struct {
	cfg     Config
	session uuid.UUID

	mu    sync.RWMutex
	items []*item.Item
	seq   uint64
}

// New creates an empty batch.
func New(cfg Config) *Batch {
	if cfg.Bus == nil {
		cfg.Bus = notify.NewBus()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Defaults == (engine.Parameters{}) {
		cfg.Defaults = engine.DefaultParameters()
	}
	return &Batch{cfg: cfg, session: uuid.New()}
}

// Session identifies this batch in logs and reports.
func (b *Batch) Session() uuid.UUID { return b.session }

// Bus returns the bus the batch publishes on.
func (b *Batch) Bus() *notify.Bus { return b.cfg.Bus }

// OnChange subscribes fn to batch changes. The returned function
// unsubscribes. fn runs on the bus delivery goroutine and may edit or
// remove items.
func (b *Batch) OnChange(fn func(Change)) (func(), error) {
	return b.cfg.Bus.Subscribe(notify.TopicBatch, fn)
}

// Ingest appends an item for every blob whose MIME type is image/*, in
// input order, and returns how many were accepted. If none qualify the
// batch is left unchanged and ErrIngestionRejected is returned.
func (b *Batch) Ingest(files []engine.ImageBlob) (int, error) {
	items, err := b.IngestItems(files)
	return len(items), err
}

// IngestItems is Ingest returning the created items.
func (b *Batch) IngestItems(files []engine.ImageBlob) ([]*item.Item, error) {
	var accepted []engine.ImageBlob
	for _, f := range files {
		if f.IsImage() {
			accepted = append(accepted, f)
		} else {
			b.cfg.Logger.Debug("skipping non-image file", zap.String("name", f.Name), zap.String("mime", f.MIMEType))
		}
	}
	skipped := len(files) - len(accepted)

	if len(accepted) == 0 {
		b.notify(notify.Event{Message: "Please add valid image files", Severity: notify.Warning})
		return nil, ErrIngestionRejected
	}

	added := make([]Change, 0, len(accepted))
	created := make([]*item.Item, 0, len(accepted))
	b.mu.Lock()
	for _, f := range accepted {
		b.seq++
		it := item.New(hasher.ItemID(f.Name, b.seq), f, b.cfg.Defaults, b.itemDeps())
		b.items = append(b.items, it)
		created = append(created, it)
		added = append(added, Change{Kind: Added, ItemID: it.ID(), Position: len(b.items) - 1, Len: len(b.items)})
	}
	b.mu.Unlock()

	for _, c := range added {
		b.publish(c)
	}

	msg := fmt.Sprintf("%d image(s) added", len(accepted))
	if skipped > 0 {
		msg = fmt.Sprintf("%d image(s) added, %d file(s) skipped", len(accepted), skipped)
	}
	b.notify(notify.Event{Message: msg, Severity: notify.Success})
	b.cfg.Logger.Info("ingested",
		zap.String("session", b.session.String()),
		zap.Int("accepted", len(accepted)),
		zap.Int("skipped", skipped),
	)
	return created, nil
}

// RemoveAt removes the item at pos; later items move down by one. An item
// that is still converting finishes in the background and its result is
// dropped.
func (b *Batch) RemoveAt(pos int) error {
	b.mu.Lock()
	if pos < 0 || pos >= len(b.items) {
		n := len(b.items)
		b.mu.Unlock()
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, pos, n)
	}
	c := b.removeLocked(pos)
	b.mu.Unlock()

	b.publish(c)
	return nil
}

// RemoveByID removes the item with the given id wherever it currently sits.
func (b *Batch) RemoveByID(id string) error {
	b.mu.Lock()
	pos := b.indexOf(id)
	if pos < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	c := b.removeLocked(pos)
	b.mu.Unlock()

	b.publish(c)
	return nil
}

// removeLocked requires b.mu held for writing.
func (b *Batch) removeLocked(pos int) Change {
	it := b.items[pos]
	b.items = append(b.items[:pos], b.items[pos+1:]...)
	it.Detach()
	return Change{Kind: Removed, ItemID: it.ID(), Position: pos, Len: len(b.items)}
}

// ResetAll drops every item.
func (b *Batch) ResetAll() {
	b.mu.Lock()
	old := b.items
	b.items = nil
	b.mu.Unlock()

	for _, it := range old {
		it.Detach()
	}
	b.publish(Change{Kind: Reset, Position: -1, Len: 0})
}

// Len returns the number of items.
func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Items returns the items in order. The slice is a copy.
func (b *Batch) Items() []*item.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*item.Item, len(b.items))
	copy(out, b.items)
	return out
}

// At returns the item at pos.
func (b *Batch) At(pos int) (*item.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if pos < 0 || pos >= len(b.items) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, pos, len(b.items))
	}
	return b.items[pos], nil
}

// Find returns the item with id and its current position.
func (b *Batch) Find(id string) (*item.Item, int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos := b.indexOf(id)
	if pos < 0 {
		return nil, -1, false
	}
	return b.items[pos], pos, true
}

// indexOf requires b.mu.
func (b *Batch) indexOf(id string) int {
	for i, it := range b.items {
		if it.ID() == id {
			return i
		}
	}
	return -1
}

func (b *Batch) itemDeps() item.Deps {
	return item.Deps{
		Converter:    b.cfg.Converter,
		Sink:         b.cfg.Sink,
		Notifier:     b.cfg.Bus,
		Logger:       b.cfg.Logger,
		BusyAdvisory: b.cfg.BusyAdvisory,
		OnChange:     b.itemChanged,
	}
}

func (b *Batch) itemChanged(it *item.Item) {
	_, pos, ok := b.Find(it.ID())
	if !ok {
		return
	}
	b.publish(Change{Kind: Updated, ItemID: it.ID(), Position: pos, Len: b.Len()})
}

func (b *Batch) publish(c Change) {
	b.cfg.Bus.Publish(notify.TopicBatch, c)
}

func (b *Batch) notify(e notify.Event) {
	b.cfg.Bus.Notify(e)
}

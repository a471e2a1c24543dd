package item

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnyUserName/imgconv/internal/engine"
	"github.com/AnyUserName/imgconv/internal/export"
	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/AnyUserName/imgconv/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConverter blocks each call until release is closed (if set) and
// counts how many pipeline runs started.
type fakeConverter struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
	panics  bool
}

func (f *fakeConverter) Convert(_ context.Context, src engine.ImageBlob, p engine.Parameters) (*engine.OutputBlob, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.panics {
		panic("encoder exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &engine.OutputBlob{
		Name:     engine.OutputName(p.Format),
		MIMEType: "image/" + string(p.Format),
		Data:     []byte("out"),
		Format:   p.Format,
		Source:   src.Name,
	}, nil
}

func newTestItem(conv Converter) (*Item, *export.Memory, *notify.Recorder) {
	sink := &export.Memory{}
	rec := &notify.Recorder{}
	src := engine.ImageBlob{Name: "a.png", MIMEType: "image/png", Data: []byte{1}}
	it := New("id-1", src, engine.DefaultParameters(), Deps{Converter: conv, Sink: sink, Notifier: rec})
	return it, sink, rec
}

func ptr[T any](v T) *T { return &v }

func TestSetParametersClampsQuality(t *testing.T) {
	it, _, _ := newTestItem(&fakeConverter{})

	require.NoError(t, it.SetParameters(Patch{Quality: ptr(150)}))
	assert.Equal(t, 100, it.Parameters().Quality)

	require.NoError(t, it.SetParameters(Patch{Quality: ptr(0)}))
	assert.Equal(t, 1, it.Parameters().Quality)
}

func TestSetParametersZeroDimensionIsUnset(t *testing.T) {
	it, _, _ := newTestItem(&fakeConverter{})

	require.NoError(t, it.SetParameters(Patch{Width: ptr(640), Height: ptr(480)}))
	require.NoError(t, it.SetParameters(Patch{Width: ptr(0)}))
	p := it.Parameters()
	assert.Equal(t, 0, p.Width)
	assert.Equal(t, 480, p.Height)
}

func TestSetParametersBestEffortWarnsImmediately(t *testing.T) {
	conv := &fakeConverter{}
	it, _, rec := newTestItem(conv)

	require.NoError(t, it.SetParameters(Patch{Format: ptr(format.TIFF)}))
	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.Warning, events[0].Severity)
	assert.Contains(t, events[0].Message, "TIFF")
	assert.Equal(t, "id-1", events[0].ItemID)
	assert.Zero(t, conv.calls.Load())

	require.NoError(t, it.SetParameters(Patch{Format: ptr(format.WebP)}))
	assert.Len(t, rec.Events(), 1, "reliable formats are silent")
}

func TestSetParametersUnknownFormat(t *testing.T) {
	it, _, _ := newTestItem(&fakeConverter{})
	err := it.SetParameters(Patch{Format: ptr(format.Code("avif")), Quality: ptr(10)})
	assert.ErrorIs(t, err, format.ErrUnknownFormat)
	assert.Equal(t, engine.DefaultParameters(), it.Parameters())
}

func TestTriggerSucceeds(t *testing.T) {
	it, sink, rec := newTestItem(&fakeConverter{})
	require.NoError(t, it.SetParameters(Patch{Format: ptr(format.JPEG), Quality: ptr(80)}))

	status, err := it.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Succeeded, status)
	assert.Equal(t, Succeeded, it.Status())

	outs := sink.Outputs()
	require.Len(t, outs, 1)
	assert.Equal(t, "image/jpeg", outs[0].MIMEType)
	assert.Equal(t, 1, rec.Count(notify.Success))
}

func TestTriggerFailureIsReportedNotReturned(t *testing.T) {
	conv := &fakeConverter{err: &engine.ConversionError{Stage: engine.StageEncode, Format: format.PSD, Err: errors.New("declined")}}
	it, sink, rec := newTestItem(conv)

	status, err := it.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Failed, status)
	assert.ErrorIs(t, it.Err(), engine.ErrEncode)
	assert.Empty(t, sink.Outputs())
	assert.Equal(t, 1, rec.Count(notify.Error))
}

func TestTriggerRecoversPanics(t *testing.T) {
	it, _, rec := newTestItem(&fakeConverter{panics: true})
	status, err := it.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Failed, status)
	assert.Contains(t, it.Err().Error(), "encoder exploded")
	assert.Equal(t, 1, rec.Count(notify.Error))
}

func TestTriggerWhileProcessing(t *testing.T) {
	conv := &fakeConverter{started: make(chan struct{}, 1), release: make(chan struct{})}
	it, sink, _ := newTestItem(conv)

	done := make(chan Status)
	go func() {
		s, _ := it.Trigger(context.Background())
		done <- s
	}()
	<-conv.started
	assert.Equal(t, Processing, it.Status())

	status, err := it.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyInProgress)
	assert.Equal(t, Processing, status)

	close(conv.release)
	assert.Equal(t, Succeeded, <-done)
	assert.Equal(t, int32(1), conv.calls.Load(), "second trigger must not start a pipeline")
	assert.Len(t, sink.Outputs(), 1)
}

func TestBusyAdvisory(t *testing.T) {
	conv := &fakeConverter{started: make(chan struct{}, 1), release: make(chan struct{})}
	rec := &notify.Recorder{}
	it := New("busy", engine.ImageBlob{Name: "b.png"}, engine.DefaultParameters(),
		Deps{Converter: conv, Notifier: rec, BusyAdvisory: true})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		it.Trigger(context.Background())
	}()
	<-conv.started
	_, err := it.Trigger(context.Background())
	require.ErrorIs(t, err, ErrAlreadyInProgress)
	assert.Equal(t, 1, rec.Count(notify.Warning))

	close(conv.release)
	wg.Wait()
}

func TestEditAfterTerminalResetsToIdle(t *testing.T) {
	it, _, _ := newTestItem(&fakeConverter{})
	_, err := it.Trigger(context.Background())
	require.NoError(t, err)
	require.Equal(t, Succeeded, it.Status())

	require.NoError(t, it.SetParameters(Patch{Quality: ptr(50)}))
	assert.Equal(t, Idle, it.Status())
}

func TestEditDuringProcessingKeepsStatus(t *testing.T) {
	conv := &fakeConverter{started: make(chan struct{}, 1), release: make(chan struct{})}
	it, sink, _ := newTestItem(conv)

	done := make(chan struct{})
	go func() {
		it.Trigger(context.Background())
		close(done)
	}()
	<-conv.started
	require.NoError(t, it.SetParameters(Patch{Format: ptr(format.GIF)}))
	assert.Equal(t, Processing, it.Status())
	close(conv.release)
	<-done

	assert.Equal(t, Succeeded, it.Status())
	assert.Equal(t, format.PNG, sink.Outputs()[0].Format, "in-flight run uses the snapshot taken at trigger time")
	assert.Equal(t, format.GIF, it.Parameters().Format)
}

func TestDetachDiscardsInFlightResult(t *testing.T) {
	conv := &fakeConverter{started: make(chan struct{}, 1), release: make(chan struct{})}
	it, sink, rec := newTestItem(conv)

	done := make(chan struct{})
	go func() {
		it.Trigger(context.Background())
		close(done)
	}()
	<-conv.started
	it.Detach()
	close(conv.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("trigger did not finish")
	}
	assert.Empty(t, sink.Outputs())
	assert.Empty(t, rec.Events())
}

func TestOnChangeFires(t *testing.T) {
	var seen []Status
	src := engine.ImageBlob{Name: "c.png"}
	it := New("c", src, engine.DefaultParameters(), Deps{
		Converter: &fakeConverter{},
		OnChange:  func(i *Item) { seen = append(seen, i.Status()) },
	})
	_, err := it.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Status{Processing, Succeeded}, seen)
}

package lifecycle

import (
	"context"
	"sync"

	"github.com/rbright/babel/internal/processor"
)

type fakeRecorder struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	payload  []byte
	starts   int
	stops    int
	releases int
}

func (f *fakeRecorder) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeRecorder) Stop(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return f.payload, nil
}

func (f *fakeRecorder) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
}

type putCall struct {
	key     string
	payload []byte
}

type fakeStore struct {
	mu    sync.Mutex
	err   error
	puts  []putCall
	onPut func()
}

func (f *fakeStore) Put(_ context.Context, key string, payload []byte) error {
	f.mu.Lock()
	f.puts = append(f.puts, putCall{key: key, payload: append([]byte(nil), payload...)})
	hook := f.onPut
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.err
}

type fakeProcessor struct {
	mu     sync.Mutex
	ref    processor.Reference
	err    error
	calls  []processor.Params
	block  chan struct{}
	called chan struct{}
}

func (f *fakeProcessor) Invoke(ctx context.Context, params processor.Params) (processor.Reference, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	block, called := f.block, f.called
	f.mu.Unlock()
	if called != nil {
		close(called)
	}
	if block != nil {
		<-block
	}
	return f.ref, f.err
}

func (f *fakeProcessor) Calls() []processor.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]processor.Params(nil), f.calls...)
}

type recordingObserver struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recordingObserver) Observe(_ context.Context, snapshot Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

func (r *recordingObserver) States() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.snapshots))
	for _, s := range r.snapshots {
		out = append(out, string(s.State))
	}
	return out
}

func (r *recordingObserver) Last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[len(r.snapshots)-1]
}

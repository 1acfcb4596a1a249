package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/suar-net/suar-reactive/internal/codec"
	"github.com/suar-net/suar-reactive/internal/model"
	"github.com/suar-net/suar-reactive/internal/reactive"
)

// Execution describes one finished call. It is handed to every Recorder.
type Execution struct {
	Config   model.RequestConfig
	URL      string
	Outcome  model.Outcome
	Started  time.Time
	Duration time.Duration
}

// Recorder observes finished executions, e.g. to persist or count them.
type Recorder interface {
	Record(ctx context.Context, e Execution)
}

type ControllerOption func(*RequestController)

func WithLogger(l *log.Logger) ControllerOption {
	return func(c *RequestController) {
		c.logger = l
	}
}

func WithRecorder(r Recorder) ControllerOption {
	return func(c *RequestController) {
		c.recorders = append(c.recorders, r)
	}
}

// WithStaleGuard drops the signal writes of a call that was overtaken by a
// later call. Without it overlapping calls write in completion order.
func WithStaleGuard() ControllerOption {
	return func(c *RequestController) {
		c.staleGuard = true
	}
}

// RequestController runs requests over a Transport and publishes their
// progress through reactive signals shared by every call.
type RequestController struct {
	config     reactive.Source[model.RequestConfig]
	transport  Transport
	logger     *log.Logger
	recorders  []Recorder
	staleGuard bool

	seq     atomic.Uint64
	applyMu sync.Mutex
	applied uint64

	Data      *reactive.Cell[any]
	Error     *reactive.Cell[error]
	Status    *reactive.Cell[int]
	IsLoading *reactive.Cell[bool]

	IsSuccess *reactive.Computed[bool]
	IsError   *reactive.Computed[bool]
	IsReady   *reactive.Computed[bool]
}

// NewRequestController creates a controller for cfg. When the resolved config
// has Immediate set, one execution is started in the background with ctx.
func NewRequestController(ctx context.Context, cfg reactive.Source[model.RequestConfig], transport Transport, opts ...ControllerOption) *RequestController {
	if cfg == nil {
		cfg = reactive.Static(model.RequestConfig{})
	}

	c := &RequestController{
		config:    cfg,
		transport: transport,
		logger:    log.New(io.Discard, "", 0),
		Data:      reactive.NewCell[any](nil),
		Error:     reactive.NewCell[error](nil),
		Status:    reactive.NewCell(0),
		IsLoading: reactive.NewCell(false),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.IsSuccess = reactive.Derive(func() bool {
		s := c.Status.Read()
		return s >= 200 && s < 300
	}, c.Status)
	c.IsError = reactive.Derive(func() bool {
		return c.Error.Read() != nil
	}, c.Error)
	c.IsReady = reactive.Derive(func() bool {
		return !c.IsLoading.Read() && c.Status.Read() != 0
	}, c.IsLoading, c.Status)

	if reactive.Unwrap(cfg).Immediate {
		go c.Execute(ctx, nil)
	}
	return c
}

// Execute runs one request with override applied over the current config and
// returns the signal state right after it finished. It never returns an error
// of its own: transport failures and non-2xx responses end up in Error.
func (c *RequestController) Execute(ctx context.Context, override *model.RequestOverride) model.Outcome {
	seq := c.seq.Add(1)

	c.IsLoading.Write(true)
	c.Error.Write(nil)
	c.Status.Write(0)
	finish := sync.OnceFunc(func() {
		if c.current(seq) {
			c.IsLoading.Write(false)
		}
	})
	defer finish()

	cfg := reactive.Unwrap(c.config).Merge(override)
	started := time.Now()
	url, own := c.run(ctx, seq, cfg)
	duration := time.Since(started)

	// loading ends before recorders run; they may block on storage
	finish()
	out := model.Outcome{
		Data:   c.Data.Read(),
		Status: c.Status.Read(),
		Error:  c.Error.Read(),
	}

	for _, r := range c.recorders {
		r.Record(ctx, Execution{
			Config:   cfg,
			URL:      url,
			Outcome:  own,
			Started:  started,
			Duration: duration,
		})
	}
	return out
}

// run performs the call and returns the URL used and this call's own outcome.
func (c *RequestController) run(ctx context.Context, seq uint64, cfg model.RequestConfig) (string, model.Outcome) {
	var own model.Outcome
	fail := func(err error) {
		own.Error = err
		c.logger.Printf("ERROR: %s %s: %v", cfg.Method, cfg.URL, err)
		c.apply(seq, func() { c.Error.Write(err) })
	}

	if cfg.URL == "" {
		fail(ErrMissingURL)
		return "", own
	}

	url := codec.WithQuery(cfg.URL, cfg.Query)
	body, headers, err := codec.ResolveBody(cfg.Body, cfg.Headers)
	if err != nil {
		fail(fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return url, own
	}

	resp, err := c.do(ctx, url, Descriptor{
		Method:      cfg.Method,
		Headers:     headers,
		Body:        body,
		Credentials: cfg.Credentials,
	})
	if err != nil {
		fail(err)
		return url, own
	}

	own.Status = resp.StatusCode()
	c.apply(seq, func() { c.Status.Write(own.Status) })

	raw, err := resp.Body()
	if err != nil {
		fail(err)
		return url, own
	}
	data, err := codec.ParseResponse(resp.Header(codec.HeaderContentType), raw)
	if err != nil {
		fail(err)
		return url, own
	}

	own.Data = data
	if own.Status < 200 || own.Status >= 300 {
		own.Error = &model.HTTPError{Status: own.Status, Data: data}
	}
	c.apply(seq, func() {
		c.Data.Write(data)
		if own.Error != nil {
			c.Error.Write(own.Error)
		}
	})
	return url, own
}

// do calls the transport; a panic inside it is reported like a returned error.
func (c *RequestController) do(ctx context.Context, url string, d Descriptor) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("transport panic: %v", r)
			}
			resp = nil
		}
	}()
	return c.transport.Do(ctx, url, d)
}

// apply runs write unless the stale guard is on and a later call already wrote.
func (c *RequestController) apply(seq uint64, write func()) {
	if !c.staleGuard {
		write()
		return
	}
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if seq < c.applied {
		return
	}
	c.applied = seq
	write()
}

// current reports whether seq may still clear the loading flag.
func (c *RequestController) current(seq uint64) bool {
	return !c.staleGuard || seq == c.seq.Load()
}

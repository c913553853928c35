package backend

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/bridge/internal/core/domain"
)

// Operation names, matching the remote worker's command table so that
// fault specs and journal entries read the same across tiers.
const (
	OpCreate    = "create_program"
	OpExecute   = "execute_program"
	OpList      = "list_programs"
	OpDelete    = "delete_program"
	OpInfo      = "get_program_info"
	OpPing      = "ping"
	OpStats     = "get_stats"
	OpConfigure = "configure_lm"
	OpReset     = "reset_state"
)

// ErrClosed is returned for calls against a closed backend.
var ErrClosed = errors.New("backend closed")

// state is the mutable record set owned exclusively by the core's run
// goroutine. No other goroutine ever touches it.
type state struct {
	programs  map[string]*domain.ProgramRecord
	global    map[string]any
	scenarios map[string]any
	requests  int64
	successes int64
	failures  int64
}

func newState() *state {
	return &state{
		programs:  make(map[string]*domain.ProgramRecord),
		global:    make(map[string]any),
		scenarios: make(map[string]any),
	}
}

type response struct {
	value any
	err   error
}

type request struct {
	op    string
	admin bool // admin requests skip delay, faults and counters
	fn    func(*state) (any, error)
	reply chan response
}

// Core is the serialized stateful service both in-process backends are
// built on. All calls against one Core are processed one at a time by
// a single goroutine; callers queue and block, honoring their context.
// A call abandoned by its caller still completes and updates counters,
// its result is discarded.
type Core struct {
	name string

	requests  chan request
	quit      chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine after start; mutated only via admin
	// requests.
	delay  time.Duration
	faults []FaultSpec
	rng    *rand.Rand
}

// NewCore starts the service goroutine. The fault-injection RNG is
// seeded from the backend name so test runs are reproducible.
func NewCore(name string) *Core {
	h := fnv.New64a()
	h.Write([]byte(name))
	c := &Core{
		name:     name,
		requests: make(chan request),
		quit:     make(chan struct{}),
		rng:      rand.New(rand.NewSource(int64(h.Sum64()))),
	}
	go c.run()
	return c
}

// Name returns the registry identifier.
func (c *Core) Name() string { return c.name }

// Close stops the service goroutine. In-flight calls complete first.
func (c *Core) Close() error {
	c.closeOnce.Do(func() { close(c.quit) })
	return nil
}

func (c *Core) run() {
	st := newState()
	for {
		select {
		case req := <-c.requests:
			c.handle(st, req)
		case <-c.quit:
			return
		}
	}
}

func (c *Core) handle(st *state, req request) {
	if !req.admin {
		if c.delay > 0 {
			time.Sleep(c.delay)
		}
		st.requests++
		if f := c.matchFault(req.op); f != nil {
			st.failures++
			req.reply <- response{err: injectedError(f)}
			return
		}
	}

	value, err := req.fn(st)
	if !req.admin {
		if err != nil {
			st.failures++
		} else {
			st.successes++
		}
	}
	req.reply <- response{value: value, err: err}
}

func (c *Core) matchFault(op string) *FaultSpec {
	for i := range c.faults {
		f := &c.faults[i]
		if f.Operation != "" && f.Operation != op {
			continue
		}
		if c.rng.Float64() < f.Probability {
			return f
		}
	}
	return nil
}

// injectedError builds an error whose structural shape classifies to
// the configured kind. A configured RetryAfter is attached as a
// pre-classified error so it survives classification.
func injectedError(f *FaultSpec) error {
	msg := f.Message
	if msg == "" {
		msg = fmt.Sprintf("injected %s fault", f.Kind)
	}
	if f.RetryAfter > 0 {
		return &domain.ClassifiedError{
			Kind:       f.Kind,
			Message:    msg,
			RetryAfter: f.RetryAfter,
		}
	}
	switch f.Kind {
	case domain.KindTimeout:
		return fmt.Errorf("%s: %w", msg, context.DeadlineExceeded)
	case domain.KindConnection:
		return fmt.Errorf("%s: %w", msg, syscall.ECONNREFUSED)
	case domain.KindResource:
		return fmt.Errorf("%s: %w", msg, domain.ErrProgramNotFound)
	case domain.KindValidation:
		return fmt.Errorf("%s: %w", msg, domain.ErrValidation)
	case domain.KindConfiguration:
		return fmt.Errorf("%s: %w", msg, domain.ErrConfiguration)
	case domain.KindExecution:
		return &domain.ExecutionError{Message: msg}
	default:
		return errors.New(msg)
	}
}

// submit queues a request and waits for its reply. Cancellation
// unblocks the caller; the request itself still runs to completion.
func (c *Core) submit(ctx context.Context, op string, admin bool, fn func(*state) (any, error)) (any, error) {
	req := request{op: op, admin: admin, fn: fn, reply: make(chan response, 1)}

	select {
	case c.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.quit:
		return nil, fmt.Errorf("%s: %w", c.name, ErrClosed)
	}

	select {
	case resp := <-req.reply:
		return resp.value, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ----------------------------------------------------------------------------
// Adapter contract (shared between simulator and protomock)
// ----------------------------------------------------------------------------

// CreateProgram registers a program record under a new or caller-given id.
func (c *Core) CreateProgram(ctx context.Context, cfg domain.ProgramConfig) (string, error) {
	v, err := c.submit(ctx, OpCreate, false, func(st *state) (any, error) {
		if len(cfg.Signature.Outputs) == 0 {
			return nil, fmt.Errorf("%w: signature declares no outputs", domain.ErrValidation)
		}
		id := cfg.ID
		if id == "" {
			id = "prog_" + uuid.NewString()
		}
		if _, exists := st.programs[id]; exists {
			return nil, fmt.Errorf("%w: program %q already exists", domain.ErrValidation, id)
		}
		st.programs[id] = &domain.ProgramRecord{
			ID:        id,
			Signature: cfg.Signature,
			CreatedAt: time.Now(),
		}
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ExecuteProgram runs a program through the shared pipeline. The
// validate hook lets the protocol mock check wire shapes before
// dispatch; the simulator passes nil and skips that entirely.
func (c *Core) ExecuteProgram(
	ctx context.Context,
	id string,
	inputs map[string]any,
	validate func(rec *domain.ProgramRecord, inputs map[string]any) error,
) (map[string]any, error) {
	v, err := c.submit(ctx, OpExecute, false, func(st *state) (any, error) {
		rec, ok := st.programs[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrProgramNotFound, id)
		}
		for _, f := range rec.Signature.Inputs {
			if _, present := inputs[f.Name]; !present {
				return nil, fmt.Errorf("%w: missing required input %q", domain.ErrValidation, f.Name)
			}
		}
		if validate != nil {
			if err := validate(rec, inputs); err != nil {
				return nil, err
			}
		}
		rec.InvocationCount++
		return generateOutputs(id, rec.Signature, inputs, st.scenarios), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// ListPrograms returns live program ids in stable order.
func (c *Core) ListPrograms(ctx context.Context) ([]string, error) {
	v, err := c.submit(ctx, OpList, false, func(st *state) (any, error) {
		ids := make([]string, 0, len(st.programs))
		for id := range st.programs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// DeleteProgram destroys a program.
func (c *Core) DeleteProgram(ctx context.Context, id string) error {
	_, err := c.submit(ctx, OpDelete, false, func(st *state) (any, error) {
		if _, ok := st.programs[id]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrProgramNotFound, id)
		}
		delete(st.programs, id)
		return nil, nil
	})
	return err
}

// ProgramInfo returns a copy of the stored record.
func (c *Core) ProgramInfo(ctx context.Context, id string) (*domain.ProgramRecord, error) {
	v, err := c.submit(ctx, OpInfo, false, func(st *state) (any, error) {
		rec, ok := st.programs[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrProgramNotFound, id)
		}
		clone := *rec
		return &clone, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ProgramRecord), nil
}

// HealthCheck answers the ping command.
func (c *Core) HealthCheck(ctx context.Context) error {
	_, err := c.submit(ctx, OpPing, false, func(st *state) (any, error) {
		return "pong", nil
	})
	return err
}

// Stats returns the counter snapshot without side effects.
func (c *Core) Stats(ctx context.Context) (domain.Stats, error) {
	v, err := c.submit(ctx, OpStats, true, func(st *state) (any, error) {
		return domain.Stats{
			RequestsTotal:  st.requests,
			Successes:      st.successes,
			Failures:       st.failures,
			ProgramsActive: int64(len(st.programs)),
		}, nil
	})
	if err != nil {
		return domain.Stats{}, err
	}
	return v.(domain.Stats), nil
}

// ConfigureGlobal merges backend-wide settings.
func (c *Core) ConfigureGlobal(ctx context.Context, settings map[string]any) error {
	_, err := c.submit(ctx, OpConfigure, false, func(st *state) (any, error) {
		for k, v := range settings {
			st.global[k] = v
		}
		return nil, nil
	})
	return err
}

// Reset unconditionally returns the backend to the empty state with
// zeroed counters.
func (c *Core) Reset(ctx context.Context) error {
	_, err := c.submit(ctx, OpReset, true, func(st *state) (any, error) {
		*st = *newState()
		return nil, nil
	})
	return err
}

// ----------------------------------------------------------------------------
// Test controls (administrative)
// ----------------------------------------------------------------------------

// SetDelay configures an artificial latency applied before every
// non-administrative operation.
func (c *Core) SetDelay(ctx context.Context, d time.Duration) error {
	_, err := c.submit(ctx, "set_delay", true, func(st *state) (any, error) {
		c.delay = d
		return nil, nil
	})
	return err
}

// SetFault installs a fault-injection spec. Passing a zero-probability
// spec for the same operation effectively disables it.
func (c *Core) SetFault(ctx context.Context, f FaultSpec) error {
	_, err := c.submit(ctx, "set_fault", true, func(st *state) (any, error) {
		for i := range c.faults {
			if c.faults[i].Operation == f.Operation {
				c.faults[i] = f
				return nil, nil
			}
		}
		c.faults = append(c.faults, f)
		return nil, nil
	})
	return err
}

// ClearFaults removes all fault-injection specs.
func (c *Core) ClearFaults(ctx context.Context) error {
	_, err := c.submit(ctx, "clear_faults", true, func(st *state) (any, error) {
		c.faults = nil
		return nil, nil
	})
	return err
}

// SetScenario overrides the generated output for one field name.
func (c *Core) SetScenario(ctx context.Context, field string, value any) error {
	_, err := c.submit(ctx, "set_scenario", true, func(st *state) (any, error) {
		st.scenarios[field] = value
		return nil, nil
	})
	return err
}

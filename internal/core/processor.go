package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvgate/internal/logging"
	"github.com/JonMunkholm/csvgate/internal/schema"
)

// Mode selects which pipeline stages run.
type Mode string

const (
	// ModeStrict runs every stage, including numeric field validation.
	ModeStrict Mode = "strict"
	// ModeStructural stops after header validation.
	ModeStructural Mode = "structural"
)

// ParseMode converts a configuration string to a Mode.
// An empty string selects ModeStrict.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStrict:
		return ModeStrict, nil
	case ModeStructural:
		return ModeStructural, nil
	default:
		return "", fmt.Errorf("unknown validation mode %q", s)
	}
}

// Recorder receives validation lifecycle events, typically for metrics.
type Recorder interface {
	ValidationStarted(mode Mode)
	ValidationFinished(o Outcome)
}

// Outcome is the result of validating one file.
type Outcome struct {
	RunID    string
	Source   string // Path or upload name
	Mode     Mode
	OK       bool
	Err      *ProcessingError // Set when OK is false
	Rows     int              // Data rows parsed (0 if parsing failed)
	Bytes    int64
	Duration time.Duration
}

// Message returns the text reported to the user for this outcome.
func (o Outcome) Message() string {
	if o.OK {
		return MsgSuccess
	}
	if o.Err == nil {
		return ""
	}
	return MsgFailurePrefix + o.Err.Detail
}

// Kind returns the failure kind name, or "" on success.
func (o Outcome) Kind() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Kind.String()
}

// Processor runs the validation pipeline against the transaction schema.
// A Processor holds no per-run state and is safe for concurrent use.
type Processor struct {
	specs    []schema.FieldSpec
	mode     Mode
	maxBytes int64
	recorder Recorder
}

// Option configures a Processor.
type Option func(*Processor)

// WithMode selects the validation mode (default ModeStrict).
func WithMode(m Mode) Option {
	return func(p *Processor) { p.mode = m }
}

// WithMaxBytes limits the decoded file size. Zero or negative disables the limit.
func WithMaxBytes(n int64) Option {
	return func(p *Processor) { p.maxBytes = n }
}

// WithRecorder attaches a Recorder for lifecycle events.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithSpecs overrides the expected schema. Used in tests.
func WithSpecs(specs []schema.FieldSpec) Option {
	return func(p *Processor) {
		p.specs = append([]schema.FieldSpec(nil), specs...)
	}
}

// NewProcessor creates a Processor for the transaction schema.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		specs: schema.TransactionFieldSpecs(),
		mode:  ModeStrict,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode returns the processor's validation mode.
func (p *Processor) Mode() Mode {
	return p.mode
}

// Specs returns a copy of the expected schema.
func (p *Processor) Specs() []schema.FieldSpec {
	return append([]schema.FieldSpec(nil), p.specs...)
}

var defaultProcessor = NewProcessor()

// ProcessData validates the file at path with a strict default Processor.
func ProcessData(ctx context.Context, path string) (Outcome, error) {
	return defaultProcessor.ProcessData(ctx, path)
}

// ProcessData runs the full pipeline on the file at path:
// existence check, decode-and-parse, structure, then fields (strict mode).
//
// Validation failures are reported in the Outcome with a nil error. A
// non-nil error means the run could not complete (permission denied, I/O
// failure, cancelled context) and the Outcome carries no verdict.
func (p *Processor) ProcessData(ctx context.Context, path string) (Outcome, error) {
	return p.run(ctx, path, func() (ParsedFile, error) {
		if err := checkFileExists(path); err != nil {
			return ParsedFile{}, err
		}
		return readFile(path, p.maxBytes)
	})
}

// ValidateReader runs every stage after the existence check on r.
// name identifies the source in logs and outcomes.
func (p *Processor) ValidateReader(ctx context.Context, name string, r io.Reader) (Outcome, error) {
	return p.run(ctx, name, func() (ParsedFile, error) {
		return parseReader(r, p.maxBytes)
	})
}

func (p *Processor) run(ctx context.Context, source string, load func() (ParsedFile, error)) (Outcome, error) {
	start := time.Now()
	out := Outcome{
		RunID:  uuid.NewString(),
		Source: source,
		Mode:   p.mode,
	}
	logger := logging.WithFields(ctx, append([]any{
		"run_id", out.RunID,
		"source", source,
		"mode", string(p.mode),
	}, clientLogArgs(ctx)...)...)

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("validation cancelled: %w", err)
	}

	if p.recorder != nil {
		p.recorder.ValidationStarted(p.mode)
	}

	err := p.validate(load, &out)
	out.Duration = time.Since(start)

	if err != nil {
		pe, ok := AsProcessingError(err)
		if !ok {
			logger.Error("validation aborted",
				"error", err,
				"duration_ms", out.Duration.Milliseconds(),
			)
			if p.recorder != nil {
				p.recorder.ValidationFinished(out)
			}
			return out, err
		}
		out.Err = pe
	} else {
		out.OK = true
	}

	if p.recorder != nil {
		p.recorder.ValidationFinished(out)
	}

	if out.OK {
		logger.Info("validation passed",
			"rows", out.Rows,
			"bytes", out.Bytes,
			"duration_ms", out.Duration.Milliseconds(),
		)
	} else {
		logger.Info("validation failed",
			"kind", out.Kind(),
			"detail", out.Err.Detail,
			"duration_ms", out.Duration.Milliseconds(),
		)
	}
	return out, nil
}

func (p *Processor) validate(load func() (ParsedFile, error), out *Outcome) error {
	pf, err := load()
	if err != nil {
		return err
	}
	out.Rows = len(pf.Rows)
	out.Bytes = pf.Bytes

	if err := ValidateStructure(pf.Header, p.specs); err != nil {
		return err
	}

	if p.mode == ModeStrict {
		return ValidateFields(pf.Rows, p.specs)
	}
	return nil
}

package validators

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/schema"
)

// envelopeVersion is the wire version of the isolation boundary. Both sides
// check it so a stale worker binary fails loudly instead of decoding garbage.
const envelopeVersion = 1

// workRequest crosses the process boundary from host to worker.
type workRequest struct {
	Version int                  `msgpack:"version"`
	Spec    schema.ValidatorSpec `msgpack:"spec"`
	Value   any                  `msgpack:"value"`
	Scope   Scope                `msgpack:"scope"`
}

// workResponse crosses the process boundary from worker to host.
type workResponse struct {
	Version int      `msgpack:"version"`
	Outcome *Outcome `msgpack:"outcome,omitempty"`
	Error   string   `msgpack:"error,omitempty"`
}

// IsolatedConfig configures the process-isolated runner.
type IsolatedConfig struct {
	// WorkerPath is the worker binary to exec per invocation.
	WorkerPath string `yaml:"worker_path"`
	// Timeout bounds one validator invocation. Zero means no extra bound
	// beyond the caller's context.
	Timeout time.Duration `yaml:"timeout"`
}

// IsolatedRunner executes each validator in a separate worker process,
// serializing the value and outcome across a versioned msgpack envelope.
// The call blocks until the worker returns or times out; every failure of
// the boundary itself (spawn error, crash, timeout, codec mismatch) becomes
// a RunnerFailure outcome.
type IsolatedRunner struct {
	cfg    IsolatedConfig
	logger *zap.Logger
}

// NewIsolatedRunner creates an isolated runner.
func NewIsolatedRunner(cfg IsolatedConfig, logger *zap.Logger) *IsolatedRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IsolatedRunner{cfg: cfg, logger: logger}
}

// Run implements Runner.
func (r *IsolatedRunner) Run(ctx context.Context, spec schema.ValidatorSpec, value any, scope Scope) *Outcome {
	if err := ctx.Err(); err != nil {
		return RunnerFailure("validation cancelled: " + err.Error())
	}
	if r.cfg.WorkerPath == "" {
		return RunnerFailure("isolated runner has no worker path configured")
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	input, err := msgpack.Marshal(&workRequest{
		Version: envelopeVersion,
		Spec:    spec,
		Value:   value,
		Scope:   scope,
	})
	if err != nil {
		return RunnerFailure("failed to serialize value for worker: " + err.Error())
	}

	cmd := exec.CommandContext(ctx, r.cfg.WorkerPath)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	r.logger.Debug("isolated validator finished",
		zap.String("validator", spec.Name),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	if ctx.Err() == context.DeadlineExceeded {
		return RunnerFailure(fmt.Sprintf("validator %s timed out after %s", spec.Name, r.cfg.Timeout))
	}
	if ctx.Err() == context.Canceled {
		// The worker was killed mid-flight; its partial outcome is discarded.
		return RunnerFailure("validation cancelled: " + ctx.Err().Error())
	}
	if err != nil {
		return RunnerFailure(fmt.Sprintf("worker for %s failed: %v (stderr: %s)",
			spec.Name, err, bytes.TrimSpace(stderr.Bytes())))
	}

	var resp workResponse
	if err := msgpack.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return RunnerFailure("failed to decode worker outcome: " + err.Error())
	}
	if resp.Version != envelopeVersion {
		return RunnerFailure(fmt.Sprintf("worker envelope version %d, want %d", resp.Version, envelopeVersion))
	}
	if resp.Error != "" {
		return RunnerFailure("worker error: " + resp.Error)
	}
	if resp.Outcome == nil {
		return RunnerFailure("worker returned no outcome")
	}
	return resp.Outcome
}

// RunWorker is the worker-process half of the isolation boundary: it reads
// one request envelope from r, runs the declared validator from the
// registry, and writes one response envelope to w. The worker binary wires
// this to stdin/stdout.
func RunWorker(r io.Reader, w io.Writer, registry *Registry) error {
	if registry == nil {
		registry = DefaultRegistry()
	}
	input, err := io.ReadAll(r)
	if err != nil {
		return writeWorkerError(w, "failed to read request: "+err.Error())
	}
	var req workRequest
	if err := msgpack.Unmarshal(input, &req); err != nil {
		return writeWorkerError(w, "failed to decode request: "+err.Error())
	}
	if req.Version != envelopeVersion {
		return writeWorkerError(w, fmt.Sprintf("request envelope version %d, want %d", req.Version, envelopeVersion))
	}
	v, err := registry.Build(req.Spec)
	if err != nil {
		return writeWorkerError(w, err.Error())
	}
	outcome := v.Validate(context.Background(), req.Value, req.Scope)
	return writeResponse(w, &workResponse{Version: envelopeVersion, Outcome: outcome})
}

func writeWorkerError(w io.Writer, msg string) error {
	return writeResponse(w, &workResponse{Version: envelopeVersion, Error: msg})
}

func writeResponse(w io.Writer, resp *workResponse) error {
	out, err := msgpack.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

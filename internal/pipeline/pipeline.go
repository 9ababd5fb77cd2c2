// Package pipeline runs the scene transformation end to end: extract,
// analyze, build the request, call the reasoning service, validate the
// candidate, and persist the artifacts. The run is strictly sequential; the
// service call is the only stage that blocks for long, and cancellation is
// honored at stage boundaries so no artifact is ever partially written.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/scenekit/resize/internal/config"
	"github.com/scenekit/resize/internal/dimension"
	"github.com/scenekit/resize/internal/extract"
	"github.com/scenekit/resize/internal/geometry"
	"github.com/scenekit/resize/internal/logging"
	"github.com/scenekit/resize/internal/request"
	"github.com/scenekit/resize/internal/scene"
	"github.com/scenekit/resize/internal/shared/id"
	"github.com/scenekit/resize/internal/transform"
	"github.com/scenekit/resize/internal/validate"
	"github.com/scenekit/resize/internal/writer"
)

// Input is everything one run needs. Collection (flags, prompts, API) is the
// caller's concern.
type Input struct {
	ScenePath string
	OutputDir string
	Target    request.DimensionSpec
	Intent    string
}

// Result summarizes a completed run.
type Result struct {
	Run           id.RunID
	Original      dimension.Report
	RevisedBounds geometry.Box
	Repaired      bool
	Artifacts     writer.Artifacts
	Elapsed       time.Duration
}

// Runner owns the wired pipeline stages.
type Runner struct {
	cfg      *config.Config
	service  transform.Service
	importer writer.NativeImporter
	logger   *logging.Logger
}

// NewRunner wires a runner. importer may be nil for JSON-only output.
func NewRunner(cfg *config.Config, service transform.Service, importer writer.NativeImporter, logger *logging.Logger) *Runner {
	return &Runner{cfg: cfg, service: service, importer: importer, logger: logger}
}

// Describe extracts and measures the scene without transforming it. This is
// the report shown to the user before they choose target dimensions.
func (r *Runner) Describe(ctx context.Context, scenePath string) (dimension.Report, error) {
	doc, err := extract.New(r.logger).Extract(ctx, extract.Open(scenePath))
	if err != nil {
		return dimension.Report{}, err
	}
	return dimension.Analyze(doc)
}

// Run executes the full pipeline. Each stage completes before the next
// begins; a cancelled context stops the run at the next stage boundary.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()

	doc, err := r.stageExtract(ctx, in.ScenePath)
	if err != nil {
		return nil, err
	}
	report, err := r.stageAnalyze(ctx, doc)
	if err != nil {
		return nil, err
	}
	req, err := r.stageBuild(ctx, doc, report, in)
	if err != nil {
		return nil, err
	}
	cand, err := r.stageTransform(ctx, req)
	if err != nil {
		return nil, err
	}
	validated, err := r.stageValidate(ctx, cand, req)
	if err != nil {
		return nil, err
	}
	artifacts, err := r.stageWrite(ctx, in.OutputDir, doc, validated)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Run:           req.Run,
		Original:      report,
		RevisedBounds: validated.Bounds,
		Repaired:      validated.Repaired,
		Artifacts:     artifacts,
		Elapsed:       time.Since(start),
	}
	r.logger.Info("run complete",
		zap.String("run_id", string(result.Run)),
		zap.Bool("repaired", result.Repaired),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (r *Runner) stageExtract(ctx context.Context, path string) (*scene.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.timed("extract")()
	return extract.New(r.logger).Extract(ctx, extract.Open(path))
}

func (r *Runner) stageAnalyze(ctx context.Context, doc *scene.Document) (dimension.Report, error) {
	if err := ctx.Err(); err != nil {
		return dimension.Report{}, err
	}
	defer r.timed("analyze")()
	report, err := dimension.Analyze(doc)
	if err != nil {
		return dimension.Report{}, err
	}
	r.logger.Info("scene measured",
		zap.Float64("width", report.Width),
		zap.Float64("depth", report.Depth),
		zap.Float64("height", report.Height),
		zap.Float64("floor_width", report.FloorWidth),
		zap.Float64("floor_depth", report.FloorDepth),
		zap.Int("objects", report.ObjectCount))
	return report, nil
}

func (r *Runner) stageBuild(ctx context.Context, doc *scene.Document, report dimension.Report, in Input) (*request.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.timed("build")()
	return request.Build(doc, report, in.Target, in.Intent, r.cfg.Validation.Tolerance)
}

func (r *Runner) stageTransform(ctx context.Context, req *request.Request) (*transform.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.timed("transform")()
	return r.service.Transform(ctx, req)
}

func (r *Runner) stageValidate(ctx context.Context, cand *transform.Candidate, req *request.Request) (*validate.Validated, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.timed("validate")()
	return validate.New(r.cfg.Validation.Tolerance, r.logger).Validate(cand, req)
}

func (r *Runner) stageWrite(ctx context.Context, dir string, original *scene.Document, validated *validate.Validated) (writer.Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return writer.Artifacts{}, err
	}
	defer r.timed("write")()
	return writer.New(dir, r.importer, r.logger).Write(ctx, original, validated)
}

// timed logs a stage's duration when the returned func runs.
func (r *Runner) timed(stage string) func() {
	start := time.Now()
	return func() {
		r.logger.Debug("stage finished",
			zap.String("stage", stage),
			zap.Duration("took", time.Since(start)))
	}
}

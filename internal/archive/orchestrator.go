package archive

// orchestrator.go - the assembly state machine.
//
//   planning -> archiving -> [extracting] -> preparing-output -> merging -> done
//
// Any stage may move to failed, which is terminal. Each stage runs inside its
// own trace span and returns the next stage or a *StageError.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ArtifactExtension is the extension of a merged artifact.
const ArtifactExtension = ".xcframework"

// ArtifactPath is the merged artifact of module inside outputDir.
func ArtifactPath(outputDir, module string) string {
	return filepath.Join(outputDir, module+ArtifactExtension)
}

// Toolchain runs the external archive and merge commands.
type Toolchain interface {
	Archive(ctx context.Context, op ArchiveOperation) error
	Merge(ctx context.Context, m Merge) error
}

// SymbolExtractor returns the debug-symbol bundle of a built framework.
type SymbolExtractor interface {
	Extract(ctx context.Context, binary string) (string, error)
}

// MergeInput is one variant's framework and, when requested, its symbols.
type MergeInput struct {
	Variant      string
	Framework    string
	DebugSymbols string
}

// Merge describes one merge invocation.
type Merge struct {
	Target string
	Inputs []MergeInput
	Output string
}

// MergedArtifact is the result of a successful assembly.
type MergedArtifact struct {
	Path   string
	Inputs []MergeInput
}

// Request is one assembly.
type Request struct {
	Product           BuildProduct
	OutputDir         string
	Overwrite         bool
	EmbedDebugSymbols bool
}

// Orchestrator assembles build products. Toolchain and Planner are
// required; Symbols is required only for requests that embed debug symbols.
type Orchestrator struct {
	Planner   *Planner
	Toolchain Toolchain
	Symbols   SymbolExtractor
	Reporter  Reporter
	Tracer    trace.Tracer
}

type assembly struct {
	o      *Orchestrator
	req    Request
	ops    []ArchiveOperation
	inputs []MergeInput
	output string
}

// Assemble runs the state machine for req. Operations for one product are
// strictly sequential; a failure in any stage ends the assembly without
// merging.
func (o *Orchestrator) Assemble(ctx context.Context, req Request) (*MergedArtifact, error) {
	a := &assembly{o: o, req: req}
	ctx, span := o.tracer().Start(ctx, "archive.Assemble", trace.WithAttributes(
		attribute.String("xcpack.target", req.Product.Target),
		attribute.StringSlice("xcpack.variants", req.Product.Variants),
	))
	defer span.End()

	stage := StagePlanning
	for stage != StageDone {
		next, err := a.step(ctx, stage)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.report(Event{Stage: StageFailed, Target: req.Product.Target, Variant: variantOf(err), Err: err})
			return nil, err
		}
		stage = next
	}
	o.report(Event{Stage: StageDone, Target: req.Product.Target, Path: a.output})
	return &MergedArtifact{Path: a.output, Inputs: a.inputs}, nil
}

func (a *assembly) step(ctx context.Context, stage Stage) (Stage, error) {
	ctx, span := a.o.tracer().Start(ctx, "archive."+stage.String())
	defer span.End()

	var next Stage
	var err error
	switch stage {
	case StagePlanning:
		next, err = a.plan()
	case StageArchiving:
		next, err = a.archive(ctx)
	case StageExtracting:
		next, err = a.extract(ctx)
	case StagePreparingOutput:
		next, err = a.prepareOutput()
	case StageMerging:
		next, err = a.merge(ctx)
	default:
		err = fmt.Errorf("archive: no transition from %s", stage)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return next, err
}

func (a *assembly) plan() (Stage, error) {
	target := a.req.Product.Target
	a.o.report(Event{Stage: StagePlanning, Target: target})
	ops, err := a.o.Planner.Plan(a.req.Product)
	if err != nil {
		kind := ErrUnknownVariant
		if errors.Is(err, ErrNoVariantsRequested) {
			kind = ErrNoVariantsRequested
		}
		return StageFailed, &StageError{Stage: StagePlanning, Target: target, Kind: kind, Err: err}
	}
	a.ops = ops
	return StageArchiving, nil
}

// archive clears and archives each variant in request order, stopping at
// the first failure. Clearing first means a retry never sees the leftovers
// of an interrupted run.
func (a *assembly) archive(ctx context.Context) (Stage, error) {
	for _, op := range a.ops {
		fail := func(err error) (Stage, error) {
			return StageFailed, &StageError{Stage: StageArchiving, Target: op.Target, Variant: op.Variant.ID, Kind: ErrArchiveFailed, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		a.o.report(Event{Stage: StageArchiving, Target: op.Target, Variant: op.Variant.ID})
		if err := a.o.Planner.Dirs.ResetArchive(op.Target, op.Variant.ID); err != nil {
			return fail(err)
		}
		if err := a.o.Toolchain.Archive(ctx, op); err != nil {
			return fail(err)
		}
		a.inputs = append(a.inputs, MergeInput{Variant: op.Variant.ID, Framework: op.BinaryPath()})
	}
	if a.req.EmbedDebugSymbols {
		return StageExtracting, nil
	}
	return StagePreparingOutput, nil
}

// extract pairs every archived variant with its debug symbols. The merge
// takes either a complete set or none, so a missing bundle is fatal.
func (a *assembly) extract(ctx context.Context) (Stage, error) {
	for i := range a.inputs {
		in := &a.inputs[i]
		fail := func(err error) (Stage, error) {
			return StageFailed, &StageError{Stage: StageExtracting, Target: a.req.Product.Target, Variant: in.Variant, Kind: ErrDebugSymbolExtraction, Err: err}
		}
		a.o.report(Event{Stage: StageExtracting, Target: a.req.Product.Target, Variant: in.Variant})
		if a.o.Symbols == nil {
			return fail(errors.New("no symbol extractor configured"))
		}
		path, err := a.o.Symbols.Extract(ctx, in.Framework)
		if err != nil {
			return fail(err)
		}
		if path == "" {
			return fail(fmt.Errorf("no debug symbols for %s", in.Framework))
		}
		in.DebugSymbols = path
	}
	return StagePreparingOutput, nil
}

// prepareOutput computes the artifact path. A previous artifact is removed
// only under Overwrite; otherwise it is left for the merge tool to reject.
func (a *assembly) prepareOutput() (Stage, error) {
	target := a.req.Product.Target
	fail := func(err error) (Stage, error) {
		return StageFailed, &StageError{Stage: StagePreparingOutput, Target: target, Kind: ErrPrepareOutput, Err: err}
	}
	if a.req.OutputDir == "" {
		return fail(errors.New("empty output directory"))
	}
	if err := os.MkdirAll(a.req.OutputDir, 0o755); err != nil {
		return fail(err)
	}
	a.output = ArtifactPath(a.req.OutputDir, a.req.Product.Module)
	a.o.report(Event{Stage: StagePreparingOutput, Target: target, Path: a.output})
	if !a.req.Overwrite {
		return StageMerging, nil
	}
	if _, err := os.Lstat(a.output); err == nil {
		if err := os.RemoveAll(a.output); err != nil {
			return fail(err)
		}
	} else if !os.IsNotExist(err) {
		return fail(err)
	}
	return StageMerging, nil
}

func (a *assembly) merge(ctx context.Context) (Stage, error) {
	target := a.req.Product.Target
	a.o.report(Event{Stage: StageMerging, Target: target, Path: a.output})
	m := Merge{Target: target, Inputs: a.inputs, Output: a.output}
	if err := a.o.Toolchain.Merge(ctx, m); err != nil {
		return StageFailed, &StageError{Stage: StageMerging, Target: target, Kind: ErrMergeFailed, Err: err}
	}
	return StageDone, nil
}

func (o *Orchestrator) tracer() trace.Tracer {
	if o.Tracer != nil {
		return o.Tracer
	}
	return otel.Tracer("xcpack/internal/archive")
}

func (o *Orchestrator) report(e Event) {
	if o.Reporter != nil {
		o.Reporter.Report(e)
	}
}

func variantOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Variant
	}
	return ""
}

package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auto_sketch_enhancer/stage"
	"auto_sketch_enhancer/surface"
)

// Analyzer 负责把草图转成场景描述，不返回错误。
type Analyzer interface {
	Analyze(ctx context.Context, sketch surface.Sketch) string
}

// Composer 负责按描述合成最终图像。
type Composer interface {
	Compose(sketch surface.Sketch, description string) (surface.Sketch, error)
}

const component = "generator"

// Orchestrator runs analyze then compose and always produces a Result.
type Orchestrator struct {
	analyzer Analyzer
	composer Composer
	observer stage.Observer
}

type Option func(*Orchestrator)

func WithObserver(o stage.Observer) Option {
	return func(g *Orchestrator) { g.observer = o }
}

func New(analyzer Analyzer, composer Composer, opts ...Option) (*Orchestrator, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if composer == nil {
		return nil, errors.New("composer is required")
	}
	g := &Orchestrator{analyzer: analyzer, composer: composer}
	for _, opt := range opts {
		opt(g)
	}
	g.observer = stage.OrNop(g.observer)
	return g, nil
}

// Generate 执行完整流程；任何错误或 panic 都回退为原图。
func (g *Orchestrator) Generate(ctx context.Context, sketchB64, userPrompt string, styles []string) Result {
	return g.Run(ctx, Input{Sketch: sketchB64, Prompt: userPrompt, Styles: styles}, nil)
}

// Run is Generate with an extra per-call observer.
func (g *Orchestrator) Run(ctx context.Context, in Input, extra stage.Observer) (res Result) {
	obs := stage.Multi(g.observer, extra)
	defer func() {
		if r := recover(); r != nil {
			res = fallback(obs, in.Sketch, fmt.Errorf("panic: %v", r))
		}
	}()

	obs.OnStage(stage.Event{Stage: stage.Start, Component: component,
		Message: fmt.Sprintf("prompt=%q styles=[%s]", in.Prompt, strings.Join(in.Styles, ","))})

	sketch, err := surface.ParseSketch(in.Sketch)
	if err != nil {
		return fallback(obs, in.Sketch, fmt.Errorf("parse sketch: %w", err))
	}

	obs.OnStage(stage.Event{Stage: stage.Analyzing, Component: component})
	desc := g.analyzer.Analyze(ctx, sketch)

	obs.OnStage(stage.Event{Stage: stage.Composing, Component: component, Message: desc})
	out, err := g.composer.Compose(sketch, desc)
	if err != nil {
		return fallback(obs, in.Sketch, fmt.Errorf("compose: %w", err))
	}

	obs.OnStage(stage.Event{Stage: stage.Done, Component: component, Message: "format " + out.Format})
	return Result{Images: []string{out.Base64()}, Description: desc}
}

func fallback(obs stage.Observer, input string, err error) Result {
	obs.OnStage(stage.Event{Stage: stage.Fallback, Component: component, Message: "returning original sketch", Err: err})
	return Result{Images: []string{surface.StripDataURI(input)}, Fallback: true}
}

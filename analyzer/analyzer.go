// Package analyzer turns a raster sketch into a short scene description using a
// vision-capable chat model. It never fails: every error degrades to FallbackDescription.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"auto_sketch_enhancer/stage"
	"auto_sketch_enhancer/surface"
)

// FallbackDescription is returned whenever the model cannot be reached or says nothing.
const FallbackDescription = "A landscape drawing with natural elements"

const component = "analyzer"

// Analyzer asks a VisionClient to describe a sketch. The credential and the client are
// resolved on every call so a missing key surfaces as a fallback, not a startup error.
type Analyzer struct {
	keys     KeyProvider
	factory  ClientFactory
	prompt   Prompt
	observer stage.Observer
}

type Option func(*Analyzer)

// WithObserver routes failure events to o.
func WithObserver(o stage.Observer) Option {
	return func(a *Analyzer) { a.observer = o }
}

// WithPrompt replaces the scene instruction.
func WithPrompt(p Prompt) Option {
	return func(a *Analyzer) { a.prompt = p }
}

func New(keys KeyProvider, factory ClientFactory, opts ...Option) (*Analyzer, error) {
	if keys == nil {
		return nil, errors.New("analyzer: key provider is nil")
	}
	if factory == nil {
		return nil, errors.New("analyzer: client factory is nil")
	}
	a := &Analyzer{keys: keys, factory: factory, prompt: ScenePrompt()}
	for _, opt := range opts {
		opt(a)
	}
	a.observer = stage.OrNop(a.observer)
	return a, nil
}

// Analyze returns a non-empty description of sketch.
func (a *Analyzer) Analyze(ctx context.Context, sketch surface.Sketch) string {
	desc, err := a.describe(ctx, sketch)
	if err != nil {
		a.observer.OnStage(stage.Event{Stage: stage.Analyzing, Component: component, Message: "using fallback description", Err: err})
		return FallbackDescription
	}
	a.observer.OnStage(stage.Event{Stage: stage.Analyzing, Component: component, Message: fmt.Sprintf("described in %d chars", utf8.RuneCountInString(desc))})
	return desc
}

func (a *Analyzer) describe(ctx context.Context, sketch surface.Sketch) (string, error) {
	key, err := a.keys()
	if err != nil {
		return "", fmt.Errorf("credential: %w", err)
	}
	client, err := a.factory(key)
	if err != nil {
		return "", fmt.Errorf("client: %w", err)
	}
	out, err := client.Describe(ctx, a.prompt, Image{Data: sketch.Data, MIMEType: sketch.MIMEType()})
	if err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("describe: empty response")
	}
	return out, nil
}

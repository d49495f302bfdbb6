package generator

import (
	"time"

	"auto_sketch_enhancer/stage"
)

// Input 是一次生成请求的原始参数。
type Input struct {
	// Sketch is base64, with or without a data URI prefix.
	Sketch string
	// Prompt and Styles are accepted for interface compatibility and only logged.
	Prompt string
	Styles []string
}

// Result 是一次生成的对外结果。
type Result struct {
	Images      []string `json:"images"`
	Description string   `json:"description"`
	// Error is part of the wire shape but stays empty, fallbacks are silent to callers.
	Error    string `json:"error,omitempty"`
	Fallback bool   `json:"fallback"`
}

// Turn 记录一次生成过程中的阶段事件。
type Turn struct {
	Event     stage.Event
	CreatedAt time.Time
}

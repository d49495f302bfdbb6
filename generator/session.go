package generator

import (
	"context"
	"sync"
	"time"

	"auto_sketch_enhancer/stage"
)

// Session 持有一次生成的输入、结果和阶段记录。
type Session struct {
	ID        string
	Input     Input
	Result    Result
	CreatedAt time.Time

	mu      sync.Mutex
	history []Turn
	orch    *Orchestrator
}

// NewSession 创建 session，尚未执行生成。
func NewSession(id string, in Input, orch *Orchestrator) *Session {
	return &Session{
		ID:        id,
		Input:     in,
		CreatedAt: time.Now(),
		orch:      orch,
	}
}

// Run 执行生成并记录每个阶段。
func (s *Session) Run(ctx context.Context) Result {
	s.Result = s.orch.Run(ctx, s.Input, stage.ObserverFunc(s.appendTurn))
	return s.Result
}

// History returns a copy of the recorded stage events.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}

func (s *Session) appendTurn(e stage.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Turn{Event: e, CreatedAt: time.Now()})
}

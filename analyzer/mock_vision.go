package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
)

// MockVision 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockVision struct {
	Description string
	Err         error
	// Calls counts Describe invocations.
	Calls atomic.Int64
}

const mockDescription = "A mountain landscape with pine trees and a bright sun in a clear sky"

func (m *MockVision) Describe(_ context.Context, _ Prompt, image Image) (string, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return "", m.Err
	}
	if len(image.Data) == 0 {
		return "", errors.New("image is empty")
	}
	if m.Description == "" {
		return mockDescription, nil
	}
	return m.Description, nil
}

// MockFactory returns a ClientFactory that always hands out m.
func MockFactory(m *MockVision) ClientFactory {
	return func(string) (VisionClient, error) { return m, nil }
}

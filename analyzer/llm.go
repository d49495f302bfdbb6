package analyzer

import "context"

// VisionClient 抽象支持图像输入的大模型客户端，便于替换/Mock。
type VisionClient interface {
	Describe(ctx context.Context, prompt Prompt, image Image) (string, error)
}

// Image is inline image content sent alongside the prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// ClientFactory builds a VisionClient from a credential.
type ClientFactory func(apiKey string) (VisionClient, error)

// KeyProvider returns the inference credential.
type KeyProvider func() (string, error)

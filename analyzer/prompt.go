package analyzer

// Prompt 表示发送给视觉模型的指令。
type Prompt struct {
	System string
	User   string
}

const systemInstruction = "You are a visual analyst for a drawing application. Reply with plain prose, no lists or headings."

const sceneInstruction = `Analyze this sketch and describe:
1. The objects that are drawn (for example mountains, trees, sun, clouds, houses, water).
2. Where they are placed relative to each other.
3. The drawing style.
4. What the author most likely intended to depict.

Write the description so it can be used directly as a guide for generating an enhanced image of the same scene.`

// ScenePrompt is the fixed instruction sent with every sketch.
func ScenePrompt() Prompt {
	return Prompt{System: systemInstruction, User: sceneInstruction}
}

package scoring

// Weights are the category shares of the overall score. They sum to 1.
type Weights struct {
	Skills   float64 `json:"skills"`
	Tools    float64 `json:"tools"`
	Language float64 `json:"language"`
	Location float64 `json:"location"`
}

// DefaultWeights are fixed; persisted rows record them next to the scores.
var DefaultWeights = Weights{
	Skills:   0.50,
	Tools:    0.20,
	Language: 0.15,
	Location: 0.15,
}

func (w Weights) combine(skills, tools, language, location float64) float64 {
	return w.Skills*skills + w.Tools*tools + w.Language*language + w.Location*location
}

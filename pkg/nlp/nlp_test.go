package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := map[string]string{
		"  Node.js ":      "node js",
		"C++":             "c++",
		"C#":              "c#",
		"REST-API":        "rest api",
		"Frankfurt/Main":  "frankfurt main",
		"München":         "münchen",
		"":                "",
		"\t Go \n Lang  ": "go lang",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeText(in), "input %q", in)
	}
}

func TestSkillMatches(t *testing.T) {
	tests := []struct {
		name     string
		required string
		have     string
		want     bool
	}{
		{name: "case insensitive", required: "JavaScript", have: "javascript", want: true},
		{name: "have contains required", required: "Node", have: "Node.js", want: true},
		{name: "required contains have", required: "React Native", have: "React", want: true},
		{name: "alias", required: "Kubernetes", have: "k8s", want: true},
		{name: "alias golang", required: "Go", have: "Golang", want: true},
		{name: "multi word alias", required: "Postgres DBA", have: "PostgreSQL DBA", want: true},
		{name: "single letter only equality", required: "R", have: "React", want: false},
		{name: "single letter equal", required: "C", have: "c", want: true},
		{name: "unrelated", required: "Figma", have: "TypeScript", want: false},
		{name: "empty required", required: "", have: "Go", want: false},
		{name: "empty have", required: "Go", have: " ", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SkillMatches(tt.required, tt.have))
		})
	}
}

func TestSameCity(t *testing.T) {
	assert.True(t, SameCity(NormalizeText("München"), NormalizeText("Munich, Germany")))
	assert.True(t, SameCity(NormalizeText("Köln"), NormalizeText("cologne")))
	assert.False(t, SameCity(NormalizeText("Berlin"), NormalizeText("Munich")))
	assert.False(t, SameCity("", "munich"))
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, ContainsPhrase("berlin germany", "berlin"))
	assert.False(t, ContainsPhrase("berlingen", "berlin"))
	assert.False(t, ContainsPhrase("berlin", ""))
}

func TestStartsWithPhrase(t *testing.T) {
	assert.Equal(t, []string{"berlin", "mitte"}, Tokens(" berlin  mitte "))
	assert.Empty(t, Tokens(""))

	assert.True(t, StartsWithPhrase("berlin mitte", "berlin"))
	assert.True(t, StartsWithPhrase("frankfurt am main", "frankfurt"))
	assert.False(t, StartsWithPhrase("new york", "york"))
	assert.False(t, StartsWithPhrase("berlin", "berlin"))
	assert.False(t, StartsWithPhrase("berlingen ost", "berlin"))
	assert.False(t, StartsWithPhrase("berlin", ""))
}

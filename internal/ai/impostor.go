package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

var (
	leadingDash = regexp.MustCompile(`^-\s*`)
	quoteChars  = regexp.MustCompile("[\"'`«»“”„]")
)

// Impostor writes the synthetic answer of a round: it asks the provider for
// one more answer in the style of the human ones, strips model artifacts and
// sometimes roughs the result up with typing mistakes.
type Impostor struct {
	provider     Provider
	model        string
	systemPrompt string
	humanizer    *Humanizer
}

func NewImpostor(p Provider, model, systemPrompt string, humanizeChance float64) *Impostor {
	return &Impostor{
		provider:     p,
		model:        model,
		systemPrompt: systemPrompt,
		humanizer:    NewHumanizer(humanizeChance, rand.New(rand.NewSource(rand.Int63()))),
	}
}

// Generate satisfies game.Generator.
func (im *Impostor) Generate(ctx context.Context, question string, answers []string) (string, error) {
	if im.provider == nil {
		return "", errors.New("no ai provider configured")
	}
	prompt := BuildPrompt(question, answers)
	var (
		text string
		err  error
	)
	if im.systemPrompt != "" {
		text, err = im.provider.CompleteWithSystem(ctx, im.model, im.systemPrompt, prompt)
	} else {
		text, err = im.provider.Complete(ctx, im.model, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	text = Clean(text)
	if text == "" {
		return "", errors.New("empty completion")
	}
	return im.humanizer.Apply(text), nil
}

// BuildPrompt lists the question and the players' answers and asks for one
// more answer in the same style.
func BuildPrompt(question string, answers []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Question: %q\n\n", question))
	sb.WriteString("Answers from different people:\n")
	for _, a := range answers {
		sb.WriteString("- " + a + "\n")
	}
	sb.WriteString("\nWrite one more answer. Match the others in length, style and formatting (letter case, punctuation, humour).\n")
	sb.WriteString("Reply with the answer ONLY:")
	return sb.String()
}

// Clean removes the dash a model likes to start list items with and every
// quote character.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = leadingDash.ReplaceAllString(s, "")
	s = quoteChars.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

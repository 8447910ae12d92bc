// Package generator produces carousel slide decks from a topic brief.
//
// The current backend is deterministic templating: fixed narrative roles for
// the first, second, third, second-to-last and last slides, with a generic
// benefit frame filling the interior. It is a pure function of its inputs so
// it can be swapped for a real generation backend behind the same contract.
package generator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Slide count bounds accepted by Generate.
const (
	MinSlides = 1
	MaxSlides = 10
)

// ErrInvalidArgument is returned when a required field is empty or the
// slide count is out of range.
var ErrInvalidArgument = errors.New("invalid generation request")

// Deck is the generated carousel content.
type Deck struct {
	Title  string
	Slides []string
}

// Generate builds a deck of exactly count slides for the given topic,
// target audience and tone.
func Generate(topic, target, tone string, count int) (*Deck, error) {
	topic = strings.TrimSpace(topic)
	target = strings.TrimSpace(target)
	tone = strings.TrimSpace(tone)

	if topic == "" || target == "" || tone == "" {
		return nil, fmt.Errorf("%w: topic, target and tone are required", ErrInvalidArgument)
	}
	if count < MinSlides || count > MaxSlides {
		return nil, fmt.Errorf("%w: slide count must be between %d and %d", ErrInvalidArgument, MinSlides, MaxSlides)
	}

	deck := &Deck{
		Title:  fmt.Sprintf("%s for %s", capitalize(topic), target),
		Slides: make([]string, count),
	}

	for pos := 1; pos <= count; pos++ {
		deck.Slides[pos-1] = slideFor(pos, count, topic, target, tone)
	}

	return deck, nil
}

// slideFor picks the narrative frame for a 1-based position. Role
// precedence: hook, call-to-action, first insight, myth-busting,
// consistency; everything else is the benefit filler. A one-slide deck
// collapses the hook and call-to-action into a single slide.
func slideFor(pos, count int, topic, target, tone string) string {
	switch {
	case pos == 1 && count == 1:
		return hookSlide(topic, count) + " " + ctaSlide(topic, tone)
	case pos == 1:
		return hookSlide(topic, count)
	case pos == count:
		return ctaSlide(topic, tone)
	case pos == 2:
		return fmt.Sprintf(
			"%d. The first thing to understand about %s is how it shapes your day to day. Studies show that making time for it can lift your results by up to 30%%.",
			pos, topic)
	case pos == 3:
		return fmt.Sprintf(
			"%d. A common myth about %s is that it is complicated. In reality getting started is simple: fifteen minutes a day is enough to see progress.",
			pos, topic)
	case pos == count-1:
		return fmt.Sprintf(
			"%d. Remember that consistency is the key to mastering %s. Build a routine and stick to it, even on the days motivation runs low.",
			pos, topic)
	default:
		return fmt.Sprintf(
			"%d. Bringing %s into your routine unlocks new levels of efficiency and satisfaction. Many in %s report a real difference after just 30 days.",
			pos, topic, target)
	}
}

func hookSlide(topic string, count int) string {
	return fmt.Sprintf(
		"Did you know that %s is essential for success? In this carousel we cover %d key points about %s that you need to know.",
		topic, count, topic)
}

func ctaSlide(topic, tone string) string {
	closing := "Put them into practice today and share your results in the comments!"
	if strings.EqualFold(tone, "professional") {
		closing = "Apply them this week and let us know which one moved the needle."
	}
	return fmt.Sprintf(
		"So, what did you think of these tips about %s? %s Like and save this carousel for later.",
		topic, closing)
}

// capitalize upper-cases the first rune of s.
func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Package quiz generates interactive quizzes from ingested study notes and
// runs quiz sessions with scoring.
package quiz

import (
	"fmt"
	"strings"
)

// Type identifies a question format.
type Type string

const (
	TypeMCQ       Type = "mcq"
	TypeTrueFalse Type = "true_false"
	TypeFillBlank Type = "fill_blank"
	TypeMixed     Type = "mixed"
)

// Difficulty levels accepted by the generator.
var Difficulties = []string{"easy", "medium", "hard"}

// ValidDifficulty reports whether level is a known difficulty.
func ValidDifficulty(level string) bool {
	for _, d := range Difficulties {
		if d == level {
			return true
		}
	}
	return false
}

// Question is a single quiz question of any type. Only the fields relevant
// to the Type are populated.
type Question struct {
	Type   Type
	Prompt string

	// mcq
	Options       map[string]string
	CorrectOption string

	// true_false
	CorrectBool bool

	// fill_blank
	Answer     string
	Acceptable []string
	Hint       string

	Explanation string
}

// mcqOptions is the fixed answer keyspace for multiple choice questions.
var mcqOptions = []string{"A", "B", "C", "D"}

// Check reports whether a raw user answer is correct for this question.
// MCQ answers compare case-insensitively on the option letter, true/false
// accepts true/t/false/f, and fill-in-the-blank matches any acceptable
// answer ignoring case and surrounding space.
func (q Question) Check(answer string) (bool, error) {
	answer = strings.TrimSpace(answer)
	switch q.Type {
	case TypeMCQ:
		letter := strings.ToUpper(answer)
		if !isMCQOption(letter) {
			return false, fmt.Errorf("please enter A, B, C, or D")
		}
		return letter == q.CorrectOption, nil
	case TypeTrueFalse:
		value, err := parseBoolAnswer(answer)
		if err != nil {
			return false, err
		}
		return value == q.CorrectBool, nil
	case TypeFillBlank:
		if answer == "" {
			return false, fmt.Errorf("please enter an answer")
		}
		normalized := strings.ToLower(answer)
		acceptable := q.Acceptable
		if len(acceptable) == 0 {
			acceptable = []string{q.Answer}
		}
		for _, a := range acceptable {
			if normalized == strings.ToLower(strings.TrimSpace(a)) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown question type %q", q.Type)
	}
}

// CorrectAnswer renders the correct answer for display after a miss.
func (q Question) CorrectAnswer() string {
	switch q.Type {
	case TypeMCQ:
		return fmt.Sprintf("%s) %s", q.CorrectOption, q.Options[q.CorrectOption])
	case TypeTrueFalse:
		if q.CorrectBool {
			return "True"
		}
		return "False"
	default:
		return q.Answer
	}
}

func isMCQOption(letter string) bool {
	for _, o := range mcqOptions {
		if o == letter {
			return true
		}
	}
	return false
}

func parseBoolAnswer(answer string) (bool, error) {
	switch strings.ToLower(answer) {
	case "true", "t":
		return true, nil
	case "false", "f":
		return false, nil
	default:
		return false, fmt.Errorf("please enter True/T or False/F")
	}
}

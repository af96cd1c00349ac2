package quiz

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"quizforge/internal/storage"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	questionStyle    = lipgloss.NewStyle().Bold(true)
	correctStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	incorrectStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	hintStyle        = lipgloss.NewStyle().Faint(true).Italic(true)
	explanationStyle = lipgloss.NewStyle().Faint(true)
)

// Runner plays a quiz on a terminal and records the result.
type Runner struct {
	In      io.Reader
	Out     io.Writer
	Results storage.ResultStore

	reader *bufio.Reader
}

// Run asks every question in order, scores the answers, and saves the
// result. It returns the saved result.
func (r *Runner) Run(ctx context.Context, name, topic string, questions []Question) (*storage.QuizResult, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions to run")
	}
	r.reader = bufio.NewReader(r.In)

	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, headerStyle.Render(fmt.Sprintf("STARTING: %s", name)))
	fmt.Fprintf(r.Out, "Total questions: %d\n", len(questions))

	score := 0
	for i, q := range questions {
		r.displayQuestion(q, i+1)
		answer, err := r.readAnswer(q)
		if err != nil {
			return nil, err
		}
		correct, _ := q.Check(answer)
		r.showResult(q, correct)
		if correct {
			score++
		}
	}

	result := storage.QuizResult{
		ID:         uuid.NewString(),
		Name:       name,
		Topic:      topic,
		Score:      score,
		Total:      len(questions),
		Percentage: float64(score) / float64(len(questions)) * 100,
		TakenAt:    time.Now().UTC(),
	}
	r.showFinalResults(result)

	if r.Results != nil {
		if err := r.Results.SaveResult(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to save quiz result: %w", err)
		}
	}
	return &result, nil
}

func (r *Runner) displayQuestion(q Question, number int) {
	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, headerStyle.Render(fmt.Sprintf("Question %d", number)))
	fmt.Fprintln(r.Out, questionStyle.Render(q.Prompt))

	switch q.Type {
	case TypeMCQ:
		letters := make([]string, 0, len(q.Options))
		for letter := range q.Options {
			letters = append(letters, letter)
		}
		sort.Strings(letters)
		for _, letter := range letters {
			fmt.Fprintf(r.Out, "  %s) %s\n", letter, q.Options[letter])
		}
	case TypeTrueFalse:
		fmt.Fprintln(r.Out, "  Enter True (T) or False (F)")
	case TypeFillBlank:
		if q.Hint != "" {
			fmt.Fprintln(r.Out, hintStyle.Render("  Hint: "+q.Hint))
		}
	}
}

// readAnswer prompts until the answer is well-formed for the question type.
func (r *Runner) readAnswer(q Question) (string, error) {
	for {
		fmt.Fprint(r.Out, "\nYour answer: ")
		line, err := r.reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
		answer := strings.TrimSpace(line)

		if _, checkErr := q.Check(answer); checkErr != nil {
			fmt.Fprintf(r.Out, "  %s\n", checkErr)
			if err != nil {
				return "", fmt.Errorf("failed to read answer: %w", err)
			}
			continue
		}
		return answer, nil
	}
}

func (r *Runner) showResult(q Question, correct bool) {
	if correct {
		fmt.Fprintln(r.Out, correctStyle.Render("CORRECT!"))
	} else {
		fmt.Fprintln(r.Out, incorrectStyle.Render("INCORRECT"))
		fmt.Fprintf(r.Out, "Correct answer: %s\n", q.CorrectAnswer())
	}
	if q.Explanation != "" {
		fmt.Fprintln(r.Out, explanationStyle.Render("Explanation: "+q.Explanation))
	}
}

func (r *Runner) showFinalResults(result storage.QuizResult) {
	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, headerStyle.Render("QUIZ COMPLETE: "+result.Name))
	fmt.Fprintf(r.Out, "Score: %d/%d (%.1f%%)\n", result.Score, result.Total, result.Percentage)
	fmt.Fprintln(r.Out, PerformanceMessage(result.Percentage))
}

// PerformanceMessage maps a score percentage to an encouragement line.
func PerformanceMessage(percentage float64) string {
	switch {
	case percentage >= 90:
		return "EXCELLENT! You're a star student!"
	case percentage >= 70:
		return "GOOD JOB! Keep up the great work!"
	case percentage >= 50:
		return "FAIR! Review the material and try again."
	default:
		return "KEEP TRYING! Practice makes perfect!"
	}
}

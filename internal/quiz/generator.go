package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"quizforge/internal/knowledge"
	"quizforge/internal/rag"
)

// Question generation runs hotter than answering so options vary between runs.
const generateTemperature = 0.7

const contextTopK = 5

// Generator creates quiz questions from content retrieved for a topic.
type Generator struct {
	Retriever *rag.Retriever
	Chat      knowledge.ChatModel
}

// Generate dispatches to the right question type. Mixed quizzes distribute
// the count across all three types.
func (g *Generator) Generate(ctx context.Context, quizType Type, topic string, n int, difficulty string) ([]Question, error) {
	if n <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", n)
	}
	if !ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("unknown difficulty %q (use easy, medium, or hard)", difficulty)
	}

	switch quizType {
	case TypeMCQ:
		return g.MCQ(ctx, topic, n, difficulty)
	case TypeTrueFalse:
		return g.TrueFalse(ctx, topic, n)
	case TypeFillBlank:
		return g.FillBlank(ctx, topic, n)
	case TypeMixed:
		return g.Mixed(ctx, topic, n, difficulty)
	default:
		return nil, fmt.Errorf("unknown quiz type %q", quizType)
	}
}

// MCQ generates multiple choice questions for a topic.
func (g *Generator) MCQ(ctx context.Context, topic string, n int, difficulty string) ([]Question, error) {
	contextText, err := g.topicContext(ctx, topic)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a quiz generator for students. Based on the following study notes,
create %d multiple choice questions.

STUDY NOTES:
%s

INSTRUCTIONS:
- Create %s difficulty questions
- Each question should have 4 options (A, B, C, D)
- Only one option should be correct
- Questions should test understanding, not just memorization
- Make wrong options plausible but clearly incorrect

Return the questions in this EXACT JSON format:
{
    "questions": [
        {
            "question": "Your question here?",
            "options": {
                "A": "First option",
                "B": "Second option",
                "C": "Third option",
                "D": "Fourth option"
            },
            "correct_answer": "A",
            "explanation": "Brief explanation why this is correct"
        }
    ]
}

Generate exactly %d questions. Return ONLY valid JSON.`, n, contextText, difficulty, n)

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseMCQ(raw)
}

// TrueFalse generates true/false statements for a topic.
func (g *Generator) TrueFalse(ctx context.Context, topic string, n int) ([]Question, error) {
	contextText, err := g.topicContext(ctx, topic)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a quiz generator for students. Based on the following study notes,
create %d True/False questions.

STUDY NOTES:
%s

INSTRUCTIONS:
- Create clear statements that are either true or false
- Mix true and false answers (not all same)
- Statements should be based ONLY on the provided notes
- Include some tricky but fair questions

Return in this EXACT JSON format:
{
    "questions": [
        {
            "statement": "The statement to evaluate",
            "correct_answer": true,
            "explanation": "Why this is true/false"
        }
    ]
}

Generate exactly %d questions. Return ONLY valid JSON.`, n, contextText, n)

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseTrueFalse(raw)
}

// FillBlank generates fill-in-the-blank questions for a topic.
func (g *Generator) FillBlank(ctx context.Context, topic string, n int) ([]Question, error) {
	contextText, err := g.topicContext(ctx, topic)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a quiz generator for students. Based on the following study notes,
create %d fill-in-the-blank questions.

STUDY NOTES:
%s

INSTRUCTIONS:
- Replace key terms/concepts with blanks (shown as _____)
- The blank should test important concepts
- Provide hints if the answer might be ambiguous
- Accept reasonable variations of the answer

Return in this EXACT JSON format:
{
    "questions": [
        {
            "question": "The _____ keyword declares a new variable.",
            "correct_answer": "var",
            "acceptable_answers": ["var"],
            "hint": "Three letters, also used in many other languages"
        }
    ]
}

Generate exactly %d questions. Return ONLY valid JSON.`, n, contextText, n)

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseFillBlank(raw)
}

// Mixed generates a shuffled quiz combining all question types. At least
// half the questions are multiple choice.
func (g *Generator) Mixed(ctx context.Context, topic string, n int, difficulty string) ([]Question, error) {
	numMCQ := max(1, n/2)
	numTF := max(1, (n-numMCQ)/2)
	numFill := n - numMCQ - numTF

	questions, err := g.MCQ(ctx, topic, numMCQ, difficulty)
	if err != nil {
		return nil, err
	}

	tf, err := g.TrueFalse(ctx, topic, numTF)
	if err != nil {
		return nil, err
	}
	questions = append(questions, tf...)

	if numFill > 0 {
		fill, err := g.FillBlank(ctx, topic, numFill)
		if err != nil {
			return nil, err
		}
		questions = append(questions, fill...)
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return questions, nil
}

func (g *Generator) topicContext(ctx context.Context, topic string) (string, error) {
	retriever := *g.Retriever
	if retriever.TopK <= 0 {
		retriever.TopK = contextTopK
	}
	chunks, err := retriever.Retrieve(ctx, topic)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("no relevant content found for topic %q", topic)
	}

	texts := make([]string, len(chunks))
	for i, sc := range chunks {
		texts[i] = sc.Chunk.Text
	}
	return strings.Join(texts, "\n\n"), nil
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	raw, err := g.Chat.Complete(ctx, []knowledge.Message{
		{Role: knowledge.RoleUser, Content: prompt},
	}, generateTemperature)
	if err != nil {
		return "", fmt.Errorf("failed to generate questions: %w", err)
	}
	return raw, nil
}

// jsonObject grabs the outermost JSON object so prose around the payload
// does not break parsing.
var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

func extractJSON(raw string) ([]byte, error) {
	raw = knowledge.StripCodeFence(raw)
	match := jsonObject.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON object found in model response")
	}
	return []byte(match), nil
}

func parseMCQ(raw string) ([]Question, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var out struct {
		Questions []struct {
			Question      string            `json:"question"`
			Options       map[string]string `json:"options"`
			CorrectAnswer string            `json:"correct_answer"`
			Explanation   string            `json:"explanation"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to parse questions: %w", err)
	}

	questions := make([]Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		letter := strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
		if q.Question == "" || len(q.Options) != 4 || !isMCQOption(letter) {
			continue
		}
		questions = append(questions, Question{
			Type:          TypeMCQ,
			Prompt:        q.Question,
			Options:       q.Options,
			CorrectOption: letter,
			Explanation:   q.Explanation,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned no usable questions")
	}
	return questions, nil
}

func parseTrueFalse(raw string) ([]Question, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var out struct {
		Questions []struct {
			Statement     string `json:"statement"`
			CorrectAnswer bool   `json:"correct_answer"`
			Explanation   string `json:"explanation"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to parse questions: %w", err)
	}

	questions := make([]Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		if q.Statement == "" {
			continue
		}
		questions = append(questions, Question{
			Type:        TypeTrueFalse,
			Prompt:      q.Statement,
			CorrectBool: q.CorrectAnswer,
			Explanation: q.Explanation,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned no usable questions")
	}
	return questions, nil
}

func parseFillBlank(raw string) ([]Question, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var out struct {
		Questions []struct {
			Question          string   `json:"question"`
			CorrectAnswer     string   `json:"correct_answer"`
			AcceptableAnswers []string `json:"acceptable_answers"`
			Hint              string   `json:"hint"`
			Explanation       string   `json:"explanation"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to parse questions: %w", err)
	}

	questions := make([]Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		if q.Question == "" || q.CorrectAnswer == "" {
			continue
		}
		questions = append(questions, Question{
			Type:        TypeFillBlank,
			Prompt:      q.Question,
			Answer:      q.CorrectAnswer,
			Acceptable:  q.AcceptableAnswers,
			Hint:        q.Hint,
			Explanation: q.Explanation,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned no usable questions")
	}
	return questions, nil
}

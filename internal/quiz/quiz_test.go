package quiz

import (
	"context"
	"strings"
	"testing"

	"quizforge/internal/document"
	"quizforge/internal/knowledge"
	"quizforge/internal/rag"
	"quizforge/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 2 }

type stubStore struct {
	storage.VectorStore
	chunks []storage.ScoredChunk
}

func (s *stubStore) Search(_ context.Context, _ string, _ []float32, topK int) ([]storage.ScoredChunk, error) {
	if topK < len(s.chunks) {
		return s.chunks[:topK], nil
	}
	return s.chunks, nil
}

type scriptedChat struct {
	replies []string
	prompts []string
}

func (c *scriptedChat) Complete(_ context.Context, messages []knowledge.Message, _ float64) (string, error) {
	c.prompts = append(c.prompts, messages[len(messages)-1].Content)
	reply := c.replies[0]
	if len(c.replies) > 1 {
		c.replies = c.replies[1:]
	}
	return reply, nil
}

func notesChunk(text string) storage.ScoredChunk {
	return storage.ScoredChunk{
		Chunk: document.Chunk{Text: text, Metadata: map[string]string{"source": "notes.md"}},
		Score: 0.8,
	}
}

func newGenerator(chat *scriptedChat) *Generator {
	return &Generator{
		Retriever: &rag.Retriever{
			Embedder:   stubEmbedder{},
			Store:      &stubStore{chunks: []storage.ScoredChunk{notesChunk("Variables are declared with var.")}},
			Collection: "c",
		},
		Chat: chat,
	}
}

const mcqJSON = `{
  "questions": [
    {
      "question": "Which keyword declares a variable?",
      "options": {"A": "var", "B": "def", "C": "let", "D": "dim"},
      "correct_answer": "a",
      "explanation": "var declares variables."
    }
  ]
}`

const tfJSON = `{
  "questions": [
    {"statement": "Variables are declared with var.", "correct_answer": true, "explanation": "Yes."},
    {"statement": "Variables are declared with dim.", "correct_answer": false, "explanation": "No."}
  ]
}`

const fillJSON = `{
  "questions": [
    {
      "question": "The _____ keyword declares a variable.",
      "correct_answer": "var",
      "acceptable_answers": ["var", "VAR "],
      "hint": "three letters"
    }
  ]
}`

func TestGenerator_MCQ(t *testing.T) {
	chat := &scriptedChat{replies: []string{mcqJSON}}
	g := newGenerator(chat)

	questions, err := g.MCQ(context.Background(), "variables", 1, "medium")
	require.NoError(t, err)
	require.Len(t, questions, 1)

	q := questions[0]
	assert.Equal(t, TypeMCQ, q.Type)
	assert.Equal(t, "A", q.CorrectOption)
	assert.Equal(t, "var", q.Options["A"])

	// Prompt carries the retrieved notes and the requested difficulty.
	require.Len(t, chat.prompts, 1)
	assert.Contains(t, chat.prompts[0], "Variables are declared with var.")
	assert.Contains(t, chat.prompts[0], "medium difficulty")
}

func TestGenerator_MCQ_FencedResponse(t *testing.T) {
	chat := &scriptedChat{replies: []string{"```json\n" + mcqJSON + "\n```"}}
	g := newGenerator(chat)

	questions, err := g.MCQ(context.Background(), "variables", 1, "easy")
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestGenerator_MCQ_ProseAroundJSON(t *testing.T) {
	chat := &scriptedChat{replies: []string{"Here are your questions:\n" + mcqJSON + "\nEnjoy!"}}
	g := newGenerator(chat)

	questions, err := g.MCQ(context.Background(), "variables", 1, "easy")
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestGenerator_MCQ_MalformedResponse(t *testing.T) {
	chat := &scriptedChat{replies: []string{"I cannot generate questions right now."}}
	g := newGenerator(chat)

	_, err := g.MCQ(context.Background(), "variables", 1, "easy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object")
}

func TestGenerator_TrueFalse(t *testing.T) {
	chat := &scriptedChat{replies: []string{tfJSON}}
	g := newGenerator(chat)

	questions, err := g.TrueFalse(context.Background(), "variables", 2)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.True(t, questions[0].CorrectBool)
	assert.False(t, questions[1].CorrectBool)
}

func TestGenerator_FillBlank(t *testing.T) {
	chat := &scriptedChat{replies: []string{fillJSON}}
	g := newGenerator(chat)

	questions, err := g.FillBlank(context.Background(), "variables", 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "var", questions[0].Answer)
	assert.Equal(t, "three letters", questions[0].Hint)
}

func TestGenerator_Mixed_Distribution(t *testing.T) {
	chat := &scriptedChat{replies: []string{mcqJSON, tfJSON, fillJSON}}
	g := newGenerator(chat)

	questions, err := g.Mixed(context.Background(), "variables", 5, "medium")
	require.NoError(t, err)
	// One model call per type: 2 mcq, 1 tf, 2 fill requested.
	require.Len(t, chat.prompts, 3)
	assert.Contains(t, chat.prompts[0], "create 2 multiple choice questions")
	assert.Contains(t, chat.prompts[1], "create 1 True/False questions")
	assert.Contains(t, chat.prompts[2], "create 2 fill-in-the-blank questions")
	assert.Len(t, questions, 4)
}

func TestGenerator_RejectsBadInput(t *testing.T) {
	g := newGenerator(&scriptedChat{replies: []string{mcqJSON}})

	_, err := g.Generate(context.Background(), TypeMCQ, "t", 0, "medium")
	require.Error(t, err)

	_, err = g.Generate(context.Background(), TypeMCQ, "t", 3, "impossible")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "difficulty")

	_, err = g.Generate(context.Background(), Type("essay"), "t", 3, "medium")
	require.Error(t, err)
}

func TestGenerator_EmptyCollection(t *testing.T) {
	g := &Generator{
		Retriever: &rag.Retriever{Embedder: stubEmbedder{}, Store: &stubStore{}, Collection: "c"},
		Chat:      &scriptedChat{replies: []string{mcqJSON}},
	}
	_, err := g.MCQ(context.Background(), "variables", 1, "easy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no relevant content")
}

func TestQuestionCheck(t *testing.T) {
	mcq := Question{Type: TypeMCQ, CorrectOption: "B", Options: map[string]string{"A": "x", "B": "y", "C": "z", "D": "w"}}
	ok, err := mcq.Check("b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = mcq.Check("A")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = mcq.Check("E")
	require.Error(t, err)

	tf := Question{Type: TypeTrueFalse, CorrectBool: false}
	ok, err = tf.Check("f")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = tf.Check("True")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = tf.Check("maybe")
	require.Error(t, err)

	fill := Question{Type: TypeFillBlank, Answer: "probation", Acceptable: []string{"probation", "probationary"}}
	ok, err = fill.Check("  Probationary ")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = fill.Check("trial")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = fill.Check("")
	require.Error(t, err)

	// Falls back to the canonical answer when no acceptable list is given.
	fill.Acceptable = nil
	ok, err = fill.Check("PROBATION")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQuestionCorrectAnswer(t *testing.T) {
	mcq := Question{Type: TypeMCQ, CorrectOption: "C", Options: map[string]string{"C": "slices"}}
	assert.Equal(t, "C) slices", mcq.CorrectAnswer())

	assert.Equal(t, "True", Question{Type: TypeTrueFalse, CorrectBool: true}.CorrectAnswer())
	assert.Equal(t, "var", Question{Type: TypeFillBlank, Answer: "var"}.CorrectAnswer())
}

func TestPerformanceMessage(t *testing.T) {
	assert.Contains(t, PerformanceMessage(95), "EXCELLENT")
	assert.Contains(t, PerformanceMessage(90), "EXCELLENT")
	assert.Contains(t, PerformanceMessage(75), "GOOD JOB")
	assert.Contains(t, PerformanceMessage(60), "FAIR")
	assert.Contains(t, PerformanceMessage(20), "KEEP TRYING")
}

type memoryResults struct {
	storage.ResultStore
	saved []storage.QuizResult
}

func (m *memoryResults) SaveResult(_ context.Context, result storage.QuizResult) error {
	m.saved = append(m.saved, result)
	return nil
}

func TestRunner_ScoresAndSavesResult(t *testing.T) {
	questions := []Question{
		{Type: TypeMCQ, Prompt: "Pick A", CorrectOption: "A", Options: map[string]string{"A": "right", "B": "no", "C": "no", "D": "no"}, Explanation: "A is right."},
		{Type: TypeTrueFalse, Prompt: "Water is wet.", CorrectBool: true},
		{Type: TypeFillBlank, Prompt: "The _____ keyword.", Answer: "var"},
	}

	// First MCQ answer is invalid and gets re-prompted.
	in := strings.NewReader("E\nA\nfalse\nvar\n")
	var out strings.Builder
	results := &memoryResults{}
	r := &Runner{In: in, Out: &out, Results: results}

	result, err := r.Run(context.Background(), "Mixed Quiz - variables", "variables", questions)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 3, result.Total)
	assert.InDelta(t, 66.7, result.Percentage, 0.1)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.TakenAt.IsZero())

	require.Len(t, results.saved, 1)
	assert.Equal(t, result.ID, results.saved[0].ID)

	text := out.String()
	assert.Contains(t, text, "please enter A, B, C, or D")
	assert.Contains(t, text, "CORRECT!")
	assert.Contains(t, text, "INCORRECT")
	assert.Contains(t, text, "Correct answer: True")
	assert.Contains(t, text, "Explanation: A is right.")
	assert.Contains(t, text, "Score: 2/3 (66.7%)")
}

func TestRunner_NoQuestions(t *testing.T) {
	r := &Runner{In: strings.NewReader(""), Out: &strings.Builder{}}
	_, err := r.Run(context.Background(), "Quiz", "t", nil)
	require.Error(t, err)
}

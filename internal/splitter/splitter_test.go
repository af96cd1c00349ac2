package splitter

import (
	"context"
	"strings"
	"testing"

	"quizforge/internal/document"
	"quizforge/internal/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// topicEmbedder maps sentences to one of two fixed vectors based on a keyword,
// giving the semantic splitter a clean breakpoint to find.
type topicEmbedder struct {
	keyword string
}

func (e *topicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.Contains(t, e.keyword) {
			out[i] = []float32{1, 0}
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

func (e *topicEmbedder) Dimension() int { return 2 }

type scriptedChat struct {
	reply string
}

func (c *scriptedChat) Complete(_ context.Context, _ []knowledge.Message, _ float64) (string, error) {
	return c.reply, nil
}

func TestCharacter_WindowsWithOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars, no separators
	s := NewCharacter(40, 10)
	s.Separator = ""

	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 3) // [0:40) [30:70) [60:100)
	assert.Equal(t, 40, len(chunks[0]))
	// Overlap: the tail of one window starts the next.
	assert.Equal(t, chunks[0][30:], chunks[1][:10])
}

func TestCharacter_PrefersParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("a", 150)
	para2 := strings.Repeat("b", 150)
	text := para1 + "\n\n" + para2

	s := NewCharacter(200, 0)
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, para1, chunks[0])
}

func TestCharacter_EmptyText(t *testing.T) {
	chunks, err := NewCharacter(100, 10).Split(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRecursive_SplitsAtHeadings(t *testing.T) {
	text := "# Notes\n\nIntro paragraph.\n## Leave Policy\nEmployees get 24 days of paid leave per year.\n## Remote Work\nWork from home is allowed up to 2 days per week."

	s := NewRecursive(80, 0)
	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 80)
	}
	joined := strings.Join(chunks, "\n")
	assert.Contains(t, joined, "Leave Policy")
	assert.Contains(t, joined, "Remote Work")
}

func TestRecursive_SmallTextIsSingleChunk(t *testing.T) {
	chunks, err := NewRecursive(500, 50).Split(context.Background(), "Short note.")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Short note.", chunks[0])
}

func TestRecursive_HardCutsUnbreakableRuns(t *testing.T) {
	text := strings.Repeat("x", 120) // no separators at all
	chunks, err := NewRecursive(50, 0).Split(context.Background(), text)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSemantic_SplitsAtTopicShift(t *testing.T) {
	text := "Dogs bark loudly. Dogs are loyal pets. Stock markets fell sharply today."
	s := NewSemantic(&topicEmbedder{keyword: "Dog"})

	chunks, err := s.Split(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Dogs bark loudly. Dogs are loyal pets.", chunks[0])
	assert.Equal(t, "Stock markets fell sharply today.", chunks[1])
}

func TestSemantic_SingleSentencePassthrough(t *testing.T) {
	s := NewSemantic(&topicEmbedder{keyword: "x"})
	chunks, err := s.Split(context.Background(), "Just one sentence here")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestAgentic_SplitsAtMarkers(t *testing.T) {
	s := NewAgentic(&scriptedChat{
		reply: "Machine learning basics.<<<SPLIT>>> Types of learning. <<<SPLIT>>>\n\nApplications.",
	}, 200)

	chunks, err := s.Split(context.Background(), "some long text")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Machine learning basics.", chunks[0])
	assert.Equal(t, "Types of learning.", chunks[1])
	assert.Equal(t, "Applications.", chunks[2])
}

func TestAgentic_NoMarkersIsSingleChunk(t *testing.T) {
	s := NewAgentic(&scriptedChat{reply: "all one chunk"}, 200)
	chunks, err := s.Split(context.Background(), "text")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestSplitDocument_AssignsIDsAndMetadata(t *testing.T) {
	doc := &document.Document{
		ID:       "hr_policy.md",
		Text:     strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60),
		Metadata: map[string]string{"source": "hr_policy.md"},
	}

	chunks, err := SplitDocument(context.Background(), NewRecursive(80, 0), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "hr_policy.md::chunk_0", chunks[0].ID)
	assert.Equal(t, "hr_policy.md::chunk_1", chunks[1].ID)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, "hr_policy.md", chunks[1].Metadata["source"])
	assert.Equal(t, "1", chunks[1].Metadata["chunk_index"])
}

func TestNew_StrategySelection(t *testing.T) {
	s, err := New("character", Options{Size: 100})
	require.NoError(t, err)
	assert.IsType(t, &Character{}, s)

	s, err = New("", Options{Size: 100})
	require.NoError(t, err)
	assert.IsType(t, &Recursive{}, s)

	_, err = New("semantic", Options{})
	assert.Error(t, err)

	_, err = New("agentic", Options{})
	assert.Error(t, err)

	_, err = New("quantum", Options{})
	assert.Error(t, err)
}

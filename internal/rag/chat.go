package rag

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/knowledge"
	"quizforge/internal/storage"
)

// historyWindow caps how many past messages feed the rewrite prompt.
// Four turns of user and assistant is enough to resolve pronouns.
const historyWindow = 8

const chatTopK = 3

const rewriteSystemPrompt = "You are a question rewriter for conversational chat.\n" +
	"Rewrite the user's latest question into a standalone question that includes any missing context.\n" +
	"Rules:\n" +
	"- Do NOT answer.\n" +
	"- Return ONLY the rewritten question.\n" +
	"- If already standalone, return it as-is."

const chatSystemPrompt = "You are a helpful assistant.\n" +
	"Answer ONLY using the provided documents.\n" +
	"If the answer is not found, say:\n" +
	"'I don't have enough information to answer that based on the provided documents.'\n" +
	"Keep the answer clear and short."

// Chat is a history-aware conversation over the notes. Follow-up questions
// are rewritten into standalone ones before retrieval so that "what about
// maps?" still finds the right chunks.
type Chat struct {
	Retriever *Retriever
	Model     knowledge.ChatModel

	history []knowledge.Message
}

// Turn is one answered question in a chat session.
type Turn struct {
	Question  string
	Rewritten string
	Answer    string
	Chunks    []storage.ScoredChunk
}

// Ask answers a question in the context of the conversation so far and
// appends the exchange to the history.
func (c *Chat) Ask(ctx context.Context, question string) (*Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	search, err := c.rewrite(ctx, question)
	if err != nil {
		return nil, err
	}

	retriever := *c.Retriever
	if retriever.TopK <= 0 {
		retriever.TopK = chatTopK
	}
	chunks, err := retriever.Retrieve(ctx, search)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("collection %q is empty, run ingest first", c.Retriever.Collection)
	}

	answer, err := c.answerFromChunks(ctx, question, chunks)
	if err != nil {
		return nil, err
	}

	c.history = append(c.history,
		knowledge.Message{Role: knowledge.RoleUser, Content: question},
		knowledge.Message{Role: knowledge.RoleAssistant, Content: answer},
	)

	return &Turn{Question: question, Rewritten: search, Answer: answer, Chunks: chunks}, nil
}

// History returns the conversation so far, oldest first.
func (c *Chat) History() []knowledge.Message {
	return c.history
}

// rewrite turns a follow-up question into a standalone one using recent
// history. The first question of a session is used as-is.
func (c *Chat) rewrite(ctx context.Context, question string) (string, error) {
	if len(c.history) == 0 {
		return question, nil
	}

	messages := []knowledge.Message{{Role: knowledge.RoleSystem, Content: rewriteSystemPrompt}}
	recent := c.history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	messages = append(messages, recent...)
	messages = append(messages, knowledge.Message{
		Role:    knowledge.RoleUser,
		Content: "Latest user question: " + question,
	})

	rewritten, err := c.Model.Complete(ctx, messages, answerTemperature)
	if err != nil {
		return "", fmt.Errorf("failed to rewrite question: %w", err)
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

func (c *Chat) answerFromChunks(ctx context.Context, question string, chunks []storage.ScoredChunk) (string, error) {
	docs := make([]string, len(chunks))
	for i, sc := range chunks {
		docs[i] = fmt.Sprintf("[Doc %d] %s", i+1, sc.Chunk.Text)
	}

	userPrompt := fmt.Sprintf("User question:\n%s\n\nDocuments:\n%s", question, strings.Join(docs, "\n\n"))
	answer, err := c.Model.Complete(ctx, []knowledge.Message{
		{Role: knowledge.RoleSystem, Content: chatSystemPrompt},
		{Role: knowledge.RoleUser, Content: userPrompt},
	}, answerTemperature)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

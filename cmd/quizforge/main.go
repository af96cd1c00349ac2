package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"quizforge/internal/config"
	"quizforge/internal/document"
	"quizforge/internal/ingest"
	"quizforge/internal/knowledge"
	"quizforge/internal/quiz"
	"quizforge/internal/rag"
	"quizforge/internal/splitter"
	"quizforge/internal/storage"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "quizforge",
		Short: "Turn study notes into an interactive quiz and Q&A companion",
	}
	configPath string
	dbPath     string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the local vector database (SQLite), overrides config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	quizCmd.Flags().StringVarP(&quizType, "type", "t", "mixed", "Quiz type: mcq, true_false, fill_blank, or mixed")
	quizCmd.Flags().StringVar(&quizTopic, "topic", "general overview", "Topic to quiz on")
	quizCmd.Flags().IntVarP(&quizCount, "count", "n", 5, "Number of questions")
	quizCmd.Flags().StringVar(&quizDifficulty, "difficulty", "medium", "Difficulty: easy, medium, or hard")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(historyCmd)
}

func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg, nil
}

// initStore opens the SQLite store from the effective configuration.
func initStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(cfg.Store.Path)
}

// initEmbedder builds the configured embedding provider.
func initEmbedder(ctx context.Context, cfg *config.Config) (knowledge.Embedder, error) {
	return knowledge.NewEmbedder(ctx, knowledge.Options{
		Provider:  cfg.AI.Provider,
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.Model,
		Dimension: cfg.AI.Dimension,
		BaseURL:   cfg.AI.BaseURL,
	})
}

// initChatModel builds the configured chat provider.
func initChatModel(ctx context.Context, cfg *config.Config) (knowledge.ChatModel, error) {
	return knowledge.NewChatModel(ctx, knowledge.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.ChatModel,
		BaseURL:  cfg.AI.BaseURL,
	})
}

// initRetriever wires the embedder and store into a retriever over the
// configured collection.
func initRetriever(ctx context.Context, cfg *config.Config, store storage.VectorStore) (*rag.Retriever, error) {
	embedder, err := initEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &rag.Retriever{
		Embedder:   embedder,
		Store:      store,
		Collection: cfg.Notes.Collection,
	}, nil
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [folder]",
	Short: "Load study notes from a folder into the vector database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir := cfg.Notes.Dir
		if len(args) > 0 {
			dir = args[0]
		}

		store, err := initStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		embedder, err := initEmbedder(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}

		opts := splitter.Options{Size: cfg.Chunking.Size, Overlap: cfg.Chunking.Overlap, Embedder: embedder}
		if cfg.Chunking.Strategy == "agentic" {
			chat, err := initChatModel(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to create chat model: %w", err)
			}
			opts.Chat = chat
		}
		split, err := splitter.New(cfg.Chunking.Strategy, opts)
		if err != nil {
			return err
		}

		pipeline := &ingest.Pipeline{
			Loader:   document.NewLoader(),
			Splitter: split,
			Embedder: embedder,
			Store:    store,
			Logger:   logger,
		}

		fmt.Printf("📂 Ingesting notes from: %s\n", dir)
		summary, err := pipeline.IngestFolder(cmd.Context(), dir, cfg.Notes.Collection)
		if err != nil {
			return err
		}

		fmt.Printf("🎉 Ingested %d documents as %d chunks into collection %q (db: %s)\n",
			summary.Documents, summary.Chunks, cfg.Notes.Collection, cfg.Store.Path)
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question against the ingested notes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := initStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		retriever, err := initRetriever(cmd.Context(), cfg, store)
		if err != nil {
			return err
		}
		chatModel, err := initChatModel(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to create chat model: %w", err)
		}

		question := strings.Join(args, " ")
		answerer := &rag.Answerer{Retriever: retriever, Chat: chatModel}

		fmt.Println("🔎 Searching your notes...")
		result, err := answerer.Answer(cmd.Context(), question)
		if err != nil {
			return err
		}

		fmt.Println("\n--- Retrieved Chunks (Top Matches) ---")
		fmt.Println(rag.BuildContext(result.Chunks))
		fmt.Println("\n--- Answer ---")
		fmt.Println(result.Answer)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a history-aware chat session over the ingested notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := initStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		retriever, err := initRetriever(cmd.Context(), cfg, store)
		if err != nil {
			return err
		}
		chatModel, err := initChatModel(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to create chat model: %w", err)
		}

		session := &rag.Chat{Retriever: retriever, Model: chatModel}
		return runChatLoop(cmd.Context(), session, os.Stdin, os.Stdout)
	},
}

// runChatLoop reads questions until the user quits or input ends.
func runChatLoop(ctx context.Context, session *rag.Chat, in *os.File, out *os.File) error {
	fmt.Fprintln(out, "✅ Notes chat ready. Type 'quit' to exit.")
	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, "\nYour question: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		}

		question := strings.TrimSpace(line)
		switch strings.ToLower(question) {
		case "quit", "exit", "/bye":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "":
			continue
		}

		turn, askErr := session.Ask(ctx, question)
		if askErr != nil {
			fmt.Fprintf(out, "⚠️  %v\n", askErr)
			continue
		}

		if turn.Rewritten != turn.Question {
			fmt.Fprintf(out, "🔎 Searching for: %s\n", turn.Rewritten)
		}
		fmt.Fprintf(out, "📄 Found %d relevant chunks\n", len(turn.Chunks))
		fmt.Fprintf(out, "\n✅ Answer:\n%s\n", turn.Answer)
	}
}

var (
	quizType       string
	quizTopic      string
	quizCount      int
	quizDifficulty string
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a quiz from your notes and take it interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := initStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		retriever, err := initRetriever(cmd.Context(), cfg, store)
		if err != nil {
			return err
		}
		chatModel, err := initChatModel(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to create chat model: %w", err)
		}

		generator := &quiz.Generator{Retriever: retriever, Chat: chatModel}

		fmt.Printf("🚀 Generating %s quiz on %q...\n", quizType, quizTopic)
		questions, err := generator.Generate(cmd.Context(), quiz.Type(quizType), quizTopic, quizCount, quizDifficulty)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Generated %d questions!\n", len(questions))

		runner := &quiz.Runner{In: os.Stdin, Out: os.Stdout, Results: store}
		name := fmt.Sprintf("%s quiz - %s", quizType, quizTopic)
		_, err = runner.Run(cmd.Context(), name, quizTopic, questions)
		return err
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past quiz results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := initStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		results, err := store.ListResults(cmd.Context())
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No quizzes taken yet!")
			return nil
		}

		for i, r := range results {
			fmt.Printf("%d. %s\n", i+1, r.Name)
			fmt.Printf("   Score: %d/%d (%.1f%%)\n", r.Score, r.Total, r.Percentage)
			fmt.Printf("   Date: %s\n", r.TakenAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/maheshrc27/postloom/configs"
	"github.com/maheshrc27/postloom/internal/models"
	"github.com/maheshrc27/postloom/internal/repository"
	"github.com/maheshrc27/postloom/internal/transfer"
	openai "github.com/sashabaranov/go-openai"
)

const generationSystemPrompt = `You are a LinkedIn expert who writes posts that people actually stop to read, engage with, and share.

Your style:
- Conversational and authentic
- Short sentences, like talking to a friend
- No emojis, no hashtags
- Always format with line breaks for readability

Your task:
Dynamically decide the best way to write the post based on the topic, context, persona, and goal provided.

Guidelines:
- If the structure includes anything about virality, use Hook/Value/Story/CTA and follow it closely.
- If the goal is casual sharing, keep it simple and reflective, skip hook and CTA.
- If the goal is thought leadership, go deeper, provide insights plus story plus a strong closing idea.
- If the goal is polishing, rewrite clearly while preserving the author's voice.
- Ensure clarity, flow, and authenticity.
- Always generate a ready-to-post LinkedIn text, formatted with proper line breaks.`

var lengthDescriptions = map[string]string{
	models.LengthShort:  "under 200 words - quick and punchy",
	models.LengthMedium: "200-300 words - balanced depth",
	models.LengthLong:   "300-500 words - detailed with story",
}

// quoteReplacer strips literal quotation characters from model output.
var quoteReplacer = strings.NewReplacer(`"`, "", "“", "", "”", "")

type GenerationService interface {
	Generate(ctx context.Context, userID int64, topic, length, note string) (*transfer.GeneratedPostResult, error)
	List(ctx context.Context, userID int64) ([]*models.GeneratedPost, error)
}

type generationService struct {
	cfg    config.Config
	p      repository.PostRepository
	client *openai.Client
}

func NewGenerationService(cfg config.Config, p repository.PostRepository) GenerationService {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	return &generationService{
		cfg:    cfg,
		p:      p,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// Generate builds the prompt, calls the model and persists the result. An
// unknown length category fails before any model invocation. The length bound
// itself is only a prompt hint, never enforced on the output.
func (s *generationService) Generate(ctx context.Context, userID int64, topic, length, note string) (*transfer.GeneratedPostResult, error) {
	lengthDescription, ok := lengthDescriptions[length]
	if !ok {
		err := &GenerationError{Kind: GenerationCallerError, Detail: fmt.Sprintf("invalid length value %q", length)}
		slog.Info(err.Error())
		return nil, err
	}

	prompt := fmt.Sprintf(`Topic: %s
Desired structure and end goal: %s
Length: %s

Output:
A compelling LinkedIn post that adapts dynamically to the given structure and goal.
Make it engaging, conversational, and easy to read with proper paragraph breaks.`, topic, note, lengthDescription)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.OpenAIModel,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generationSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, &GenerationError{Kind: GenerationBackendError, Detail: err.Error(), Cause: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &GenerationError{Kind: GenerationBackendError, Detail: "model returned no choices"}
	}

	generatedText := quoteReplacer.Replace(strings.TrimSpace(resp.Choices[0].Message.Content))

	post := &models.GeneratedPost{
		UserID:        userID,
		GeneratedText: generatedText,
		OriginalText:  topic,
		Length:        length,
		Note:          note,
	}

	postID, err := s.p.Create(ctx, nil, post)
	if err != nil {
		return nil, &PersistenceError{Op: "generated post insert", Cause: err}
	}

	return &transfer.GeneratedPostResult{
		PostID:        postID,
		GeneratedText: generatedText,
	}, nil
}

// List returns every post generated for the user, published or not.
func (s *generationService) List(ctx context.Context, userID int64) ([]*models.GeneratedPost, error) {
	posts, err := s.p.GetByUserID(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "generated post list", Cause: err}
	}
	return posts, nil
}

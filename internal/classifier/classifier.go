package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/kochnev/domovoy/internal/models"
)

// ApologyReply is sent when classification fails for any reason. The
// failure never reaches the caller as an error.
const ApologyReply = "Извините, я не смог обработать сообщение. Попробуйте сформулировать иначе."

// ChatCompleter is the slice of the OpenAI client the classifier needs.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Transcriber converts an audio upload into text. *openai.Client
// satisfies it.
type Transcriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Result is the tagged outcome of classification: either a parsed
// record or a conversational text reply, never both.
type Result struct {
	Record *models.Record
	Text   string
}

// IsRecord reports whether the classifier produced structured data.
func (r *Result) IsRecord() bool {
	return r.Record != nil
}

// Classifier turns free text into either a conversational reply or a
// structured record, using an LLM chat completion behind the scenes.
type Classifier struct {
	llm          ChatCompleter
	transcriber  Transcriber
	model        string
	whisperModel string
	httpClient   *http.Client
	logger       *logrus.Logger
}

// New creates a Classifier backed by the given OpenAI client.
func New(client *openai.Client, model, whisperModel string, logger *logrus.Logger) *Classifier {
	return &Classifier{
		llm:          client,
		transcriber:  client,
		model:        model,
		whisperModel: whisperModel,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}
}

// NewWithCompleter creates a Classifier with an explicit completion
// backend. Used by tests.
func NewWithCompleter(llm ChatCompleter, model string, logger *logrus.Logger) *Classifier {
	return &Classifier{llm: llm, model: model, logger: logger}
}

// payload is the JSON shape the model is instructed to produce.
type payload struct {
	Type        string `json:"type"`
	Project     string `json:"project"`
	Amount      string `json:"amount"`
	MoneySource string `json:"money_source"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Person      string `json:"person"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	ChatID      int64  `json:"telegramChatId"`
	RepeatType  string `json:"repeatType"`
	RepeatUntil string `json:"repeatUntil"`
	RemindAt    string `json:"remindAt"`
	Link        string `json:"link"`
	File        string `json:"file"`
}

// Classify sends the user's text to the model and returns a tagged
// result. Transport and parse failures degrade to a text apology.
func (c *Classifier) Classify(ctx context.Context, text string, chatID int64) *Result {
	resp, err := c.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(time.Now())},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		c.logger.WithError(err).Error("LLM classification request failed")
		return &Result{Text: ApologyReply}
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("LLM returned no choices")
		return &Result{Text: ApologyReply}
	}

	return c.parseReply(resp.Choices[0].Message.Content, chatID)
}

// parseReply decides between a structured record and a plain text
// reply. A reply shaped like a JSON object is decoded; decode failure
// falls back to returning the raw text.
func (c *Classifier) parseReply(raw string, chatID int64) *Result {
	reply := stripFences(raw)

	if !strings.HasPrefix(reply, "{") || !strings.HasSuffix(reply, "}") {
		return &Result{Text: raw}
	}

	var p payload
	if err := json.Unmarshal([]byte(reply), &p); err != nil {
		c.logger.WithError(err).Warn("LLM reply looked like JSON but failed to parse")
		return &Result{Text: raw}
	}

	kind := models.Kind(p.Type)
	if !kind.Valid() {
		c.logger.WithField("type", p.Type).Warn("LLM reply had unknown record type")
		return &Result{Text: raw}
	}

	rec := &models.Record{
		Kind:        kind,
		ChatID:      p.ChatID,
		Project:     p.Project,
		Description: p.Description,
		Amount:      p.Amount,
		MoneySource: p.MoneySource,
		Person:      p.Person,
		Status:      p.Status,
		Priority:    p.Priority,
		RepeatType:  p.RepeatType,
		Link:        p.Link,
		FileName:    p.File,
	}
	if rec.ChatID == 0 {
		rec.ChatID = chatID
	}
	if t, ok := parseWhen(p.Date); ok {
		rec.Date = t
	}
	if t, ok := parseWhen(p.RepeatUntil); ok {
		rec.RepeatUntil = &t
	}
	if t, ok := parseWhen(p.RemindAt); ok {
		rec.RemindAt = &t
	}

	return &Result{Record: rec}
}

// Transcribe downloads a Telegram voice file and runs it through
// Whisper, returning the recognized text.
func (c *Classifier) Transcribe(ctx context.Context, fileURL string) (string, error) {
	if c.transcriber == nil {
		return "", fmt.Errorf("transcription is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("create voice download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download voice file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download voice file: status %d", resp.StatusCode)
	}

	audio, err := c.transcriber.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.whisperModel,
		Reader:   resp.Body,
		FilePath: "voice.ogg",
	})
	if err != nil {
		return "", fmt.Errorf("transcribe voice: %w", err)
	}
	return audio.Text, nil
}

// stripFences removes markdown code fences the model sometimes wraps
// around JSON replies.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseWhen parses the date formats the model produces.
func parseWhen(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

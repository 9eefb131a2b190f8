package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/parttimestudent/backend/internal/config"
	"github.com/parttimestudent/backend/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Vision models tend to wrap JSON in markdown fences despite instructions.
var fenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractedSlot is one candidate timetable entry as returned by the vision
// model, times as HH:mm text.
type ExtractedSlot struct {
	DayOfWeek string `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subject   string `json:"subject"`
	IsFree    bool   `json:"isFree"`
}

// TimetableExtractor turns a timetable image into candidate slots. Any error
// is absorbed by the caller into an empty slot list.
type TimetableExtractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) ([]ExtractedSlot, error)
}

// VisionExtractor implements TimetableExtractor against a configured vision
// LLM provider.
type VisionExtractor struct {
	config *config.ExtractionConfig
}

func NewVisionExtractor(cfg *config.ExtractionConfig) *VisionExtractor {
	return &VisionExtractor{config: cfg}
}

const extractionPrompt = `Analyze this weekly timetable image and extract every time slot.
For each slot identify:
- dayOfWeek: one of Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday
- startTime: 24-hour HH:mm
- endTime: 24-hour HH:mm
- subject: the class name, or "Free" for free time
- isFree: true for free time, false for class time

Return ONLY JSON with this exact structure, no extra text:
{
  "slots": [
    {"dayOfWeek": "Monday", "startTime": "09:00", "endTime": "10:30", "subject": "Mathematics", "isFree": false},
    {"dayOfWeek": "Monday", "startTime": "10:30", "endTime": "12:00", "subject": "Free", "isFree": true}
  ]
}`

// Extract calls the configured provider with a bounded timeout and parses the
// returned JSON into slots.
func (e *VisionExtractor) Extract(ctx context.Context, image []byte, mimeType string) ([]ExtractedSlot, error) {
	timeout := time.Duration(e.config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Infof("[Extract] Using provider: %s, model: %s, image: %d bytes (%s)",
		e.config.Provider, e.config.Model, len(image), mimeType)

	var text string
	var err error
	switch e.config.Provider {
	case "openai":
		text, err = e.callOpenAI(ctx, image, mimeType)
	case "anthropic":
		text, err = e.callAnthropic(ctx, image, mimeType)
	case "ollama":
		text, err = e.callOllama(ctx, image)
	default:
		// gemini is the default, matching the deployed setup
		text, err = e.callGemini(ctx, image, mimeType)
	}
	if err != nil {
		return nil, err
	}

	slots, err := ParseSlotJSON(text)
	if err != nil {
		return nil, err
	}

	logger.Infof("[Extract] Parsed %d slots", len(slots))
	return slots, nil
}

// ParseSlotJSON parses the model's response text, tolerating markdown fences.
func ParseSlotJSON(text string) ([]ExtractedSlot, error) {
	if m := fenceRegex.FindStringSubmatch(text); len(m) == 2 {
		text = m[1]
	}
	text = strings.TrimSpace(text)

	var payload struct {
		Slots []ExtractedSlot `json:"slots"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("malformed extraction response: %w", err)
	}
	return payload.Slots, nil
}

func (e *VisionExtractor) callGemini(ctx context.Context, image []byte, mimeType string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: e.config.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := e.config.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(extractionPrompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		logger.Infof("[Extract] Gemini API error: %v", err)
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	return resp.Text(), nil
}

func (e *VisionExtractor) callOpenAI(ctx context.Context, image []byte, mimeType string) (string, error) {
	clientConfig := openai.DefaultConfig(e.config.APIKey)
	if e.config.BaseURL != "" {
		clientConfig.BaseURL = e.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	model := e.config.Model
	if model == "" {
		model = openai.GPT4o
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: extractionPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		logger.Infof("[Extract] OpenAI API error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

func (e *VisionExtractor) callAnthropic(ctx context.Context, image []byte, mimeType string) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(e.config.APIKey),
	)

	model := e.config.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	encoded := base64.StdEncoding.EncodeToString(image)

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mimeType, encoded),
				anthropic.NewTextBlock(extractionPrompt),
			),
		},
	})
	if err != nil {
		logger.Infof("[Extract] Anthropic API error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}

func (e *VisionExtractor) callOllama(ctx context.Context, image []byte) (string, error) {
	baseURL := e.config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := e.config.Model
	if model == "" {
		model = "llava"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: extractionPrompt,
				Images:  []api.ImageData{image},
			},
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		logger.Infof("[Extract] Ollama API error: %v", err)
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	return content.String(), nil
}

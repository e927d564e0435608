package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"aira-backend/internal/config"

	"github.com/sashabaranov/go-openai"
)

const (
	SystemPrompt    = "You are Aira, a calm, wise AI companion. Be practical, supportive, and concise."
	DefaultQuestion = "I feel stuck in my career. What should I do?"

	maxSpeechInput = 4096
)

var (
	ErrInvalidInput = errors.New("assistant: invalid input")
	ErrEmptyReply   = errors.New("assistant: empty reply")
)

// Client is the subset of *openai.Client the assistant calls.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

type Service struct {
	client Client
	cfg    config.OpenAIConfig
}

func NewClient(cfg config.OpenAIConfig) *openai.Client {
	return openai.NewClient(cfg.APIKey)
}

func NewService(client Client, cfg config.OpenAIConfig) *Service {
	return &Service{client: client, cfg: cfg}
}

// Ask sends one question under the Aira persona and returns the reply text.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		question = DefaultQuestion
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe runs speech-to-text over audio. filename only supplies the
// extension the upstream uses to detect the format.
func (s *Service) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if audio == nil {
		return "", fmt.Errorf("%w: audio required", ErrInvalidInput)
	}
	if filepath.Ext(filename) == "" {
		filename = "audio.webm"
	}
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.cfg.STTModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return resp.Text, nil
}

// Speak returns an mp3 stream for text. The caller closes it.
func (s *Service) Speak(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text required", ErrInvalidInput)
	}
	if len(text) > maxSpeechInput {
		return nil, fmt.Errorf("%w: text longer than %d characters", ErrInvalidInput, maxSpeechInput)
	}
	if voice = strings.TrimSpace(voice); voice == "" {
		voice = s.cfg.TTSVoice
	}
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.cfg.TTSModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	return resp.ReadCloser, nil
}

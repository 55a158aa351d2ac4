package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mtsuji/kanban-board-api/internal/constants"
	"github.com/mtsuji/kanban-board-api/internal/models"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
)

type AIService struct {
	client *openai.Client
}

type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// GenerateTasksFromText extracts task suggestions from free text. Callers
// persist accepted suggestions as draft tasks, so nothing generated here ever
// takes a partition slot until a user publishes it.
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	currentTime := time.Now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of the extracted tasks in this shape:
[
  {
    "title": "short task title",
    "description": "task details",
    "due_date": "deadline in ISO8601 (e.g. 2025-10-28T23:59:59Z), or null if none is stated"
  }
]

Rules:
- Return an empty array [] when the text contains no tasks
- Resolve relative deadlines ("tomorrow", "next week") to concrete datetimes
- due_date must be an ISO8601 string or null
- Return JSON only, no commentary`, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// GenerateDrafts runs extraction and persists the usable suggestions as draft
// tasks on the given board.
func (s *TaskService) GenerateDrafts(ctx context.Context, ai *AIService, text string, boardID, creatorID uint64) ([]models.Task, error) {
	suggestions, err := ai.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(suggestions) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	drafts := make([]models.Task, 0, len(suggestions))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, suggestion := range suggestions {
		if strings.TrimSpace(suggestion.Title) == "" {
			continue
		}
		if suggestion.DueDate != nil && suggestion.DueDate.Before(cutoff) {
			suggestion.DueDate = nil
		}

		task, err := s.CreateTask(CreateTaskInput{
			Title:       suggestion.Title,
			Description: suggestion.Description,
			Stack:       models.StackTodo,
			BoardID:     boardID,
			DueDate:     suggestion.DueDate,
			CreatorID:   creatorID,
			Draft:       true,
		})
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *task)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}

	return drafts, nil
}

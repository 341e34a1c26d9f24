package app

import (
	"context"
	"fmt"
	"strings"

	"trivia-events-service/internal/domain"
)

// defaultTimeChallengeSeconds applies to time_challenge nodes that leave the limit unset.
const defaultTimeChallengeSeconds = 60

// NodeContent is the playable content of one node. Exactly one of Questions or Vote is
// meaningful, depending on Type.
type NodeContent struct {
	NodeIndex int               `json:"nodeIndex"`
	Type      domain.NodeType   `json:"type"`
	Questions []domain.Question `json:"questions,omitempty"`
	TimeLimit int               `json:"timeLimit"`
	Vote      *VoteView         `json:"vote,omitempty"`
}

// VoteView is the content of a vote node for one user.
type VoteView struct {
	Question   string              `json:"question"`
	Options    []domain.VoteOption `json:"options"`
	UserVote   *string             `json:"userVote"`
	Stats      []domain.OptionStat `json:"stats"`
	TotalVotes int                 `json:"totalVotes"`
}

// NodeQuestions builds the content of node index. The order of questions only depends on
// the event's weekKey and the node index, so every user and every reload sees the same order.
func (s *EventService) NodeQuestions(ctx context.Context, userID string, index int) (NodeContent, error) {
	event, err := s.ActiveEvent(ctx)
	if err != nil {
		return NodeContent{}, err
	}
	node, err := event.Node(index)
	if err != nil {
		return NodeContent{}, err
	}
	content := NodeContent{NodeIndex: index, Type: node.Type}

	switch cfg := node.Config.(type) {
	case domain.QuizConfig:
		questions, err := s.quizQuestions(ctx, cfg)
		if err != nil {
			return NodeContent{}, err
		}
		content.Questions = SelectQuestions(questions, event.WeekKey, index, cfg.Limit())
		content.TimeLimit = cfg.TimeLimitSeconds
		if content.TimeLimit == 0 && node.Type == domain.NodeTimeChallenge {
			content.TimeLimit = defaultTimeChallengeSeconds
		}
	case domain.EmojiConfig:
		puzzles := ShuffleSeeded(cfg.Puzzles, EmojiSeedKey(event.WeekKey, index))
		content.Questions = make([]domain.Question, 0, len(puzzles))
		for _, p := range puzzles {
			content.Questions = append(content.Questions, emojiQuestion(p))
		}
	case domain.QuoteConfig:
		quotes := ShuffleSeeded(cfg.Quotes, SeedKey(event.WeekKey, index))
		content.Questions = make([]domain.Question, 0, len(quotes))
		for _, q := range quotes {
			content.Questions = append(content.Questions, quoteQuestion(q))
		}
	case domain.VoteConfig:
		view, err := s.voteView(ctx, userID, event.ID, index, cfg)
		if err != nil {
			return NodeContent{}, err
		}
		content.Vote = &view
	default:
		return NodeContent{}, fmt.Errorf("%w: node %d", domain.ErrInvalidNodeConfig, index)
	}
	return content, nil
}

// SelectQuestions shuffles candidates with the node seed and keeps the first limit.
func SelectQuestions(candidates []domain.Question, weekKey string, index, limit int) []domain.Question {
	shuffled := ShuffleSeeded(candidates, SeedKey(weekKey, index))
	if limit > 0 && len(shuffled) > limit {
		shuffled = shuffled[:limit]
	}
	return shuffled
}

// quizQuestions gathers the candidate pool of a quiz node in config order, deduplicated by ID.
func (s *EventService) quizQuestions(ctx context.Context, cfg domain.QuizConfig) ([]domain.Question, error) {
	seen := make(map[string]struct{})
	var out []domain.Question
	for _, quizID := range cfg.QuizIDs {
		quiz, err := s.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("quiz %s: %w", quizID, err)
		}
		for _, q := range quiz.Questions {
			if !matchesDifficulty(q, cfg.Difficulty) {
				continue
			}
			if cfg.QuestionType != "" && !strings.EqualFold(q.Type, cfg.QuestionType) {
				continue
			}
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
			out = append(out, q)
		}
	}
	return out, nil
}

func matchesDifficulty(q domain.Question, difficulty string) bool {
	if difficulty == "" || strings.EqualFold(difficulty, "mixed") {
		return true
	}
	return strings.EqualFold(q.Difficulty, difficulty)
}

func emojiQuestion(p domain.EmojiPuzzle) domain.Question {
	return domain.Question{
		ID:      p.ID,
		Prompt:  p.Emojis,
		Options: choiceOptions(p.ID, p.Options, p.Answer),
		Points:  1,
		Type:    string(domain.NodeEmojiPuzzle),
		Hint:    p.Hint,
	}
}

func quoteQuestion(q domain.Quote) domain.Question {
	return domain.Question{
		ID:      q.ID,
		Prompt:  q.Text,
		Options: choiceOptions(q.ID, q.Options, q.Author),
		Points:  1,
		Type:    string(domain.NodeQuoteGuess),
	}
}

// choiceOptions turns inline string choices into options, adding the answer when the
// configured choices omit it.
func choiceOptions(id string, choices []string, answer string) []domain.Option {
	options := make([]domain.Option, 0, len(choices)+1)
	hasAnswer := false
	for i, c := range choices {
		correct := c == answer
		hasAnswer = hasAnswer || correct
		options = append(options, domain.Option{
			ID:      fmt.Sprintf("%s-%d", id, i),
			Text:    c,
			Correct: correct,
		})
	}
	if !hasAnswer {
		options = append(options, domain.Option{
			ID:      fmt.Sprintf("%s-%d", id, len(choices)),
			Text:    answer,
			Correct: true,
		})
	}
	return options
}

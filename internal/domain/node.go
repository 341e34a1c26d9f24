package domain

import (
	"encoding/json"
	"fmt"
)

// NodeType is the closed set of node kinds a weekly event path can contain.
type NodeType string

const (
	NodeMiniQuiz        NodeType = "mini_quiz"
	NodeTimeChallenge   NodeType = "time_challenge"
	NodeTrueFalseSprint NodeType = "true_false_sprint"
	NodeSurvival        NodeType = "survival"
	NodeMixedGauntlet   NodeType = "mixed_gauntlet"
	NodeEmojiPuzzle     NodeType = "emoji_puzzle"
	NodeQuoteGuess      NodeType = "quote_guess"
	NodeVote            NodeType = "vote"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeMiniQuiz, NodeTimeChallenge, NodeTrueFalseSprint, NodeSurvival, NodeMixedGauntlet,
		NodeEmojiPuzzle, NodeQuoteGuess, NodeVote:
		return true
	}
	return false
}

// QuizSourced reports whether the node draws its questions from the quiz bank.
func (t NodeType) QuizSourced() bool {
	switch t {
	case NodeMiniQuiz, NodeTimeChallenge, NodeTrueFalseSprint, NodeSurvival, NodeMixedGauntlet:
		return true
	}
	return false
}

// NodeConfig is the per-type content of a node. The set of implementations is closed:
// QuizConfig, EmojiConfig, QuoteConfig and VoteConfig.
type NodeConfig interface {
	accepts(t NodeType) bool
}

// DefaultTotalQuestions is used when a quiz node does not set TotalQuestions.
const DefaultTotalQuestions = 10

// QuizConfig selects questions from one or more quizzes in the bank.
type QuizConfig struct {
	QuizIDs          []string `json:"quizIds" bson:"quizIds" validate:"required,min=1,dive,required"`
	Difficulty       string   `json:"difficulty,omitempty" bson:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard mixed"`
	QuestionType     string   `json:"questionType,omitempty" bson:"questionType,omitempty"`
	TotalQuestions   int      `json:"totalQuestions,omitempty" bson:"totalQuestions,omitempty" validate:"gte=0"`
	TimeLimitSeconds int      `json:"timeLimit,omitempty" bson:"timeLimit,omitempty" validate:"gte=0"`
}

func (QuizConfig) accepts(t NodeType) bool { return t.QuizSourced() }

// Limit returns the number of questions served for the node.
func (c QuizConfig) Limit() int {
	if c.TotalQuestions <= 0 {
		return DefaultTotalQuestions
	}
	return c.TotalQuestions
}

// EmojiPuzzle is a phrase encoded as emojis.
type EmojiPuzzle struct {
	ID      string   `json:"id" bson:"id" validate:"required"`
	Emojis  string   `json:"emojis" bson:"emojis" validate:"required"`
	Answer  string   `json:"answer" bson:"answer" validate:"required"`
	Options []string `json:"options,omitempty" bson:"options,omitempty"`
	Hint    string   `json:"hint,omitempty" bson:"hint,omitempty"`
}

// EmojiConfig carries inline emoji puzzles.
type EmojiConfig struct {
	Puzzles []EmojiPuzzle `json:"puzzles" bson:"puzzles" validate:"required,min=1,dive"`
}

func (EmojiConfig) accepts(t NodeType) bool { return t == NodeEmojiPuzzle }

// Quote is a line to attribute to its author.
type Quote struct {
	ID      string   `json:"id" bson:"id" validate:"required"`
	Text    string   `json:"text" bson:"text" validate:"required"`
	Author  string   `json:"author" bson:"author" validate:"required"`
	Options []string `json:"options,omitempty" bson:"options,omitempty"`
}

// QuoteConfig carries inline quotes.
type QuoteConfig struct {
	Quotes []Quote `json:"quotes" bson:"quotes" validate:"required,min=1,dive"`
}

func (QuoteConfig) accepts(t NodeType) bool { return t == NodeQuoteGuess }

// VoteOption is one choice of a community vote.
type VoteOption struct {
	ID    string `json:"id" bson:"id" validate:"required"`
	Text  string `json:"text" bson:"text" validate:"required"`
	Emoji string `json:"emoji,omitempty" bson:"emoji,omitempty"`
}

// VoteConfig is a community poll.
type VoteConfig struct {
	Question string       `json:"question" bson:"question" validate:"required"`
	Options  []VoteOption `json:"options" bson:"options" validate:"required,min=2,dive"`
}

func (VoteConfig) accepts(t NodeType) bool { return t == NodeVote }

// Option looks up a vote option by ID.
func (c VoteConfig) Option(id string) (VoteOption, bool) {
	for _, opt := range c.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return VoteOption{}, false
}

// Node is one step of a weekly event path.
type Node struct {
	Index            int        `json:"index"`
	Type             NodeType   `json:"type"`
	Title            string     `json:"title,omitempty"`
	CompletionReward Reward     `json:"completionReward"`
	Config           NodeConfig `json:"config" validate:"-"`
}

type nodeJSON struct {
	Index            int             `json:"index"`
	Type             NodeType        `json:"type"`
	Title            string          `json:"title,omitempty"`
	CompletionReward Reward          `json:"completionReward"`
	Config           json.RawMessage `json:"config"`
}

// UnmarshalJSON decodes the config variant selected by the node type.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cfg, err := DecodeNodeConfig(raw.Type, func(target any) error {
		if len(raw.Config) == 0 || string(raw.Config) == "null" {
			return nil
		}
		return json.Unmarshal(raw.Config, target)
	})
	if err != nil {
		return err
	}
	*n = Node{
		Index:            raw.Index,
		Type:             raw.Type,
		Title:            raw.Title,
		CompletionReward: raw.CompletionReward,
		Config:           cfg,
	}
	return nil
}

// DecodeNodeConfig builds the config variant for t, filling it through decode.
// Storage layers pass their own decoder (JSON, BSON).
func DecodeNodeConfig(t NodeType, decode func(target any) error) (NodeConfig, error) {
	switch {
	case t.QuizSourced():
		var c QuizConfig
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidNodeConfig, t, err)
		}
		return c, nil
	case t == NodeEmojiPuzzle:
		var c EmojiConfig
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidNodeConfig, t, err)
		}
		return c, nil
	case t == NodeQuoteGuess:
		var c QuoteConfig
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidNodeConfig, t, err)
		}
		return c, nil
	case t == NodeVote:
		var c VoteConfig
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidNodeConfig, t, err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown node type %q", ErrInvalidNodeConfig, t)
}

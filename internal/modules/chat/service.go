// README: Chat service; knowledge-base lookup, AI fallback, and answer curation.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"aieats/internal/modules/user"
	"aieats/internal/types"
)

var (
	ErrNotFound     = errors.New("chat record not found")
	ErrUnauthorized = errors.New("caller is not allowed to perform this action")
	ErrValidation   = errors.New("invalid chat input")
	ErrUnavailable  = errors.New("chat assistant is currently unavailable")
)

// fallbackAnswer is returned when neither the knowledge base nor the
// generator can produce a reply.
const fallbackAnswer = "Sorry, I don't have an answer for that yet. " +
	"Please reach out to support and we'll get back to you."

// Health is the injected on/off switch for the assistant. Managers can
// toggle it at runtime without restarting the process.
type Health struct {
	available atomic.Bool
}

func NewHealth(available bool) *Health {
	h := &Health{}
	h.available.Store(available)
	return h
}

func (h *Health) Available() bool     { return h.available.Load() }
func (h *Health) SetAvailable(v bool) { h.available.Store(v) }

// Generator produces an answer when the knowledge base has no match.
type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// Cache is an optional read-through cache over resolved answers.
type Cache interface {
	Get(ctx context.Context, question string) (text string, source Source, ok bool)
	Set(ctx context.Context, question, text string, source Source)
}

// Directory is the slice of the user service the chat flow needs.
type Directory interface {
	Get(ctx context.Context, id types.ID) (*user.User, error)
}

type Store interface {
	CreateEntry(ctx context.Context, e *Entry) error
	UpdateEntry(ctx context.Context, e *Entry) error
	GetEntry(ctx context.Context, id types.ID) (*Entry, error)
	ListEntries(ctx context.Context) ([]Entry, error)

	CreateAnswer(ctx context.Context, a *Answer) error
	GetAnswer(ctx context.Context, id types.ID) (*Answer, error)
	SetRating(ctx context.Context, id types.ID, rating int) error
	SetFlag(ctx context.Context, id types.ID, flagged bool, reason string) error
	ListFlagged(ctx context.Context) ([]Answer, error)
}

type Service struct {
	store     Store
	directory Directory
	generator Generator
	health    *Health
	cache     Cache
}

func NewService(store Store, directory Directory, generator Generator, health *Health, cache Cache) *Service {
	return &Service{
		store:     store,
		directory: directory,
		generator: generator,
		health:    health,
		cache:     cache,
	}
}

// Ask answers a question from the knowledge base first, then the generator.
// When both come up empty a canned fallback is returned rather than an
// error; only the health gate makes Ask fail.
func (s *Service) Ask(ctx context.Context, userID types.ID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrValidation
	}
	if !s.health.Available() {
		return nil, ErrUnavailable
	}

	text, source := s.resolve(ctx, question)
	a := &Answer{
		ID:       types.NewID(),
		UserID:   userID,
		Question: question,
		Text:     text,
		Source:   source,
	}
	if err := s.store.CreateAnswer(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) resolve(ctx context.Context, question string) (string, Source) {
	normalized := strings.ToLower(question)

	if s.cache != nil {
		if text, source, ok := s.cache.Get(ctx, normalized); ok {
			return text, source
		}
	}

	if entry := s.matchEntry(ctx, normalized); entry != nil {
		if s.cache != nil {
			s.cache.Set(ctx, normalized, entry.Answer, SourceKB)
		}
		return entry.Answer, SourceKB
	}

	if s.generator != nil {
		if text, err := s.generator.Generate(ctx, question); err == nil {
			if s.cache != nil {
				s.cache.Set(ctx, normalized, text, SourceAI)
			}
			return text, SourceAI
		}
	}
	// fallback answers are not cached: the next ask should retry the
	// generator
	return fallbackAnswer, SourceFallback
}

// matchEntry picks the entry with the most keyword hits; a substring match
// on the stored question counts as a hit too.
func (s *Service) matchEntry(ctx context.Context, normalized string) *Entry {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil
	}
	var best *Entry
	bestScore := 0
	for i := range entries {
		e := &entries[i]
		score := 0
		for _, kw := range e.Keywords {
			if kw != "" && strings.Contains(normalized, strings.ToLower(kw)) {
				score++
			}
		}
		if q := strings.ToLower(strings.TrimSpace(e.Question)); q != "" && strings.Contains(normalized, q) {
			score++
		}
		if score > bestScore {
			best = e
			bestScore = score
		}
	}
	return best
}

// Rate records a 0 to 5 rating from the user the answer was given to.
// Ratings of 0 or 1 flag the answer for manager review automatically.
func (s *Service) Rate(ctx context.Context, userID, answerID types.ID, rating int) error {
	if rating < 0 || rating > 5 {
		return ErrValidation
	}
	a, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return ErrUnauthorized
	}
	if err := s.store.SetRating(ctx, answerID, rating); err != nil {
		return err
	}
	if rating <= 1 && !a.Flagged {
		return s.store.SetFlag(ctx, answerID, true, "rated unhelpful")
	}
	return nil
}

// Flag marks an answer for manager review with a mandatory reason.
func (s *Service) Flag(ctx context.Context, userID, answerID types.ID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrValidation
	}
	a, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return ErrUnauthorized
	}
	return s.store.SetFlag(ctx, answerID, true, reason)
}

// FlaggedAnswers lists the review queue for a manager.
func (s *Service) FlaggedAnswers(ctx context.Context, managerID types.ID) ([]Answer, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}
	return s.store.ListFlagged(ctx)
}

type EntryCommand struct {
	Question string
	Answer   string
	Keywords []string
}

// AddEntry creates a knowledge-base entry.
func (s *Service) AddEntry(ctx context.Context, managerID types.ID, cmd EntryCommand) (*Entry, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Question) == "" || strings.TrimSpace(cmd.Answer) == "" {
		return nil, ErrValidation
	}
	e := &Entry{
		ID:       types.NewID(),
		Question: cmd.Question,
		Answer:   cmd.Answer,
		Keywords: cmd.Keywords,
	}
	if err := s.store.CreateEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEntry rewrites an existing knowledge-base entry.
func (s *Service) UpdateEntry(ctx context.Context, managerID, entryID types.ID, cmd EntryCommand) (*Entry, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}
	e, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Question) == "" || strings.TrimSpace(cmd.Answer) == "" {
		return nil, ErrValidation
	}
	e.Question = cmd.Question
	e.Answer = cmd.Answer
	e.Keywords = cmd.Keywords
	if err := s.store.UpdateEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Entries lists the knowledge base for a manager.
func (s *Service) Entries(ctx context.Context, managerID types.ID) ([]Entry, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx)
}

// Correct folds a manager's corrected answer for a flagged reply into the
// knowledge base and clears the flag. Future asks of the same question hit
// the new entry.
func (s *Service) Correct(ctx context.Context, managerID, answerID types.ID, corrected string, keywords []string) (*Entry, error) {
	if err := s.requireManager(ctx, managerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(corrected) == "" {
		return nil, ErrValidation
	}
	a, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if !a.Flagged {
		return nil, ErrValidation
	}
	e := &Entry{
		ID:       types.NewID(),
		Question: a.Question,
		Answer:   corrected,
		Keywords: keywords,
	}
	if err := s.store.CreateEntry(ctx, e); err != nil {
		return nil, err
	}
	if err := s.store.SetFlag(ctx, answerID, false, ""); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, strings.ToLower(a.Question), corrected, SourceKB)
	}
	return e, nil
}

// SetAvailability flips the assistant's health gate.
func (s *Service) SetAvailability(ctx context.Context, managerID types.ID, available bool) error {
	if err := s.requireManager(ctx, managerID); err != nil {
		return err
	}
	s.health.SetAvailable(available)
	return nil
}

func (s *Service) requireManager(ctx context.Context, id types.ID) error {
	u, err := s.directory.Get(ctx, id)
	if err != nil {
		return ErrUnauthorized
	}
	if u.Role.Kind != user.RoleManager || u.Status != user.StatusActive {
		return ErrUnauthorized
	}
	return nil
}

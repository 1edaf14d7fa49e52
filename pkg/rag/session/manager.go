package session

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"legal-rag-be/internal/entity"
	"legal-rag-be/internal/pkg/logger"
	"legal-rag-be/internal/repository/memory"

	"github.com/google/uuid"
)

const logModule = "SESSION"

// Manager owns every conversation of the process. Operations on different
// sessions never contend; operations on one session are serialized by its
// record lock, and Lock serializes whole exchanges.
type Manager struct {
	repo   *memory.SessionRepository
	logger logger.ILogger
	now    func() time.Time
}

func NewManager(repo *memory.SessionRepository, log logger.ILogger) *Manager {
	return &Manager{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

func (m *Manager) CreateSession(title string) entity.Session {
	title = strings.TrimSpace(title)
	if title == "" {
		title = entity.DefaultSessionTitle
	}

	now := m.now()
	record := memory.NewSessionRecord(entity.Session{
		Id:        uuid.NewString(),
		Title:     title,
		Messages:  []entity.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	m.repo.Save(record)

	m.logger.Info(logModule, "Session created", map[string]interface{}{
		"session_id": record.Session.Id,
		"title":      title,
	})
	return snapshot(record)
}

func (m *Manager) GetSession(id string) (entity.Session, error) {
	record, err := m.record(id)
	if err != nil {
		return entity.Session{}, err
	}
	return snapshot(record), nil
}

func (m *Manager) AppendUserMessage(id, content string) error {
	return m.update(id, func(record *memory.SessionRecord, now time.Time) {
		record.Session.Messages = append(record.Session.Messages, entity.Message{
			Role:      entity.RoleUser,
			Content:   content,
			Timestamp: now,
		})
		record.Session.Metadata.QuestionCount++
	})
}

// AppendAssistantMessage records an answer and its sources. DocumentCount
// tracks the distinct filenames cited over the whole session.
func (m *Manager) AppendAssistantMessage(id, content string, sources []entity.Source) error {
	return m.update(id, func(record *memory.SessionRecord, now time.Time) {
		record.Session.Messages = append(record.Session.Messages, entity.Message{
			Role:      entity.RoleAssistant,
			Content:   content,
			Timestamp: now,
			Sources:   slices.Clone(sources),
		})
		for _, s := range sources {
			record.CitedDocuments[s.Filename] = struct{}{}
		}
		record.Session.Metadata.DocumentCount = len(record.CitedDocuments)
	})
}

// GetContext returns the most recent max messages in arrival order.
func (m *Manager) GetContext(id string, max int) ([]entity.Message, error) {
	record, err := m.record(id)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		return []entity.Message{}, nil
	}

	record.Mu.Lock()
	defer record.Mu.Unlock()

	msgs := record.Session.Messages
	if len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	return cloneMessages(msgs), nil
}

func (m *Manager) DeleteSession(id string) error {
	if !m.repo.Delete(id) {
		return fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	m.logger.Info(logModule, "Session deleted", map[string]interface{}{"session_id": id})
	return nil
}

// ListSessions returns summaries, most recently updated first.
func (m *Manager) ListSessions() []entity.SessionSummary {
	records := m.repo.List()
	summaries := make([]entity.SessionSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, summarize(record))
	}
	slices.SortFunc(summaries, func(a, b entity.SessionSummary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})
	return summaries
}

func (m *Manager) Summary(id string) (entity.SessionSummary, error) {
	record, err := m.record(id)
	if err != nil {
		return entity.SessionSummary{}, err
	}
	return summarize(record), nil
}

// ExportJSON serializes the session as a plain record. Nothing reads it back.
func (m *Manager) ExportJSON(id string) ([]byte, error) {
	s, err := m.GetSession(id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s, "", "  ")
}

// ExportQAPairs pairs every user message with the assistant message that
// directly follows it. An unanswered question is left out.
func (m *Manager) ExportQAPairs(id string) ([]entity.QAPair, error) {
	s, err := m.GetSession(id)
	if err != nil {
		return nil, err
	}

	pairs := []entity.QAPair{}
	for i := 0; i+1 < len(s.Messages); i++ {
		q, a := s.Messages[i], s.Messages[i+1]
		if q.Role != entity.RoleUser || a.Role != entity.RoleAssistant {
			continue
		}
		sources := a.Sources
		if sources == nil {
			sources = []entity.Source{}
		}
		pairs = append(pairs, entity.QAPair{Question: q.Content, Answer: a.Content, Sources: sources})
	}
	return pairs, nil
}

// Lock claims the session for one exchange. Callers must call the returned
// function when done. It fails with the context error if ctx ends first, and
// with ErrSessionNotFound if the session is deleted while waiting.
func (m *Manager) Lock(ctx context.Context, id string) (func(), error) {
	record, err := m.record(id)
	if err != nil {
		return nil, err
	}

	select {
	case record.Turn <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	unlock := func() { <-record.Turn }
	if current, ok := m.repo.Get(id); !ok || current != record {
		unlock()
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	return unlock, nil
}

func (m *Manager) record(id string) (*memory.SessionRecord, error) {
	record, ok := m.repo.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionNotFound, id)
	}
	return record, nil
}

func (m *Manager) update(id string, apply func(record *memory.SessionRecord, now time.Time)) error {
	record, err := m.record(id)
	if err != nil {
		return err
	}

	record.Mu.Lock()
	now := m.now()
	apply(record, now)
	record.Session.UpdatedAt = now
	record.Mu.Unlock()

	m.repo.Touch(record)
	return nil
}

func snapshot(record *memory.SessionRecord) entity.Session {
	record.Mu.Lock()
	defer record.Mu.Unlock()

	s := record.Session
	s.Messages = cloneMessages(record.Session.Messages)
	return s
}

func summarize(record *memory.SessionRecord) entity.SessionSummary {
	record.Mu.Lock()
	defer record.Mu.Unlock()

	s := record.Session
	summary := entity.SessionSummary{
		Id:            s.Id,
		Title:         s.Title,
		MessageCount:  len(s.Messages),
		QuestionCount: s.Metadata.QuestionCount,
		DocumentCount: s.Metadata.DocumentCount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if n := len(s.Messages); n > 0 {
		summary.LastMessage = s.Messages[n-1].Content
	}
	return summary
}

func cloneMessages(msgs []entity.Message) []entity.Message {
	out := make([]entity.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg
		out[i].Sources = slices.Clone(msg.Sources)
	}
	return out
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/ecnal/moxiworks-platform/internal/events"
	"github.com/ecnal/moxiworks-platform/internal/models"
	"github.com/ecnal/moxiworks-platform/pkg/platform"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActionLogPlatform is the part of *platform.Client the service needs.
type ActionLogPlatform interface {
	CreateActionLog(ctx context.Context, p platform.CreateActionLogParams) (*platform.ActionLog, error)
	SearchActionLogs(ctx context.Context, p platform.SearchActionLogParams) (*platform.ResponseArray[platform.Action], error)
}

type Journal interface {
	Create(ctx context.Context, e *models.JournalEntry) error
	MarkSent(ctx context.Context, id uuid.UUID, agentUUID *string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	ListByContact(ctx context.Context, partnerContactID string, limit, offset int) ([]models.JournalEntry, error)
}

type SearchCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Caller identifies who asked the bridge to act.
type Caller struct {
	ID        uuid.UUID
	Service   string
	RequestID string
}

// SearchResult is a search answer as the bridge returns it.
type SearchResult struct {
	PageNumber int               `json:"page_number"`
	TotalPages int               `json:"total_pages"`
	Actions    []platform.Action `json:"actions"`
	Cached     bool              `json:"cached"`
}

type ActionLogService struct {
	platform  ActionLogPlatform
	journal   Journal
	cache     SearchCache
	publisher events.Publisher
	cacheTTL  time.Duration
	log       *zap.Logger
}

func NewActionLogService(
	p ActionLogPlatform,
	journal Journal,
	cache SearchCache,
	publisher events.Publisher,
	cacheTTL time.Duration,
	log *zap.Logger,
) *ActionLogService {
	return &ActionLogService{
		platform:  p,
		journal:   journal,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// Create forwards a new ActionLog to the Platform and journals the attempt.
// Parameter errors are returned before anything is journaled.
func (s *ActionLogService) Create(ctx context.Context, caller Caller, p platform.CreateActionLogParams) (*platform.ActionLog, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	entry := &models.JournalEntry{
		RequestID:        caller.RequestID,
		CallerService:    caller.Service,
		MoxiWorksAgentID: p.MoxiWorksAgentID,
		PartnerContactID: p.PartnerContactID,
		Title:            p.Title,
		Body:             p.Body,
	}
	if caller.ID != uuid.Nil {
		entry.CallerID = &caller.ID
	}
	journaled := true
	if err := s.journal.Create(ctx, entry); err != nil {
		journaled = false
		s.log.Error("failed to journal action log", zap.String("request_id", caller.RequestID), zap.Error(err))
	}

	created, err := s.platform.CreateActionLog(ctx, p)
	if err != nil {
		if journaled {
			if jerr := s.journal.MarkFailed(ctx, entry.ID, err.Error()); jerr != nil {
				s.log.Error("failed to mark journal entry failed", zap.String("journal_id", entry.ID.String()), zap.Error(jerr))
			}
		}
		s.publish(ctx, events.EventActionLogFailed, map[string]any{
			"request_id":          caller.RequestID,
			"moxi_works_agent_id": p.MoxiWorksAgentID,
			"partner_contact_id":  p.PartnerContactID,
			"error":               err.Error(),
		})
		return nil, err
	}

	if journaled {
		var agentUUID *string
		if created.AgentUUID != "" {
			agentUUID = &created.AgentUUID
		}
		if jerr := s.journal.MarkSent(ctx, entry.ID, agentUUID); jerr != nil {
			s.log.Error("failed to mark journal entry sent", zap.String("journal_id", entry.ID.String()), zap.Error(jerr))
		}
	}

	if s.cache != nil {
		keys := invalidationKeys(p, created)
		if err := s.cache.Delete(ctx, keys...); err != nil {
			s.log.Warn("failed to invalidate search cache", zap.Strings("keys", keys), zap.Error(err))
		}
	}

	s.publish(ctx, events.EventActionLogCreated, map[string]any{
		"request_id":          caller.RequestID,
		"moxi_works_agent_id": created.MoxiWorksAgentID,
		"partner_contact_id":  created.PartnerContactID,
		"title":               created.Title,
	})

	s.log.Info("action log created",
		zap.String("request_id", caller.RequestID),
		zap.String("caller_service", caller.Service),
		zap.String("partner_contact_id", p.PartnerContactID),
	)
	return created, nil
}

// Search returns the actions for one agent/contact pair, served from cache
// when a fresh copy exists.
func (s *ActionLogService) Search(ctx context.Context, p platform.SearchActionLogParams) (*SearchResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key := searchCacheKey(p)
	if s.cacheEnabled() {
		if data, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn("search cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			var cached SearchResult
			if err := json.Unmarshal(data, &cached); err == nil {
				cached.Cached = true
				return &cached, nil
			}
			s.log.Warn("discarding corrupt search cache entry", zap.String("key", key))
		}
	}

	found, err := s.platform.SearchActionLogs(ctx, p)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		PageNumber: found.PageNumber,
		TotalPages: found.TotalPages,
		Actions:    found.Items,
	}
	if result.Actions == nil {
		result.Actions = []platform.Action{}
	}

	if s.cacheEnabled() {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.log.Warn("search cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return result, nil
}

func (s *ActionLogService) Journal(ctx context.Context, partnerContactID string, limit, offset int) ([]models.JournalEntry, error) {
	if strings.TrimSpace(partnerContactID) == "" {
		return nil, errors.New("partner_contact_id required")
	}
	return s.journal.ListByContact(ctx, partnerContactID, limit, offset)
}

func (s *ActionLogService) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

func (s *ActionLogService) publish(ctx context.Context, eventType string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.StreamActionLog, events.NewEvent(eventType, payload)); err != nil {
		s.log.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// invalidationKeys lists every search key a new entry can show up under: each
// agent identifier known after the create paired with each contact identifier.
func invalidationKeys(p platform.CreateActionLogParams, created *platform.ActionLog) []string {
	agents := []platform.SearchActionLogParams{{MoxiWorksAgentID: p.MoxiWorksAgentID}}
	if created.AgentUUID != "" {
		agents = append(agents, platform.SearchActionLogParams{AgentUUID: created.AgentUUID})
	}
	contacts := []platform.SearchActionLogParams{{PartnerContactID: p.PartnerContactID}}
	if created.MoxiWorksContactID != "" {
		contacts = append(contacts, platform.SearchActionLogParams{MoxiWorksContactID: created.MoxiWorksContactID})
	}

	keys := make([]string, 0, len(agents)*len(contacts))
	for _, a := range agents {
		for _, c := range contacts {
			a.PartnerContactID = c.PartnerContactID
			a.MoxiWorksContactID = c.MoxiWorksContactID
			keys = append(keys, searchCacheKey(a))
		}
	}
	return keys
}

func searchCacheKey(p platform.SearchActionLogParams) string {
	v := url.Values{}
	v.Set("agent_uuid", normalizeUUID(p.AgentUUID))
	v.Set("moxi_works_agent_id", strings.TrimSpace(p.MoxiWorksAgentID))
	v.Set("partner_contact_id", strings.TrimSpace(p.PartnerContactID))
	v.Set("moxi_works_contact_id", strings.TrimSpace(p.MoxiWorksContactID))
	return "search:" + v.Encode()
}

func normalizeUUID(s string) string {
	s = strings.TrimSpace(s)
	if u, err := uuid.Parse(s); err == nil {
		return u.String()
	}
	return strings.ToLower(s)
}

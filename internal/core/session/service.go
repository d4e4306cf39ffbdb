package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"aptbot/internal/config"
	"aptbot/internal/store/ssm"
	"aptbot/internal/tenant"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewSessionService wires the live session map. store may be nil, in which
// case sessions live only in memory.
func NewSessionService(factory BotFactory, store ssm.SsmHandler, cfg config.SessionConfig, metrics Metrics, logger zerolog.Logger) *SessionService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if !cfg.Persist {
		store = nil
	}
	return &SessionService{
		sessions: map[string]*liveSession{},
		factory:  factory,
		store:    store,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With().Str("component", "session").Logger(),
		now:      time.Now,
	}
}

type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*liveSession
	factory  BotFactory
	store    ssm.SsmHandler
	cfg      config.SessionConfig
	metrics  Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func (s *SessionService) Create(ctx context.Context, identity tenant.Identity) (SessionView, error) {
	ls := s.newSession(identity)
	s.persist(ls)
	return ls.view(), nil
}

// Chat sends message on the session, creating one when sessionId is empty,
// unknown, or bound to another tenant.
func (s *SessionService) Chat(ctx context.Context, sessionId string, identity tenant.Identity, message string) (ChatOutcome, error) {
	ls := s.acquire(sessionId, identity)

	ls.mu.Lock()
	defer ls.mu.Unlock()

	res, err := ls.bot.Chat(ctx, message)
	ls.touch(s.now())
	s.persist(ls)

	out := ChatOutcome{SessionId: ls.id, Result: res}
	if err != nil {
		s.metrics.ChatTurn(TurnError)
		return out, err
	}
	s.metrics.ChatTurn(TurnSuccess)
	return out, nil
}

func (s *SessionService) Delete(sessionId string) error {
	s.mu.Lock()
	_, live := s.sessions[sessionId]
	delete(s.sessions, sessionId)
	s.metrics.SessionsActive(len(s.sessions))
	s.mu.Unlock()

	stored := false
	if s.store != nil {
		err := s.store.RemoveSession(sessionId)
		switch {
		case err == nil:
			stored = true
		case !errors.Is(err, ssm.ErrSessionNotFound):
			s.logger.Warn().Err(err).Str("session_id", sessionId).Msg("remove persisted session failed")
		}
	}

	if !live && !stored {
		return ErrNotFound
	}
	return nil
}

func (s *SessionService) Reset(sessionId string) error {
	ls, ok := s.lookup(sessionId)
	if !ok {
		return ErrNotFound
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.bot.Reset()
	ls.touch(s.now())
	s.persist(ls)
	return nil
}

// List returns live sessions plus persisted ones not yet restored.
func (s *SessionService) List() []SessionView {
	s.mu.Lock()
	views := make([]SessionView, 0, len(s.sessions))
	seen := make(map[string]bool, len(s.sessions))
	for id, ls := range s.sessions {
		seen[id] = true
		views = append(views, ls.view())
	}
	s.mu.Unlock()

	if s.store != nil {
		stored, err := s.store.GetSessionList()
		if err != nil {
			s.logger.Warn().Err(err).Msg("list persisted sessions failed")
		}
		for _, info := range stored {
			if seen[info.SessionId] {
				continue
			}
			views = append(views, SessionView{
				SessionId:     info.SessionId,
				Authenticated: info.Authenticated,
				BuildingId:    info.BuildingId,
				Messages:      len(info.History),
				CreatedAt:     info.CreatedAt,
				UpdatedAt:     info.UpdatedAt,
			})
		}
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].SessionId < views[j].SessionId
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

// Count is the number of sessions held in memory.
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) acquire(sessionId string, identity tenant.Identity) *liveSession {
	if sessionId != "" {
		if ls, ok := s.lookup(sessionId); ok {
			if ls.bot.Identity().SameTenant(identity) {
				return ls
			}
			s.logger.Warn().Str("session_id", sessionId).Msg("session bound to another tenant, starting a new one")
		}
	}
	return s.newSession(identity)
}

// lookup finds a live session, restoring it from the store when needed.
func (s *SessionService) lookup(sessionId string) (*liveSession, bool) {
	s.mu.Lock()
	ls, ok := s.sessions[sessionId]
	s.mu.Unlock()
	if ok {
		return ls, true
	}
	if s.store == nil {
		return nil, false
	}

	info, err := s.store.GetSessionById(sessionId)
	if err != nil {
		if !errors.Is(err, ssm.ErrSessionNotFound) {
			s.logger.Warn().Err(err).Str("session_id", sessionId).Msg("load persisted session failed")
		}
		return nil, false
	}

	bot := s.factory(tenant.Identity{
		Authenticated: info.Authenticated,
		BuildingID:    info.BuildingId,
		Schema:        info.Schema,
	})
	bot.Restore(info.History)
	restored := &liveSession{
		id:        info.SessionId,
		bot:       bot,
		createdAt: info.CreatedAt,
	}
	restored.touch(info.UpdatedAt)
	restored.messages.Store(int64(len(bot.History())))

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionId]; ok {
		return existing, true
	}
	s.sessions[sessionId] = restored
	s.metrics.SessionsActive(len(s.sessions))
	s.logger.Debug().Str("session_id", sessionId).Int("messages", len(info.History)).Msg("session restored")
	return restored, true
}

func (s *SessionService) newSession(identity tenant.Identity) *liveSession {
	now := s.now()
	ls := &liveSession{
		id:        uuid.NewString(),
		bot:       s.factory(identity),
		createdAt: now,
	}
	ls.touch(now)

	s.mu.Lock()
	s.sessions[ls.id] = ls
	s.metrics.SessionsActive(len(s.sessions))
	s.mu.Unlock()

	s.logger.Info().
		Str("session_id", ls.id).
		Bool("authenticated", identity.Authenticated).
		Str("building_id", identity.BuildingID).
		Msg("session created")
	return ls
}

// persist records the session's history; with no store it only refreshes
// the message count.
func (s *SessionService) persist(ls *liveSession) {
	if s.store == nil {
		ls.messages.Store(int64(len(ls.bot.History())))
		return
	}
	s.mu.Lock()
	_, live := s.sessions[ls.id]
	s.mu.Unlock()
	if !live {
		return
	}

	id := ls.bot.Identity()
	history := ls.bot.History()
	ls.messages.Store(int64(len(history)))
	err := s.store.StoreSession(ssm.SessionInfo{
		SessionId:     ls.id,
		BuildingId:    id.BuildingID,
		Schema:        id.Schema,
		Authenticated: id.Authenticated,
		History:       history,
		CreatedAt:     ls.createdAt,
		UpdatedAt:     ls.lastUsed(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", ls.id).Msg("persist session failed")
	}
}

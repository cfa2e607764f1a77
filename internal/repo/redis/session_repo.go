package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/kindledapp/kindled/internal/services/auth"
)

const (
	sessionPrefix        = "session:"
	refreshPrefix        = "refresh:"
	sessionRefreshPrefix = "session_refresh:"
	userSessionsPrefix   = "user_sessions:"
)

// SessionRepo keeps the auth sessions (sid -> user binding plus the
// rotating refresh token) in redis with the refresh TTL.
type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID <= 0 {
		return authsvc.ErrInvalidInput
	}

	ttl := ttlFor(session.ExpiresAt)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, sessionKey(session.SID), map[string]interface{}{
		"user_id":    session.UserID,
		"expires_at": session.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, sessionKey(session.SID), ttl)
	pipe.HSet(ctx, refreshKey(refreshToken), map[string]interface{}{
		"user_id":    session.UserID,
		"sid":        session.SID,
		"expires_at": session.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, refreshKey(refreshToken), ttl)
	pipe.Set(ctx, sessionRefreshKey(session.SID), refreshToken, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.SID)
	pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create redis session: %w", err)
	}

	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return authsvc.SessionRecord{}, authsvc.ErrInvalidInput
	}

	fields, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get redis session: %w", err)
	}
	if len(fields) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrSessionNotFound
	}

	record, err := recordFromFields(sid, fields)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}

	return record, nil
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(refreshToken) == "" {
		return authsvc.SessionRecord{}, authsvc.ErrInvalidInput
	}

	fields, err := r.client.HGetAll(ctx, refreshKey(refreshToken)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get refresh session: %w", err)
	}
	if len(fields) == 0 {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}

	sid := fields["sid"]
	record, err := recordFromFields(sid, fields)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}

	return record, nil
}

// RotateRefresh swaps the refresh token atomically so a replayed old
// token cannot mint another session.
func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" || strings.TrimSpace(oldRefreshToken) == "" || strings.TrimSpace(newRefreshToken) == "" {
		return authsvc.ErrInvalidInput
	}

	fields, err := r.client.HGetAll(ctx, refreshKey(oldRefreshToken)).Result()
	if err != nil {
		return fmt.Errorf("get old refresh token: %w", err)
	}
	if len(fields) == 0 || fields["sid"] != sid {
		return authsvc.ErrRefreshNotFound
	}

	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return fmt.Errorf("parse session user id: %w", err)
	}

	ttl := ttlFor(expiresAt)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, refreshKey(oldRefreshToken))
	pipe.HSet(ctx, refreshKey(newRefreshToken), map[string]interface{}{
		"user_id":    userID,
		"sid":        sid,
		"expires_at": expiresAt.Unix(),
	})
	pipe.Expire(ctx, refreshKey(newRefreshToken), ttl)
	pipe.HSet(ctx, sessionKey(sid), "expires_at", expiresAt.Unix())
	pipe.Expire(ctx, sessionKey(sid), ttl)
	pipe.Set(ctx, sessionRefreshKey(sid), newRefreshToken, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	return nil
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return authsvc.ErrInvalidInput
	}

	fields, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return fmt.Errorf("get session for delete: %w", err)
	}

	refreshToken, err := r.client.Get(ctx, sessionRefreshKey(sid)).Result()
	if err != nil && err != goredis.Nil {
		return fmt.Errorf("get session refresh token: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sid))
	pipe.Del(ctx, sessionRefreshKey(sid))
	if refreshToken != "" {
		pipe.Del(ctx, refreshKey(refreshToken))
	}
	if raw, ok := fields["user_id"]; ok {
		if userID, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			pipe.SRem(ctx, userSessionsKey(userID), sid)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete redis session: %w", err)
	}

	return nil
}

func recordFromFields(sid string, fields map[string]string) (authsvc.SessionRecord, error) {
	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		return authsvc.SessionRecord{}, fmt.Errorf("parse session user id: %w", err)
	}

	expiresUnix, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("parse session expiry: %w", err)
	}

	return authsvc.SessionRecord{
		SID:       sid,
		UserID:    userID,
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, nil
}

func ttlFor(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return ttl
}

func sessionKey(sid string) string {
	return sessionPrefix + sid
}

func refreshKey(token string) string {
	return refreshPrefix + token
}

func sessionRefreshKey(sid string) string {
	return sessionRefreshPrefix + sid
}

func userSessionsKey(userID int64) string {
	return userSessionsPrefix + strconv.FormatInt(userID, 10)
}

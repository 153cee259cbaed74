package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oli-admin/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrOperatorExists     = errors.New("operator already exists")
)

// Service is the identity provider. Operators and sessions live in Redis:
//
//	operator:<email>           hash {password_hash, created_at}
//	session:<token>            string <email>, expires after the session TTL
//	operator_sessions:<email>  set of live tokens, used for revocation
type Service struct {
	rdb        *redis.Client
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewService(rdb *redis.Client, sessionTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{rdb: rdb, sessionTTL: sessionTTL, logger: logger}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func operatorKey(email string) string { return "operator:" + email }
func sessionKey(token string) string  { return "session:" + token }
func sessionsKey(email string) string { return "operator_sessions:" + email }

// AddOperator registers a new operator with a bcrypt-hashed password.
func (s *Service) AddOperator(ctx context.Context, email, password string) error {
	email = normalize(email)
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	key := operatorKey(email)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrOperatorExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"password_hash", string(hash),
				"created_at", time.Now().UTC().Format(time.RFC3339))
			return nil
		})
		return err
	}, key)
	if errors.Is(err, ErrOperatorExists) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to store operator: %w", err)
	}

	s.logger.Info("Operator added", zap.String("email", email))
	return nil
}

// RemoveOperator deletes the operator and revokes every session it holds.
func (s *Service) RemoveOperator(ctx context.Context, email string) error {
	email = normalize(email)

	tokens, err := s.rdb.SMembers(ctx, sessionsKey(email)).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.Del(ctx, sessionsKey(email), operatorKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove operator: %w", err)
	}

	s.logger.Info("Operator removed", zap.String("email", email), zap.Int("revoked_sessions", len(tokens)))
	return nil
}

// Authenticate checks credentials and opens a session.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.Operator, string, error) {
	email = normalize(email)

	fields, err := s.rdb.HGetAll(ctx, operatorKey(email)).Result()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load operator: %w", err)
	}
	hash, ok := fields["password_hash"]
	if !ok {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := s.pruneSessions(ctx, email); err != nil {
		s.logger.Warn("Failed to prune sessions", zap.String("email", email), zap.Error(err))
	}

	token := uuid.NewString()
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(token), email, s.sessionTTL)
	pipe.SAdd(ctx, sessionsKey(email), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to open session: %w", err)
	}

	return operatorFrom(email, fields), token, nil
}

// Validate resolves a session token to its operator.
func (s *Service) Validate(ctx context.Context, token string) (*model.Operator, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	email, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	fields, err := s.rdb.HGetAll(ctx, operatorKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load operator: %w", err)
	}
	if len(fields) == 0 {
		// Operator removed while the session was still around.
		s.rdb.Del(ctx, sessionKey(token))
		return nil, ErrSessionNotFound
	}

	return operatorFrom(email, fields), nil
}

// Revoke closes a session. Revoking an unknown token is not an error.
func (s *Service) Revoke(ctx context.Context, token string) error {
	email, err := s.rdb.GetDel(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return s.rdb.SRem(ctx, sessionsKey(email), token).Err()
}

// pruneSessions drops tokens whose session key has expired from the operator's set.
func (s *Service) pruneSessions(ctx context.Context, email string) error {
	tokens, err := s.rdb.SMembers(ctx, sessionsKey(email)).Result()
	if err != nil || len(tokens) == 0 {
		return err
	}

	pipe := s.rdb.Pipeline()
	exists := make([]*redis.IntCmd, len(tokens))
	for i, token := range tokens {
		exists[i] = pipe.Exists(ctx, sessionKey(token))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	var stale []any
	for i, cmd := range exists {
		if cmd.Val() == 0 {
			stale = append(stale, tokens[i])
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return s.rdb.SRem(ctx, sessionsKey(email), stale...).Err()
}

func operatorFrom(email string, fields map[string]string) *model.Operator {
	op := &model.Operator{Email: email}
	if ts, ok := fields["created_at"]; ok {
		op.CreatedAt, _ = time.Parse(time.RFC3339, ts)
	}
	return op
}

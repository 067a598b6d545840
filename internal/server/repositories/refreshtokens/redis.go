package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/server/models"
)

const (
	defaultKeyPrefix = "romcom:rt:"

	// Retention keeps a record around after expiry so a late presentation
	// still reads as expired rather than unknown.
	defaultRetention = 30 * 24 * time.Hour
)

var ErrDuplicateToken = errors.New("refresh token already exists")

// KEYS[1] token hash, KEYS[2] user set, KEYS[3] id sequence
// ARGV: user_id, expires_at ms, created_at ms, pexpireat ms, token
var createLua = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return -1
end
local id = redis.call("INCR", KEYS[3])
redis.call("HSET", KEYS[1],
  "id", id,
  "user_id", ARGV[1],
  "expires_at", ARGV[2],
  "created_at", ARGV[3],
  "revoked", "0")
redis.call("PEXPIREAT", KEYS[1], ARGV[4])
redis.call("SADD", KEYS[2], ARGV[5])
return id
`)

// KEYS[1] token hash; ARGV[1] revoked_at ms
var revokeLua = redis.NewScript(`
local state = redis.call("HGET", KEYS[1], "revoked")
if state ~= "0" then
  return 0
end
redis.call("HSET", KEYS[1], "revoked", "1", "revoked_at", ARGV[1])
return 1
`)

// KEYS[1] user set; ARGV[1] revoked_at ms, ARGV[2] token key prefix
var revokeAllLua = redis.NewScript(`
local tokens = redis.call("SMEMBERS", KEYS[1])
local n = 0
for _, t in ipairs(tokens) do
  local key = ARGV[2] .. t
  local state = redis.call("HGET", key, "revoked")
  if not state then
    redis.call("SREM", KEYS[1], t)
  elseif state == "0" then
    redis.call("HSET", key, "revoked", "1", "revoked_at", ARGV[1])
    n = n + 1
  end
end
return n
`)

// RedisRepository keeps each token in a hash keyed by the token, plus a set
// per user for RevokeAll. State changes run as Lua scripts so that they are
// atomic on the server.
type RedisRepository struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{client: client, prefix: defaultKeyPrefix, retention: defaultRetention}
}

func (r *RedisRepository) tokenKey(token string) string { return r.prefix + "tok:" + token }
func (r *RedisRepository) userKey(userID int64) string {
	return r.prefix + "user:" + strconv.FormatInt(userID, 10)
}
func (r *RedisRepository) seqKey() string { return r.prefix + "seq" }

func (r *RedisRepository) Create(ctx context.Context, userID int64, token string, expiresAt, createdAt time.Time) (int64, error) {
	keys := []string{r.tokenKey(token), r.userKey(userID), r.seqKey()}
	id, err := createLua.Run(ctx, r.client, keys,
		userID,
		expiresAt.UnixMilli(),
		createdAt.UnixMilli(),
		expiresAt.Add(r.retention).UnixMilli(),
		token,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	if id < 0 {
		return 0, ErrDuplicateToken
	}
	return id, nil
}

func (r *RedisRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	fields, err := r.client.HGetAll(ctx, r.tokenKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}

	t, err := decodeToken(token, fields)
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	return t, nil
}

func (r *RedisRepository) Revoke(ctx context.Context, token string, at time.Time) (bool, error) {
	n, err := revokeLua.Run(ctx, r.client, []string{r.tokenKey(token)}, at.UnixMilli()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n == 1, nil
}

func (r *RedisRepository) RevokeAll(ctx context.Context, userID int64, at time.Time) (int64, error) {
	n, err := revokeAllLua.Run(ctx, r.client, []string{r.userKey(userID)}, at.UnixMilli(), r.prefix+"tok:").Int64()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return n, nil
}

func decodeToken(token string, f map[string]string) (*models.RefreshToken, error) {
	id, err := strconv.ParseInt(f["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("field id: %w", err)
	}
	userID, err := strconv.ParseInt(f["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("field user_id: %w", err)
	}
	expiresAt, err := parseMillis(f["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("field expires_at: %w", err)
	}
	createdAt, err := parseMillis(f["created_at"])
	if err != nil {
		return nil, fmt.Errorf("field created_at: %w", err)
	}

	t := &models.RefreshToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
		Revoked:   f["revoked"] == "1",
	}
	if v, ok := f["revoked_at"]; ok {
		at, err := parseMillis(v)
		if err != nil {
			return nil, fmt.Errorf("field revoked_at: %w", err)
		}
		t.RevokedAt = &at
	}
	return t, nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

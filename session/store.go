package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/subAuth/refresh"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every backend failure, including context deadlines.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrSessionNotFound is returned when no record exists for a token hash.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is returned by Rotate when the record was past its lifetime.
// The record has been deleted by the time the error is returned.
var ErrSessionExpired = errors.New("session expired")

// ErrSessionCorrupt is returned when a stored payload cannot be parsed.
var ErrSessionCorrupt = errors.New("session record corrupt")

// ErrIdentityInactive is returned by Rotate when the owning identity has been
// deactivated. The record is left in place.
var ErrIdentityInactive = errors.New("identity inactive")

// ErrTokenCollision is returned when a new token hash already has a record.
var ErrTokenCollision = errors.New("refresh token collision")

const (
	rotateStatusNotFound    int64 = 0
	rotateStatusExpired     int64 = 1
	rotateStatusRotated     int64 = 3
	rotateStatusInvalidBlob int64 = 4
	rotateStatusInactive    int64 = 5
	rotateStatusCollision   int64 = 6
)

const sweepScanCount = 500

// recordLua parses the Encode layout inside Redis.
const recordLua = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function parse_record(data)
  if string.byte(data, 1) ~= 1 then
    return nil
  end
  local id_len = string.byte(data, 2)
  if not id_len or id_len == 0 then
    return nil
  end
  if #data ~= 2 + id_len + 16 then
    return nil
  end
  local times_offset = 3 + id_len
  return {
    identity_id = string.sub(data, 3, 2 + id_len),
    times_offset = times_offset,
    expires_at = read_be64(data, times_offset + 8)
  }
end
`

const grantScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("PEXPIREAT", KEYS[1], ARGV[2])
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[4])
return 1
`

var grantLua = redis.NewScript(grantScript)

const rotateScript = recordLua + `
local old_key = KEYS[1]
local new_key = KEYS[2]
local id_prefix = ARGV[1]
local off_prefix = ARGV[2]
local old_member = ARGV[3]
local new_member = ARGV[4]
local now_unix = tonumber(ARGV[5])
local next_times = ARGV[6]
local next_expires = ARGV[7]
local next_expires_ms = ARGV[8]

local data = redis.call("GET", old_key)
if not data then
  return {0}
end

local rec = parse_record(data)
if not rec or not rec.expires_at then
  return {4}
end

local id_key = id_prefix .. rec.identity_id

if rec.expires_at <= now_unix then
  redis.call("DEL", old_key)
  redis.call("ZREM", id_key, old_member)
  return {1}
end

if redis.call("EXISTS", off_prefix .. rec.identity_id) == 1 then
  return {5}
end

if redis.call("EXISTS", new_key) == 1 then
  return {6}
end

local updated = string.sub(data, 1, rec.times_offset - 1) .. next_times

redis.call("DEL", old_key)
redis.call("ZREM", id_key, old_member)
redis.call("SET", new_key, updated)
redis.call("PEXPIREAT", new_key, next_expires_ms)
redis.call("ZADD", id_key, next_expires, new_member)

return {3, updated}
`

var rotateLua = redis.NewScript(rotateScript)

const revokeScript = recordLua + `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local rec = parse_record(data)
if not rec then
  redis.call("DEL", KEYS[1])
  return 1
end
if ARGV[3] ~= "" and ARGV[3] ~= rec.identity_id then
  return -1
end
redis.call("DEL", KEYS[1])
redis.call("ZREM", ARGV[1] .. rec.identity_id, ARGV[2])
return 1
`

var revokeLua = redis.NewScript(revokeScript)

const revokeAllScript = `
local members = redis.call("ZRANGE", KEYS[1], 0, -1)
local removed = 0
for _, member in ipairs(members) do
  removed = removed + redis.call("DEL", ARGV[1] .. member)
end
redis.call("DEL", KEYS[1])
return removed
`

var revokeAllLua = redis.NewScript(revokeAllScript)

const sweepScript = `
local members = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[2])
for _, member in ipairs(members) do
  redis.call("DEL", ARGV[1] .. member)
  redis.call("ZREM", KEYS[1], member)
end
return #members
`

var sweepLua = redis.NewScript(sweepScript)

// Store is the Redis-backed session store. Every mutation is a single Lua
// script, so concurrent callers never observe a half-applied change.
//
// Key layout under prefix p:
//
//	p:rt:<hex(tokenHash)>  encoded Record, expiring at ExpiresAt
//	p:id:<identityID>      ZSET of token hashes scored by ExpiresAt
//	p:off:<identityID>     present while the identity is deactivated
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// An empty prefix defaults to "st".
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "st"
	}
	return &Store{redis: rdb, prefix: prefix}
}

func (s *Store) tokenPrefix() string {
	return s.prefix + ":rt:"
}

func (s *Store) identityPrefix() string {
	return s.prefix + ":id:"
}

func (s *Store) inactivePrefix() string {
	return s.prefix + ":off:"
}

func (s *Store) tokenKey(h refresh.Hash) string {
	return s.tokenPrefix() + h.String()
}

func (s *Store) identityKey(identityID string) string {
	return s.identityPrefix() + identityID
}

func (s *Store) inactiveKey(identityID string) string {
	return s.inactivePrefix() + identityID
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}

// Grant stores a new record for tokenHash owned by identityID, valid for ttl
// from now.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Grant(ctx context.Context, identityID string, tokenHash refresh.Hash, ttl time.Duration, now time.Time) (*Record, error) {
	if ttl < time.Second {
		return nil, errors.New("session ttl must be at least one second")
	}
	rec := &Record{
		TokenHash:  tokenHash,
		IdentityID: identityID,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(ttl).Unix(),
	}
	data, err := Encode(rec)
	if err != nil {
		return nil, err
	}

	created, err := grantLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(tokenHash), s.identityKey(identityID)},
		data,
		rec.ExpiresAt*1000,
		rec.ExpiresAt,
		tokenHash.String(),
	).Int64()
	if err != nil {
		return nil, unavailable(err)
	}
	if created == 0 {
		return nil, ErrTokenCollision
	}
	return rec, nil
}

// Rotate atomically consumes the record for oldHash and creates one for
// newHash with the same owner and a fresh lifetime. Of any number of
// concurrent Rotate calls for one oldHash, at most one succeeds; the others
// see ErrSessionNotFound.
//
//	Performance: 1 Lua EVALSHA (compare-and-swap).
func (s *Store) Rotate(ctx context.Context, oldHash, newHash refresh.Hash, ttl time.Duration, now time.Time) (*Record, error) {
	if ttl < time.Second {
		return nil, errors.New("session ttl must be at least one second")
	}
	issuedAt := now.Unix()
	expiresAt := now.Add(ttl).Unix()

	result, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(oldHash), s.tokenKey(newHash)},
		s.identityPrefix(),
		s.inactivePrefix(),
		oldHash.String(),
		newHash.String(),
		issuedAt,
		encodeTimes(issuedAt, expiresAt),
		expiresAt,
		expiresAt*1000,
	).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid rotate script status", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return nil, errors.Join(redis.Nil, ErrSessionNotFound)
	case rotateStatusExpired:
		return nil, errors.Join(redis.Nil, ErrSessionExpired)
	case rotateStatusInactive:
		return nil, ErrIdentityInactive
	case rotateStatusCollision:
		return nil, ErrTokenCollision
	case rotateStatusInvalidBlob:
		return nil, ErrSessionCorrupt
	case rotateStatusRotated:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: missing rotated record payload", ErrRedisUnavailable)
		}
		var blob []byte
		switch v := parts[1].(type) {
		case string:
			blob = []byte(v)
		case []byte:
			blob = v
		default:
			return nil, fmt.Errorf("%w: invalid rotated record payload", ErrRedisUnavailable)
		}
		rec, decErr := Decode(blob)
		if decErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, decErr)
		}
		rec.TokenHash = newHash
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: unknown rotate script status", ErrRedisUnavailable)
	}
}

// Revoke removes the record for tokenHash. When identityID is non-empty the
// record is only removed if it belongs to that identity. Revoking an absent
// record is not an error; the bool reports whether something was removed.
func (s *Store) Revoke(ctx context.Context, identityID string, tokenHash refresh.Hash) (bool, error) {
	removed, err := revokeLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(tokenHash)},
		s.identityPrefix(),
		tokenHash.String(),
		identityID,
	).Int64()
	if err != nil {
		return false, unavailable(err)
	}
	return removed == 1, nil
}

// RevokeAll removes every record owned by identityID and returns how many
// existed.
func (s *Store) RevokeAll(ctx context.Context, identityID string) (int, error) {
	removed, err := revokeAllLua.Run(
		ctx,
		s.redis,
		[]string{s.identityKey(identityID)},
		s.tokenPrefix(),
	).Int64()
	if err != nil {
		return 0, unavailable(err)
	}
	return int(removed), nil
}

// SweepIdentity removes identityID's records that are expired at now.
func (s *Store) SweepIdentity(ctx context.Context, identityID string, now time.Time) (int, error) {
	return s.sweepKey(ctx, s.identityKey(identityID), now)
}

func (s *Store) sweepKey(ctx context.Context, key string, now time.Time) (int, error) {
	removed, err := sweepLua.Run(
		ctx,
		s.redis,
		[]string{key},
		s.tokenPrefix(),
		now.Unix(),
	).Int64()
	if err != nil {
		return 0, unavailable(err)
	}
	return int(removed), nil
}

// SweepExpired walks every identity collection and removes expired records.
// This is an O(n) maintenance operation for background workers and must not
// run on request paths.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	pattern := s.identityPrefix() + "*"
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, sweepScanCount).Result()
		if err != nil {
			return total, unavailable(err)
		}
		for _, key := range keys {
			n, err := s.sweepKey(ctx, key, now)
			if err != nil {
				return total, err
			}
			total += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return total, nil
}

// SetIdentityActive sets or clears the inactive flag consulted by Rotate.
func (s *Store) SetIdentityActive(ctx context.Context, identityID string, active bool) error {
	var err error
	if active {
		err = s.redis.Del(ctx, s.inactiveKey(identityID)).Err()
	} else {
		err = s.redis.Set(ctx, s.inactiveKey(identityID), "1", 0).Err()
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// IdentityActive reports whether the inactive flag is absent for identityID.
func (s *Store) IdentityActive(ctx context.Context, identityID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.inactiveKey(identityID)).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n == 0, nil
}

// Count returns the number of identityID's records still live at now.
func (s *Store) Count(ctx context.Context, identityID string, now time.Time) (int, error) {
	n, err := s.redis.ZCount(ctx, s.identityKey(identityID), "("+strconv.FormatInt(now.Unix(), 10), "+inf").Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return int(n), nil
}

// Stats splits identityID's collection into live and expired-but-unswept
// records.
func (s *Store) Stats(ctx context.Context, identityID string, now time.Time) (Stats, error) {
	key := s.identityKey(identityID)
	bound := strconv.FormatInt(now.Unix(), 10)

	pipe := s.redis.Pipeline()
	active := pipe.ZCount(ctx, key, "("+bound, "+inf")
	expired := pipe.ZCount(ctx, key, "-inf", bound)
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, unavailable(err)
	}
	return Stats{Active: int(active.Val()), Expired: int(expired.Val())}, nil
}

// Lookup returns the record for tokenHash without mutating anything.
func (s *Store) Lookup(ctx context.Context, tokenHash refresh.Hash) (*Record, error) {
	data, err := s.redis.Get(ctx, s.tokenKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Join(redis.Nil, ErrSessionNotFound)
		}
		return nil, unavailable(err)
	}
	rec, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	rec.TokenHash = tokenHash
	return rec, nil
}

// IdentityIDs lists the identities that currently own a session collection.
// Like SweepExpired it scans the keyspace.
func (s *Store) IdentityIDs(ctx context.Context) ([]string, error) {
	prefix := s.identityPrefix()
	var (
		cursor uint64
		ids    []string
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, prefix+"*", sweepScanCount).Result()
		if err != nil {
			return nil, unavailable(err)
		}
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), unavailable(err)
	}
	return time.Since(start), nil
}

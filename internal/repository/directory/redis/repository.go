package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/repository/directory"
)

const roomsKey = "rooms"

// KEYS: summary, rooms set, tombstone
// ARGV: version, expire seconds, code, members count, host nickname, episode id, is playing, updated at
var publishScript = redis.NewScript(`
local version = tonumber(ARGV[1])
local current = tonumber(redis.call('HGET', KEYS[1], 'version') or '0')
local removed = tonumber(redis.call('GET', KEYS[3]) or '0')
if current >= version or removed >= version then
	return 0
end
redis.call('HSET', KEYS[1],
	'room_code', ARGV[3],
	'members_count', ARGV[4],
	'host_nickname', ARGV[5],
	'episode_id', ARGV[6],
	'is_playing', ARGV[7],
	'updated_at', ARGV[8],
	'version', ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
redis.call('SADD', KEYS[2], ARGV[3])
return 1
`)

// KEYS: summary, rooms set, tombstone
// ARGV: version, expire seconds, code
var removeScript = redis.NewScript(`
local version = tonumber(ARGV[1])
local current = tonumber(redis.call('HGET', KEYS[1], 'version') or '0')
if current > version then
	return 0
end
local removed = tonumber(redis.call('GET', KEYS[3]) or '0')
if removed < version then
	redis.call('SET', KEYS[3], ARGV[1], 'EX', ARGV[2])
end
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[3])
return 1
`)

type repo struct {
	rc        *redis.Client
	expireDur time.Duration
	logger    *slog.Logger
}

func NewRepo(rc *redis.Client, expireDur time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:        rc,
		expireDur: expireDur,
		logger:    logger,
	}
}

func (r repo) getSummaryKey(roomCode string) string {
	return "room:" + roomCode + ":summary"
}

func (r repo) getTombstoneKey(roomCode string) string {
	return "room:" + roomCode + ":removed"
}

func (r repo) keys(roomCode string) []string {
	return []string{r.getSummaryKey(roomCode), roomsKey, r.getTombstoneKey(roomCode)}
}

func (r repo) expireSeconds() int64 {
	return int64(r.expireDur / time.Second)
}

// Publish stores summary unless the directory already holds the same or a
// newer version of the room, or the room was removed at a newer version.
func (r repo) Publish(ctx context.Context, summary *directory.Summary) error {
	isPlaying := "0"
	if summary.IsPlaying {
		isPlaying = "1"
	}

	applied, err := publishScript.Run(ctx, r.rc, r.keys(summary.RoomCode),
		summary.Version,
		r.expireSeconds(),
		summary.RoomCode,
		summary.MembersCount,
		summary.HostNickname,
		summary.EpisodeId,
		isPlaying,
		summary.UpdatedAt,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to publish room summary: %w", err)
	}

	if applied == 0 {
		r.logger.DebugContext(ctx, "stale room summary skipped", "room_code", summary.RoomCode, "version", summary.Version)
	}

	return nil
}

// Remove drops the summary published at version or earlier and leaves a
// tombstone so that a late Publish of an older version cannot bring it back.
func (r repo) Remove(ctx context.Context, roomCode string, version uint64) error {
	applied, err := removeScript.Run(ctx, r.rc, r.keys(roomCode),
		version,
		r.expireSeconds(),
		roomCode,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to remove room summary: %w", err)
	}

	if applied == 0 {
		r.logger.DebugContext(ctx, "stale room removal skipped", "room_code", roomCode, "version", version)
	}

	return nil
}

func (r repo) Get(ctx context.Context, roomCode string) (directory.Summary, error) {
	res := r.rc.HGetAll(ctx, r.getSummaryKey(roomCode))
	if err := res.Err(); err != nil {
		return directory.Summary{}, fmt.Errorf("failed to get room summary: %w", err)
	}

	if len(res.Val()) == 0 {
		return directory.Summary{}, directory.ErrSummaryNotFound
	}

	var summary directory.Summary
	if err := res.Scan(&summary); err != nil {
		return directory.Summary{}, fmt.Errorf("failed to scan room summary: %w", err)
	}

	return summary, nil
}

// List returns every published summary. Codes whose summary expired are pruned
// from the index along the way.
func (r repo) List(ctx context.Context) ([]directory.Summary, error) {
	codes, err := r.rc.SMembers(ctx, roomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room codes: %w", err)
	}

	summaries := make([]directory.Summary, 0, len(codes))
	for _, code := range codes {
		summary, err := r.Get(ctx, code)
		if err != nil {
			if errors.Is(err, directory.ErrSummaryNotFound) {
				r.rc.SRem(ctx, roomsKey, code)
				continue
			}

			return nil, err
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

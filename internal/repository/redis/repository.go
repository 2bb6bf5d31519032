// Package redis provides a Redis/Valkey implementation of the booking ledger
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/navikt/roomfinder/internal/config"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/redis/go-redis/v9"
)

// reserveScript checks the room's day set for an overlapping member and
// inserts the booking only if there is none. Members are "startMs:endMs:ref"
// scored by startMs, so only members starting before the new end can clash.
// A clashing member whose booking key is gone is pruned. The booking key and
// the day set share one absolute expiry; the day set keeps the later one.
//
// KEYS: day set, booking key, room days set, user set
// ARGV: startMs, endMs, ref, booking json, day, expire-at ms (0 never), has user, booking key prefix
var reserveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
  return {2, ''}
end
local start = tonumber(ARGV[1])
local candidates = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[2])
for _, member in ipairs(candidates) do
  local _, e, ref = string.match(member, '^(-?%d+):(-?%d+):(.*)$')
  if e and tonumber(e) > start then
    if redis.call('EXISTS', ARGV[8] .. ref) == 1 then
      return {1, member}
    end
    redis.call('ZREM', KEYS[1], member)
  end
end
local fresh = redis.call('EXISTS', KEYS[1]) == 0
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[1] .. ':' .. ARGV[2] .. ':' .. ARGV[3])
redis.call('SET', KEYS[2], ARGV[4])
redis.call('SADD', KEYS[3], ARGV[5])
if ARGV[7] == '1' then
  redis.call('SADD', KEYS[4], ARGV[3])
end
if ARGV[6] ~= '0' then
  redis.call('PEXPIREAT', KEYS[2], ARGV[6])
  if fresh then
    redis.call('PEXPIREAT', KEYS[1], ARGV[6])
  else
    redis.call('PEXPIREAT', KEYS[1], ARGV[6], 'GT')
  end
end
return {0, ''}
`)

// cancelScript removes the member from the day set and stores the cancelled
// booking, keeping the booking key's remaining TTL. Returns 0 if the member
// was already gone.
//
// KEYS: day set, booking key
// ARGV: member, cancelled booking json
var cancelScript = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then
  return 0
end
local ttl = redis.call('PTTL', KEYS[2])
redis.call('SET', KEYS[2], ARGV[2])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return 1
`)

// bookingState is the internal model for storing a booking in Redis
type bookingState struct {
	ID          string
	Reference   string
	RoomID      string
	Start       time.Time
	End         time.Time
	User        string
	Status      models.BookingStatus
	CreatedAt   time.Time
	CancelledAt time.Time
}

func stateFrom(b models.Booking) bookingState {
	return bookingState{
		ID:          b.ID,
		Reference:   b.Reference,
		RoomID:      b.RoomID,
		Start:       b.Interval.Start,
		End:         b.Interval.End,
		User:        b.User,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
		CancelledAt: b.CancelledAt,
	}
}

func (s bookingState) booking(loc *time.Location) models.Booking {
	if loc != nil {
		s.Start, s.End = s.Start.In(loc), s.End.In(loc)
	}
	return models.Booking{
		ID:          s.ID,
		Reference:   s.Reference,
		RoomID:      s.RoomID,
		Interval:    models.Interval{Start: s.Start, End: s.End},
		User:        s.User,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		CancelledAt: s.CancelledAt,
	}
}

// Repository implements the ledger with Redis storage
type Repository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	loc       *time.Location
}

// NewRepository creates a new Redis ledger
func NewRepository(cfg config.RedisConfig) (*Repository, error) {
	var client *redis.Client

	// Use URI if provided, otherwise build connection from individual parameters
	if cfg.URI != "" {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URI: %w", err)
		}
		if opt.DB == 0 {
			opt.DB = cfg.DB
		}
		if opt.Password == "" && cfg.Password != "" {
			opt.Password = cfg.Password
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errs.Mark(fmt.Errorf("failed to connect to Redis: %w", err), errs.ErrUpstreamUnavailable)
	}

	return &Repository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.BookingTTL,
	}, nil
}

// WithLocation makes returned intervals report times in loc instead of
// the offset they were stored with
func (r *Repository) WithLocation(loc *time.Location) *Repository {
	r.loc = loc
	return r
}

// Client exposes the connection so other stores can share it
func (r *Repository) Client() *redis.Client {
	return r.client
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// bookingKey returns the Redis key for a booking
func (r *Repository) bookingKey(ref string) string {
	return fmt.Sprintf("%sbookings:%s", r.keyPrefix, ref)
}

// daySetKey returns the sorted set holding a room's bookings on one day
func (r *Repository) daySetKey(roomID, day string) string {
	return fmt.Sprintf("%srooms:%s:days:%s", r.keyPrefix, roomID, day)
}

// roomDaysKey returns the set of days a room has bookings on
func (r *Repository) roomDaysKey(roomID string) string {
	return fmt.Sprintf("%srooms:%s:days", r.keyPrefix, roomID)
}

// userSetKey returns the set of a user's booking references
func (r *Repository) userSetKey(user string) string {
	return fmt.Sprintf("%susers:%s:bookings", r.keyPrefix, user)
}

func member(b models.Booking) string {
	return fmt.Sprintf("%d:%d:%s", b.Interval.Start.UnixMilli(), b.Interval.End.UnixMilli(), b.Reference)
}

// expiresAt returns the unix ms after which a booking's keys are dropped: the
// end of its day plus the retention. Zero means never.
func (r *Repository) expiresAt(interval models.Interval) int64 {
	if r.ttl <= 0 {
		return 0
	}
	return interval.Day().AddDate(0, 0, 1).Add(r.ttl).UnixMilli()
}

// parseMember splits "startMs:endMs:ref"
func parseMember(m string) (start, end int64, ref string, err error) {
	parts := strings.SplitN(m, ":", 3)
	if len(parts) != 3 {
		return 0, 0, "", fmt.Errorf("malformed booking member %q", m)
	}
	if start, err = strconv.ParseInt(parts[0], 10, 64); err != nil {
		return 0, 0, "", fmt.Errorf("malformed booking member %q: %w", m, err)
	}
	if end, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		return 0, 0, "", fmt.Errorf("malformed booking member %q: %w", m, err)
	}
	return start, end, parts[2], nil
}

func unavailable(err error, msg string) error {
	return errs.Mark(fmt.Errorf("%s: %w", msg, err), errs.ErrUpstreamUnavailable)
}

// TryReserve inserts booking unless it clashes with an active booking of the same room
func (r *Repository) TryReserve(ctx context.Context, booking models.Booking) (models.Booking, error) {
	if err := booking.CheckReservable(); err != nil {
		return models.Booking{}, err
	}

	data, err := json.Marshal(stateFrom(booking))
	if err != nil {
		return models.Booking{}, fmt.Errorf("failed to marshal booking: %w", err)
	}

	day := booking.Interval.DayKey()
	hasUser := "0"
	if booking.User != "" {
		hasUser = "1"
	}
	keys := []string{
		r.daySetKey(booking.RoomID, day),
		r.bookingKey(booking.Reference),
		r.roomDaysKey(booking.RoomID),
		r.userSetKey(booking.User),
	}
	res, err := reserveScript.Run(ctx, r.client, keys,
		booking.Interval.Start.UnixMilli(),
		booking.Interval.End.UnixMilli(),
		booking.Reference,
		string(data),
		day,
		r.expiresAt(booking.Interval),
		hasUser,
		r.bookingKey(""),
	).Slice()
	if err != nil {
		return models.Booking{}, unavailable(err, "failed to reserve booking")
	}
	if len(res) != 2 {
		return models.Booking{}, fmt.Errorf("unexpected reserve reply %v", res)
	}

	code, _ := res[0].(int64)
	switch code {
	case 0:
		return booking, nil
	case 2:
		return models.Booking{}, errs.Invalid("bookingRef", "reference "+booking.Reference+" already in use")
	}

	clashMember, _ := res[1].(string)
	_, _, clashRef, err := parseMember(clashMember)
	if err != nil {
		return models.Booking{}, err
	}
	clash, err := r.Get(ctx, clashRef)
	if err != nil {
		return models.Booking{}, errs.Wrapf(err, "loading clashing booking %s", clashRef)
	}
	return models.Booking{}, errs.Conflict(clash.RoomID, clash.Reference, clash.Interval.Start, clash.Interval.End)
}

// IsFree reports whether no active booking of the room overlaps interval
func (r *Repository) IsFree(ctx context.Context, roomID string, interval models.Interval) (bool, error) {
	members, err := r.client.ZRangeByScore(ctx, r.daySetKey(roomID, interval.DayKey()), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(interval.End.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return false, unavailable(err, "failed to read room bookings")
	}

	start := interval.Start.UnixMilli()
	for _, m := range members {
		_, end, _, err := parseMember(m)
		if err != nil {
			return false, err
		}
		if end > start {
			return false, nil
		}
	}
	return true, nil
}

// BookingsOn returns the active bookings of a room on day ordered by start time
func (r *Repository) BookingsOn(ctx context.Context, roomID string, day time.Time) ([]models.Booking, error) {
	members, err := r.client.ZRange(ctx, r.daySetKey(roomID, day.Format(models.DateLayout)), 0, -1).Result()
	if err != nil {
		return nil, unavailable(err, "failed to read room bookings")
	}
	return r.loadMembers(ctx, members)
}

// BookingsFor returns the active bookings of a room ordered by start time
func (r *Repository) BookingsFor(ctx context.Context, roomID string) ([]models.Booking, error) {
	days, err := r.client.SMembers(ctx, r.roomDaysKey(roomID)).Result()
	if err != nil {
		return nil, unavailable(err, "failed to list room days")
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, 0, len(days))
	for _, day := range days {
		cmds = append(cmds, pipe.ZRange(ctx, r.daySetKey(roomID, day), 0, -1))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, unavailable(err, "failed to read room bookings")
		}
	}

	var members []string
	for _, cmd := range cmds {
		members = append(members, cmd.Val()...)
	}
	return r.loadMembers(ctx, members)
}

// loadMembers fetches the active bookings behind day-set members
func (r *Repository) loadMembers(ctx context.Context, members []string) ([]models.Booking, error) {
	refs := make([]string, 0, len(members))
	for _, m := range members {
		_, _, ref, err := parseMember(m)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	bookings, err := r.mget(ctx, refs)
	if err != nil {
		return nil, err
	}

	active := bookings[:0]
	for _, b := range bookings {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	models.SortBookings(active)
	return active, nil
}

// mget loads bookings by reference in one roundtrip, skipping expired keys
func (r *Repository) mget(ctx context.Context, refs []string) ([]models.Booking, error) {
	if len(refs) == 0 {
		return []models.Booking{}, nil
	}

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = r.bookingKey(ref)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err, "failed to get booking data")
	}

	bookings := make([]models.Booking, 0, len(values))
	for _, v := range values {
		strData, ok := v.(string)
		if !ok {
			continue
		}
		var state bookingState
		if err := json.Unmarshal([]byte(strData), &state); err != nil {
			continue
		}
		bookings = append(bookings, state.booking(r.loc))
	}
	return bookings, nil
}

// Get returns a booking by reference
func (r *Repository) Get(ctx context.Context, reference string) (models.Booking, error) {
	data, err := r.client.Get(ctx, r.bookingKey(reference)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Booking{}, errs.Mark(errs.Newf("booking %q", reference), errs.ErrNotFound)
		}
		return models.Booking{}, unavailable(err, "failed to get booking")
	}

	var state bookingState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.Booking{}, fmt.Errorf("failed to unmarshal booking: %w", err)
	}
	return state.booking(r.loc), nil
}

// Cancel marks a booking cancelled and frees its interval
func (r *Repository) Cancel(ctx context.Context, reference string, at time.Time) (models.Booking, error) {
	booking, err := r.Get(ctx, reference)
	if err != nil {
		return models.Booking{}, err
	}
	if booking.Status != models.BookingStatusActive {
		return models.Booking{}, errs.Invalid("bookingRef", "booking "+reference+" is already "+booking.Status.String())
	}

	cancelled := booking
	cancelled.Status = models.BookingStatusCancelled
	cancelled.CancelledAt = at
	data, err := json.Marshal(stateFrom(cancelled))
	if err != nil {
		return models.Booking{}, fmt.Errorf("failed to marshal booking: %w", err)
	}

	keys := []string{r.daySetKey(booking.RoomID, booking.Interval.DayKey()), r.bookingKey(reference)}
	removed, err := cancelScript.Run(ctx, r.client, keys, member(booking), string(data)).Int()
	if err != nil {
		return models.Booking{}, unavailable(err, "failed to cancel booking")
	}
	if removed == 0 {
		return models.Booking{}, errs.Invalid("bookingRef", "booking "+reference+" is already cancelled")
	}
	return cancelled, nil
}

// ListByUser returns every booking of user ordered by start time
func (r *Repository) ListByUser(ctx context.Context, user string) ([]models.Booking, error) {
	refs, err := r.client.SMembers(ctx, r.userSetKey(user)).Result()
	if err != nil {
		return nil, unavailable(err, "failed to list user bookings")
	}

	bookings, err := r.mget(ctx, refs)
	if err != nil {
		return nil, err
	}
	models.SortBookings(bookings)
	return bookings, nil
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable(err, "redis ping failed")
	}
	return nil
}

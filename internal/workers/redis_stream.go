package workers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"evol-ledger-backend/internal/common/config"
	"evol-ledger-backend/internal/common/logger"
	rankingservice "evol-ledger-backend/internal/features/ranking/service"
	rewardservice "evol-ledger-backend/internal/features/reward/service"
)

// StreamOptions names the streams and consumer group of the bot worker.
type StreamOptions struct {
	CommandStream string
	ReplyStream   string
	Group         string
	Consumer      string
	BatchSize     int64
	Block         time.Duration
}

// StreamOptionsFromConfig reads the Worker config section.
func StreamOptionsFromConfig(cfg *config.Config) StreamOptions {
	return StreamOptions{
		CommandStream: cfg.Worker.CommandStream,
		ReplyStream:   cfg.Worker.ReplyStream,
		Group:         cfg.Worker.Group,
		Consumer:      cfg.Worker.Consumer,
		BatchSize:     cfg.Worker.BatchSize,
		Block:         5 * time.Second,
	}
}

// RedisStreamWorker executes chat bot commands read from a Redis stream and
// publishes one reply per command.
type RedisStreamWorker struct {
	rdb  redis.UniversalClient
	bot  *CommandHandler
	opts StreamOptions
}

func NewRedisStreamWorker(rdb redis.UniversalClient, rewards rewardservice.RewardService, ranking rankingservice.RankingService, opts StreamOptions) *RedisStreamWorker {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	return &RedisStreamWorker{
		rdb:  rdb,
		bot:  NewCommandHandler(rewards, ranking),
		opts: opts,
	}
}

// EnsureGroup creates the command stream and consumer group if missing.
func (w *RedisStreamWorker) EnsureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, w.opts.CommandStream, w.opts.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Start consumes the command stream until ctx is cancelled. Commands left
// pending by an earlier run are replayed first.
func (w *RedisStreamWorker) Start(ctx context.Context) error {
	if err := w.EnsureGroup(ctx); err != nil {
		return err
	}

	logger.Info().
		Str("stream", w.opts.CommandStream).
		Str("group", w.opts.Group).
		Str("consumer", w.opts.Consumer).
		Msg("Starting bot command worker")

	if n, err := w.RecoverPending(ctx); err != nil {
		logger.Error().Err(err).Str("stream", w.opts.CommandStream).Msg("Failed to replay pending commands")
	} else if n > 0 {
		logger.Info().Int("count", n).Msg("Replayed pending bot commands")
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Stopping bot command worker")
			return nil
		default:
		}

		if _, err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Str("stream", w.opts.CommandStream).Msg("Error reading from stream")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// Poll reads one batch of new commands, replies to each and acknowledges them.
// It returns the number of acknowledged messages.
func (w *RedisStreamWorker) Poll(ctx context.Context) (int, error) {
	msgs, err := w.read(ctx, ">", w.opts.Block)
	if err != nil {
		return 0, err
	}
	acked, _ := w.handleBatch(ctx, msgs)
	return acked, nil
}

// RecoverPending replays commands this consumer read but never acknowledged,
// such as those interrupted by a shutdown. Each entry is tried once per call.
func (w *RedisStreamWorker) RecoverPending(ctx context.Context) (int, error) {
	total := 0
	cursor := "0"
	for {
		msgs, err := w.read(ctx, cursor, 0)
		if err != nil {
			return total, err
		}
		if len(msgs) == 0 {
			return total, nil
		}
		acked, last := w.handleBatch(ctx, msgs)
		total += acked
		cursor = last
	}
}

// read returns entries after start; ">" means never delivered, anything else
// walks this consumer's pending list. A zero block does not wait.
func (w *RedisStreamWorker) read(ctx context.Context, start string, block time.Duration) ([]redis.XMessage, error) {
	args := &redis.XReadGroupArgs{
		Group:    w.opts.Group,
		Consumer: w.opts.Consumer,
		Streams:  []string{w.opts.CommandStream, start},
		Count:    w.opts.BatchSize,
		Block:    block,
	}
	if block == 0 {
		args.Block = -1
	}

	entries, err := w.rdb.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var msgs []redis.XMessage
	for _, stream := range entries {
		msgs = append(msgs, stream.Messages...)
	}
	return msgs, nil
}

// handleBatch processes msgs in order and acknowledges those whose reply was
// published. It returns the acknowledged count and the last id seen.
func (w *RedisStreamWorker) handleBatch(ctx context.Context, msgs []redis.XMessage) (int, string) {
	acked := 0
	last := ""
	for _, msg := range msgs {
		last = msg.ID
		// Entries trimmed from the stream while pending come back without fields.
		if len(msg.Values) > 0 {
			if err := w.processMessage(ctx, msg); err != nil {
				continue
			}
		}
		if err := w.rdb.XAck(ctx, w.opts.CommandStream, w.opts.Group, msg.ID).Err(); err != nil {
			logger.Warn().Err(err).Str("message_id", msg.ID).Msg("Failed to ack command")
			continue
		}
		acked++
	}
	return acked, last
}

// processMessage executes one command and publishes its reply. A command whose
// reply could not be published stays pending.
func (w *RedisStreamWorker) processMessage(ctx context.Context, msg redis.XMessage) error {
	cmd, err := ParseCommand(msg.Values)
	var reply Reply
	if err != nil {
		logger.Warn().Err(err).Str("message_id", msg.ID).Interface("values", msg.Values).Msg("Invalid bot command")
		reply = errorReply(cmd.UserID, err)
	} else {
		reply = w.bot.Handle(ctx, cmd, time.Now())
	}
	reply.CommandID = msg.ID

	if err := w.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: w.opts.ReplyStream,
		Values: reply.Values(),
	}).Err(); err != nil {
		logger.Error().Err(err).Str("user_id", reply.UserID).Str("message_id", msg.ID).Msg("Failed to publish bot reply")
		return err
	}

	logger.Debug().
		Str("user_id", reply.UserID).
		Str("type", cmd.Type).
		Bool("ok", reply.OK).
		Str("code", reply.Code).
		Msg("Bot command processed")
	return nil
}

// Values encodes the reply as stream fields.
func (r Reply) Values() map[string]interface{} {
	return map[string]interface{}{
		"command_id": r.CommandID,
		"user_id":    r.UserID,
		"ok":         strconv.FormatBool(r.OK),
		"code":       r.Code,
		"message":    r.Message,
		"points":     strconv.FormatInt(r.Points, 10),
		"tier":       r.Tier,
		"badge":      r.Badge,
	}
}

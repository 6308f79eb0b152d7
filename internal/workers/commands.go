package workers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "evol-ledger-backend/internal/common/errors"
	rankingservice "evol-ledger-backend/internal/features/ranking/service"
	rewardservice "evol-ledger-backend/internal/features/reward/service"
	"evol-ledger-backend/internal/features/tier"
)

// Bot command types.
const (
	CommandClaim    = "claim"
	CommandStatus   = "status"
	CommandReferral = "referral"
	CommandUseCode  = "usecode"
	CommandWallet   = "wallet"
	CommandRank     = "rank"
	CommandTask     = "task"
)

// Command is one chat bot request.
type Command struct {
	Type   string
	UserID string
	Args   []string
}

// Reply is published for every command, including rejected ones.
type Reply struct {
	CommandID string
	UserID    string
	OK        bool
	Code      string
	Message   string
	Points    int64
	Tier      string
	Badge     string
}

// ParseCommand decodes stream fields {type, user_id, args}. args is a
// whitespace separated string.
func ParseCommand(values map[string]interface{}) (Command, error) {
	var cmd Command
	cmd.UserID = strings.TrimSpace(field(values, "user_id"))
	cmd.Type = strings.ToLower(strings.TrimSpace(field(values, "type")))
	cmd.Args = strings.Fields(field(values, "args"))

	if cmd.UserID == "" {
		return cmd, apperrors.NewValidationError("user_id", "required")
	}
	if cmd.Type == "" {
		return cmd, apperrors.NewValidationError("type", "required")
	}
	return cmd, nil
}

func field(values map[string]interface{}, key string) string {
	switch v := values[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// CommandHandler maps bot commands onto the reward and ranking services.
type CommandHandler struct {
	rewards rewardservice.RewardService
	ranking rankingservice.RankingService
}

func NewCommandHandler(rewards rewardservice.RewardService, ranking rankingservice.RankingService) *CommandHandler {
	return &CommandHandler{rewards: rewards, ranking: ranking}
}

// Handle executes cmd and never returns an error: failures become replies
// with OK=false and the error code.
func (h *CommandHandler) Handle(ctx context.Context, cmd Command, now time.Time) Reply {
	switch cmd.Type {
	case CommandClaim:
		res, err := h.rewards.Claim(ctx, cmd.UserID, now)
		if err != nil {
			return errorReply(cmd.UserID, err)
		}
		return okReply(cmd.UserID, res.Message, res.Points)

	case CommandStatus:
		p, err := h.rewards.Profile(ctx, cmd.UserID, now)
		if err != nil {
			return errorReply(cmd.UserID, err)
		}
		msg := p.Message
		if p.CanClaim {
			msg += "\nYour reward is ready to claim."
		} else {
			msg += fmt.Sprintf("\nNext claim in %dh %dm", p.NextClaimIn/3600, p.NextClaimIn%3600/60)
		}
		return okReply(cmd.UserID, msg, p.Points)

	case CommandReferral:
		code := h.rewards.ReferralCode(cmd.UserID)
		return Reply{UserID: cmd.UserID, OK: true, Message: "Your referral code: " + code}

	case CommandUseCode:
		if len(cmd.Args) != 1 {
			return errorReply(cmd.UserID, apperrors.NewValidationError("args", "usage: usecode REF123456"))
		}
		res, err := h.rewards.ApplyReferral(ctx, cmd.UserID, cmd.Args[0], now)
		if err != nil {
			return errorReply(cmd.UserID, err)
		}
		return okReply(cmd.UserID, res.Message, res.Points)

	case CommandWallet:
		if len(cmd.Args) != 1 {
			return errorReply(cmd.UserID, apperrors.NewValidationError("args", "usage: wallet gxr1xxxx"))
		}
		res, err := h.rewards.ConnectWallet(ctx, cmd.UserID, cmd.Args[0], now)
		if err != nil {
			return errorReply(cmd.UserID, err)
		}
		return Reply{UserID: cmd.UserID, OK: true, Message: res.Message}

	case CommandRank:
		pos, err := h.ranking.Position(ctx, cmd.UserID)
		if err != nil {
			return errorReply(cmd.UserID, err)
		}
		msg := fmt.Sprintf("Your rank: #%d of %d\nPoints: %d", pos.Rank, pos.Total, pos.Points)
		return okReply(cmd.UserID, msg, pos.Points)

	case CommandTask:
		return h.task(ctx, cmd, now)

	default:
		return errorReply(cmd.UserID, apperrors.New(apperrors.ErrCodeBadRequest,
			fmt.Sprintf("Unknown command %q", cmd.Type)))
	}
}

// task lists the catalog without arguments and completes "<category> <index>".
func (h *CommandHandler) task(ctx context.Context, cmd Command, now time.Time) Reply {
	if len(cmd.Args) == 0 {
		tasks, err := h.rewards.Tasks(ctx, cmd.UserID)
		if err != nil {
			return errorReply(cmd.UserID, err)
		}
		var b strings.Builder
		b.WriteString("Tasks:")
		for _, t := range tasks {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Fprintf(&b, "\n[%s] %s %d: %s (+%d)", mark, t.Category, t.Index, t.Name, t.Reward)
		}
		return Reply{UserID: cmd.UserID, OK: true, Message: b.String()}
	}

	if len(cmd.Args) != 2 {
		return errorReply(cmd.UserID, apperrors.NewValidationError("args", "usage: task <category> <index>"))
	}
	index, err := strconv.Atoi(cmd.Args[1])
	if err != nil {
		return errorReply(cmd.UserID, apperrors.NewValidationError("index", "must be an integer"))
	}
	res, err := h.rewards.CompleteTask(ctx, cmd.UserID, cmd.Args[0], index, now)
	if err != nil {
		return errorReply(cmd.UserID, err)
	}
	return okReply(cmd.UserID, res.Message, res.Points)
}

func okReply(userID, message string, points int64) Reply {
	t := tier.Classify(points)
	return Reply{
		UserID:  userID,
		OK:      true,
		Message: message,
		Points:  points,
		Tier:    t.Name,
		Badge:   t.Badge,
	}
}

func errorReply(userID string, err error) Reply {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "internal error")
	}
	msg := appErr.Message
	if appErr.IsInternal() {
		msg = "Something went wrong, please try again later"
	}
	return Reply{
		UserID:  userID,
		OK:      false,
		Code:    string(appErr.Code),
		Message: msg,
	}
}

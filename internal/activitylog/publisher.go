package activitylog

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/authhub/internal/clock"
	"github.com/smallbiznis/authhub/internal/observability/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ActionAddProductAndService = "ADD_PRODUCT_AND_SERVICE"

// Activity is a single auditable account event.
type Activity struct {
	OrgID  snowflake.ID `json:"org_id"`
	Action string       `json:"action"`
	Name   string       `json:"name"`
}

// Publisher records account activity. Failures are logged, never surfaced;
// activity logging must not break the triggering operation.
type Publisher interface {
	Publish(ctx context.Context, activity Activity)
}

type outboxPublisher struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func NewOutboxPublisher(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) Publisher {
	return &outboxPublisher{
		db:    db,
		genID: genID,
		clock: clk,
	}
}

func (p *outboxPublisher) Publish(ctx context.Context, activity Activity) {
	payload, err := json.Marshal(activity)
	if err != nil {
		logger.FromContext(ctx).Error("marshal activity", zap.Error(err))
		return
	}

	err = p.db.WithContext(ctx).Exec(
		`INSERT INTO activity_logs (id, org_id, action, payload, published, created_at)
		 VALUES (?, ?, ?, ?, false, ?)`,
		p.genID.Generate(),
		activity.OrgID,
		activity.Action,
		datatypes.JSON(payload),
		p.clock.Now(),
	).Error
	if err != nil {
		logger.FromContext(ctx).Error("record activity",
			zap.Int64("org_id", int64(activity.OrgID)),
			zap.String("action", activity.Action),
			zap.Error(err),
		)
	}
}

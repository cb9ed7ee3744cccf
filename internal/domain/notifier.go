package domain

import (
	"context"
	"encoding/json"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/pubsub"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

// SessionNotifier announces session changes after they are committed.
// Failures are logged and never roll back the change.
type SessionNotifier interface {
	Notify(ctx context.Context, kind model.SessionNotificationKind, session *entity.Session, summary *model.SettlementSummary)
}

type sessionNotifier struct {
	publisher pubsub.Publisher
}

func NewSessionNotifier(publisher pubsub.Publisher) *sessionNotifier {
	return &sessionNotifier{publisher: publisher}
}

func (n *sessionNotifier) Notify(
	ctx context.Context, kind model.SessionNotificationKind, session *entity.Session, summary *model.SettlementSummary,
) {
	if n.publisher == nil || session == nil {
		return
	}

	b, err := json.Marshal(model.SessionNotification{
		Kind:      kind,
		Session:   convertSession(session),
		Summary:   summary,
		Timestamp: xcontext.Now(ctx).Format(defaultTimeLayout),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal session notification: %v", err)
		return
	}

	err = n.publisher.Publish(ctx, model.SessionTopic, &pubsub.Pack{
		Key: []byte(session.GameType),
		Msg: b,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish %s of session %s: %v", kind, session.ID, err)
	}
}

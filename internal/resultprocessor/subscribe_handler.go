package resultprocessor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/compress"
	"github.com/questx-lab/lottery/pkg/pubsub"
	"github.com/questx-lab/lottery/pkg/storage"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/questx-lab/lottery/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

const archiveMime = "application/zlib"

type ResultSubscribeHandler interface {
	Subscribe(ctx context.Context, pack *pubsub.Pack, t time.Time)
}

type resultSubscribeHandler struct {
	redisClient xredis.Client
	storage     storage.Storage

	// latestNumbers holds the highest completed session number seen per game
	// type.
	latestNumbers *xsync.MapOf[string, int64]
}

func NewResultSubscribeHandler(redisClient xredis.Client, storage storage.Storage) *resultSubscribeHandler {
	return &resultSubscribeHandler{
		redisClient:   redisClient,
		storage:       storage,
		latestNumbers: xsync.NewMapOf[int64](),
	}
}

func (h *resultSubscribeHandler) Subscribe(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var notification model.SessionNotification
	if err := json.Unmarshal(pack.Msg, &notification); err != nil {
		xcontext.Logger(ctx).Errorf("Unable to unmarshal session notification: %v", err)
		return
	}

	session := notification.Session
	if notification.Kind != model.SessionCompletedNotification {
		xcontext.Logger(ctx).Debugf("Session %s of %s is %s", session.ID, session.GameType, notification.Kind)
		return
	}

	if err := h.cacheRecentResult(ctx, session); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot cache recent result of session %s: %v", session.ID, err)
	}

	if latest, ok := h.latestNumbers.Load(session.GameType); !ok || latest < session.SessionNumber {
		err := h.redisClient.SetObj(ctx, common.RedisKeyLatestResult(session.GameType),
			session, xcontext.Configs(ctx).Redis.ResultTTL)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot cache latest result of session %s: %v", session.ID, err)
		} else {
			h.latestNumbers.Store(session.GameType, session.SessionNumber)
		}
	} else {
		xcontext.Logger(ctx).Debugf("Skip stale result %d of %s, latest is %d",
			session.SessionNumber, session.GameType, latest)
	}

	if err := h.archive(ctx, &notification); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot archive result of session %s: %v", session.ID, err)
	}
}

func (h *resultSubscribeHandler) cacheRecentResult(ctx context.Context, session model.Session) error {
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}

	key := common.RedisKeyRecentResults(session.GameType)
	if err := h.redisClient.ZAdd(ctx, key, redis.Z{
		Score:  float64(session.SessionNumber),
		Member: string(b),
	}); err != nil {
		return err
	}

	// Keep only the RecentResultsLimit highest session numbers.
	return h.redisClient.ZRemRangeByRank(ctx, key, 0, -(common.RecentResultsLimit + 1))
}

func (h *resultSubscribeHandler) archive(ctx context.Context, notification *model.SessionNotification) error {
	b, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	data, err := compress.Compress(b)
	if err != nil {
		return err
	}

	resp, err := h.storage.Upload(ctx, &storage.UploadObject{
		Bucket:   xcontext.Configs(ctx).Storage.Bucket,
		Prefix:   notification.Session.GameType,
		FileName: ArchiveFileName(notification.Session.SessionNumber),
		Mime:     archiveMime,
		Data:     data,
	})
	if err != nil {
		return err
	}

	xcontext.Logger(ctx).Infof("Archived result of session %d to %s", notification.Session.SessionNumber, resp.Url)
	return nil
}

func ArchiveFileName(sessionNumber int64) string {
	return fmt.Sprintf("%d.json.zlib", sessionNumber)
}

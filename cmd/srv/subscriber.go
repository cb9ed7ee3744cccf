package main

import (
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/resultprocessor"
	"github.com/questx-lab/lottery/pkg/kafka"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startSubscriber(*cli.Context) error {
	s.loadRedisClient()
	s.loadStorage()

	cfg := xcontext.Configs(s.ctx)
	handler := resultprocessor.NewResultSubscribeHandler(s.redisClient, s.storage)
	subscriber, err := kafka.NewSubscriber(
		cfg.Kafka.ConsumerGroup,
		[]string{cfg.Kafka.Addr},
		[]string{model.SessionTopic},
		handler.Subscribe,
	)
	if err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Subscribing to %s", model.SessionTopic)
	subscriber.Subscribe(s.ctx)

	<-s.ctx.Done()
	return subscriber.Stop(s.ctx)
}

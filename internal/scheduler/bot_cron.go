package scheduler

import (
	"context"

	"github.com/comy-dev/comy-server/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartBotCronJobs schedules the daily suggestion run: the engine
// proposes pairs in the morning and the dispatcher delivers the cards
// shortly after. Both jobs also stay triggerable over HTTP.
func StartBotCronJobs(engine *jobs.SuggestionEngine, dispatcher *jobs.SuggestionDispatcher) {
	c := cron.New()

	c.AddFunc("0 9 * * *", func() {
		if _, err := engine.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Scheduled suggestion engine run failed")
		}
	})

	c.AddFunc("10 9 * * *", func() {
		if _, err := dispatcher.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Scheduled suggestion dispatch failed")
		}
	})

	c.Start()
}

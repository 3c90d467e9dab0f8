package worker

import (
	"renderfarm/internal/broker"
	"renderfarm/internal/config"
	"renderfarm/internal/pkg/logger"
)

type Deps struct {
	Broker broker.Broker
	Cfg    config.Config
	Log    *logger.Logger
}

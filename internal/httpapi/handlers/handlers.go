package handlers

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

type Handler struct {
	broker broker.Broker
	cfg    config.Config
	log    *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		broker: d.Broker,
		cfg:    d.Cfg,
		log:    log.WithComponent("api"),
	}
}

package handler

import (
	availabilitydomain "trpg-scheduler/internal/domain/availability"
	calendardomain "trpg-scheduler/internal/domain/calendar"
	groupdomain "trpg-scheduler/internal/domain/group"
	pendingdomain "trpg-scheduler/internal/domain/pending"
	"trpg-scheduler/pkg/logger"
)

type Handlers struct {
	Groups       *groupdomain.Service
	Pending      *pendingdomain.Service
	Calendar     *calendardomain.Service
	Availability *availabilitydomain.Service
	log          logger.Logger
}

func New(groups *groupdomain.Service, pending *pendingdomain.Service, calendar *calendardomain.Service, availability *availabilitydomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Groups:       groups,
		Pending:      pending,
		Calendar:     calendar,
		Availability: availability,
		log:          log,
	}
}

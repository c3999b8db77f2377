package engine

import (
	"time"

	"github.com/MRamiBalles/brainclicker/internal/domain/rules"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// PassiveSystem pays out automatic production once per interval.
type PassiveSystem struct {
	store  *Store
	logger *logger.Logger
}

// NewPassiveSystem creates the passive production driver.
func NewPassiveSystem(store *Store, log *logger.Logger) *PassiveSystem {
	return &PassiveSystem{store: store, logger: log}
}

// OnTick dispatches one second of production: points boosted by prestige and
// skills, XP boosted by the xp skill only. Nothing is sent while PPS is zero.
func (p *PassiveSystem) OnTick(_ time.Time) {
	st := p.store.GetState()
	if rules.PointsPerSecond(st.Upgrades) <= 0 {
		return
	}
	gain := rules.PassiveGain(st)
	p.store.Dispatch(events.GeneratePoints(gain.Points))
	p.store.Dispatch(events.AddXP(gain.XP))
}

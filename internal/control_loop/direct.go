package control_loop

import (
	"time"

	"github.com/brewgpio/brewgpio/internal/util"
)

// DirectControlLoop is a very simple control that directly applies the given
// target. It can also be used to gracefully approach the target by
// utilizing the "maxChangePerSecond" property, e.g. to soft start a pump.
type DirectControlLoop struct {
	// limits the maximum allowed change per second, nil means unlimited
	maxChangePerSecond *float64
	lastTime           time.Time
}

// NewDirectControlLoop creates a DirectControlLoop, which is a very simple control that directly applies the given
// target. It can also be used to gracefully approach the target by
// utilizing the "maxChangePerSecond" property.
func NewDirectControlLoop(
	// can be used to limit the maximum allowed change per second
	maxChangePerSecond *float64,
) *DirectControlLoop {
	return &DirectControlLoop{
		maxChangePerSecond: maxChangePerSecond,
	}
}

func (l *DirectControlLoop) Cycle(target float64, measured float64, now time.Time) float64 {
	if l.maxChangePerSecond == nil {
		l.lastTime = now
		return target
	}

	if l.lastTime.IsZero() || now.Before(l.lastTime) {
		// no elapsed time to derive a step from
		l.lastTime = now
		return measured
	}
	dt := now.Sub(l.lastTime).Seconds()
	l.lastTime = now

	// we can be above or below the target value,
	// so we subtract or add at most the max change,
	// capped to having reached the target
	maxChangeThisStep := *l.maxChangePerSecond * dt
	err := target - measured
	if err > 0 {
		return measured + util.Coerce(maxChangeThisStep, 0, err)
	} else {
		return measured + util.Coerce(-maxChangeThisStep, err, 0)
	}
}

func (l *DirectControlLoop) Reset() {
	l.lastTime = time.Time{}
}

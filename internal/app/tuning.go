package app

import (
	"github.com/ayusman/mudra/internal/click"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/interaction"
	"github.com/ayusman/mudra/internal/motion"
	"github.com/ayusman/mudra/internal/perf"
)

// EngineConfig maps a validated tuning file onto the engine's detectors.
func EngineConfig(t *config.Tuning) (interaction.Config, error) {
	alpha := 0.0
	if s := t.Smoothing; s.Alpha != nil {
		alpha = *s.Alpha
	} else {
		var err error
		if alpha, err = motion.PresetAlpha(*s.Preset); err != nil {
			return interaction.Config{}, err
		}
	}

	cooldown, err := t.SwipeCooldown()
	if err != nil {
		return interaction.Config{}, err
	}
	maxPress, err := t.ClickMaxPress()
	if err != nil {
		return interaction.Config{}, err
	}

	invert := false
	if t.Swipe.InvertNavigation != nil {
		invert = *t.Swipe.InvertNavigation
	}

	return interaction.Config{
		Classifier: gesture.ClassifierConfig{
			ExtensionRatio: *t.Classifier.ExtensionRatio,
			PinchDistance:  *t.Classifier.PinchDistance,
			OKDistance:     *t.Classifier.OKDistance,
		},
		SmoothingAlpha: alpha,
		Swipe: motion.SwipeConfig{
			StartVelocity:     *t.Swipe.StartVelocity,
			RecoveryRadius:    *t.Swipe.RecoveryRadius,
			DistanceThreshold: *t.Swipe.DistanceThreshold,
			VelocityThreshold: *t.Swipe.VelocityThreshold,
			Cooldown:          cooldown,
			InvertNavigation:  invert,
		},
		Click: click.Config{
			Mode:     click.Mode(*t.Click.Mode),
			MaxPress: maxPress,
		},
		Zoom: motion.ZoomConfig{
			Gain: *t.Zoom.Gain,
			Min:  *t.Zoom.Min,
			Max:  *t.Zoom.Max,
		},
		Slides: *t.Carousel.Slides,
	}, nil
}

// PerfConfig maps the performance section onto a controller config.
func PerfConfig(t *config.Tuning, toggle perf.Toggle) perf.Config {
	p := t.Performance
	return perf.Config{
		Window:        *p.Window,
		FPSThreshold:  *p.FPSThreshold,
		TriggerCount:  *p.TriggerCount,
		RecoveryCount: *p.RecoveryCount,
		Toggle:        toggle,
	}
}

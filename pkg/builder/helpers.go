package builder

import (
	"github.com/kode4food/argyll/worker/internal/config"
	"github.com/kode4food/argyll/worker/pkg/api"
)

// SetupStep is a convenience for the common worker main: it creates an
// engine client from the environment, applies the build function to a fresh
// step builder, then registers and serves the step. It blocks until the
// server stops
func SetupStep(
	name api.Name, build func(*Step) *Step, handle StepHandler,
) error {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}

	client := NewClient(cfg.EngineURL, cfg.ClientTimeout)
	step := client.NewStep(name)
	if build != nil {
		step = build(step)
	}
	return step.Start(handle)
}

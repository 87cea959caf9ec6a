// Command simulate drives a single World run from a YAML scenario file,
// the thin CLI wrapper spec.md and SPEC_FULL.md both keep explicitly
// outside the core stage/world/propcheck packages - it exists only to
// make the echo domain runnable from a shell, the way the teacher wraps
// its model-checking engine with cmd/demo and cmd/purple.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rrruko/amaru-sim/echo"
	"github.com/rrruko/amaru-sim/world"
)

// scenario is the on-disk shape of a run: how many echo nodes to spawn
// and which requests to feed node "n1" at time zero.
type scenario struct {
	Nodes    int      `yaml:"nodes"`
	Messages []string `yaml:"messages"`
}

func defaultScenario() scenario {
	return scenario{Nodes: 1, Messages: []string{"hello", "world"}}
}

func loadScenario(path string) (scenario, error) {
	if path == "" {
		return defaultScenario(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	sc := defaultScenario()
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	return sc, nil
}

func run(configPath string) error {
	sc, err := loadScenario(configPath)
	if err != nil {
		return err
	}

	nodes := make(map[string]world.NodeHandle[echo.Message], sc.Nodes)
	for i := 1; i <= sc.Nodes; i++ {
		name := fmt.Sprintf("n%d", i)
		nodes[name] = echo.NewNodeHandle(name)
	}

	initial := make([]world.Envelope[echo.Message], len(sc.Messages))
	for i, body := range sc.Messages {
		initial[i] = world.Envelope[echo.Message]{
			Src: "c1", Dest: "n1",
			Body: echo.Echo{MsgID: uint64(i), Body: body},
		}
	}

	w := world.New(initial, nodes)
	defer w.Close()
	runID := w.RunID()

	trace := w.Run()
	for _, env := range trace {
		log.Info().Str("run", runID.String()).Str("src", env.Src).Str("dest", env.Dest).
			Stringer("body", env.Body.(fmt.Stringer)).Msg("trace")
	}

	if err := echo.Property(trace); err != nil {
		return fmt.Errorf("property violated: %w", err)
	}
	return nil
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var configPath string
	root := &cobra.Command{
		Use:   "simulate",
		Short: "Run a single deterministic World simulation against the echo domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML scenario file (default: built-in 2-message scenario)")

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("simulate")
	}
}

package engine_test

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bosun-deploy/bosun/pkg/engine"
)

func Example() {
	hook := func(_ context.Context, inv engine.Invocation) error {
		fmt.Printf("%s %s\n", inv.Phase, inv.Component)
		return nil
	}

	worker := engine.NewComponent("worker", "services/api/worker").
		WithHook(engine.PhaseBuild, hook)
	api := engine.NewComponent("api", "services/api").
		WithHook(engine.PhaseBuild, hook).
		WithChildren(worker)
	deployment := &engine.Deployment{
		Name:       "prod",
		RootModule: "infra",
		Components: []*engine.Component{api},
	}

	traverser := engine.NewTraverser(nil, zerolog.Nop(), nil)
	report, err := traverser.Run(context.Background(), deployment, engine.PhaseBuild, engine.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(report.Status)
	// Output:
	// build api/worker
	// build api
	// success
}

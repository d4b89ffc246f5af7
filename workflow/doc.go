// Package workflow implements workflows built from ordered steps and a
// fixture system that injects shared, per-run values into those steps.
//
// A fixture is a named provider whose value is computed once per Scope and
// reused everywhere the name is requested. Fixtures may depend on other
// fixtures by requesting them from the scope:
//
//	registry := workflow.NewRegistry()
//	registry.MustRegister("work_path", func(ctx context.Context, s *workflow.Scope) (any, error) {
//		return os.MkdirTemp("", "work-*")
//	})
//	registry.MustRegister("reads_path", func(ctx context.Context, s *workflow.Scope) (any, error) {
//		work, err := workflow.Resolve[string](ctx, s, "work_path")
//		if err != nil {
//			return nil, err
//		}
//		return filepath.Join(work, "reads"), nil
//	})
//
// Workflows declare startup, step, and cleanup functions. An Execution runs
// them in order inside a scope, tracking state and progress and firing hooks
// for updates, errors, and completion:
//
//	wf := workflow.New("example").
//		Step(func(ctx context.Context, s *workflow.Scope) (string, error) {
//			reads, err := workflow.Resolve[string](ctx, s, "reads_path")
//			if err != nil {
//				return "", err
//			}
//			return "prepared " + reads, nil
//		})
//
//	scope := workflow.NewScope(registry)
//	defer scope.Close(context.Background())
//
//	exec := workflow.NewExecution(wf, scope)
//	results, err := exec.Execute(context.Background())
package workflow

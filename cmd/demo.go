package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericiooptions"

	reactive "github.com/hashmap-kz/reactivectl"
)

// NewDemoCmd builds the "demo" subcommand: it runs the reactive manager
// against a plain in-memory record, narrating laziness, batched reactions,
// and prototype inheritance the way a quickstart walks a reader through a
// library's core behavior.
func NewDemoCmd(streams genericiooptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run an in-memory walkthrough of observation, computed properties, and reactions.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDemo(streams)
		},
	}
	return cmd
}

func runDemo(streams genericiooptions.IOStreams) error {
	mgr := reactive.NewManager()
	out := streams.Out

	cart := reactive.NewMap(map[string]any{"price": 10, "quantity": 2})
	w := mgr.Observable(cart).(*reactive.Wrapper) //nolint:forcetypeassert

	computeRuns := 0
	mgr.Computed(cart, "total", func(ctx any) any {
		computeRuns++
		d := ctx.(*reactive.Wrapper) //nolint:forcetypeassert
		return d.Get("price").(int) * d.Get("quantity").(int)
	}, nil)

	fmt.Fprintln(out, "# computed properties are lazy: no evaluation happens until read")
	fmt.Fprintf(out, "computeRuns before read = %d\n", computeRuns)
	fmt.Fprintf(out, "total = %v (computeRuns now %d)\n", w.Get("total"), computeRuns)
	fmt.Fprintf(out, "total = %v again (computeRuns still %d, memoized)\n", w.Get("total"), computeRuns)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "# a reaction re-fires once per batch after a dependency changes")
	fires := 0
	mgr.Reaction(func(any) any {
		fires++
		// Reading the "total" accessor is enough on its own: the Updatable
		// behind it becomes this reaction's dependency, and invalidating
		// that Updatable (because price or quantity changed) propagates
		// through its deps to re-fire this reaction in turn.
		fmt.Fprintf(out, "reaction fired (%d): total is now %v\n", fires, w.Get("total"))
		return nil
	}, true)

	if err := mgr.Run(nil); err != nil {
		return err
	}

	before := fires
	if err := mgr.Run(func() {
		w.Set("price", 12)
		w.Set("quantity", 3)
	}); err != nil {
		return err
	}
	fmt.Fprintf(out, "two writes in one batch produced %d reaction fire(s)\n", fires-before)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "# prototype-chain inheritance: a child observes keys it doesn't own")
	base := reactive.NewMap(map[string]any{"region": "us-east-1"})
	child := reactive.NewMap(map[string]any{"name": "worker-1"})
	child.SetPrototype(base)
	mgr.SetOptions(reactive.WithPrototypes(true))
	baseWrapper := mgr.Observable(base).(*reactive.Wrapper)   //nolint:forcetypeassert
	childWrapper := mgr.Observable(child).(*reactive.Wrapper) //nolint:forcetypeassert

	inherited := 0
	mgr.Reaction(func(any) any {
		inherited++
		fmt.Fprintf(out, "child reacted (%d) to inherited region = %v\n", inherited, childWrapper.Get("region"))
		return nil
	}, true)
	if err := mgr.Run(nil); err != nil {
		return err
	}
	return mgr.Run(func() {
		baseWrapper.Set("region", "eu-west-1")
	})
}

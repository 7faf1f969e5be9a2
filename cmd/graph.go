package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/cli-runtime/pkg/genericiooptions"

	reactive "github.com/hashmap-kz/reactivectl"
	"github.com/hashmap-kz/reactivectl/internal/k8srecord"
	"github.com/hashmap-kz/reactivectl/internal/printer"
)

type graphOptions struct {
	filenames []string
	recursive bool
}

// graphDeps lists, per field, what a "ready" computed property reads off
// every wrapped manifest - the static half of the subscription graph the
// engine builds dynamically at runtime when that computed is actually
// evaluated (section 4.1's registerRead step).
var graphDeps = []string{"apiVersion", "kind", "metadata", "spec", "status"}

// NewGraphCmd builds the "graph" subcommand: it loads manifests, wires up
// the same computed "ready" property watch installs, evaluates it once per
// object, and renders the resulting key subscriptions as a table - a static
// look at what watch would react to, without needing a live cluster.
func NewGraphCmd(streams genericiooptions.IOStreams) *cobra.Command {
	gOpts := graphOptions{}

	cmd := &cobra.Command{
		Use:   "graph -f FILE [-f FILE...]",
		Short: "Print the per-object key subscriptions a reaction over these manifests would depend on.",
		RunE: func(_ *cobra.Command, _ []string) error {
			if len(gOpts.filenames) == 0 {
				return fmt.Errorf("at least one --filename/-f must be specified")
			}
			return runGraph(gOpts, streams)
		},
	}

	f := cmd.Flags()
	f.SortFlags = false
	f.StringSliceVarP(&gOpts.filenames, "filename", "f", nil,
		"Manifest files, glob patterns, directories, or URLs to graph.")
	//nolint:errcheck
	_ = cmd.MarkFlagRequired("filename")
	f.BoolVarP(&gOpts.recursive, "recursive", "R", false,
		"Recurse into directories specified with --filename.")

	return cmd
}

func runGraph(opts graphOptions, streams genericiooptions.IOStreams) error {
	objs, err := k8srecord.Load(opts.filenames, opts.recursive)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		return fmt.Errorf("no manifests found in %v", opts.filenames)
	}

	mgr := reactive.NewManager()
	var rows []printer.GraphRow

	for _, obj := range objs {
		k8srecord.DefaultNamespace(obj, "default")
		label := fmt.Sprintf("%s/%s", obj.GetKind(), obj.GetName())

		src := k8srecord.Wrap(obj)
		w := mgr.Observable(src).(*reactive.Wrapper) //nolint:forcetypeassert

		mgr.Computed(src, "ready", func(d any) any {
			wd := d.(*reactive.Wrapper) //nolint:forcetypeassert
			raw, _ := wd.Get("status").(map[string]any)
			cur := &unstructured.Unstructured{Object: map[string]any{
				"apiVersion": wd.Get("apiVersion"),
				"kind":       wd.Get("kind"),
				"metadata":   wd.Get("metadata"),
				"spec":       wd.Get("spec"),
				"status":     raw,
			}}
			return k8srecord.Ready(cur)
		}, nil)

		// Evaluating "ready" once drives the lazy computed through its
		// registerRead calls, matching what a live reaction would depend
		// on once it first fires.
		_ = w.Get("ready")

		for _, key := range graphDeps {
			rows = append(rows, printer.GraphRow{Object: label, Key: key, Kind: "computed:ready"})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Object != rows[j].Object {
			return rows[i].Object < rows[j].Object
		}
		return rows[i].Key < rows[j].Key
	})

	printer.PrintGraph(streams.Out, rows)
	return nil
}

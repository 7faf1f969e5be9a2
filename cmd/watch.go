package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	kwatch "k8s.io/apimachinery/pkg/watch"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/cli-runtime/pkg/genericiooptions"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/restmapper"

	reactive "github.com/hashmap-kz/reactivectl"
	"github.com/hashmap-kz/reactivectl/internal/k8srecord"
	"github.com/hashmap-kz/reactivectl/internal/printer"
)

type watchOptions struct {
	filenames []string
	recursive bool
	namespace string
	timeout   time.Duration
}

// watchedObject binds one loaded manifest to its observable Source and the
// live watch.Interface following it on the cluster.
type watchedObject struct {
	label string
	src   *k8srecord.Source
	w     *reactive.Wrapper
	iface kwatch.Interface
}

// NewWatchCmd builds the "watch" subcommand: it loads manifests, wraps each
// as an observable k8srecord.Source, installs a computed "ready" property
// backed by kstatus, registers a reaction that prints whenever readiness
// changes, then follows every object's live watch stream - fanned into one
// consumer goroutine so the engine itself, per internal/k8srecord's own
// watch loop, never sees more than one goroutine at a time. Connection flags
// and the dynamic-client/discovery-mapper setup follow the usual kubectl
// plugin pattern: resolve a REST mapping, then watch through client-go's
// dynamic client.
func NewWatchCmd(streams genericiooptions.IOStreams) *cobra.Command {
	cfgFlags := genericclioptions.NewConfigFlags(true)
	wo := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch -f FILE [-f FILE...]",
		Short: "React to live changes on the Kubernetes objects named by FILE.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(wo.filenames) == 0 {
				return fmt.Errorf("at least one --filename/-f must be specified")
			}
			ctx := cmd.Context()
			if wo.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, wo.timeout)
				defer cancel()
			}
			return runWatch(ctx, cfgFlags, wo, streams)
		},
	}

	f := cmd.Flags()
	f.SortFlags = false
	f.StringSliceVarP(&wo.filenames, "filename", "f", nil,
		"Manifest files, glob patterns, directories, or URLs naming the objects to watch.")
	//nolint:errcheck
	_ = cmd.MarkFlagRequired("filename")
	f.BoolVarP(&wo.recursive, "recursive", "R", false,
		"Recurse into directories specified with --filename.")
	f.StringVar(&wo.namespace, "namespace", "",
		"Namespace to watch in, overriding each manifest's own namespace.")
	f.DurationVar(&wo.timeout, "timeout", 0,
		"Stop watching and print the trace after this long. Zero means watch until canceled.")

	conn := pflag.NewFlagSet("Kubernetes connection flags", pflag.ContinueOnError)
	cfgFlags.AddFlags(conn)
	cmd.Flags().AddFlagSet(conn)

	return cmd
}

func runWatch(
	ctx context.Context,
	cfgFlags *genericclioptions.ConfigFlags,
	wo watchOptions,
	streams genericiooptions.IOStreams,
) error {
	cfg, err := cfgFlags.ToRESTConfig()
	if err != nil {
		return err
	}
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return err
	}
	disc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return err
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(disc))

	objs, err := k8srecord.Load(wo.filenames, wo.recursive)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		return fmt.Errorf("no manifests found in %v", wo.filenames)
	}

	mgr := reactive.NewManager()
	fires := map[string]int{}
	watched := make([]*watchedObject, 0, len(objs))

	for _, obj := range objs {
		if wo.namespace != "" {
			obj.SetNamespace(wo.namespace)
		} else {
			k8srecord.DefaultNamespace(obj, "default")
		}

		gvk := obj.GroupVersionKind()
		m, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		if err != nil {
			mapper.Reset()
			m, err = mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
			if err != nil {
				return fmt.Errorf("mapping %v: %w", gvk, err)
			}
		}

		var ri dynamic.ResourceInterface = dyn.Resource(m.Resource)
		if m.Scope.Name() == meta.RESTScopeNameNamespace {
			ri = dyn.Resource(m.Resource).Namespace(obj.GetNamespace())
		}

		iface, err := ri.Watch(ctx, metav1.ListOptions{
			FieldSelector: "metadata.name=" + obj.GetName(),
		})
		if err != nil {
			return fmt.Errorf("watching %s/%s: %w", gvk.Kind, obj.GetName(), err)
		}

		label := fmt.Sprintf("%s/%s", gvk.Kind, obj.GetName())
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

		mgr.Reaction(func(any) any {
			// Reading the "ready" accessor is enough to depend on it: the
			// Updatable behind it becomes this reaction's dependency, and
			// invalidating that Updatable (because apiVersion, kind,
			// metadata, spec, or status changed) propagates through its
			// deps to re-fire this reaction.
			state, ok := w.Get("ready").(k8srecord.ReadyState)
			if !ok {
				return nil
			}
			fires[label]++
			fmt.Fprintf(streams.Out, "%s: %s\n", label, state.String())
			return nil
		}, true)

		watched = append(watched, &watchedObject{label: label, src: src, w: w, iface: iface})
	}
	defer func() {
		for _, entry := range watched {
			entry.iface.Stop()
		}
	}()

	if err := mgr.Run(nil); err != nil {
		return err
	}

	if err := consumeWatches(ctx, mgr, watched); err != nil && ctx.Err() == nil {
		return err
	}

	rows := make([]printer.TraceRow, 0, len(fires))
	for label, n := range fires {
		rows = append(rows, printer.TraceRow{Reaction: label, Fires: n, Last: "see above"})
	}
	printer.PrintTrace(streams.Out, rows)
	return nil
}

// consumeWatches fans every watchedObject's event channel into a single
// select loop so the engine is only ever touched from this one goroutine,
// applying each event to its Source via the Wrapper and draining reactions
// after it - the same discipline internal/k8srecord.Watch keeps for a
// single GVR, generalized here across a mixed set of watched kinds.
func consumeWatches(ctx context.Context, mgr *reactive.Manager, watched []*watchedObject) error {
	type event struct {
		idx int
		ev  kwatch.Event
	}
	events := make(chan event)
	for i, wo := range watched {
		go func(i int, iface kwatch.Interface) {
			for ev := range iface.ResultChan() {
				select {
				case events <- event{idx: i, ev: ev}:
				case <-ctx.Done():
					return
				}
			}
		}(i, wo.iface)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-events:
			wo := watched[e.idx]
			u, ok := e.ev.Object.(*unstructured.Unstructured)
			if !ok {
				continue
			}
			switch e.ev.Type {
			case kwatch.Added, kwatch.Modified:
				old := wo.src.Object()
				for k, v := range u.Object {
					wo.w.Set(k, v)
				}
				for k := range old.Object {
					if _, ok := u.Object[k]; !ok {
						wo.w.Delete(k)
					}
				}
			case kwatch.Deleted:
				for _, k := range wo.src.Keys() {
					wo.w.Delete(k)
				}
			}
			if err := mgr.Drain(); err != nil {
				return err
			}
		}
	}
}

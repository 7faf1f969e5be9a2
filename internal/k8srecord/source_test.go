package k8srecord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/hashmap-kz/reactivectl/internal/engine"
	"github.com/hashmap-kz/reactivectl/internal/k8srecord"
	"github.com/hashmap-kz/reactivectl/internal/record"
)

func newConfigMap(name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]any{
			"name":      name,
			"namespace": "default",
		},
		"data": map[string]any{"k": "v"},
	}}
}

func TestSource_GetSetDelete(t *testing.T) {
	src := k8srecord.New(newConfigMap("demo"))

	v, ok := src.Get("kind")
	require.True(t, ok)
	assert.Equal(t, "ConfigMap", v)

	_, ok = src.Get("status")
	assert.False(t, ok)

	src.Set("status", map[string]any{"phase": "Active"})
	v, ok = src.Get("status")
	require.True(t, ok)
	assert.Equal(t, "Active", v.(map[string]any)["phase"])

	src.Delete("data")
	_, ok = src.Get("data")
	assert.False(t, ok)
}

func TestWrap_StableIdentity(t *testing.T) {
	obj := newConfigMap("demo")
	s1 := k8srecord.Wrap(obj)
	s2 := k8srecord.Wrap(obj)
	assert.Same(t, s1, s2)
}

func TestSource_ObservableReactsToFieldChange(t *testing.T) {
	mgr := engine.NewManager()
	src := k8srecord.New(newConfigMap("demo"))
	w := mgr.Observable(src).(*record.Wrapper)

	runs := 0
	mgr.Reaction(func(any) any {
		runs++
		_ = w.Get("metadata")
		return nil
	}, true)
	require.NoError(t, mgr.Run(nil))
	assert.Equal(t, 1, runs)

	require.NoError(t, mgr.Run(func() {
		w.Set("metadata", map[string]any{"name": "renamed", "namespace": "default"})
	}))
	assert.Equal(t, 2, runs)
}

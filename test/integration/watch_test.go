//go:build integration

package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// TestWatchReportsReadyOnExistingObject applies a ConfigMap directly via the
// typed client, then runs "reactivectl watch" against it for a few seconds
// and checks that its output mentions the object at least once. The command
// is killed when the context expires, so the output checked is the line the
// reaction prints on its first run, not the trace table printed on a clean
// exit.
// ConfigMaps have no kstatus-observed conditions, so this only exercises the
// watch/apply-fields/drain path, not a transition from not-ready to ready.
func TestWatchReportsReadyOnExistingObject(t *testing.T) {
	ctx := context.Background()
	client := kubeClient(t)

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "watch-demo", Namespace: "default"},
		Data:       map[string]string{"foo": "bar"},
	}
	_, err := client.CoreV1().ConfigMaps("default").Create(ctx, cm, metav1.CreateOptions{})
	if err != nil {
		_, err = client.CoreV1().ConfigMaps("default").Update(ctx, cm, metav1.UpdateOptions{})
	}
	require.NoError(t, err)
	defer func() {
		_ = client.CoreV1().ConfigMaps("default").Delete(ctx, "watch-demo", metav1.DeleteOptions{})
	}()

	tmp := t.TempDir()
	file := filepath.Join(tmp, "watch-demo.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
apiVersion: v1
kind: ConfigMap
metadata:
  name: watch-demo
  namespace: default
`), 0o644))

	cmdCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, _ := exec.CommandContext(cmdCtx, "reactivectl", "watch", "-f", file, "--namespace", "default").CombinedOutput()
	t.Logf("output:\n%s", string(out))
	assert.Contains(t, string(out), "ConfigMap/watch-demo")
}

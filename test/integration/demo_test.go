//go:build integration

package integration

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemoNarratesLazinessAndReactions(t *testing.T) {
	out, err := exec.Command("reactivectl", "demo").CombinedOutput()
	t.Logf("output:\n%s", string(out))
	assert.NoError(t, err)
	assert.Contains(t, string(out), "computed properties are lazy")
	assert.Contains(t, string(out), "reaction fired")
	assert.Contains(t, string(out), "child reacted")
}

package k8srecord

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	kstatus "sigs.k8s.io/cli-utils/pkg/kstatus/status"
)

// ReadyState is the synthetic status/ready pair computed from a manifest's
// observed fields - not a key the cluster actually sends, but one cmd's
// watch/graph computed properties derive from "status" the same way any
// other computed getter derives from backing keys (section 4.4).
type ReadyState struct {
	Status  kstatus.Status
	Ready   bool
	Message string
}

// Ready computes obj's current readiness via cli-utils' kstatus evaluator,
// as a pure per-object computation rather than a cluster-polling aggregate.
func Ready(obj *unstructured.Unstructured) ReadyState {
	res, err := kstatus.Compute(obj)
	if err != nil {
		return ReadyState{Status: kstatus.UnknownStatus, Message: err.Error()}
	}
	return ReadyState{
		Status:  res.Status,
		Ready:   res.Status == kstatus.CurrentStatus,
		Message: res.Message,
	}
}

// String renders a ReadyState for CLI output.
func (r ReadyState) String() string {
	if r.Message == "" {
		return string(r.Status)
	}
	return fmt.Sprintf("%s (%s)", r.Status, r.Message)
}

// Package utils holds small decoding helpers shared by internal/resolve and
// internal/k8srecord: turning a stream of YAML/JSON documents into
// unstructured Kubernetes objects, tolerant of documents that don't parse.
package utils

import (
	"errors"
	"io"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// ReadObjects decodes every document in r into an *unstructured.Unstructured.
// Empty documents, and documents without an apiVersion or a kind, are
// skipped. A document that fails to decode is skipped
// rather than treated as fatal, so one malformed resource in a large
// manifest bundle doesn't block every other one in it - 'applying' here just
// means handing the engine something to observe, not validating a cluster
// API, so the tolerant behavior is intentional.
func ReadObjects(r io.Reader) ([]*unstructured.Unstructured, error) {
	var docs []*unstructured.Unstructured
	dec := utilyaml.NewYAMLOrJSONDecoder(r, 4096)
	for {
		obj := &unstructured.Unstructured{}
		err := dec.Decode(obj)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if len(obj.Object) == 0 {
			continue
		}
		if obj.GetAPIVersion() == "" || obj.GetKind() == "" {
			continue
		}
		docs = append(docs, obj)
	}
	return docs, nil
}

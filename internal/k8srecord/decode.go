package k8srecord

import (
	"bytes"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/hashmap-kz/reactivectl/internal/resolve"
	"github.com/hashmap-kz/reactivectl/internal/utils"
)

// Load resolves filenames (files, glob patterns, directories, URLs - see
// internal/resolve) and decodes every manifest document found into
// *unstructured.Unstructured. Namespace defaulting is left to the caller.
func Load(filenames []string, recursive bool) ([]*unstructured.Unstructured, error) {
	files, err := resolve.ResolveAllFiles(filenames, recursive)
	if err != nil {
		return nil, err
	}

	var all []*unstructured.Unstructured
	for _, f := range files {
		content, err := resolve.ReadFileContent(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		docs, err := utils.ReadObjects(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f, err)
		}
		all = append(all, docs...)
	}
	return all, nil
}

// DefaultNamespace sets obj's namespace to ns when obj has no namespace and
// ns is non-empty. It does not check whether obj's kind is
// namespace-scoped, so a cluster-scoped object gets ns too; this is a
// best-effort default for the graph/watch commands, not a full
// REST-mapping lookup.
func DefaultNamespace(obj *unstructured.Unstructured, ns string) {
	if obj.GetNamespace() == "" && ns != "" {
		obj.SetNamespace(ns)
	}
}

package printer_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hashmap-kz/reactivectl/internal/printer"
)

func TestPrintGraph_RendersRows(t *testing.T) {
	var buf bytes.Buffer
	printer.PrintGraph(&buf, []printer.GraphRow{
		{Object: "ConfigMap/demo", Key: "data", Kind: "direct"},
		{Object: "ConfigMap/demo", Key: "$$watch", Kind: "whole-object"},
	})
	out := buf.String()
	assert.Contains(t, out, "ConfigMap/demo")
	assert.Contains(t, out, "whole-object")
}

func TestPrintTrace_RendersRows(t *testing.T) {
	var buf bytes.Buffer
	printer.PrintTrace(&buf, []printer.TraceRow{
		{Reaction: "ready-watcher", Fires: 3, Last: "Current"},
	})
	out := buf.String()
	assert.Contains(t, out, "ready-watcher")
	assert.Contains(t, out, "3")
}

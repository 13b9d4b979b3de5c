package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/cli"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/report"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/testutil"
	"github.com/stretchr/testify/require"
)

// workspace is a temporary books directory holding a flow file, its data
// and a trace.log that stage commands append their names to.
type workspace struct {
	t   *testing.T
	dir string
}

func newWorkspace(t *testing.T, flowHCL string) *workspace {
	t.Helper()
	w := &workspace{t: t, dir: t.TempDir()}
	w.write("flow.hcl", flowHCL)
	return w
}

func (w *workspace) path(rel string) string {
	return filepath.Join(w.dir, filepath.FromSlash(rel))
}

func (w *workspace) write(rel, content string) {
	w.t.Helper()
	p := w.path(rel)
	require.NoError(w.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(w.t, os.WriteFile(p, []byte(content), 0o600))
}

// trace returns the stage names in the order their commands ran, then
// clears the log.
func (w *workspace) trace() []string {
	w.t.Helper()
	data, err := os.ReadFile(w.path("trace.log"))
	if os.IsNotExist(err) {
		return []string{}
	}
	require.NoError(w.t, err)
	require.NoError(w.t, os.Remove(w.path("trace.log")))
	return strings.Fields(string(data))
}

// run executes the CLI against the workspace and decodes the JSON report.
// The returned error is the CLI's *cli.ExitError, if any.
func (w *workspace) run(args ...string) (report.Document, error) {
	w.t.Helper()
	full := append([]string{"run", "--config", w.path("flow.hcl"), "--report", "json", "--log-level", "debug"}, args...)
	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	err := cli.Execute(context.Background(), full, out, logs)
	if os.Getenv("FINFLOW_TEST_LOGS") == "true" {
		w.t.Logf("--- Full Log Output for %s ---\n%s", w.t.Name(), logs.String())
	}

	var doc report.Document
	require.NoError(w.t, json.Unmarshal(out.Bytes(), &doc), "report: %s\nlogs: %s", out.String(), logs.String())
	return doc, err
}

func statuses(doc report.Document) map[string]flow.Status {
	out := make(map[string]flow.Status, len(doc.Executions))
	for _, e := range doc.Executions {
		out[e.Node] = e.Status
	}
	return out
}

func indexOf(list []string, name string) int {
	for i, v := range list {
		if v == name {
			return i
		}
	}
	return -1
}

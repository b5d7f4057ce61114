package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-browserpilot/internal/agent"
	"go-browserpilot/internal/agent/agenttest"
	"go-browserpilot/internal/orchestrator"
	"go-browserpilot/internal/run"
	"go-browserpilot/pkg/llm"
	"go-browserpilot/pkg/models"
)

func screenshot(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 210, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestServer(t *testing.T, automator agent.Automator) *httptest.Server {
	t.Helper()
	root := actor.NewActorSystem().Root
	srv := New(root, Options{
		Addr:            ":0",
		DefaultProvider: models.ProviderGemini,
		Policy:          orchestrator.Policy{MaxSteps: 25, Timeout: time.Minute},
		FrameDelay:      100 * time.Millisecond,
		Automator:       automator,
		Resolver: func(context.Context, models.Provider, models.Credentials) (llm.Client, error) {
			return agenttest.Client{From: models.ProviderGemini}, nil
		},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func submit(t *testing.T, ts *httptest.Server, body string) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out submitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Id)
	return out.Id
}

func getStatus(t *testing.T, ts *httptest.Server, id string) run.StatusView {
	t.Helper()
	resp, err := http.Get(ts.URL + "/runs/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view run.StatusView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func TestSubmitRejectsBadBody(t *testing.T) {
	ts := newTestServer(t, &agenttest.Scripted{})

	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitRejectsEmptyTask(t *testing.T) {
	ts := newTestServer(t, &agenttest.Scripted{})

	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader(`{"task": "  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusUnknownRun(t *testing.T) {
	ts := newTestServer(t, &agenttest.Scripted{})

	resp, err := http.Get(ts.URL + "/runs/0b785123-95ad-4e3b-a4e0-5b8b428d6242")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusBadID(t *testing.T) {
	ts := newTestServer(t, &agenttest.Scripted{})

	resp, err := http.Get(ts.URL + "/runs/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunRoundTrip(t *testing.T) {
	shot := screenshot(t)
	automator := &agenttest.Scripted{
		Script: []agent.Step{
			{Goal: "open", Action: "navigate(https://example.com)", Evaluation: "ok", Screenshot: shot},
			{Goal: "finish", Action: "done", Evaluation: "found it", Screenshot: shot},
		},
		Final: agent.Outcome{FinalAnswer: "Example Domain"},
	}
	ts := newTestServer(t, automator)

	id := submit(t, ts, `{"task": "read the heading"}`)

	var view run.StatusView
	require.Eventually(t, func() bool {
		view = getStatus(t, ts, id)
		return view.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.Succeeded, view.Status)
	require.Len(t, view.Steps, 2)
	require.NotNil(t, view.Summary)
	assert.Equal(t, "Example Domain", view.Summary.FinalAnswer)

	resp, err := http.Get(ts.URL + "/runs/" + id + "/artifact")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))

	decoded, err := gif.DecodeAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, decoded.Image, 2)
}

func TestArtifactNotReadyWhileRunning(t *testing.T) {
	hold := make(chan struct{})
	automator := &agenttest.Scripted{
		Script: []agent.Step{{Goal: "a", Action: "click(#a)", Screenshot: screenshot(t)}},
		Hold:   hold,
	}
	ts := newTestServer(t, automator)
	id := submit(t, ts, `{"task": "wait"}`)

	resp, err := http.Get(ts.URL + "/runs/" + id + "/artifact")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	close(hold)
}

func TestCancelEndpoint(t *testing.T) {
	hold := make(chan struct{})
	automator := &agenttest.Scripted{
		Script: []agent.Step{{Goal: "a", Action: "click(#a)", Screenshot: screenshot(t)}},
		Hold:   hold,
	}
	ts := newTestServer(t, automator)
	id := submit(t, ts, `{"task": "wait"}`)

	resp, err := http.Post(ts.URL+"/runs/"+id+"/cancel", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var view run.StatusView
	require.Eventually(t, func() bool {
		view = getStatus(t, ts, id)
		return view.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.Aborted, view.Status)
}

package transport_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillgate/interviewd/internal/testserver"
)

func doJSON(t *testing.T, ts *testserver.TestServer, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && json.Valid(data) {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return resp.StatusCode, decoded
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	detail, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	return detail["code"].(string)
}

func TestAuthRequired(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")

	resp, err := http.Post(ts.Server.URL+"/v1/interviews/reserve", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/v1/interviews/reserve", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthUnauthenticated(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReserve(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")
	ts.Seed(t, 10, 2)

	status, body := doJSON(t, ts, http.MethodPost, "/v1/interviews/reserve", map[string]any{
		"student_id": "stu1",
		"route":      "dashboard",
	})
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, body["interview_id"])
}

func TestReserve_UnknownStudent(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")
	ts.Seed(t, 10, 2)

	status, body := doJSON(t, ts, http.MethodPost, "/v1/interviews/reserve", map[string]any{
		"student_id": "ghost",
	})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_found", errorCode(t, body))
}

func TestReserve_ExhaustedCredits(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")
	ts.Seed(t, 10, 1)

	status, _ := doJSON(t, ts, http.MethodPost, "/v1/interviews/reserve", map[string]any{
		"student_id": "stu1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, ts, http.MethodPost, "/v1/interviews/reserve", map[string]any{
		"student_id": "stu1",
	})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "no_credits_remaining", errorCode(t, body))
}

func TestReserve_MissingStudentID(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")

	status, body := doJSON(t, ts, http.MethodPost, "/v1/interviews/reserve", map[string]any{})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_input", errorCode(t, body))
}

func TestFinalize_BeforeStart(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")
	ts.Seed(t, 10, 2)

	status, body := doJSON(t, ts, http.MethodPost, "/v1/interviews/reserve", map[string]any{
		"student_id": "stu1",
	})
	require.Equal(t, http.StatusCreated, status)
	id := body["interview_id"].(string)

	answers := []map[string]any{{
		"content": map[string]float64{
			"relevance": 80, "specificity": 80, "self_consistency": 80, "plausibility": 80,
		},
		"speech":           map[string]float64{"clarity": 80, "pace": 80},
		"body":             map[string]float64{"eye_contact": 80, "posture": 80},
		"sentences":        2,
		"duration_seconds": 30,
	}}

	// A scheduled interview cannot be finalized until it starts.
	status, errBody := doJSON(t, ts, http.MethodPost,
		fmt.Sprintf("/v1/interviews/%s/finalize", id),
		map[string]any{"per_answer_scores": answers, "body_enabled": true})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "invalid_state", errorCode(t, errBody))
}

func TestFail_RequiresReason(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")
	ts.Seed(t, 10, 2)

	status, body := doJSON(t, ts, http.MethodPost, "/v1/interviews/reserve", map[string]any{
		"student_id": "stu1",
	})
	require.Equal(t, http.StatusCreated, status)
	id := body["interview_id"].(string)

	status, errBody := doJSON(t, ts, http.MethodPost,
		fmt.Sprintf("/v1/interviews/%s/fail", id), map[string]any{})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_input", errorCode(t, errBody))
}

func TestGetInterview_NotFound(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")
	ts.Seed(t, 10, 2)

	status, body := doJSON(t, ts, http.MethodGet, "/v1/interviews/missing", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_found", errorCode(t, body))
}

func TestRestore_NotRestorable(t *testing.T) {
	ts := testserver.New(t, "secret-token", "tenant1")
	ts.Seed(t, 10, 2)

	status, body := doJSON(t, ts, http.MethodPost, "/v1/interviews/reserve", map[string]any{
		"student_id": "stu1",
	})
	require.Equal(t, http.StatusCreated, status)
	id := body["interview_id"].(string)

	status, errBody := doJSON(t, ts, http.MethodPost,
		fmt.Sprintf("/v1/interviews/%s/restore-credit", id), nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "not_restorable", errorCode(t, errBody))
}

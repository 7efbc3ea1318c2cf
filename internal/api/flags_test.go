package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openlearnhq/experiments/internal/flags"
)

func TestListFlags_Empty(t *testing.T) {
	f := newTestServer(t)

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/flags", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var list []flags.Flag
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected 0 flags, got %d", len(list))
	}
}

func TestListFlags_EnvironmentFiltering(t *testing.T) {
	f := newTestServer(t)
	ctx := context.Background()

	f.flags.Upsert(ctx, flags.UpsertParams{Name: "test_flag", Enabled: true, Rollout: 100, Env: "test"})
	f.flags.Upsert(ctx, flags.UpsertParams{Name: "prod_flag", Enabled: true, Rollout: 100, Env: "prod"})

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/flags", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var list []flags.Flag
	json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 1 || list[0].Name != "test_flag" {
		t.Fatalf("Expected only test_flag for the server env, got %+v", list)
	}

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/v1/flags?env=prod", nil))
	var prodList []flags.Flag
	json.NewDecoder(rr.Body).Decode(&prodList)
	if len(prodList) != 1 || prodList[0].Name != "prod_flag" {
		t.Fatalf("Expected only prod_flag for env=prod, got %+v", prodList)
	}
}

func adminPut(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-key")
	return req
}

func TestUpsertFlag_Success(t *testing.T) {
	f := newTestServer(t)

	body := `{
		"description": "program block gate",
		"enabled": true,
		"rollout": 50
	}`
	rr := f.do(t, adminPut("/v1/flags/experiments.add_programs", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var flag flags.Flag
	if err := json.NewDecoder(rr.Body).Decode(&flag); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if flag.Name != "experiments.add_programs" {
		t.Errorf("Expected name from the URL, got %q", flag.Name)
	}
	if flag.Rollout != 50 || !flag.Enabled {
		t.Errorf("Stored flag wrong: %+v", flag)
	}
	if flag.Env != "test" {
		t.Errorf("Expected env defaulted to server env, got %q", flag.Env)
	}
}

func TestUpsertFlag_InvalidJSON(t *testing.T) {
	f := newTestServer(t)

	rr := f.do(t, adminPut("/v1/flags/test_flag", "not json"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}

	var errResp ErrorResponse
	json.NewDecoder(rr.Body).Decode(&errResp)
	if errResp.Code != ErrCodeInvalidJSON {
		t.Errorf("Expected code %s, got %s", ErrCodeInvalidJSON, errResp.Code)
	}
}

func TestUpsertFlag_InvalidRollout(t *testing.T) {
	f := newTestServer(t)

	for _, rollout := range []int32{-1, 101} {
		body := fmt.Sprintf(`{"enabled": true, "rollout": %d}`, rollout)
		rr := f.do(t, adminPut("/v1/flags/test_flag", body))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("rollout=%d: expected status 400, got %d", rollout, rr.Code)
			continue
		}

		var errResp ErrorResponse
		json.NewDecoder(rr.Body).Decode(&errResp)
		if errResp.Code != ErrCodeInvalidRollout {
			t.Errorf("rollout=%d: expected code %s, got %s", rollout, ErrCodeInvalidRollout, errResp.Code)
		}
	}
}

func TestUpsertFlag_InvalidAudience(t *testing.T) {
	f := newTestServer(t)

	body := `{"enabled": true, "rollout": 100, "audience": "not valid json logic"}`
	rr := f.do(t, adminPut("/v1/flags/test_flag", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUpsertFlag_ValidAudience(t *testing.T) {
	f := newTestServer(t)

	body := `{"enabled": true, "rollout": 100, "audience": "{\"==\": [{\"var\": \"username\"}, \"alice\"]}"}`
	rr := f.do(t, adminPut("/v1/flags/test_flag", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUpsertFlag_Unauthorized(t *testing.T) {
	f := newTestServer(t)

	body := `{"enabled": true, "rollout": 50}`
	req := httptest.NewRequest(http.MethodPut, "/v1/flags/test_flag", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := f.do(t, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestUpsertFlag_InvalidToken(t *testing.T) {
	f := newTestServer(t)

	body := `{"enabled": true, "rollout": 50}`
	req := httptest.NewRequest(http.MethodPut, "/v1/flags/test_flag", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong-key")
	rr := f.do(t, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestUpsertThenEvaluateThroughMetadata(t *testing.T) {
	f := newTestServer(t)

	body := `{"description": "program gate", "enabled": true, "rollout": 100}`
	rr := f.do(t, adminPut("/v1/flags/"+flags.FlagAddPrograms, body))
	if rr.Code != http.StatusOK {
		t.Fatalf("Flag upsert failed: %d %s", rr.Code, rr.Body.String())
	}

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/v1/flags", nil))
	var list []flags.Flag
	json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("Expected the upserted flag in the list, got %d flags", len(list))
	}
}

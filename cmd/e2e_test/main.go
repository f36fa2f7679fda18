package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

var baseURL = "http://localhost:8080"

func main() {
	if v := os.Getenv("NAVBOARD_URL"); v != "" {
		baseURL = v
	}
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Portfolio setup
	checkEndpoint("PUT", "/positions/E2E1", map[string]string{"quantity": "100", "target_weight": "0.6"}, 200)
	checkEndpoint("PUT", "/positions/E2E2", map[string]string{"quantity": "-20", "target_weight": "-0.1"}, 200)
	checkEndpoint("PUT", "/quotes/E2E1", map[string]string{"last_price": "10", "previous_close": "9.5"}, 200)
	checkEndpoint("PUT", "/quotes/E2E2", map[string]string{"last_price": "5"}, 200)
	checkEndpoint("PUT", "/account-metrics/gross_cash", map[string]string{"value": "500"}, 200)
	checkEndpoint("PUT", "/account-metrics/bogus", map[string]string{"value": "1"}, 404)

	// 3. Snapshot
	snap := getSnapshot()
	fmt.Printf("NAV %s, quota %s, gross %s\n", snap.NetAssetValue, snap.CurrentQuotaValue, snap.GrossExposurePct)
	checkEndpoint("GET", "/snapshot?format=markdown", nil, 200)

	// 4. Refresh and history
	checkEndpoint("POST", "/refresh", nil, 200)
	checkEndpoint("GET", "/history?limit=5", nil, 200)

	// 5. Cleanup
	checkEndpoint("DELETE", "/positions/E2E1", nil, 200)
	checkEndpoint("DELETE", "/positions/E2E2", nil, 200)
	checkEndpoint("DELETE", "/positions/E2E2", nil, 404)

	// 6. Metrics
	checkEndpoint("GET", "/metrics", nil, 200)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) []byte {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	if len(respBody) > 512 {
		fmt.Printf("Response: %s...\n", respBody[:512])
	} else {
		fmt.Printf("Response: %s\n", string(respBody))
	}
	return respBody
}

type snapshot struct {
	NetAssetValue     string `json:"net_asset_value"`
	CurrentQuotaValue string `json:"current_quota_value"`
	GrossExposurePct  string `json:"gross_exposure_pct"`
	Rows              []struct {
		Ticker     string `json:"ticker"`
		QuoteFound bool   `json:"quote_found"`
	} `json:"rows"`
}

func getSnapshot() snapshot {
	var s snapshot
	if err := json.Unmarshal(checkEndpoint("GET", "/snapshot", nil, 200), &s); err != nil {
		log.Fatalf("Decode snapshot failed: %v", err)
	}
	for _, r := range s.Rows {
		if (r.Ticker == "E2E1" || r.Ticker == "E2E2") && !r.QuoteFound {
			log.Fatalf("Expected a quote for %s", r.Ticker)
		}
	}
	return s
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ScanRequest represents the request payload for the scan endpoint
type ScanRequest struct {
	Barcode string `json:"barcode"`
}

// ScanResponse represents the response from the scan endpoint
type ScanResponse struct {
	Product   map[string]interface{} `json:"product"`
	HistoryID string                 `json:"history_id"`
}

// ProductsResponse represents the response from product list endpoints
type ProductsResponse struct {
	Found    bool                     `json:"found"`
	Count    int                      `json:"count"`
	Products []map[string]interface{} `json:"products"`
}

const (
	serverURL   = "http://localhost:8080"
	authToken   = "super-secret-token"
	testBarcode = "1234567890123"
	maxDuration = 1 * time.Second
	testRuns    = 5
)

func main() {
	fmt.Printf("🧪 Running acceptance tests for HealthScan Server\n")
	fmt.Printf("Expected: all requests complete in under %v\n\n", maxDuration)

	checkHealth()

	var totalDuration time.Duration
	var maxDur time.Duration
	minDur := time.Hour

	fmt.Printf("Scanning barcode %q %d times\n", testBarcode, testRuns)
	for i := 1; i <= testRuns; i++ {
		start := time.Now()

		scan, err := postScan(ScanRequest{Barcode: testBarcode})
		if err != nil {
			fmt.Printf("❌ Scan %d failed: %v\n", i, err)
			os.Exit(1)
		}
		duration := time.Since(start)

		if err := validateScan(scan); err != nil {
			fmt.Printf("❌ Scan %d returned invalid data: %v\n", i, err)
			os.Exit(1)
		}
		if duration > maxDuration {
			fmt.Printf("❌ Scan %d took %v (budget %v)\n", i, duration, maxDuration)
			os.Exit(1)
		}

		totalDuration += duration
		if duration > maxDur {
			maxDur = duration
		}
		if duration < minDur {
			minDur = duration
		}
		fmt.Printf("  ✅ Scan %d completed in %v\n", i, duration)
	}

	fmt.Printf("\nLatency: min=%v avg=%v max=%v\n", minDur, totalDuration/testRuns, maxDur)

	checkSearch()
	checkRecommendations()

	fmt.Println("\n🎉 All acceptance tests passed")
}

func checkHealth() {
	resp, err := http.Get(serverURL + "/health")
	if err != nil {
		fmt.Printf("❌ Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("❌ Health check returned %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("✅ /health is OK")
}

func postScan(req ScanRequest) (*ScanResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, serverURL+"/v1/scan", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var scan ScanResponse
	if err := json.NewDecoder(resp.Body).Decode(&scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

func validateScan(scan *ScanResponse) error {
	if scan.Product == nil {
		return fmt.Errorf("missing product")
	}
	if scan.Product["barcode"] != testBarcode {
		return fmt.Errorf("barcode mismatch: got %v", scan.Product["barcode"])
	}
	status, _ := scan.Product["status"].(string)
	switch status {
	case "suitable", "questionable", "not-recommended":
	default:
		return fmt.Errorf("invalid status %q", status)
	}
	score, ok := scan.Product["nutrition_score"].(float64)
	if !ok || score < 0 || score > 100 {
		return fmt.Errorf("invalid nutrition score %v", scan.Product["nutrition_score"])
	}
	if scan.HistoryID == "" {
		return fmt.Errorf("missing history id")
	}
	return nil
}

func getProducts(path string) (*ProductsResponse, error) {
	httpReq, err := http.NewRequest(http.MethodGet, serverURL+path, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var products ProductsResponse
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, err
	}
	return &products, nil
}

func checkSearch() {
	products, err := getProducts("/v1/products/search?name=almond")
	if err != nil {
		fmt.Printf("❌ Search failed: %v\n", err)
		os.Exit(1)
	}
	if !products.Found {
		fmt.Println("❌ Search for \"almond\" found nothing")
		os.Exit(1)
	}
	fmt.Printf("✅ Search returned %d product(s)\n", products.Count)
}

func checkRecommendations() {
	products, err := getProducts("/v1/recommendations")
	if err != nil {
		fmt.Printf("❌ Recommendations failed: %v\n", err)
		os.Exit(1)
	}
	if products.Count > 5 {
		fmt.Printf("❌ Recommendations returned %d products, expected at most 5\n", products.Count)
		os.Exit(1)
	}
	fmt.Printf("✅ Recommendations returned %d product(s)\n", products.Count)
}

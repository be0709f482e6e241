package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Concurrency driver for a running server: fires N overlapping purchases at
// one product and checks conservation at the end. Requires an admin secret so
// it can provision its own product and customer.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	adminSecret := flag.String("secret", "", "admin registration secret")
	initialStock := flag.Int("stock", 20, "initial stock for the test product")
	totalRequests := flag.Int("requests", 50, "number of concurrent purchase requests")
	quantity := flag.Int("quantity", 1, "quantity per purchase")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}
	suffix := time.Now().UnixNano()
	productName := fmt.Sprintf("stress-product-%d", suffix)

	// Provision an admin, the product under test and a customer.
	adminEmail := fmt.Sprintf("stress-admin-%d@example.com", suffix)
	mustPost(client, *baseURL+"/api/admins/register", map[string]any{
		"email": adminEmail, "password": "stress", "secret": *adminSecret,
	})
	mustPost(client, *baseURL+"/api/admins/products/add", map[string]any{
		"name": productName, "price": 1.0, "initialStock": *initialStock,
	})
	customer := mustPost(client, *baseURL+"/api/customers/register", map[string]any{
		"name":     "stress-customer",
		"email":    fmt.Sprintf("stress-%d@example.com", suffix),
		"password": "stress",
	})
	customerID := int64(customer["id"].(float64))

	var success, soldOut, other atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := post(client,
				*baseURL+"/api/customers/products/buy?name="+productName,
				map[string]any{"customerId": customerID, "quantity": *quantity})
			switch {
			case err == nil && status == http.StatusCreated:
				success.Add(1)
			case status == http.StatusConflict:
				soldOut.Add(1)
			default:
				other.Add(1)
				if err != nil {
					log.Error().Err(err).Msg("request failed")
				}
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", *initialStock)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Quantity Each:    %d\n", *quantity)
	fmt.Printf("Successful:       %d\n", success.Load())
	fmt.Printf("Sold Out:         %d\n", soldOut.Load())
	fmt.Printf("Other Failures:   %d\n", other.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	expected := int32(*initialStock / *quantity)
	if int32(*totalRequests) < expected {
		expected = int32(*totalRequests)
	}
	if success.Load() == expected && other.Load() == 0 {
		fmt.Printf("PASS: exactly %d orders succeeded\n", expected)
	} else {
		fmt.Printf("FAIL: expected %d successes, got %d (other failures: %d)\n",
			expected, success.Load(), other.Load())
	}

	// Verify the remaining stock through the public API.
	resp, err := client.Get(*baseURL + "/api/admins/product?name=" + productName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read final stock")
	}
	defer resp.Body.Close()
	var product struct {
		StockQuantity int `json:"stockQuantity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		log.Fatal().Err(err).Msg("failed to decode product")
	}

	sold := int(success.Load()) * *quantity
	fmt.Printf("Final Stock:      %d\n", product.StockQuantity)
	if product.StockQuantity == *initialStock-sold {
		fmt.Println("PASS: stock matches successful orders")
	} else {
		fmt.Printf("FAIL: expected stock %d, got %d\n", *initialStock-sold, product.StockQuantity)
	}
}

func post(client *http.Client, url string, body map[string]any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func mustPost(client *http.Client, url string, body map[string]any) map[string]any {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatal().Err(err).Msg("marshal request")
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatal().Err(err).Str("url", url).Msg("request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		log.Fatal().Int("status", resp.StatusCode).Str("url", url).
			Str("body", string(raw)).Msg("unexpected response")
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatal().Err(err).Msg("decode response")
	}
	return out
}

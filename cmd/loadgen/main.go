// loadgen fires concurrent order creations for a single product at a running
// server and reports how many succeeded versus were rejected. Point it at a
// product with low stock to watch oversell protection under contention.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type orderRequest struct {
	RequestID  string      `json:"request_id"`
	CustomerID string      `json:"customer_id"`
	Items      []orderItem `json:"items"`
}

type orderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	productID := flag.String("product", "", "product id to order (required)")
	requests := flag.Int("requests", 50, "number of concurrent requests")
	quantity := flag.Int("quantity", 1, "quantity per order")
	pay := flag.Bool("pay", false, "also pay each created order")
	flag.Parse()

	if *productID == "" {
		log.Fatal("missing -product")
	}

	client := &http.Client{Timeout: 10 * time.Second}

	var created, rejected, failed atomic.Int32
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			req := orderRequest{
				RequestID:  fmt.Sprintf("loadgen-%d-%d", start.UnixNano(), n),
				CustomerID: fmt.Sprintf("customer-%d", n),
				Items:      []orderItem{{ProductID: *productID, Quantity: *quantity}},
			}
			body, _ := json.Marshal(req)

			resp, err := client.Post(*addr+"/api/orders", "application/json", bytes.NewReader(body))
			if err != nil {
				failed.Add(1)
				return
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusCreated:
				created.Add(1)
				if *pay {
					payOrder(client, *addr, resp)
				}
			case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusConflict:
				rejected.Add(1)
			default:
				failed.Add(1)
			}
		}(i)
	}
	wg.Wait()

	elapsed := time.Since(start)
	log.Printf("done in %s: created=%d rejected=%d failed=%d",
		elapsed, created.Load(), rejected.Load(), failed.Load())
}

func payOrder(client *http.Client, addr string, createResp *http.Response) {
	var order struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(createResp.Body).Decode(&order); err != nil {
		log.Printf("decode created order: %v", err)
		return
	}

	resp, err := client.Post(addr+"/api/orders/"+order.ID+"/pay", "application/json", nil)
	if err != nil {
		log.Printf("pay order %s: %v", order.ID, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("pay order %s: status %d", order.ID, resp.StatusCode)
	}
}

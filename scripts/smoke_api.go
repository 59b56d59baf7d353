// Manual smoke test for the usage and subscription endpoints.
// Run with a valid session token: go run scripts/smoke_api.go <token>
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	if len(os.Args) < 2 {
		color.Red("Usage: go run scripts/smoke_api.go <session_token>")
		os.Exit(1)
	}
	token := os.Args[1]

	color.Cyan("🚀 Usage & Subscription API Smoke Test\n")

	color.Yellow("\n1. Usage check")
	resp, body, err := sendRequest("GET", "/usage/check", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n2. Subscription status")
	resp, body, err = sendRequest("GET", "/subscription/status", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n3. Sync with billing provider")
	resp, body, err = sendRequest("POST", "/subscription/sync", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n4. Consume one generation")
	resp, body, err = sendRequest("POST", "/usage/increment", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode == http.StatusForbidden {
		color.Red("Denied (limit reached):")
	} else {
		color.Green("Status: %s", resp.Status)
	}
	prettyPrint(body)

	color.Cyan("\n✅ Done")
}

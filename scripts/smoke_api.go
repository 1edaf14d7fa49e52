//go:build ignore

// Smoke test against a running server: go run scripts/smoke_api.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const sampleJudgment = `IN THE SUPREME COURT OF BANGLADESH
Appellate Division
Civil Appeal No. 45 of 2011
Rahima Begum vs Abdul Hamid
Present: Mr. Justice Md. Abdul Wahhab Miah
Judgment: 12th March, 2013

The appeal arises out of a suit for specific performance of a contract for
sale of land. 15 BLD 210 and 60 DLR 45 were relied upon by the appellant.
`

func baseURL() string {
	if v := os.Getenv("SMOKE_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:3000"
}

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func sendRequest(method, path string, body interface{}) (*http.Response, map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL()+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out, nil
}

func step(title, method, path string, body interface{}) map[string]interface{} {
	color.Yellow("\n%s", title)
	resp, out, err := sendRequest(method, path, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 300 {
		color.Red("Status: %s", resp.Status)
		prettyPrint(out)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(out)
	return out
}

func main() {
	color.Cyan("🚀 Legal RAG smoke test against %s\n", baseURL())

	step("1. Health", "GET", "/health", nil)
	step("2. Ingest sample judgment", "POST", "/api/document/v1", map[string]interface{}{
		"filename": "smoke_rahima_begum.pdf",
		"text":     sampleJudgment,
	})
	step("3. Raw search", "POST", "/api/document/v1/search", map[string]interface{}{
		"query": "specific performance of a contract for sale of land",
		"top_k": 3,
	})

	ask := step("4. Ask", "POST", "/api/chatbot/v1/ask", map[string]interface{}{
		"question": "What relief was sought in Rahima Begum vs Abdul Hamid?",
	})
	data, _ := ask["data"].(map[string]interface{})
	sessionID, _ := data["session_id"].(string)

	step("5. Follow-up in the same session", "POST", "/api/chatbot/v1/ask", map[string]interface{}{
		"question":   "Which reports were cited?",
		"session_id": sessionID,
	})
	step("6. Session summary", "GET", "/api/chatbot/v1/sessions/"+sessionID+"/summary", nil)
	step("7. Cleanup", "DELETE", "/api/document/v1/smoke_rahima_begum.pdf", nil)

	color.Cyan("\n✅ Smoke test passed")
}

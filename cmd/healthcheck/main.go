// Package main is a minimal HTTP health check binary for use in distroless
// containers. It exits 0 when the probe endpoint answers HTTP 200, and 1
// otherwise. The probe always answers 200 when the process is serving, so
// this checks liveness, not database health. Compile with CGO_ENABLED=0 for
// a fully static binary.
package main

import (
	"net/http"
	"os"
	"time"
)

const defaultURL = "http://localhost:8080/"

func main() {
	url := os.Getenv("DBPROBE_HEALTHCHECK_URL")
	if url == "" {
		url = defaultURL
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

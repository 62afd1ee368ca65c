// Command grid_compare renders every week of a term on two deployments of
// the timetable API and reports the weeks whose grids differ.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type weekResult struct {
	Week         int
	StableStatus int
	CanaryStatus int
	Match        bool
	Err          error
}

func main() {
	var (
		stableBase string
		canaryBase string
		termID     string
		weeks      int
		hide       bool
		timeout    time.Duration
	)

	flag.StringVar(&stableBase, "stable", "http://localhost:8080/api/v1", "Stable API base URL")
	flag.StringVar(&canaryBase, "canary", "http://localhost:8081/api/v1", "Canary API base URL")
	flag.StringVar(&termID, "term", "", "Term ID to compare")
	flag.IntVar(&weeks, "weeks", 20, "Number of weeks to render")
	flag.BoolVar(&hide, "hide-non-current", false, "Hide occurrences not meeting the rendered week")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if termID == "" || weeks < 1 {
		log.Fatal("-term and a positive -weeks are required")
	}

	client := &http.Client{Timeout: timeout}
	var results []weekResult
	diffs := 0
	for week := 1; week <= weeks; week++ {
		path := fmt.Sprintf("/terms/%s/timetable?week=%d&hideNonCurrent=%t", termID, week, hide)
		res := compareWeek(client, stableBase, canaryBase, path)
		res.Week = week
		if res.Err != nil || !res.Match {
			diffs++
		}
		results = append(results, res)
	}

	printReport(termID, results)
	fmt.Printf("Weeks differing: %d of %d\n", diffs, weeks)
	if diffs > 0 {
		os.Exit(1)
	}
}

func compareWeek(client *http.Client, stableBase, canaryBase, path string) weekResult {
	var res weekResult
	stable, stableStatus, err := fetchGrid(client, stableBase+path)
	if err != nil {
		res.Err = fmt.Errorf("stable: %w", err)
		return res
	}
	canary, canaryStatus, err := fetchGrid(client, canaryBase+path)
	if err != nil {
		res.Err = fmt.Errorf("canary: %w", err)
		return res
	}
	res.StableStatus = stableStatus
	res.CanaryStatus = canaryStatus
	res.Match = stableStatus == canaryStatus && gridsEqual(stable, canary)
	return res
}

func fetchGrid(client *http.Client, url string) (json.RawMessage, int, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	resp, err := client.Get(strings.TrimRight(url, "/"))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode envelope: %w", err)
	}
	return env.Data, resp.StatusCode, nil
}

// gridsEqual compares decoded grids, ignoring record timestamps which differ
// between databases.
func gridsEqual(a, b json.RawMessage) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	strip(aj)
	strip(bj)
	return reflect.DeepEqual(aj, bj)
}

func strip(v interface{}) {
	switch val := v.(type) {
	case map[string]interface{}:
		delete(val, "created_at")
		delete(val, "updated_at")
		for _, child := range val {
			strip(child)
		}
	case []interface{}:
		for _, child := range val {
			strip(child)
		}
	}
}

func printReport(termID string, results []weekResult) {
	fmt.Printf("Week grid comparison for term %s\n", termID)
	fmt.Println("==================================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.Match {
			status = "DIFF"
		}
		fmt.Printf("[%s] week %d (stable %d, canary %d)\n", status, res.Week, res.StableStatus, res.CanaryStatus)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
		}
	}
}

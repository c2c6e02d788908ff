package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	userID    string
	filename  string
)

func main() {
	root := &cobra.Command{
		Use:   "ingestctl",
		Short: "Queue files for ingestion and query the knowledge orchestrator",
	}

	root.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "orchestrator base URL")
	root.PersistentFlags().StringVar(&userID, "user", "cli", "user id to attach to requests")

	pdfCmd := &cobra.Command{
		Use:   "pdf <url>",
		Short: "Queue a PDF for background ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue("/v1/files/pdf", args[0])
		},
	}
	pdfCmd.Flags().StringVar(&filename, "filename", "", "filename to store the document under (defaults to the URL basename)")

	csvCmd := &cobra.Command{
		Use:   "csv <url>",
		Short: "Queue a CSV for background ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueue("/v1/files/csv", args[0])
		},
	}
	csvCmd.Flags().StringVar(&filename, "filename", "", "filename to store the document under (defaults to the URL basename)")

	askCmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Run a query through the full retrieval pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ask(args[0])
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the conversation transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printHistory()
		},
	}

	root.AddCommand(pdfCmd, csvCmd, askCmd, historyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultServerURL() string {
	if url := os.Getenv("ORCHESTRATOR_URL"); url != "" {
		return url
	}
	return "http://localhost:9010"
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

func enqueue(endpoint, fileURL string) error {
	name := filename
	if name == "" {
		name = path.Base(fileURL)
	}

	payload := map[string]string{
		"url":      fileURL,
		"filename": name,
		"user_id":  userID,
	}
	body, err := postJSON(endpoint, payload, http.StatusAccepted)
	if err != nil {
		return err
	}

	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Queued %s as job %s\n", name, resp.JobID)
	return nil
}

func ask(query string) error {
	payload := map[string]string{
		"query":   query,
		"user_id": userID,
	}
	body, err := postJSON("/v1/retrieve", payload, http.StatusOK)
	if err != nil {
		return err
	}

	var resp struct {
		Answer    string `json:"answer"`
		Routed    string `json:"routed"`
		Technique string `json:"technique"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.Technique != "" {
		fmt.Printf("[%s via %s]\n", resp.Routed, resp.Technique)
	}
	fmt.Println(resp.Answer)
	return nil
}

func printHistory() error {
	resp, err := httpClient().Get(serverURL + "/v1/history")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Turns []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	for _, turn := range parsed.Turns {
		fmt.Printf("%s: %s\n", turn.Role, turn.Content)
	}
	return nil
}

func postJSON(endpoint string, payload interface{}, wantStatus int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient().Post(serverURL+endpoint, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != wantStatus {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

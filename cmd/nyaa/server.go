package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/nyaa-go/internal/app"
)

const (
	serverBinary       = "nyaa-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the background HTTP API server",
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start nyaa-server in the background unless it is already running",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := serverURL()
		if err != nil {
			return err
		}
		if isServerRunning(url) {
			fmt.Printf("Server already running at %s\n", url)
			return nil
		}

		fmt.Println("Server not running, starting...")
		if err := startServerBackground(); err != nil {
			return err
		}
		if err := waitForServerReady(url); err != nil {
			return err
		}
		fmt.Printf("Server started at %s\n", url)
		return nil
	},
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the API server answers health checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := serverURL()
		if err != nil {
			return err
		}
		if !isServerRunning(url) {
			return fmt.Errorf("server not running at %s", url)
		}
		fmt.Printf("Server running at %s\n", url)
		return nil
	},
}

func init() {
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverStatusCmd)
}

// serverURL returns the base URL of the configured API server
func serverURL() (string, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port), nil
}

// isServerRunning checks if the server is responding to health checks
func isServerRunning(url string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(url + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findServerBinary locates the nyaa-server binary
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		serverPath := filepath.Join(filepath.Dir(execPath), serverBinary)
		if _, err := os.Stat(serverPath); err == nil {
			return serverPath, nil
		}
	}

	if serverPath, err := exec.LookPath(serverBinary); err == nil {
		return serverPath, nil
	}

	home, _ := os.UserHomeDir()
	commonPaths := []string{
		filepath.Join("/usr/local/bin", serverBinary),
		filepath.Join(home, "go", "bin", serverBinary),
		filepath.Join(home, ".local", "bin", serverBinary),
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// startServerBackground starts the server as a detached background process
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	args := []string{}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd := exec.Command(serverPath, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return cmd.Process.Release()
}

// waitForServerReady polls the server until it's ready or timeout
func waitForServerReady(url string) error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if isServerRunning(url) {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

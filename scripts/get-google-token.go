//go:build ignore

// This script obtains a Google ID token for testing the API by hand.
// Run with: go run scripts/get-google-token.go <credentials.json>
//
// The printed token goes into the Authorization header:
//   curl -H "Authorization: Bearer <token>" http://localhost:5000/api/chat ...
//
// Supports both Desktop and Web Application OAuth credentials.

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/get-google-token.go <credentials.json>")
		os.Exit(1)
	}

	credBytes, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading credentials: %v\n", err)
		os.Exit(1)
	}

	// The ID token only needs the identity scopes.
	config, err := google.ConfigFromJSON(credBytes, "openid", "email", "profile")
	if err != nil {
		fmt.Printf("Error parsing credentials: %v\n", err)
		os.Exit(1)
	}

	// For Desktop Application credentials, use loopback redirect
	// on a dynamically chosen port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Printf("Error finding available port: %v\n", err)
		os.Exit(1)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	config.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	// Start local server for callback
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errMsg := r.URL.Query().Get("error")
			if errMsg != "" {
				errChan <- fmt.Errorf("OAuth error: %s", errMsg)
				http.Error(w, "Authorization failed: "+errMsg, http.StatusBadRequest)
				return
			}
			// Might be favicon or other request, ignore
			return
		}
		codeChan <- code
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html><html><body style="font-family:system-ui;display:flex;justify-content:center;align-items:center;height:100vh;background:#4CAF50;color:white;"><div style="text-align:center"><h1>Success!</h1><p>You can close this window and return to the terminal.</p></div></body></html>`)
	})

	server := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Println("\n=== Google Sign-In ===")
	fmt.Printf("\nUsing redirect URI: %s\n", config.RedirectURL)
	fmt.Println("\nOpening browser for authentication...")

	if err := openBrowser(authURL); err != nil {
		fmt.Println("\nCould not open browser automatically.")
		fmt.Println("Please open this URL manually:\n")
		fmt.Println(authURL)
	}

	fmt.Println("\nWaiting for authorization...")

	var code string
	select {
	case code = <-codeChan:
		fmt.Println("\nAuthorization received!")
	case err := <-errChan:
		fmt.Printf("\nError: %v\n", err)
		os.Exit(1)
	case <-time.After(5 * time.Minute):
		fmt.Println("\nTimeout waiting for authorization")
		os.Exit(1)
	}

	token, err := config.Exchange(context.Background(), code)
	if err != nil {
		fmt.Printf("Error exchanging code: %v\n", err)
		os.Exit(1)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		fmt.Println("No id_token in response; make sure the openid scope was granted")
		os.Exit(1)
	}

	fmt.Println("\n=== Success! ===\n")
	fmt.Println("ID token (valid ~1 hour):")
	fmt.Println(idToken)
	fmt.Println("\nExample:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s...' http://localhost:5000/api/chat\n", idToken[:16])
}

// openBrowser opens a URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		// Try xdg-open first, then sensible-browser, then common browsers
		if _, err := exec.LookPath("xdg-open"); err == nil {
			cmd = exec.Command("xdg-open", url)
		} else if _, err := exec.LookPath("sensible-browser"); err == nil {
			cmd = exec.Command("sensible-browser", url)
		} else if _, err := exec.LookPath("firefox"); err == nil {
			cmd = exec.Command("firefox", url)
		} else if _, err := exec.LookPath("google-chrome"); err == nil {
			cmd = exec.Command("google-chrome", url)
		} else {
			return fmt.Errorf("no browser found")
		}
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}

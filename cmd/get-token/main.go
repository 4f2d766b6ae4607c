package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	"github.com/ripixel/fitglue-leaderboard/pkg/bootstrap"
	"github.com/ripixel/fitglue-leaderboard/pkg/oauth"
)

func main() {
	port := flag.Int("port", 3000, "Local port for the OAuth callback")
	scope := flag.String("scope", "activity:read_all", "Requested Strava scope")
	flag.Parse()

	clientID := os.Getenv(shared.SecretStravaClientID)
	clientSecret := os.Getenv(shared.SecretStravaClientSecret)
	if clientID == "" || clientSecret == "" {
		fmt.Fprintln(os.Stderr, "Error: Missing required environment variables")
		fmt.Fprintf(os.Stderr, "Please set %s and %s\n", shared.SecretStravaClientID, shared.SecretStravaClientSecret)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger("get-token")
	redirectURL := fmt.Sprintf("http://localhost:%d/callback", *port)
	cfg := &oauth.Config{ClientID: clientID, ClientSecret: clientSecret}
	session := newAuthSession(cfg.OAuth2(redirectURL, *scope), &http.Client{Timeout: 30 * time.Second}, logger)

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", *port))
	if err != nil {
		log.Fatalf("Port %d is not available: %v", *port, err)
	}
	srv := &http.Server{Handler: session, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	fmt.Println("\n=== Strava OAuth Token Helper ===")
	fmt.Println("\n1. Visit this URL to authorize the application:")
	fmt.Println(session.AuthCodeURL())
	fmt.Printf("\n2. After authorizing, you will be redirected to localhost:%d\n", *port)
	fmt.Println("\nWaiting for callback...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res authResult
	select {
	case res = <-session.done:
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)

	if res.Err != nil {
		slog.Error("Authorization failed", "error", res.Err)
		os.Exit(1)
	}
	printResult(res)
}

func printResult(res authResult) {
	a := res.Athlete
	username := a.Username
	if username == "" {
		username = "N/A"
	}
	fmt.Println("\nSuccessfully obtained tokens!")
	fmt.Println("\nAthlete Information:")
	fmt.Printf("  ID: %s\n", a.ID)
	fmt.Printf("  Name: %s %s\n", a.FirstName, a.LastName)
	fmt.Printf("  Username: %s\n", username)
	fmt.Println("\nTokens:")
	fmt.Printf("  Access Token: %s\n", res.Token.AccessToken)
	fmt.Printf("  Refresh Token: %s\n", res.Token.RefreshToken)
	fmt.Printf("  Expires At: %s\n", res.Token.Expiry.UTC().Format(time.RFC3339))
	fmt.Printf("\nAdd this entry to %s:\n", shared.SecretStravaAthletes)
	fmt.Printf("  {\"id\": %s, \"name\": %q, \"token\": %q}\n\n", a.ID, a.FirstName+" "+a.LastName, res.Token.RefreshToken)
}

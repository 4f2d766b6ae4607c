package main

import (
	"log"
	"os"

	// Import functions/init
	_ "github.com/ripixel/fitglue-leaderboard/functions/leaderboard"
	_ "github.com/ripixel/fitglue-leaderboard/functions/snapshot-builder"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
)

// Runs both functions in one local process. Without FUNCTION_TARGET each is
// served under /<FunctionName>; set FUNCTION_TARGET=ServeLeaderboard to get
// the page on "/".
func main() {
	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	if err := funcframework.Start(port); err != nil {
		log.Fatalf("funcframework.Start: %v\n", err)
	}
}

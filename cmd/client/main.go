// Package main provides a command-line client for the combat service
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/KirkDiggler/rpg-combat/internal/errors"
	"github.com/KirkDiggler/rpg-combat/internal/handlers/combat/v1alpha1"
)

var (
	serverAddr string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "rpg-combat-client",
	Short: "Client for the RPG Combat service",
	Long:  `Issue CombatService RPCs against a running server and print the JSON responses.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "localhost:50051", "gRPC server address")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(addTeamCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(actCmd)
	rootCmd.AddCommand(surrenderCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(archivedCmd)
}

// call sends one request and prints the response
func call(method string, req any) error {
	conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Failed to close connection: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	in, err := v1alpha1.Encode(req)
	if err != nil {
		return err
	}

	out, err := v1alpha1.NewCombatServiceClient(conn).Call(ctx, method, in)
	if err != nil {
		converted := errors.FromGRPCError(err)
		if errors.GetCode(converted).Retryable() {
			return fmt.Errorf("%s failed, safe to retry: %w", method, converted)
		}
		if reason := errors.GetReason(converted); reason != "" {
			return fmt.Errorf("%s failed (%s): %w", method, reason, converted)
		}
		return fmt.Errorf("%s failed: %w", method, converted)
	}

	var pretty map[string]any
	if err := v1alpha1.Decode(out, &pretty); err != nil {
		return err
	}
	data, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

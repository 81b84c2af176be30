package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	bookingID     string
	creatorID     string
	userID        string
	requestID     string
	participantID string
	description   string
)

func init() {
	createCmd.Flags().StringVar(&bookingID, "booking", "", "Booking ID to advertise")
	createCmd.Flags().StringVar(&creatorID, "creator", "", "Creator user ID")
	createCmd.Flags().StringVar(&description, "description", "", "Free-text description")
	joinCmd.Flags().StringVar(&requestID, "request", "", "Match request ID")
	joinCmd.Flags().StringVar(&userID, "user", "", "Joining user ID")
	acceptCmd.Flags().StringVar(&requestID, "request", "", "Match request ID")
	acceptCmd.Flags().StringVar(&participantID, "participant", "", "Participant ID to accept")
	acceptCmd.Flags().StringVar(&creatorID, "creator", "", "Creator user ID")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(acceptCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List the active match requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/requests")
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a match request on a booking",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := fmt.Sprintf(`{"booking_id":%q,"creator_id":%q,"description":%q}`, bookingID, creatorID, description)
		return performPostRequest("/requests/create", body)
	},
}

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join an open match request",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := fmt.Sprintf(`{"request_id":%q,"user_id":%q}`, requestID, userID)
		return performPostRequest("/requests/join", body)
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Accept a participant and settle the match",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := fmt.Sprintf(`{"request_id":%q,"participant_id":%q,"creator_id":%q}`, requestID, participantID, creatorID)
		return performPostRequest("/requests/accept", body)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Trigger the expiry sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/sweep", "{}")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint, body string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}

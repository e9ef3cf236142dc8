package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const sampleState = `{"Estado": "Texas", "Sigla do Estado": "TX", "Destaque Principal": "Energia, aeroespacial e tecnologia", "Índice de Custo de Vida": 92.1, "Salário Mínimo por Hora (USD)": 7.25, "Ambiente Acadêmico (Geral)": "UT Austin, Rice, Texas A&M", "Clima (Geral)": "Quente e úmido"}`

var (
	baseURL string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "gateway-test",
	Short:         "Smoke tests for a running state analysis gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAll,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run health, card and analysis checks",
	RunE:  runAll,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check GET /health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(newTestClient().testHealthCheck())
	},
}

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Check GET /.well-known/agent.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(newTestClient().testAgentCard())
	},
}

var stateArg string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "POST a state profile to /api/gemini-analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState(stateArg)
		if err != nil {
			return err
		}
		return check(newTestClient().testAnalysis(state))
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt <text>",
	Short: "POST a free-text prompt to /api/gemini",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(newTestClient().testPrompt(strings.Join(args, " ")))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the gateway")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "HTTP client timeout")
	analyzeCmd.Flags().StringVar(&stateArg, "state", "", "state profile as JSON or @file (default: Texas sample)")

	rootCmd.AddCommand(allCmd, healthCmd, cardCmd, analyzeCmd, promptCmd)
}

func runAll(cmd *cobra.Command, args []string) error {
	tc := newTestClient()

	printHeader("State Analysis Gateway - Test Suite")
	fmt.Println(infoStyle.Render("Base URL: " + baseURL))
	fmt.Println()

	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Health Check", tc.testHealthCheck},
		{"Agent Card", tc.testAgentCard},
		{"State Analysis", func() bool { return tc.testAnalysis(sampleState) }},
		{"Method Not Allowed", tc.testMethodNotAllowed},
		{"Invalid Input", tc.testInvalidInput},
	}

	passed, failed := 0, 0
	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	printHeader("Test Summary")
	fmt.Println(successStyle.Render(fmt.Sprintf("Passed: %d", passed)))
	fmt.Println(errorStyle.Render(fmt.Sprintf("Failed: %d", failed)))
	fmt.Printf("Total: %d\n", passed+failed)

	if failed > 0 {
		return fmt.Errorf("%d test(s) failed", failed)
	}
	return nil
}

func check(ok bool) error {
	if !ok {
		return fmt.Errorf("check failed")
	}
	return nil
}

func loadState(arg string) (string, error) {
	switch {
	case arg == "":
		return sampleState, nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return "", fmt.Errorf("read state file: %w", err)
		}
		return string(data), nil
	default:
		return arg, nil
	}
}

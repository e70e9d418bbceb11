package errors

import (
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// SuggestionContext provides context for generating suggestions
type SuggestionContext struct {
	ConfigPath string
	LogoDir    string
}

// ConfigurationError generates suggestions for configuration load failures
func ConfigurationError(message string, ctx *SuggestionContext) []ErrorSuggestion {
	configPath := ".craftsite.yml"
	if ctx != nil && ctx.ConfigPath != "" {
		configPath = ctx.ConfigPath
	}

	suggestions := []ErrorSuggestion{
		{
			Title:       "Inspect the effective configuration",
			Description: "Print the merged configuration from file, environment and flags",
			Command:     "craftsite config",
		},
		{
			Title:       "Check the configuration file",
			Description: "Verify " + configPath + " is valid YAML",
			Command:     "cat " + configPath,
			Example:     "server:\n  host: localhost\n  port: 8080",
		},
	}

	lower := strings.ToLower(message)
	if strings.Contains(lower, "relay") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Set the email relay identifiers",
			Description: "Service id, template id and public key must all be present",
			Example:     "export EMAILJS_SERVICE_ID=service_x EMAILJS_TEMPLATE_ID=template_x EMAILJS_PUBLIC_KEY=key",
		})
	}
	if strings.Contains(lower, "port") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use a valid port",
			Description: "Ports must be in the range 0-65535",
			Command:     "craftsite serve --port 8080",
		})
	}

	return suggestions
}

// ServerStartError generates suggestions for listen failures
func ServerStartError(err error, port int) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Try a different port",
			Description: fmt.Sprintf("Port %d may already be in use", port),
			Command:     fmt.Sprintf("craftsite serve --port %d", port+1),
		},
	}

	if err != nil && strings.Contains(err.Error(), "permission denied") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use an unprivileged port",
			Description: "Ports below 1024 usually require elevated privileges",
			Command:     "craftsite serve --port 8080",
		})
	}

	return suggestions
}

// RelayFailureError generates suggestions for a failed CLI relay call
func RelayFailureError(err error) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check relay credentials",
			Description: "The relay rejects requests with unknown service, template or key",
			Command:     "craftsite config",
		},
	}

	if err != nil && (strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline")) {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Increase the relay timeout",
			Description: "The relay endpoint did not answer in time",
			Example:     "relay:\n  timeout: 30s",
		})
	}

	return suggestions
}

// FormatSuggestions formats suggestions for display
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	var b strings.Builder
	b.WriteString("Error: " + title + "\n")

	if len(suggestions) == 0 {
		return b.String()
	}

	b.WriteString("\nSuggestions:\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, s.Title)
		if s.Description != "" {
			fmt.Fprintf(&b, "     %s\n", s.Description)
		}
		if s.Command != "" {
			fmt.Fprintf(&b, "     $ %s\n", s.Command)
		}
		if s.Example != "" {
			for _, line := range strings.Split(s.Example, "\n") {
				fmt.Fprintf(&b, "     | %s\n", line)
			}
		}
	}

	return b.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	msg := FormatSuggestions(e.Title, e.Suggestions)
	if e.OriginalError != nil {
		msg += "\nCause: " + e.OriginalError.Error() + "\n"
	}
	return msg
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}

package utils

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID for tracking
func GenerateRequestID() string {
	return uuid.New().String()
}

// FormatDuration formats a duration to a human-readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// FindRegexMatch finds the first match of a regex pattern in text
func FindRegexMatch(text, pattern string) []string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re.FindStringSubmatch(text)
}

// GenerateProcessIDWithPrefix generates a unique process ID with a type prefix
func GenerateProcessIDWithPrefix(taskType string) string {
	timestamp := time.Now().Format("20060102")
	return fmt.Sprintf("%s_%s_%s", taskType, timestamp, uuid.New().String())
}

// GenerateMissionProcessID generates a unique process ID for orchestrator missions
func GenerateMissionProcessID() string {
	return GenerateProcessIDWithPrefix("mission")
}

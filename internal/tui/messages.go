package tui

import (
	"fmt"

	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/internal/ui"
)

var causeText = map[domain.Cause]string{
	domain.CauseNetwork:    "Could not reach the server",
	domain.CauseHTTPStatus: "The server answered with an error",
	domain.CauseParse:      "The response could not be understood",
	domain.CauseAuth:       "The download client rejected the login",
	domain.CauseSubmission: "The download client refused the torrent",
	domain.CauseTimeout:    "The request took too long",
	domain.CauseConfig:     "The configuration is invalid",
}

// CauseText returns a human description of a cause tag
func CauseText(c domain.Cause) string {
	if text, ok := causeText[c]; ok {
		return text
	}
	return "Something went wrong"
}

// NoticeText renders a failure notice with the intent it belongs to
func NoticeText(n ui.Notice) string {
	var head string
	switch n.Kind {
	case ui.NoticeSubmission:
		head = fmt.Sprintf("%s\n\nSending %q to %s failed.", CauseText(n.Cause), n.Outcome.Title, n.Outcome.Client)
		if n.Cause == domain.CauseAuth {
			head += "\n" + AuthHint(n.Outcome.Client)
		}
	default:
		head = fmt.Sprintf("%s\n\nSearching %q on %s (page %d) failed", CauseText(n.Cause), n.Query.Term, n.Query.Source, n.Query.Page)
		if n.Attempts > 1 {
			head += fmt.Sprintf(" after %d attempts", n.Attempts)
		}
		head += "."
	}
	if n.Err != nil {
		head += "\n\n" + n.Err.Error()
	}
	return head
}

// AuthHint points at the config entries to fix after a rejected login
func AuthHint(client string) string {
	return fmt.Sprintf("Check username and password of client %q under clients in the config file.", client)
}

// OutcomeText renders the status line for a finished submission
func OutcomeText(out domain.DownloadOutcome) string {
	if out.Succeeded {
		return fmt.Sprintf("Sent %q to %s", out.Title, out.Client)
	}
	return fmt.Sprintf("Failed to send %q to %s: %s", out.Title, out.Client, out.Cause)
}

package handler

import (
	"github.com/young1lin/grok-search/internal/models"
)

// errorText renders err for the caller, prefixed by its kind
func errorText(err error) string {
	switch models.KindOf(err) {
	case models.KindMissingConfig:
		return "Configuration error: " + err.Error()
	case models.KindTransport:
		return "Network error: " + err.Error()
	case models.KindUpstreamFormat:
		return "Upstream format error: " + err.Error()
	case models.KindInvalidInput:
		return "Invalid input: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

package utils

import (
	"log"
	"strings"
)

// LogEvent prints one line tagged with module, action and request id.
// Callers summarise; payloads with passwords or card numbers never go here.
func LogEvent(requestID, module, action, message string) {
	log.Printf("[%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, strings.TrimSpace(requestID), message)
}

// LogError is LogEvent for a failed action.
func LogError(requestID, module, action string, err error) {
	if err == nil {
		return
	}
	log.Printf("[%s] action=%s request_id=%s error=%v", strings.ToUpper(module), action, strings.TrimSpace(requestID), err)
}

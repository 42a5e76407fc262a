// Package api exposes the REST surface for submitting automation tasks
// and querying their status. The HTTP layer is deliberately thin: request
// parsing and response shaping only, with all business behaviour living
// behind the task service.
package api

// Package status talks to the OBS-multistream REST API and turns its
// responses into chat-ready summaries. The client performs a single bounded
// GET per call; the render functions are total and map every failure onto a
// deterministic fallback message.
package status

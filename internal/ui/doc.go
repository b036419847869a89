// Package ui provides terminal output for the latensee CLI.
//
// Everything here renders plain lines with Lip Gloss styling; there is no
// full-screen mode.
//
// # Components Overview
//
//	ConnectionDisplay - Reconnect state stream with collapsed retries
//	PhaseDisplay      - Steps of one-shot commands (status, start, stop)
//	RenderSampleTable - Per-command latency stats with a sparkline
//	RenderDoctorTable - Doctor check results grouped by category
//	RenderHeader      - Banner printed when watch starts
//
// # Color Scheme
//
//	ColorSuccess   (green)  - Linked, checks passed, low latency
//	ColorError     (red)    - Disconnects, failures, latency over 10ms
//	ColorWarning   (amber)  - Alerts, latency over 1ms
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, timing info
//	ColorSecondary (blue)   - Connecting
//
// ConfigureColors picks a color profile from output.color, --no-color, NO_COLOR
// and whether stdout is a terminal. DisableColors forces monochrome.
package ui

// Package internal contains the core implementation packages for compvault.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the compvault CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - scanner: import statement extraction from component sources
//   - registry: package resolution against the CDN module registry
//   - detector: per-file and aggregate framework detection
//   - synth: client-side runtime synthesis for React previews
//   - sfc: Vue single-file component block extraction
//   - document: self-contained preview document generation
//   - sandbox: iframe lifecycle state machine and console bridge
//   - preview: render orchestration with debounce, devices, and caching
//   - server: HTTP server, WebSocket hub, and the host/frame pages
//   - watcher: file system monitoring with debouncing
//   - config: configuration management with validation
//
// # Inter-Package Communication
//
// Packages communicate through well-defined interfaces:
//
//   - Scanner and detector are pure functions over source files
//   - Document consumes scanner, registry, detector, and synth output
//   - Preview controller drives document generation and the sandbox host
//   - Server coordinates between all components and relays frame messages
//   - Watcher monitors the file system and triggers controller updates
//
// # Security Considerations
//
// Security is implemented at multiple layers:
//
//   - Config package validates all configuration inputs
//   - Server package implements origin validation on HTTP and WebSocket
//   - Sandbox package drops messages from stale or unknown frames
//   - Watcher package validates file paths and prevents traversal attacks
//
// For detailed documentation, see the individual package documentation.
package internal

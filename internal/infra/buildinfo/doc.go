// Package buildinfo exposes build information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/roster-go/internal/infra/buildinfo.Version=v1.0.0"
//
// GoVersion defaults to the toolchain that built the binary.
package buildinfo

// Package engine drives a Docker-compatible container engine through its
// command line.
//
// The engine is a black box: imgship never builds, stores or serializes
// images itself. Every operation maps to one engine invocation:
//
//	Ping             docker info --format {{.ServerVersion}}
//	BuildxAvailable  docker buildx version
//	Build            docker [buildx] build --platform P [--load] -t REF -f FILE CONTEXT
//	Architecture     docker image inspect --format {{.Architecture}} REF
//	ImageID          docker images --quiet REF
//	Save             docker save REF            (archive streamed from stdout)
//	Load             docker load -i ARCHIVE
//
// Failures are returned as *Error values wrapping one of the package's
// sentinel errors, so callers can test them with errors.Is.
package engine

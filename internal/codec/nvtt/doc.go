// Package nvtt binds ddsforge to NVIDIA Texture Tools 3 through its C API.
//
// The binding is compiled only with the nvtt build tag and a cgo toolchain
// that can find nvtt/nvtt_wrapper.h and libnvtt:
//
//	CGO_CFLAGS=-I$NVTT_SDK/include CGO_LDFLAGS=-L$NVTT_SDK/lib go build -tags nvtt ./cmd/ddsforge
//
// Importing the package registers the "nvtt" backend with package codec.
// Without the tag the import is empty and codec.Open("nvtt", ...) reports
// codec.ErrUnavailable.
package nvtt

// Name is the backend name registered with package codec.
const Name = "nvtt"

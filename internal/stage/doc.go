// Package stage holds the per-job stage contract shared by the transcode
// stage and the batch driver, plus the Health record used by preflight.
package stage
